// internal/api/categories.go
//
// Category-order handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/waypost/internal/apperr"
)

// GET /api/categories  (auth)
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	views, err := s.categories.Resolve(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"data": views})
}

type categoryOrderRequest struct {
	SortOrder any  `json:"sort_order"`
	Reset     bool `json:"reset"`
}

// PUT /api/categories/{name}  (auth)
//
// `{sort_order: n}` sets an explicit override; `{reset: true}` clears it,
// reverting the category to its derived fallback.
func (s *Server) handleSetCategoryOrder(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		s.fail(w, r, apperr.New(apperr.Validation, "category name is required"))
		return
	}

	var req categoryOrderRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	var err error
	if req.Reset {
		err = s.categories.ResetOverride(r.Context(), name)
	} else {
		err = s.categories.SetOverride(r.Context(), name, req.SortOrder)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.categories.Invalidate()
	s.respond(w, http.StatusOK, nil)
}
