// internal/api/sites.go
//
// Catalog handlers: listing, CRUD, bulk import, and export.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/waypost/internal/apperr"
	"github.com/yanizio/waypost/internal/catalog"
)

// decodeBody decodes a JSON request body.  A malformed body is an internal
// error per the service's taxonomy, not a validation failure.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.Internal, err, "decode request body")
	}
	return nil
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.NotFound, "bad id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// queryInt parses an integer query parameter, 0 when absent or garbled.
func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// GET /api/config?catalog&page&pageSize&keyword  (public)
func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	f := catalog.Filter{
		Catalog: r.URL.Query().Get("catalog"),
		Keyword: r.URL.Query().Get("keyword"),
	}
	items, total, err := s.sites.List(r.Context(), f, queryInt(r, "page"), queryInt(r, "pageSize"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"data": items, "total": total})
}

// POST /api/config  (auth)
func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var in catalog.SiteInput
	if err := decodeBody(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.sites.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.categories.Invalidate()
	s.respond(w, http.StatusCreated, map[string]any{"id": id})
}

// PUT /api/config/{id}  (auth)
func (s *Server) handleUpdateSite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in catalog.SiteInput
	if err := decodeBody(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.sites.Update(r.Context(), id, in); err != nil {
		s.fail(w, r, err)
		return
	}
	s.categories.Invalidate()
	s.respond(w, http.StatusOK, nil)
}

// DELETE /api/config/{id}  (auth)
func (s *Server) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.sites.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.categories.Invalidate()
	s.respond(w, http.StatusOK, nil)
}

// GET|POST /api/config/import  (auth)
//
// The GET variant exists for an old client that sent its payload on a GET;
// both verbs read the body identically.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		s.fail(w, r, apperr.Wrap(apperr.Internal, err, "read import body"))
		return
	}
	count, err := s.sites.ImportBatch(r.Context(), raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.categories.Invalidate()
	s.respond(w, http.StatusOK, map[string]any{"count": count})
}

// GET /api/config/export  (auth)
//
// Pretty-printed raw array, served as an attachment so a browser downloads
// instead of rendering.  The shape round-trips through import.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sites, err := s.sites.ExportAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	buf, err := json.MarshalIndent(sites, "", "  ")
	if err != nil {
		s.fail(w, r, apperr.Wrap(apperr.Internal, err, "marshal export"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="waypost-export.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf)
}

// GET /api/favicon?url=  (public)
func (s *Server) handleFaviconProbe(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		s.fail(w, r, apperr.New(apperr.Validation, "url parameter is required"))
		return
	}
	if s.finder == nil {
		s.fail(w, r, apperr.New(apperr.NotFound, "favicon discovery disabled"))
		return
	}
	icon, err := s.finder.Discover(r.Context(), target)
	if err != nil {
		s.fail(w, r, apperr.Wrap(apperr.NotFound, err, "favicon probe %q", target))
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"url": icon})
}
