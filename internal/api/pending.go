// internal/api/pending.go
//
// Moderation handlers: public submission plus the admin review queue.
package api

import (
	"net/http"

	"github.com/yanizio/waypost/internal/apperr"
	"github.com/yanizio/waypost/internal/catalog"
	"github.com/yanizio/waypost/internal/metrics"
	"github.com/yanizio/waypost/internal/requestinfo"
)

// POST /api/config/submit  (public, behind the feature switch)
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	info := requestinfo.FromContext(r.Context())
	if info != nil && info.UA.IsBot {
		s.fail(w, r, apperr.New(apperr.Forbidden, "crawler submission refused (%s)", info.UA.Raw))
		return
	}

	var in catalog.SiteInput
	if err := decodeBody(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.queue.Submit(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	metrics.SubmissionsTotal.Inc()
	if info != nil {
		s.log.Infow("submission received",
			"id", id,
			"ip", info.Geo.IP,
			"country", info.Geo.CountryISO,
			"browser", info.UA.Browser,
			"device", info.UA.Device,
		)
	}
	s.respond(w, http.StatusCreated, map[string]any{"id": id})
}

// GET /api/pending?page&pageSize  (auth)
func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	items, total, err := s.queue.List(r.Context(), queryInt(r, "page"), queryInt(r, "pageSize"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"data": items, "total": total})
}

// PUT /api/pending/{id}  (auth) — approve
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.queue.Approve(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	metrics.ApprovalsTotal.Inc()
	s.categories.Invalidate()
	s.respond(w, http.StatusOK, nil)
}

// DELETE /api/pending/{id}  (auth) — reject
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.queue.Reject(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	metrics.RejectionsTotal.Inc()
	s.respond(w, http.StatusOK, nil)
}
