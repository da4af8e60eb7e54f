// internal/api/api.go
//
// JSON API server: wiring, routing, and response envelope.
//
// Context
// -------
// Every request is stateless dispatch: method + path route to one catalog,
// moderation, category, or session operation.  Mutating routes sit behind
// the session gate; the only unauthenticated paths are the public listing,
// the public submission (itself behind the feature switch), the favicon
// probe, and login.
//
// Responses are `{code, ...}` JSON where code doubles as the HTTP status.
// Error responses carry only the generic per-kind message; the real cause
// is logged.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/waypost/internal/apperr"
	"github.com/yanizio/waypost/internal/catalog"
	"github.com/yanizio/waypost/internal/favicon"
	"github.com/yanizio/waypost/internal/moderation"
	"github.com/yanizio/waypost/internal/session"
)

// Server bundles the collaborators the handlers need.  Construct with New;
// the zero value is unusable.
type Server struct {
	log        *zap.SugaredLogger
	sessions   *session.Manager
	sites      *catalog.Repository
	categories *catalog.Resolver
	queue      *moderation.Queue
	finder     favicon.Finder
	db         pinger

	adminUser string
	adminHash string // bcrypt
}

// pinger is the slice of *sqlx.DB the health check needs.
type pinger interface {
	Ping() error
}

// New builds a Server.  adminHash is a bcrypt hash; finder may be nil to
// disable the probe endpoint's discovery (it then always misses).
func New(log *zap.SugaredLogger, sessions *session.Manager, sites *catalog.Repository,
	categories *catalog.Resolver, queue *moderation.Queue, finder favicon.Finder,
	db pinger, adminUser, adminHash string) *Server {
	return &Server{
		log:        log,
		sessions:   sessions,
		sites:      sites,
		categories: categories,
		queue:      queue,
		finder:     finder,
		db:         db,
		adminUser:  adminUser,
		adminHash:  adminHash,
	}
}

// Routes builds the chi router for the whole API surface.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.MethodNotAllowed(s.handleMethodNotAllowed)
	r.NotFound(s.handleNotFound)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Get("/config", s.handleListSites)
		r.Post("/config/submit", s.handleSubmit)
		r.Get("/favicon", s.handleFaviconProbe)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/config", s.handleCreateSite)
			r.Put("/config/{id}", s.handleUpdateSite)
			r.Delete("/config/{id}", s.handleDeleteSite)

			r.Get("/config/import", s.handleImport)
			r.Post("/config/import", s.handleImport)
			r.Get("/config/export", s.handleExport)

			r.Get("/pending", s.handleListPending)
			r.Put("/pending/{id}", s.handleApprove)
			r.Delete("/pending/{id}", s.handleReject)

			r.Get("/categories", s.handleListCategories)
			r.Put("/categories/{name}", s.handleSetCategoryOrder)
		})
	})

	return r
}

//
// Response envelope
//

// respond writes `payload` with "code" forced to the HTTP status.
func (s *Server) respond(w http.ResponseWriter, status int, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["code"] = status

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Errorw("response encode failed", "err", err)
	}
}

// fail maps err onto its kind's status and generic message.  The internal
// detail goes to the log only.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		s.log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.log.Debugw("request refused", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	s.respond(w, kind.HTTPStatus(), map[string]any{"message": kind.PublicMessage()})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.fail(w, r, apperr.New(apperr.MethodNotAllowed, "%s not allowed on %s", r.Method, r.URL.Path))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.fail(w, r, apperr.New(apperr.NotFound, "no route for %s", r.URL.Path))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.fail(w, r, apperr.Wrap(apperr.Internal, err, "health ping"))
		return
	}
	s.respond(w, http.StatusOK, nil)
}
