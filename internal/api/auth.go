// internal/api/auth.go
//
// Login, logout, and the session gate.
//
// Context
// -------
// There is a single trusted admin whose name and bcrypt hash come from
// configuration.  Login mints a session token and sets the cookie; logout
// destroys the token and expires the cookie.  requireAuth guards every
// mutating route: a request without a live session short-circuits with 401
// before any store access, and a request with one gets its TTL and cookie
// refreshed (sliding expiration).
//
// Wrong user, wrong password, missing cookie, and expired token are all
// the same 401 — nothing distinguishes them externally.
package api

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/waypost/internal/apperr"
	"github.com/yanizio/waypost/internal/requestinfo"
	"github.com/yanizio/waypost/internal/session"
)

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	nameOK := subtle.ConstantTimeCompare([]byte(req.Name), []byte(s.adminUser)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(req.Password))
	if !nameOK || passErr != nil {
		if info := requestinfo.FromContext(r.Context()); info != nil {
			s.log.Infow("login refused",
				"ip", info.Geo.IP, "country", info.Geo.CountryISO, "browser", info.UA.Browser)
		}
		s.fail(w, r, apperr.New(apperr.Unauthorized, "bad credentials for %q", req.Name))
		return
	}

	token, err := s.sessions.Create(r.Context())
	if err != nil {
		s.fail(w, r, apperr.Wrap(apperr.Internal, err, "create session"))
		return
	}
	s.sessions.SetCookie(w, token)
	s.log.Infow("admin logged in")
	s.respond(w, http.StatusOK, nil)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(session.CookieName); err == nil {
		if err := s.sessions.Destroy(r.Context(), c.Value); err != nil {
			s.log.Errorw("session destroy failed", "err", err)
		}
	}
	s.sessions.ClearCookie(w)
	s.respond(w, http.StatusOK, nil)
}

// requireAuth validates the session and, on success, slides the browser's
// cookie alongside the store row.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, token := s.sessions.Validate(r.Context(), r)
		if !ok {
			s.fail(w, r, apperr.New(apperr.Unauthorized, "no valid session"))
			return
		}
		s.sessions.SetCookie(w, token)
		next.ServeHTTP(w, r)
	})
}
