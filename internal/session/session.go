// internal/session/session.go
//
// Admin session management.
//
// Context
// -------
// A single trusted admin authenticates once and then rides an opaque,
// cryptographically random token stored in the `sessions` table.  The table
// is a durable key/value store with per-key expiry: token → created_at,
// expires_at.  Expiration is *sliding*: every successful Validate rewrites
// expires_at to a full TTL from now, so an active admin never logs out
// mid-session.  Expired rows become unusable immediately (every lookup
// carries an `expires_at > NOW()` predicate) and are physically removed by
// the janitor.
//
// Failure semantics
// -----------------
// Missing, expired, and unknown tokens are indistinguishable to callers:
// Validate simply reports unauthenticated.  Nothing about why is surfaced,
// so tokens cannot be enumerated.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/waypost/internal/metrics"
)

const (
	// CookieName is the fixed session-cookie name.
	CookieName = "waypost_session"

	// DefaultTTL is the sliding session window.
	DefaultTTL = 12 * time.Hour

	janitorInterval = 15 * time.Minute
)

// Manager issues, validates, refreshes, and revokes admin sessions.
type Manager struct {
	db  *sqlx.DB
	ttl time.Duration
}

// NewManager returns a Manager over db.  ttl <= 0 falls back to DefaultTTL.
func NewManager(db *sqlx.DB, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{db: db, ttl: ttl}
}

// TTL reports the sliding window; the API layer mirrors it into Max-Age.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Create generates an unguessable token and stores it with a fresh expiry.
func (m *Manager) Create(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	const q = `INSERT INTO sessions (token, created_at, expires_at)
	           VALUES (?, NOW(), DATE_ADD(NOW(), INTERVAL ? SECOND))`
	if _, err := m.db.ExecContext(ctx, q, token, int(m.ttl.Seconds())); err != nil {
		return "", err
	}
	metrics.SessionsActive.Inc()
	return token, nil
}

// Validate extracts the session cookie from r and checks it against the
// store.  A live token has its expiry pushed out by the full TTL (sliding
// expiration); the refresh and the liveness check are one UPDATE, so there
// is no read-modify-write race between concurrent requests.
//
// ok == false covers every failure mode uniformly: no cookie, unknown
// token, or expired token.
func (m *Manager) Validate(ctx context.Context, r *http.Request) (ok bool, token string) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return false, ""
	}

	const q = `UPDATE sessions
	              SET expires_at = DATE_ADD(NOW(), INTERVAL ? SECOND)
	            WHERE token = ? AND expires_at > NOW()`
	res, err := m.db.ExecContext(ctx, q, int(m.ttl.Seconds()), c.Value)
	if err != nil {
		zap.S().Errorw("session validate failed", "err", err)
		return false, ""
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false, ""
	}
	return true, c.Value
}

// Destroy deletes the token's row.  Idempotent: destroying an unknown or
// already-expired token is not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	res, err := m.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		metrics.SessionsActive.Dec()
	}
	return nil
}

// StartJanitor sweeps expired rows until ctx is done.  The expires_at
// predicate on Validate already makes stale rows unusable; the sweep only
// reclaims storage and corrects the active-sessions gauge.
func (m *Manager) StartJanitor(ctx context.Context) {
	go func() {
		t := time.NewTicker(janitorInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				res, err := m.db.ExecContext(ctx,
					`DELETE FROM sessions WHERE expires_at <= NOW()`)
				if err != nil {
					zap.S().Errorw("session janitor sweep failed", "err", err)
					continue
				}
				if n, _ := res.RowsAffected(); n > 0 {
					metrics.SessionsActive.Sub(float64(n))
					zap.S().Infow("session janitor sweep", "expired", n)
				}
			}
		}
	}()
}

//
// Cookie contract
//

// SetCookie writes the session cookie: HttpOnly, Secure, SameSite=Strict,
// path /, Max-Age = TTL seconds.  Called after Create and after every
// successful Validate so the browser's copy slides with the store's.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the session cookie immediately (Max-Age=0 on the
// wire).
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
