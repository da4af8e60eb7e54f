// internal/session/session_test.go
//
// Unit-tests for the session manager using sqlmock.
//
// Run: go test ./internal/session -v

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMock(t *testing.T) (*Manager, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	m := NewManager(sqlx.NewDb(db, "sqlmock"), 12*time.Hour)
	return m, mock, func() { db.Close() }
}

func TestCreateStoresToken(t *testing.T) {
	m, mock, done := newMock(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO sessions (token, created_at, expires_at) VALUES (?, NOW(), DATE_ADD(NOW(), INTERVAL ? SECOND))`,
	)).
		WithArgs(sqlmock.AnyArg(), 43200).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("token length = %d, want 64 hex chars", len(token))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestValidateRefreshesTTL(t *testing.T) {
	m, mock, done := newMock(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE sessions SET expires_at = DATE_ADD(NOW(), INTERVAL ? SECOND) WHERE token = ? AND expires_at > NOW()`,
	)).
		WithArgs(43200, "tok123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "tok123"})

	ok, token := m.Validate(context.Background(), r)
	if !ok || token != "tok123" {
		t.Fatalf("Validate = (%v, %q), want (true, tok123)", ok, token)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestValidateUnknownOrExpired(t *testing.T) {
	m, mock, done := newMock(t)
	defer done()

	// Zero rows affected: token unknown or past expiry.  Both must look
	// identical to the caller.
	mock.ExpectExec("UPDATE sessions").
		WithArgs(43200, "stale").
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "stale"})

	if ok, _ := m.Validate(context.Background(), r); ok {
		t.Fatal("expected unauthenticated for stale token")
	}
}

func TestValidateNoCookie(t *testing.T) {
	m, _, done := newMock(t)
	defer done()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if ok, _ := m.Validate(context.Background(), r); ok {
		t.Fatal("expected unauthenticated without a cookie")
	}
}

func TestDestroyIdempotent(t *testing.T) {
	m, mock, done := newMock(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE token = ?`)).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := m.Destroy(context.Background(), "gone"); err != nil {
		t.Fatalf("Destroy on missing token: %v", err)
	}
	if err := m.Destroy(context.Background(), ""); err != nil {
		t.Fatalf("Destroy on empty token: %v", err)
	}
}

func TestCookieContract(t *testing.T) {
	m, _, done := newMock(t)
	defer done()

	rec := httptest.NewRecorder()
	m.SetCookie(rec, "tok")
	c := rec.Result().Cookies()[0]
	if c.Name != CookieName || !c.HttpOnly || !c.Secure ||
		c.SameSite != http.SameSiteStrictMode || c.Path != "/" || c.MaxAge != 43200 {
		t.Fatalf("unexpected cookie attributes: %+v", c)
	}

	rec = httptest.NewRecorder()
	m.ClearCookie(rec)
	c = rec.Result().Cookies()[0]
	if c.MaxAge >= 0 || c.Value != "" {
		t.Fatalf("clear cookie should expire immediately: %+v", c)
	}
}
