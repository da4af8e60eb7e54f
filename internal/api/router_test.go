// internal/api/router_test.go
//
// End-to-end handler tests over httptest and a mocked store.
//
// Run: go test ./internal/api -v

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/waypost/internal/catalog"
	"github.com/yanizio/waypost/internal/moderation"
	"github.com/yanizio/waypost/internal/requestinfo"
	"github.com/yanizio/waypost/internal/session"
)

const testPassword = "s3cret"

// newTestServer wires a full Server over one mocked database.  Submissions
// are toggled per test.
func newTestServer(t *testing.T, submissions bool) (*Server, sqlmock.Sqlmock, func()) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	db := sqlx.NewDb(raw, "sqlmock")

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	srv := New(
		zap.NewNop().Sugar(),
		session.NewManager(db, 0),
		catalog.NewRepository(db, nil),
		catalog.NewResolver(db),
		moderation.NewQueue(db, nil, submissions),
		nil,
		db,
		"admin",
		string(hash),
	)
	return srv, mock, func() { raw.Close() }
}

// do runs one request through the router and decodes the JSON envelope.
func do(t *testing.T, srv *Server, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	body := map[string]any{}
	if ct := rec.Header().Get("Content-Type"); strings.HasPrefix(ct, "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("bad JSON body %q: %v", rec.Body.String(), err)
		}
	}
	return rec, body
}

func TestEnvelopeMirrorsStatus(t *testing.T) {
	srv, mock, done := newTestServer(t, true)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM sites`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT id, name, url").
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["code"] != float64(200) {
		t.Fatalf("envelope code = %v, want 200", body["code"])
	}
	if body["total"] != float64(0) {
		t.Fatalf("total = %v, want 0", body["total"])
	}
}

func TestMutationWithoutSessionIs401(t *testing.T) {
	srv, mock, done := newTestServer(t, true)
	defer done()

	// No cookie means no store access at all.
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/config"},
		{http.MethodPut, "/api/config/1"},
		{http.MethodDelete, "/api/pending/1"},
		{http.MethodGet, "/api/config/export"},
		{http.MethodPut, "/api/categories/Tools"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
		rec, body := do(t, srv, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", tc.method, tc.path, rec.Code)
		}
		if body["code"] != float64(401) {
			t.Errorf("%s %s: envelope code = %v", tc.method, tc.path, body["code"])
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("store was touched: %v", err)
	}
}

func TestMethodNotAllowedIs405(t *testing.T) {
	srv, _, done := newTestServer(t, true)
	defer done()

	rec, body := do(t, srv, httptest.NewRequest(http.MethodPatch, "/api/config", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if body["code"] != float64(405) {
		t.Fatalf("envelope code = %v, want 405", body["code"])
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	srv, _, done := newTestServer(t, true)
	defer done()

	rec, _ := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSubmitDisabledIs403(t *testing.T) {
	srv, mock, done := newTestServer(t, false)
	defer done()

	req := httptest.NewRequest(http.MethodPost, "/api/config/submit",
		strings.NewReader(`{"name":"Example","url":"https://example.com","catelog":"Tools"}`))
	rec, body := do(t, srv, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if body["code"] != float64(403) {
		t.Fatalf("envelope code = %v, want 403", body["code"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("store was touched: %v", err)
	}
}

func TestSubmitBotRefused(t *testing.T) {
	srv, mock, done := newTestServer(t, true)
	defer done()

	req := httptest.NewRequest(http.MethodPost, "/api/config/submit",
		strings.NewReader(`{"name":"Example","url":"https://example.com","catelog":"Tools"}`))
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")

	rec := httptest.NewRecorder()
	requestinfo.Enrich(srv.Routes()).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("store was touched: %v", err)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	srv, mock, done := newTestServer(t, true)
	defer done()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), 43200).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"name":"admin","password":"`+testPassword+`"}`))
	rec, body := do(t, srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %v)", rec.Code, body)
	}

	res := rec.Result()
	var got *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == session.CookieName {
			got = c
		}
	}
	if got == nil {
		t.Fatal("session cookie not set")
	}
	if !got.HttpOnly || !got.Secure || got.SameSite != http.SameSiteStrictMode ||
		got.Path != "/" || got.MaxAge != 43200 {
		t.Fatalf("cookie attributes off: %+v", got)
	}
	if len(got.Value) != 64 {
		t.Fatalf("token length = %d, want 64", len(got.Value))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestLoginBadCredentialsIs401(t *testing.T) {
	srv, mock, done := newTestServer(t, true)
	defer done()

	for _, payload := range []string{
		`{"name":"admin","password":"wrong"}`,
		`{"name":"intruder","password":"` + testPassword + `"}`,
	} {
		rec, _ := do(t, srv,
			httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(payload)))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("payload %s: status = %d, want 401", payload, rec.Code)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("session was created for bad credentials: %v", err)
	}
}

func TestMalformedBodyIs500(t *testing.T) {
	srv, _, done := newTestServer(t, true)
	defer done()

	rec, body := do(t, srv,
		httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"name":`)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body["code"] != float64(500) {
		t.Fatalf("envelope code = %v, want 500", body["code"])
	}
}

func TestAuthenticatedRequestSlidesCookie(t *testing.T) {
	srv, mock, done := newTestServer(t, true)
	defer done()

	token := strings.Repeat("ab", 32)
	mock.ExpectExec("UPDATE sessions SET expires_at").
		WithArgs(43200, token).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM pending_sites`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT id, name, url").
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest(http.MethodGet, "/api/pending", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rec, _ := do(t, srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	refreshed := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value == token && c.MaxAge == 43200 {
			refreshed = true
		}
	}
	if !refreshed {
		t.Fatal("cookie was not refreshed on authenticated request")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestStaleSessionIs401(t *testing.T) {
	srv, mock, done := newTestServer(t, true)
	defer done()

	token := strings.Repeat("cd", 32)
	mock.ExpectExec("UPDATE sessions SET expires_at").
		WithArgs(43200, token).
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := httptest.NewRequest(http.MethodDelete, "/api/config/3", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rec, _ := do(t, srv, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestExportServesAttachment(t *testing.T) {
	srv, mock, done := newTestServer(t, true)
	defer done()

	token := strings.Repeat("ef", 32)
	mock.ExpectExec("UPDATE sessions SET expires_at").
		WithArgs(43200, token).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, name, url").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "url", "catelog", "sort_order"}).
			AddRow(1, "Example", "https://example.com", "Tools", 3))

	req := httptest.NewRequest(http.MethodGet, "/api/config/export", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("Content-Disposition = %q", cd)
	}

	// Export is a raw array so it round-trips through import unchanged.
	var sites []catalog.Site
	if err := json.Unmarshal(rec.Body.Bytes(), &sites); err != nil {
		t.Fatalf("export is not a JSON array: %v", err)
	}
	if len(sites) != 1 || sites[0].Name != "Example" {
		t.Fatalf("unexpected export payload: %+v", sites)
	}
}

func TestBadPathIDIs404(t *testing.T) {
	srv, mock, done := newTestServer(t, true)
	defer done()

	token := strings.Repeat("01", 32)
	mock.ExpectExec("UPDATE sessions SET expires_at").
		WithArgs(43200, token).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/api/config/banana", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rec, _ := do(t, srv, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
