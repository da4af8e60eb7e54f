// internal/favicon/favicon_test.go
//
// Discovery probe tests against a local httptest server.
//
// Run: go test ./internal/favicon -v

package favicon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiscoverICO(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/favicon.ico" {
			w.Header().Set("Content-Type", "image/x-icon")
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	got, err := New().Discover(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}
	if got != srv.URL+"/favicon.ico" {
		t.Fatalf("Discover = %q, want %q", got, srv.URL+"/favicon.ico")
	}
}

func TestDiscoverHTMLLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/favicon.ico":
			http.NotFound(w, r)
		case "/":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><head>
				<link rel="stylesheet" href="/app.css">
				<link rel="icon" href="/static/logo.png">
			</head><body></body></html>`))
		}
	}))
	defer srv.Close()

	got, err := New().Discover(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}
	if got != srv.URL+"/static/logo.png" {
		t.Fatalf("Discover = %q, want page icon", got)
	}
}

func TestDiscoverMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.Write([]byte(`<html><head><title>x</title></head><body></body></html>`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New().Discover(context.Background(), srv.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDiscoverBadURL(t *testing.T) {
	if _, err := New().Discover(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty URL")
	}
}
