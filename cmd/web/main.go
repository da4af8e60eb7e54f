// cmd/web/main.go
//
// Waypost – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load config (YAML + env overlays, Vault-resolved secrets).
//
//  4. Open the catalog database and ensure the schema exists.
//
//  5. Open the optional GeoLite2 database for submission tagging.
//
//  6. Construct session manager (plus janitor), repositories, moderation
//     queue, category resolver, and favicon finder.
//
//  7. Mount the JSON API, /metrics, and middleware (request enrichment,
//     security headers, request counting, optional HTTPS enforcement).
//
//  8. Serve with hardened timeouts until SIGINT/SIGTERM, then drain.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/waypost/internal/api"
	"github.com/yanizio/waypost/internal/catalog"
	"github.com/yanizio/waypost/internal/config"
	"github.com/yanizio/waypost/internal/database"
	"github.com/yanizio/waypost/internal/favicon"
	"github.com/yanizio/waypost/internal/logger"
	"github.com/yanizio/waypost/internal/middleware"
	"github.com/yanizio/waypost/internal/moderation"
	"github.com/yanizio/waypost/internal/requestinfo"
	"github.com/yanizio/waypost/internal/server"
	"github.com/yanizio/waypost/internal/session"
)

const serverEnvPath = "/usr/local/etc/waypost/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Config (YAML + env + Vault secrets) ─────────────────────────
	//
	cfg, err := config.Load(ctx)
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Catalog DB connect and schema bootstrap ─────────────────────
	//
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		logOut.Fatalf("connect catalog DB: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(db); err != nil {
		logOut.Fatalf("ensure schema: %v", err)
	}

	// Log catalog size as an early sanity check.
	var sites int
	_ = db.Get(&sites, `SELECT COUNT(*) FROM sites`)
	logOut.Infow("catalog online", "sites", sites)

	//
	// ── 3.  Request enrichment (UA always, geo when configured) ────────
	//
	if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
		logOut.Fatalf("open GeoLite2 DB: %v", err)
	}

	//
	// ── 4.  Core components ─────────────────────────────────────────────
	//
	sessions := session.NewManager(db, time.Duration(cfg.Auth.SessionTTLHours)*time.Hour)
	sessions.StartJanitor(ctx)

	finder := favicon.New()
	repo := catalog.NewRepository(db, finder)
	resolver := catalog.NewResolver(db)
	queue := moderation.NewQueue(db, finder, cfg.Features.AllowSubmissions)

	//
	// ── 5.  HTTP surface ────────────────────────────────────────────────
	//
	apiSrv := api.New(logOut, sessions, repo, resolver, queue, finder, db,
		cfg.Auth.AdminUser, cfg.Auth.PasswordHash)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", apiSrv.Routes())

	var root http.Handler = mux
	root = middleware.Metrics(root)
	root = middleware.Security(root)
	root = requestinfo.Enrich(root)
	if cfg.HTTP.ForceHTTPS {
		root = middleware.ForceHTTPS(root)
	}

	srv := server.New(cfg.HTTP.ListenAddr, root)

	go func() {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logOut.Fatalf("http server: %v", err)
		}
	}()

	//
	// ── 6.  Drain on shutdown signal ────────────────────────────────────
	//
	<-ctx.Done()
	logOut.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logOut.Errorw("shutdown", "err", err)
	}
}
