package main

import (
	"context"
	"net/http"
	"time"

	"github.com/NordCoder/authgate/internal/audit"
	config "github.com/NordCoder/authgate/internal/config/auth-api"
	"github.com/NordCoder/authgate/internal/httpx"
	"github.com/NordCoder/authgate/internal/obs"
	pg "github.com/NordCoder/authgate/internal/repository/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, a *app) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           obs.HTTPHandler(newRouter(cfg, logger, db.Ping, a), "auth-api"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func newRouter(cfg *config.Config, logger *zap.Logger, health func(context.Context) error, a *app) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(audit.ClientIPMiddleware)
	r.Use(httpx.Recover(logger))
	r.Use(httpx.RequestLog(logger))
	r.Use(httpx.SecurityHeaders(cfg.App.Production()))
	r.Use(httpx.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.Compress(5))

	r.NotFound(httpx.RouteNotFound)
	if cfg.Server.StaticDir != "" {
		r.NotFound(httpx.SPA(cfg.Server.StaticDir).ServeHTTP)
	}
	r.MethodNotAllowed(httpx.RouteNotFound)

	r.Handle("/metrics", obs.MetricsHandler())
	r.Get("/healthz", obs.HealthHandler(health))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", ping)
		a.authCtl.Register(r)
		a.userCtl.Register(r, a.guard)
	})
	return r
}

func ping(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"status":    "pong",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
