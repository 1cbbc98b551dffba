package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/coderefine/internal/bootstrap"
	"github.com/bryanwahyu/coderefine/internal/config"
	"github.com/bryanwahyu/coderefine/internal/domain/review"
	"github.com/bryanwahyu/coderefine/internal/infra/httpserver"
	"github.com/bryanwahyu/coderefine/internal/logging"
	"github.com/bryanwahyu/coderefine/internal/middleware"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		logrus.Fatalf("config load error: %v", err)
	}
	logging.InitLogger(cfg.Logging)
	if cfg.Analysis.Strategy == "model" && !cfg.ModelEnabled() {
		logrus.Warn("strategy is model but no default backend is configured; requests without an apiKey will fail")
	}

	models := bootstrap.ModelService(cfg)
	svc, err := bootstrap.ReviewService(cfg, models)
	if err != nil {
		logrus.Fatalf("review service init error: %v", err)
	}
	svc.Observer = middleware.AnalysisMetrics{}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		defer limiter.Close()
	}

	handler := httpserver.NewRouter(svc, httpserver.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    limiter,
		MaxCodeLength:  cfg.Analysis.MaxCodeLength,
		DefaultMode:    review.Mode(cfg.Analysis.DefaultMode),
		HealthCheckers: map[string]middleware.HealthChecker{
			"model": &middleware.ModelHealthChecker{Backend: models, Required: cfg.Analysis.Strategy == "model"},
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := httpserver.NewServer(addr, handler, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":          addr,
			"provider":      cfg.Model.Provider,
			"model_enabled": cfg.ModelEnabled(),
			"strategy":      cfg.Analysis.Strategy,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logrus.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("shutdown error")
	}
}
