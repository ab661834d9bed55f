package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nate-enders/keplemon/internal/api"
	"github.com/nate-enders/keplemon/internal/auth"
	"github.com/nate-enders/keplemon/internal/config"
)

// startListener serves metrics and probes in the background and returns a
// function that shuts the listener down.
func startListener(cfg *config.Config, logger *slog.Logger) func() {
	srv := api.NewServer(cfg.MetricsAddr, logger, auth.Config{Token: cfg.APIToken}, cfg.TrustProxy)

	go func() {
		logger.Info("starting metrics listener", "addr", cfg.MetricsAddr, "auth_enabled", cfg.APIToken != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener error", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.HTTPServer().Shutdown(ctx); err != nil {
			logger.Error("metrics listener shutdown error", "error", err)
		}
	}
}
