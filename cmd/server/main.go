package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	sentrygo "github.com/getsentry/sentry-go"

	"github.com/codesync/backend/internal/config"
	"github.com/codesync/backend/internal/hub"
	"github.com/codesync/backend/internal/logging"
	"github.com/codesync/backend/internal/router"
	"github.com/codesync/backend/internal/sentry"
)

func main() {
	// Initialize structured logging (reads LOGGING_LEVEL env var)
	logging.Initialize()

	// Load configuration
	cfg := config.Load()

	// Initialize error reporting when a DSN is configured
	if cfg.SentryDSN != "" {
		err := sentrygo.Init(sentrygo.ClientOptions{
			Dsn:                   cfg.SentryDSN,
			Environment:           cfg.SentryEnvironment,
			BeforeSend:            sentry.ScrubEvent,
			BeforeSendTransaction: sentry.ScrubTransaction,
		})
		if err != nil {
			slog.Error("failed to initialize sentry", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer sentrygo.Flush(2 * time.Second)
	}

	// Session hub: all coordination state lives here, in memory only
	h := hub.New()

	// Create router
	r := router.New(cfg, h)

	// Start server
	addr := ":" + cfg.Port
	slog.Info("starting server", slog.String("addr", addr))

	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
