package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/codesync/backend/internal/config"
	"github.com/codesync/backend/internal/handlers"
	"github.com/codesync/backend/internal/hub"
	"github.com/codesync/backend/internal/middleware"
)

func New(cfg *config.Config, h *hub.Hub) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	realIP := middleware.NewRealIPMiddleware(cfg.TrustedProxies)
	r.Use(realIP.Handler)
	r.Use(middleware.RequestContextMiddleware)
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	// Handlers
	wsHandler := handlers.NewWSHandler(h, cfg)
	roomHandler := handlers.NewRoomHandler(h)
	configHandler := handlers.NewConfigHandler(cfg)
	tunnelHandler := handlers.NewSentryTunnelHandler(cfg)

	// Rate limiter for session setup: websocket upgrades and presence polls
	joinRateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	// Routes
	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Public configuration (frontend Sentry DSN, etc.)
		r.Get("/config", configHandler.PublicConfig)

		// Presence snapshot for a room
		r.With(joinRateLimiter.Middleware).Get("/rooms/{id}/members", roomHandler.Members)

		// Browser error reporting proxy
		r.Post("/sentry-tunnel", tunnelHandler.Tunnel)
	})

	// Realtime session endpoint
	r.With(joinRateLimiter.Middleware).Get("/ws", wsHandler.Serve)

	// Serve the built frontend when configured, with index.html fallback
	// for client-side routes.
	if cfg.StaticDir != "" {
		r.NotFound(handlers.SPAHandler(cfg.StaticDir))
	}

	return r
}
