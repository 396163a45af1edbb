package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/codesync/backend/internal/config"
	"github.com/codesync/backend/internal/hub"
	"github.com/codesync/backend/internal/logging"
)

// WSHandler upgrades editor clients onto the session hub. Join validation and
// everything after the handshake lives in the hub; this is only the transport
// boundary.
type WSHandler struct {
	hub      *hub.Hub
	opts     hub.ClientOptions
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WSHandler bound to the given hub. An empty allowed
// origins list admits every origin, matching local development.
func NewWSHandler(h *hub.Hub, cfg *config.Config) *WSHandler {
	allowed := make(map[string]bool)
	for _, origin := range cfg.CORSAllowedOrigins {
		allowed[origin] = true
	}

	return &WSHandler{
		hub: h,
		opts: hub.ClientOptions{
			SendBuffer:      cfg.WSSendBuffer,
			MaxMessageBytes: cfg.WSMaxMessageBytes,
			EventsPerSecond: cfg.WSEventsPerSecond,
			WriteTimeout:    cfg.WSWriteTimeout,
			PongTimeout:     cfg.WSPongTimeout,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if allowed[origin] {
					return true
				}
				logging.LogSecurityEvent(r.Context(), logging.SecurityEventBadOrigin, "websocket upgrade from disallowed origin")
				return false
			},
		},
	}
}

// Serve upgrades the request and services the connection until it closes.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		slog.WarnContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := hub.NewClient(r.Context(), h.hub, conn, h.opts)
	h.hub.Attach(client)
	client.Run()
}
