package hub

import (
	"encoding/json"
	"log/slog"

	"github.com/codesync/backend/internal/models"
)

// Action names shared with the editor clients.
const (
	EventJoin         = "join"
	EventJoined       = "joined"
	EventCodeChange   = "code-change"
	EventSyncCode     = "sync-code"
	EventDisconnected = "disconnected"
	EventError        = "error"
)

// Event is the wire envelope for every websocket frame: a type tag plus an
// opaque payload. The server never inspects document content inside payloads
// it relays.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent marshals payload into an envelope of the given type.
func NewEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: raw}, nil
}

// mustEvent is NewEvent for payload types the server itself constructs, where
// marshaling cannot reasonably fail.
func mustEvent(eventType string, payload any) Event {
	ev, err := NewEvent(eventType, payload)
	if err != nil {
		slog.Error("hub: failed to marshal event payload", slog.String("type", eventType), slog.Any("error", err))
		return Event{Type: eventType}
	}
	return ev
}

func errorEvent(message string) Event {
	return mustEvent(EventError, models.ErrorPayload{Error: message})
}
