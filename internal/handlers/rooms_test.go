package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/codesync/backend/internal/hub"
	"github.com/codesync/backend/internal/models"
)

func TestRoomHandler_MembersEmptyRoom(t *testing.T) {
	handler := NewRoomHandler(hub.New())

	r := chi.NewRouter()
	r.Get("/api/rooms/{id}/members", handler.Members)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/r1/members", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp models.RoomMembersResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.RoomID != "r1" {
		t.Errorf("roomId = %q, want r1", resp.RoomID)
	}
	if resp.Members == nil || len(resp.Members) != 0 {
		t.Errorf("members = %v, want empty list", resp.Members)
	}
}

func TestRoomHandler_MembersReflectsHubState(t *testing.T) {
	// Drive membership through the public websocket surface, then read it
	// back over HTTP.
	srv, h := newWSTestServer(t)

	conn := dialWS(t, srv)
	sendEvent(t, conn, hub.EventJoin, models.JoinPayload{RoomID: "r1", Identity: "alice"})
	readJoined(t, conn)

	handler := NewRoomHandler(h)
	r := chi.NewRouter()
	r.Get("/api/rooms/{id}/members", handler.Members)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/r1/members", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp models.RoomMembersResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Members) != 1 || resp.Members[0].Identity != "alice" {
		t.Fatalf("members = %+v, want [alice]", resp.Members)
	}
}
