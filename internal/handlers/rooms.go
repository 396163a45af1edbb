package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codesync/backend/internal/hub"
	"github.com/codesync/backend/internal/models"
)

// RoomHandler exposes read-only presence information over HTTP.
type RoomHandler struct {
	hub *hub.Hub
}

// NewRoomHandler creates a RoomHandler backed by the given hub.
func NewRoomHandler(h *hub.Hub) *RoomHandler {
	return &RoomHandler{hub: h}
}

// Members returns the current membership snapshot of a room. A room nobody
// has joined yields an empty list, not a 404, since rooms have no lifecycle
// of their own.
func (h *RoomHandler) Members(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "room id is required")
		return
	}

	members := h.hub.Members(roomID)
	if members == nil {
		members = []models.Member{}
	}

	writeJSON(w, http.StatusOK, models.RoomMembersResponse{
		RoomID:  roomID,
		Members: members,
	})
}
