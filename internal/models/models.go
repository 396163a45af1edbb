// Package models defines the wire-level payloads exchanged with editor
// clients. JSON field names (roomId, username, socketId, clients, code) are
// part of the client contract and must not change.
package models

// Member is one (connection, identity) pair currently joined to a room.
type Member struct {
	ConnectionID string `json:"socketId"`
	Identity     string `json:"username"`
}

// JoinPayload is a client's request to join a room under an identity.
type JoinPayload struct {
	RoomID   string `json:"roomId"`
	Identity string `json:"username"`
}

// JoinedPayload is the full membership snapshot broadcast to every room
// member after a join, including the joiner itself.
type JoinedPayload struct {
	Members      []Member `json:"clients"`
	Identity     string   `json:"username"`
	ConnectionID string   `json:"socketId"`
}

// CodeChangePayload carries a full document snapshot. Clients tag it with the
// room; the server strips the room before relaying to the other members.
type CodeChangePayload struct {
	RoomID string `json:"roomId,omitempty"`
	Code   string `json:"code"`
}

// SyncCodePayload asks the server to push a document snapshot to one specific
// connection, regardless of room membership.
type SyncCodePayload struct {
	ConnectionID string `json:"socketId"`
	Code         string `json:"code"`
}

// DisconnectedPayload notifies remaining room members that a member left.
type DisconnectedPayload struct {
	ConnectionID string `json:"socketId"`
	Identity     string `json:"username"`
}

// ErrorPayload is sent to a client before its session is abandoned.
type ErrorPayload struct {
	Error string `json:"error"`
}

// RoomMembersResponse is the HTTP presence snapshot for a room.
type RoomMembersResponse struct {
	RoomID  string   `json:"roomId"`
	Members []Member `json:"clients"`
}

// ErrorResponse is the generic HTTP error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
