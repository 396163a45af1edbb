// Package hub coordinates collaborative editing sessions: which identity
// occupies which connection, which connections are in which rooms, and who
// receives each event. All state is in-memory and lost on restart.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/codesync/backend/internal/logging"
	"github.com/codesync/backend/internal/models"
)

// Conn is one live transport channel to one client. Enqueue must not block:
// it reports false when the event was dropped. Kick asks the transport to
// terminate; the actual close is asynchronous and best-effort. Context
// carries the connection's logging attributes.
type Conn interface {
	ID() string
	Context() context.Context
	Enqueue(Event) bool
	Kick()
}

// Hub owns the connection registry and room index. One mutex wraps every
// state mutation together with the recipient computation and outbound
// enqueue for that operation, which keeps joins and disconnects atomic as
// observed by any connection.
type Hub struct {
	mu    sync.Mutex
	conns map[string]Conn
	reg   *registry
	rooms *roomIndex
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{
		conns: make(map[string]Conn),
		reg:   newRegistry(),
		rooms: newRoomIndex(),
	}
}

// Attach makes c addressable by its connection ID. Called once at upgrade
// time, before the client's read loop starts.
func (h *Hub) Attach(c Conn) {
	h.mu.Lock()
	h.conns[c.ID()] = c
	h.mu.Unlock()
}

// Route classifies one inbound event from c and invokes the matching fan-out.
// Expected anomalies (stale sync target, unknown room) are not errors; a
// malformed or unparseable join terminates the connection so the client
// retries fresh, with no partial state left behind.
func (h *Hub) Route(c Conn, ev Event) {
	switch ev.Type {
	case EventJoin:
		var p models.JoinPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			logging.LogSecurityEvent(c.Context(), logging.SecurityEventMalformedJoin, "undecodable join payload")
			c.Enqueue(errorEvent("invalid join payload"))
			c.Kick()
			return
		}
		roomID := strings.TrimSpace(p.RoomID)
		identity := strings.TrimSpace(p.Identity)
		if roomID == "" || identity == "" {
			logging.LogSecurityEvent(c.Context(), logging.SecurityEventMalformedJoin, "join missing room or username")
			c.Enqueue(errorEvent("roomId and username are required"))
			c.Kick()
			return
		}
		h.Join(c, roomID, identity)

	case EventCodeChange:
		var p models.CodeChangePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			c.Enqueue(errorEvent("invalid code-change payload"))
			return
		}
		if p.RoomID == "" {
			return
		}
		h.BroadcastCodeChange(c, p.RoomID, p.Code)

	case EventSyncCode:
		var p models.SyncCodePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			c.Enqueue(errorEvent("invalid sync-code payload"))
			return
		}
		h.SyncCode(p.ConnectionID, p.Code)

	default:
		c.Enqueue(errorEvent("unsupported event type: " + ev.Type))
	}
}

// Join binds identity to c, evicting the identity's previous connection if it
// has one, adds c to the room, and broadcasts the resulting membership
// snapshot to every member of the room, the newcomer included. Existing
// members need the newcomer's connection ID to answer its sync request.
//
// The eviction runs the full disconnect cascade before the rebind, so the
// displaced connection's rooms are told it left under the identity it still
// held at that moment.
func (h *Hub) Join(c Conn, roomID, identity string) {
	h.mu.Lock()
	evicted, _ := h.reg.connFor(identity)
	if evicted == c {
		evicted = nil
	}
	if evicted != nil {
		h.disconnectLocked(evicted)
	}
	h.reg.register(identity, c)
	h.rooms.join(c, roomID)

	snapshot := h.memberSnapshotLocked(roomID)
	ev := mustEvent(EventJoined, models.JoinedPayload{
		Members:      snapshot,
		Identity:     identity,
		ConnectionID: c.ID(),
	})
	h.enqueueLocked(h.rooms.members(roomID), ev, nil)
	h.mu.Unlock()

	if evicted != nil {
		slog.Info("hub: evicting previous connection for identity",
			slog.String("username", identity),
			slog.String("evicted_connection_id", evicted.ID()),
			slog.String("connection_id", c.ID()))
		evicted.Kick()
	}
	slog.Info("hub: client joined room",
		slog.String("room_id", roomID),
		slog.String("username", identity),
		slog.String("connection_id", c.ID()),
		slog.Int("members", len(snapshot)))
}

// Disconnect tears down all state for c: every room it was in is notified,
// then the registry entry and all memberships are removed. Triggered for any
// transport close, including forced eviction. Idempotent.
func (h *Hub) Disconnect(c Conn) {
	h.mu.Lock()
	identity, roomIDs := h.disconnectLocked(c)
	h.mu.Unlock()

	if len(roomIDs) > 0 {
		slog.Info("hub: client disconnected",
			slog.String("username", identity),
			slog.String("connection_id", c.ID()),
			slog.Int("rooms", len(roomIDs)))
	}
}

// disconnectLocked notifies every room c is in and removes all its state,
// reporting the identity c held and the rooms it left. Callers hold h.mu.
func (h *Hub) disconnectLocked(c Conn) (identity string, roomIDs []string) {
	delete(h.conns, c.ID())
	identity, _ = h.reg.lookup(c)

	// Capture the room list before any mutation; leaving rooms while
	// iterating the live set would skip entries.
	roomIDs = h.rooms.rooms(c)
	for _, roomID := range roomIDs {
		ev := mustEvent(EventDisconnected, models.DisconnectedPayload{
			ConnectionID: c.ID(),
			Identity:     identity,
		})
		h.enqueueLocked(h.rooms.members(roomID), ev, c)
	}
	h.rooms.removeAll(c)
	h.reg.remove(c)
	return identity, roomIDs
}

// BroadcastCodeChange relays an edit to every member of roomID except the
// sender. The room tag is stripped on relay; the payload is passed through
// uninspected.
func (h *Hub) BroadcastCodeChange(sender Conn, roomID, code string) {
	ev := mustEvent(EventCodeChange, models.CodeChangePayload{Code: code})
	h.mu.Lock()
	h.enqueueLocked(h.rooms.members(roomID), ev, sender)
	h.mu.Unlock()
}

// SyncCode delivers a document snapshot to exactly one connection, re-tagged
// as a code-change so the target treats it like a live edit. A vanished
// target is silently dropped: the sender cannot know target liveness.
func (h *Hub) SyncCode(targetID, code string) {
	ev := mustEvent(EventCodeChange, models.CodeChangePayload{Code: code})
	h.mu.Lock()
	target, ok := h.conns[targetID]
	if ok {
		h.enqueueLocked([]Conn{target}, ev, nil)
	}
	h.mu.Unlock()

	if !ok {
		slog.Debug("hub: sync target no longer connected", slog.String("target_connection_id", targetID))
	}
}

// Members returns the current presence snapshot for a room.
func (h *Hub) Members(roomID string) []models.Member {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.memberSnapshotLocked(roomID)
}

// memberSnapshotLocked lists the (connection, identity) pairs in a room,
// skipping connections that have not completed a join. Sorted by identity for
// stable output.
func (h *Hub) memberSnapshotLocked(roomID string) []models.Member {
	conns := h.rooms.members(roomID)
	members := make([]models.Member, 0, len(conns))
	for _, c := range conns {
		identity, ok := h.reg.lookup(c)
		if !ok {
			continue
		}
		members = append(members, models.Member{ConnectionID: c.ID(), Identity: identity})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Identity != members[j].Identity {
			return members[i].Identity < members[j].Identity
		}
		return members[i].ConnectionID < members[j].ConnectionID
	})
	return members
}

// enqueueLocked fans ev out to every recipient except skip. Delivery is
// fire-and-forget: a recipient whose send buffer is full loses this event
// rather than stalling the operation.
func (h *Hub) enqueueLocked(recipients []Conn, ev Event, skip Conn) {
	for _, r := range recipients {
		if r == skip {
			continue
		}
		if !r.Enqueue(ev) {
			slog.Warn("hub: dropped event for slow connection",
				slog.String("type", ev.Type),
				slog.String("connection_id", r.ID()))
		}
	}
}
