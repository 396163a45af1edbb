package hub

import "testing"

func TestRoomJoinAndMembers(t *testing.T) {
	ri := newRoomIndex()
	a := newFakeConn("a")
	b := newFakeConn("b")

	ri.join(a, "r1")
	ri.join(b, "r1")

	members := ri.members("r1")
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}
}

func TestRoomLeaveDeletesEmptyRoom(t *testing.T) {
	ri := newRoomIndex()
	a := newFakeConn("a")

	ri.join(a, "r1")
	ri.leave(a, "r1")

	if got := ri.members("r1"); got != nil {
		t.Fatalf("members of empty room = %v, want nil", got)
	}
	if _, exists := ri.byRoom["r1"]; exists {
		t.Fatal("empty room entry should be deleted")
	}
	if _, exists := ri.byConn[a]; exists {
		t.Fatal("connection with no rooms should be deleted from the inverse index")
	}
}

func TestRoomsOfConnection(t *testing.T) {
	ri := newRoomIndex()
	a := newFakeConn("a")

	ri.join(a, "r1")
	ri.join(a, "r2")

	rooms := ri.rooms(a)
	if len(rooms) != 2 {
		t.Fatalf("rooms = %v, want 2 entries", rooms)
	}
}

func TestRemoveAllClearsEveryMembership(t *testing.T) {
	ri := newRoomIndex()
	a := newFakeConn("a")
	b := newFakeConn("b")

	ri.join(a, "r1")
	ri.join(a, "r2")
	ri.join(b, "r1")

	ri.removeAll(a)

	if got := ri.rooms(a); got != nil {
		t.Fatalf("rooms after removeAll = %v, want nil", got)
	}
	if len(ri.members("r1")) != 1 {
		t.Fatal("other members of r1 should be unaffected")
	}
	if ri.members("r2") != nil {
		t.Fatal("r2 should cease to exist once empty")
	}
}

func TestLeaveUnknownRoomIsNoOp(t *testing.T) {
	ri := newRoomIndex()
	ri.leave(newFakeConn("a"), "nowhere")
}
