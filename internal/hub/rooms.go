package hub

// roomIndex maps rooms to their member connections and back. A room exists
// exactly as long as it has at least one member; empty sets are deleted.
//
// Like registry, it is guarded by the Hub's mutex.
type roomIndex struct {
	byRoom map[string]map[Conn]struct{}
	byConn map[Conn]map[string]struct{}
}

func newRoomIndex() *roomIndex {
	return &roomIndex{
		byRoom: make(map[string]map[Conn]struct{}),
		byConn: make(map[Conn]map[string]struct{}),
	}
}

func (ri *roomIndex) join(c Conn, roomID string) {
	if ri.byRoom[roomID] == nil {
		ri.byRoom[roomID] = make(map[Conn]struct{})
	}
	ri.byRoom[roomID][c] = struct{}{}

	if ri.byConn[c] == nil {
		ri.byConn[c] = make(map[string]struct{})
	}
	ri.byConn[c][roomID] = struct{}{}
}

func (ri *roomIndex) leave(c Conn, roomID string) {
	if members, ok := ri.byRoom[roomID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(ri.byRoom, roomID)
		}
	}
	if rooms, ok := ri.byConn[c]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(ri.byConn, c)
		}
	}
}

// members returns the connections currently joined to roomID.
func (ri *roomIndex) members(roomID string) []Conn {
	set := ri.byRoom[roomID]
	if len(set) == 0 {
		return nil
	}
	out := make([]Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// rooms returns the rooms c is currently a member of. The result is a copy,
// safe to iterate while membership is being mutated.
func (ri *roomIndex) rooms(c Conn) []string {
	set := ri.byConn[c]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for roomID := range set {
		out = append(out, roomID)
	}
	return out
}

// removeAll removes c from every room it is a member of.
func (ri *roomIndex) removeAll(c Conn) {
	for _, roomID := range ri.rooms(c) {
		ri.leave(c, roomID)
	}
}
