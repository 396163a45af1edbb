package hub

import "testing"

func TestRegisterAndLookup(t *testing.T) {
	r := newRegistry()
	a := newFakeConn("a")

	if evicted := r.register("alice", a); evicted != nil {
		t.Fatalf("expected no eviction on first register, got %v", evicted.ID())
	}

	identity, ok := r.lookup(a)
	if !ok || identity != "alice" {
		t.Fatalf("lookup = %q, %v; want alice, true", identity, ok)
	}

	c, ok := r.connFor("alice")
	if !ok || c != a {
		t.Fatal("connFor should return the registered connection")
	}
}

func TestRegisterSameConnectionTwice(t *testing.T) {
	r := newRegistry()
	a := newFakeConn("a")

	r.register("alice", a)
	if evicted := r.register("alice", a); evicted != nil {
		t.Fatal("re-registering the same connection should not evict it")
	}
}

func TestRegisterEvictsPriorConnection(t *testing.T) {
	r := newRegistry()
	a := newFakeConn("a")
	b := newFakeConn("b")

	r.register("alice", a)
	evicted := r.register("alice", b)

	if evicted != a {
		t.Fatal("expected the prior connection to be returned for eviction")
	}
	if c, _ := r.connFor("alice"); c != b {
		t.Fatal("identity should now be bound to the new connection")
	}
	if _, ok := r.lookup(a); ok {
		t.Fatal("evicted connection should hold no identity")
	}
}

func TestRegisterReleasesOldIdentity(t *testing.T) {
	r := newRegistry()
	a := newFakeConn("a")

	r.register("alice", a)
	r.register("alyce", a)

	if _, ok := r.connFor("alice"); ok {
		t.Fatal("old identity should be released when a connection rebinds")
	}
	if identity, _ := r.lookup(a); identity != "alyce" {
		t.Fatalf("lookup = %q, want alyce", identity)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := newRegistry()
	a := newFakeConn("a")

	r.register("alice", a)
	r.remove(a)
	r.remove(a) // second call is a no-op

	if _, ok := r.lookup(a); ok {
		t.Fatal("removed connection should have no identity")
	}
	if _, ok := r.connFor("alice"); ok {
		t.Fatal("removed identity should have no connection")
	}

	r.remove(newFakeConn("never-registered"))
}

func TestRemoveEvictedConnectionKeepsNewBinding(t *testing.T) {
	r := newRegistry()
	a := newFakeConn("a")
	b := newFakeConn("b")

	r.register("alice", a)
	r.register("alice", b)

	// The evicted connection disconnects later; its cleanup must not
	// disturb the new binding.
	r.remove(a)

	if c, ok := r.connFor("alice"); !ok || c != b {
		t.Fatal("new binding should survive cleanup of the evicted connection")
	}
}
