package hub

// registry is the bidirectional identity<->connection map. It enforces
// at-most-one live connection per identity: rebinding an identity returns the
// displaced connection so the caller can terminate it.
//
// Not safe for concurrent use on its own; the Hub's mutex guards it together
// with the room index so a join or disconnect mutates both atomically.
type registry struct {
	byIdentity map[string]Conn
	byConn     map[Conn]string
}

func newRegistry() *registry {
	return &registry{
		byIdentity: make(map[string]Conn),
		byConn:     make(map[Conn]string),
	}
}

// register binds identity to c and returns the connection previously bound to
// that identity, if it was a different one. Both directions are updated
// before returning, so no state is ever observable where two connections hold
// the same identity.
func (r *registry) register(identity string, c Conn) (evicted Conn) {
	prior, ok := r.byIdentity[identity]
	if ok && prior == c {
		return nil
	}

	// A connection re-joining under a new identity releases its old one.
	if old, ok := r.byConn[c]; ok && old != identity {
		delete(r.byIdentity, old)
	}

	if ok {
		delete(r.byConn, prior)
		evicted = prior
	}
	r.byIdentity[identity] = c
	r.byConn[c] = identity
	return evicted
}

// lookup returns the identity bound to c, if any.
func (r *registry) lookup(c Conn) (string, bool) {
	identity, ok := r.byConn[c]
	return identity, ok
}

// connFor returns the connection currently holding identity, if any.
func (r *registry) connFor(identity string) (Conn, bool) {
	c, ok := r.byIdentity[identity]
	return c, ok
}

// remove deletes both entries for c's identity. Idempotent: removing an
// unregistered connection is a no-op.
func (r *registry) remove(c Conn) {
	identity, ok := r.byConn[c]
	if !ok {
		return
	}
	delete(r.byConn, c)
	if r.byIdentity[identity] == c {
		delete(r.byIdentity, identity)
	}
}
