package bridge

import (
	"sync"

	"github.com/sqlgate/sqlgate/core"
	"github.com/sqlgate/sqlgate/engine"
)

// MemoryIdentifier names a private, non-persisted, process-scoped
// database instance rather than a filesystem path.
const MemoryIdentifier = ":memory:"

// connection is one entry in the connection registry: a live native
// connection plus its reference count.
type connection struct {
	identifier string
	native     engine.Conn
	refs       int

	// Serializes statement execution on engines that only allow one
	// in-flight operation per connection.
	mu sync.Mutex
}

// registry is the process's source of truth for which identifiers are
// open. It dedups repeated opens of the same identifier and
// refcounts them so close is exact.
type registry struct {
	engine engine.Engine
	mu     sync.Mutex
	conns  map[string]*connection
}

func newRegistry(e engine.Engine) *registry {
	return &registry{
		engine: e,
		conns:  make(map[string]*connection),
	}
}

// acquire returns the live connection for identifier, opening a native
// connection on first use. The reference count is incremented either
// way. Concurrent acquires of the same identifier are serialized so
// exactly one native connection exists per identifier.
func (r *registry) acquire(identifier string) (*connection, *core.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[identifier]; ok {
		conn.refs++
		return conn, nil
	}

	native, err := r.engine.Open(identifier, identifier == MemoryIdentifier)
	if err != nil {
		return nil, core.Errorf(core.CodeConnectionFailure, "failed to open database %q: %v", identifier, err)
	}

	conn := &connection{
		identifier: identifier,
		native:     native,
		refs:       1,
	}
	r.conns[identifier] = conn
	return conn, nil
}

// lookup returns the live connection for identifier without touching
// its reference count, or nil if the identifier is not open.
func (r *registry) lookup(identifier string) *connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[identifier]
}

// release decrements the reference count for identifier and closes the
// native connection when it reaches zero.
func (r *registry) release(identifier string) *core.Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[identifier]
	if !ok {
		return core.Errorf(core.CodeConnectionFailure, "database %q is not open", identifier)
	}

	conn.refs--
	if conn.refs > 0 {
		return nil
	}

	delete(r.conns, identifier)
	if err := conn.native.Close(); err != nil {
		return core.Errorf(core.CodeConnectionFailure, "failed to close database %q: %v", identifier, err)
	}
	return nil
}

// shutdown closes every open connection regardless of refcounts. Used
// at explicit teardown.
func (r *registry) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for identifier, conn := range r.conns {
		conn.native.Close()
		delete(r.conns, identifier)
	}
}
