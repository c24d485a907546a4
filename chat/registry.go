package chat

import "sync"

// Registry is the thread-safe mapping of live connections to display names.
// All mutation goes through Register and Unregister; readers get
// point-in-time snapshots so no lock is held during blocking writes.
type Registry struct {
	mu      sync.RWMutex
	members map[*Connection]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		members: make(map[*Connection]string),
	}
}

// Register adds a connection under the given display name.
func (r *Registry) Register(c *Connection, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[c] = name
}

// Unregister removes a connection and reports whether it was present.
// Safe to call more than once; only the first caller gets true.
func (r *Registry) Unregister(c *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[c]; !ok {
		return false
	}
	delete(r.members, c)
	return true
}

// Snapshot returns the registered connections except exclude (which may be
// nil). The returned slice is the caller's to keep; it no longer reflects
// later registry changes.
func (r *Registry) Snapshot(exclude *Connection) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make([]*Connection, 0, len(r.members))
	for member := range r.members {
		if member != exclude {
			snapshot = append(snapshot, member)
		}
	}
	return snapshot
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
