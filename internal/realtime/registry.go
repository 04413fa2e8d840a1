package realtime

import "sync"

// Conn is a live connection handle capable of receiving events. Send must not
// block: implementations queue the event and report false when the queue is
// full or the connection is gone.
type Conn interface {
	Send(ev Event) bool
}

// SessionRegistry maps identity IDs to their live connection handles. A user
// may hold several handles at once (multiple tabs or devices); a handle
// belongs to exactly one identity. Safe for concurrent use.
type SessionRegistry struct {
	mu    sync.RWMutex
	conns map[string]map[Conn]struct{}
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		conns: make(map[string]map[Conn]struct{}),
	}
}

// Register adds the handle to the identity's set. Registering the same pair
// twice is a no-op.
func (r *SessionRegistry) Register(identityID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[identityID]
	if !ok {
		set = make(map[Conn]struct{})
		r.conns[identityID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes the handle from the identity's set and returns how many
// handles the identity still holds. Unknown pairs are a no-op.
func (r *SessionRegistry) Unregister(identityID string, c Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[identityID]
	if !ok {
		return 0
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, identityID)
		return 0
	}
	return len(set)
}

// Resolve returns the live handles of the given identities. Unknown
// identities contribute nothing; a handle appears at most once even if an
// identity is listed twice. Order is unspecified.
func (r *SessionRegistry) Resolve(identityIDs []string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[Conn]struct{})
	out := make([]Conn, 0, len(identityIDs))
	for _, id := range identityIDs {
		for c := range r.conns[id] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Conns returns every registered handle. Used for process-wide broadcasts.
func (r *SessionRegistry) Conns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.conns))
	for _, set := range r.conns {
		for c := range set {
			out = append(out, c)
		}
	}
	return out
}

// Len reports how many identities currently hold at least one handle.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
