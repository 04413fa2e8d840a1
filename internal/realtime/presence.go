package realtime

import (
	"sort"
	"sync"
)

// PresenceSet tracks which identities are currently viewing at least one
// chat. Membership is driven by explicit chat-joined/chat-leaved signals and
// by disconnects, not by raw connects: a user can be connected without being
// present. Safe for concurrent use.
type PresenceSet struct {
	mu      sync.Mutex
	present map[string]struct{}
}

// NewPresenceSet returns an empty presence set.
func NewPresenceSet() *PresenceSet {
	return &PresenceSet{present: make(map[string]struct{})}
}

// MarkPresent adds the identity. Idempotent.
func (p *PresenceSet) MarkPresent(identityID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.present[identityID] = struct{}{}
}

// MarkAbsent removes the identity. Idempotent.
func (p *PresenceSet) MarkAbsent(identityID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.present, identityID)
}

// Snapshot returns a sorted copy of the current membership. The copy never
// observes later mutations.
func (p *PresenceSet) Snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.present))
	for id := range p.present {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
