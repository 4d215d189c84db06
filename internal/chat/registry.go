package chat

import (
	"sort"
	"sync"
)

// Registry maps a user id to its single live session. Registering a
// second session for the same user replaces the first, never
// duplicates it.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// Register stores the session for the user, replacing any previous
// one. The replaced session, if any, is returned so the caller can
// close it outside the lock.
func (r *Registry) Register(userID int64, s *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.sessions[userID]
	r.sessions[userID] = s
	return prev
}

// Unregister removes the mapping only when it still points at the
// given session. A stale session disconnecting after a reconnect must
// not evict the newer one.
func (r *Registry) Unregister(userID int64, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[userID] != s {
		return false
	}
	delete(r.sessions, userID)
	return true
}

// Lookup returns the live session for the user, if any.
func (r *Registry) Lookup(userID int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Online returns the sorted ids of all connected users.
func (r *Registry) Online() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// snapshot returns all live sessions for a broadcast, taken under the
// lock so sends happen outside it.
func (r *Registry) snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
