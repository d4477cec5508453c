// Package presence maintains the set of online identifiers for the
// current session. Two producers feed it: real-time WebSocket events and
// a periodic REST snapshot. All updates are idempotent set operations so
// the two sources may interleave in any order.
package presence

import "sync"

// Set is an alias-aware online set. Identifiers added together in one
// call form an alias group (a numeric id and a username referring to the
// same user); removing any member of a group removes the whole group, so
// a disconnect keyed by username also clears the user's numeric id.
type Set struct {
	mu      sync.RWMutex
	members map[string]struct{}
	peers   map[string][]string // identifier -> aliases added alongside it
}

// NewSet creates an empty presence set.
func NewSet() *Set {
	return &Set{
		members: make(map[string]struct{}),
		peers:   make(map[string][]string),
	}
}

// Add unions one alias group into the set.
func (s *Set) Add(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addGroup(ids)
}

// Remove deletes the given identifiers and every known alias of each.
func (s *Set) Remove(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range expand(s.peers, ids) {
		delete(s.members, id)
		delete(s.peers, id)
	}
}

// ReplaceAll discards the current contents in favor of a full roster
// snapshot, one alias group per online user.
func (s *Set) ReplaceAll(groups [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = make(map[string]struct{})
	s.peers = make(map[string][]string)
	for _, g := range groups {
		s.addGroup(g)
	}
}

// Contains reports membership of a single identifier.
func (s *Set) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[id]
	return ok
}

// IsOnline reports whether any of the given aliases is a member. Callers
// pass every known alias of a user (id, username, display name).
func (s *Set) IsOnline(ids ...string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range ids {
		if _, ok := s.members[id]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of identifiers in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// Users returns the number of online users, counting each alias group
// once however many identifiers it carries.
func (s *Set) Users() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{}, len(s.members))
	n := 0
	for id := range s.members {
		if _, ok := seen[id]; ok {
			continue
		}
		n++
		for _, alias := range expand(s.peers, []string{id}) {
			seen[alias] = struct{}{}
		}
	}
	return n
}

// Snapshot returns a copy of the current identifiers.
func (s *Set) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	return out
}

func (s *Set) addGroup(ids []string) {
	group := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		group = append(group, id)
	}
	for _, id := range group {
		s.members[id] = struct{}{}
		s.peers[id] = mergeAliases(s.peers[id], group)
	}
}

// expand returns ids plus every recorded alias of each, deduplicated.
func expand(peers map[string][]string, ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	var visit func(id string)
	visit = func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
		for _, peer := range peers[id] {
			visit(peer)
		}
	}
	for _, id := range ids {
		visit(id)
	}
	return out
}

func mergeAliases(existing, group []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(group))
	out := make([]string, 0, len(existing)+len(group))
	for _, id := range existing {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range group {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
