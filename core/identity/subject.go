package identity

import (
	"sort"
	"sync"
)

// PrincipalSet is the host-owned collection a module commits principals to.
// Modules only ever add or remove whole slices.
type PrincipalSet interface {
	AddAll(ps []Principal)
	RemoveAll(ps []Principal)
}

// Subject is a thread-safe PrincipalSet keyed by principal name.
type Subject struct {
	mu      sync.RWMutex
	buckets map[string][]Principal
}

func NewSubject() *Subject {
	return &Subject{buckets: make(map[string][]Principal)}
}

// AddAll adds every principal not already present.
func (s *Subject) AddAll(ps []Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range ps {
		if indexOf(s.buckets[p.Key()], p) >= 0 {
			continue
		}
		s.buckets[p.Key()] = append(s.buckets[p.Key()], p)
	}
}

// RemoveAll removes every principal equal to one in ps.
func (s *Subject) RemoveAll(ps []Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range ps {
		bucket := s.buckets[p.Key()]
		for i := indexOf(bucket, p); i >= 0; i = indexOf(bucket, p) {
			bucket = append(bucket[:i], bucket[i+1:]...)
		}
		if len(bucket) == 0 {
			delete(s.buckets, p.Key())
		} else {
			s.buckets[p.Key()] = bucket
		}
	}
}

// Contains reports whether a principal equal to p is present.
func (s *Subject) Contains(p Principal) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.buckets[p.Key()], p) >= 0
}

// Len returns the number of principals held.
func (s *Subject) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.buckets {
		n += len(b)
	}
	return n
}

// Principals returns a snapshot ordered by name, then kind.
func (s *Subject) Principals() []Principal {
	s.mu.RLock()
	out := make([]Principal, 0, len(s.buckets))
	for _, b := range s.buckets {
		out = append(out, b...)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].name != out[j].name {
			return out[i].Less(out[j])
		}
		return out[i].kind < out[j].kind
	})
	return out
}

func indexOf(bucket []Principal, p Principal) int {
	for i, q := range bucket {
		if q.Equal(p) {
			return i
		}
	}
	return -1
}
