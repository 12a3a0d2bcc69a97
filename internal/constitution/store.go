package constitution

import "sync/atomic"

// Store holds the active profile behind an atomic pointer. Reload is a new
// construction plus Swap; the profile itself is never mutated in place.
type Store struct {
	current atomic.Pointer[Profile]
}

// NewStore creates a store serving the given profile.
func NewStore(p *Profile) *Store {
	s := &Store{}
	s.current.Store(p)
	return s
}

// Current returns the active profile.
func (s *Store) Current() *Profile {
	return s.current.Load()
}

// Swap atomically replaces the active profile and returns the previous one.
// The replacement must already be validated.
func (s *Store) Swap(p *Profile) *Profile {
	return s.current.Swap(p)
}
