package catalog

import "sync/atomic"

// Store holds the catalog snapshot currently being served. A reload builds
// a complete new Catalog and installs it with Swap, so readers always see
// one consistent snapshot.
type Store struct {
	current atomic.Pointer[Catalog]
}

// NewStore returns a store serving c.
func NewStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

// Current returns the snapshot to read from.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Swap installs next and returns the previous snapshot.
func (s *Store) Swap(next *Catalog) *Catalog {
	return s.current.Swap(next)
}
