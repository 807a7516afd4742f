package catalog

import "sync/atomic"

// Holder is the process-wide reference to the live Store.
//
// Readers call Load once per query and keep using that Store for the whole
// query. Reloads build a new Store off to the side and call Swap, so a query
// sees either the old Store or the new one, never a mix.
type Holder struct {
	current atomic.Pointer[Store]
}

// NewHolder returns a Holder initialized with s.
func NewHolder(s *Store) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

// Load returns the live Store. It may be nil before the first Swap.
func (h *Holder) Load() *Store {
	return h.current.Load()
}

// Swap installs s as the live Store and returns the previous one.
func (h *Holder) Swap(s *Store) *Store {
	return h.current.Swap(s)
}
