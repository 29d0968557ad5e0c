package cart

import (
	"sync"

	"github.com/roach88/perfumery/internal/model"
)

// Snapshot is an immutable view of the basket at a sequence number.
type Snapshot struct {
	Seq   int64
	Items []model.CartItem
}

// Cart returns the snapshot as a cart with derived totals.
func (s Snapshot) Cart() model.Cart {
	return model.NewCart(s.Items)
}

// Count returns the number of units across all lines.
func (s Snapshot) Count() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// Find returns the line with the given key.
func (s Snapshot) Find(key model.LineKey) (model.CartItem, bool) {
	for _, it := range s.Items {
		if it.Key() == key {
			return it, true
		}
	}
	return model.CartItem{}, false
}

// Store holds the basket. Dispatch is the single mutation entry point.
//
// Thread-safety: all methods are safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	items []model.CartItem
	seq   int64 // bumped by every dispatch
}

// NewStore creates a store seeded with items, for example a basket loaded
// from disk. The seed does not consume a sequence number.
func NewStore(items ...model.CartItem) *Store {
	return NewStoreAt(0, items...)
}

// NewStoreAt creates a seeded store whose sequence resumes at seq.
func NewStoreAt(seq int64, items ...model.CartItem) *Store {
	return &Store{
		items: normalize(items),
		seq:   seq,
	}
}

// Dispatch applies a and returns the resulting snapshot.
func (s *Store) Dispatch(a Action) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(a)
}

func (s *Store) dispatchLocked(a Action) Snapshot {
	s.items = Reduce(s.items, a)
	s.seq++
	return Snapshot{Seq: s.seq, Items: clone(s.items)}
}

// Snapshot returns the current basket without mutating it.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Seq: s.seq, Items: clone(s.items)}
}

// Apply replaces the basket with authoritative items from the server.
//
// basedOn is the sequence of the snapshot the server request was built
// from. If the basket moved since then, Apply still replaces it and returns
// the keys of local lines the replacement dropped or shrank.
func (s *Store) Apply(items []model.CartItem, basedOn int64) (Snapshot, []model.LineKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lost []model.LineKey
	if s.seq != basedOn {
		incoming := make(map[model.LineKey]int, len(items))
		for _, it := range items {
			incoming[it.Key()] += it.Quantity
		}
		for _, it := range s.items {
			if incoming[it.Key()] < it.Quantity {
				lost = append(lost, it.Key())
			}
		}
	}
	return s.dispatchLocked(ReplaceItems{Items: items}), lost
}
