package crdt

import (
	"sync/atomic"

	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
	"github.com/numbleroot/tinycrdt/crdterr"
)

// AtomicGSet is the lock-free twin of GSet. A Go map cannot be mutated
// race-free without a lock, so the atomic variant instead backs the set
// with a fixed array of MaxElements slots, each an atomic.Pointer to an
// immutable copy of the stored value; claiming slot i is a single
// compare-and-swap of that slot from nil to the new value.
//
// Insert first scans for an existing equal value and then claims the
// first empty slot it finds; those two steps are not one atomic
// transaction, so two callers racing to insert the same new value can
// both win a distinct empty slot, leaving a duplicate entry. Contains
// and set membership are unaffected (both slots agree the value is
// present); Len counts both slots, and nothing in AtomicGSet ever
// removes the duplicate. This is a documented, bounded trade-off of
// doing a multi-slot set without a lock. See DESIGN.md.
type AtomicGSet[V comparable] struct {
	cap   config.Capacity
	self  clock.NodeID
	slots []atomic.Pointer[V]
}

// NewAtomicGSet returns an empty AtomicGSet owned by node self.
func NewAtomicGSet[V comparable](cap config.Capacity, self clock.NodeID) (*AtomicGSet[V], error) {
	if err := cap.ValidateNodeID("NewAtomicGSet", self); err != nil {
		return nil, err
	}
	return &AtomicGSet[V]{cap: cap, self: self, slots: make([]atomic.Pointer[V], cap.MaxElements)}, nil
}

// Contains reports whether v occupies any slot.
func (s *AtomicGSet[V]) Contains(v V) bool {
	for i := range s.slots {
		if p := s.slots[i].Load(); p != nil && *p == v {
			return true
		}
	}
	return false
}

// Insert claims the first empty slot for v unless v is already present.
// It fails with crdterr.CapacityExceeded if v is new and every slot is
// occupied.
func (s *AtomicGSet[V]) Insert(v V) error {
	if s.Contains(v) {
		return nil
	}

	for i := range s.slots {
		if s.slots[i].CompareAndSwap(nil, &v) {
			return nil
		}
	}

	return crdterr.New(crdterr.CapacityExceeded, "AtomicGSet.Insert", nil)
}

// Len returns the number of occupied slots at the moment of the read;
// see the race window documented on AtomicGSet.
func (s *AtomicGSet[V]) Len() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].Load() != nil {
			n++
		}
	}
	return n
}

// Elements returns a snapshot slice of every occupied slot's value, in
// unspecified order.
func (s *AtomicGSet[V]) Elements() []V {
	out := make([]V, 0, len(s.slots))
	for i := range s.slots {
		if p := s.slots[i].Load(); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Self returns the node id this set was constructed with.
func (s *AtomicGSet[V]) Self() clock.NodeID {
	return s.self
}

// Merge claims a slot for every element of peer not already present in
// s. If s runs out of empty slots partway through, the elements already
// claimed remain (set union is commutative and idempotent regardless of
// partial application order), but the call reports
// crdterr.CapacityExceeded so the caller knows convergence is
// incomplete.
func (s *AtomicGSet[V]) Merge(peer *AtomicGSet[V]) error {
	var failed bool
	for _, v := range peer.Elements() {
		if err := s.Insert(v); err != nil {
			failed = true
		}
	}
	if failed {
		return crdterr.New(crdterr.CapacityExceeded, "AtomicGSet.Merge", nil)
	}
	return nil
}

// Clone returns a snapshot copy of s.
func (s *AtomicGSet[V]) Clone() *AtomicGSet[V] {
	out := &AtomicGSet[V]{cap: s.cap, self: s.self, slots: make([]atomic.Pointer[V], len(s.slots))}
	for i := range s.slots {
		out.slots[i].Store(s.slots[i].Load())
	}
	return out
}

// Equal reports whether s and other contain the same set of distinct
// values at the moment of the read.
func (s *AtomicGSet[V]) Equal(other *AtomicGSet[V]) bool {
	a, b := s.Elements(), other.Elements()
	seen := make(map[V]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	other_ := make(map[V]struct{}, len(b))
	for _, v := range b {
		other_[v] = struct{}{}
	}
	if len(seen) != len(other_) {
		return false
	}
	for v := range seen {
		if _, ok := other_[v]; !ok {
			return false
		}
	}
	return true
}
