package crdt

import (
	"sync/atomic"

	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
	"github.com/numbleroot/tinycrdt/crdterr"
)

type atomicORSetAdd[V comparable] struct {
	tag   Tag
	value V
}

// AtomicORSet is the lock-free twin of ORSet. Like AtomicGSet, it backs
// the add-tag and remove-tag multisets with fixed slot arrays of
// atomic.Pointer rather than maps, each slot claimed by a single
// compare-and-swap. Tag uniqueness (stamped from this node's own atomic
// counter) makes the scan-then-claim race on Insert harmless: two
// concurrent inserts always carry distinct tags, so they can never
// collide on "the same logical element" the way two AtomicGSet inserts
// of an identical value can.
type AtomicORSet[V comparable] struct {
	cap     config.Capacity
	self    clock.NodeID
	counter atomic.Uint64
	adds    []atomic.Pointer[atomicORSetAdd[V]]
	removed []atomic.Pointer[Tag]
}

// NewAtomicORSet returns an empty AtomicORSet owned by node self.
func NewAtomicORSet[V comparable](cap config.Capacity, self clock.NodeID) (*AtomicORSet[V], error) {
	if err := cap.ValidateNodeID("NewAtomicORSet", self); err != nil {
		return nil, err
	}
	return &AtomicORSet[V]{
		cap:     cap,
		self:    self,
		adds:    make([]atomic.Pointer[atomicORSetAdd[V]], cap.MaxElements),
		removed: make([]atomic.Pointer[Tag], cap.MaxElements),
	}, nil
}

// Insert stamps a fresh tag via an atomic counter increment and claims
// an empty add slot for it, returning the tag. It fails with
// crdterr.CapacityExceeded if no add slot is free.
func (s *AtomicORSet[V]) Insert(v V) (Tag, error) {
	tag := Tag{Node: s.self, Counter: s.counter.Add(1) - 1}
	entry := &atomicORSetAdd[V]{tag: tag, value: v}

	for i := range s.adds {
		if s.adds[i].CompareAndSwap(nil, entry) {
			s.coalesce()
			return tag, nil
		}
	}

	return Tag{}, crdterr.New(crdterr.CapacityExceeded, "AtomicORSet.Insert", nil)
}

// Remove claims an empty remove slot for tag unless tag is already
// recorded as removed. It fails with crdterr.InvalidNodeID if tag.Node
// is outside this configuration's range, and with
// crdterr.CapacityExceeded if tag is new and every remove slot is
// occupied.
func (s *AtomicORSet[V]) Remove(_ V, tag Tag) error {
	if err := s.cap.ValidateNodeID("AtomicORSet.Remove", tag.Node); err != nil {
		return err
	}

	for i := range s.removed {
		if p := s.removed[i].Load(); p != nil && *p == tag {
			return nil
		}
	}

	for i := range s.removed {
		if s.removed[i].CompareAndSwap(nil, &tag) {
			s.coalesce()
			return nil
		}
	}

	return crdterr.New(crdterr.CapacityExceeded, "AtomicORSet.Remove", nil)
}

// coalesce best-effort reclaims slots whose tag appears in both the
// add-tag and remove-tag arrays, the same deterministic policy ORSet
// uses and the same documented propagation caveat (see ORSet.coalesce).
func (s *AtomicORSet[V]) coalesce() {
	for i := range s.removed {
		rp := s.removed[i].Load()
		if rp == nil {
			continue
		}
		for j := range s.adds {
			ap := s.adds[j].Load()
			if ap != nil && ap.tag == *rp {
				s.adds[j].CompareAndSwap(ap, nil)
				s.removed[i].CompareAndSwap(rp, nil)
				break
			}
		}
	}
}

// Contains reports whether v is present: some add slot holds v whose
// tag is not shadowed by an equal-tag remove slot.
func (s *AtomicORSet[V]) Contains(v V) bool {
	for i := range s.adds {
		ap := s.adds[i].Load()
		if ap == nil || ap.value != v {
			continue
		}
		removed := false
		for j := range s.removed {
			if rp := s.removed[j].Load(); rp != nil && *rp == ap.tag {
				removed = true
				break
			}
		}
		if !removed {
			return true
		}
	}
	return false
}

// Self returns the node id this set was constructed with.
func (s *AtomicORSet[V]) Self() clock.NodeID {
	return s.self
}

// Merge claims a slot for every add and remove entry of peer not
// already present in s, then coalesces. As with AtomicGSet.Merge,
// entries already claimed before a capacity failure remain (union is
// idempotent regardless of application order); crdterr.CapacityExceeded
// signals incomplete convergence rather than leaving s untouched.
func (s *AtomicORSet[V]) Merge(peer *AtomicORSet[V]) error {
	var failed bool

	for i := range peer.adds {
		ap := peer.adds[i].Load()
		if ap == nil {
			continue
		}
		if !s.hasAddTag(ap.tag) {
			if !s.claimAdd(ap) {
				failed = true
			}
		}
	}

	for i := range peer.removed {
		rp := peer.removed[i].Load()
		if rp == nil {
			continue
		}
		if !s.hasRemovedTag(*rp) {
			if !s.claimRemoved(rp) {
				failed = true
			}
		}
	}

	s.coalesce()

	if failed {
		return crdterr.New(crdterr.CapacityExceeded, "AtomicORSet.Merge", nil)
	}
	return nil
}

func (s *AtomicORSet[V]) hasAddTag(tag Tag) bool {
	for i := range s.adds {
		if ap := s.adds[i].Load(); ap != nil && ap.tag == tag {
			return true
		}
	}
	return false
}

func (s *AtomicORSet[V]) hasRemovedTag(tag Tag) bool {
	for i := range s.removed {
		if rp := s.removed[i].Load(); rp != nil && *rp == tag {
			return true
		}
	}
	return false
}

func (s *AtomicORSet[V]) claimAdd(entry *atomicORSetAdd[V]) bool {
	for i := range s.adds {
		if s.adds[i].CompareAndSwap(nil, entry) {
			return true
		}
	}
	return false
}

func (s *AtomicORSet[V]) claimRemoved(tag *Tag) bool {
	for i := range s.removed {
		if s.removed[i].CompareAndSwap(nil, tag) {
			return true
		}
	}
	return false
}

// Clone returns a snapshot copy of s.
func (s *AtomicORSet[V]) Clone() *AtomicORSet[V] {
	out := &AtomicORSet[V]{
		cap:     s.cap,
		self:    s.self,
		adds:    make([]atomic.Pointer[atomicORSetAdd[V]], len(s.adds)),
		removed: make([]atomic.Pointer[Tag], len(s.removed)),
	}
	out.counter.Store(s.counter.Load())
	for i := range s.adds {
		out.adds[i].Store(s.adds[i].Load())
	}
	for i := range s.removed {
		out.removed[i].Store(s.removed[i].Load())
	}
	return out
}

// Equal reports whether s and other are equal after coalescing: same
// add-tag and remove-tag entries.
func (s *AtomicORSet[V]) Equal(other *AtomicORSet[V]) bool {
	s.coalesce()
	other.coalesce()

	addsEq := func(a, b *AtomicORSet[V]) bool {
		for i := range a.adds {
			ap := a.adds[i].Load()
			if ap == nil {
				continue
			}
			if !b.hasAddTag(ap.tag) {
				return false
			}
		}
		return true
	}
	removedEq := func(a, b *AtomicORSet[V]) bool {
		for i := range a.removed {
			rp := a.removed[i].Load()
			if rp == nil {
				continue
			}
			if !b.hasRemovedTag(*rp) {
				return false
			}
		}
		return true
	}

	return addsEq(s, other) && addsEq(other, s) && removedEq(s, other) && removedEq(other, s)
}
