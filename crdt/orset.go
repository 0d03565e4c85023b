package crdt

import (
	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
	"github.com/numbleroot/tinycrdt/crdterr"
)

// Tag uniquely identifies one observation of an insert into an ORSet:
// the node that produced it and that node's strictly increasing local
// counter at the time. A Remove call targets a specific Tag so that it
// only removes what the remover has actually observed — concurrent
// inserts it has not seen survive (spec.md §4.6, "observed-remove").
//
// This is a fixed-width (node, counter) pair rather than the random
// string tag the original mail-server ORSet generated with
// satori/go.uuid: a random string both allocates and has no bound on
// representation size, neither of which this core's no-alloc,
// fixed-footprint guarantee can tolerate. See DESIGN.md.
type Tag struct {
	Node    clock.NodeID
	Counter uint64
}

// ORSet is an observed-remove set: an add-tag multiset and a
// remove-tag multiset whose difference determines membership. Element
// v is present iff some tag added with value v is not also present in
// the remove-tag set.
type ORSet[V comparable] struct {
	cap     config.Capacity
	self    clock.NodeID
	counter uint64
	adds    map[Tag]V
	removed map[Tag]struct{}
}

// NewORSet returns an empty ORSet owned by node self.
func NewORSet[V comparable](cap config.Capacity, self clock.NodeID) (*ORSet[V], error) {
	if err := cap.ValidateNodeID("NewORSet", self); err != nil {
		return nil, err
	}
	return &ORSet[V]{
		cap:     cap,
		self:    self,
		adds:    make(map[Tag]V, cap.MaxElements),
		removed: make(map[Tag]struct{}, cap.MaxElements),
	}, nil
}

// Insert stamps a fresh tag for this node and records (tag, v) in the
// add-tag set, returning the tag so a caller can later target this
// exact observation with Remove. It fails with crdterr.CapacityExceeded
// if the add-tag set is already at MaxElements.
func (s *ORSet[V]) Insert(v V) (Tag, error) {
	if len(s.adds) >= s.cap.MaxElements {
		return Tag{}, crdterr.New(crdterr.CapacityExceeded, "ORSet.Insert", nil)
	}

	tag := Tag{Node: s.self, Counter: s.counter}
	s.counter++

	s.adds[tag] = v
	s.coalesce()

	return tag, nil
}

// Remove records tag in the remove-tag set, tombstoning that specific
// observation. Removing a tag this replica has not yet seen an Insert
// for is permitted: it simply tombstones a future arrival of that same
// observation (spec.md §4.6), it never reports InvalidOperation for an
// unseen tag — only a structurally out-of-range node id in the tag
// does, since that can never correspond to a real Insert under this
// configuration.
func (s *ORSet[V]) Remove(_ V, tag Tag) error {
	if err := s.cap.ValidateNodeID("ORSet.Remove", tag.Node); err != nil {
		return err
	}

	if _, already := s.removed[tag]; !already && len(s.removed) >= s.cap.MaxElements {
		return crdterr.New(crdterr.CapacityExceeded, "ORSet.Remove", nil)
	}

	s.removed[tag] = struct{}{}
	s.coalesce()

	return nil
}

// coalesce deterministically reclaims slots for tags that have both
// been added and removed: once a tag appears in both sets it can never
// again affect membership (the same tag cannot be re-issued, and a
// duplicate arrival of an already-applied add or remove is a no-op
// union), so the pair is dropped from both maps. This is a pure
// function of (adds, removed) and is run after every local mutation
// and every merge, so replicas that have observed the same operations
// always reach the same coalesced state (spec.md §4.6, §9).
//
// Coalescing a tag this replica did not originate discards the remove
// before it has necessarily reached every other replica that still
// holds an independent, un-merged copy of the same add — there is no
// causal-stability tracking here to prove that's safe, trading strict
// any-delivery-order convergence for a bounded add/remove footprint.
// See DESIGN.md.
func (s *ORSet[V]) coalesce() {
	for tag := range s.removed {
		if _, ok := s.adds[tag]; ok {
			delete(s.adds, tag)
			delete(s.removed, tag)
		}
	}
}

// Contains reports whether v is present: some tag added with value v
// is not shadowed by a matching remove-tag.
func (s *ORSet[V]) Contains(v V) bool {
	for tag, value := range s.adds {
		if value != v {
			continue
		}
		if _, removed := s.removed[tag]; !removed {
			return true
		}
	}
	return false
}

// Self returns the node id this set was constructed with.
func (s *ORSet[V]) Self() clock.NodeID {
	return s.self
}

// Merge unions both the add-tag and remove-tag sets with peer's, then
// coalesces. If the union of either set would exceed MaxElements the
// receiver is left entirely unchanged.
func (s *ORSet[V]) Merge(peer *ORSet[V]) error {
	newAdds := 0
	for tag := range peer.adds {
		if _, ok := s.adds[tag]; !ok {
			newAdds++
		}
	}
	if len(s.adds)+newAdds > s.cap.MaxElements {
		return crdterr.New(crdterr.CapacityExceeded, "ORSet.Merge", nil)
	}

	newRemoved := 0
	for tag := range peer.removed {
		if _, ok := s.removed[tag]; !ok {
			newRemoved++
		}
	}
	if len(s.removed)+newRemoved > s.cap.MaxElements {
		return crdterr.New(crdterr.CapacityExceeded, "ORSet.Merge", nil)
	}

	for tag, v := range peer.adds {
		s.adds[tag] = v
	}
	for tag := range peer.removed {
		s.removed[tag] = struct{}{}
	}

	s.coalesce()

	return nil
}

// Clone returns a deep copy of s.
func (s *ORSet[V]) Clone() *ORSet[V] {
	adds := make(map[Tag]V, len(s.adds))
	for tag, v := range s.adds {
		adds[tag] = v
	}
	removed := make(map[Tag]struct{}, len(s.removed))
	for tag := range s.removed {
		removed[tag] = struct{}{}
	}
	return &ORSet[V]{cap: s.cap, self: s.self, counter: s.counter, adds: adds, removed: removed}
}

// Equal reports whether s and other are equal after coalescing: same
// add-tag and remove-tag sets. Local per-node counters are not part of
// the observable state and are not compared.
func (s *ORSet[V]) Equal(other *ORSet[V]) bool {
	s.coalesce()
	other.coalesce()

	if len(s.adds) != len(other.adds) || len(s.removed) != len(other.removed) {
		return false
	}
	for tag, v := range s.adds {
		ov, ok := other.adds[tag]
		if !ok || ov != v {
			return false
		}
	}
	for tag := range s.removed {
		if _, ok := other.removed[tag]; !ok {
			return false
		}
	}
	return true
}
