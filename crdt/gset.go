package crdt

import (
	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
	"github.com/numbleroot/tinycrdt/crdterr"
)

// GSet is a grow-only set: unique values, up to MaxElements, whose
// membership is monotone — once inserted, an element is never removed.
// Merge is set union, which is commutative, associative, and
// idempotent, exactly like the teacher's ORSet.Lookup loop but without
// any remove path.
type GSet[V comparable] struct {
	cap      config.Capacity
	self     clock.NodeID
	elements map[V]struct{}
}

// NewGSet returns an empty GSet owned by node self.
func NewGSet[V comparable](cap config.Capacity, self clock.NodeID) (*GSet[V], error) {
	if err := cap.ValidateNodeID("NewGSet", self); err != nil {
		return nil, err
	}
	return &GSet[V]{
		cap:      cap,
		self:     self,
		elements: make(map[V]struct{}, cap.MaxElements),
	}, nil
}

// Insert adds v to the set. It is a no-op if v is already present; it
// fails with crdterr.CapacityExceeded if v is new and the set is
// already at MaxElements.
func (s *GSet[V]) Insert(v V) error {
	if _, ok := s.elements[v]; ok {
		return nil
	}

	if len(s.elements) >= s.cap.MaxElements {
		return crdterr.New(crdterr.CapacityExceeded, "GSet.Insert", nil)
	}

	s.elements[v] = struct{}{}
	return nil
}

// Contains reports whether v is a member of the set.
func (s *GSet[V]) Contains(v V) bool {
	_, ok := s.elements[v]
	return ok
}

// Len returns the number of distinct elements currently in the set.
func (s *GSet[V]) Len() int {
	return len(s.elements)
}

// Elements returns a snapshot slice of every member, in unspecified
// order.
func (s *GSet[V]) Elements() []V {
	out := make([]V, 0, len(s.elements))
	for v := range s.elements {
		out = append(out, v)
	}
	return out
}

// Self returns the node id this set was constructed with.
func (s *GSet[V]) Self() clock.NodeID {
	return s.self
}

// Merge unions peer's elements into s. If the union would exceed
// MaxElements the receiver is left entirely unchanged — a merge either
// fully applies or not at all, never partially, so idempotence and
// associativity are never at risk of being violated by a merge that
// fails halfway through (spec.md §7, Propagation policy).
func (s *GSet[V]) Merge(peer *GSet[V]) error {
	extra := 0
	for v := range peer.elements {
		if _, ok := s.elements[v]; !ok {
			extra++
		}
	}

	if len(s.elements)+extra > s.cap.MaxElements {
		return crdterr.New(crdterr.CapacityExceeded, "GSet.Merge", nil)
	}

	for v := range peer.elements {
		s.elements[v] = struct{}{}
	}

	return nil
}

// Clone returns a deep copy of s.
func (s *GSet[V]) Clone() *GSet[V] {
	elements := make(map[V]struct{}, len(s.elements))
	for v := range s.elements {
		elements[v] = struct{}{}
	}
	return &GSet[V]{cap: s.cap, self: s.self, elements: elements}
}

// Equal reports whether s and other contain exactly the same elements.
func (s *GSet[V]) Equal(other *GSet[V]) bool {
	if len(s.elements) != len(other.elements) {
		return false
	}
	for v := range s.elements {
		if _, ok := other.elements[v]; !ok {
			return false
		}
	}
	return true
}
