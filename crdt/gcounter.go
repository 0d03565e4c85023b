package crdt

import (
	"math"

	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
	"github.com/numbleroot/tinycrdt/crdterr"
)

// GCounter is a grow-only counter: a vector of per-node counts that can
// only increase. Merge takes the per-index maximum, which is trivially
// commutative, associative, and idempotent.
type GCounter struct {
	cap   config.Capacity
	self  clock.NodeID
	count []uint64
}

// NewGCounter returns an empty GCounter owned by node self, sized for
// cap.MaxNodes nodes. The backing slice is allocated once, here; no
// later operation on the counter allocates.
func NewGCounter(cap config.Capacity, self clock.NodeID) (*GCounter, error) {
	if err := cap.ValidateNodeID("NewGCounter", self); err != nil {
		return nil, err
	}

	return &GCounter{
		cap:   cap,
		self:  self,
		count: make([]uint64, cap.MaxNodes),
	}, nil
}

// Increment adds delta to this node's own count. It fails with
// crdterr.Overflow if the sum would wrap uint64.
func (g *GCounter) Increment(delta uint64) error {
	const op = "GCounter.Increment"

	current := g.count[g.self]
	if delta > math.MaxUint64-current {
		return crdterr.New(crdterr.Overflow, op, nil)
	}

	g.count[g.self] = current + delta
	return nil
}

// Value returns the sum of all per-node counts.
func (g *GCounter) Value() uint64 {
	var total uint64
	for _, c := range g.count {
		total += c
	}
	return total
}

// NodeValue returns the count attributed to a single node index.
func (g *GCounter) NodeValue(node clock.NodeID) (uint64, error) {
	if err := g.cap.ValidateNodeID("GCounter.NodeValue", node); err != nil {
		return 0, err
	}
	return g.count[node], nil
}

// Self returns the node id this counter was constructed with.
func (g *GCounter) Self() clock.NodeID {
	return g.self
}

// Merge folds peer into g by taking the per-index maximum. peer must
// share this counter's capacity configuration (spec.md §3.1). A peer
// sized for a different MaxNodes is rejected with
// crdterr.InvalidOperation; no other configuration difference is
// detected.
func (g *GCounter) Merge(peer *GCounter) error {
	if len(peer.count) != len(g.count) {
		return crdterr.New(crdterr.InvalidOperation, "GCounter.Merge", nil)
	}

	for i := range g.count {
		if peer.count[i] > g.count[i] {
			g.count[i] = peer.count[i]
		}
	}

	return nil
}

// Clone returns a deep copy of g, sharing no backing storage.
func (g *GCounter) Clone() *GCounter {
	count := make([]uint64, len(g.count))
	copy(count, g.count)
	return &GCounter{cap: g.cap, self: g.self, count: count}
}

// Equal reports whether g and other hold bitwise-equal per-node counts.
// Used by the semilattice property tests to check convergence.
func (g *GCounter) Equal(other *GCounter) bool {
	if len(g.count) != len(other.count) {
		return false
	}
	for i := range g.count {
		if g.count[i] != other.count[i] {
			return false
		}
	}
	return true
}
