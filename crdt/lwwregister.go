package crdt

import (
	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
	"github.com/numbleroot/tinycrdt/crdterr"
)

// lwwCell is the (value, timestamp, node) triple an LWWRegister and an
// LWWMap slot both compare under lexicographic (timestamp, node) order.
// It is shared between both types because the comparison rule — and
// the idempotent-replay / regression-rejection edge cases around it —
// is identical.
type lwwCell[V any] struct {
	value V
	ts    clock.Timestamp
	node  clock.NodeID
	set   bool
}

// LWWRegister is a last-writer-wins register: at most one live cell,
// replaced only by a strictly newer (timestamp, node) pair.
type LWWRegister[V any] struct {
	cap  config.Capacity
	self clock.NodeID
	cell lwwCell[V]
}

// NewLWWRegister returns an empty LWWRegister owned by node self.
func NewLWWRegister[V any](cap config.Capacity, self clock.NodeID) (*LWWRegister[V], error) {
	if err := cap.ValidateNodeID("NewLWWRegister", self); err != nil {
		return nil, err
	}
	return &LWWRegister[V]{cap: cap, self: self}, nil
}

// Set writes v at timestamp ts on behalf of this register's own node.
// The write is accepted iff (ts, self) is greater than or equal to the
// stored (timestamp, node) pair under lexicographic order — strictly
// greater replaces the cell, exactly equal is accepted as a no-op so
// that replaying the same local write twice is idempotent. A timestamp
// strictly less than the one this same node already wrote is rejected
// with crdterr.InvalidTimestamp: per-node monotonicity is a precondition
// the caller's clock must uphold, and a regression signals a clock bug,
// not a normal concurrent write.
func (r *LWWRegister[V]) Set(v V, ts clock.Timestamp) error {
	const op = "LWWRegister.Set"

	if r.cell.set && r.cell.node == r.self && ts < r.cell.ts {
		return crdterr.New(crdterr.InvalidTimestamp, op, nil)
	}

	if r.cell.set && !clock.AtLeast(ts, r.self, r.cell.ts, r.cell.node) {
		// A write from this node that does not dominate the current
		// cell (and is not an identical replay) is a no-op: someone
		// else's write already won.
		return nil
	}

	r.cell = lwwCell[V]{value: v, ts: ts, node: r.self, set: true}
	return nil
}

// Get returns the stored value and true if the register is non-empty.
func (r *LWWRegister[V]) Get() (V, bool) {
	return r.cell.value, r.cell.set
}

// Self returns the node id this register was constructed with.
func (r *LWWRegister[V]) Self() clock.NodeID {
	return r.self
}

// Merge keeps whichever of r's and peer's cells has the greater
// (timestamp, node) pair, ties (impossible between two distinct nodes
// except by construction) broken by node id. An empty cell loses to any
// set cell.
func (r *LWWRegister[V]) Merge(peer *LWWRegister[V]) error {
	if !peer.cell.set {
		return nil
	}
	if !r.cell.set || clock.Dominates(peer.cell.ts, peer.cell.node, r.cell.ts, r.cell.node) {
		r.cell = peer.cell
	}
	return nil
}

// Clone returns a deep copy of r.
func (r *LWWRegister[V]) Clone() *LWWRegister[V] {
	return &LWWRegister[V]{cap: r.cap, self: r.self, cell: r.cell}
}

// Equal reports whether r and other hold bitwise-equal state: same
// presence, value, timestamp, and node.
func (r *LWWRegister[V]) Equal(other *LWWRegister[V], eq func(a, b V) bool) bool {
	if r.cell.set != other.cell.set {
		return false
	}
	if !r.cell.set {
		return true
	}
	return r.cell.ts == other.cell.ts && r.cell.node == other.cell.node && eq(r.cell.value, other.cell.value)
}
