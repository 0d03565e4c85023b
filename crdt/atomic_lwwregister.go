package crdt

import (
	"sync/atomic"

	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
	"github.com/numbleroot/tinycrdt/crdterr"
)

// AtomicLWWRegister is the lock-free twin of LWWRegister. Its cell is a
// single atomic.Pointer to an immutable lwwCell[V]: the (value,
// timestamp, node) triple is replaced as one unit by a compare-and-swap
// of the pointer, so a concurrent reader either sees the whole old cell
// or the whole new one, never a torn mix of the two fields (spec.md
// §4.8, "multi-word atomicity"). Publishing a new cell still means one
// small heap allocation per successful write; Go has no primitive that
// lets a CAS loop swap an inline (V, timestamp, node) triple in place
// the way a hand-written CAS over packed machine words would in C or
// Rust, so that part of the "no operation allocates" goal is a
// documented, bounded exception for this variant. See DESIGN.md.
type AtomicLWWRegister[V any] struct {
	cap  config.Capacity
	self clock.NodeID
	cell atomic.Pointer[lwwCell[V]]
}

// NewAtomicLWWRegister returns an empty AtomicLWWRegister owned by node
// self.
func NewAtomicLWWRegister[V any](cap config.Capacity, self clock.NodeID) (*AtomicLWWRegister[V], error) {
	if err := cap.ValidateNodeID("NewAtomicLWWRegister", self); err != nil {
		return nil, err
	}
	return &AtomicLWWRegister[V]{cap: cap, self: self}, nil
}

// Set writes v at timestamp ts on behalf of this register's own node,
// retrying a compare-and-swap until it installs the new cell, discovers
// the call is a no-op replay of the current cell, or fails with
// crdterr.InvalidTimestamp on a same-node regression. See
// LWWRegister.Set for the comparison rule; it is identical here.
func (r *AtomicLWWRegister[V]) Set(v V, ts clock.Timestamp) error {
	const op = "AtomicLWWRegister.Set"

	for {
		old := r.cell.Load()

		if old != nil && old.node == r.self && ts < old.ts {
			return crdterr.New(crdterr.InvalidTimestamp, op, nil)
		}
		if old != nil && !clock.AtLeast(ts, r.self, old.ts, old.node) {
			return nil
		}

		next := &lwwCell[V]{value: v, ts: ts, node: r.self, set: true}
		if r.cell.CompareAndSwap(old, next) {
			return nil
		}
	}
}

// Get returns the stored value and true if the register is non-empty.
func (r *AtomicLWWRegister[V]) Get() (V, bool) {
	c := r.cell.Load()
	if c == nil {
		var zero V
		return zero, false
	}
	return c.value, true
}

// Self returns the node id this register was constructed with.
func (r *AtomicLWWRegister[V]) Self() clock.NodeID {
	return r.self
}

// Merge installs peer's cell if it dominates the current one, retrying
// the compare-and-swap against concurrent writers until it either wins
// or finds the current cell already at least as new.
func (r *AtomicLWWRegister[V]) Merge(peer *AtomicLWWRegister[V]) error {
	pc := peer.cell.Load()
	if pc == nil {
		return nil
	}

	for {
		old := r.cell.Load()
		if old != nil && !clock.Dominates(pc.ts, pc.node, old.ts, old.node) {
			return nil
		}
		if r.cell.CompareAndSwap(old, pc) {
			return nil
		}
	}
}

// Clone returns a copy of r sharing its current cell pointer — safe
// because cells are never mutated in place, only replaced.
func (r *AtomicLWWRegister[V]) Clone() *AtomicLWWRegister[V] {
	out := &AtomicLWWRegister[V]{cap: r.cap, self: r.self}
	out.cell.Store(r.cell.Load())
	return out
}

// Equal reports whether r and other hold equal cells at the moment of
// the read.
func (r *AtomicLWWRegister[V]) Equal(other *AtomicLWWRegister[V], eq func(a, b V) bool) bool {
	a, b := r.cell.Load(), other.cell.Load()
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.ts == b.ts && a.node == b.node && eq(a.value, b.value)
}
