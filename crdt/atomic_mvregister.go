package crdt

import (
	"sync/atomic"

	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
)

// AtomicMVRegister is the lock-free twin of MVRegister: each node-index
// slot is an atomic.Pointer to an immutable lwwCell[V], installed by
// compare-and-swap. Set publishes this node's own new cell
// unconditionally with a plain atomic store, not a compare-and-swap
// (Merge and its pruning pass may also write that index), and
// then best-effort retires other live cells it dominates; a retirement
// that loses a race to a concurrent Merge is not lost work, only
// deferred, since the next Set or Merge re-derives the same antichain.
type AtomicMVRegister[V any] struct {
	cap   config.Capacity
	self  clock.NodeID
	cells []atomic.Pointer[lwwCell[V]]
}

// NewAtomicMVRegister returns an empty AtomicMVRegister owned by node
// self.
func NewAtomicMVRegister[V any](cap config.Capacity, self clock.NodeID) (*AtomicMVRegister[V], error) {
	if err := cap.ValidateNodeID("NewAtomicMVRegister", self); err != nil {
		return nil, err
	}
	return &AtomicMVRegister[V]{cap: cap, self: self, cells: make([]atomic.Pointer[lwwCell[V]], cap.MaxNodes)}, nil
}

// Set publishes (v, ts) as this node's own cell and retires any other
// live cell with a strictly smaller timestamp.
func (r *AtomicMVRegister[V]) Set(v V, ts clock.Timestamp) error {
	next := &lwwCell[V]{value: v, ts: ts, node: r.self, set: true}
	r.cells[r.self].Store(next)

	for i := range r.cells {
		if clock.NodeID(i) == r.self {
			continue
		}
		for {
			old := r.cells[i].Load()
			if old == nil || ts <= old.ts {
				break
			}
			if r.cells[i].CompareAndSwap(old, nil) {
				break
			}
		}
	}

	return nil
}

// Values returns the multiset of live values across all node slots, as
// observed at the moment of the read.
func (r *AtomicMVRegister[V]) Values() []V {
	out := make([]V, 0, len(r.cells))
	for i := range r.cells {
		if c := r.cells[i].Load(); c != nil {
			out = append(out, c.value)
		}
	}
	return out
}

// Self returns the node id this register was constructed with.
func (r *AtomicMVRegister[V]) Self() clock.NodeID {
	return r.self
}

// Merge installs, at each index, peer's cell if its timestamp is
// strictly greater than the current one, then retires any cell
// dominated by another live cell — the same antichain-restoring pass
// MVRegister.Merge runs, done here through per-index compare-and-swap
// so a concurrent local Set cannot be silently overwritten by a stale
// read.
func (r *AtomicMVRegister[V]) Merge(peer *AtomicMVRegister[V]) error {
	for i := range r.cells {
		pc := peer.cells[i].Load()
		if pc == nil {
			continue
		}
		for {
			old := r.cells[i].Load()
			if old != nil && pc.ts <= old.ts {
				break
			}
			if r.cells[i].CompareAndSwap(old, pc) {
				break
			}
		}
	}

	r.pruneDominated()

	return nil
}

// pruneDominated retires any live cell whose timestamp is strictly less
// than another live cell's, best-effort under concurrency.
func (r *AtomicMVRegister[V]) pruneDominated() {
	for i := range r.cells {
		ci := r.cells[i].Load()
		if ci == nil {
			continue
		}
		for j := range r.cells {
			if i == j {
				continue
			}
			cj := r.cells[j].Load()
			if cj != nil && cj.ts > ci.ts {
				r.cells[i].CompareAndSwap(ci, nil)
				break
			}
		}
	}
}

// Clone returns a copy of r sharing its current cell pointers.
func (r *AtomicMVRegister[V]) Clone() *AtomicMVRegister[V] {
	out := &AtomicMVRegister[V]{cap: r.cap, self: r.self, cells: make([]atomic.Pointer[lwwCell[V]], len(r.cells))}
	for i := range r.cells {
		out.cells[i].Store(r.cells[i].Load())
	}
	return out
}

// Equal reports whether r and other hold equal cells at every index at
// the moment of the read.
func (r *AtomicMVRegister[V]) Equal(other *AtomicMVRegister[V], eq func(a, b V) bool) bool {
	if len(r.cells) != len(other.cells) {
		return false
	}
	for i := range r.cells {
		a, b := r.cells[i].Load(), other.cells[i].Load()
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && (a.ts != b.ts || a.node != b.node || !eq(a.value, b.value)) {
			return false
		}
	}
	return true
}
