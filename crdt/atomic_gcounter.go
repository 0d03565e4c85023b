package crdt

import (
	"math"
	"sync/atomic"

	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
	"github.com/numbleroot/tinycrdt/crdterr"
)

// AtomicGCounter is the lock-free twin of GCounter: every per-node count
// is a single atomic word, updated by a compare-and-exchange retry loop
// so Increment and Merge may be called concurrently from any number of
// goroutines (or, on real embedded targets, interrupt contexts) without
// a mutex. The retry structure is deliberately separate from GCounter's
// rather than sharing an abstract cell type with it: the two have
// materially different concurrency contracts (spec.md §9).
type AtomicGCounter struct {
	cap   config.Capacity
	self  clock.NodeID
	count []atomic.Uint64
}

// NewAtomicGCounter returns an empty AtomicGCounter owned by node self.
func NewAtomicGCounter(cap config.Capacity, self clock.NodeID) (*AtomicGCounter, error) {
	if err := cap.ValidateNodeID("NewAtomicGCounter", self); err != nil {
		return nil, err
	}
	return &AtomicGCounter{cap: cap, self: self, count: make([]atomic.Uint64, cap.MaxNodes)}, nil
}

// Increment adds delta to this node's own count via compare-and-swap,
// retrying on a concurrent update until it wins or overflow is
// detected. Progress is guaranteed: a losing attempt always reloads a
// strictly newer value, so the loop cannot spin against itself forever.
func (g *AtomicGCounter) Increment(delta uint64) error {
	const op = "AtomicGCounter.Increment"

	cell := &g.count[g.self]
	for {
		current := cell.Load()
		if delta > math.MaxUint64-current {
			return crdterr.New(crdterr.Overflow, op, nil)
		}
		if cell.CompareAndSwap(current, current+delta) {
			return nil
		}
	}
}

// Value returns the sum of all per-node counts, each loaded with
// acquire ordering so it reflects every increment whose CompareAndSwap
// has already been observed to succeed.
func (g *AtomicGCounter) Value() uint64 {
	var total uint64
	for i := range g.count {
		total += g.count[i].Load()
	}
	return total
}

// NodeValue returns the count attributed to a single node index.
func (g *AtomicGCounter) NodeValue(node clock.NodeID) (uint64, error) {
	if err := g.cap.ValidateNodeID("AtomicGCounter.NodeValue", node); err != nil {
		return 0, err
	}
	return g.count[node].Load(), nil
}

// Self returns the node id this counter was constructed with.
func (g *AtomicGCounter) Self() clock.NodeID {
	return g.self
}

// Merge folds peer into g one index at a time: each index races a
// compare-and-swap against whatever the current value is, retrying
// until either it installs the greater of the two values or discovers a
// concurrent writer already raised the index at least that high —
// merge is idempotent, so losing the race because a newer value is
// already present is not a failure, just nothing left to do.
func (g *AtomicGCounter) Merge(peer *AtomicGCounter) error {
	if len(peer.count) != len(g.count) {
		return crdterr.New(crdterr.InvalidOperation, "AtomicGCounter.Merge", nil)
	}

	for i := range g.count {
		peerVal := peer.count[i].Load()
		cell := &g.count[i]
		for {
			current := cell.Load()
			if peerVal <= current {
				break
			}
			if cell.CompareAndSwap(current, peerVal) {
				break
			}
		}
	}

	return nil
}

// Clone returns a snapshot copy of g. The snapshot is not atomic across
// indices: it is a consistent per-index read, not a single transaction
// over the whole vector, matching the rest of this library's posture
// that cross-field atomicity is never implied unless stated.
func (g *AtomicGCounter) Clone() *AtomicGCounter {
	out := &AtomicGCounter{cap: g.cap, self: g.self, count: make([]atomic.Uint64, len(g.count))}
	for i := range g.count {
		out.count[i].Store(g.count[i].Load())
	}
	return out
}

// Equal reports whether g and other hold equal per-node counts at the
// moment of the read.
func (g *AtomicGCounter) Equal(other *AtomicGCounter) bool {
	if len(g.count) != len(other.count) {
		return false
	}
	for i := range g.count {
		if g.count[i].Load() != other.count[i].Load() {
			return false
		}
	}
	return true
}
