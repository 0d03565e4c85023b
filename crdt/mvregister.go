package crdt

import (
	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
	"github.com/numbleroot/tinycrdt/crdterr"
)

// MVRegister is a multi-value register: up to MaxNodes concurrent
// (value, timestamp) cells, one slot per node, forming an antichain
// under the happens-before order induced by per-node timestamp
// monotonicity. Cells are compared by timestamp alone (spec.md does not
// assume a vector clock here): two cells from different nodes with equal
// timestamps are concurrent and both kept; a node's own new write
// replaces its own previous cell and drops any other node's cell with a
// strictly smaller timestamp.
type MVRegister[V any] struct {
	cap   config.Capacity
	self  clock.NodeID
	cells []lwwCell[V] // indexed by node id; cells[i].set == false means empty
}

// NewMVRegister returns an empty MVRegister owned by node self.
func NewMVRegister[V any](cap config.Capacity, self clock.NodeID) (*MVRegister[V], error) {
	if err := cap.ValidateNodeID("NewMVRegister", self); err != nil {
		return nil, err
	}
	return &MVRegister[V]{
		cap:   cap,
		self:  self,
		cells: make([]lwwCell[V], cap.MaxNodes),
	}, nil
}

// Set overwrites this node's own cell with (v, ts) and additionally
// drops any other live cell whose timestamp is strictly less than ts —
// cells concurrent with the write (equal timestamp from a different
// node) are retained, matching spec.md §8's scenario that two writes at
// the same timestamp from different nodes are concurrent, not ordered.
// A node-id tie-break, as used for LWWRegister/LWWMap, would wrongly
// make this a total order and collapse that antichain, so domination
// here is strict-timestamp-only. A ts strictly less than this node's own
// current cell is rejected with crdterr.InvalidTimestamp.
func (r *MVRegister[V]) Set(v V, ts clock.Timestamp) error {
	if own := r.cells[r.self]; own.set && ts < own.ts {
		return crdterr.New(crdterr.InvalidTimestamp, "MVRegister.Set", nil)
	}

	for i := range r.cells {
		if clock.NodeID(i) == r.self {
			continue
		}
		c := &r.cells[i]
		if c.set && ts > c.ts {
			*c = lwwCell[V]{}
		}
	}

	r.cells[r.self] = lwwCell[V]{value: v, ts: ts, node: r.self, set: true}
	return nil
}

// Values returns the multiset of live values across all node slots.
// Callers resolve ties or combine concurrent values semantically; this
// register only guarantees the antichain invariant, not a single
// winner.
func (r *MVRegister[V]) Values() []V {
	out := make([]V, 0, len(r.cells))
	for _, c := range r.cells {
		if c.set {
			out = append(out, c.value)
		}
	}
	return out
}

// Self returns the node id this register was constructed with.
func (r *MVRegister[V]) Self() clock.NodeID {
	return r.self
}

// Merge keeps, per node index, whichever of r's and peer's cells has
// the greater timestamp (at a fixed index the node id is identical on
// both sides, so ties only arise from an empty vs. set cell — an empty
// cell always loses). It then re-derives the antichain: any live cell
// whose timestamp is strictly dominated by another live cell is
// dropped, the same rule Set applies locally, so a dominating write
// that arrives via Merge retires the cells it causally supersedes just
// as it would have had it been applied directly (spec.md §8, S3).
func (r *MVRegister[V]) Merge(peer *MVRegister[V]) error {
	for i := range r.cells {
		pc := peer.cells[i]
		if !pc.set {
			continue
		}
		c := &r.cells[i]
		if !c.set || pc.ts > c.ts {
			*c = pc
		}
	}

	r.pruneDominated()

	return nil
}

// pruneDominated drops any live cell whose timestamp is strictly less
// than another live cell's timestamp, restoring the antichain property
// after a merge may have introduced a cell that causally supersedes
// others. Equal timestamps from distinct nodes remain concurrent and
// are never pruned against each other.
func (r *MVRegister[V]) pruneDominated() {
	for i := range r.cells {
		if !r.cells[i].set {
			continue
		}
		for j := range r.cells {
			if i == j || !r.cells[j].set {
				continue
			}
			if r.cells[j].ts > r.cells[i].ts {
				r.cells[i] = lwwCell[V]{}
				break
			}
		}
	}
}

// Clone returns a deep copy of r.
func (r *MVRegister[V]) Clone() *MVRegister[V] {
	cells := make([]lwwCell[V], len(r.cells))
	copy(cells, r.cells)
	return &MVRegister[V]{cap: r.cap, self: r.self, cells: cells}
}

// Equal reports whether r and other hold bitwise-equal cells at every
// node index.
func (r *MVRegister[V]) Equal(other *MVRegister[V], eq func(a, b V) bool) bool {
	if len(r.cells) != len(other.cells) {
		return false
	}
	for i := range r.cells {
		a, b := r.cells[i], other.cells[i]
		if a.set != b.set {
			return false
		}
		if a.set && (a.ts != b.ts || a.node != b.node || !eq(a.value, b.value)) {
			return false
		}
	}
	return true
}
