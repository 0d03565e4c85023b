package crdt

import (
	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
)

// PNCounter is a positive/negative counter built from two GCounters, p
// and n. Its value is Σp − Σn as an int64: each half's uint64 sum is
// converted to int64 before the subtraction, so the result is exact
// only while both sums stay at or below math.MaxInt64.
type PNCounter struct {
	p *GCounter
	n *GCounter
}

// NewPNCounter returns an empty PNCounter owned by node self.
func NewPNCounter(cap config.Capacity, self clock.NodeID) (*PNCounter, error) {
	p, err := NewGCounter(cap, self)
	if err != nil {
		return nil, err
	}

	n, err := NewGCounter(cap, self)
	if err != nil {
		return nil, err
	}

	return &PNCounter{p: p, n: n}, nil
}

// Increment routes delta to the positive half.
func (c *PNCounter) Increment(delta uint64) error {
	return c.p.Increment(delta)
}

// Decrement routes delta to the negative half.
func (c *PNCounter) Decrement(delta uint64) error {
	return c.n.Increment(delta)
}

// Value returns Σp − Σn as a signed 64-bit integer. Because both halves
// are monotonically increasing uint64 sums, the difference is computed
// in int64 arithmetic wide enough to hold it for any realistic node
// count and delta magnitude used in this library's embedded targets.
func (c *PNCounter) Value() int64 {
	return int64(c.p.Value()) - int64(c.n.Value())
}

// Self returns the node id this counter was constructed with.
func (c *PNCounter) Self() clock.NodeID {
	return c.p.Self()
}

// Merge merges both halves component-wise against peer's halves.
func (c *PNCounter) Merge(peer *PNCounter) error {
	if err := c.p.Merge(peer.p); err != nil {
		return err
	}
	return c.n.Merge(peer.n)
}

// Clone returns a deep copy of c.
func (c *PNCounter) Clone() *PNCounter {
	return &PNCounter{p: c.p.Clone(), n: c.n.Clone()}
}

// Equal reports whether c and other hold bitwise-equal positive and
// negative halves.
func (c *PNCounter) Equal(other *PNCounter) bool {
	return c.p.Equal(other.p) && c.n.Equal(other.n)
}
