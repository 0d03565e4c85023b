package crdt

import (
	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
)

// AtomicPNCounter is the lock-free twin of PNCounter, built from two
// AtomicGCounters.
type AtomicPNCounter struct {
	p *AtomicGCounter
	n *AtomicGCounter
}

// NewAtomicPNCounter returns an empty AtomicPNCounter owned by node self.
func NewAtomicPNCounter(cap config.Capacity, self clock.NodeID) (*AtomicPNCounter, error) {
	p, err := NewAtomicGCounter(cap, self)
	if err != nil {
		return nil, err
	}
	n, err := NewAtomicGCounter(cap, self)
	if err != nil {
		return nil, err
	}
	return &AtomicPNCounter{p: p, n: n}, nil
}

// Increment routes delta to the positive half.
func (c *AtomicPNCounter) Increment(delta uint64) error {
	return c.p.Increment(delta)
}

// Decrement routes delta to the negative half.
func (c *AtomicPNCounter) Decrement(delta uint64) error {
	return c.n.Increment(delta)
}

// Value returns Σp − Σn as of the moment both halves are read. The two
// loads are not a single atomic transaction; a concurrent writer
// between them can make the result briefly inconsistent with any single
// linearization point, the same caveat sync/atomic itself carries for
// any multi-word read.
func (c *AtomicPNCounter) Value() int64 {
	return int64(c.p.Value()) - int64(c.n.Value())
}

// Self returns the node id this counter was constructed with.
func (c *AtomicPNCounter) Self() clock.NodeID {
	return c.p.Self()
}

// Merge merges both halves component-wise against peer's halves.
func (c *AtomicPNCounter) Merge(peer *AtomicPNCounter) error {
	if err := c.p.Merge(peer.p); err != nil {
		return err
	}
	return c.n.Merge(peer.n)
}

// Clone returns a snapshot copy of c.
func (c *AtomicPNCounter) Clone() *AtomicPNCounter {
	return &AtomicPNCounter{p: c.p.Clone(), n: c.n.Clone()}
}

// Equal reports whether c and other hold equal positive and negative
// halves at the moment of the read.
func (c *AtomicPNCounter) Equal(other *AtomicPNCounter) bool {
	return c.p.Equal(other.p) && c.n.Equal(other.n)
}
