package crdt

import (
	"sync/atomic"

	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
	"github.com/numbleroot/tinycrdt/crdterr"
)

type atomicLWWMapSlot[K comparable, V any] struct {
	key   K
	entry lwwMapEntry[V]
}

// AtomicLWWMap is the lock-free twin of LWWMap. It backs the up-to-E
// keyed slots with a fixed array of atomic.Pointer cells rather than a
// map; each slot is replaced as a whole immutable (key, entry) unit by
// compare-and-swap, so a concurrent Get never observes a torn mix of a
// slot's key and value.
type AtomicLWWMap[K comparable, V any] struct {
	cap   config.Capacity
	self  clock.NodeID
	slots []atomic.Pointer[atomicLWWMapSlot[K, V]]
}

// NewAtomicLWWMap returns an empty AtomicLWWMap owned by node self.
func NewAtomicLWWMap[K comparable, V any](cap config.Capacity, self clock.NodeID) (*AtomicLWWMap[K, V], error) {
	if err := cap.ValidateNodeID("NewAtomicLWWMap", self); err != nil {
		return nil, err
	}
	return &AtomicLWWMap[K, V]{cap: cap, self: self, slots: make([]atomic.Pointer[atomicLWWMapSlot[K, V]], cap.MaxElements)}, nil
}

func (m *AtomicLWWMap[K, V]) findSlot(k K) (int, *atomicLWWMapSlot[K, V]) {
	for i := range m.slots {
		if s := m.slots[i].Load(); s != nil && s.key == k {
			return i, s
		}
	}
	return -1, nil
}

// Insert writes (k, v) at timestamp ts iff (ts, self) strictly
// dominates the existing slot's (timestamp, node) pair, retrying the
// compare-and-swap against concurrent writers. It fails with
// crdterr.InvalidTimestamp on a same-node regression, and with
// crdterr.CapacityExceeded if k is new and no empty slot is free.
func (m *AtomicLWWMap[K, V]) Insert(k K, v V, ts clock.Timestamp) error {
	const op = "AtomicLWWMap.Insert"

	for {
		idx, existing := m.findSlot(k)

		if existing != nil && existing.entry.node == m.self && ts < existing.entry.ts {
			return crdterr.New(crdterr.InvalidTimestamp, op, nil)
		}
		if existing != nil && !clock.Dominates(ts, m.self, existing.entry.ts, existing.entry.node) {
			return nil
		}

		next := &atomicLWWMapSlot[K, V]{key: k, entry: lwwMapEntry[V]{value: v, ts: ts, node: m.self, live: true}}

		if existing != nil {
			if m.slots[idx].CompareAndSwap(existing, next) {
				return nil
			}
			continue
		}

		claimed := false
		for i := range m.slots {
			if m.slots[i].CompareAndSwap(nil, next) {
				claimed = true
				break
			}
		}
		if claimed {
			return nil
		}

		// No empty slot was free; check once more whether a concurrent
		// writer raced in the same key before reporting capacity failure.
		if idx2, existing2 := m.findSlot(k); idx2 != -1 {
			if !clock.Dominates(ts, m.self, existing2.entry.ts, existing2.entry.node) {
				return nil
			}
			continue
		}

		return crdterr.New(crdterr.CapacityExceeded, op, nil)
	}
}

// Remove tombstones k at timestamp ts, returning the last live value
// and true if k was live immediately before the call. If k has no slot
// yet, Remove does nothing: it records no tombstone and returns the
// zero value, false, and a nil error.
func (m *AtomicLWWMap[K, V]) Remove(k K, ts clock.Timestamp) (V, bool, error) {
	const op = "AtomicLWWMap.Remove"

	var zero V

	for {
		idx, existing := m.findSlot(k)
		if existing == nil {
			return zero, false, nil
		}

		if existing.entry.node == m.self && ts < existing.entry.ts {
			return zero, false, crdterr.New(crdterr.InvalidTimestamp, op, nil)
		}
		if !clock.Dominates(ts, m.self, existing.entry.ts, existing.entry.node) {
			return zero, false, nil
		}

		wasLive := existing.entry.live
		prior := existing.entry.value

		next := &atomicLWWMapSlot[K, V]{key: k, entry: lwwMapEntry[V]{ts: ts, node: m.self, live: false}}
		if m.slots[idx].CompareAndSwap(existing, next) {
			return prior, wasLive, nil
		}
	}
}

// Get returns the value for k and true iff the slot for k is live.
func (m *AtomicLWWMap[K, V]) Get(k K) (V, bool) {
	_, s := m.findSlot(k)
	if s == nil || !s.entry.live {
		var zero V
		return zero, false
	}
	return s.entry.value, true
}

// Self returns the node id this map was constructed with.
func (m *AtomicLWWMap[K, V]) Self() clock.NodeID {
	return m.self
}

// Remaining reports how many slots are still free.
func (m *AtomicLWWMap[K, V]) Remaining() int {
	free := 0
	for i := range m.slots {
		if m.slots[i].Load() == nil {
			free++
		}
	}
	return free
}

// Merge retains, per key, whichever of m's and peer's entries has the
// greater (timestamp, node) pair. As with AtomicGSet.Merge, a capacity
// failure partway through leaves whatever was already applied in place
// and reports crdterr.CapacityExceeded for the caller to detect
// incomplete convergence.
func (m *AtomicLWWMap[K, V]) Merge(peer *AtomicLWWMap[K, V]) error {
	var failed bool

	for i := range peer.slots {
		ps := peer.slots[i].Load()
		if ps == nil {
			continue
		}

		for {
			idx, existing := m.findSlot(ps.key)
			if existing != nil && !clock.Dominates(ps.entry.ts, ps.entry.node, existing.entry.ts, existing.entry.node) {
				break
			}

			next := &atomicLWWMapSlot[K, V]{key: ps.key, entry: ps.entry}

			if existing != nil {
				if m.slots[idx].CompareAndSwap(existing, next) {
					break
				}
				continue
			}

			claimed := false
			for j := range m.slots {
				if m.slots[j].CompareAndSwap(nil, next) {
					claimed = true
					break
				}
			}
			if !claimed {
				failed = true
			}
			break
		}
	}

	if failed {
		return crdterr.New(crdterr.CapacityExceeded, "AtomicLWWMap.Merge", nil)
	}
	return nil
}

// Clone returns a snapshot copy of m.
func (m *AtomicLWWMap[K, V]) Clone() *AtomicLWWMap[K, V] {
	out := &AtomicLWWMap[K, V]{cap: m.cap, self: m.self, slots: make([]atomic.Pointer[atomicLWWMapSlot[K, V]], len(m.slots))}
	for i := range m.slots {
		out.slots[i].Store(m.slots[i].Load())
	}
	return out
}

// Equal reports whether m and other hold equal entries for every key
// either has observed.
func (m *AtomicLWWMap[K, V]) Equal(other *AtomicLWWMap[K, V], eq func(a, b V) bool) bool {
	match := func(a, b *AtomicLWWMap[K, V]) bool {
		for i := range a.slots {
			as := a.slots[i].Load()
			if as == nil {
				continue
			}
			_, bs := b.findSlot(as.key)
			if bs == nil || as.entry.ts != bs.entry.ts || as.entry.node != bs.entry.node || as.entry.live != bs.entry.live {
				return false
			}
			if as.entry.live && !eq(as.entry.value, bs.entry.value) {
				return false
			}
		}
		return true
	}
	return match(m, other) && match(other, m)
}
