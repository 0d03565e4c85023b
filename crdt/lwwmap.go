package crdt

import (
	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
	"github.com/numbleroot/tinycrdt/crdterr"
)

// LWWMap is a last-writer-wins map: up to MaxElements keyed slots, each
// either absent, live (key, value, timestamp, node), or a tombstone
// (key, timestamp, node) left behind by a Remove. Per key, the slot
// with the greatest (timestamp, node) pair wins, live and tombstone
// cells competing symmetrically — a late insert with a smaller
// timestamp than an existing tombstone loses, a later one resurrects
// the key (spec.md §4.7, "resurrection").
type LWWMap[K comparable, V any] struct {
	cap     config.Capacity
	self    clock.NodeID
	entries map[K]lwwMapEntry[V]
}

type lwwMapEntry[V any] struct {
	value V
	ts    clock.Timestamp
	node  clock.NodeID
	live  bool // false => tombstone; the (ts, node) pair is still kept for comparisons
}

// NewLWWMap returns an empty LWWMap owned by node self.
func NewLWWMap[K comparable, V any](cap config.Capacity, self clock.NodeID) (*LWWMap[K, V], error) {
	if err := cap.ValidateNodeID("NewLWWMap", self); err != nil {
		return nil, err
	}
	return &LWWMap[K, V]{
		cap:     cap,
		self:    self,
		entries: make(map[K]lwwMapEntry[V], cap.MaxElements),
	}, nil
}

// Insert writes (k, v) at timestamp ts iff (ts, self) strictly
// dominates the current slot's (timestamp, node) pair — this applies
// whether the current slot is live or a tombstone, so a sufficiently
// new write resurrects a removed key. It fails with
// crdterr.InvalidTimestamp if ts regresses behind a timestamp this same
// node already wrote for k, and with crdterr.CapacityExceeded if k is
// new and no empty slot remains.
func (m *LWWMap[K, V]) Insert(k K, v V, ts clock.Timestamp) error {
	const op = "LWWMap.Insert"

	existing, ok := m.entries[k]

	if ok && existing.node == m.self && ts < existing.ts {
		return crdterr.New(crdterr.InvalidTimestamp, op, nil)
	}

	if !ok && len(m.entries) >= m.cap.MaxElements {
		return crdterr.New(crdterr.CapacityExceeded, op, nil)
	}

	if ok && !clock.Dominates(ts, m.self, existing.ts, existing.node) {
		// Does not beat the current slot (live or tombstone); no-op.
		return nil
	}

	m.entries[k] = lwwMapEntry[V]{value: v, ts: ts, node: m.self, live: true}
	return nil
}

// Remove tombstones k at timestamp ts, returning the last live value
// and true if k was live immediately before the call. The tombstone
// retains (ts, self) so a late-arriving insert whose (timestamp, node)
// pair does not strictly dominate it loses, and only a dominating one
// resurrects the key; at equal timestamps the higher node id wins. It
// fails with crdterr.CapacityExceeded if k has no slot and no empty
// slot remains for its tombstone.
func (m *LWWMap[K, V]) Remove(k K, ts clock.Timestamp) (V, bool, error) {
	const op = "LWWMap.Remove"

	var zero V

	existing, ok := m.entries[k]
	if ok && existing.node == m.self && ts < existing.ts {
		return zero, false, crdterr.New(crdterr.InvalidTimestamp, op, nil)
	}

	if !ok && len(m.entries) >= m.cap.MaxElements {
		return zero, false, crdterr.New(crdterr.CapacityExceeded, op, nil)
	}

	if ok && !clock.Dominates(ts, m.self, existing.ts, existing.node) {
		// A concurrent write already beat this remove; leave it alone.
		return zero, false, nil
	}

	wasLive := ok && existing.live
	var prior V
	if wasLive {
		prior = existing.value
	}

	m.entries[k] = lwwMapEntry[V]{ts: ts, node: m.self, live: false}

	return prior, wasLive, nil
}

// Get returns the value for k and true iff the slot for k is live.
func (m *LWWMap[K, V]) Get(k K) (V, bool) {
	e, ok := m.entries[k]
	if !ok || !e.live {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Self returns the node id this map was constructed with.
func (m *LWWMap[K, V]) Self() clock.NodeID {
	return m.self
}

// Remaining reports how many of MaxElements are still free. A tombstone
// occupies a slot the same way a live entry does (spec.md §4.7);
// LWWMap never coalesces tombstones, so that slot is not reclaimed.
func (m *LWWMap[K, V]) Remaining() int {
	return m.cap.MaxElements - len(m.entries)
}

// Merge retains, per key, whichever of m's and peer's entries has the
// greater (timestamp, node) pair; live cells and tombstones compete
// under the same rule. If admitting peer's keys that do not already
// exist in m would exceed MaxElements, the receiver is left entirely
// unchanged.
func (m *LWWMap[K, V]) Merge(peer *LWWMap[K, V]) error {
	newKeys := 0
	for k := range peer.entries {
		if _, ok := m.entries[k]; !ok {
			newKeys++
		}
	}
	if len(m.entries)+newKeys > m.cap.MaxElements {
		return crdterr.New(crdterr.CapacityExceeded, "LWWMap.Merge", nil)
	}

	for k, pe := range peer.entries {
		e, ok := m.entries[k]
		if !ok || clock.Dominates(pe.ts, pe.node, e.ts, e.node) {
			m.entries[k] = pe
		}
	}

	return nil
}

// Clone returns a deep copy of m.
func (m *LWWMap[K, V]) Clone() *LWWMap[K, V] {
	entries := make(map[K]lwwMapEntry[V], len(m.entries))
	for k, e := range m.entries {
		entries[k] = e
	}
	return &LWWMap[K, V]{cap: m.cap, self: m.self, entries: entries}
}

// Equal reports whether m and other hold bitwise-equal entries (live or
// tombstone) for every key either has observed.
func (m *LWWMap[K, V]) Equal(other *LWWMap[K, V], eq func(a, b V) bool) bool {
	if len(m.entries) != len(other.entries) {
		return false
	}
	for k, e := range m.entries {
		oe, ok := other.entries[k]
		if !ok || e.ts != oe.ts || e.node != oe.node || e.live != oe.live {
			return false
		}
		if e.live && !eq(e.value, oe.value) {
			return false
		}
	}
	return true
}
