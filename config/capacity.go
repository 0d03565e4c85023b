// Package config holds the compile-time capacity configuration every
// CRDT in tinycrdt is parameterised by (spec.md §3.1). Go has no const
// generics, so where the original design bakes MAX_NODES / MAX_ELEMENTS
// into the type itself, tinycrdt fixes them once at construction time
// and validates them with a runtime assertion instead — the "builder
// plus runtime capacity assertion" equivalent spec.md §9's design notes
// call out for ports without compile-time-checked array sizes.
package config

import (
	"fmt"

	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/crdterr"
)

// Capacity fixes the sizing of a family of CRDT instances: the node
// count ceiling, the per-container element ceiling, and an optional
// total memory budget those instances must fit inside. Configurations
// are not mixed: merging two CRDTs built from different Capacity values
// is undefined per spec.md §3.1. Only GCounter.Merge and
// AtomicGCounter.Merge (and so the PN counters) check anything at merge
// time: they reject a peer sized for a different MaxNodes. No other
// difference between configurations is detected.
type Capacity struct {
	// MaxNodes is N, the node count ceiling. Node ids are drawn from
	// [0, MaxNodes).
	MaxNodes int

	// MaxElements is E, the per-container element ceiling for GSet,
	// ORSet, and LWWMap.
	MaxElements int

	// TotalMemoryBudget is an optional advisory ceiling in bytes,
	// checked by Validate against EstimateMemoryUsage's conservative
	// per-element cost estimate. Zero means "unbounded" / "not tracked".
	TotalMemoryBudget int
}

// Default returns a capacity profile suitable for a typical embedded
// target: up to 16 nodes, up to 64 elements per bounded container, no
// memory budget tracked. These are the same reference figures spec.md
// §5's real-time bound section uses ("N≤16, E≤64").
func Default() Capacity {
	return Capacity{
		MaxNodes:    16,
		MaxElements: 64,
	}
}

// Validate checks internal consistency of the configuration: positive,
// representable sizes, and — if a memory budget is set — that the
// estimated footprint fits inside it. It is the Go analogue of the
// original Rust implementation's MemoryConfig::validate().
func (c Capacity) Validate() error {
	const op = "Capacity.Validate"

	if c.MaxNodes <= 0 {
		return crdterr.New(crdterr.InvalidOperation, op, fmt.Errorf("MaxNodes must be positive, got %d", c.MaxNodes))
	}

	if c.MaxNodes > int(^clock.NodeID(0))+1 {
		return crdterr.New(crdterr.InvalidOperation, op, fmt.Errorf("MaxNodes %d exceeds the representable node id width", c.MaxNodes))
	}

	if c.MaxElements <= 0 {
		return crdterr.New(crdterr.InvalidOperation, op, fmt.Errorf("MaxElements must be positive, got %d", c.MaxElements))
	}

	if c.TotalMemoryBudget > 0 {
		estimated := c.EstimateMemoryUsage()
		if estimated > c.TotalMemoryBudget {
			return crdterr.New(crdterr.CapacityExceeded, op, fmt.Errorf(
				"estimated usage %d bytes exceeds budget %d bytes", estimated, c.TotalMemoryBudget))
		}
	}

	return nil
}

// EstimateMemoryUsage returns a conservative, constant-factor estimate
// of the footprint of one instance of each of the seven CRDTs under
// this configuration, in bytes. The per-field costs below mirror the
// comments in the original Rust GCounter/LWWRegister/GSet docs (~4-8
// bytes per counter word, ~16-32 bytes per register cell, a slot per
// bounded-container element) and are meant for capacity planning, not
// for exact accounting.
func (c Capacity) EstimateMemoryUsage() int {
	const (
		counterWordBytes  = 8  // one uint64 per node
		registerCellBytes = 24 // value slot + timestamp + node id, rounded up
		mapEntryBytes     = 32 // key + value slot + timestamp + node id
	)

	gcounter := c.MaxNodes * counterWordBytes
	pncounter := 2 * gcounter
	lwwRegister := registerCellBytes
	mvRegister := c.MaxNodes * registerCellBytes
	gset := c.MaxElements * registerCellBytes
	orset := 2 * c.MaxElements * counterWordBytes
	lwwMap := c.MaxElements * mapEntryBytes

	return gcounter + pncounter + lwwRegister + mvRegister + gset + orset + lwwMap
}

// ValidateNodeID checks that node lies within [0, MaxNodes) for this
// configuration, returning a crdterr of Kind InvalidNodeID otherwise.
// Every CRDT constructor in package crdt calls this before storing a
// node id.
func (c Capacity) ValidateNodeID(op string, node clock.NodeID) error {
	if int(node) >= c.MaxNodes {
		return crdterr.New(crdterr.InvalidNodeID, op, fmt.Errorf("node id %d is not < MaxNodes (%d)", node, c.MaxNodes))
	}
	return nil
}
