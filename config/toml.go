package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// file is the on-disk shape of a capacity profile. It mirrors the
// teacher's config.Config TOML layout (plain exported fields decoded
// directly by BurntSushi/toml) rather than the Capacity type itself, so
// the wire format can evolve independently of the in-memory struct.
type file struct {
	MaxNodes          int
	MaxElements       int
	TotalMemoryBudget int
}

// LoadCapacity reads a Capacity profile from a TOML file at path and
// validates it, the same decode-then-validate shape as the teacher's
// config.LoadConfig (decode via toml.DecodeFile, then reject
// inconsistent values before handing the result back to the caller).
//
// This is tooling, not part of the CRDT hot path: a build script or a
// small per-target binary picking the right profile for an MCU reads
// it once at startup, then passes the resulting Capacity to every CRDT
// constructor it calls.
func LoadCapacity(path string) (Capacity, error) {
	var f file

	if _, err := toml.DecodeFile(path, &f); err != nil {
		return Capacity{}, fmt.Errorf("failed to read capacity profile at %q: %w", path, err)
	}

	c := Capacity{
		MaxNodes:          f.MaxNodes,
		MaxElements:       f.MaxElements,
		TotalMemoryBudget: f.TotalMemoryBudget,
	}

	if err := c.Validate(); err != nil {
		return Capacity{}, err
	}

	return c, nil
}
