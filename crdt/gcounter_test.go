package crdt

import (
	"errors"
	"math"
	"testing"

	"github.com/numbleroot/tinycrdt/clock"
	"github.com/numbleroot/tinycrdt/config"
	"github.com/numbleroot/tinycrdt/crdterr"
)

func cap4() config.Capacity {
	return config.Capacity{MaxNodes: 4, MaxElements: 64}
}

func TestGCounterIncrementAndValue(t *testing.T) {
	c, err := NewGCounter(cap4(), 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Increment(3); err != nil {
		t.Fatal(err)
	}
	if err := c.Increment(2); err != nil {
		t.Fatal(err)
	}

	if got := c.Value(); got != 5 {
		t.Errorf("Value() = %d, want 5", got)
	}

	nv, err := c.NodeValue(1)
	if err != nil || nv != 5 {
		t.Errorf("NodeValue(1) = %d, %v, want 5, nil", nv, err)
	}
}

func TestGCounterRejectsInvalidNodeID(t *testing.T) {
	_, err := NewGCounter(cap4(), 4)

	var ce *crdterr.Error
	if !errors.As(err, &ce) || ce.Kind != crdterr.InvalidNodeID {
		t.Fatalf("expected InvalidNodeID, got %v", err)
	}
}

func TestGCounterOverflow(t *testing.T) {
	c, err := NewGCounter(cap4(), 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Increment(math.MaxUint64); err != nil {
		t.Fatal(err)
	}

	err = c.Increment(1)

	var ce *crdterr.Error
	if !errors.As(err, &ce) || ce.Kind != crdterr.Overflow {
		t.Fatalf("expected Overflow, got %v", err)
	}
}

func TestGCounterMergeTakesPerNodeMax(t *testing.T) {
	cfg := cap4()

	a, _ := NewGCounter(cfg, 0)
	b, _ := NewGCounter(cfg, 0)

	_ = a.Increment(3)
	_ = b.Increment(7)

	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}
	if a.Value() != 7 {
		t.Errorf("Value() after merge = %d, want 7", a.Value())
	}
}

func TestGCounterMergeRejectsMismatchedSize(t *testing.T) {
	a, _ := NewGCounter(config.Capacity{MaxNodes: 4, MaxElements: 64}, 0)
	b, _ := NewGCounter(config.Capacity{MaxNodes: 8, MaxElements: 64}, 0)

	err := a.Merge(b)

	var ce *crdterr.Error
	if !errors.As(err, &ce) || ce.Kind != crdterr.InvalidOperation {
		t.Fatalf("expected InvalidOperation, got %v", err)
	}
}

func TestGCounterCloneIsIndependent(t *testing.T) {
	a, _ := NewGCounter(cap4(), 1)
	_ = a.Increment(4)

	clone := a.Clone()
	_ = a.Increment(1)

	if clone.Value() != 4 {
		t.Errorf("clone mutated alongside original: clone.Value() = %d, want 4", clone.Value())
	}
	if !a.Equal(a.Clone()) {
		t.Error("a should equal a fresh clone of itself")
	}
}

// TestGCounterConvergence implements scenario S1 from spec.md §8: two
// replicas on nodes 1 and 2 of a 4-node config, A increments by 3, B
// increments by 5 then 2; after mutual merge both report value 10 with
// per-index [0,3,7,0].
func TestGCounterConvergence(t *testing.T) {
	cfg := config.Capacity{MaxNodes: 4, MaxElements: 64}

	a, err := NewGCounter(cfg, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewGCounter(cfg, 2)
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Increment(3); err != nil {
		t.Fatal(err)
	}
	if err := b.Increment(5); err != nil {
		t.Fatal(err)
	}
	if err := b.Increment(2); err != nil {
		t.Fatal(err)
	}

	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}
	if err := b.Merge(a); err != nil {
		t.Fatal(err)
	}

	if a.Value() != 10 || b.Value() != 10 {
		t.Fatalf("expected both replicas to report 10, got a=%d b=%d", a.Value(), b.Value())
	}

	want := []uint64{0, 3, 7, 0}
	for i, w := range want {
		av, err := a.NodeValue(clock.NodeID(i))
		if err != nil {
			t.Fatal(err)
		}
		if av != w {
			t.Errorf("a.NodeValue(%d) = %d, want %d", i, av, w)
		}
	}

	if !a.Equal(b) {
		t.Error("expected a and b to converge to bitwise-equal state")
	}
}
