package crdt

import (
	"errors"
	"testing"

	"github.com/numbleroot/tinycrdt/crdterr"
)

func TestGSetInsertAndContains(t *testing.T) {
	s, err := NewGSet[string](cap4(), 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Insert("a"); err != nil {
		t.Fatal(err)
	}
	if !s.Contains("a") {
		t.Error("expected set to contain \"a\" after Insert")
	}
	if s.Contains("b") {
		t.Error("expected set not to contain \"b\"")
	}
}

func TestGSetInsertDuplicateIsNoop(t *testing.T) {
	s, _ := NewGSet[string](cap4(), 0)
	_ = s.Insert("a")

	if err := s.Insert("a"); err != nil {
		t.Fatalf("re-inserting an existing element should be a no-op, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestGSetInsertRejectsOverCapacity(t *testing.T) {
	cfg := cap4()
	cfg.MaxElements = 2

	s, _ := NewGSet[string](cfg, 0)
	_ = s.Insert("a")
	_ = s.Insert("b")

	err := s.Insert("c")

	var ce *crdterr.Error
	if !errors.As(err, &ce) || ce.Kind != crdterr.CapacityExceeded {
		t.Fatalf("expected CapacityExceeded, got %v", err)
	}
}

func TestGSetMergeIsUnion(t *testing.T) {
	cfg := cap4()

	a, _ := NewGSet[string](cfg, 0)
	b, _ := NewGSet[string](cfg, 1)

	_ = a.Insert("x")
	_ = b.Insert("y")
	_ = b.Insert("z")

	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"x", "y", "z"} {
		if !a.Contains(want) {
			t.Errorf("expected merged set to contain %q", want)
		}
	}
	if a.Len() != 3 {
		t.Errorf("Len() = %d, want 3", a.Len())
	}
}

func TestGSetMergeLeavesReceiverUnchangedWhenOverCapacity(t *testing.T) {
	cfg := cap4()
	cfg.MaxElements = 2

	a, _ := NewGSet[string](cfg, 0)
	b, _ := NewGSet[string](cfg, 1)

	_ = a.Insert("x")
	_ = b.Insert("y")
	_ = b.Insert("z")

	err := a.Merge(b)

	var ce *crdterr.Error
	if !errors.As(err, &ce) || ce.Kind != crdterr.CapacityExceeded {
		t.Fatalf("expected CapacityExceeded, got %v", err)
	}
	if a.Len() != 1 || !a.Contains("x") {
		t.Error("merge should leave the receiver entirely unchanged on capacity failure")
	}
}

func TestGSetEqual(t *testing.T) {
	cfg := cap4()

	a, _ := NewGSet[string](cfg, 0)
	b, _ := NewGSet[string](cfg, 1)

	_ = a.Insert("x")
	_ = a.Insert("y")
	_ = b.Insert("y")
	_ = b.Insert("x")

	if !a.Equal(b) {
		t.Error("expected sets with the same elements in different insertion order to be equal")
	}
}

func TestGSetCloneIsIndependent(t *testing.T) {
	a, _ := NewGSet[string](cap4(), 0)
	_ = a.Insert("x")

	clone := a.Clone()
	_ = a.Insert("y")

	if clone.Contains("y") {
		t.Error("clone mutated alongside original")
	}
}
