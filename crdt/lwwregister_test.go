package crdt

import (
	"errors"
	"testing"

	"github.com/numbleroot/tinycrdt/crdterr"
)

func strEq(a, b string) bool { return a == b }

func TestLWWRegisterSetAndGet(t *testing.T) {
	r, err := NewLWWRegister[string](cap4(), 0)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := r.Get(); ok {
		t.Fatal("expected empty register to report ok=false")
	}

	if err := r.Set("hello", 1); err != nil {
		t.Fatal(err)
	}

	v, ok := r.Get()
	if !ok || v != "hello" {
		t.Errorf("Get() = %q, %v, want \"hello\", true", v, ok)
	}
}

func TestLWWRegisterRejectsLocalRegression(t *testing.T) {
	r, _ := NewLWWRegister[string](cap4(), 0)
	_ = r.Set("first", 5)

	err := r.Set("second", 3)

	var ce *crdterr.Error
	if !errors.As(err, &ce) || ce.Kind != crdterr.InvalidTimestamp {
		t.Fatalf("expected InvalidTimestamp, got %v", err)
	}

	v, _ := r.Get()
	if v != "first" {
		t.Errorf("regression should not have overwritten the cell, got %q", v)
	}
}

func TestLWWRegisterIdenticalReplayIsNoop(t *testing.T) {
	r, _ := NewLWWRegister[string](cap4(), 0)
	_ = r.Set("first", 5)

	if err := r.Set("first", 5); err != nil {
		t.Fatalf("replaying the identical write should be a no-op, got error %v", err)
	}

	v, _ := r.Get()
	if v != "first" {
		t.Errorf("Get() = %q, want \"first\"", v)
	}
}

// TestLWWRegisterMergeTieBreak implements scenario S2 from spec.md §8:
// two replicas set the same timestamp from different nodes; the higher
// node id wins the tie under the mandated lexicographic order.
func TestLWWRegisterMergeTieBreak(t *testing.T) {
	cfg := cap4()

	a, _ := NewLWWRegister[string](cfg, 1)
	b, _ := NewLWWRegister[string](cfg, 2)

	_ = a.Set("from-a", 5)
	_ = b.Set("from-b", 5)

	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}

	v, ok := a.Get()
	if !ok || v != "from-b" {
		t.Errorf("expected higher node id (2) to win the timestamp tie, got %q", v)
	}
}

func TestLWWRegisterMergePrefersLaterTimestamp(t *testing.T) {
	cfg := cap4()

	a, _ := NewLWWRegister[string](cfg, 1)
	b, _ := NewLWWRegister[string](cfg, 2)

	_ = a.Set("newer", 10)
	_ = b.Set("older", 3)

	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}

	v, _ := a.Get()
	if v != "newer" {
		t.Errorf("Get() = %q, want \"newer\"", v)
	}
}

func TestLWWRegisterMergeConvergesBothDirections(t *testing.T) {
	cfg := cap4()

	a, _ := NewLWWRegister[string](cfg, 1)
	b, _ := NewLWWRegister[string](cfg, 2)

	_ = a.Set("from-a", 5)
	_ = b.Set("from-b", 5)

	_ = a.Merge(b)
	_ = b.Merge(a)

	if !a.Equal(b, strEq) {
		t.Error("expected both replicas to converge to bitwise-equal state")
	}
}

func TestLWWRegisterCloneIsIndependent(t *testing.T) {
	a, _ := NewLWWRegister[string](cap4(), 0)
	_ = a.Set("v1", 1)

	clone := a.Clone()
	_ = a.Set("v2", 2)

	cv, _ := clone.Get()
	if cv != "v1" {
		t.Errorf("clone mutated alongside original: Get() = %q, want \"v1\"", cv)
	}
}
