package crdt

import (
	"sync"
	"testing"

	"github.com/numbleroot/tinycrdt/clock"
)

func TestAtomicLWWRegisterSetAndGet(t *testing.T) {
	r, err := NewAtomicLWWRegister[string](cap4(), 0)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := r.Get(); ok {
		t.Fatal("expected empty register to report ok=false")
	}

	_ = r.Set("hello", 1)

	v, ok := r.Get()
	if !ok || v != "hello" {
		t.Errorf("Get() = %q, %v, want \"hello\", true", v, ok)
	}
}

func TestAtomicLWWRegisterMergeTieBreak(t *testing.T) {
	cfg := cap4()

	a, _ := NewAtomicLWWRegister[string](cfg, 1)
	b, _ := NewAtomicLWWRegister[string](cfg, 2)

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

func TestAtomicLWWRegisterConcurrentSetsConvergeToHighestTimestamp(t *testing.T) {
	r, _ := NewAtomicLWWRegister[int](cap4(), 0)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(ts int) {
			defer wg.Done()
			_ = r.Set(ts, clock.Timestamp(ts))
		}(i)
	}
	wg.Wait()

	v, ok := r.Get()
	if !ok || v != 50 {
		t.Errorf("Get() = %v, %v, want 50, true (highest timestamp must win)", v, ok)
	}
}
