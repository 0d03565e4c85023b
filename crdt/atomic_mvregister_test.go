package crdt

import (
	"fmt"
	"sync"
	"testing"

	"github.com/numbleroot/tinycrdt/clock"
)

func TestAtomicMVRegisterConcurrentWritesStayConcurrent(t *testing.T) {
	cfg := cap4()

	a, _ := NewAtomicMVRegister[string](cfg, 1)
	b, _ := NewAtomicMVRegister[string](cfg, 2)

	_ = a.Set("x", 5)
	_ = b.Set("y", 5)

	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}

	got := sortedStrings(a.Values())
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Fatalf("Values() = %v, want [x y]", got)
	}
}

func TestAtomicMVRegisterDominatingWriteRetiresBoth(t *testing.T) {
	cfg := cap4()

	a, _ := NewAtomicMVRegister[string](cfg, 1)
	b, _ := NewAtomicMVRegister[string](cfg, 2)
	c, _ := NewAtomicMVRegister[string](cfg, 3)

	_ = a.Set("x", 5)
	_ = b.Set("y", 5)
	_ = c.Set("z", 6)

	_ = a.Merge(b)
	_ = a.Merge(c)

	vs := a.Values()
	if len(vs) != 1 || vs[0] != "z" {
		t.Fatalf("Values() = %v, want [z]", vs)
	}
}

// TestAtomicMVRegisterContention is the MVRegister analogue of scenario
// S6: one node slot per peer is written, with a strictly increasing
// timestamp, by its own goroutine, which immediately fans that write
// into a single shared hub register via concurrent Merge calls from
// every peer goroutine at once — exercising Merge's per-index
// compare-and-swap loop and pruneDominated's best-effort retirement
// pass under real contention, not sequentially. Every peer's final
// write strictly dominates every earlier one it raced against except
// the globally latest, so after all goroutines finish the hub must
// hold exactly that one value.
func TestAtomicMVRegisterContention(t *testing.T) {
	cfg := cap4()
	const rounds = 50

	hub, err := NewAtomicMVRegister[string](cfg, 0)
	if err != nil {
		t.Fatal(err)
	}

	peers := make([]*AtomicMVRegister[string], cfg.MaxNodes)
	for p := 0; p < cfg.MaxNodes; p++ {
		peers[p], _ = NewAtomicMVRegister[string](cfg, clock.NodeID(p))
	}

	var wg sync.WaitGroup
	wg.Add(cfg.MaxNodes)
	for p := 0; p < cfg.MaxNodes; p++ {
		go func(p int) {
			defer wg.Done()
			peer := peers[p]
			for k := 1; k <= rounds; k++ {
				ts := clock.Timestamp(k*cfg.MaxNodes + p)
				if err := peer.Set(fmt.Sprintf("p%d-%d", p, k), ts); err != nil {
					t.Errorf("peer %d Set failed: %v", p, err)
					return
				}
				if err := hub.Merge(peer); err != nil {
					t.Errorf("hub.Merge(peer %d) failed: %v", p, err)
					return
				}
			}
		}(p)
	}
	wg.Wait()

	if got := len(hub.Values()); got > cfg.MaxNodes {
		t.Fatalf("Values() holds %d entries, more than MaxNodes (%d)", got, cfg.MaxNodes)
	}

	want := fmt.Sprintf("p%d-%d", cfg.MaxNodes-1, rounds)
	vs := hub.Values()
	if len(vs) != 1 || vs[0] != want {
		t.Fatalf("Values() = %v, want [%s] (the globally latest write must dominate every other)", vs, want)
	}
}
