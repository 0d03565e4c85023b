package crdt

import (
	"sync"
	"testing"

	"github.com/numbleroot/tinycrdt/config"
)

func TestAtomicPNCounterIncrementDecrement(t *testing.T) {
	c, err := NewAtomicPNCounter(cap4(), 0)
	if err != nil {
		t.Fatal(err)
	}

	_ = c.Increment(10)
	_ = c.Decrement(3)

	if got := c.Value(); got != 7 {
		t.Errorf("Value() = %d, want 7", got)
	}
}

// TestAtomicPNCounterContention is the PNCounter analogue of scenario
// S6: concurrent increments and decrements against one shared instance
// must not lose an update on either half.
func TestAtomicPNCounterContention(t *testing.T) {
	const writers = 4
	const perWriter = 5_000

	c, err := NewAtomicPNCounter(config.Capacity{MaxNodes: 1, MaxElements: 64}, 0)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(writers * 2)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_ = c.Increment(1)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_ = c.Decrement(1)
			}
		}()
	}
	wg.Wait()

	if c.Value() != 0 {
		t.Fatalf("Value() = %d, want 0 (equal increments and decrements, no lost updates)", c.Value())
	}
}
