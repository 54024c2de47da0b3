package infra

import (
	"sync"
	"testing"
	"time"

	"throttling-gateway/middleware/throttle/domain"
)

func TestNewRegistry_ValidatesConfig(t *testing.T) {
	if _, err := NewRegistry(0, time.Second); err == nil {
		t.Fatalf("expected error for capacity=0")
	}
	if _, err := NewRegistry(1, 0); err == nil {
		t.Fatalf("expected error for window=0")
	}
}

func TestRegistry_ResolveSameKeyReturnsSameBucket(t *testing.T) {
	r, err := NewRegistry(10, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b1 := r.Resolve(domain.Key("k"))
	b2 := r.Resolve(domain.Key("k"))
	if b1 != b2 {
		t.Fatalf("expected same bucket pointer for same key")
	}

	other := r.Resolve(domain.Key("other"))
	if other == b1 {
		t.Fatalf("expected distinct buckets for distinct keys")
	}
}

func TestRegistry_DistinctKeysDoNotInterfere(t *testing.T) {
	clk := newFakeClock()
	r, err := NewRegistry(1, time.Minute, WithClock(clk.Now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// esgota o orçamento de k1
	if dec := r.Resolve("k1").Probe(); !dec.Allowed {
		t.Fatalf("expected first probe for k1 to be admitted")
	}
	if dec := r.Resolve("k1").Probe(); dec.Allowed {
		t.Fatalf("expected second probe for k1 to be rejected")
	}

	// k2 tem orçamento próprio
	if dec := r.Resolve("k2").Probe(); !dec.Allowed {
		t.Fatalf("expected probe for k2 to be admitted")
	}
}

func TestRegistry_ConcurrentFirstAccessCreatesOneBucket(t *testing.T) {
	clk := newFakeClock()
	r, err := NewRegistry(1, time.Minute, WithClock(clk.Now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	wg.Add(50)
	for i := 0; i < 50; i++ {
		go func() {
			defer wg.Done()
			if dec := r.Resolve("k").Probe(); dec.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// um único histórico governa todos: capacity=1 → uma admissão só
	if admitted != 1 {
		t.Fatalf("expected exactly 1 admission across concurrent first access, got %d", admitted)
	}
	if st := r.Stats(); st.Misses != 1 {
		t.Fatalf("expected exactly 1 bucket creation, got %d", st.Misses)
	}
}

func TestRegistry_SweepEvictsIdleEntries(t *testing.T) {
	clk := newFakeClock()
	window := 10 * time.Second
	grace := 2 * time.Second
	r, err := NewRegistry(1, window, WithClock(clk.Now), WithEvictionGrace(grace))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// esgota o orçamento
	if dec := r.Resolve("k").Probe(); !dec.Allowed {
		t.Fatalf("expected first probe to be admitted")
	}
	if dec := r.Resolve("k").Probe(); dec.Allowed {
		t.Fatalf("expected second probe to be rejected")
	}

	clk.Advance(window + grace + time.Second)
	r.Sweep()

	if st := r.Stats(); st.Evictions != 1 || st.Buckets != 0 {
		t.Fatalf("expected idle entry to be evicted, stats: %+v", st)
	}

	// a chave volta com orçamento cheio, sem lembrar do esgotamento antigo
	if dec := r.Resolve("k").Probe(); !dec.Allowed {
		t.Fatalf("expected fresh bucket after eviction to admit")
	}
}

func TestRegistry_SweepKeepsRecentlyUsedEntries(t *testing.T) {
	clk := newFakeClock()
	window := 10 * time.Second
	r, err := NewRegistry(1, window, WithClock(clk.Now), WithEvictionGrace(2*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := r.Resolve("k")
	clk.Advance(window) // dentro de window+grace
	r.Sweep()

	after := r.Resolve("k")
	if before != after {
		t.Fatalf("expected recently used bucket to survive the sweep")
	}
	if st := r.Stats(); st.Evictions != 0 {
		t.Fatalf("expected no evictions, got %d", st.Evictions)
	}
}

func TestRegistry_StatsCountsHitsAndMisses(t *testing.T) {
	r, err := NewRegistry(10, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.Resolve("a")
	r.Resolve("a")
	r.Resolve("b")

	st := r.Stats()
	if st.Misses != 2 {
		t.Fatalf("expected 2 misses, got %d", st.Misses)
	}
	if st.Hits != 1 {
		t.Fatalf("expected 1 hit, got %d", st.Hits)
	}
	if st.Buckets != 2 {
		t.Fatalf("expected 2 live buckets, got %d", st.Buckets)
	}
}
