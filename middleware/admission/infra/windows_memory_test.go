package infra

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"admission-gateway/middleware/admission/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWindows(clk *fakeClock) *MemoryWindowSet {
	return NewMemoryWindowSet(domain.DefaultPolicy().Tiers(), WithClock(clk.Now))
}

func TestMemoryWindowSet_CapacityIsExact(t *testing.T) {
	clk := newFakeClock()
	s := newWindows(clk)

	for i := 1; i <= 50; i++ {
		res := s.CheckAndConsume("k", domain.TierBurst)
		require.True(t, res.Allowed, "request %d must be allowed", i)
	}
	res := s.CheckAndConsume("k", domain.TierBurst)
	assert.False(t, res.Allowed)
	assert.Equal(t, clk.Now().Add(time.Second), res.ResetAt)
}

func TestMemoryWindowSet_ResetsAfterWindow(t *testing.T) {
	clk := newFakeClock()
	s := newWindows(clk)

	for i := 0; i < 6; i++ {
		s.CheckAndConsume("k", domain.TierAuth)
	}
	require.False(t, s.CheckAndConsume("k", domain.TierAuth).Allowed)

	clk.Advance(time.Minute)
	res := s.CheckAndConsume("k", domain.TierAuth)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, s.Count("k", domain.TierAuth))
	assert.Equal(t, clk.Now(), res.WindowStart)
}

func TestMemoryWindowSet_ResetAtIsWindowEnd(t *testing.T) {
	clk := newFakeClock()
	s := newWindows(clk)

	start := clk.Now()
	s.CheckAndConsume("k", domain.TierSustained)
	clk.Advance(20 * time.Second)
	res := s.CheckAndConsume("k", domain.TierSustained)

	assert.True(t, res.Allowed)
	assert.Equal(t, start.Add(time.Minute), res.ResetAt)
}

func TestMemoryWindowSet_TiersAndKeysAreIndependent(t *testing.T) {
	clk := newFakeClock()
	s := newWindows(clk)

	for i := 0; i < 5; i++ {
		s.CheckAndConsume("a", domain.TierAuth)
	}
	assert.False(t, s.CheckAndConsume("a", domain.TierAuth).Allowed)
	assert.True(t, s.CheckAndConsume("a", domain.TierBurst).Allowed)
	assert.True(t, s.CheckAndConsume("b", domain.TierAuth).Allowed)
}

func TestMemoryWindowSet_UnknownTierAllows(t *testing.T) {
	s := NewMemoryWindowSet(nil)
	assert.True(t, s.CheckAndConsume("k", "nope").Allowed)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryWindowSet_RefundSameWindow(t *testing.T) {
	clk := newFakeClock()
	s := newWindows(clk)

	res := s.CheckAndConsume("k", domain.TierAuth)
	s.CheckAndConsume("k", domain.TierAuth)
	s.Refund(domain.Consumption{Key: "k", Tier: domain.TierAuth, WindowStart: res.WindowStart})

	assert.Equal(t, 1, s.Count("k", domain.TierAuth))
}

func TestMemoryWindowSet_RefundIgnoresOldWindow(t *testing.T) {
	clk := newFakeClock()
	s := newWindows(clk)

	old := s.CheckAndConsume("k", domain.TierAuth)
	clk.Advance(time.Minute)
	s.CheckAndConsume("k", domain.TierAuth)

	s.Refund(domain.Consumption{Key: "k", Tier: domain.TierAuth, WindowStart: old.WindowStart})
	assert.Equal(t, 1, s.Count("k", domain.TierAuth))
}

func TestMemoryWindowSet_ConcurrentNoLostUpdates(t *testing.T) {
	s := NewMemoryWindowSet([]domain.Tier{{Name: "t", Window: time.Hour, Max: 50}})

	var (
		wg      sync.WaitGroup
		allowed atomic.Int64
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.CheckAndConsume("same", "t").Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 50, allowed.Load())
}

func TestMemoryWindowSet_CleanupBoundsMemory(t *testing.T) {
	clk := newFakeClock()
	s := newWindows(clk)

	for _, k := range []domain.Key{"a", "b", "c"} {
		s.CheckAndConsume(k, domain.TierBurst)
		s.CheckAndConsume(k, domain.TierSustained)
	}
	require.Equal(t, 6, s.Len())

	clk.Advance(2 * time.Second)
	s.Cleanup()
	assert.Equal(t, 3, s.Len(), "only expired burst windows are removed")

	clk.Advance(time.Minute)
	Sweep(s)
	assert.Equal(t, 0, s.Len())
}
