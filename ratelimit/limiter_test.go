package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestLimiter_MarkAndCheck(t *testing.T) {
	l := NewLimiter()
	assert.False(t, l.IsRateLimited("haiku"))
	l.MarkRateLimited("haiku", time.Minute)
	assert.True(t, l.IsRateLimited("haiku"))
}

func TestLimiter_ExpiresAndPrunes(t *testing.T) {
	l := NewLimiter()
	l.MarkRateLimited("haiku", 5*time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	assert.False(t, l.IsRateLimited("haiku"))
}

func TestLimiter_Filter(t *testing.T) {
	l := NewLimiter()
	l.MarkRateLimited("sonnet", time.Minute)
	got := l.Filter([]string{"haiku", "sonnet", "opus"})
	assert.Equal(t, []string{"haiku", "opus"}, got)
}

// TestLimiter_FilterExcludesRateLimited is spec.md §8 invariant 3: a
// rate-limited model never survives Filter.
func TestLimiter_FilterExcludesRateLimited(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ids := rapid.SliceOfDistinct(rapid.StringMatching(`[a-z]{3,8}`), func(s string) string { return s }).Draw(rt, "ids")
		if len(ids) == 0 {
			return
		}
		limited := rapid.SliceOf(rapid.SampledFrom(ids)).Draw(rt, "limited")

		l := NewLimiter()
		for _, id := range limited {
			l.MarkRateLimited(id, time.Minute)
		}

		limitedSet := make(map[string]bool, len(limited))
		for _, id := range limited {
			limitedSet[id] = true
		}

		for _, id := range l.Filter(ids) {
			if limitedSet[id] {
				rt.Fatalf("Filter returned rate-limited id %q", id)
			}
		}
	})
}

// TestLimiter_ConcurrentMarksAreAtomic is the mark-operations half of
// spec.md §8 invariant 3 / the ordering guarantee that two concurrent 429s
// result in one well-defined cooldown, not a corrupted map.
func TestLimiter_ConcurrentMarksAreAtomic(t *testing.T) {
	l := NewLimiter()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.MarkRateLimited("haiku", time.Minute)
		}()
	}
	wg.Wait()
	assert.True(t, l.IsRateLimited("haiku"))
}
