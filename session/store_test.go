package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/throttlehq/throttle/catalog"
)

func TestStore_SetCreatesPin(t *testing.T) {
	s := NewStore(time.Minute, time.Hour)
	defer s.Close()

	modelID, tier := s.Set("sess-1", "haiku", catalog.TierSimple)
	assert.Equal(t, "haiku", modelID)
	assert.Equal(t, catalog.TierSimple, tier)
}

func TestStore_UpgradeOnly(t *testing.T) {
	s := NewStore(time.Minute, time.Hour)
	defer s.Close()

	s.Set("sess-1", "haiku", catalog.TierSimple)
	modelID, tier := s.Set("sess-1", "opus", catalog.TierComplex)
	assert.Equal(t, "opus", modelID)
	assert.Equal(t, catalog.TierComplex, tier)

	// A subsequent simple classification must not downgrade the pin.
	modelID, tier = s.Set("sess-1", "haiku", catalog.TierSimple)
	assert.Equal(t, "opus", modelID)
	assert.Equal(t, catalog.TierComplex, tier)
}

func TestStore_GetLazyExpiry(t *testing.T) {
	s := NewStore(10*time.Millisecond, time.Hour)
	defer s.Close()

	s.Set("sess-1", "haiku", catalog.TierSimple)
	time.Sleep(20 * time.Millisecond)

	_, _, ok := s.Get("sess-1")
	assert.False(t, ok)
}

func TestStore_HasRecentFailureIsOneShot(t *testing.T) {
	s := NewStore(time.Minute, time.Hour)
	defer s.Close()

	s.Set("sess-1", "haiku", catalog.TierSimple)
	s.MarkFailed("sess-1")

	require.True(t, s.HasRecentFailure("sess-1", time.Minute))
	assert.False(t, s.HasRecentFailure("sess-1", time.Minute), "flag must clear after first read")
}

func TestStore_HasRecentFailureOutsideWindow(t *testing.T) {
	s := NewStore(time.Minute, time.Hour)
	defer s.Close()

	s.Set("sess-1", "haiku", catalog.TierSimple)
	s.MarkFailed("sess-1")
	time.Sleep(5 * time.Millisecond)

	assert.False(t, s.HasRecentFailure("sess-1", time.Millisecond))
}

// TestPinMonotonicity is spec.md §8 invariant 1: for any sequence of set()
// calls, the observed pinned tier is non-decreasing.
func TestPinMonotonicity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := NewStore(time.Hour, time.Hour)
		defer s.Close()

		tiers := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 20).Draw(rt, "tiers")
		highest := catalog.Tier(-1)
		for i, ti := range tiers {
			tier := catalog.Tier(ti)
			_, eff := s.Set("sess", "model", tier)
			if tier > highest {
				highest = tier
			}
			if eff != highest {
				rt.Fatalf("step %d: effective tier %v != expected max %v", i, eff, highest)
			}
		}
	})
}
