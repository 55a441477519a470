package dedup

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_ProducerThenReplay(t *testing.T) {
	c := NewCache(time.Minute)

	want := &CompletedEntry{Status: 200, Body: []byte("hello")}
	entry, hit, err := c.Do(context.Background(), "k1", func() (*CompletedEntry, error) {
		return want, nil
	})
	require.NoError(t, err)
	assert.Equal(t, HitNone, hit)
	assert.Equal(t, want, entry)

	got, hit2, err := c.Do(context.Background(), "k1", func() (*CompletedEntry, error) {
		t.Fatal("produce must not run again within ttl")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, HitReplay, hit2)
	assert.Equal(t, want, got)
}

func TestCache_WaiterJoinsInFlight(t *testing.T) {
	c := NewCache(time.Minute)

	release := make(chan struct{})
	started := make(chan struct{})
	want := &CompletedEntry{Status: 200, Body: []byte("ok")}

	var wg sync.WaitGroup
	var producerHit, waiterHit Hit
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, hit, err := c.Do(context.Background(), "k1", func() (*CompletedEntry, error) {
			close(started)
			<-release
			return want, nil
		})
		require.NoError(t, err)
		producerHit = hit
	}()

	<-started
	go func() {
		defer wg.Done()
		got, hit, err := c.Do(context.Background(), "k1", func() (*CompletedEntry, error) {
			t.Error("waiter must not run its own produce")
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, want, got)
		waiterHit = hit
	}()

	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, HitInFlight, producerHit)
	assert.Equal(t, HitInFlight, waiterHit)
}

func TestCache_SharedFailureFreesKeyImmediately(t *testing.T) {
	c := NewCache(time.Minute)

	_, _, err := c.Do(context.Background(), "k1", func() (*CompletedEntry, error) {
		return nil, assert.AnError
	})
	assert.Equal(t, assert.AnError, err)

	// The next call for the same key is a fresh attempt, not a replay of
	// the failed one.
	want := &CompletedEntry{Status: 200}
	entry, hit, err := c.Do(context.Background(), "k1", func() (*CompletedEntry, error) {
		return want, nil
	})
	require.NoError(t, err)
	assert.Equal(t, HitNone, hit)
	assert.Equal(t, want, entry)
}

func TestCache_EntryExpiresAfterTTL(t *testing.T) {
	c := NewCache(10 * time.Millisecond)

	_, _, err := c.Do(context.Background(), "k1", func() (*CompletedEntry, error) {
		return &CompletedEntry{Status: 200}, nil
	})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	var produced int32
	_, hit, err := c.Do(context.Background(), "k1", func() (*CompletedEntry, error) {
		atomic.AddInt32(&produced, 1)
		return &CompletedEntry{Status: 200}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, HitNone, hit)
	assert.EqualValues(t, 1, produced)
}

func TestCache_CtxCancelUnblocksWaiterOnly(t *testing.T) {
	c := NewCache(time.Minute)

	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		c.Do(context.Background(), "k1", func() (*CompletedEntry, error) {
			close(started)
			<-release
			return &CompletedEntry{Status: 200}, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := c.Do(ctx, "k1", func() (*CompletedEntry, error) {
		t.Error("waiter must not run its own produce")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	close(release)
}

// TestCache_ConcurrentDoHasExactlyOneProduce is spec.md §8 invariant 2: for
// N concurrent callers with the same key, produce runs exactly once and
// every caller observes byte-identical bytes.
func TestCache_ConcurrentDoHasExactlyOneProduce(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("exactly one produce, all callers see the same response", prop.ForAll(
		func(n int) bool {
			c := NewCache(time.Minute)
			var produceCount int32
			var wg sync.WaitGroup
			results := make([]*CompletedEntry, n)
			errs := make([]error, n)

			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(idx int) {
					defer wg.Done()
					entry, _, err := c.Do(context.Background(), "shared-key", func() (*CompletedEntry, error) {
						atomic.AddInt32(&produceCount, 1)
						time.Sleep(time.Millisecond)
						return &CompletedEntry{Status: 200, Body: []byte("the-one-response")}, nil
					})
					results[idx] = entry
					errs[idx] = err
				}(i)
			}
			wg.Wait()

			if produceCount != 1 {
				return false
			}
			for i, r := range results {
				if errs[i] != nil || r == nil || string(r.Body) != "the-one-response" {
					return false
				}
			}
			return true
		},
		gen.IntRange(2, 25),
	))

	properties.TestingRun(t)
}

func TestCompletedEntry_HeadersPreserved(t *testing.T) {
	c := NewCache(time.Minute)
	h := http.Header{"X-Throttle-Model": []string{"haiku"}}
	_, _, err := c.Do(context.Background(), "k1", func() (*CompletedEntry, error) {
		return &CompletedEntry{Status: 200, Headers: h}, nil
	})
	require.NoError(t, err)

	entry, hit, err := c.Do(context.Background(), "k1", func() (*CompletedEntry, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, HitReplay, hit)
	assert.Equal(t, "haiku", entry.Headers.Get("X-Throttle-Model"))
}
