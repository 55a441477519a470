package dedup

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a completed entry stays eligible for replay.
const DefaultTTL = 30 * time.Second

// CompletedEntry is the cached non-streaming response for a dedup key.
// Streaming requests never populate the cache; replaying an SSE stream
// byte-for-byte to a second caller isn't worth the buffering cost, so
// callers must skip Do entirely when the request is streaming.
type CompletedEntry struct {
	Status  int
	Headers http.Header
	Body    []byte
}

type completedRecord struct {
	entry       *CompletedEntry
	completedAt time.Time
}

func (r *completedRecord) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.completedAt) > ttl
}

// Hit classifies how a Do call obtained its result, for dedup metrics.
type Hit int

const (
	// HitNone means no other caller shared this key during the call: this
	// goroutine's produce ran, or it was the sole failed attempt.
	HitNone Hit = iota
	// HitReplay means a completed entry within ttl answered the call
	// without running produce or joining an in-flight call.
	HitReplay
	// HitInFlight means produce ran at most once but more than one caller
	// shared the key while it was running.
	HitInFlight
)

// Cache dedups concurrent callers for the same canonical key. The
// in-flight fan-out (many callers, one producer) is golang.org/x/sync's
// singleflight.Group; a TTL-bounded replay cache sits in front of it so a
// caller arriving after the in-flight call has already finished skips
// dispatch entirely instead of starting a fresh singleflight call.
type Cache struct {
	mu        sync.Mutex
	completed map[string]*completedRecord
	ttl       time.Duration
	group     singleflight.Group
}

// NewCache constructs a Cache. ttl <= 0 uses DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		completed: make(map[string]*completedRecord),
		ttl:       ttl,
	}
}

// Do runs produce at most once among callers concurrent with it for key:
// the completed-entry cache is checked first, then singleflight fans in
// any callers that arrive while produce is still running. A successful
// produce is cached for ttl so a later, non-concurrent caller replays it
// without rerunning produce.
//
// ctx cancellation only ever unblocks the calling goroutine; a cancelled
// waiter never cancels produce for whichever caller actually triggered it,
// since other callers may still want the result. If the shared produce
// fails, every caller sharing that key gets the same error and the key is
// free again immediately — there is no retry-as-new-producer loop, since
// singleflight forgets a call's key the instant it returns.
func (c *Cache) Do(ctx context.Context, key string, produce func() (*CompletedEntry, error)) (*CompletedEntry, Hit, error) {
	if entry, ok := c.lookupCompleted(key); ok {
		return entry, HitReplay, nil
	}

	resCh := c.group.DoChan(key, func() (interface{}, error) {
		entry, err := produce()
		if err != nil {
			return nil, err
		}
		c.store(key, entry)
		return entry, nil
	})

	select {
	case res := <-resCh:
		if res.Err != nil {
			return nil, HitNone, res.Err
		}
		hit := HitNone
		if res.Shared {
			hit = HitInFlight
		}
		return res.Val.(*CompletedEntry), hit, nil
	case <-ctx.Done():
		return nil, HitNone, ctx.Err()
	}
}

func (c *Cache) lookupCompleted(key string) (*CompletedEntry, bool) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.completed[key]; ok {
		if !rec.expired(now, c.ttl) {
			return rec.entry, true
		}
		delete(c.completed, key)
	}
	return nil, false
}

func (c *Cache) store(key string, entry *CompletedEntry) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed[key] = &completedRecord{entry: entry, completedAt: now}
	c.pruneLocked(now)
}

func (c *Cache) pruneLocked(now time.Time) {
	for k, rec := range c.completed {
		if rec.expired(now, c.ttl) {
			delete(c.completed, k)
		}
	}
}
