// Package session implements the per-session model pin: a thread-safe map
// that upgrades but never downgrades a session's tier, with idle eviction.
// The cleanup loop follows the same ticker+stopCh shape used elsewhere in
// this codebase for background pruning that must not block process exit.
package session

import (
	"sync"
	"time"

	"github.com/throttlehq/throttle/catalog"
)

// DefaultIdleTimeout is how long a pin survives without activity.
const DefaultIdleTimeout = 30 * time.Minute

// DefaultCleanupInterval is how often the background sweep runs.
const DefaultCleanupInterval = 5 * time.Minute

type entry struct {
	modelID      string
	tier         catalog.Tier
	lastUsedAt   time.Time
	lastFailedAt time.Time
}

func (e *entry) expired(idleTimeout time.Duration, now time.Time) bool {
	return now.Sub(e.lastUsedAt) > idleTimeout
}

// Store is the process-lifetime session pin map. The zero value is not
// usable; construct with NewStore.
type Store struct {
	mu              sync.Mutex
	entries         map[string]*entry
	idleTimeout     time.Duration
	cleanupInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// NewStore builds a Store and starts its background idle-eviction loop.
// Call Close to stop the loop during graceful shutdown.
func NewStore(idleTimeout, cleanupInterval time.Duration) *Store {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	s := &Store{
		entries:         make(map[string]*entry),
		idleTimeout:     idleTimeout,
		cleanupInterval: cleanupInterval,
		stopCh:          make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

func (s *Store) cleanupLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) cleanup() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.expired(s.idleTimeout, now) {
			delete(s.entries, id)
		}
	}
}

// Close stops the cleanup loop. Safe to call even if no entries exist;
// does not block process shutdown longer than one tick.
func (s *Store) Close() {
	close(s.stopCh)
	s.wg.Wait()
}

// Get returns the pinned (modelID, tier) for id, with lazy expiry: an
// idle-expired entry is evicted on read and reported absent.
func (s *Store) Get(id string) (modelID string, tier catalog.Tier, ok bool) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, found := s.entries[id]
	if !found {
		return "", 0, false
	}
	if e.expired(s.idleTimeout, now) {
		delete(s.entries, id)
		return "", 0, false
	}
	return e.modelID, e.tier, true
}

// Set creates a pin if absent. If a pin already exists, the tiers are
// compared using simple < standard < complex: a strictly greater tier
// replaces the pin, an equal-or-lesser tier keeps the existing pin. Either
// way lastUsedAt is refreshed and the call returns the pin's effective
// (modelID, tier) afterward.
func (s *Store) Set(id, modelID string, tier catalog.Tier) (effModelID string, effTier catalog.Tier) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.entries[id]
	if !found || e.expired(s.idleTimeout, now) {
		e = &entry{modelID: modelID, tier: tier, lastUsedAt: now}
		s.entries[id] = e
		return e.modelID, e.tier
	}

	if tier > e.tier {
		e.modelID = modelID
		e.tier = tier
	}
	e.lastUsedAt = now
	return e.modelID, e.tier
}

// MarkFailed records that a request for id just failed, scheduling a
// one-shot tier escalation the next time HasRecentFailure is checked.
func (s *Store) MarkFailed(id string) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, found := s.entries[id]
	if !found {
		return
	}
	e.lastFailedAt = now
}

// HasRecentFailure reports whether id failed within window and, if so,
// clears the flag (one-shot semantics): a second call immediately after
// returns false even though the original failure time hasn't changed.
func (s *Store) HasRecentFailure(id string, window time.Duration) bool {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, found := s.entries[id]
	if !found || e.lastFailedAt.IsZero() {
		return false
	}
	recent := now.Sub(e.lastFailedAt) <= window
	e.lastFailedAt = time.Time{}
	return recent
}
