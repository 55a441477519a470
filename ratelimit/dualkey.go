package ratelimit

import (
	"sync"
	"time"
)

// KeyType distinguishes the two Anthropic credentials.
type KeyType string

const (
	KeyTypeSetupToken KeyType = "setup-token"
	KeyTypeEnterprise KeyType = "enterprise"
)

// DualKeyState tracks per-key-type cooldowns for the Anthropic family and a
// sticky preference between the two credentials.
type DualKeyState struct {
	mu               sync.Mutex
	cooldowns        map[KeyType]time.Time
	preferSetupToken bool
}

// NewDualKeyState constructs DualKeyState with the given initial
// preference; preferSetupToken mirrors the configuration field of the same
// name.
func NewDualKeyState(preferSetupToken bool) *DualKeyState {
	return &DualKeyState{
		cooldowns:        make(map[KeyType]time.Time),
		preferSetupToken: preferSetupToken,
	}
}

func (d *DualKeyState) coolingLocked(kt KeyType, now time.Time) bool {
	expiresAt, ok := d.cooldowns[kt]
	return ok && now.Before(expiresAt)
}

// Select returns (primary, fallback, hasFallback): the key type to try
// first and, if available, the one to retry with on 429/401. If the
// preferred type is cooling down, the other becomes primary with no
// fallback (there is nothing left to fail over to).
func (d *DualKeyState) Select() (primary KeyType, fallback KeyType, hasFallback bool) {
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	preferred, other := KeyTypeEnterprise, KeyTypeSetupToken
	if d.preferSetupToken {
		preferred, other = KeyTypeSetupToken, KeyTypeEnterprise
	}

	preferredCooling := d.coolingLocked(preferred, now)
	otherCooling := d.coolingLocked(other, now)

	switch {
	case !preferredCooling:
		return preferred, other, !otherCooling
	case !otherCooling:
		return other, "", false
	default:
		// Both cooling: still attempt the preferred one; the dispatcher
		// will surface whatever error the upstream returns.
		return preferred, other, false
	}
}

// MarkCooldown starts a cooldown window for kt. cooldown<=0 uses
// DefaultCooldown. Concurrent marks on the same key type are atomic.
func (d *DualKeyState) MarkCooldown(kt KeyType, cooldown time.Duration) {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cooldowns[kt] = time.Now().Add(cooldown)
}

// IsCooling reports whether kt is currently cooling down.
func (d *DualKeyState) IsCooling(kt KeyType) bool {
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.coolingLocked(kt, now)
}
