// Package routing selects the upstream model for a classified, overridden
// request: first by preference-list walk, then by session pin substitution.
package routing

import (
	"errors"
	"fmt"
	"time"

	"github.com/throttlehq/throttle/catalog"
	"github.com/throttlehq/throttle/override"
	"github.com/throttlehq/throttle/ratelimit"
	"github.com/throttlehq/throttle/session"
)

// ErrNoAvailableModel is returned when neither the preference list nor the
// global-cheapest fallback yields a usable model.
var ErrNoAvailableModel = errors.New("no_available_model")

// ConfidenceStepUpThreshold is the confidence below which a sub-complex
// tier is bumped one step up.
const ConfidenceStepUpThreshold = 0.70

// RecentFailureWindow bounds how long a session's last dispatch failure
// keeps forcing a one-step tier bump on its next request.
const RecentFailureWindow = 5 * time.Minute

// Decision is the router's output: the chosen model plus enough context to
// render a human-readable reasoning string for logs and response headers.
type Decision struct {
	ModelID       string
	Tier          catalog.Tier
	Mode          catalog.Mode
	Override      override.Kind
	Reasoning     string
	SessionPinned bool
}

// ProviderConfig reports whether a provider has credentials configured.
type ProviderConfig interface {
	IsConfigured(provider catalog.Provider) bool
}

// Input bundles everything Route needs for one request.
type Input struct {
	Score      float64
	Tier       catalog.Tier
	Confidence float64
	Mode       catalog.Mode
	Override   override.Result
	SessionID  string
}

// Router ties the model catalog, routing table, rate limiter, provider
// configuration and session store together into the §4.4 algorithm.
type Router struct {
	Registry   *catalog.Registry
	Table      *catalog.RoutingTable
	Limiter    *ratelimit.Limiter
	Configured ProviderConfig
	Sessions   *session.Store
}

// Route implements the five-step algorithm: override resolution, effective
// tier computation (tool-calling floor, confidence step-up, one-shot
// failure bump), preference-list walk, global-cheapest fallback, and
// finally session-pin substitution.
func (r *Router) Route(in Input) (Decision, error) {
	if in.SessionID != "" && r.Sessions != nil && r.Sessions.HasRecentFailure(in.SessionID, RecentFailureWindow) {
		in.Tier = in.Tier.Up()
	}

	if modelID, ok := r.resolveOverrideModel(in.Override); ok {
		d := Decision{
			ModelID:   modelID,
			Tier:      in.Tier,
			Mode:      in.Mode,
			Override:  in.Override.Kind,
			Reasoning: fmt.Sprintf("override=%s model=%s mode=%s", in.Override.Kind, modelID, in.Mode),
		}
		return r.applySessionPin(in.SessionID, d), nil
	}

	effectiveTier, stepUpReason := r.effectiveTier(in)

	modelID, ok := r.walkPreferenceList(in.Mode, effectiveTier)
	reasoning := fmt.Sprintf("mode=%s tier=%s score=%.3f%s", in.Mode, effectiveTier, in.Score, stepUpReason)
	if !ok {
		cheapest, ok := r.cheapestAvailable()
		if !ok {
			return Decision{}, ErrNoAvailableModel
		}
		modelID = cheapest
		reasoning += " fallback=global-cheapest"
	}

	d := Decision{
		ModelID:   modelID,
		Tier:      effectiveTier,
		Mode:      in.Mode,
		Override:  in.Override.Kind,
		Reasoning: reasoning,
	}
	return r.applySessionPin(in.SessionID, d), nil
}

// resolveOverrideModel returns the model an override directly names,
// provided it exists and isn't currently rate-limited. A rate-limited
// override target is treated as though there were no override on that
// model, though the caller still logs the override kind.
func (r *Router) resolveOverrideModel(ov override.Result) (string, bool) {
	switch ov.Kind {
	case override.KindHeartbeat:
		cheapest, ok := r.cheapestAvailable()
		return cheapest, ok
	case override.KindForceModel, override.KindSubAgentInherit, override.KindSubAgentStepdown:
		if ov.ModelID == "" {
			return "", false
		}
		if _, ok := r.Registry.Resolve(ov.ModelID); !ok {
			return "", false
		}
		if r.Limiter != nil && r.Limiter.IsRateLimited(ov.ModelID) {
			return "", false
		}
		return ov.ModelID, true
	default:
		return "", false
	}
}

func (r *Router) effectiveTier(in Input) (catalog.Tier, string) {
	tier := in.Tier
	var reason string

	if in.Override.Kind == override.KindToolCalling && tier < catalog.TierStandard {
		tier = catalog.TierStandard
		reason = " step-up=tool-calling-floor"
	}
	if in.Confidence < ConfidenceStepUpThreshold && tier < catalog.TierComplex {
		tier = tier.Up()
		reason += fmt.Sprintf(" step-up=low-confidence(%.3f)", in.Confidence)
	}
	return tier, reason
}

func (r *Router) walkPreferenceList(mode catalog.Mode, tier catalog.Tier) (string, bool) {
	for _, id := range r.Table.PreferenceList(mode, tier) {
		spec, ok := r.Registry.Resolve(id)
		if !ok {
			continue
		}
		if r.Configured != nil && !r.Configured.IsConfigured(spec.Provider) {
			continue
		}
		if r.Limiter != nil && r.Limiter.IsRateLimited(id) {
			continue
		}
		return id, true
	}
	return "", false
}

func (r *Router) cheapestAvailable() (string, bool) {
	for _, spec := range r.Registry.Hierarchy() {
		if r.Configured != nil && !r.Configured.IsConfigured(spec.Provider) {
			continue
		}
		if r.Limiter != nil && r.Limiter.IsRateLimited(spec.ID) {
			continue
		}
		return spec.ID, true
	}
	return "", false
}

// applySessionPin substitutes the session's pin when it dominates the
// freshly computed decision, and upgrades the pin when the decision
// dominates it. A no-op when sessionID is empty or no session store is
// configured.
func (r *Router) applySessionPin(sessionID string, d Decision) Decision {
	if sessionID == "" || r.Sessions == nil {
		return d
	}
	effModel, effTier := r.Sessions.Set(sessionID, d.ModelID, d.Tier)
	if effModel != d.ModelID {
		d.ModelID = effModel
		d.Tier = effTier
		d.SessionPinned = true
		d.Reasoning += fmt.Sprintf(" session-pinned from %s", sessionID)
	}
	return d
}
