package routing

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/throttlehq/throttle/catalog"
	"github.com/throttlehq/throttle/override"
	"github.com/throttlehq/throttle/ratelimit"
	"github.com/throttlehq/throttle/session"
)

type allConfigured struct{}

func (allConfigured) IsConfigured(catalog.Provider) bool { return true }

type onlyConfigured map[catalog.Provider]bool

func (o onlyConfigured) IsConfigured(p catalog.Provider) bool { return o[p] }

func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	reg, err := catalog.NewRegistry([]catalog.ModelSpec{
		{ID: "haiku", Provider: catalog.ProviderAnthropic, InputCostPerMTok: 1, OutputCostPerMTok: 1},
		{ID: "sonnet", Provider: catalog.ProviderAnthropic, InputCostPerMTok: 5, OutputCostPerMTok: 5},
		{ID: "opus", Provider: catalog.ProviderAnthropic, InputCostPerMTok: 20, OutputCostPerMTok: 20},
	})
	require.NoError(t, err)
	return reg
}

func testTable(t *testing.T) *catalog.RoutingTable {
	t.Helper()
	body := `{
		"eco":{"simple":["haiku"],"standard":["haiku","sonnet"],"complex":["sonnet","opus"]},
		"standard":{"simple":["haiku"],"standard":["sonnet"],"complex":["opus"]},
		"gigachad":{"simple":["opus"],"standard":["opus"],"complex":["opus"]}
	}`
	f := writeTempFile(t, body)
	reg := testRegistry(t)
	table, err := catalog.LoadRoutingTable(f, reg)
	require.NoError(t, err)
	return table
}

func writeTempFile(t *testing.T, body string) string {
	t.Helper()
	f := t.TempDir() + "/routing.json"
	require.NoError(t, os.WriteFile(f, []byte(body), 0o600))
	return f
}

func newRouter(t *testing.T) *Router {
	return &Router{
		Registry:   testRegistry(t),
		Table:      testTable(t),
		Limiter:    ratelimit.NewLimiter(),
		Configured: allConfigured{},
		Sessions:   session.NewStore(time.Hour, time.Hour),
	}
}

func TestRoute_SimplePicksFirstPreference(t *testing.T) {
	r := newRouter(t)
	d, err := r.Route(Input{Tier: catalog.TierSimple, Confidence: 0.9, Mode: catalog.ModeEco})
	require.NoError(t, err)
	assert.Equal(t, "haiku", d.ModelID)
}

func TestRoute_LowConfidenceStepsUp(t *testing.T) {
	r := newRouter(t)
	d, err := r.Route(Input{Tier: catalog.TierSimple, Confidence: 0.5, Mode: catalog.ModeEco})
	require.NoError(t, err)
	// simple steps up to standard, eco/standard prefers haiku then sonnet
	assert.Equal(t, "haiku", d.ModelID)
	assert.Contains(t, d.Reasoning, "step-up=low-confidence")
}

func TestRoute_ToolCallingFloor(t *testing.T) {
	r := newRouter(t)
	d, err := r.Route(Input{
		Tier: catalog.TierSimple, Confidence: 0.95, Mode: catalog.ModeStandard,
		Override: override.Result{Kind: override.KindToolCalling},
	})
	require.NoError(t, err)
	assert.Equal(t, "sonnet", d.ModelID)
	assert.Contains(t, d.Reasoning, "tool-calling-floor")
}

func TestRoute_ForceModelOverride(t *testing.T) {
	r := newRouter(t)
	d, err := r.Route(Input{
		Tier: catalog.TierSimple, Confidence: 0.95, Mode: catalog.ModeEco,
		Override: override.Result{Kind: override.KindForceModel, ModelID: "opus"},
	})
	require.NoError(t, err)
	assert.Equal(t, "opus", d.ModelID)
}

func TestRoute_RateLimitedOverrideFallsThrough(t *testing.T) {
	r := newRouter(t)
	r.Limiter.MarkRateLimited("opus", time.Minute)
	d, err := r.Route(Input{
		Tier: catalog.TierSimple, Confidence: 0.95, Mode: catalog.ModeEco,
		Override: override.Result{Kind: override.KindForceModel, ModelID: "opus"},
	})
	require.NoError(t, err)
	assert.Equal(t, "haiku", d.ModelID)
}

func TestRoute_RateLimitedPreferenceSkipped(t *testing.T) {
	r := newRouter(t)
	r.Limiter.MarkRateLimited("haiku", time.Minute)
	d, err := r.Route(Input{Tier: catalog.TierSimple, Confidence: 0.95, Mode: catalog.ModeEco})
	require.NoError(t, err)
	assert.NotEqual(t, "haiku", d.ModelID)
}

func TestRoute_NoConfiguredProviderIsNoAvailableModel(t *testing.T) {
	r := newRouter(t)
	r.Configured = onlyConfigured{}
	_, err := r.Route(Input{Tier: catalog.TierSimple, Confidence: 0.95, Mode: catalog.ModeEco})
	assert.ErrorIs(t, err, ErrNoAvailableModel)
}

func TestRoute_SessionPinUpgrade(t *testing.T) {
	r := newRouter(t)
	_, err := r.Route(Input{Tier: catalog.TierComplex, Confidence: 0.95, Mode: catalog.ModeEco, SessionID: "s1"})
	require.NoError(t, err)

	d, err := r.Route(Input{Tier: catalog.TierSimple, Confidence: 0.95, Mode: catalog.ModeEco, SessionID: "s1"})
	require.NoError(t, err)
	assert.True(t, d.SessionPinned)
	assert.Equal(t, catalog.TierComplex, d.Tier)
}

// TestRoute_ConfidenceStepUpInvariant is spec.md §8 invariant 4: for any
// classification with confidence < 0.70 and tier < complex, the selected
// tier is at least one step above the classification's tier, absent an
// overriding force.
func TestRoute_ConfidenceStepUpInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := newRouter(t)
		tier := catalog.Tier(rapid.IntRange(0, 1).Draw(rt, "tier"))
		confidence := rapid.Float64Range(0, 0.69).Draw(rt, "confidence")

		d, err := r.Route(Input{Tier: tier, Confidence: confidence, Mode: catalog.ModeEco})
		require.NoError(t, err)
		if d.Tier <= tier {
			rt.Fatalf("expected step-up above %v, got %v", tier, d.Tier)
		}
	})
}
