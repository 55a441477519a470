package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModels() []ModelSpec {
	return []ModelSpec{
		{ID: "claude-haiku", Provider: ProviderAnthropic, InputCostPerMTok: 0.8, OutputCostPerMTok: 4},
		{ID: "claude-sonnet", Provider: ProviderAnthropic, InputCostPerMTok: 3, OutputCostPerMTok: 15},
		{ID: "claude-opus", Provider: ProviderAnthropic, InputCostPerMTok: 15, OutputCostPerMTok: 75},
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg, err := NewRegistry(testModels())
	require.NoError(t, err)

	m, ok := reg.Resolve("claude-sonnet")
	assert.True(t, ok)
	assert.Equal(t, ProviderAnthropic, m.Provider)

	_, ok = reg.Resolve("no-such-model")
	assert.False(t, ok)
}

func TestRegistry_HierarchyIsCostAscending(t *testing.T) {
	reg, err := NewRegistry(testModels())
	require.NoError(t, err)

	h := reg.Hierarchy()
	require.Len(t, h, 3)
	assert.Equal(t, "claude-haiku", h[0].ID)
	assert.Equal(t, "claude-sonnet", h[1].ID)
	assert.Equal(t, "claude-opus", h[2].ID)
	assert.Equal(t, "claude-haiku", reg.Cheapest().ID)
	assert.Equal(t, "claude-opus", reg.MostExpensive().ID)
}

func TestRegistry_StepDown(t *testing.T) {
	reg, err := NewRegistry(testModels())
	require.NoError(t, err)

	down, ok := reg.StepDown("claude-opus")
	require.True(t, ok)
	assert.Equal(t, "claude-sonnet", down.ID)

	_, ok = reg.StepDown("claude-haiku")
	assert.False(t, ok, "cheapest model has no step-down")

	_, ok = reg.StepDown("unknown")
	assert.False(t, ok)
}

func TestNewRegistry_RejectsDuplicateIDs(t *testing.T) {
	models := append(testModels(), ModelSpec{ID: "claude-haiku"})
	_, err := NewRegistry(models)
	assert.Error(t, err)
}

func TestNewRegistry_RejectsEmpty(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.Error(t, err)
}
