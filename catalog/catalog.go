// Package catalog loads the model catalog and routing table the proxy was
// configured with and exposes read-only lookups used by the router and the
// stats aggregator. Both structures are immutable after startup, so readers
// need no synchronization.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Provider is one of the closed set of supported LLM backends.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderOpenAI    Provider = "openai"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderXAI       Provider = "xai"
	ProviderMoonshot  Provider = "moonshot"
	ProviderMistral   Provider = "mistral"
	ProviderOllama    Provider = "ollama"
)

// ModelSpec is one catalog entry. Loaded once at startup, never mutated.
type ModelSpec struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"displayName"`
	Provider          Provider `json:"provider"`
	InputCostPerMTok  float64  `json:"inputCostPerMTok"`
	OutputCostPerMTok float64  `json:"outputCostPerMTok"`
	MaxContextTokens  int      `json:"maxContextTokens"`
}

// blendedCost is the ranking key used for the cheapest-first hierarchy: an
// even mix of input and output cost per million tokens.
func (m ModelSpec) blendedCost() float64 {
	return m.InputCostPerMTok + m.OutputCostPerMTok
}

// fileSchema mirrors the on-disk JSON shape of the catalog file.
type fileSchema struct {
	Models []ModelSpec `json:"models"`
}

// Registry is the immutable, resolved view of the model catalog: id lookups
// plus the cost-ascending hierarchy used for sub-agent step-down and the
// global cheapest-model fallback.
type Registry struct {
	byID      map[string]ModelSpec
	hierarchy []ModelSpec // cheapest first
}

// LoadRegistry reads a catalog JSON file from path and builds the Registry.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model catalog %s: %w", path, err)
	}
	var schema fileSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse model catalog %s: %w", path, err)
	}
	return NewRegistry(schema.Models)
}

// NewRegistry builds a Registry from an in-memory model list (also used
// directly by tests).
func NewRegistry(models []ModelSpec) (*Registry, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("model catalog is empty")
	}

	byID := make(map[string]ModelSpec, len(models))
	hierarchy := make([]ModelSpec, 0, len(models))
	for _, m := range models {
		if m.ID == "" {
			return nil, fmt.Errorf("model catalog entry missing id")
		}
		if _, dup := byID[m.ID]; dup {
			return nil, fmt.Errorf("model catalog has duplicate id %q", m.ID)
		}
		byID[m.ID] = m
		hierarchy = append(hierarchy, m)
	}

	sort.SliceStable(hierarchy, func(i, j int) bool {
		return hierarchy[i].blendedCost() < hierarchy[j].blendedCost()
	})

	return &Registry{byID: byID, hierarchy: hierarchy}, nil
}

// Resolve returns the ModelSpec for id, or false if it isn't in the
// catalog.
func (r *Registry) Resolve(id string) (ModelSpec, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Hierarchy returns the full model list ordered cheapest to most expensive.
// Callers must not mutate the returned slice.
func (r *Registry) Hierarchy() []ModelSpec {
	return r.hierarchy
}

// StepDown returns the model one position below id in the hierarchy (i.e.
// one step cheaper). If id is already the cheapest, or isn't found, ok is
// false and the caller should treat this as "inherit" per the sub-agent
// override rule.
func (r *Registry) StepDown(id string) (ModelSpec, bool) {
	for i, m := range r.hierarchy {
		if m.ID == id {
			if i == 0 {
				return ModelSpec{}, false
			}
			return r.hierarchy[i-1], true
		}
	}
	return ModelSpec{}, false
}

// MostExpensive returns the catalog entry with the highest blended cost,
// used as the stats aggregator's hypothetical-baseline model.
func (r *Registry) MostExpensive() ModelSpec {
	return r.hierarchy[len(r.hierarchy)-1]
}

// Cheapest returns the catalog entry with the lowest blended cost.
func (r *Registry) Cheapest() ModelSpec {
	return r.hierarchy[0]
}
