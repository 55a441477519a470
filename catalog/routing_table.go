package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Mode is a user-selected routing posture.
type Mode string

const (
	ModeEco      Mode = "eco"
	ModeStandard Mode = "standard"
	ModeGigachad Mode = "gigachad"
)

// NormalizeMode canonicalizes a mode value read from configuration or a
// request. "performance" is an older synonym for "gigachad" from an earlier
// configuration vintage; both load correctly but the canonical value used
// in logs and stats is always "gigachad".
func NormalizeMode(raw string) (Mode, error) {
	switch raw {
	case string(ModeEco):
		return ModeEco, nil
	case string(ModeStandard):
		return ModeStandard, nil
	case string(ModeGigachad), "performance":
		return ModeGigachad, nil
	default:
		return "", fmt.Errorf("unknown mode %q", raw)
	}
}

// Tier is the classifier's coarse-grained complexity bucket.
type Tier int

const (
	TierSimple Tier = iota
	TierStandard
	TierComplex
)

func (t Tier) String() string {
	switch t {
	case TierSimple:
		return "simple"
	case TierStandard:
		return "standard"
	case TierComplex:
		return "complex"
	default:
		return "unknown"
	}
}

// Up returns the next tier up, clamped at complex.
func (t Tier) Up() Tier {
	if t >= TierComplex {
		return TierComplex
	}
	return t + 1
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	tier, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = tier
	return nil
}

// ParseTier parses a tier name.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "simple":
		return TierSimple, nil
	case "standard":
		return TierStandard, nil
	case "complex":
		return TierComplex, nil
	default:
		return 0, fmt.Errorf("unknown tier %q", s)
	}
}

// tierCell is the ordered preference list for one (mode, tier) cell, as it
// appears in the routing table JSON.
type tierCell struct {
	Simple   []string `json:"simple"`
	Standard []string `json:"standard"`
	Complex  []string `json:"complex"`
}

func (c tierCell) forTier(t Tier) []string {
	switch t {
	case TierSimple:
		return c.Simple
	case TierStandard:
		return c.Standard
	case TierComplex:
		return c.Complex
	default:
		return nil
	}
}

// routingTableSchema mirrors the on-disk JSON: mode -> tier -> ordered
// preference list of model ids.
type routingTableSchema struct {
	Eco         tierCell  `json:"eco"`
	Standard    tierCell  `json:"standard"`
	Gigachad    tierCell  `json:"gigachad"`
	Performance *tierCell `json:"performance,omitempty"`
}

// RoutingTable maps (mode, tier) to an ordered preference list of model
// ids. Immutable after load.
type RoutingTable struct {
	cells map[Mode]tierCell
}

// LoadRoutingTable reads a routing table JSON file and validates every
// referenced id resolves in registry; an unresolved id is a fatal startup
// error.
func LoadRoutingTable(path string, registry *Registry) (*RoutingTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing table %s: %w", path, err)
	}
	var schema routingTableSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse routing table %s: %w", path, err)
	}

	gigachad := schema.Gigachad
	if schema.Performance != nil {
		gigachad = *schema.Performance
	}

	rt := &RoutingTable{cells: map[Mode]tierCell{
		ModeEco:      schema.Eco,
		ModeStandard: schema.Standard,
		ModeGigachad: gigachad,
	}}

	if err := rt.validate(registry); err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *RoutingTable) validate(registry *Registry) error {
	for mode, cell := range rt.cells {
		for _, tier := range []Tier{TierSimple, TierStandard, TierComplex} {
			for _, id := range cell.forTier(tier) {
				if _, ok := registry.Resolve(id); !ok {
					return fmt.Errorf("routing table: mode %q tier %q references unknown model id %q", mode, tier, id)
				}
			}
		}
	}
	return nil
}

// PreferenceList returns the ordered model ids configured for (mode, tier).
func (rt *RoutingTable) PreferenceList(mode Mode, tier Tier) []string {
	return rt.cells[mode].forTier(tier)
}
