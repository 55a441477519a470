package api

import (
	"strings"

	"github.com/throttlehq/throttle/catalog"
)

// buildAliases derives the force-model alias set from the catalog itself,
// since the model catalog file schema (spec §6) has no dedicated alias
// list of its own. Three variants per model cover the "opus"-style short
// names the force-model header and inline "/opus" prefix are documented
// against: the full id, the display name with whitespace collapsed, and
// the display name's last word (e.g. "Claude 4 Opus" -> "opus"). Models
// later in registry order win on a collision.
func buildAliases(registry *catalog.Registry) map[string]string {
	aliases := make(map[string]string)
	for _, m := range registry.Hierarchy() {
		id := strings.ToLower(m.ID)
		aliases[id] = m.ID

		name := strings.ToLower(strings.Join(strings.Fields(m.DisplayName), ""))
		if name != "" {
			aliases[name] = m.ID
		}

		fields := strings.Fields(strings.ToLower(m.DisplayName))
		if len(fields) > 0 {
			aliases[fields[len(fields)-1]] = m.ID
		}
	}
	return aliases
}
