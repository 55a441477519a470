package config

import (
	"fmt"
	"strings"

	"github.com/throttlehq/throttle/catalog"
)

// Validate fails fast on a structurally broken configuration, before the
// server binds a port or any provider adapter is constructed. It does not
// re-check that routing-table model ids resolve in the catalog: that
// invariant is already enforced by catalog.LoadRoutingTable itself, called
// from the same startup sequence as Load.
func (c *Config) Validate() error {
	var errs []string

	if _, err := catalog.NormalizeMode(c.Mode); err != nil {
		errs = append(errs, err.Error())
	}
	if c.ModelCatalogPath == "" {
		errs = append(errs, "modelCatalogPath is required")
	}
	if c.RoutingTablePath == "" {
		errs = append(errs, "routingTablePath is required")
	}
	if c.HTTP.Enabled && (c.HTTP.Port <= 0 || c.HTTP.Port > 65535) {
		errs = append(errs, "http.port must be between 1 and 65535")
	}
	if c.Classifier.Thresholds.SimpleMax >= c.Classifier.Thresholds.ComplexMin {
		errs = append(errs, "classifier.thresholds.simpleMax must be below classifier.thresholds.complexMin")
	}

	if anthropic, ok := c.Providers["anthropic"]; ok {
		switch anthropic.AuthType {
		case "", "auto", "api-key", "bearer":
		default:
			errs = append(errs, fmt.Sprintf("anthropic.authType %q is not one of api-key, bearer, auto", anthropic.AuthType))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation: %s", strings.Join(errs, "; "))
	}
	return nil
}
