// Package config loads the proxy's JSON configuration file, applies
// documented defaults, overlays environment variables for provider keys
// and mode, and validates the result before the server is allowed to
// start. Routing-table model ids are checked against the catalog by
// catalog.LoadRoutingTable, not by Validate.
package config
