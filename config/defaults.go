package config

import "github.com/throttlehq/throttle/catalog"

// DefaultConfig returns the configuration used when a field is absent from
// both the file and the environment.
func DefaultConfig() *Config {
	return &Config{
		Mode:             string(catalog.ModeStandard),
		Providers:        map[string]ProviderConfig{},
		ModelCatalogPath: "catalog.json",
		RoutingTablePath: "routing_table.json",
		RoutingLogPath:   "routing.jsonl",
		Classifier: ClassifierConfig{
			Thresholds: ThresholdsConfig{
				SimpleMax:  0.30,
				ComplexMin: 0.65,
			},
		},
		Logging:   LoggingConfig{Level: "info"},
		HTTP:      HTTPConfig{Port: 8484, Enabled: true},
		Telemetry: TelemetryConfig{Enabled: false, ServiceName: "throttle", SampleRate: 1.0},
	}
}
