package config

import (
	"github.com/throttlehq/throttle/catalog"
	"github.com/throttlehq/throttle/classifier"
	"github.com/throttlehq/throttle/dispatch"
	"github.com/throttlehq/throttle/internal/telemetry"
)

// ProviderConfig is the (apiKey, baseUrl) pair carried for every provider.
// SetupToken, PreferSetupToken and AuthType are only meaningful on the
// "anthropic" entry; every other provider leaves them at the zero value.
type ProviderConfig struct {
	APIKey           string `json:"apiKey"`
	BaseURL          string `json:"baseUrl"`
	SetupToken       string `json:"setupToken,omitempty"`
	PreferSetupToken bool   `json:"preferSetupToken,omitempty"`
	AuthType         string `json:"authType,omitempty"`
}

// ThresholdsConfig mirrors classifier.Thresholds for the config file.
type ThresholdsConfig struct {
	SimpleMax  float64 `json:"simpleMax"`
	ComplexMin float64 `json:"complexMin"`
}

// ClassifierConfig points at the optional weights file and carries the
// tier-boundary thresholds.
type ClassifierConfig struct {
	WeightsPath string           `json:"weightsPath"`
	Thresholds  ThresholdsConfig `json:"thresholds"`
}

// LoggingConfig selects zap's level and an optional file sink; empty
// LogFilePath means stdout only.
type LoggingConfig struct {
	Level       string `json:"level"`
	LogFilePath string `json:"logFilePath"`
}

// HTTPConfig is the loopback HTTP server's bind settings.
type HTTPConfig struct {
	Port    int  `json:"port"`
	Enabled bool `json:"enabled"`
}

// TelemetryConfig selects whether internal/telemetry exports spans over
// OTLP; disabled by default so the proxy needs no collector to run.
type TelemetryConfig struct {
	Enabled      bool    `json:"enabled"`
	OTLPEndpoint string  `json:"otlpEndpoint"`
	ServiceName  string  `json:"serviceName"`
	SampleRate   float64 `json:"sampleRate"`
}

// Config is the fully resolved configuration: file defaults, then the
// file itself, then environment overrides, in that order.
type Config struct {
	Mode             string                    `json:"mode"`
	Providers        map[string]ProviderConfig `json:"providers"`
	Classifier       ClassifierConfig          `json:"classifier"`
	ModelCatalogPath string                    `json:"modelCatalogPath"`
	RoutingTablePath string                    `json:"routingTablePath"`
	RoutingLogPath   string                    `json:"routingLogPath"`
	Logging          LoggingConfig             `json:"logging"`
	HTTP             HTTPConfig                `json:"http"`
	Telemetry        TelemetryConfig           `json:"telemetry"`
}

// IsConfigured reports whether provider has credentials on file, letting it
// satisfy routing.ProviderConfig without that package importing config.
func (c *Config) IsConfigured(provider catalog.Provider) bool {
	return c.Provider(string(provider)).APIKey != ""
}

// Provider returns the named provider's config, or the zero value if the
// file never mentioned it (a provider the routing table never references
// needs no credentials).
func (c *Config) Provider(name string) ProviderConfig {
	if c.Providers == nil {
		return ProviderConfig{}
	}
	return c.Providers[name]
}

// AnthropicAdapterConfig projects the "anthropic" provider entry into the
// shape dispatch.AnthropicAdapter expects.
func (c *Config) AnthropicAdapterConfig() dispatch.AnthropicConfig {
	p := c.Provider(string(catalog.ProviderAnthropic))
	return dispatch.AnthropicConfig{
		APIKey:           p.APIKey,
		BaseURL:          p.BaseURL,
		SetupToken:       p.SetupToken,
		PreferSetupToken: p.PreferSetupToken,
		AuthType:         p.AuthType,
	}
}

// GoogleAdapterConfig projects the "google" provider entry into the shape
// dispatch.GoogleAdapter expects.
func (c *Config) GoogleAdapterConfig() dispatch.GoogleConfig {
	p := c.Provider(string(catalog.ProviderGoogle))
	return dispatch.GoogleConfig{APIKey: p.APIKey, BaseURL: p.BaseURL}
}

// OpenAICompatAdapterConfig projects any OpenAI-wire-compatible provider
// entry (openai, deepseek, xai, moonshot, mistral, ollama) into the shape
// dispatch.OpenAICompatAdapter expects.
func (c *Config) OpenAICompatAdapterConfig(provider catalog.Provider) dispatch.OpenAICompatConfig {
	p := c.Provider(string(provider))
	return dispatch.OpenAICompatConfig{APIKey: p.APIKey, BaseURL: p.BaseURL}
}

// ClassifierThresholds projects the configured thresholds into
// classifier.Thresholds.
func (c *Config) ClassifierThresholds() classifier.Thresholds {
	return classifier.Thresholds{
		SimpleMax:  c.Classifier.Thresholds.SimpleMax,
		ComplexMin: c.Classifier.Thresholds.ComplexMin,
	}
}

// TelemetryConfig projects the configured telemetry section into
// telemetry.Config, keeping internal/telemetry free of an import on this
// package.
func (c *Config) TelemetryConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:      c.Telemetry.Enabled,
		OTLPEndpoint: c.Telemetry.OTLPEndpoint,
		ServiceName:  c.Telemetry.ServiceName,
		SampleRate:   c.Telemetry.SampleRate,
	}
}
