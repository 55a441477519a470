package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// knownProviders enumerates the provider names an env var can target; it
// mirrors catalog.Provider's closed set without importing catalog for just
// the string constants.
var knownProviders = []string{"anthropic", "google", "openai", "deepseek", "xai", "moonshot", "mistral", "ollama"}

// Load reads the JSON configuration file at path over DefaultConfig, then
// overlays environment variables for mode and provider credentials. A
// missing file is not an error: defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays THROTTLE_MODE and THROTTLE_<PROVIDER>_{API_KEY,BASE_URL,
// SETUP_TOKEN,PREFER_SETUP_TOKEN,AUTH_TYPE} on top of the file, per spec §6
// ("env vars override the file for provider keys and mode").
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("THROTTLE_MODE"); ok {
		cfg.Mode = v
	}

	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	for _, name := range knownProviders {
		prefix := "THROTTLE_" + envUpper(name) + "_"
		p := cfg.Providers[name]
		changed := false

		if v, ok := os.LookupEnv(prefix + "API_KEY"); ok {
			p.APIKey = v
			changed = true
		}
		if v, ok := os.LookupEnv(prefix + "BASE_URL"); ok {
			p.BaseURL = v
			changed = true
		}
		if name == "anthropic" {
			if v, ok := os.LookupEnv(prefix + "SETUP_TOKEN"); ok {
				p.SetupToken = v
				changed = true
			}
			if v, ok := os.LookupEnv(prefix + "PREFER_SETUP_TOKEN"); ok {
				p.PreferSetupToken = v == "true" || v == "1"
				changed = true
			}
			if v, ok := os.LookupEnv(prefix + "AUTH_TYPE"); ok {
				p.AuthType = v
				changed = true
			}
		}

		if changed {
			cfg.Providers[name] = p
		}
	}
}

// envUpper uppercases a provider name for its env var segment; every
// provider name in knownProviders is already a plain lowercase ASCII word,
// so a byte-wise shift is enough.
func envUpper(name string) string {
	b := []byte(name)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
