package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnthropicAdapterConfig_ProjectsProviderEntry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers["anthropic"] = ProviderConfig{
		APIKey:           "sk-ant-enterprise",
		SetupToken:       "sk-ant-setup",
		PreferSetupToken: true,
		AuthType:         "auto",
	}

	adapterCfg := cfg.AnthropicAdapterConfig()
	assert.Equal(t, "sk-ant-enterprise", adapterCfg.APIKey)
	assert.Equal(t, "sk-ant-setup", adapterCfg.SetupToken)
	assert.True(t, adapterCfg.PreferSetupToken)
	assert.Equal(t, "auto", adapterCfg.AuthType)
}

func TestProvider_UnknownProviderReturnsZeroValue(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ProviderConfig{}, cfg.Provider("mistral"))
}
