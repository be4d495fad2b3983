// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"rpc_list": ["https://api.mainnet-beta.solana.com"],
		"websocket_url": "wss://api.mainnet-beta.solana.com",
		"private_key": "not-checked-here",
		"state_account": "So11111111111111111111111111111111111111112",
		"fee_account": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"include_dust": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://api.mainnet-beta.solana.com"}, cfg.RPCList)
	assert.True(t, cfg.IncludeDust)

	// Unset fields fall back to defaults.
	assert.Equal(t, DefaultRetries, cfg.Retries)
	assert.Equal(t, DefaultRPCRateLimit, cfg.RPCRateLimit)
	assert.Equal(t, uint64(DefaultMinTokenValueUSD), cfg.MinTokenValueUSD)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty rpc list", `{"rpc_list": []}`},
		{"bad rpc scheme", `{"rpc_list": ["ftp://example.com"]}`},
		{"bad websocket scheme", `{"rpc_list": ["https://example.com"], "websocket_url": "https://example.com"}`},
		{"bad state account", `{"rpc_list": ["https://example.com"], "state_account": "not-base58!"}`},
		{"bad fee account", `{"rpc_list": ["https://example.com"], "fee_account": "alsonot"}`},
		{"zero rate limit", `{"rpc_list": ["https://example.com"], "rpc_rate_limit": 0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"rpc_list": ["https://file.example.com"],
		"private_key": "from-file"
	}`)

	t.Setenv("PORG_PRIVATE_KEY", "from-env")
	t.Setenv("PORG_RPC_LIST", "https://one.example.com, https://two.example.com")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.PrivateKey)
	assert.Equal(t, []string{"https://one.example.com", "https://two.example.com"}, cfg.RPCList)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
