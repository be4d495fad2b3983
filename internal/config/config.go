// internal/config/config.go
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

type Config struct {
	RPCList      []string `mapstructure:"rpc_list"`
	WebSocketURL string   `mapstructure:"websocket_url"`
	PrivateKey   string   `mapstructure:"private_key"`

	// StateAccount is the deployed program's state singleton; FeeAccount is
	// its fee destination token account.
	StateAccount string `mapstructure:"state_account"`
	FeeAccount   string `mapstructure:"fee_account"`

	MinTokenValueUSD uint64 `mapstructure:"min_token_value_usd"` // cents
	IncludeDust      bool   `mapstructure:"include_dust"`

	PostgresURL  string `mapstructure:"postgres_url"`
	Retries      int    `mapstructure:"retries"`
	RPCRateLimit int    `mapstructure:"rpc_rate_limit"` // requests per second, per endpoint
	DebugLogging bool   `mapstructure:"debug_logging"`
}

const (
	DefaultRetries          = 3
	DefaultRPCRateLimit     = 10
	DefaultMinTokenValueUSD = 100 // $1.00
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"retries":             DefaultRetries,
		"rpc_rate_limit":      DefaultRPCRateLimit,
		"min_token_value_usd": DefaultMinTokenValueUSD,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	if cfg.WebSocketURL != "" {
		if err := validateURLWithCache(cfg.WebSocketURL, "ws"); err != nil {
			return errors.New("invalid WebSocket URL protocol")
		}
	}
	if cfg.StateAccount != "" {
		if _, err := solana.PublicKeyFromBase58(cfg.StateAccount); err != nil {
			return errors.New("invalid state_account")
		}
	}
	if cfg.FeeAccount != "" {
		if _, err := solana.PublicKeyFromBase58(cfg.FeeAccount); err != nil {
			return errors.New("invalid fee_account")
		}
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.RPCRateLimit <= 0 {
		return errors.New("invalid rpc_rate_limit")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("PORG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envKey := v.GetString("PRIVATE_KEY")
	if envKey != "" {
		cfg.PrivateKey = envKey
	}

	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}
	return nil
}
