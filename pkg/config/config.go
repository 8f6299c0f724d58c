// Package config loads engine settings from the environment and an
// optional YAML file. Environment variables win over file values.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/s6s-labs/s6s-engine/pkg/vault"
)

const envPrefix = "S6S"

// Config holds everything the engine needs at startup.
type Config struct {
	// MasterKey is either 64 hex characters (a raw 256-bit key) or an
	// arbitrary passphrase that gets stretched with scrypt.
	MasterKey string `mapstructure:"master_key"`

	ScriptTimeoutMS int `mapstructure:"script_timeout_ms"`
	HTTPTimeoutMS   int `mapstructure:"http_timeout_ms"`

	LogLevel string `mapstructure:"log_level"`
}

func defaults(v *viper.Viper) {
	// Registering the key is what lets AutomaticEnv feed it to Unmarshal.
	v.SetDefault("master_key", "")
	v.SetDefault("script_timeout_ms", 3000)
	v.SetDefault("http_timeout_ms", 60000)
	v.SetDefault("log_level", "info")
}

// Load reads configuration from the environment (S6S_MASTER_KEY,
// S6S_SCRIPT_TIMEOUT_MS, ...) and, when configFile is non-empty, from a
// YAML file as well.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.ScriptTimeoutMS <= 0 {
		return nil, fmt.Errorf("config: script_timeout_ms must be positive, got %d", cfg.ScriptTimeoutMS)
	}
	if cfg.HTTPTimeoutMS <= 0 {
		return nil, fmt.Errorf("config: http_timeout_ms must be positive, got %d", cfg.HTTPTimeoutMS)
	}
	return &cfg, nil
}

func (c *Config) ScriptTimeout() time.Duration {
	return time.Duration(c.ScriptTimeoutMS) * time.Millisecond
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// Vault builds the credential vault from the configured master key. A
// 64-character hex string is used verbatim; anything else is treated as a
// passphrase. An unset key falls back to a process-lifetime random key,
// so credentials sealed under it do not survive a restart.
func (c *Config) Vault() (*vault.Vault, error) {
	if c.MasterKey == "" {
		slog.Warn("master_key is not set, using an ephemeral random key; encrypted credentials will not survive a restart")
		return vault.NewRandom()
	}
	if len(c.MasterKey) == vault.KeySize*2 {
		if _, err := hex.DecodeString(c.MasterKey); err == nil {
			return vault.NewFromHex(c.MasterKey)
		}
	}
	return vault.NewFromPassphrase(c.MasterKey, envPrefix)
}
