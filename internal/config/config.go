// Package config loads client and server settings from embedded defaults,
// an optional YAML file and CRM_* environment variables.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// EnvPrefix is the prefix of environment overrides, e.g. CRM_CLIENT_BASE_URL.
const EnvPrefix = "CRM"

// Config is the root of the configuration tree.
type Config struct {
	Client ClientConfig `mapstructure:"client"`
	Server ServerConfig `mapstructure:"server"`
}

// ClientConfig holds the settings of the interactive shell.
type ClientConfig struct {
	// BaseURL is the root of the remote CRM API, without a trailing slash.
	BaseURL string `mapstructure:"base_url"`
	// SessionFile is where auth_token and user are persisted.
	SessionFile string `mapstructure:"session_file"`
	// CAFile optionally adds a CA bundle for self-hosted HTTPS deployments.
	CAFile string `mapstructure:"ca_file"`
	// Timeout bounds every request at the transport level.
	Timeout time.Duration `mapstructure:"timeout"`
	// AutoRefresh re-hydrates the active screen periodically; 0 disables it.
	AutoRefresh time.Duration `mapstructure:"auto_refresh"`
	LogLevel    string        `mapstructure:"log_level"`
	// LogFile keeps log lines out of the REPL output.
	LogFile string `mapstructure:"log_file"`
}

// ServerConfig holds the settings of the reference CRM server.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	DatabaseDSN string        `mapstructure:"dsn"`
	JWTSecret   string        `mapstructure:"jwt_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	TLSCert     string        `mapstructure:"tls_cert"`
	TLSKey      string        `mapstructure:"tls_key"`
	LogLevel    string        `mapstructure:"log_level"`
	// PurgeInterval is how often soft-deleted customers are purged.
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
	// PurgeRetention is how long soft-deleted customers are kept.
	PurgeRetention time.Duration `mapstructure:"purge_retention"`
}

// Load reads embedded defaults, merges the YAML file at path (if it exists)
// and applies CRM_* environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, fmt.Errorf("read defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.MergeInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Client.BaseURL = strings.TrimRight(cfg.Client.BaseURL, "/")
	return cfg, nil
}

// Validate checks the client settings needed to reach the API.
func (c ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("client.base_url is required")
	}
	if c.SessionFile == "" {
		return errors.New("client.session_file is required")
	}
	return nil
}

// Validate checks the server settings needed to serve requests.
func (c ServerConfig) Validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("server.dsn is required")
	}
	if c.JWTSecret == "" {
		return errors.New("server.jwt_secret is required")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("server.tls_cert and server.tls_key must be set together")
	}
	return nil
}
