package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openfolio/pulse/internal/core"
	"github.com/spf13/viper"
)

// EnvAlphaVantageKey is the conventional environment variable for the
// primary provider's credential.
const EnvAlphaVantageKey = "ALPHA_VANTAGE_KEY"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type FetchConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

// ProvidersConfig lists providers in fallback priority order plus their
// per-provider settings.
type ProvidersConfig struct {
	Order        []string           `mapstructure:"order"`
	AlphaVantage AlphaVantageConfig `mapstructure:"alphavantage"`
	Yahoo        YahooConfig        `mapstructure:"yahoo"`
}

type AlphaVantageConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type YahooConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Defaults returns a config with sensible defaults. The primary
// provider's key is still picked up from the environment, so running
// without a config file works.
func Defaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Cache: CacheConfig{
			TTL: 15 * time.Minute,
		},
		Fetch: FetchConfig{
			MaxAttempts: 3,
			Backoff:     500 * time.Millisecond,
		},
		Providers: ProvidersConfig{
			Order: []string{"alphavantage", "yahoo"},
			Yahoo: YahooConfig{Enabled: true},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
	cfg.applyEnv()
	return cfg
}

// applyEnv fills credentials from their conventional environment
// variables when the config file did not set them.
func (c *Config) applyEnv() {
	if c.Providers.AlphaVantage.APIKey == "" {
		c.Providers.AlphaVantage.APIKey = strings.TrimSpace(os.Getenv(EnvAlphaVantageKey))
	}
}

func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Fetch.MaxAttempts < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_attempts must be at least 1, got %d", c.Fetch.MaxAttempts))
	}
	if c.Fetch.Backoff < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backoff cannot be negative, got %v", c.Fetch.Backoff))
	}
	if c.Cache.TTL < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cache ttl cannot be negative, got %v", c.Cache.TTL))
	}

	for _, name := range c.Providers.Order {
		switch name {
		case "alphavantage", "yahoo":
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown provider %q in order", name))
		}
	}

	return nil
}
