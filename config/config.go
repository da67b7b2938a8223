package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable, e.g. BRANDSCRAPE_SERVER_PORT.
const EnvPrefix = "BRANDSCRAPE"

// Config holds all application configuration.
//
// Browser session behaviour (user agent, timeouts, settle delay) is fixed
// in the scraper package and deliberately absent here.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Export    ExportConfig    `mapstructure:"export"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `mapstructure:"host"` // default: "0.0.0.0"
	Port int    `mapstructure:"port"` // default: 8080
	Mode string `mapstructure:"mode"` // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls browser provisioning.
type BrowserConfig struct {
	// Bin overrides the Chromium binary path. Empty means rod downloads one.
	Bin string `mapstructure:"bin"`

	// Stealth injects the go-rod/stealth evasion script into every tab.
	Stealth bool `mapstructure:"stealth"` // default: false
}

// AuthConfig controls API key authentication on the JSON API.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool `mapstructure:"enabled"` // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string `mapstructure:"api_keys"`
}

// RateLimitConfig throttles inbound JSON API calls per identity.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or client IP.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"` // default: 1

	// Burst is the maximum burst size per identity.
	Burst int `mapstructure:"burst"` // default: 3
}

// ExportConfig controls how long finished runs stay downloadable.
type ExportConfig struct {
	// MaxEntries caps the number of retained runs.
	MaxEntries int `mapstructure:"max_entries"` // default: 100

	// TTL is how long a run's CSV stays available.
	TTL time.Duration `mapstructure:"ttl"` // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // default: "info"
	Format string `mapstructure:"format"` // "json" or "text"; default: "json"
}

// Load reads configuration from an optional config.yaml and BRANDSCRAPE_*
// environment variables, applying defaults for everything unset.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/brandscrape/")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.stealth", false)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_keys", []string{})

	v.SetDefault("ratelimit.requests_per_second", 1.0)
	v.SetDefault("ratelimit.burst", 3)

	v.SetDefault("export.max_entries", 100)
	v.SetDefault("export.ttl", "1h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got: %d", cfg.Server.Port)
	}

	switch cfg.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server mode must be 'debug', 'release' or 'test', got: %s", cfg.Server.Mode)
	}

	if cfg.Auth.Enabled && len(cfg.Auth.APIKeys) == 0 {
		return fmt.Errorf("at least one API key is required when auth is enabled (set %s_AUTH_API_KEYS)", EnvPrefix)
	}

	if cfg.RateLimit.RequestsPerSecond <= 0 || cfg.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive, got: %v rps burst %d",
			cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	if cfg.Export.MaxEntries <= 0 {
		return fmt.Errorf("export max entries must be positive, got: %d", cfg.Export.MaxEntries)
	}
	if cfg.Export.TTL <= 0 {
		return fmt.Errorf("export ttl must be positive, got: %v", cfg.Export.TTL)
	}

	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text', got: %s", cfg.Log.Format)
	}

	return nil
}
