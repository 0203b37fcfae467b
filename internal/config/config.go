// Package config loads bridge configuration with viper.
//
// Precedence, highest first: HOMEMIND_* environment variables, the config
// file given with --config, a local .env file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boddenberg/home-mind-bridge/internal/domain"

	"github.com/spf13/viper"
)

const envPrefix = "HOMEMIND"

// Config holds all application configuration.
type Config struct {
	// Server
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// Entry store
	StoreDriver string `mapstructure:"store_driver"` // sqlite | supabase | memory
	StorePath   string `mapstructure:"store_path"`

	// Supabase backend (store_driver=supabase)
	SupabaseURL        string `mapstructure:"supabase_url"`
	SupabaseServiceKey string `mapstructure:"supabase_service_key"`

	// Home Mind API calls
	HealthTimeout time.Duration `mapstructure:"health_timeout"`
	ChatTimeout   time.Duration `mapstructure:"chat_timeout"`

	// Per-API circuit breakers on chat calls, off unless enabled
	BreakerEnabled      bool          `mapstructure:"breaker_enabled"`
	BreakerMinRequests  uint32        `mapstructure:"breaker_min_requests"`
	BreakerFailureRatio float64       `mapstructure:"breaker_failure_ratio"`
	BreakerOpenTimeout  time.Duration `mapstructure:"breaker_open_timeout"`

	// Observability
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`

	// Caller identity (HS256 bearer tokens); empty disables it
	JWTSecret string `mapstructure:"jwt_secret"`
}

// Load reads configuration. configFile and dotEnvFile may be empty.
func Load(configFile, dotEnvFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if dotEnvFile != "" {
		if err := mergeFile(v, dotEnvFile, "env"); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", dotEnvFile, err)
		}
	}
	if configFile != "" {
		if err := mergeFile(v, configFile, strings.TrimPrefix(filepath.Ext(configFile), ".")); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeFile(v *viper.Viper, path, configType string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	v.SetConfigFile(path)
	v.SetConfigType(configType)
	return v.MergeInConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	v.SetDefault("store_driver", "sqlite")
	v.SetDefault("store_path", "homemind.db")
	v.SetDefault("supabase_url", "")
	v.SetDefault("supabase_service_key", "")

	v.SetDefault("health_timeout", domain.DefaultHealthTimeout)
	v.SetDefault("chat_timeout", domain.DefaultChatTimeout)

	v.SetDefault("breaker_enabled", false)
	v.SetDefault("breaker_min_requests", 5)
	v.SetDefault("breaker_failure_ratio", 0.6)
	v.SetDefault("breaker_open_timeout", 30*time.Second)

	v.SetDefault("tracing_enabled", false)
	v.SetDefault("otlp_endpoint", "localhost:4317")
	v.SetDefault("jwt_secret", "")
}

// Validate rejects configurations the bridge cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return &domain.ErrValidation{Field: "port", Message: fmt.Sprintf("out of range: %d", c.Port)}
	case c.StoreDriver != "sqlite" && c.StoreDriver != "supabase" && c.StoreDriver != "memory":
		return &domain.ErrValidation{Field: "store_driver", Message: "must be sqlite, supabase or memory"}
	case c.StoreDriver == "sqlite" && c.StorePath == "":
		return &domain.ErrValidation{Field: "store_path", Message: "required for the sqlite store"}
	case c.StoreDriver == "supabase" && (c.SupabaseURL == "" || c.SupabaseServiceKey == ""):
		return &domain.ErrValidation{Field: "supabase_url", Message: "supabase_url and supabase_service_key are required for the supabase store"}
	case c.HealthTimeout <= 0:
		return &domain.ErrValidation{Field: "health_timeout", Message: "must be positive"}
	case c.ChatTimeout <= 0:
		return &domain.ErrValidation{Field: "chat_timeout", Message: "must be positive"}
	case c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1:
		return &domain.ErrValidation{Field: "breaker_failure_ratio", Message: "must be in (0, 1]"}
	}
	return nil
}
