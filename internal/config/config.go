// Package config loads server settings from a .env file, an optional YAML
// file, and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/settleup/pkg/logging"
)

// Config holds everything cmd/server needs to start.
type Config struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	DBPath      string `yaml:"db_path"`
	// StaticPath, when set, is a directory of frontend files served at /.
	StaticPath string `yaml:"static_path"`

	JWTSecret     string        `yaml:"jwt_secret"`
	TokenDuration time.Duration `yaml:"token_duration"`

	// RedisURL is optional; without it settlements are not cached.
	RedisURL           string        `yaml:"redis_url"`
	SettlementCacheTTL time.Duration `yaml:"settlement_cache_ttl"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the settings used for anything not configured.
func Default() *Config {
	return &Config{
		Port:               8080,
		MetricsPort:        9090,
		DBPath:             "./data/settleup.db",
		TokenDuration:      24 * time.Hour,
		SettlementCacheTTL: 10 * time.Minute,
		LogLevel:           "info",
		LogFormat:          logging.FormatText,
	}
}

// Load builds a Config from defaults, then envFile (if it exists), then the
// YAML file named by CONFIG_FILE (if set), then environment variables.
// The result is validated.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error
	envInt("PORT", &c.Port, &errs)
	envInt("METRICS_PORT", &c.MetricsPort, &errs)
	envString("DB_PATH", &c.DBPath)
	envString("STATIC_PATH", &c.StaticPath)
	envString("JWT_SECRET", &c.JWTSecret)
	envDuration("TOKEN_DURATION", &c.TokenDuration, &errs)
	envString("REDIS_URL", &c.RedisURL)
	envDuration("SETTLEMENT_CACHE_TTL", &c.SettlementCacheTTL, &errs)
	envString("LOG_LEVEL", &c.LogLevel)
	envString("LOG_FORMAT", &c.LogFormat)
	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metrics port %d out of range", c.MetricsPort))
	}
	if c.MetricsPort != 0 && c.MetricsPort == c.Port {
		errs = append(errs, errors.New("metrics port must differ from port"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TokenDuration <= 0 {
		errs = append(errs, errors.New("token duration must be positive"))
	}
	if c.RedisURL != "" && c.SettlementCacheTTL <= 0 {
		errs = append(errs, errors.New("settlement cache ttl must be positive when redis is configured"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// LoggingOptions returns the logger settings for this config.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.LogLevel, Format: c.LogFormat, AddSource: true}
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int, errs *[]error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func envDuration(key string, dst *time.Duration, errs *[]error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}
