package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

var ErrInvalid = errors.New("invalid config")

// Config holds application configuration. Values come from defaults, then the
// YAML file named by CONFIG_FILE, then environment variables.
type Config struct {
	Port            string        `yaml:"port"`
	Store           string        `yaml:"store"`
	DatabaseURL     string        `yaml:"database_url"`
	RedisURL        string        `yaml:"redis_url"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// CORSOrigins are full origins such as https://example.com; empty allows any.
	CORSOrigins []string        `yaml:"cors_origins"`
	Log         LogConfig       `yaml:"log"`
	WS          WSConfig        `yaml:"ws"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WSConfig struct {
	// Host patterns checked during the handshake; empty allows any origin.
	AllowedOrigins []string      `yaml:"allowed_origins"`
	SendBuffer     int           `yaml:"send_buffer"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
}

// RateLimitConfig configures the per ip+token limiter; RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func defaults() *Config {
	return &Config{
		Port:            "8080",
		Store:           StoreMemory,
		BcryptCost:      bcrypt.DefaultCost,
		ShutdownTimeout: 10 * time.Second,
		Log:             LogConfig{Level: "info", Format: "console"},
		WS: WSConfig{
			SendBuffer:   32,
			WriteTimeout: 5 * time.Second,
			PingInterval: 30 * time.Second,
		},
	}
}

// Load builds and validates the configuration.
func Load() (*Config, error) {
	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.readEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func list(key string, dst *[]string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	*dst = nil
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			*dst = append(*dst, s)
		}
	}
}

func (c *Config) readEnv() error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("STORE", &c.Store)
	str("DATABASE_URL", &c.DatabaseURL)
	str("REDIS_URL", &c.RedisURL)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	list("WS_ALLOWED_ORIGINS", &c.WS.AllowedOrigins)
	list("CORS_ORIGINS", &c.CORSOrigins)

	ints := []struct {
		key string
		dst *int
	}{
		{"WS_SEND_BUFFER", &c.WS.SendBuffer},
		{"RATE_LIMIT_BURST", &c.RateLimit.Burst},
		{"BCRYPT_COST", &c.BcryptCost},
	}
	for _, e := range ints {
		if v := strings.TrimSpace(os.Getenv(e.key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalid, e.key, err)
			}
			*e.dst = n
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"WS_WRITE_TIMEOUT", &c.WS.WriteTimeout},
		{"WS_PING_INTERVAL", &c.WS.PingInterval},
		{"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout},
	}
	for _, e := range durations {
		if v := strings.TrimSpace(os.Getenv(e.key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalid, e.key, err)
			}
			*e.dst = d
		}
	}

	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: RATE_LIMIT_RPS: %v", ErrInvalid, err)
		}
		c.RateLimit.RPS = f
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	c.Store = strings.ToLower(c.Store)
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres store", ErrInvalid)
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: REDIS_URL is required for the redis store", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalid, c.Store)
	}

	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Log.Format)
	}
	if n, err := strconv.Atoi(c.Port); err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("%w: port %q", ErrInvalid, c.Port)
	}
	if c.WS.SendBuffer <= 0 {
		return fmt.Errorf("%w: ws send buffer must be positive", ErrInvalid)
	}
	if c.WS.WriteTimeout <= 0 || c.WS.PingInterval <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalid)
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalid)
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 1
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%w: bcrypt cost %d", ErrInvalid, c.BcryptCost)
	}
	return nil
}
