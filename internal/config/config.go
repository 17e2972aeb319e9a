// Package config resolves runtime configuration from, in increasing priority,
// built-in defaults, an optional YAML file, a .env file, the process environment
// and command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fund-valuation/internal/valuation"
)

// LegacyReferenceTimestamp is the fixed "now" the service historically used
// (2020-09-28 18:01:00 UTC). Set it as reference_timestamp to reproduce old output.
const LegacyReferenceTimestamp uint32 = 1601316060

// Config holds all service configuration.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	UseMemory       bool          `yaml:"use_memory"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Postgres struct {
		DSN      string `yaml:"dsn"`
		MaxConns int32  `yaml:"max_conns"`
	} `yaml:"postgres"`

	ClickHouse struct {
		DSN string `yaml:"dsn"`
	} `yaml:"clickhouse"`

	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	Valuation struct {
		// ReferenceTimestamp is the default "now" in Unix seconds; 0 means wall clock.
		ReferenceTimestamp uint32 `yaml:"reference_timestamp"`
		Alignment          string `yaml:"alignment"`
		AlignmentSymbol    string `yaml:"alignment_symbol"`
	} `yaml:"valuation"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{
		HTTPAddr:        ":8080",
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	c.Postgres.MaxConns = 10
	c.Redis.TTL = 10 * time.Minute
	c.Valuation.Alignment = valuation.AlignmentPositional
	c.Valuation.AlignmentSymbol = valuation.DefaultAlignmentSymbol
	return c
}

// Load returns the configuration from defaults, the YAML file at path (skipped
// when empty), .env in the working directory and the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	for _, s := range settings {
		v, ok := lookup(s.env)
		if !ok || v == "" {
			continue
		}
		if err := s.apply(cfg, v); err != nil {
			return nil, fmt.Errorf("env %s: %w", s.env, err)
		}
	}

	return cfg, nil
}

// Validate reports configuration that cannot start the service.
func (c *Config) Validate() error {
	if !c.UseMemory {
		if c.Postgres.DSN == "" {
			return errors.New("postgres dsn is required unless use_memory is set")
		}
		if c.ClickHouse.DSN == "" {
			return errors.New("clickhouse dsn is required unless use_memory is set")
		}
	}
	if c.Postgres.MaxConns <= 0 {
		return fmt.Errorf("postgres max_conns must be positive, got %d", c.Postgres.MaxConns)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis db must not be negative, got %d", c.Redis.DB)
	}
	if c.RequestTimeout < 0 || c.ShutdownTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if _, err := c.Alignment(); err != nil {
		return err
	}
	return nil
}

// Alignment returns the configured price alignment strategy.
func (c *Config) Alignment() (valuation.AlignmentStrategy, error) {
	return valuation.ParseAlignment(c.Valuation.Alignment, c.Valuation.AlignmentSymbol)
}

// Reference returns the configured reference timestamp, or now when unset.
func (c *Config) Reference(now time.Time) uint32 {
	if c.Valuation.ReferenceTimestamp != 0 {
		return c.Valuation.ReferenceTimestamp
	}
	return uint32(now.Unix())
}

// CacheEnabled reports whether a Redis address is configured.
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}

// ParseTimestamp parses Unix seconds into the uint32 range used for timestamps.
func ParseTimestamp(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid unix timestamp %q", s)
	}
	return uint32(v), nil
}
