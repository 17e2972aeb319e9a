package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// setting maps one configuration value to its environment variable and flag.
type setting struct {
	env    string
	flag   string
	usage  string
	isBool bool
	apply  func(c *Config, v string) error
}

var settings = []setting{
	{env: "HTTP_ADDR", flag: "http-addr", usage: "HTTP listen address",
		apply: func(c *Config, v string) error { c.HTTPAddr = v; return nil }},
	{env: "USE_MEMORY", flag: "use-memory", usage: "Use in-memory storage seeded with demo data", isBool: true,
		apply: func(c *Config, v string) error { return parseBool(v, &c.UseMemory) }},
	{env: "REQUEST_TIMEOUT", flag: "request-timeout", usage: "Per-request timeout",
		apply: func(c *Config, v string) error { return parseDuration(v, &c.RequestTimeout) }},
	{env: "SHUTDOWN_TIMEOUT", flag: "shutdown-timeout", usage: "Graceful shutdown timeout",
		apply: func(c *Config, v string) error { return parseDuration(v, &c.ShutdownTimeout) }},
	{env: "POSTGRES_DSN", flag: "postgres-dsn", usage: "PostgreSQL connection string",
		apply: func(c *Config, v string) error { c.Postgres.DSN = v; return nil }},
	{env: "POSTGRES_MAX_CONNS", flag: "postgres-max-conns", usage: "PostgreSQL pool size",
		apply: func(c *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid integer %q", v)
			}
			c.Postgres.MaxConns = int32(n)
			return nil
		}},
	{env: "CLICKHOUSE_DSN", flag: "clickhouse-dsn", usage: "ClickHouse connection string",
		apply: func(c *Config, v string) error { c.ClickHouse.DSN = v; return nil }},
	{env: "REDIS_ADDR", flag: "redis-addr", usage: "Redis address for the result cache (empty disables caching)",
		apply: func(c *Config, v string) error { c.Redis.Addr = v; return nil }},
	{env: "REDIS_PASSWORD", flag: "redis-password", usage: "Redis password",
		apply: func(c *Config, v string) error { c.Redis.Password = v; return nil }},
	{env: "REDIS_DB", flag: "redis-db", usage: "Redis database number",
		apply: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer %q", v)
			}
			c.Redis.DB = n
			return nil
		}},
	{env: "REDIS_TTL", flag: "redis-ttl", usage: "Cached result lifetime",
		apply: func(c *Config, v string) error { return parseDuration(v, &c.Redis.TTL) }},
	{env: "REFERENCE_TIMESTAMP", flag: "reference-timestamp", usage: "Default reference time in Unix seconds (0 = now)",
		apply: func(c *Config, v string) error {
			ts, err := ParseTimestamp(v)
			if err != nil {
				return err
			}
			c.Valuation.ReferenceTimestamp = ts
			return nil
		}},
	{env: "ALIGNMENT", flag: "alignment", usage: "Price alignment strategy: positional, nearest",
		apply: func(c *Config, v string) error { c.Valuation.Alignment = v; return nil }},
	{env: "ALIGNMENT_SYMBOL", flag: "alignment-symbol", usage: "Symbol relabeled by positional alignment",
		apply: func(c *Config, v string) error { c.Valuation.AlignmentSymbol = v; return nil }},
}

func parseBool(v string, dst *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", v)
	}
	*dst = b
	return nil
}

func parseDuration(v string, dst *time.Duration) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration %q", v)
	}
	*dst = d
	return nil
}

// flagValue records a flag only when it is given on the command line, so unset
// flags never mask file or environment values.
type flagValue struct {
	s     setting
	value string
	set   bool
}

func (v *flagValue) String() string   { return v.value }
func (v *flagValue) IsBoolFlag() bool { return v.s.isBool }

func (v *flagValue) Set(s string) error {
	v.value = s
	v.set = true
	return nil
}

// Flags binds every setting to a command-line flag.
type Flags struct {
	configPath string
	values     []*flagValue
}

// RegisterFlags registers --config and one flag per setting on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.configPath, "config", os.Getenv("CONFIG_FILE"), "Path to YAML config file")
	for _, s := range settings {
		v := &flagValue{s: s}
		fs.Var(v, s.flag, s.usage+" (env "+s.env+")")
		f.values = append(f.values, v)
	}
	return f
}

// Load resolves the configuration and applies flags set on the command line.
// Call after fs.Parse.
func (f *Flags) Load() (*Config, error) {
	cfg, err := Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if err := f.apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *Flags) apply(cfg *Config) error {
	for _, v := range f.values {
		if !v.set {
			continue
		}
		if err := v.s.apply(cfg, v.value); err != nil {
			return fmt.Errorf("flag --%s: %w", v.s.flag, err)
		}
	}
	return nil
}
