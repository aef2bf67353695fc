// Package config loads the sqlew CLI configuration from a YAML file:
// named connection targets, dump options, and the optional artifact store.
package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/sin5ddd/sqlew/internal/artifact"
	"github.com/sin5ddd/sqlew/internal/database"
)

// Target is one named database connection.
type Target struct {
	Dialect  string `yaml:"dialect"`
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// DumpOptions holds the dump command defaults. Flags override these.
type DumpOptions struct {
	ChunkSize     int      `yaml:"chunk_size"`
	IncludeHeader *bool    `yaml:"include_header"`
	IncludeSchema *bool    `yaml:"include_schema"`
	Tables        []string `yaml:"tables"`
}

// Log holds logger settings.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full CLI configuration.
type Config struct {
	Log      Log               `yaml:"log"`
	Targets  map[string]Target `yaml:"targets"`
	Dump     DumpOptions       `yaml:"dump"`
	Artifact *artifact.Config  `yaml:"artifact"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals raw YAML, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Dump.ChunkSize == 0 {
		c.Dump.ChunkSize = 500
	}
	if c.Dump.IncludeHeader == nil {
		c.Dump.IncludeHeader = boolPtr(true)
	}
	if c.Dump.IncludeSchema == nil {
		c.Dump.IncludeSchema = boolPtr(true)
	}
}

func (c *Config) validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("config: at least one target is required")
	}
	for name, t := range c.Targets {
		if _, err := database.ParseDialect(t.Dialect); err != nil {
			return fmt.Errorf("config: target %q: %w", name, err)
		}
		if t.DSN == "" {
			return fmt.Errorf("config: target %q: dsn is required", name)
		}
	}
	if c.Dump.ChunkSize < 0 {
		return fmt.Errorf("config: dump.chunk_size must be >= 0")
	}
	return nil
}

// TargetConfig resolves a named target into a connection config.
func (c *Config) TargetConfig(name string) (*database.Config, error) {
	t, ok := c.Targets[name]
	if !ok {
		return nil, fmt.Errorf("config: unknown target %q", name)
	}
	d, err := database.ParseDialect(t.Dialect)
	if err != nil {
		return nil, err
	}

	dc := database.DefaultConfig(d, t.DSN)
	if t.MaxConns > 0 {
		dc.MaxConns = t.MaxConns
	}
	if t.MinConns > 0 {
		dc.MinConns = t.MinConns
	}
	return dc, nil
}

func boolPtr(b bool) *bool { return &b }
