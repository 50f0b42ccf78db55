// Package config loads the CLI configuration from an HCL file.
//
//	log {
//	  level  = "debug"
//	  format = "json"
//	}
//
//	devtools {
//	  addr    = env.VORTEX_ADDR
//	  history = 512
//	}
//
//	demo {
//	  interval    = "500ms"
//	  persist_dir = "./data"
//	}
//
// Environment variables are available under env. Omitted blocks and
// attributes keep their defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/AnatoleLucet/vortex/internal/logging"
)

type Config struct {
	Log      *Log      `hcl:"log,block"`
	Devtools *Devtools `hcl:"devtools,block"`
	Demo     *Demo     `hcl:"demo,block"`
}

type Log struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

type Devtools struct {
	Addr           string   `hcl:"addr,optional"`
	History        int      `hcl:"history,optional"`
	AllowedOrigins []string `hcl:"allowed_origins,optional"`
}

type Demo struct {
	Enabled    *bool  `hcl:"enabled,optional"`
	Interval   string `hcl:"interval,optional"`
	PersistDir string `hcl:"persist_dir,optional"`

	// parsed from Interval
	Every time.Duration
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	enabled := true

	return &Config{
		Log: &Log{
			Level:  "info",
			Format: "text",
		},
		Devtools: &Devtools{
			Addr:    "127.0.0.1:7070",
			History: 256,
		},
		Demo: &Demo{
			Enabled:  &enabled,
			Interval: "1s",
			Every:    time.Second,
		},
	}
}

// Load reads and decodes the file at path.
func Load(path string) (*Config, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}

	return decode(file, path, environ())
}

// Parse decodes src, resolving env.* against the given variables.
func Parse(src []byte, filename string, env map[string]string) (*Config, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, diags)
	}

	return decode(file, filename, env)
}

func decode(file *hcl.File, filename string, env map[string]string) (*Config, error) {
	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, evalContext(env), &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", filename, diags)
	}

	cfg.applyDefaults(Default())

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}

	return &cfg, nil
}

func evalContext(env map[string]string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	return env
}

// gohcl leaves omitted blocks nil and omitted attributes zero
func (c *Config) applyDefaults(d *Config) {
	if c.Log == nil {
		c.Log = d.Log
	} else {
		c.Log.Level = or(c.Log.Level, d.Log.Level)
		c.Log.Format = or(c.Log.Format, d.Log.Format)
	}

	if c.Devtools == nil {
		c.Devtools = d.Devtools
	} else {
		c.Devtools.Addr = or(c.Devtools.Addr, d.Devtools.Addr)
		c.Devtools.History = or(c.Devtools.History, d.Devtools.History)
	}

	if c.Demo == nil {
		c.Demo = d.Demo
	} else {
		if c.Demo.Enabled == nil {
			c.Demo.Enabled = d.Demo.Enabled
		}
		c.Demo.Interval = or(c.Demo.Interval, d.Demo.Interval)
	}
}

func (c *Config) validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	if c.Devtools.History < 0 {
		return fmt.Errorf("devtools history must be positive, got %d", c.Devtools.History)
	}

	every, err := time.ParseDuration(c.Demo.Interval)
	if err != nil {
		return fmt.Errorf("demo interval: %w", err)
	}
	if every <= 0 {
		return fmt.Errorf("demo interval must be positive, got %s", every)
	}
	c.Demo.Every = every

	return nil
}

func or[T comparable](v, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}
	return v
}
