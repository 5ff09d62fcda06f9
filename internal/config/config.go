// Package config loads brilflow.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"brilflow/internal/dom"
	"brilflow/internal/opt"
)

// FileName is the configuration file looked up in the working directory
const FileName = "brilflow.toml"

// EnvVar names the environment variable holding an explicit config path
const EnvVar = "BRILFLOW_CONFIG"

// Output formats
const (
	OutputAuto = "auto" // Same format as the input
	OutputJSON = "json"
	OutputText = "text"
)

type Config struct {
	Verbosity int             `toml:"verbosity"`
	Workers   int             `toml:"workers"`
	Output    string          `toml:"output"`
	Color     bool            `toml:"color"`
	Dominance DominanceConfig `toml:"dominance"`
	Pipeline  PipelineConfig  `toml:"pipeline"`

	// Path the configuration was read from, empty for the defaults
	Path string `toml:"-"`
	// Keys present in the file that brilflow does not know
	Unknown []string `toml:"-"`
}

type DominanceConfig struct {
	Unreachable string `toml:"unreachable"`
}

type PipelineConfig struct {
	Passes    []string `toml:"passes"`
	MaxRounds int      `toml:"max_rounds"`
}

// Default returns the configuration used when no file is found
func Default() Config {
	return Config{
		Output: OutputAuto,
		Color:  true,
		Dominance: DominanceConfig{
			Unreachable: dom.RejectUnreachable.String(),
		},
		Pipeline: PipelineConfig{
			Passes:    []string{"lvn", "dce"},
			MaxRounds: 16,
		},
	}
}

// Find returns the path of the configuration to use: $BRILFLOW_CONFIG if
// set, else brilflow.toml in dir if it exists, else "".
func Find(dir string) string {
	if p := os.Getenv(EnvVar); p != "" {
		return p
	}
	p := filepath.Join(dir, FileName)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// Load reads the configuration at path over the defaults. An empty path
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	for _, key := range meta.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, key.String())
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated settings and pass names
func (c *Config) Validate() error {
	switch c.Output {
	case OutputAuto, OutputJSON, OutputText:
	default:
		return fmt.Errorf("output: unknown format %q (want auto, json or text)", c.Output)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers: must not be negative")
	}
	if _, err := c.UnreachableMode(); err != nil {
		return fmt.Errorf("dominance.unreachable: %w", err)
	}
	if _, err := opt.NewPipeline(c.Pipeline.Passes); err != nil {
		return fmt.Errorf("pipeline.passes: %w", err)
	}
	if c.Pipeline.MaxRounds < 1 {
		return fmt.Errorf("pipeline.max_rounds: must be at least 1")
	}
	return nil
}

// UnreachableMode returns the configured dominance mode
func (c *Config) UnreachableMode() (dom.UnreachableMode, error) {
	return dom.ParseUnreachableMode(c.Dominance.Unreachable)
}

// NewPipeline builds the configured optimization pipeline
func (c *Config) NewPipeline() (*opt.OptimizationPipeline, error) {
	p, err := opt.NewPipeline(c.Pipeline.Passes)
	if err != nil {
		return nil, err
	}
	p.Workers = c.Workers
	p.MaxRounds = c.Pipeline.MaxRounds
	return p, nil
}

// Warnings describes every unknown key, one message each. Messages do not
// repeat Path.
func (c *Config) Warnings() []string {
	var out []string
	for _, key := range c.Unknown {
		out = append(out, fmt.Sprintf("unknown configuration key %q", key))
	}
	return out
}

func (c Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return err.Error()
	}
	return b.String()
}
