// Package config loads and validates the engine configuration.
//
// Validation happens at this boundary only: the engine itself applies
// whatever values it is handed and lets derived severity behave
// accordingly.
package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/renderlens/renderlens/internal/chains"
	"github.com/renderlens/renderlens/internal/collector"
	"github.com/renderlens/renderlens/internal/engine"
)

// RuleOverride configures one suggestion rule per installation
type RuleOverride struct {
	// ID is the rule identifier (e.g. "memoization")
	ID string `yaml:"id"`

	// Override is one of: off, force-warning, force-critical
	Override string `yaml:"override"`
}

// Config holds all configuration for the application
type Config struct {
	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string `yaml:"logLevel"`

	// MetricsAddr is the optional listen address for the Prometheus
	// endpoint; empty disables the endpoint
	MetricsAddr string `yaml:"metricsAddr"`

	// Thresholds are the severity classification thresholds
	Thresholds collector.Thresholds `yaml:"thresholds"`

	// Chain detection tunables
	ChainWindowMs     int64 `yaml:"chainWindowMs"`
	MinChainDepth     int   `yaml:"minChainDepth"`
	ChainDedupTTLMs   int64 `yaml:"chainDedupTTLMs"`
	ChainWindowRetain int   `yaml:"chainWindowRetain"`

	// Batching and sampling tunables
	BatchSize        int   `yaml:"batchSize"`
	BatchDebounceMs  int64 `yaml:"batchDebounceMs"`
	SampleIntervalMs int64 `yaml:"sampleIntervalMs"`

	// Rules lists per-installation rule overrides
	Rules []RuleOverride `yaml:"rules"`
}

// Default returns the default configuration
func Default() *Config {
	chainDefaults := chains.DefaultConfig()
	engineDefaults := engine.DefaultConfig()
	return &Config{
		LogLevel:          "info",
		Thresholds:        collector.DefaultThresholds(),
		ChainWindowMs:     chainDefaults.WindowSize.Milliseconds(),
		MinChainDepth:     chainDefaults.MinDepth,
		ChainDedupTTLMs:   chainDefaults.DedupTTL.Milliseconds(),
		ChainWindowRetain: chainDefaults.WindowRetention,
		BatchSize:         engineDefaults.BatchSize,
		BatchDebounceMs:   engineDefaults.BatchDebounce.Milliseconds(),
		SampleIntervalMs:  engineDefaults.SampleInterval.Milliseconds(),
	}
}

// Load reads a YAML configuration file using Koanf and merges it over the
// defaults. An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse config from %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed for %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Thresholds.CriticalRenders < 1 {
		return fmt.Errorf("thresholds.criticalRenders must be at least 1")
	}
	if c.Thresholds.WarningRenders < 1 {
		return fmt.Errorf("thresholds.warningRenders must be at least 1")
	}
	if c.Thresholds.WarningRenders > c.Thresholds.CriticalRenders {
		return fmt.Errorf("thresholds.warningRenders must not exceed thresholds.criticalRenders")
	}
	if c.Thresholds.MinRenderRate < 0 {
		return fmt.Errorf("thresholds.minRenderRate must be non-negative")
	}
	if c.ChainWindowMs < 1 {
		return fmt.Errorf("chainWindowMs must be at least 1")
	}
	if c.MinChainDepth < 1 {
		return fmt.Errorf("minChainDepth must be at least 1")
	}
	if c.ChainDedupTTLMs < 0 {
		return fmt.Errorf("chainDedupTTLMs must be non-negative")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batchSize must be at least 1")
	}
	if c.BatchDebounceMs < 1 {
		return fmt.Errorf("batchDebounceMs must be at least 1")
	}
	if c.SampleIntervalMs < 1 {
		return fmt.Errorf("sampleIntervalMs must be at least 1")
	}
	for i, r := range c.Rules {
		if r.ID == "" {
			return fmt.Errorf("rules[%d]: id must not be empty", i)
		}
		switch r.Override {
		case "off", "force-warning", "force-critical":
		default:
			return fmt.Errorf("rules[%d]: override must be one of: off, force-warning, force-critical", i)
		}
	}
	return nil
}

// EngineConfig converts the file representation into the engine's config
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Thresholds: c.Thresholds,
		Chains: chains.Config{
			WindowSize:      time.Duration(c.ChainWindowMs) * time.Millisecond,
			MinDepth:        c.MinChainDepth,
			DedupTTL:        time.Duration(c.ChainDedupTTLMs) * time.Millisecond,
			WindowRetention: c.ChainWindowRetain,
		},
		BatchSize:      c.BatchSize,
		BatchDebounce:  time.Duration(c.BatchDebounceMs) * time.Millisecond,
		SampleInterval: time.Duration(c.SampleIntervalMs) * time.Millisecond,
	}
}
