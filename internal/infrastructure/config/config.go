// Package config provides configuration structs and utilities for the tokenmeter application.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config represents the root configuration for the tokenmeter application.
type Config struct {
	Defaults  DefaultsConfig  `yaml:"defaults"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	History   HistoryConfig   `yaml:"history"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Heuristic HeuristicConfig `yaml:"heuristic"`
}

// DefaultsConfig holds defaults applied when a flag is not given.
type DefaultsConfig struct {
	Model          string        `yaml:"model"`
	OutputTokens   int           `yaml:"output_tokens"`
	ResolveTimeout time.Duration `yaml:"resolve_timeout"` // bound on lazy engine construction
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"` // 0.0 to 1.0
	ServiceName  string  `yaml:"service_name"`
}

// HistoryConfig holds configuration for the local estimate history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // SQLite database path
}

// PricingConfig holds configuration for pricing overrides.
type PricingConfig struct {
	// File points at a YAML override table. The TOKENMETER_PRICING_FILE
	// environment variable takes precedence over this setting.
	File string `yaml:"file"`
}

// HeuristicConfig tunes the approximation engines.
type HeuristicConfig struct {
	CharsPerToken float64 `yaml:"chars_per_token"` // 0 keeps the built-in ratio
}

// Default configuration values.
const (
	DefaultModel          = "gpt-4o"
	DefaultOutputTokens   = 0
	DefaultResolveTimeout = 30 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultHistoryEnabled = true
	DefaultHistoryPath    = "~/.tokenmeter/history.db"

	DefaultTracingEnabled      = false
	DefaultTracingExporterType = "none"
	DefaultTracingSampleRate   = 1.0
	DefaultTracingServiceName  = "tokenmeter"
)

// Valid log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid log formats.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Valid tracing exporter types.
var validTracingExporterTypes = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

// NewDefaultConfig creates a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Model:          DefaultModel,
			OutputTokens:   DefaultOutputTokens,
			ResolveTimeout: DefaultResolveTimeout,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Tracing: TracingConfig{
			Enabled:      DefaultTracingEnabled,
			ExporterType: DefaultTracingExporterType,
			SampleRate:   DefaultTracingSampleRate,
			ServiceName:  DefaultTracingServiceName,
		},
		History: HistoryConfig{
			Enabled: DefaultHistoryEnabled,
			Path:    DefaultHistoryPath,
		},
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Defaults.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("defaults: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}

	if err := c.History.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("history: %w", err))
	}

	if err := c.Heuristic.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("heuristic: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the DefaultsConfig is valid.
func (d *DefaultsConfig) Validate() error {
	var errs []error

	if d.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if d.OutputTokens < 0 {
		errs = append(errs, errors.New("output_tokens must be non-negative"))
	}
	if d.ResolveTimeout < 0 {
		errs = append(errs, errors.New("resolve_timeout must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the LoggingConfig is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	if l.Level != "" && !validLogLevels[l.Level] {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", l.Level))
	}

	if l.Format != "" && !validLogFormats[l.Format] {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of json, text", l.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the TracingConfig is valid.
func (t *TracingConfig) Validate() error {
	var errs []error

	if t.Enabled {
		if t.ExporterType != "" && !validTracingExporterTypes[t.ExporterType] {
			errs = append(errs, fmt.Errorf("invalid exporter_type %q: must be one of none, stdout, otlp", t.ExporterType))
		}
		if t.ExporterType == "otlp" && t.OTLPEndpoint == "" {
			errs = append(errs, errors.New("otlp_endpoint is required when exporter_type is 'otlp'"))
		}
		if t.SampleRate < 0 || t.SampleRate > 1 {
			errs = append(errs, errors.New("sample_rate must be between 0.0 and 1.0"))
		}
		if t.ServiceName == "" {
			errs = append(errs, errors.New("service_name is required when tracing is enabled"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the HistoryConfig is valid.
func (h *HistoryConfig) Validate() error {
	if h.Enabled && h.Path == "" {
		return errors.New("path is required when history is enabled")
	}
	return nil
}

// Validate checks if the HeuristicConfig is valid.
func (h *HeuristicConfig) Validate() error {
	if h.CharsPerToken < 0 {
		return errors.New("chars_per_token must be non-negative")
	}
	return nil
}
