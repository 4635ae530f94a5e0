// Package config provides configuration management for the Storycut Agent.
// Configuration is loaded from environment variables with sensible defaults;
// an optional YAML file can override any field.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort     = 8697
	DefaultLogLevel = "info"
	DefaultDataDir  = ".storycut"

	// Environment variable names
	EnvPort       = "STORYCUT_PORT"
	EnvLogLevel   = "STORYCUT_LOG_LEVEL"
	EnvDataDir    = "STORYCUT_DATA_DIR"
	EnvHeadless   = "STORYCUT_HEADLESS"
	EnvConfigFile = "STORYCUT_CONFIG"

	// Database filename
	DBFilename = "storycut.db"

	// Simulated collaborator timing. The export ticker advances progress in
	// fixed steps; the editor shows one tick every half second.
	DefaultExportTickMs   = 500
	DefaultExportStep     = 10
	DefaultSuggestDelayMs = 1500
	DefaultRecordDelayMs  = 3000
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	MediaDir() string
	ArtifactsDir() string
	Headless() bool
	ExportTick() time.Duration
	ExportStep() int
	SuggestDelay() time.Duration
	RecordDelay() time.Duration
}

// fileConfig mirrors the optional YAML overrides file.
type fileConfig struct {
	Port           int    `yaml:"port"`
	LogLevel       string `yaml:"log_level"`
	DataDir        string `yaml:"data_dir"`
	Headless       *bool  `yaml:"headless"`
	ExportTickMs   int    `yaml:"export_tick_ms"`
	ExportStep     int    `yaml:"export_step"`
	SuggestDelayMs int    `yaml:"suggest_delay_ms"`
	RecordDelayMs  int    `yaml:"record_delay_ms"`
}

// EnvConfig reads configuration from environment variables and the optional
// overrides file.
type EnvConfig struct {
	port           int
	logLevel       string
	dataDir        string
	headless       bool
	exportTickMs   int
	exportStep     int
	suggestDelayMs int
	recordDelayMs  int
}

// New creates a new EnvConfig with defaults, YAML overrides and environment
// variable overrides, in that order.
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		dataDir:        defaultDataDir(),
		exportTickMs:   DefaultExportTickMs,
		exportStep:     DefaultExportStep,
		suggestDelayMs: DefaultSuggestDelayMs,
		recordDelayMs:  DefaultRecordDelayMs,
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	return cfg, nil
}

func (c *EnvConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if fc.Port != 0 {
		if fc.Port < 1 || fc.Port > 65535 {
			return fmt.Errorf("config file %s: port must be between 1 and 65535", path)
		}
		c.port = fc.Port
	}
	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if fc.DataDir != "" {
		c.dataDir = fc.DataDir
	}
	if fc.Headless != nil {
		c.headless = *fc.Headless
	}
	if fc.ExportTickMs > 0 {
		c.exportTickMs = fc.ExportTickMs
	}
	if fc.ExportStep > 0 {
		c.exportStep = fc.ExportStep
	}
	if fc.SuggestDelayMs > 0 {
		c.suggestDelayMs = fc.SuggestDelayMs
	}
	if fc.RecordDelayMs > 0 {
		c.recordDelayMs = fc.RecordDelayMs
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// MediaDir returns the directory holding ingested asset and voiceover bytes
func (c *EnvConfig) MediaDir() string {
	return filepath.Join(c.dataDir, "media")
}

// ArtifactsDir returns the directory for export artifacts
func (c *EnvConfig) ArtifactsDir() string {
	return filepath.Join(c.dataDir, "artifacts")
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) ExportTick() time.Duration {
	return time.Duration(c.exportTickMs) * time.Millisecond
}

func (c *EnvConfig) ExportStep() int {
	return c.exportStep
}

func (c *EnvConfig) SuggestDelay() time.Duration {
	return time.Duration(c.suggestDelayMs) * time.Millisecond
}

func (c *EnvConfig) RecordDelay() time.Duration {
	return time.Duration(c.recordDelayMs) * time.Millisecond
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
