package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Bridge  BridgeConfig  `yaml:"bridge" json:"bridge"`
	UI      UIConfig      `yaml:"ui" json:"ui"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Form    FormConfig    `yaml:"form" json:"form"`
}

// BridgeConfig configures the connection to the rendering backend
type BridgeConfig struct {
	Endpoint         string        `yaml:"endpoint" json:"endpoint"`                   // ws:// or wss:// URL
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" json:"handshake_timeout"` // websocket opening handshake
	WriteTimeout     time.Duration `yaml:"write_timeout" json:"write_timeout"`         // per-frame write deadline, 0 = none
}

// UIConfig configures the terminal form
type UIConfig struct {
	Theme   string `yaml:"theme" json:"theme"`       // default|high-contrast|minimal
	NoEmoji bool   `yaml:"no_emoji" json:"no_emoji"` // use text fallbacks
}

// OutputConfig configures non-interactive command output
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"` // text|json|markdown
	ColorMode     string `yaml:"color_mode" json:"color_mode"`         // auto|always|never
}

// WatchConfig configures on-disk change reporting for selected files
type WatchConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig configures diagnostic logging
type LoggingConfig struct {
	Verbose bool   `yaml:"verbose" json:"verbose"`
	File    string `yaml:"file" json:"file"` // diagnostic log while the TUI owns the terminal
}

// FormConfig holds initial form values
type FormConfig struct {
	PrettifyDefault bool `yaml:"prettify_default" json:"prettify_default"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Bridge: BridgeConfig{
			Endpoint:         "ws://127.0.0.1:8765/bridge",
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     5 * time.Second,
		},
		UI: UIConfig{
			Theme:   "default",
			NoEmoji: false,
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			ColorMode:     "auto",
		},
		Watch: WatchConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Verbose: false,
			File:    "~/.cache/catform/catform.log",
		},
		Form: FormConfig{
			PrettifyDefault: true,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateBridgeConfig(); err != nil {
		return err
	}
	if err := c.validateUIConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	return nil
}

// validateBridgeConfig validates backend connection settings
func (c *Config) validateBridgeConfig() error {
	if c.Bridge.Endpoint == "" {
		return fmt.Errorf("bridge endpoint must not be empty")
	}
	u, err := url.Parse(c.Bridge.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid bridge endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid bridge endpoint scheme: %s (must be ws or wss)", u.Scheme)
	}
	if c.Bridge.HandshakeTimeout < 0 {
		return fmt.Errorf("handshake_timeout must be non-negative")
	}
	if c.Bridge.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout must be non-negative")
	}
	return nil
}

// validateUIConfig validates terminal form settings
func (c *Config) validateUIConfig() error {
	if c.UI.Theme != "" {
		validThemes := map[string]bool{
			"default":       true,
			"high-contrast": true,
			"minimal":       true,
		}
		if !validThemes[c.UI.Theme] {
			return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast, minimal)", c.UI.Theme)
		}
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}
