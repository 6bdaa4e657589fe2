// Package config loads the panel's yaml configuration: keypad variant,
// display polarity, debounce/flash timing, and the optional serial
// sink for a hardware-attached panel.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Panel PanelConfig `yaml:"panel"`
}

type PanelConfig struct {
	// Variant selects the keypad layout: "standard" or "arrows".
	Variant string `yaml:"variant"`
	// ActiveLow marks common-anode displays whose patterns invert.
	ActiveLow bool `yaml:"active_low"`

	Delays DelayConfig  `yaml:"delays"`
	Serial SerialConfig `yaml:"serial"`
}

type DelayConfig struct {
	KeyPressMs     int `yaml:"key_press_ms"`
	KeyReleaseMs   int `yaml:"key_release_ms"`
	PowerPressMs   int `yaml:"power_press_ms"`
	PowerReleaseMs int `yaml:"power_release_ms"`
	FlashMs        int `yaml:"flash_ms"`
	StartupMs      int `yaml:"startup_ms"`
}

type SerialConfig struct {
	// Address is the port, e.g. /dev/ttyUSB0. Empty disables the
	// serial sink.
	Address   string `yaml:"address"`
	BaudRate  int    `yaml:"baud_rate"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Parse decodes raw yaml into a normalized, validated Config.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the file at path. A missing path yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := &Config{}
		Normalize(cfg)
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(raw)
}
