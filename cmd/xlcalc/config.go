package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// appName is the single source of truth for the application name.
// Derived identifiers (env vars, config paths) are computed from it.
const appName = "xlcalc"

var envConfigDir = strings.ToUpper(appName) + "_CONFIG_DIR"

// resolveConfigDir returns the base config directory for the application.
// Priority: $<APPNAME>_CONFIG_DIR > $XDG_CONFIG_HOME/<appName> > ~/.config/<appName>
func resolveConfigDir() (string, error) {
	if v := os.Getenv(envConfigDir); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// config holds defaults for flags left unset on the command line.
type config struct {
	Timeout string `yaml:"timeout,omitempty"`
	NoColor bool   `yaml:"no_color,omitempty"`
	Output  string `yaml:"output,omitempty"`
}

// loadConfig reads config.yaml from the config directory. A missing file
// is not an error.
func loadConfig() (config, error) {
	var cfg config
	dir, err := resolveConfigDir()
	if err != nil {
		return cfg, err
	}
	path := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyConfig fills in flags the command line left at their zero value.
func applyConfig(cfg config) {
	if flagTimeout == "" {
		flagTimeout = cfg.Timeout
	}
	if cfg.NoColor {
		flagNoColor = true
	}
	if flagOutput == "" {
		flagOutput = cfg.Output
	}
}
