// config/config.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package config holds the plugin's settings, which live in a TOML file in
// the plugin's directory, and the SimBrief username file next to it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultPluginName   = "flightstream"
	DefaultBaseURL      = "https://www.simbrief.com"
	DefaultUserAgent    = "flightstream"
	DefaultIntervalMS   = 100
	DefaultLogLevel     = "info"
	SettingsFileName    = "flightstream.toml"
	UsernameFileName    = "username.txt"
	fmsPlansDir         = "Output/FMS plans"
	pluginsResourcesDir = "Resources/plugins"
)

// Plugin identifies the plugin and where the host is installed.
type Plugin struct {
	Name    string `toml:"name"`
	RootDir string `toml:"root_dir"`
}

// SimBrief configures the remote flight planning service.
type SimBrief struct {
	BaseURL               string `toml:"base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	UserAgent             string `toml:"user_agent"`
}

// FlightLoop configures how the host polls for finished downloads.
type FlightLoop struct {
	IntervalMS int `toml:"interval_ms"`
	FMSIndex   int `toml:"fms_index"`
}

type Logging struct {
	Level string `toml:"level"`
	Dir   string `toml:"dir"`
}

type Username struct {
	Watch bool `toml:"watch"`
}

type Config struct {
	Plugin     Plugin     `toml:"plugin"`
	SimBrief   SimBrief   `toml:"simbrief"`
	FlightLoop FlightLoop `toml:"flight_loop"`
	Logging    Logging    `toml:"logging"`
	Username   Username   `toml:"username"`
}

// Default returns the configuration used when no settings file exists.
func Default() Config {
	return Config{
		Plugin: Plugin{
			Name:    DefaultPluginName,
			RootDir: ".",
		},
		SimBrief: SimBrief{
			BaseURL:   DefaultBaseURL,
			UserAgent: DefaultUserAgent,
		},
		FlightLoop: FlightLoop{
			IntervalMS: DefaultIntervalMS,
		},
		Logging: Logging{
			Level: DefaultLogLevel,
		},
	}
}

// Load reads the settings file at path, falling back to the defaults for
// anything it doesn't set. If path is empty, the settings file in the
// plugin directory is used. A non-empty rootDir overrides the file's
// root_dir. The returned bool reports whether a settings file was found.
func Load(path, rootDir string) (*Config, bool, error) {
	cfg := Default()
	if rootDir != "" {
		cfg.Plugin.RootDir = rootDir
	}
	if path == "" {
		path = cfg.SettingsPath()
	}

	exists := true
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("open config: %w", err)
		}
		exists = false
	} else {
		defer f.Close()

		if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, false, fmt.Errorf("parse config %s: %w", path, err)
		}
		if rootDir != "" {
			cfg.Plugin.RootDir = rootDir
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

func (c *Config) normalize() error {
	c.Plugin.Name = strings.TrimSpace(c.Plugin.Name)
	c.Plugin.RootDir = strings.TrimSpace(c.Plugin.RootDir)
	if c.Plugin.RootDir == "" {
		c.Plugin.RootDir = "."
	}
	root, err := filepath.Abs(c.Plugin.RootDir)
	if err != nil {
		return fmt.Errorf("resolve root_dir: %w", err)
	}
	c.Plugin.RootDir = root

	c.SimBrief.BaseURL = strings.TrimRight(strings.TrimSpace(c.SimBrief.BaseURL), "/")
	if c.SimBrief.BaseURL == "" {
		c.SimBrief.BaseURL = DefaultBaseURL
	}
	c.SimBrief.UserAgent = strings.TrimSpace(c.SimBrief.UserAgent)
	if c.SimBrief.UserAgent == "" {
		c.SimBrief.UserAgent = DefaultUserAgent
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	c.Logging.Dir = strings.TrimSpace(c.Logging.Dir)
	if c.Logging.Dir == "" {
		c.Logging.Dir = c.PluginDir()
	}
	return nil
}

// Validate checks the configuration for values that can't work.
func (c *Config) Validate() error {
	if c.Plugin.Name == "" {
		return errors.New("plugin.name must not be empty")
	}
	if strings.ContainsAny(c.Plugin.Name, `/\`) || c.Plugin.Name == "." || c.Plugin.Name == ".." {
		return fmt.Errorf("plugin.name %q must be a plain directory name", c.Plugin.Name)
	}

	u, err := url.Parse(c.SimBrief.BaseURL)
	if err != nil {
		return fmt.Errorf("simbrief.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("simbrief.base_url %q must be an http or https URL", c.SimBrief.BaseURL)
	}
	if c.SimBrief.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("simbrief.request_timeout_seconds must be >= 0, got %d", c.SimBrief.RequestTimeoutSeconds)
	}

	if c.FlightLoop.IntervalMS <= 0 {
		return fmt.Errorf("flight_loop.interval_ms must be positive, got %d", c.FlightLoop.IntervalMS)
	}
	if c.FlightLoop.FMSIndex < 0 {
		return fmt.Errorf("flight_loop.fms_index must be >= 0, got %d", c.FlightLoop.FMSIndex)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// PluginDir is the plugin's directory under the host's Resources/plugins.
func (c *Config) PluginDir() string {
	return filepath.Join(c.Plugin.RootDir, filepath.FromSlash(pluginsResourcesDir), c.Plugin.Name)
}

func (c *Config) SettingsPath() string {
	return filepath.Join(c.PluginDir(), SettingsFileName)
}

func (c *Config) UsernamePath() string {
	return filepath.Join(c.PluginDir(), UsernameFileName)
}

// FMSPlansDir is where the host keeps flight plan files.
func (c *Config) FMSPlansDir() string {
	return filepath.Join(c.Plugin.RootDir, filepath.FromSlash(fmsPlansDir))
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.FlightLoop.IntervalMS) * time.Millisecond
}

// RequestTimeout returns zero if requests may take arbitrarily long.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.SimBrief.RequestTimeoutSeconds) * time.Second
}

// Encode writes the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
