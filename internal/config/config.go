// Package config provides configuration management for panekit using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with the PANEKIT_ prefix, and validation. It manages server
// settings, the pane manifest location, and navigation defaults like
// activation mode and transition timing.
package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/viper"

	"github.com/panekit/panekit/internal/errors"
	"github.com/panekit/panekit/internal/manifest"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Manifest   ManifestConfig   `yaml:"manifest"`
	Navigation NavigationConfig `yaml:"navigation"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type ManifestConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

type NavigationConfig struct {
	// DefaultMode applies to manifest groups that omit their mode:
	// "tabs", "accordion", or "toggle".
	DefaultMode string `yaml:"default_mode"`
	// TransitionMs is the fallback expand/collapse duration.
	TransitionMs int `yaml:"transition_ms"`
	// MarkerDelayMs is the deferred active-marker delay.
	MarkerDelayMs int `yaml:"marker_delay_ms"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds the configuration from viper's merged sources and applies
// defaults for anything unset.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError("CONFIG_DECODE", fmt.Sprintf("failed to decode configuration: %v", err))
	}

	// Handle settings set via viper directly (workaround for viper
	// slice/bool handling through Unmarshal)
	if viper.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}
	if viper.IsSet("manifest.watch") {
		config.Manifest.Watch = viper.GetBool("manifest.watch")
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8120
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Manifest.Path == "" {
		config.Manifest.Path = "panes.yml"
	}
	if !viper.IsSet("manifest.watch") {
		config.Manifest.Watch = true
	}
	if config.Navigation.DefaultMode == "" {
		config.Navigation.DefaultMode = string(manifest.ModeTabs)
	}
	if config.Navigation.TransitionMs == 0 {
		config.Navigation.TransitionMs = 150
	}
	if config.Navigation.MarkerDelayMs == 0 {
		config.Navigation.MarkerDelayMs = 17
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// Validate checks the configuration for problems, reporting all of them.
func (c *Config) Validate() error {
	ec := errors.NewErrorCollector()

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		ec.Addf("CONFIG_PORT", "server port %d out of range", c.Server.Port)
	}
	if c.Server.Host != "" {
		if ip := net.ParseIP(c.Server.Host); ip == nil && c.Server.Host != "localhost" {
			// Hostnames are fine; reject only strings that cannot be a
			// host at all, like embedded ports.
			if _, _, err := net.SplitHostPort(c.Server.Host); err == nil {
				ec.Addf("CONFIG_HOST", "server host %q must not include a port", c.Server.Host)
			}
		}
	}
	if !manifest.Mode(c.Navigation.DefaultMode).Valid() {
		ec.Addf("CONFIG_MODE", "unknown default mode %q", c.Navigation.DefaultMode)
	}
	if c.Navigation.TransitionMs < 0 {
		ec.Addf("CONFIG_TRANSITION", "transition_ms must not be negative")
	}
	if c.Navigation.MarkerDelayMs < 0 {
		ec.Addf("CONFIG_MARKER", "marker_delay_ms must not be negative")
	}

	if ec.HasErrors() {
		return errors.NewConfigError("CONFIG_INVALID", ec.Err().Error())
	}
	return nil
}

// Addr returns the server's host:port listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// URL returns the server's browsable base URL.
func (c *Config) URL() string {
	return "http://" + c.Addr()
}
