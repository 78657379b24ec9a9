// Package config holds the explicit configuration value shared by the
// session controller, the delivery engine, and the batch runner. There is
// no global state: callers construct a Config (defaults, optionally layered
// with a YAML file and flag overrides) and pass it down.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values, tuned against the current web client. They are empirical,
// not derived from any contract of the remote service, which is why they
// live in configuration rather than as constants in the delivery engine.
const (
	DefaultServiceURL             = "https://web.whatsapp.com"
	DefaultWaitTimeoutSeconds     = 60.0
	DefaultComposerTimeoutSeconds = 15.0
	DefaultPostSendDelaySeconds   = 3.0
	DefaultLogLevel               = "info"
)

// Config is the full runtime configuration.
type Config struct {
	// ServiceURL is the root URL of the target messaging web client.
	ServiceURL string `yaml:"service_url"`

	// ProfileDir is the persistent browser profile directory. The profile
	// must already hold an authenticated session; the QR-scan login happens
	// out of band, which is also why Headful must stay true.
	ProfileDir string `yaml:"profile_dir"`

	// Headful keeps the browser window visible. The target service requires
	// an interactive, authenticated profile, so headless runs are rejected.
	Headful bool `yaml:"headful"`

	// SuppressAutomation reduces remote automation-detection signals
	// (navigator.webdriver and the enable-automation switch).
	SuppressAutomation bool `yaml:"suppress_automation"`

	// DisableImages reduces page weight by disabling image loading and
	// browser extensions.
	DisableImages bool `yaml:"disable_images"`

	// WaitTimeoutSeconds bounds the initial page-load wait for the
	// conversation-list landmark.
	WaitTimeoutSeconds float64 `yaml:"wait_timeout_seconds"`

	// ComposerTimeoutSeconds is the overall budget for the locator fallback
	// chain on a single message attempt.
	ComposerTimeoutSeconds float64 `yaml:"composer_timeout_seconds"`

	// PostSendDelaySeconds is the settle delay after a successful submit,
	// before the next navigation begins. It guards against the composer
	// still being mid-transition; it is not a delivery confirmation.
	PostSendDelaySeconds float64 `yaml:"post_send_delay_seconds"`

	// LogLevel is the zap log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration with all default values applied.
func Default() Config {
	return Config{
		ServiceURL:             DefaultServiceURL,
		Headful:                true,
		SuppressAutomation:     true,
		DisableImages:          false,
		WaitTimeoutSeconds:     DefaultWaitTimeoutSeconds,
		ComposerTimeoutSeconds: DefaultComposerTimeoutSeconds,
		PostSendDelaySeconds:   DefaultPostSendDelaySeconds,
		LogLevel:               DefaultLogLevel,
	}
}

// Load reads a YAML configuration file layered over the defaults. Fields
// absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks for values the rest of the system cannot work with.
func (c Config) Validate() error {
	if c.ServiceURL == "" {
		return fmt.Errorf("service_url must not be empty")
	}
	if c.WaitTimeoutSeconds <= 0 {
		return fmt.Errorf("wait_timeout_seconds must be positive, got %v", c.WaitTimeoutSeconds)
	}
	if c.ComposerTimeoutSeconds <= 0 {
		return fmt.Errorf("composer_timeout_seconds must be positive, got %v", c.ComposerTimeoutSeconds)
	}
	if c.PostSendDelaySeconds < 0 {
		return fmt.Errorf("post_send_delay_seconds must not be negative, got %v", c.PostSendDelaySeconds)
	}
	return nil
}

// WaitTimeout returns the landmark wait as a duration.
func (c Config) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSeconds * float64(time.Second))
}

// ComposerTimeout returns the fallback-chain budget as a duration.
func (c Config) ComposerTimeout() time.Duration {
	return time.Duration(c.ComposerTimeoutSeconds * float64(time.Second))
}

// PostSendDelay returns the settle delay as a duration.
func (c Config) PostSendDelay() time.Duration {
	return time.Duration(c.PostSendDelaySeconds * float64(time.Second))
}
