package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultServiceURL, cfg.ServiceURL)
	assert.True(t, cfg.Headful)
	assert.True(t, cfg.SuppressAutomation)
	assert.False(t, cfg.DisableImages)
	assert.Equal(t, 60*time.Second, cfg.WaitTimeout())
	assert.Equal(t, 15*time.Second, cfg.ComposerTimeout())
	assert.Equal(t, 3*time.Second, cfg.PostSendDelay())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "post_send_delay_seconds: 5.5\nlog_level: debug\nprofile_dir: /tmp/profile\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Overridden fields take the file values, everything else keeps its
	// default.
	assert.Equal(t, 5.5, cfg.PostSendDelaySeconds)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/profile", cfg.ProfileDir)
	assert.Equal(t, DefaultServiceURL, cfg.ServiceURL)
	assert.Equal(t, DefaultWaitTimeoutSeconds, cfg.WaitTimeoutSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wait_timeout_seconds: -1\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"empty service url", func(c *Config) { c.ServiceURL = "" }, true},
		{"zero wait timeout", func(c *Config) { c.WaitTimeoutSeconds = 0 }, true},
		{"negative composer timeout", func(c *Config) { c.ComposerTimeoutSeconds = -3 }, true},
		{"negative settle delay", func(c *Config) { c.PostSendDelaySeconds = -0.1 }, true},
		{"zero settle delay allowed", func(c *Config) { c.PostSendDelaySeconds = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
