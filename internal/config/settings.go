package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for environment overrides, e.g. FETCHNAME_DOWNLOAD_DIR.
const EnvPrefix = "FETCHNAME"

const (
	DefaultConnectTimeout = 1000 * time.Millisecond
	DefaultMaxProbes      = 10000
	DefaultLogRetention   = 5
	DefaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"
)

// Settings holds user configuration. The download directory is passed
// explicitly to the resolver instead of living in a package global.
type Settings struct {
	DownloadDir    string        `yaml:"download_dir" envconfig:"DOWNLOAD_DIR"`
	DefaultExt     string        `yaml:"default_ext" envconfig:"DEFAULT_EXT"`
	UserAgent      string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"CONNECT_TIMEOUT"`
	HTTP3          bool          `yaml:"http3" envconfig:"HTTP3"`
	LogRetention   int           `yaml:"log_retention" envconfig:"LOG_RETENTION"`
	MaxProbes      int           `yaml:"max_probes" envconfig:"MAX_PROBES"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() *Settings {
	return &Settings{
		DownloadDir:    GetDefaultDownloadDir(),
		UserAgent:      DefaultUserAgent,
		ConnectTimeout: DefaultConnectTimeout,
		LogRetention:   DefaultLogRetention,
		MaxProbes:      DefaultMaxProbes,
	}
}

// LoadSettings reads the settings file at the default location.
func LoadSettings() (*Settings, error) {
	return LoadSettingsFrom(GetSettingsPath())
}

// LoadSettingsFrom reads settings from path, layering file values over the
// defaults and environment values over both. A missing file is not an error.
func LoadSettingsFrom(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, settings); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	settings.normalize()
	return settings, nil
}

// SaveSettings writes settings as YAML, creating the parent directory.
func SaveSettings(path string, settings *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// normalize repairs zero or nonsensical values left by partial files.
func (s *Settings) normalize() {
	if s.DownloadDir == "" {
		s.DownloadDir = GetDefaultDownloadDir()
	}
	if s.UserAgent == "" {
		s.UserAgent = DefaultUserAgent
	}
	if s.ConnectTimeout <= 0 {
		s.ConnectTimeout = DefaultConnectTimeout
	}
	if s.MaxProbes <= 0 {
		s.MaxProbes = DefaultMaxProbes
	}
	if s.DefaultExt != "" && s.DefaultExt[0] != '.' {
		s.DefaultExt = "." + s.DefaultExt
	}
}
