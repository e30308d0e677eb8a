package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	appLog "famcal/internal/log"
)

// Member describes one household member for organizer attribution and
// display styling.
type Member struct {
	Name     string `koanf:"name" yaml:"name" json:"name"`
	Color    string `koanf:"color" yaml:"color" json:"color"`
	Initials string `koanf:"initials" yaml:"initials" json:"initials"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the display API.
	Listen string `koanf:"listen" yaml:"listen"`

	// FeedURL is the upstream ICS feed endpoint. webcal:// URLs are
	// accepted and normalized to https:// at fetch time. Required.
	FeedURL string `koanf:"feed_url" yaml:"feed_url"`

	// FeedSecret is the shared secret sent as the X-Api-Key header on
	// feed fetches and required from clients of the feed proxy. Required.
	FeedSecret string `koanf:"feed_secret" yaml:"feed_secret"`

	// Timezone is the IANA display timezone (e.g. "America/New_York").
	// Empty means the host's local zone.
	Timezone string `koanf:"timezone" yaml:"timezone"`

	// RefreshCron is the cron schedule for background refresh runs.
	RefreshCron string `koanf:"refresh" yaml:"refresh"`

	// LogLevel is a logrus level name ("debug", "info", ...).
	LogLevel string `koanf:"log_level" yaml:"log_level"`

	// Members is the ordered household member directory. The reserved
	// "Family" fallback entry is implicit and need not be listed.
	Members []Member `koanf:"members" yaml:"members"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "",
		RefreshCron: "*/5 * * * *",
		LogLevel:    "info",
		Members:     []Member{},
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/5 * * * *"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Members == nil {
		c.Members = []Member{}
	}
}

// Validate enforces the fail-fast configuration contract: a missing feed
// URL or shared secret is an operator error, reported before any network
// I/O is attempted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.FeedURL) == "" {
		return errors.New("config: feed_url is required (set feed_url or FAMCAL_FEED_URL)")
	}
	if strings.TrimSpace(c.FeedSecret) == "" {
		return errors.New("config: feed_secret is required (set feed_secret or FAMCAL_FEED_SECRET)")
	}
	return nil
}

// Load reads configuration in three layers: struct defaults, the YAML
// file at path (created with defaults on first run), then FAMCAL_*
// environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(*DefaultConfig(), "koanf"), nil); err != nil {
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
				// First run: persist the defaults so operators have a
				// file to edit, then continue with env overrides.
				if saveErr := Save(path, DefaultConfig()); saveErr != nil {
					appLog.Error("failed to write default config", saveErr, "path", path)
				} else {
					appLog.Info("wrote default config", "path", path)
				}
			} else {
				return nil, err
			}
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: "FAMCAL_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "FAMCAL_"))
			return key, value
		},
	}), nil)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".famcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
