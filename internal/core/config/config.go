// Package config handles configuration loading and validation for morph.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Memory selects an ephemeral in-memory database wherever a database path
// is expected.
const Memory = ":memory:"

// Config holds the application configuration.
type Config struct {
	History   HistoryConfig   `yaml:"history"`
	Downloads DownloadsConfig `yaml:"downloads"`
	Cookies   CookiesConfig   `yaml:"cookies"`
	Tabs      TabsConfig      `yaml:"tabs"`
	Hooks     HooksConfig     `yaml:"hooks"`
	Favicon   FaviconConfig   `yaml:"favicon"`
	Intent    IntentConfig    `yaml:"intent"`
	Browse    BrowseConfig    `yaml:"browse"`
	DataDir   string          `yaml:"-"` // set by caller, not from config file
}

// HistoryConfig locates the browsing history database.
type HistoryConfig struct {
	Database string `yaml:"database"`
}

// DownloadsConfig locates the downloads database and download directory.
type DownloadsConfig struct {
	Database  string `yaml:"database"`
	Directory string `yaml:"directory"`
}

// CookiesConfig locates the cookie database.
type CookiesConfig struct {
	Database string `yaml:"database"`
}

// TabsConfig locates the saved session.
type TabsConfig struct {
	SessionFile string `yaml:"session_file"`
}

// HooksConfig holds the directories used by webapp hook reconciliation.
type HooksConfig struct {
	ProcessedDir string `yaml:"processed_dir"`
	InstalledDir string `yaml:"installed_dir"`
	CacheDir     string `yaml:"cache_dir"`
	DataDir      string `yaml:"data_dir"`
	MetricsFile  string `yaml:"metrics_file"` // optional prometheus textfile
}

// FaviconConfig configures icon fetching.
type FaviconConfig struct {
	CacheDir string        `yaml:"cache_dir"`
	Timeout  time.Duration `yaml:"timeout"`
}

// IntentConfig configures custom scheme filtering.
type IntentConfig struct {
	FilterFile string `yaml:"filter_file"` // optional JSON scheme filter file
}

// BrowseConfig configures the history browser.
type BrowseConfig struct {
	Limit int `yaml:"limit"` // rows shown, -1 for all
}

// DefaultConfig returns a Config with sensible defaults. Relative paths are
// resolved against the data directory by Load.
func DefaultConfig() Config {
	return Config{
		History:   HistoryConfig{Database: "history.sqlite"},
		Downloads: DownloadsConfig{Database: "downloads.sqlite", Directory: defaultDownloadDir()},
		Cookies:   CookiesConfig{Database: "cookies.sqlite"},
		Tabs:      TabsConfig{SessionFile: "session.json"},
		Hooks: HooksConfig{
			ProcessedDir: filepath.Join(xdgDir("XDG_CACHE_HOME", ".cache"), "webapp-container"),
			InstalledDir: filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), "webapp-container"),
			CacheDir:     xdgDir("XDG_CACHE_HOME", ".cache"),
			DataDir:      xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")),
		},
		Favicon: FaviconConfig{CacheDir: "favicons", Timeout: 10 * time.Second},
		Browse:  BrowseConfig{Limit: 200},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	setDefault(&c.History.Database, defaults.History.Database)
	setDefault(&c.Downloads.Database, defaults.Downloads.Database)
	setDefault(&c.Downloads.Directory, defaults.Downloads.Directory)
	setDefault(&c.Cookies.Database, defaults.Cookies.Database)
	setDefault(&c.Tabs.SessionFile, defaults.Tabs.SessionFile)
	setDefault(&c.Hooks.ProcessedDir, defaults.Hooks.ProcessedDir)
	setDefault(&c.Hooks.InstalledDir, defaults.Hooks.InstalledDir)
	setDefault(&c.Hooks.CacheDir, defaults.Hooks.CacheDir)
	setDefault(&c.Hooks.DataDir, defaults.Hooks.DataDir)
	setDefault(&c.Favicon.CacheDir, defaults.Favicon.CacheDir)
	if c.Favicon.Timeout == 0 {
		c.Favicon.Timeout = defaults.Favicon.Timeout
	}
	if c.Browse.Limit == 0 {
		c.Browse.Limit = defaults.Browse.Limit
	}
}

// resolvePaths makes relative paths absolute under the data directory.
func (c *Config) resolvePaths() {
	for _, p := range []*string{
		&c.History.Database,
		&c.Downloads.Database,
		&c.Cookies.Database,
		&c.Tabs.SessionFile,
		&c.Favicon.CacheDir,
		&c.Hooks.MetricsFile,
		&c.Intent.FilterFile,
	} {
		*p = c.resolve(*p)
	}
}

func (c *Config) resolve(path string) string {
	if path == "" || path == Memory || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Hooks.ProcessedDir == c.Hooks.InstalledDir {
		return fmt.Errorf("hooks.processed_dir and hooks.installed_dir must differ")
	}

	if c.Favicon.Timeout < 0 {
		return fmt.Errorf("favicon.timeout cannot be negative")
	}

	if c.Browse.Limit < -1 {
		return fmt.Errorf("browse.limit must be -1 (unlimited) or positive")
	}

	return nil
}

func defaultDownloadDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Downloads")
}

// xdgDir returns the value of the XDG variable env, or fallback under the
// home directory.
func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, fallback)
}
