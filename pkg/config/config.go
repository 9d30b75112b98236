package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

const appName = "leaderboard"

type Config struct {
	StorageDir string        `toml:"storage_dir"`
	Source     SourceConfig  `toml:"source"`
	Server     ServerConfig  `toml:"server"`
	Timings    TimingsConfig `toml:"timings"`
	View       ViewConfig    `toml:"view"`
}

// SourceConfig says where the leaderboard dataset comes from. File takes
// precedence over URL when both are set.
type SourceConfig struct {
	URL             string   `toml:"url"`
	File            string   `toml:"file,omitempty"`
	Token           string   `toml:"token,omitempty"`
	RefreshInterval Duration `toml:"refresh_interval"`
	CacheTTL        Duration `toml:"cache_ttl"`
	Watch           bool     `toml:"watch"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type TimingsConfig struct {
	SearchDebounce Duration `toml:"search_debounce"`
	RangeDebounce  Duration `toml:"range_debounce"`
	ToggleWindow   Duration `toml:"toggle_window"`
	ReloadDebounce Duration `toml:"reload_debounce"`
}

type ViewConfig struct {
	PinnedBypassFilters *bool `toml:"pinned_bypass_filters,omitempty"`
}

// PinnedBypass reports whether pinned rows stay visible when filtered out.
// Defaults to true.
func (v ViewConfig) PinnedBypass() bool {
	return v.PinnedBypassFilters == nil || *v.PinnedBypassFilters
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

const DefaultSourceURL = "https://huggingface.co/api/leaderboard/formatted"

func GetDefaultConfig() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	c := &Config{StorageDir: storageDir}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Source.URL == "" && c.Source.File == "" {
		c.Source.URL = DefaultSourceURL
	}
	setDuration(&c.Source.RefreshInterval, 5*time.Minute)
	setDuration(&c.Source.CacheTTL, 5*time.Minute)
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	setDuration(&c.Timings.SearchDebounce, 150*time.Millisecond)
	setDuration(&c.Timings.RangeDebounce, 350*time.Millisecond)
	setDuration(&c.Timings.ToggleWindow, 100*time.Millisecond)
	setDuration(&c.Timings.ReloadDebounce, 250*time.Millisecond)
}

func setDuration(d *Duration, def time.Duration) {
	if d.Duration <= 0 {
		d.Duration = def
	}
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		config.StorageDir = storageDir
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	template := strings.Replace(configTemplate, "/home/user/.local/share/leaderboard", c.StorageDir, 1)
	return os.WriteFile(configPath, []byte(template), 0644)
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// CachePath returns the dataset cache database path.
func (c *Config) CachePath() string {
	return filepath.Join(c.StorageDir, "cache.db")
}

// GetDefaultStorageDir returns the data directory, creating it if needed.
func GetDefaultStorageDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// GetConfigDir returns the configuration directory, creating it if needed.
func GetConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

func xdgDir(env string, fallback ...string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		base = filepath.Join(append([]string{homeDir}, fallback...)...)
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
