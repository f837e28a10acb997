package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	DBPath   string              `toml:"db_path"`
	Server   ServerConfig        `toml:"server"`
	Log      LogConfig           `toml:"log"`
	Sessions SessionsConfig      `toml:"sessions"`
	Guard    GuardConfig         `toml:"guard"`
	Archive  ArchiveConfig       `toml:"archive"`
	Feeds    map[string]FeedInfo `toml:"feeds"`
}

type ServerConfig struct {
	Addr      string  `toml:"addr"`
	PageSize  int     `toml:"page_size"`
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

type LogConfig struct {
	Debug      bool   `toml:"debug"`
	File       string `toml:"file,omitempty"`
	MaxSizeMB  int    `toml:"max_size_mb,omitempty"`
	MaxBackups int    `toml:"max_backups,omitempty"`
	MaxAgeDays int    `toml:"max_age_days,omitempty"`
	Compress   bool   `toml:"compress,omitempty"`
}

type SessionsConfig struct {
	Capacity int      `toml:"capacity"`
	TTL      Duration `toml:"ttl"`
}

type GuardConfig struct {
	Enabled        bool     `toml:"enabled"`
	ForbiddenWords []string `toml:"forbidden_words,omitempty"`
	BlockLinks     bool     `toml:"block_links"`
	LinkPattern    string   `toml:"link_pattern,omitempty"`
}

type ArchiveConfig struct {
	ExportDir  string `toml:"export_dir,omitempty"`
	KeepMonths int    `toml:"keep_months"`
}

type FeedInfo struct {
	URL string `toml:"url"`
	// Interval specifies how often this feed should be fetched.
	// If not specified, defaults to 30 minutes.
	Interval *Duration `toml:"interval,omitempty"`
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

func GetDefaultConfig() (*Config, error) {
	dbPath, err := GetDefaultDBPath()
	if err != nil {
		return nil, fmt.Errorf("getting default database path: %w", err)
	}
	return &Config{
		DBPath: dbPath,
		Server: ServerConfig{
			Addr:      ":8787",
			PageSize:  10,
			RateLimit: 5,
			RateBurst: 10,
		},
		Sessions: SessionsConfig{
			Capacity: 1024,
			TTL:      Duration{24 * time.Hour},
		},
		Guard: GuardConfig{
			Enabled:    false,
			BlockLinks: true,
		},
		Archive: ArchiveConfig{
			KeepMonths: 6,
		},
		Feeds: make(map[string]FeedInfo),
	}, nil
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

	if config.DBPath == "" {
		dbPath, err := GetDefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("getting default database path: %w", err)
		}
		config.DBPath = dbPath
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8787"
	}
	if config.Server.PageSize <= 0 {
		config.Server.PageSize = 10
	}
	if config.Server.RateLimit <= 0 {
		config.Server.RateLimit = 5
	}
	if config.Server.RateBurst <= 0 {
		config.Server.RateBurst = 10
	}
	if config.Sessions.Capacity <= 0 {
		config.Sessions.Capacity = 1024
	}
	if config.Sessions.TTL.Duration <= 0 {
		config.Sessions.TTL = Duration{24 * time.Hour}
	}
	if config.Archive.KeepMonths <= 0 {
		config.Archive.KeepMonths = 6
	}
	if config.Feeds == nil {
		config.Feeds = make(map[string]FeedInfo)
	}

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

func (c *Config) AddFeed(name, url string, interval *Duration) {
	c.Feeds[name] = FeedInfo{URL: url, Interval: interval}
}

func (c *Config) RemoveFeed(name string) {
	delete(c.Feeds, name)
}

func (c *Config) GetFeedInterval(name string) time.Duration {
	info, exists := c.Feeds[name]
	if !exists || info.Interval == nil {
		return 30 * time.Minute // Default to 30 minutes
	}
	return info.Interval.Duration
}

func (c *Config) ListFeeds() []string {
	names := make([]string, 0, len(c.Feeds))
	for name := range c.Feeds {
		names = append(names, name)
	}
	return names
}

// GetDefaultDataDir returns the default data directory for the database
// and archive exports
func GetDefaultDataDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	vestnikDir := filepath.Join(dataDir, "vestnik")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(vestnikDir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", vestnikDir, err)
	}

	return vestnikDir, nil
}

// GetDefaultDBPath returns the default database path in the user's data directory
func GetDefaultDBPath() (string, error) {
	dataDir, err := GetDefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "vestnik.db"), nil
}

// GetConfigDir returns the configuration directory for vestnik
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	vestnikConfigDir := filepath.Join(configDir, "vestnik")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(vestnikConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", vestnikConfigDir, err)
	}

	return vestnikConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
