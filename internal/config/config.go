package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	YouTube   YouTubeConfig   `mapstructure:"youtube"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Selection SelectionConfig `mapstructure:"selection"`
	UI        UIConfig        `mapstructure:"ui"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// YouTubeConfig holds API and OAuth client configuration
type YouTubeConfig struct {
	ClientID            string  `mapstructure:"client_id"`
	ClientSecret        string  `mapstructure:"client_secret"`
	RedirectURL         string  `mapstructure:"redirect_url"` // empty = loopback listener
	Endpoint            string  `mapstructure:"endpoint"`    // empty = public API
	Region              string  `mapstructure:"region"`      // category lookup region, e.g. "US"
	RequestsPerSecond   float64 `mapstructure:"requests_per_second"`
	MaxItemsPerPlaylist int     `mapstructure:"max_items_per_playlist"`
}

// CacheConfig holds local storage configuration
type CacheConfig struct {
	TTL  time.Duration `mapstructure:"ttl"`
	Path string        `mapstructure:"path"`
}

// SelectionConfig holds playlist selection limits
type SelectionConfig struct {
	MaxPlaylists int `mapstructure:"max_playlists"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File   string `mapstructure:"file"`
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		YouTube: YouTubeConfig{
			Region:              "US",
			RequestsPerSecond:   5,
			MaxItemsPerPlaylist: 200,
		},
		Cache: CacheConfig{
			TTL:  30 * time.Minute,
			Path: filepath.Join(defaultDataPath(), "shelf.db"),
		},
		Selection: SelectionConfig{
			MaxPlaylists: 5,
		},
		UI: UIConfig{
			Theme: "default",
		},
		Logging: LoggingConfig{
			File:   filepath.Join(defaultDataPath(), "tubeshelf.log"),
			Level:  "INFO",
			Format: "json",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "tubeshelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "tubeshelf")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "tubeshelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "tubeshelf")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	return load(viper.New(), defaultConfigPath())
}

func load(v *viper.Viper, configDir string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Environment variable overrides, e.g. TUBESHELF_YOUTUBE_CLIENT_ID
	v.SetEnvPrefix("TUBESHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// bindEnv registers every key so AutomaticEnv can see nested values that
// appear in neither the file nor the defaults.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"youtube.client_id", "youtube.client_secret", "youtube.redirect_url",
		"youtube.endpoint", "youtube.region", "youtube.requests_per_second",
		"youtube.max_items_per_playlist",
		"cache.ttl", "cache.path",
		"selection.max_playlists",
		"ui.theme",
		"logging.file", "logging.level", "logging.format",
	} {
		_ = v.BindEnv(key)
	}
}

// SaveConfig writes cfg to the default config file
func SaveConfig(cfg *Config) error {
	return save(viper.New(), cfg, defaultConfigPath())
}

func save(v *viper.Viper, cfg *Config, configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("youtube.client_id", cfg.YouTube.ClientID)
	v.Set("youtube.client_secret", cfg.YouTube.ClientSecret)
	v.Set("youtube.redirect_url", cfg.YouTube.RedirectURL)
	v.Set("youtube.endpoint", cfg.YouTube.Endpoint)
	v.Set("youtube.region", cfg.YouTube.Region)
	v.Set("youtube.requests_per_second", cfg.YouTube.RequestsPerSecond)
	v.Set("youtube.max_items_per_playlist", cfg.YouTube.MaxItemsPerPlaylist)

	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("cache.path", cfg.Cache.Path)

	v.Set("selection.max_playlists", cfg.Selection.MaxPlaylists)

	v.Set("ui.theme", cfg.UI.Theme)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.format", cfg.Logging.Format)

	configFile := filepath.Join(configDir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// HasOAuthClient returns true if an OAuth client is configured
func (c *Config) HasOAuthClient() bool {
	return c.YouTube.ClientID != "" && c.YouTube.ClientSecret != ""
}
