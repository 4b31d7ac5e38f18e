package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config holds the configuration for the PixelBin server.
type Config struct {
	// Listen is the address the server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the base URL of the server, used when rendering share links.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// DataDir is the directory where uploaded images and thumbnails are stored.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	// Gzip enables gzip compression for HTML responses.
	Gzip bool `yaml:"gzip" mapstructure:"gzip"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Session holds the cookie session configuration.
	Session *SessionConfig `yaml:"session" mapstructure:"session"`
	// Thumbnail holds the thumbnail generation configuration.
	Thumbnail *ThumbnailConfig `yaml:"thumbnail" mapstructure:"thumbnail"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the directory containing the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// SessionConfig holds the cookie session configuration.
type SessionConfig struct {
	// Key is the key used to authenticate session cookies.
	// If empty, a random key is generated at startup and sessions
	// won't survive a restart.
	Key string `yaml:"key" mapstructure:"key"`
	// MaxAge is the maximum age of a session in seconds.
	MaxAge int `yaml:"max_age" mapstructure:"max_age"`
}

// ThumbnailConfig holds the thumbnail generation configuration.
type ThumbnailConfig struct {
	// Width is the maximum thumbnail width in pixels.
	Width int `yaml:"width" mapstructure:"width"`
	// Height is the maximum thumbnail height in pixels.
	Height int `yaml:"height" mapstructure:"height"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// If no config file is found, defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("PIXELBIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		// Use specific config file
		v.SetConfigFile(path)
	} else {
		// Search for config in common locations
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pixelbin")
		v.AddConfigPath("/etc/pixelbin")
	}

	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with PIXELBIN_ prefix will override config file values")
	}

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3003")
	v.SetDefault("server_url", "http://localhost:3003")
	v.SetDefault("data_dir", "./data/uploads")
	v.SetDefault("gzip", true)

	v.SetDefault("database.path", "./data")

	v.SetDefault("session.key", "")
	v.SetDefault("session.max_age", 172800) // 48 hours

	v.SetDefault("thumbnail.width", 128)
	v.SetDefault("thumbnail.height", 128)
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing config")
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Session == nil {
		return fmt.Errorf("missing session config")
	}
	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("session max_age must be positive")
	}
	if c.Session.Key == "" {
		log.Warn("No session key configured, a random key will be generated and sessions won't survive a restart")
	}

	if c.Thumbnail == nil {
		return fmt.Errorf("missing thumbnail config")
	}
	if c.Thumbnail.Width <= 0 || c.Thumbnail.Height <= 0 {
		return fmt.Errorf("thumbnail dimensions must be positive")
	}

	return nil
}
