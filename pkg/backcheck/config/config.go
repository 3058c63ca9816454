package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	Path         string `mapstructure:"path"`
	ConsoleLevel string `mapstructure:"console_level"`
}

// Config represents the application configuration.
type Config struct {
	ManifestName   string        `mapstructure:"manifest_name"`
	SummaryName    string        `mapstructure:"summary_name"`
	Output         string        `mapstructure:"output"`
	ChunkSize      string        `mapstructure:"chunk_size"`
	FollowSymlinks bool          `mapstructure:"follow_symlinks"`
	Logging        LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/backcheck/config.yaml
//   - $HOME/.config/backcheck/config.yaml
//
// Environment variables are prefixed with BACKCHECK_
// (e.g. BACKCHECK_CHUNK_SIZE).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "backcheck"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "backcheck"))

	v.SetEnvPrefix("BACKCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults registers the default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("manifest_name", DefaultManifestName)
	v.SetDefault("summary_name", DefaultSummaryName)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("follow_symlinks", DefaultFollowSymlinks)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.console_level", "")
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "backcheck"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "backcheck"), nil
}

// StateDir returns $XDG_STATE_HOME/backcheck/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "backcheck")
}

// ExpandPath expands a leading ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Backcheck Configuration

# Manifest filename written by "backcheck build"
manifest_name: %s

# Plain-text report filename written by "backcheck verify"
summary_name: %s

# Report format: pretty, plain, json
output: %s

# Read buffer size for hashing (e.g. 64K, 1MiB, 8M)
chunk_size: %s

# Follow symbolic links during scans
follow_symlinks: %t

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/backcheck/backcheck.log)
  path: ""
  # Also log to stderr at this level (empty disables console logging)
  console_level: ""
`, DefaultManifestName, DefaultSummaryName, DefaultOutput, DefaultChunkSize, DefaultFollowSymlinks)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}
