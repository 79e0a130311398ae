package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/jamesainslie/vault/pkg/vault/types"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// PayloadConfig describes which files make up an exported item.
type PayloadConfig struct {
	Primary   string   `mapstructure:"primary"`
	Auxiliary []string `mapstructure:"auxiliary"`
}

// RegistryConfig configures the dependency index store.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// HistoryConfig configures the operation history.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// TrashConfig controls how deleted packages are removed.
type TrashConfig struct {
	Permanent bool `mapstructure:"permanent"`
}

// Config represents the application configuration.
type Config struct {
	StorageRoot   string         `mapstructure:"storage_root"`
	ContentRoot   string         `mapstructure:"content_root"`
	Mount         string         `mapstructure:"mount"`
	EngineVersion string         `mapstructure:"engine_version"`
	Payload       PayloadConfig  `mapstructure:"payload"`
	Registry      RegistryConfig `mapstructure:"registry"`
	History       HistoryConfig  `mapstructure:"history"`
	Trash         TrashConfig    `mapstructure:"trash"`
	Logging       LoggingConfig  `mapstructure:"logging"`
}

// FileSet returns the payload convention described by the config.
func (c *Config) FileSet() types.FileSet {
	fs := types.FileSet{Primary: c.Payload.Primary, Auxiliary: c.Payload.Auxiliary}
	if fs.Primary == "" {
		return types.DefaultFileSet()
	}
	return fs
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/vault/config.yaml
//   - $HOME/.config/vault/config.yaml
//
// Environment variables are prefixed with VAULT_ (e.g., VAULT_STORAGE_ROOT).
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// default locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "vault"))
		}

		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(homeDir, ".config", "vault"))
	}

	v.SetEnvPrefix("VAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("storage_root", DefaultStorageRoot)
	v.SetDefault("content_root", DefaultContentRoot)
	v.SetDefault("mount", DefaultMount)
	v.SetDefault("engine_version", DefaultEngineVersion)
	v.SetDefault("payload.primary", DefaultPrimaryExtension)
	v.SetDefault("payload.auxiliary", DefaultAuxiliaryExtensions)
	v.SetDefault("registry.path", DefaultRegistryPath())
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.retention_days", DefaultRetentionDays)
	v.SetDefault("trash.permanent", false)

	configDir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	v.SetDefault("history.path", filepath.Join(configDir, "history"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"manager":  "info",
		"transfer": "info",
		"catalog":  "info",
		"registry": "warn",
		"watcher":  "warn",
	})

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, p := range []*string{&cfg.StorageRoot, &cfg.ContentRoot, &cfg.Registry.Path, &cfg.History.Path, &cfg.Logging.Path} {
		if *p, err = ExpandPath(*p); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "vault"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "vault"), nil
}

// ConfigFile returns the path of the main config file.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configPath, err := ConfigFile()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	defaultConfig := fmt.Sprintf(`# Vault Asset Package Configuration

# Directory that holds exported packages
storage_root: %s

# Project content directory that imports copy into
content_root: %s

# Project namespace prefix mapped onto content_root
mount: %s

# Engine version recorded in new descriptors
engine_version: %q

# Files that make up one item
payload:
  primary: %s
  auxiliary:
    - .uexp
    - .ubulk
    - .umap

# Dependency index store
registry:
  path: %s

# Operation history
history:
  enabled: true
  path: %s
  retention_days: %d

# Delete removes packages permanently instead of using the system trash
trash:
  permanent: false

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/vault/vault.log)
  path: ""
  rotation:
    max_size: %s
    max_age: 30       # days
    max_backups: 5
    daily: true
  # Per-component log levels
  components:
    manager: info
    transfer: info
    catalog: info
    registry: warn
    watcher: warn
`, DefaultStorageRoot, DefaultContentRoot, DefaultMount, DefaultEngineVersion, DefaultPrimaryExtension,
		DefaultRegistryPath(), filepath.Join(configDir, "history"), DefaultRetentionDays, DefaultLogMaxSize)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
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

// DataDir returns $XDG_DATA_HOME/vault/ for the dependency index.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "vault")
}

// StateDir returns $XDG_STATE_HOME/vault/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "vault")
}

// DefaultRegistryPath returns the default dependency index directory.
func DefaultRegistryPath() string {
	return filepath.Join(DataDir(), "index")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "vault.log")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	if err := os.MkdirAll(DataDir(), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}
