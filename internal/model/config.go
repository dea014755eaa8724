package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Session storage backends.
const (
	SessionBackendKeyring = "keyring"
	SessionBackendSQLite  = "sqlite"
)

// APIConfig describes the remote todo API.
type APIConfig struct {
	// BaseURL is the root every endpoint is joined to.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single request. Zero leaves the transport default.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// UpdateMethod is the HTTP method used for partial updates (POST or PUT).
	UpdateMethod string `mapstructure:"update_method" yaml:"update_method"`
}

// SessionConfig controls where the session token lives.
type SessionConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"`
	Key        string `mapstructure:"key" yaml:"key"`
	KeyringDir string `mapstructure:"keyring_dir" yaml:"keyring_dir"`
}

// StorageConfig holds local persistence settings.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// TodosConfig holds todo list policies.
type TodosConfig struct {
	ConfirmDelete        bool `mapstructure:"confirm_delete" yaml:"confirm_delete"`
	RollbackFailedToggle bool `mapstructure:"rollback_failed_toggle" yaml:"rollback_failed_toggle"`

	// RefreshIntervalSec enables background reconciliation when positive.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
}

// LogConfig holds debug log settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Todos   TodosConfig   `mapstructure:"todos" yaml:"todos"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// ConfigDir returns ~/.config/todo-client, falling back to the working
// directory when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "todo-client")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// SetDefaults registers every configuration key with its default value.
// Registering all keys also lets viper resolve TODO_* environment overrides.
func SetDefaults(v *viper.Viper) {
	dir := ConfigDir()
	v.SetDefault("api.base_url", "http://localhost:8080/")
	v.SetDefault("api.timeout_sec", 0)
	v.SetDefault("api.update_method", "POST")
	v.SetDefault("session.backend", SessionBackendKeyring)
	v.SetDefault("session.key", "token")
	v.SetDefault("session.keyring_dir", filepath.Join(dir, "credentials"))
	v.SetDefault("storage.db_path", filepath.Join(dir, "todo.db"))
	v.SetDefault("todos.confirm_delete", true)
	v.SetDefault("todos.rollback_failed_toggle", true)
	v.SetDefault("todos.refresh_interval_sec", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dir, "debug.log"))
}

// NewViper returns a viper instance reading the YAML file at path with
// defaults and TODO_* environment overrides applied.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TODO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error; defaults apply.
func LoadConfig(path string) (*AppConfig, error) {
	return LoadConfigFrom(NewViper(path))
}

// LoadConfigFrom reads and validates configuration from a prepared viper
// instance, e.g. one with command line flags bound to it.
func LoadConfigFrom(v *viper.Viper) (*AppConfig, error) {
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		_, pathErr := err.(*os.PathError)
		if !notFound && !pathErr {
			return nil, fmt.Errorf("reading config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", v.ConfigFileUsed(), err)
	}

	cfg.API.UpdateMethod = strings.ToUpper(strings.TrimSpace(cfg.API.UpdateMethod))
	cfg.Session.Backend = strings.ToLower(strings.TrimSpace(cfg.Session.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.TimeoutSec < 0 {
		return fmt.Errorf("api.timeout_sec must not be negative, got %d", c.API.TimeoutSec)
	}
	switch c.API.UpdateMethod {
	case "POST", "PUT":
	default:
		return fmt.Errorf("api.update_method must be POST or PUT, got %q", c.API.UpdateMethod)
	}
	switch c.Session.Backend {
	case SessionBackendKeyring, SessionBackendSQLite:
	default:
		return fmt.Errorf("session.backend must be keyring or sqlite, got %q", c.Session.Backend)
	}
	if strings.TrimSpace(c.Session.Key) == "" {
		return fmt.Errorf("session.key is required")
	}
	if c.Todos.RefreshIntervalSec < 0 {
		return fmt.Errorf("todos.refresh_interval_sec must not be negative, got %d", c.Todos.RefreshIntervalSec)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("session", cfg.Session)
	v.Set("storage", cfg.Storage)
	v.Set("todos", cfg.Todos)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
