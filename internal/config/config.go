package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	appDir     = "tasks-tui"
	configFile = "config.toml"
	envPrefix  = "TASKS"
)

// Config holds the application configuration
type Config struct {
	// Backend names the task backend; empty picks one automatically
	Backend  string         `toml:"backend" mapstructure:"backend" validate:"omitempty,oneof=http sqlite memory noop"`
	Remote   RemoteConfig   `toml:"remote" mapstructure:"remote"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Retry    RetryConfig    `toml:"retry" mapstructure:"retry"`
	Sync     SyncConfig     `toml:"sync" mapstructure:"sync"`
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Log      LogConfig      `toml:"log" mapstructure:"log"`
	Metrics  MetricsConfig  `toml:"metrics" mapstructure:"metrics"`
}

// RemoteConfig locates a trackerd server
type RemoteConfig struct {
	URL string `toml:"url" mapstructure:"url" validate:"omitempty,url"`

	// Timeout bounds each request; zero disables it
	Timeout Duration `toml:"timeout" mapstructure:"timeout" validate:"gte=0"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path             string `toml:"path" mapstructure:"path" validate:"required"`
	StrictCategories bool   `toml:"strict_categories" mapstructure:"strict_categories"`
}

// RetryConfig bounds retries of failed remote calls
type RetryConfig struct {
	MaxAttempts int      `toml:"max_attempts" mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	BaseDelay   Duration `toml:"base_delay" mapstructure:"base_delay" validate:"gt=0,lte=1m"`
}

// SyncConfig tunes the client view
type SyncConfig struct {
	NoticeTTL Duration `toml:"notice_ttl" mapstructure:"notice_ttl" validate:"gt=0"`
}

// ServerConfig holds trackerd's listen address
type ServerConfig struct {
	Addr string `toml:"addr" mapstructure:"addr" validate:"required,hostname_port"`
}

// LogConfig selects log level and destination
type LogConfig struct {
	Level string `toml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	File  string `toml:"file" mapstructure:"file"`
}

// MetricsConfig exposes client metrics; an empty address disables them
type MetricsConfig struct {
	Addr string `toml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Remote: RemoteConfig{
			Timeout: Duration{10 * time.Second},
		},
		Database: DatabaseConfig{
			Path: filepath.Join(Dir(), "tasks.db"),
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   Duration{time.Second},
		},
		Sync: SyncConfig{
			NoticeTTL: Duration{5 * time.Second},
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8420",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Dir returns the configuration directory
func Dir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", appDir)
}

// Path returns the standard configuration file path
func Path() string {
	return filepath.Join(Dir(), configFile)
}

// DefaultLogPath is where the terminal client logs when no file is configured
func DefaultLogPath() string {
	return filepath.Join(Dir(), appDir+".log")
}

// Load loads configuration from the standard location
func Load() (*Config, error) {
	if _, err := os.UserHomeDir(); err != nil {
		return nil, fmt.Errorf("getting home dir: %w", err)
	}
	return LoadFrom(Path())
}

// LoadFrom loads configuration from a specific path. A missing file yields
// the defaults. TASKS_* environment variables override file values, with
// dots in keys replaced by underscores (TASKS_REMOTE_URL).
func LoadFrom(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("toml")
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking config file: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("backend", def.Backend)
	v.SetDefault("remote.url", def.Remote.URL)
	v.SetDefault("remote.timeout", def.Remote.Timeout.String())
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("database.strict_categories", def.Database.StrictCategories)
	v.SetDefault("retry.max_attempts", def.Retry.MaxAttempts)
	v.SetDefault("retry.base_delay", def.Retry.BaseDelay.String())
	v.SetDefault("sync.notice_ttl", def.Sync.NoticeTTL.String())
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("metrics.addr", def.Metrics.Addr)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(Duration); ok {
			return d.Duration
		}
		return nil
	}, Duration{})
	return v
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves the configuration to the standard location
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}
