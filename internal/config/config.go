package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "modkernel"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "MODKERNEL"
)

// Storage drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is the full application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Mods    ModsConfig    `mapstructure:"mods"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// ModsConfig configures where mods are found.
type ModsConfig struct {
	Dir         string `mapstructure:"dir"`
	Watch       bool   `mapstructure:"watch"`
	AutoloadNew bool   `mapstructure:"autoload_new"`
}

// LoadOptions controls where Load looks for a config file.
type LoadOptions struct {
	// ConfigFilePath, when set, is the only file read. It must exist.
	ConfigFilePath string
	// ConfigDirPath overrides the config directory.
	ConfigDirPath string
}

// DefaultConfig returns the built-in defaults. Empty paths are resolved
// against the config directory by Load.
func DefaultConfig() Config {
	return Config{
		Log:     LogConfig{Level: "info"},
		Storage: StorageConfig{Driver: DriverFile},
		Mods:    ModsConfig{Watch: true},
	}
}

// Dir returns the modkernel configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Load reads configuration. A missing config file in the config directory
// is not an error; defaults apply. It returns the config and the path of
// the file that was read, if any.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, "", err
		}
		cfgDir = dir
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("storage.driver", defaults.Storage.Driver)
	v.SetDefault("storage.path", defaults.Storage.Path)
	v.SetDefault("mods.dir", defaults.Mods.Dir)
	v.SetDefault("mods.watch", defaults.Mods.Watch)
	v.SetDefault("mods.autoload_new", defaults.Mods.AutoloadNew)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if _, err := os.Stat(opts.ConfigFilePath); err != nil {
			return nil, "", fmt.Errorf("%w: %s", ErrFileNotFound, opts.ConfigFilePath)
		}
		v.SetConfigFile(opts.ConfigFilePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to read config %s: %w", opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		v.AddConfigPath(cfgDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, "", fmt.Errorf("failed to read config: %w", err)
			}
		} else {
			resolvedPath = v.ConfigFileUsed()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.resolvePaths(cfgDir); err != nil {
		return nil, "", err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolvedPath, nil
}

// resolvePaths fills empty paths with locations inside dir and makes every
// path absolute.
func (c *Config) resolvePaths(dir string) error {
	if c.Storage.Path == "" {
		switch c.Storage.Driver {
		case DriverSQLite:
			c.Storage.Path = filepath.Join(dir, "state.db")
		case DriverFile:
			c.Storage.Path = filepath.Join(dir, "state.json")
		}
	}
	if c.Mods.Dir == "" {
		c.Mods.Dir = filepath.Join(dir, "mods")
	}

	for _, p := range []*string{&c.Storage.Path, &c.Mods.Dir} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", *p, err)
		}
		*p = abs
	}
	return nil
}

// Validate checks setting values.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("%w: storage.driver %q (want file, sqlite or memory)", ErrValidationFailed, c.Storage.Driver)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (log.Level, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("%w: log.level %q", ErrValidationFailed, c.Log.Level)
	}
	return level, nil
}
