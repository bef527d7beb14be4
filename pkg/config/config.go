package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Settings SettingsConfig `yaml:"settings"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string   `yaml:"address"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// SettingsConfig holds settings-store persistence options.
type SettingsConfig struct {
	Key              string   `yaml:"key"`               // state key of the settings blob
	SaveTimeout      Duration `yaml:"save_timeout"`      // bound for the unload save
	AutosaveInterval Duration `yaml:"autosave_interval"` // 0 disables
}

// Environment variables that override the file.
const (
	EnvDBPath        = "OBJMAP_DB_PATH"
	EnvServerAddress = "OBJMAP_SERVER_ADDRESS"
	EnvLogLevel      = "OBJMAP_LOG_LEVEL"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      "localhost:1921",
			ReadTimeout:  Duration(15 * time.Second),
			WriteTimeout: Duration(15 * time.Second),
		},
		DB: DBConfig{
			Path: "./data/objmap.db",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		Settings: SettingsConfig{
			Key:              "storage",
			SaveTimeout:      Duration(5 * time.Second),
			AutosaveInterval: 0,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
// Environment overrides are applied last and never written to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment. Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv(EnvServerAddress); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Server.Level = v
	}
}

var validLevel = regexp.MustCompile(`^(?i:debug|info|warn|error)$`)

// Validate checks the values the application cannot start without.
func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if strings.TrimSpace(c.Settings.Key) == "" {
		return fmt.Errorf("settings.key must not be empty")
	}
	for name, lvl := range map[string]string{"log.server.level": c.Log.Server.Level, "log.requests.level": c.Log.Requests.Level} {
		if lvl != "" && !validLevel.MatchString(lvl) {
			return fmt.Errorf("invalid %s '%s': must be one of DEBUG, INFO, WARN, ERROR", name, lvl)
		}
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# objmap Configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
# Environment overrides: OBJMAP_DB_PATH, OBJMAP_SERVER_ADDRESS, OBJMAP_LOG_LEVEL

`)
	data = append(header, data...)

	reLevel := regexp.MustCompile(`(?m)^(\s+)level:`)
	data = reLevel.ReplaceAll(data, []byte("${1}# Options: DEBUG, INFO, WARN, ERROR\n${1}level:"))

	reAutosave := regexp.MustCompile(`(?m)^(\s+)autosave_interval:`)
	data = reAutosave.ReplaceAll(data, []byte("${1}# 0s disables periodic saving; settings are always saved on shutdown\n${1}autosave_interval:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
