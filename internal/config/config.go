// Package config resolves runtime settings.
//
// PRECEDENCE (lowest to highest):
//  1. Built-in defaults (Default)
//  2. The TOML file, usually $XDG_CONFIG_HOME/scratchpad/config.toml
//  3. Environment variables (PORT, DB_PATH, JWT_SECRET, ...)
//  4. Command-line flags, applied by cmd/scratchpad
//
// A missing config file is not an error: most installs run on defaults and
// environment variables alone.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Pointer fields tell
// "unset" apart from a zero value.
type FileConfig struct {
	Server ServerConfig `toml:"server"`
	Auth   AuthConfig   `toml:"auth"`
	AI     AIConfig     `toml:"ai"`
}

// ServerConfig maps the [server] table.
type ServerConfig struct {
	Port     *int    `toml:"port"`
	DBPath   *string `toml:"db-path"`
	LogLevel *string `toml:"log-level"`
}

// AuthConfig maps the [auth] table.
type AuthConfig struct {
	JWTSecret          *string `toml:"jwt-secret"`
	GitHubClientID     *string `toml:"github-client-id"`
	GitHubClientSecret *string `toml:"github-client-secret"`
	GitHubCallbackURL  *string `toml:"github-callback-url"`
}

// AIConfig maps the [ai] table.
type AIConfig struct {
	APIKey  *string `toml:"api-key"`
	Model   *string `toml:"model"`
	BaseURL *string `toml:"base-url"`
}

// Config is the fully resolved configuration.
type Config struct {
	Port     int
	DBPath   string
	LogLevel slog.Level

	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	AIAPIKey  string
	AIModel   string
	AIBaseURL string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:     8080,
		DBPath:   DefaultDBPath(),
		LogLevel: slog.LevelInfo,
	}
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Load resolves defaults, the file at path and the environment, in that
// order. getenv is usually os.Getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	fc, err := LoadConfig(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := cfg.applyFile(fc); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	return cfg, nil
}

func (c *Config) applyFile(fc FileConfig) error {
	setInt(&c.Port, fc.Server.Port)
	setString(&c.DBPath, fc.Server.DBPath)
	if fc.Server.LogLevel != nil {
		level, err := ParseLogLevel(*fc.Server.LogLevel)
		if err != nil {
			return err
		}
		c.LogLevel = level
	}

	setString(&c.JWTSecret, fc.Auth.JWTSecret)
	setString(&c.GitHubClientID, fc.Auth.GitHubClientID)
	setString(&c.GitHubClientSecret, fc.Auth.GitHubClientSecret)
	setString(&c.GitHubCallbackURL, fc.Auth.GitHubCallbackURL)

	setString(&c.AIAPIKey, fc.AI.APIKey)
	setString(&c.AIModel, fc.AI.Model)
	setString(&c.AIBaseURL, fc.AI.BaseURL)
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT value %q: %w", v, err)
		}
		c.Port = port
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		level, err := ParseLogLevel(v)
		if err != nil {
			return err
		}
		c.LogLevel = level
	}

	envs := []struct {
		name string
		dst  *string
	}{
		{"DB_PATH", &c.DBPath},
		{"JWT_SECRET", &c.JWTSecret},
		{"GITHUB_CLIENT_ID", &c.GitHubClientID},
		{"GITHUB_CLIENT_SECRET", &c.GitHubClientSecret},
		{"GITHUB_CALLBACK_URL", &c.GitHubCallbackURL},
		{"AI_API_KEY", &c.AIAPIKey},
		{"AI_MODEL", &c.AIModel},
		{"AI_BASE_URL", &c.AIBaseURL},
	}
	for _, e := range envs {
		if v := getenv(e.name); v != "" {
			*e.dst = v
		}
	}
	return nil
}

// ParseLogLevel accepts debug, info, warn or error, case-insensitively.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
