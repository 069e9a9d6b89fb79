// Package config loads server settings from defaults, an optional YAML file
// and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr     string `yaml:"addr"`
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`

	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	GitHubURL   string        `yaml:"github_api_url"`
	GitHubToken string        `yaml:"github_token"`
	RepoTTL     time.Duration `yaml:"repo_cache_ttl"`

	RedisAddr    string `yaml:"redis_addr"`
	KafkaBrokers string `yaml:"kafka_brokers"`
	KafkaTopic   string `yaml:"kafka_topic"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	AuthRateLimit  int           `yaml:"auth_rate_limit"`
	AuthRateWindow time.Duration `yaml:"auth_rate_window"`
}

func Default() Config {
	return Config{
		Addr:           ":5000",
		DBPath:         "./data/devconnector.db",
		LogLevel:       "info",
		TokenTTL:       360000 * time.Second,
		GitHubURL:      "https://api.github.com",
		RepoTTL:        10 * time.Minute,
		KafkaTopic:     "devconnector.activity",
		AuthRateLimit:  20,
		AuthRateWindow: time.Minute,
	}
}

// Load builds the configuration. path may be empty; a missing file at a
// non-empty path is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if p := os.Getenv("PORT"); p != "" {
		c.Addr = ":" + p
	}
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.GitHubURL = getEnv("GITHUB_API_URL", c.GitHubURL)
	c.GitHubToken = getEnv("GITHUB_TOKEN", c.GitHubToken)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.KafkaBrokers = getEnv("KAFKA_BROKERS", c.KafkaBrokers)
	c.KafkaTopic = getEnv("KAFKA_TOPIC", c.KafkaTopic)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)

	var err error
	if c.TokenTTL, err = getDuration("TOKEN_TTL", c.TokenTTL); err != nil {
		return err
	}
	if c.AuthRateWindow, err = getDuration("AUTH_RATE_WINDOW", c.AuthRateWindow); err != nil {
		return err
	}
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_LIMIT: %w", err)
		}
		c.AuthRateLimit = n
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: jwt secret is required (JWT_SECRET)")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: token ttl must be positive")
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration accepts Go durations ("90s") or a bare number of seconds.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
