// Package config reads process settings from the environment. A .env file
// in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

type OracleConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Enabled reports whether an oracle endpoint is configured. Without one the
// classifier runs on its rule table only.
func (o OracleConfig) Enabled() bool {
	return o.URL != "" && o.APIKey != ""
}

type Config struct {
	Env            string
	Port           string
	DB             DBConfig
	RedisAddr      string
	KafkaBroker    string
	JWTSecret      string
	Oracle         OracleConfig
	RateLimitRPS   float64
	RateLimitBurst int
	ConnectRetries int
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads the environment. Values that are present but malformed are an
// error; absent values take their defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:  getenv("APP_ENV", EnvDevelopment),
		Port: getenv("PORT", "3000"),
		DB: DBConfig{
			Host:     getenv("DB_HOST", "localhost"),
			User:     getenv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getenv("DB_NAME", "leave_assistant"),
			Port:     getenv("DB_PORT", "5432"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBroker: os.Getenv("KAFKA_BROKER"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Oracle: OracleConfig{
			URL:    os.Getenv("ORACLE_URL"),
			APIKey: os.Getenv("ORACLE_API_KEY"),
			Model:  getenv("ORACLE_MODEL", "gpt-4o-mini"),
		},
	}

	var err error
	if cfg.Oracle.Timeout, err = durationEnv("ORACLE_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = floatEnv("RATE_LIMIT_RPS", 1); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.ConnectRetries, err = intEnv("CONNECT_RETRIES", 5); err != nil {
		return nil, err
	}

	switch cfg.Env {
	case EnvDevelopment, EnvProduction, "test":
	default:
		return nil, fmt.Errorf("APP_ENV must be development, production or test, got %q", cfg.Env)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if cfg.Oracle.Timeout <= 0 {
		return nil, fmt.Errorf("ORACLE_TIMEOUT must be positive")
	}
	return cfg, nil
}

// ValidateAPI checks the settings only the HTTP server needs.
func (c *Config) ValidateAPI() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// ValidateMessaging checks the settings the worker and consumer need.
func (c *Config) ValidateMessaging() error {
	if c.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
