// Package config loads runtime settings for shortdash.
//
// Sources, later wins:
//
//  1. Built-in defaults.
//  2. A .env file in the working directory (optional).
//  3. SHORTDASH_* environment variables.
//  4. Command-line flags (applied by internal/cli).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIURL         string
	AdminPath      string
	SuperAdminPath string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	Debounce      time.Duration
	FlashDuration time.Duration
	Locale        string

	LogLevel  string
	LogFormat string
	LogFile   string

	// Dir holds the persisted session and the TUI log.
	Dir string
}

func Defaults() *Config {
	return &Config{
		APIURL:         "http://localhost:8000/api",
		AdminPath:      "/admin",
		SuperAdminPath: "/super-admin",
		RequestTimeout: 15 * time.Second,
		RateLimitRPS:   10,
		RateLimitBurst: 20,
		Debounce:       500 * time.Millisecond,
		FlashDuration:  3 * time.Second,
		Locale:         "fr",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load applies defaults, then .env, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	d := Defaults()
	cfg := &Config{
		APIURL:         getEnv("SHORTDASH_API_URL", d.APIURL),
		AdminPath:      getEnv("SHORTDASH_ADMIN_PATH", d.AdminPath),
		SuperAdminPath: getEnv("SHORTDASH_SUPER_ADMIN_PATH", d.SuperAdminPath),
		RequestTimeout: getDuration("SHORTDASH_REQUEST_TIMEOUT", d.RequestTimeout),
		RateLimitRPS:   getFloat("SHORTDASH_RATE_LIMIT_RPS", d.RateLimitRPS),
		RateLimitBurst: getInt("SHORTDASH_RATE_LIMIT_BURST", d.RateLimitBurst),
		Debounce:       getDuration("SHORTDASH_DEBOUNCE", d.Debounce),
		FlashDuration:  getDuration("SHORTDASH_FLASH_DURATION", d.FlashDuration),
		Locale:         getEnv("SHORTDASH_LOCALE", d.Locale),
		LogLevel:       getEnv("SHORTDASH_LOG_LEVEL", d.LogLevel),
		LogFormat:      getEnv("SHORTDASH_LOG_FORMAT", d.LogFormat),
		LogFile:        strings.TrimSpace(os.Getenv("SHORTDASH_LOG_FILE")),
	}

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dir is the per-user state directory (~/.shortdash unless SHORTDASH_CONFIG_DIR is set).
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("SHORTDASH_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".shortdash"), nil
}

func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(strings.TrimSpace(c.APIURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api url must be an absolute http(s) URL: %q", c.APIURL))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		errs = append(errs, errors.New("rate limit must not be negative"))
	}
	if c.Debounce < 0 {
		errs = append(errs, errors.New("debounce must not be negative"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json", "pretty":
	default:
		errs = append(errs, fmt.Errorf("unknown log format: %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
