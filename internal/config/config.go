package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Common errors
var (
	ErrMissingAPIURL = errors.New("LAND_API_URL is required")
	ErrInvalidAPIURL = errors.New("LAND_API_URL must be an absolute http(s) URL")
	ErrInvalidRate   = errors.New("LAND_API_RPS must not be negative")
)

const (
	DefaultPort       = "5050"
	DefaultAPITimeout = 30 * time.Second
	DefaultAPIRate    = 10.0
)

// Config holds configuration for the back office server and CLIs.
type Config struct {
	Port string

	// Land service
	APIURL     string
	APIToken   string // CLI use only; the server forwards the caller's token
	APITimeout time.Duration
	APIRate    float64 // 0 disables client-side limiting

	AllowedOrigins []string

	// Optional audit trail
	DatabaseURL string
}

// fileConfig is the YAML layout of BACKOFFICE_CONFIG.
type fileConfig struct {
	Port           string   `yaml:"port"`
	APIURL         string   `yaml:"api_url"`
	APIToken       string   `yaml:"api_token"`
	APITimeout     string   `yaml:"api_timeout"`
	APIRate        *float64 `yaml:"api_rps"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	DatabaseURL    string   `yaml:"database_url"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:       DefaultPort,
		APITimeout: DefaultAPITimeout,
		APIRate:    DefaultAPIRate,
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:5174",
		},
	}
}

// LoadFromEnv loads configuration from an optional YAML file and the environment.
//
// Environment variables (each overrides the YAML file):
//   - BACKOFFICE_CONFIG: path to a YAML file with the keys below
//   - PORT: listen port (default: 5050)
//   - LAND_API_URL: base URL of the land service (required)
//   - LAND_API_TOKEN: bearer token for CLI tools
//   - LAND_API_TIMEOUT: request timeout, Go duration syntax (default: 30s)
//   - LAND_API_RPS: outgoing requests per second (default: 10, 0 = unlimited)
//   - ALLOWED_ORIGINS: comma-separated CORS allow-list
//   - DATABASE_URL: Postgres DSN for the review audit trail (optional)
func LoadFromEnv() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("BACKOFFICE_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("LAND_API_URL")); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("LAND_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := strings.TrimSpace(os.Getenv("LAND_API_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("LAND_API_TIMEOUT: %w", err)
		}
		cfg.APITimeout = d
	}
	if v := strings.TrimSpace(os.Getenv("LAND_API_RPS")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("LAND_API_RPS: %w", err)
		}
		cfg.APIRate = f
	}
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = splitOrigins(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}

	return cfg, nil
}

// Parse overlays a YAML document on the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, err
	}
	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	cfg.APIURL = fc.APIURL
	cfg.APIToken = fc.APIToken
	if fc.APITimeout != "" {
		d, err := time.ParseDuration(fc.APITimeout)
		if err != nil {
			return Default(), fmt.Errorf("api_timeout: %w", err)
		}
		cfg.APITimeout = d
	}
	if fc.APIRate != nil {
		cfg.APIRate = *fc.APIRate
	}
	if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	cfg.DatabaseURL = fc.DatabaseURL
	return cfg, nil
}

// Validate checks that the configuration can reach the land service.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return ErrMissingAPIURL
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidAPIURL
	}
	if c.APIRate < 0 {
		return ErrInvalidRate
	}
	return nil
}

func splitOrigins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
