package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseYAMLOverlay(t *testing.T) {
	cfg, err := Parse([]byte(`
port: "8080"
api_url: https://lands.example.com/api
api_timeout: 5s
allowed_origins:
  - https://admin.example.com
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != "8080" || cfg.APIURL != "https://lands.example.com/api" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.APITimeout)
	}
	if cfg.APIRate != DefaultAPIRate {
		t.Errorf("rate default lost: %v", cfg.APIRate)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://admin.example.com" {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadFromEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backoffice.yaml")
	if err := os.WriteFile(path, []byte("api_url: https://file.example.com\nport: \"7000\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BACKOFFICE_CONFIG", path)
	t.Setenv("LAND_API_URL", "https://env.example.com")
	t.Setenv("PORT", "")
	t.Setenv("LAND_API_RPS", "2.5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.APIURL != "https://env.example.com" {
		t.Errorf("env should win, got %s", cfg.APIURL)
	}
	if cfg.Port != "7000" {
		t.Errorf("file port lost, got %s", cfg.Port)
	}
	if cfg.APIRate != 2.5 {
		t.Errorf("rate = %v", cfg.APIRate)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIURL) {
		t.Errorf("expected ErrMissingAPIURL, got %v", err)
	}
	cfg.APIURL = "lands.example.com"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidAPIURL) {
		t.Errorf("expected ErrInvalidAPIURL, got %v", err)
	}
	cfg.APIURL = "https://lands.example.com"
	cfg.APIRate = -1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("expected ErrInvalidRate, got %v", err)
	}
	cfg.APIRate = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
