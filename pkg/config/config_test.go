package config

import (
	"strings"
	"testing"
)

// Load falls back to environment-only configuration when no config.yaml is
// present, which is the case in the test working directory.

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Version != "test-version" {
		t.Errorf("Version = %q, want test-version", cfg.Version)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.Auth.EnableVerification {
		t.Error("EnableVerification should default to false")
	}
	if cfg.Pipeline.ForecastHorizonDays != 7 {
		t.Errorf("ForecastHorizonDays = %d, want 7", cfg.Pipeline.ForecastHorizonDays)
	}
	if cfg.Pipeline.RecencyWindowDays != 180 {
		t.Errorf("RecencyWindowDays = %d, want 180", cfg.Pipeline.RecencyWindowDays)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FORECAST_HORIZON_DAYS", "14")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load("dev")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Pipeline.ForecastHorizonDays != 14 {
		t.Errorf("ForecastHorizonDays = %d, want 14", cfg.Pipeline.ForecastHorizonDays)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("CORSOrigins = %v, want two trimmed origins", cfg.CORSOrigins)
	}
}

func TestLoad_VerificationRequiresEndpoints(t *testing.T) {
	t.Setenv("AUTH_ENABLE_VERIFICATION", "true")
	t.Setenv("JWKS_ENDPOINTS", "")

	_, err := Load("dev")
	if err == nil {
		t.Fatal("expected error when verification is enabled without JWKS endpoints")
	}
	if !strings.Contains(err.Error(), "JWKS") {
		t.Errorf("err = %v, want mention of JWKS", err)
	}
}

func TestLoad_ParsesJWKSEndpoints(t *testing.T) {
	t.Setenv("AUTH_ENABLE_VERIFICATION", "true")
	t.Setenv("JWKS_ENDPOINTS", "https://issuer.example.com=https://issuer.example.com/jwks.json")

	cfg, err := Load("dev")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	got := cfg.Auth.JWKSEndpoints["https://issuer.example.com"]
	if got != "https://issuer.example.com/jwks.json" {
		t.Errorf("JWKS endpoint = %q, want the configured URL", got)
	}
}

func TestParseJWKSEndpoints(t *testing.T) {
	endpoints := parseJWKSEndpoints("a=1,b=2, c = 3 ,malformed")
	if len(endpoints) != 3 {
		t.Fatalf("endpoints length = %d, want 3", len(endpoints))
	}
	if endpoints["c"] != "3" {
		t.Errorf("endpoints[c] = %q, want 3 (whitespace trimmed)", endpoints["c"])
	}
}

func TestConnectionString(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "app",
		Password: "secret",
		Database: "analytics",
		SSLMode:  "require",
	}

	got := cfg.ConnectionString()
	want := "host=db.internal port=5433 user=app password=secret dbname=analytics sslmode=require"
	if got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}
