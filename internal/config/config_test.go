package config

import (
	"testing"
	"time"
)

func clearAppEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
		"MAX_HEADER_BYTES", "GIN_MODE", "APP_ENV", "LOG_LEVEL", "LOG_PRETTY",
		"SWAGGER_ENABLED", "API_BASE_PATH", "DB_PATH", "DEFAULT_PER_PAGE", "MAX_PER_PAGE",
		"STREAM_WARN_DEPTH", "RATE_RPS", "RATE_BURST", "CORS_ALLOWED_ORIGINS",
		"ENABLE_HSTS", "HSTS_MAX_AGE", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SERVICE_NAME", "OTEL_TRACES_SAMPLER_ARG",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearAppEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.LogLevel != "info" {
		t.Fatalf("server defaults: %+v", cfg)
	}
	if cfg.Env != "production" || !cfg.Production() {
		t.Fatalf("env default = %q", cfg.Env)
	}
	if cfg.DBPath != "launchpad.db" {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
	if cfg.DefaultPerPage != 20 || cfg.MaxPerPage != 100 {
		t.Fatalf("pagination defaults: %d/%d", cfg.DefaultPerPage, cfg.MaxPerPage)
	}
	if cfg.StreamWarnDepth != 100 {
		t.Fatalf("StreamWarnDepth = %d", cfg.StreamWarnDepth)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("ReadTimeout = %v", cfg.ReadTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearAppEnv(t)
	t.Setenv("APP_ENV", "development")
	t.Setenv("DEFAULT_PER_PAGE", "10")
	t.Setenv("MAX_PER_PAGE", "50")
	t.Setenv("API_BASE_PATH", "v2/")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Production() {
		t.Fatal("development env reported as production")
	}
	if cfg.DefaultPerPage != 10 || cfg.MaxPerPage != 50 {
		t.Fatalf("pagination = %d/%d", cfg.DefaultPerPage, cfg.MaxPerPage)
	}
	if cfg.APIBasePath != "/v2" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORS = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"bad log level":            {"LOG_LEVEL": "noisy"},
		"per_page below one":       {"DEFAULT_PER_PAGE": "0"},
		"max below default":        {"DEFAULT_PER_PAGE": "50", "MAX_PER_PAGE": "10"},
		"negative rate":            {"RATE_RPS": "-1"},
		"zero burst":               {"RATE_BURST": "0"},
		"sampler ratio over one":   {"OTEL_TRACES_SAMPLER_ARG": "1.5"},
		"negative stream depth":    {"STREAM_WARN_DEPTH": "-5"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearAppEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoad_UnknownEnvFallsBack(t *testing.T) {
	clearAppEnv(t)
	t.Setenv("APP_ENV", "staging")
	t.Setenv("GIN_MODE", "bogus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "production" || cfg.GinMode != "release" {
		t.Fatalf("fallbacks: env=%q mode=%q", cfg.Env, cfg.GinMode)
	}
}
