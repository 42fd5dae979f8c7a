//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"API_URL", "LAMBDA_URL", "SOLVE_BASE_URL", "HTTP_TIMEOUT", "LOG_LEVEL", "LOG_FILE",
		"METRICS_ADDR", "TELEGRAM_BOT_TOKEN", "REDIS_URL", "OPENAI_API_KEY", "GEMINI_API_KEY",
		"PORT", "ALLOWED_ORIGINS", "TAVILY_API_KEY", "NEWS_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_FromYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := []byte(`
endpoints:
  chat_url: https://chat.example.com/prod
  solve_base_url: https://ocr.example.com/prod///
http:
  timeout: 5s
log:
  level: debug
`)
	if err := os.WriteFile(path, yml, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Endpoints.ChatURL != "https://chat.example.com/prod" {
		t.Errorf("chat url = %q", cfg.Endpoints.ChatURL)
	}
	if got := cfg.Endpoints.SolveURL(); got != "https://ocr.example.com/prod/solve" {
		t.Errorf("solve url = %q", got)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.HTTP.Timeout)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if !cfg.Runtime.Dev {
		t.Error("expected dev runtime flag")
	}
	if cfg.Session.Welcome != DefaultWelcome {
		t.Error("expected default welcome message")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfig_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_URL", "https://abc.execute-api.us-east-1.amazonaws.com/prod/")
	t.Setenv("HTTP_TIMEOUT", "12s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	if err != nil {
		t.Fatalf("missing file should be allowed, got %v", err)
	}
	if got := cfg.Endpoints.SolveURL(); got != "https://abc.execute-api.us-east-1.amazonaws.com/prod/solve" {
		t.Errorf("solve url should default to chat base, got %q", got)
	}
	if cfg.HTTP.Timeout != 12*time.Second {
		t.Errorf("timeout = %v", cfg.HTTP.Timeout)
	}
	if len(cfg.DevServer.AllowedOrigins) != 2 || cfg.DevServer.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.DevServer.AllowedOrigins)
	}
	if cfg.DevServer.Provider != "echo" {
		t.Errorf("provider without keys should be echo, got %q", cfg.DevServer.Provider)
	}
}

func TestLoadConfig_LambdaURLFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("LAMBDA_URL", "https://fn.lambda-url.us-east-1.on.aws")

	cfg, err := LoadConfig("", false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Endpoints.ChatURL != "https://fn.lambda-url.us-east-1.on.aws" {
		t.Errorf("chat url = %q", cfg.Endpoints.ChatURL)
	}
}

func TestValidate_RequiresChatURL(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig("", false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error without chat url")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("endpoints: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path, false); err == nil {
		t.Fatal("expected parse error")
	}
}
