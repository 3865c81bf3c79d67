package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "key-from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
listen:
  port: 9090
providers:
  gemini_api_key: $TEST_GEMINI_KEY
log_level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Listen.Port)
	}
	if cfg.Providers.GeminiAPIKey != "key-from-env" {
		t.Errorf("expected env-expanded key, got %q", cfg.Providers.GeminiAPIKey)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug log level, got %q", cfg.LogLevel)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Listen.Port)
	}
	if len(cfg.Piped.Instances) == 0 {
		t.Error("expected default piped instances")
	}
	if cfg.Video.MaxDurationSeconds != 36000 {
		t.Errorf("expected default max duration 36000, got %d", cfg.Video.MaxDurationSeconds)
	}
	if cfg.Cache.MaxEntries != 100 || cfg.Cache.TTLSeconds != 300 {
		t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.Speech.Model != "whisper-large-v3" {
		t.Errorf("unexpected speech model default: %q", cfg.Speech.Model)
	}
}

func TestFindConfigExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"trace", LevelTrace, false},
		{"debug", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{" debug ", slog.LevelDebug, false},
		{"bogus", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
