package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file not created: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Scrape.ListingPath != "/people-spotting" {
		t.Errorf("Scrape.ListingPath = %q", cfg.Scrape.ListingPath)
	}
	if cfg.Funding.LLMBudget != 20 {
		t.Errorf("Funding.LLMBudget = %d, want 20", cfg.Funding.LLMBudget)
	}
	if !cfg.Funding.CacheEnabled {
		t.Error("Funding.CacheEnabled should default to true")
	}
	if !cfg.People.SyncEnabled {
		t.Error("People.SyncEnabled should default to true")
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "[server]\nport = 9000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("AI.Provider = %q, want openai", cfg.AI.Provider)
	}
	if !cfg.AI.Enabled {
		t.Error("AI.Enabled should default to true")
	}
	if cfg.Funding.RefreshUTCHour != 6 {
		t.Errorf("Funding.RefreshUTCHour = %d, want 6", cfg.Funding.RefreshUTCHour)
	}
	if cfg.People.BackfillMaxPages != 600 {
		t.Errorf("People.BackfillMaxPages = %d, want 600", cfg.People.BackfillMaxPages)
	}
}

func TestLoadExplicitFalseToggles(t *testing.T) {
	path := writeConfig(t, `
[ai]
enabled = false

[funding]
cache_enabled = false
warm_on_start = false

[people]
sync_enabled = false
backfill_on_start = false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.AI.Enabled {
		t.Error("AI.Enabled explicitly false should stay false")
	}
	if cfg.Funding.CacheEnabled {
		t.Error("Funding.CacheEnabled explicitly false should stay false")
	}
	if cfg.People.SyncEnabled {
		t.Error("People.SyncEnabled explicitly false should stay false")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"zero port", "[server]\nport = 0\n", "server.port"},
		{"bad provider", "[ai]\nprovider = \"llama\"\n", "ai.provider"},
		{"zero lookback", "[funding]\nlookback_days = 0\n", "lookback_days"},
		{"bad hour", "[funding]\nrefresh_utc_hour = 25\n", "refresh_utc_hour"},
		{"bad minute", "[funding]\nrefresh_utc_minute = 61\n", "refresh_utc_minute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load should have failed")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "[ai]\nprovider = \"openai\"\napi_key = \"from-file\"\n")

	t.Setenv("OPENAI_API_KEY", "from-provider-env")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.AI.APIKey != "from-provider-env" {
		t.Errorf("APIKey = %q, want provider env value", cfg.AI.APIKey)
	}

	t.Setenv("AI_API_KEY", "from-generic-env")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.AI.APIKey != "from-generic-env" {
		t.Errorf("APIKey = %q, want generic env value (highest priority)", cfg.AI.APIKey)
	}
}
