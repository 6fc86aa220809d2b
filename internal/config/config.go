package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	AI      AIConfig      `toml:"ai"`
	Scrape  ScrapeConfig  `toml:"scrape"`
	Funding FundingConfig `toml:"funding"`
	People  PeopleConfig  `toml:"people"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `toml:"port"`
}

// AIConfig holds LLM extractor settings. When Enabled is false or no
// API key is configured, parsing degrades to the rule cascades.
type AIConfig struct {
	Enabled  bool   `toml:"enabled"`
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
}

// ScrapeConfig holds people-spotting listing scraper settings.
type ScrapeConfig struct {
	BaseURL       string `toml:"base_url"`
	ListingPath   string `toml:"listing_path"`
	UserAgent     string `toml:"user_agent"`
	TimeoutSecs   int    `toml:"timeout_seconds"`
	PoliteDelayMS int    `toml:"polite_delay_ms"`
	JitterMaxMS   int    `toml:"jitter_max_ms"`
}

// FundingConfig holds funding feed and cache settings.
type FundingConfig struct {
	Feeds            []string `toml:"feeds"`
	CacheEnabled     bool     `toml:"cache_enabled"`
	WarmOnStart      bool     `toml:"warm_on_start"`
	RefreshUTCHour   int      `toml:"refresh_utc_hour"`
	RefreshUTCMinute int      `toml:"refresh_utc_minute"`
	LookbackDays     int      `toml:"lookback_days"`
	LLMBudget        int      `toml:"llm_budget"`
	ExtractSummaries bool     `toml:"extract_summaries"`
}

// PeopleConfig holds people sync loop settings.
type PeopleConfig struct {
	SyncEnabled         bool `toml:"sync_enabled"`
	SyncIntervalMinutes int  `toml:"sync_interval_minutes"`
	SyncMaxPages        int  `toml:"sync_max_pages"`
	BackstopDays        int  `toml:"backstop_days"`
	BackfillOnStart     bool `toml:"backfill_on_start"`
	BackfillDays        int  `toml:"backfill_days"`
	BackfillMaxPages    int  `toml:"backfill_max_pages"`
}

const defaultConfigContent = `[server]
port = 8080

[ai]
enabled = true
provider = "openai"               # "anthropic" or "openai"
api_key = ""                      # Your API key (or set AI_API_KEY env var)
model = "gpt-4.1-mini"

[scrape]
base_url = "https://www.afaqs.com"
listing_path = "/people-spotting"
timeout_seconds = 20
polite_delay_ms = 250
jitter_max_ms = 350

[funding]
feeds = []                        # extra feeds, merged ahead of the defaults
cache_enabled = true
warm_on_start = true
refresh_utc_hour = 6              # weekly rebuild: Monday 06:00 UTC
refresh_utc_minute = 0
lookback_days = 30
llm_budget = 20                   # max LLM extraction calls per request
extract_summaries = false

[people]
sync_enabled = true
sync_interval_minutes = 60
sync_max_pages = 12
backstop_days = 30
backfill_on_start = true
backfill_days = 30
backfill_max_pages = 600
`

// Load reads and parses the TOML config from the given path. If the file
// does not exist, it creates a default config file at that path.
// Environment variables override values from the file with highest
// priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "port = 0" is an error rather than silently
	// being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg, md)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML
// file. This catches cases like "port = 0" which would otherwise be
// silently replaced by the default value.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("funding", "lookback_days") {
		if cfg.Funding.LookbackDays < 1 {
			return fmt.Errorf("invalid funding.lookback_days %d: must be >= 1", cfg.Funding.LookbackDays)
		}
	}
	if md.IsDefined("funding", "refresh_utc_hour") {
		if cfg.Funding.RefreshUTCHour < 0 || cfg.Funding.RefreshUTCHour > 23 {
			return fmt.Errorf("invalid funding.refresh_utc_hour %d: must be between 0 and 23", cfg.Funding.RefreshUTCHour)
		}
	}
	if md.IsDefined("funding", "refresh_utc_minute") {
		if cfg.Funding.RefreshUTCMinute < 0 || cfg.Funding.RefreshUTCMinute > 59 {
			return fmt.Errorf("invalid funding.refresh_utc_minute %d: must be between 0 and 59", cfg.Funding.RefreshUTCMinute)
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields. Boolean
// toggles default to true only when the field was not set at all, which
// is why the TOML metadata is consulted.
func applyDefaults(cfg *Config, md toml.MetaData) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if !md.IsDefined("ai", "enabled") {
		cfg.AI.Enabled = true
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4.1-mini"
	}
	if cfg.Scrape.BaseURL == "" {
		cfg.Scrape.BaseURL = "https://www.afaqs.com"
	}
	if cfg.Scrape.ListingPath == "" {
		cfg.Scrape.ListingPath = "/people-spotting"
	}
	if cfg.Scrape.UserAgent == "" {
		cfg.Scrape.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	}
	if cfg.Scrape.TimeoutSecs == 0 {
		cfg.Scrape.TimeoutSecs = 20
	}
	if cfg.Scrape.PoliteDelayMS == 0 {
		cfg.Scrape.PoliteDelayMS = 250
	}
	if cfg.Scrape.JitterMaxMS == 0 {
		cfg.Scrape.JitterMaxMS = 350
	}
	if !md.IsDefined("funding", "cache_enabled") {
		cfg.Funding.CacheEnabled = true
	}
	if !md.IsDefined("funding", "warm_on_start") {
		cfg.Funding.WarmOnStart = true
	}
	if !md.IsDefined("funding", "refresh_utc_hour") {
		cfg.Funding.RefreshUTCHour = 6
	}
	if cfg.Funding.LookbackDays == 0 {
		cfg.Funding.LookbackDays = 30
	}
	if cfg.Funding.LLMBudget == 0 {
		cfg.Funding.LLMBudget = 20
	}
	if !md.IsDefined("people", "sync_enabled") {
		cfg.People.SyncEnabled = true
	}
	if cfg.People.SyncIntervalMinutes == 0 {
		cfg.People.SyncIntervalMinutes = 60
	}
	if cfg.People.SyncMaxPages == 0 {
		cfg.People.SyncMaxPages = 12
	}
	if cfg.People.BackstopDays == 0 {
		cfg.People.BackstopDays = 30
	}
	if !md.IsDefined("people", "backfill_on_start") {
		cfg.People.BackfillOnStart = true
	}
	if cfg.People.BackfillDays == 0 {
		cfg.People.BackfillDays = 30
	}
	if cfg.People.BackfillMaxPages == 0 {
		cfg.People.BackfillMaxPages = 600
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
//
// Priority for ai.api_key:
//  1. AI_API_KEY (generic, highest)
//  2. ANTHROPIC_API_KEY (when provider is "anthropic")
//  3. OPENAI_API_KEY (when provider is "openai")
func applyEnvOverrides(cfg *Config) {
	switch cfg.AI.Provider {
	case "anthropic":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	}

	// AI_API_KEY overrides everything (highest priority).
	if v := os.Getenv("AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	switch cfg.AI.Provider {
	case "anthropic", "openai":
		// valid
	default:
		return fmt.Errorf("invalid ai.provider %q: must be \"anthropic\" or \"openai\"", cfg.AI.Provider)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	if cfg.Funding.LookbackDays < 1 {
		return fmt.Errorf("invalid funding.lookback_days %d: must be >= 1", cfg.Funding.LookbackDays)
	}

	if cfg.AI.Enabled && cfg.AI.APIKey == "" {
		slog.Warn("ai.api_key is empty: LLM extraction disabled, rule parsers only")
	}

	return nil
}
