package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Email struct {
		SMTPHost        string `yaml:"smtp_host"`
		SMTPPort        int    `yaml:"smtp_port"`
		Username        string `yaml:"username"`
		Password        string `yaml:"password"`
		Sender          string `yaml:"sender"`
		UnsubscribeBase string `yaml:"unsubscribe_base_url"`
	} `yaml:"email"`
	Provider struct {
		BaseURL      string  `yaml:"base_url"`
		ClientID     string  `yaml:"client_id"`
		ClientSecret string  `yaml:"client_secret"`
		Concurrency  int     `yaml:"concurrency"`
		RatePerSec   float64 `yaml:"rate_per_sec"`
	} `yaml:"provider"`
	Digest struct {
		Origin       string   `yaml:"origin"`
		Destinations []string `yaml:"destinations"`
		DepartInDays int      `yaml:"depart_in_days"`
		TripDays     int      `yaml:"trip_days"`
		Adults       int      `yaml:"adults"`
		Currency     string   `yaml:"currency"`
		MaxResults   int      `yaml:"max_results"`
		Profile      string   `yaml:"profile"`
		CacheTTL     string   `yaml:"cache_ttl"`
	} `yaml:"digest"`
	Schedule struct {
		WeeklyCron      string `yaml:"weekly_cron"`
		SavedSearchCron string `yaml:"saved_search_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	MetricsAddr string `yaml:"metrics_addr"`
	Proxy       string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("AMADEUS_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("AMADEUS_CLIENT_ID"); v != "" {
		cfg.Provider.ClientID = v
	}
	if v := os.Getenv("AMADEUS_CLIENT_SECRET"); v != "" {
		cfg.Provider.ClientSecret = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("DIGEST_ORIGIN"); v != "" {
		cfg.Digest.Origin = v
	}
	if v := os.Getenv("DIGEST_DESTINATIONS"); v != "" {
		cfg.Digest.Destinations = splitCodes(v)
	}
	if v := os.Getenv("FETCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Provider.Concurrency = n
		}
	}
	if v := os.Getenv("CRON_WEEKLY"); v != "" {
		cfg.Schedule.WeeklyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	// Defaults
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "https://test.api.amadeus.com"
	}
	if cfg.Provider.Concurrency == 0 {
		cfg.Provider.Concurrency = 3
	}
	if cfg.Provider.RatePerSec == 0 {
		cfg.Provider.RatePerSec = 5
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Digest.DepartInDays == 0 {
		cfg.Digest.DepartInDays = 30
	}
	if cfg.Digest.TripDays == 0 {
		cfg.Digest.TripDays = 7
	}
	if cfg.Digest.Adults == 0 {
		cfg.Digest.Adults = 1
	}
	if cfg.Digest.Currency == "" {
		cfg.Digest.Currency = "USD"
	}
	if cfg.Digest.MaxResults == 0 {
		cfg.Digest.MaxResults = 20
	}
	if cfg.Digest.Profile == "" {
		cfg.Digest.Profile = "digest"
	}
	if cfg.Digest.CacheTTL == "" {
		cfg.Digest.CacheTTL = "30m"
	}
	if cfg.Schedule.WeeklyCron == "" {
		cfg.Schedule.WeeklyCron = "0 0 8 * * 1"
	}
	if cfg.Schedule.SavedSearchCron == "" {
		cfg.Schedule.SavedSearchCron = "0 0 7 * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/flight_sentinel.db"
	}

	return cfg, nil
}

// CacheTTL returns the parsed digest cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Digest.CacheTTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Provider.ClientID == "" || c.Provider.ClientSecret == "" {
		return fmt.Errorf("provider.client_id and provider.client_secret are required")
	}
	if c.Digest.Origin == "" {
		return fmt.Errorf("digest.origin is required")
	}
	if len(c.Digest.Destinations) == 0 {
		return fmt.Errorf("digest.destinations must not be empty")
	}
	if c.Provider.Concurrency < 1 || c.Provider.Concurrency > 8 {
		return fmt.Errorf("provider.concurrency must be between 1 and 8")
	}
	if c.Digest.Profile != "digest" && c.Digest.Profile != "interactive" {
		return fmt.Errorf("digest.profile must be digest or interactive")
	}
	if _, err := time.ParseDuration(c.Digest.CacheTTL); err != nil {
		return fmt.Errorf("digest.cache_ttl: %w", err)
	}
	if c.Telegram.BotToken == "" && c.Email.SMTPHost == "" {
		return fmt.Errorf("at least one of telegram.bot_token or email.smtp_host is required")
	}
	return nil
}

func splitCodes(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if code := strings.ToUpper(strings.TrimSpace(part)); code != "" {
			out = append(out, code)
		}
	}
	return out
}
