package config

import (
	"github.com/sperezintexas/fintech-app-sub006/pkg/config"
)

// Scheduler holds scheduler-specific configuration. Only the master
// process fires cron schedules; disable_jobs idles the scheduler entirely.
type Scheduler struct {
	PollingInterval string `mapstructure:"polling_interval"`
	Master          bool   `mapstructure:"master"`
	DisableJobs     bool   `mapstructure:"disable_jobs"`
	DefaultTimeout  string `mapstructure:"default_timeout"`
	LeaseGrace      string `mapstructure:"lease_grace"`
}

// Trigger secures the manual trigger endpoint. An empty token disables it.
type Trigger struct {
	Token   string `mapstructure:"token"`
	Timeout string `mapstructure:"timeout"`
}

// Telegram holds the bot credentials for the Telegram channel.
type Telegram struct {
	BotToken      string `mapstructure:"bot_token"`
	DefaultChatID int64  `mapstructure:"default_chat_id"`
}

// Social holds the posting credentials for the social channel.
type Social struct {
	BaseURL     string `mapstructure:"base_url"`
	BearerToken string `mapstructure:"bearer_token"`
	PostsPerMin int    `mapstructure:"posts_per_min"`
	Timeout     string `mapstructure:"timeout"`
}

// Alerts holds alert generation and retention settings.
type Alerts struct {
	DedupWindow        string   `mapstructure:"dedup_window"`
	RecommendationDays int      `mapstructure:"recommendation_retention_days"`
	AlertDays          int      `mapstructure:"alert_retention_days"`
	Telegram           Telegram `mapstructure:"telegram"`
	Social             Social   `mapstructure:"social"`
}

// MarketData holds quote provider settings.
type MarketData struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Timeout        string `mapstructure:"timeout"`
	CacheTTL       string `mapstructure:"cache_ttl"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	BackoffSeconds []int  `mapstructure:"backoff_seconds"`
}

// Config holds the full configuration for the alert service.
type Config struct {
	App        config.App      `mapstructure:"app"`
	Logger     config.Logger   `mapstructure:"logger"`
	Database   config.Database `mapstructure:"database"`
	Redis      config.Redis    `mapstructure:"redis"`
	API        config.API      `mapstructure:"api"`
	Scheduler  Scheduler       `mapstructure:"scheduler"`
	Trigger    Trigger         `mapstructure:"trigger"`
	Alerts     Alerts          `mapstructure:"alerts"`
	MarketData MarketData      `mapstructure:"market_data"`
}

// Load loads the alert service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
