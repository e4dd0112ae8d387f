// Package config builds the immutable per-run configuration from the
// environment. The struct is constructed once in main and threaded
// explicitly through every component constructor; nothing reads the
// environment after startup.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is one run's configuration.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Ebay     EbayConfig
	Search   SearchConfig
	Analysis AnalysisConfig
	Report   ReportConfig
	Slack    SlackConfig
	OpenAI   OpenAIConfig
	Metrics  MetricsConfig
}

type AppConfig struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"` // "console" or "json"
}

type DBConfig struct {
	Driver string `envconfig:"DB_DRIVER" default:"sqlite"` // "sqlite" or "postgres"
	DSN    string `envconfig:"DB_DSN" default:"./market_pulse.db"`
}

type EbayConfig struct {
	AccessToken   string `envconfig:"EBAY_ACCESS_TOKEN"`
	MarketplaceID string `envconfig:"EBAY_MARKETPLACE_ID" default:"EBAY_US"`
}

// SearchConfig controls the listing query and pagination.
type SearchConfig struct {
	CategoryID    string        `envconfig:"EBAY_CATEGORY_ID" default:"183454"`
	PageSize      int           `envconfig:"PAGE_SIZE" default:"100"`
	MaxPages      int           `envconfig:"MAX_PAGES" default:"10"`
	PageInterval  time.Duration `envconfig:"PAGE_INTERVAL" default:"1s"`
	LookbackDays  int           `envconfig:"LOOKBACK_DAYS" default:"90"`
	MinPrice      float64       `envconfig:"MIN_PRICE" default:"1"`
	MaxPrice      float64       `envconfig:"MAX_PRICE" default:"20000"`
	LocaleCountry string        `envconfig:"LOCALE_COUNTRY" default:"JP"`
}

// AnalysisConfig controls filtering and aggregation.
type AnalysisConfig struct {
	CategoryLabel      string   `envconfig:"CATEGORY_LABEL" default:"pokemon cards"`
	ExcludedCategories []string `envconfig:"EXCLUDED_CATEGORIES" default:"yugioh,one piece,weiss,digimon,dragon ball,vanguard,magic the gathering"`
	LocaleHint         string   `envconfig:"LOCALE_HINT" default:"japan"`
	Watchlist          []string `envconfig:"ENTITY_WATCHLIST" default:"charizard,pikachu,mewtwo,eevee,gengar,lugia,rayquaza,snorlax"`
	Stopwords          []string `envconfig:"KEYWORD_STOPWORDS" default:"pokemon,card,japan,tcg,game,rare,set,promo,new,used,sealed,edition,japanese"`
}

// ReportConfig selects the trend-report rendering strategy.
type ReportConfig struct {
	Style    string `envconfig:"REPORT_STYLE" default:"template"` // "template" or "ai"
	Lookback int    `envconfig:"REPORT_LOOKBACK" default:"4"`     // snapshots fed to the AI report
}

type SlackConfig struct {
	Token   string `envconfig:"SLACK_TOKEN"`
	Channel string `envconfig:"SLACK_CHANNEL" default:"#profit-finder"`
}

type OpenAIConfig struct {
	APIKey string `envconfig:"OPENAI_API_KEY"`
	Model  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
}

type MetricsConfig struct {
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
}

// Load reads configuration from the environment and validates the values
// every run depends on. Credentials are checked at the point of use, not
// here, so report runs don't need listing API tokens.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Search.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.Search.PageSize)
	}
	if cfg.Search.MaxPages <= 0 {
		return nil, fmt.Errorf("MAX_PAGES must be positive, got %d", cfg.Search.MaxPages)
	}
	if cfg.Search.MinPrice > cfg.Search.MaxPrice {
		return nil, fmt.Errorf("MIN_PRICE %v exceeds MAX_PRICE %v", cfg.Search.MinPrice, cfg.Search.MaxPrice)
	}
	if cfg.Report.Style != "template" && cfg.Report.Style != "ai" {
		return nil, fmt.Errorf("REPORT_STYLE must be \"template\" or \"ai\", got %q", cfg.Report.Style)
	}
	if cfg.Report.Lookback < 1 {
		return nil, fmt.Errorf("REPORT_LOOKBACK must be at least 1, got %d", cfg.Report.Lookback)
	}
	return &cfg, nil
}
