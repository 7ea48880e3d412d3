package config

import (
	"errors"
	"fmt"
	"time"

	"golang-stock-advisor/pkg/config"
)

// ErrMissingAPIKey is returned by Validate when a provider credential is
// absent. The services treat it as fatal at startup.
var ErrMissingAPIKey = errors.New("missing api key")

// Pipeline holds settings for the recommendation pipeline itself.
type Pipeline struct {
	Tickers             []string      `mapstructure:"tickers"`
	ArticlesPerTicker   int           `mapstructure:"articles_per_ticker"`
	ContextArticles     int           `mapstructure:"context_articles"`
	WriteBatchSize      int           `mapstructure:"write_batch_size"`
	ArticleMaxAgeDays   int           `mapstructure:"article_max_age_days"`
	ExperimentStartDate string        `mapstructure:"experiment_start_date"`
	MaxExperimentDay    int           `mapstructure:"max_experiment_day"`
	TickerCacheTTL      time.Duration `mapstructure:"ticker_cache_ttl"`
	DailyRunCron        string        `mapstructure:"daily_run_cron"`
	RunTimeout          time.Duration `mapstructure:"run_timeout"`
}

// NewsAPI holds the configuration for the news-search provider.
type NewsAPI struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	Language            string `mapstructure:"language"`
	SortBy              string `mapstructure:"sort_by"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	FetchFullContent    bool   `mapstructure:"fetch_full_content"`
	EnableRSSFallback   bool   `mapstructure:"enable_rss_fallback"`
}

// MarketData holds the configuration for the price providers.
type MarketData struct {
	TiingoBaseURL string `mapstructure:"tiingo_base_url"`
	TiingoAPIKey  string `mapstructure:"tiingo_api_key"`
	YahooBaseURL  string `mapstructure:"yahoo_base_url"`
	BackfillDays  int    `mapstructure:"backfill_days"`
	MaxAttempts   int    `mapstructure:"max_attempts"`
}

// Sentiment holds the configuration for the hosted sentiment classifier.
type Sentiment struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	InputLimit  int    `mapstructure:"input_limit"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

// OpenAI holds the configuration for the OpenAI API.
type OpenAI struct {
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	Model               string        `mapstructure:"model"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	Model               string        `mapstructure:"model"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute"`
}

// AI selects the LLM provider used for the final recommendation.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// Config holds the full configuration for the pipeline service.
type Config struct {
	App        config.App      `mapstructure:"app"`
	Logger     config.Logger   `mapstructure:"logger"`
	Database   config.Database `mapstructure:"database"`
	Redis      config.Redis    `mapstructure:"redis"`
	Telegram   config.Telegram `mapstructure:"telegram"`
	Pipeline   Pipeline        `mapstructure:"pipeline"`
	NewsAPI    NewsAPI         `mapstructure:"news_api"`
	MarketData MarketData      `mapstructure:"market_data"`
	Sentiment  Sentiment       `mapstructure:"sentiment"`
	OpenAI     OpenAI          `mapstructure:"openai"`
	Gemini     Gemini          `mapstructure:"gemini"`
	AI         AI              `mapstructure:"ai"`
}

// Load loads the pipeline configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.Pipeline.ArticlesPerTicker == 0 {
		c.Pipeline.ArticlesPerTicker = 20
	}
	if c.Pipeline.ContextArticles == 0 {
		c.Pipeline.ContextArticles = 4
	}
	if c.Pipeline.WriteBatchSize == 0 {
		c.Pipeline.WriteBatchSize = 500
	}
	if c.Pipeline.ArticleMaxAgeDays == 0 {
		c.Pipeline.ArticleMaxAgeDays = 7
	}
	if c.Pipeline.MaxExperimentDay == 0 {
		c.Pipeline.MaxExperimentDay = 90
	}
	if c.Pipeline.TickerCacheTTL == 0 {
		c.Pipeline.TickerCacheTTL = 6 * time.Hour
	}
	if c.Pipeline.RunTimeout == 0 {
		c.Pipeline.RunTimeout = 30 * time.Minute
	}
	if c.NewsAPI.BaseURL == "" {
		c.NewsAPI.BaseURL = "https://newsapi.org/v2"
	}
	if c.NewsAPI.Language == "" {
		c.NewsAPI.Language = "en"
	}
	if c.NewsAPI.SortBy == "" {
		c.NewsAPI.SortBy = "publishedAt"
	}
	if c.MarketData.TiingoBaseURL == "" {
		c.MarketData.TiingoBaseURL = "https://api.tiingo.com"
	}
	if c.MarketData.YahooBaseURL == "" {
		c.MarketData.YahooBaseURL = "https://query1.finance.yahoo.com"
	}
	if c.MarketData.BackfillDays == 0 {
		c.MarketData.BackfillDays = 7
	}
	if c.MarketData.MaxAttempts == 0 {
		c.MarketData.MaxAttempts = 3
	}
	if c.Sentiment.BaseURL == "" {
		c.Sentiment.BaseURL = "https://api-inference.huggingface.co/models"
	}
	if c.Sentiment.Model == "" {
		c.Sentiment.Model = "ProsusAI/finbert"
	}
	if c.Sentiment.InputLimit == 0 {
		c.Sentiment.InputLimit = 512
	}
	if c.Sentiment.MaxAttempts == 0 {
		c.Sentiment.MaxAttempts = 2
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1/chat/completions"
	}
	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = 15 * time.Second
	}
	if c.Gemini.Timeout == 0 {
		c.Gemini.Timeout = 15 * time.Second
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
}

// Validate fails fast on missing credentials so no network call is ever
// attempted with an empty key.
func (c *Config) Validate() error {
	if c.NewsAPI.APIKey == "" {
		return fmt.Errorf("%w: news_api.api_key", ErrMissingAPIKey)
	}
	if c.MarketData.TiingoAPIKey == "" {
		return fmt.Errorf("%w: market_data.tiingo_api_key", ErrMissingAPIKey)
	}
	if c.Sentiment.APIKey == "" {
		return fmt.Errorf("%w: sentiment.api_key", ErrMissingAPIKey)
	}
	switch c.AI.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: openai.api_key", ErrMissingAPIKey)
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("%w: gemini.api_key", ErrMissingAPIKey)
		}
	default:
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}
	if c.Pipeline.ExperimentStartDate != "" {
		if _, err := time.Parse("2006-01-02", c.Pipeline.ExperimentStartDate); err != nil {
			return fmt.Errorf("invalid pipeline.experiment_start_date: %w", err)
		}
	}
	return nil
}

// ExperimentEpoch returns the configured experiment start date, defaulting
// to 2025-01-22 when unset.
func (c *Config) ExperimentEpoch() time.Time {
	if c.Pipeline.ExperimentStartDate == "" {
		return time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC)
	}
	t, _ := time.Parse("2006-01-02", c.Pipeline.ExperimentStartDate)
	return t
}
