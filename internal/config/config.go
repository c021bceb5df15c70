package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"StockRanker/internal/analysis"
)

// Config holds all application configuration.
type Config struct {
	Cache struct {
		Path   string `yaml:"path"`
		Format string `yaml:"format"` // json or msgpack
	} `yaml:"cache"`
	DataSource struct {
		Provider       string        `yaml:"provider"` // lse, yahoo or mock
		LSEBaseURL     string        `yaml:"lse_base_url"`
		WidgetsBaseURL string        `yaml:"widgets_base_url"`
		Index          string        `yaml:"index"`
		Pages          int           `yaml:"pages"`
		RateLimit      int           `yaml:"rate_limit"` // requests per second, 0 for none
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Retry struct {
		MaxRetries int           `yaml:"max_retries"`
		Delay      time.Duration `yaml:"delay"`
	} `yaml:"retry"`
	Analysis  analysis.Options `yaml:"analysis"`
	Portfolio struct {
		Path string `yaml:"path"`
	} `yaml:"portfolio"`
	Fred struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"fred"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		TopN        int    `yaml:"top_n"`
		RunOnStart  bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr           string        `yaml:"addr"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		CORSOrigins    string        `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Default returns the configuration used for anything the file and the
// environment leave unset.
func Default() *Config {
	cfg := &Config{}
	cfg.Cache.Path = "data/historical"
	cfg.Cache.Format = "json"
	cfg.DataSource.Provider = "lse"
	cfg.DataSource.Index = "ftse-100"
	cfg.DataSource.Pages = 5
	cfg.DataSource.RateLimit = 5
	cfg.DataSource.Timeout = 30 * time.Second
	cfg.Retry.MaxRetries = 3
	cfg.Retry.Delay = time.Second
	cfg.Analysis = analysis.DefaultOptions()
	cfg.Portfolio.Path = "data/portfolio"
	cfg.Schedule.RefreshCron = "0 0 7 * * 1-5"
	cfg.Schedule.TopN = 10
	cfg.Database.SQLitePath = "data/stock_ranker.db"
	cfg.Server.Addr = ":8080"
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Server.CORSOrigins = "*"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads .env, then the YAML file at path over the defaults, then
// applies environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"CACHE_PATH":         &c.Cache.Path,
		"CACHE_FORMAT":       &c.Cache.Format,
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"LSE_BASE_URL":       &c.DataSource.LSEBaseURL,
		"WIDGETS_BASE_URL":   &c.DataSource.WidgetsBaseURL,
		"PORTFOLIO_PATH":     &c.Portfolio.Path,
		"FRED_API_KEY":       &c.Fred.APIKey,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"CRON_REFRESH":       &c.Schedule.RefreshCron,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"SERVER_ADDR":        &c.Server.Addr,
		"LOG_LEVEL":          &c.Log.Level,
		"HTTPS_PROXY":        &c.Proxy,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v := os.Getenv("MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_RETRIES: %w", err)
		}
		c.Retry.MaxRetries = n
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_ON_START: %w", err)
		}
		c.Schedule.RunOnStart = b
	}
	return nil
}

// Validate checks the values every command depends on.
func (c *Config) Validate() error {
	switch c.Cache.Format {
	case "json", "msgpack":
	default:
		return fmt.Errorf("cache.format must be json or msgpack, got %q", c.Cache.Format)
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required")
	}
	switch c.DataSource.Provider {
	case "lse", "yahoo", "mock":
	default:
		return fmt.Errorf("data_source.provider must be lse, yahoo or mock, got %q", c.DataSource.Provider)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("retry.delay must not be negative")
	}
	if c.DataSource.RateLimit < 0 {
		return fmt.Errorf("data_source.rate_limit must not be negative")
	}
	a := c.Analysis
	if a.MaxPoints < 0 || a.Window < 0 || a.MinAverage < 0 || a.MonthSamples < 0 || a.YearSamples < 0 || a.HalfWindow < 0 {
		return fmt.Errorf("analysis windows must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether reports can be delivered.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
