package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"CandleScout/internal/model"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		BaseURL         string `yaml:"base_url"`
		Engine          string `yaml:"engine"`
		Market          string `yaml:"market"`
		VenueTZ         string `yaml:"venue_tz"`
		DisplayTZ       string `yaml:"display_tz"`
		FetchTimeoutSec int    `yaml:"fetch_timeout_sec"`
		TopCapCount     int    `yaml:"top_cap_count"`
	} `yaml:"data_source"`
	Benchmark struct {
		Engine string `yaml:"engine"`
		Market string `yaml:"market"`
		Ticker string `yaml:"ticker"`
	} `yaml:"benchmark"`
	Fetch struct {
		LookbackHours int `yaml:"lookback_hours"` // 'from' window of candle requests
		Interval      int `yaml:"interval"`       // candle interval code
		MaxAgeMinutes int `yaml:"max_age_minutes"`
	} `yaml:"fetch"`
	Batch struct {
		LookbackHours int     `yaml:"lookback_hours"`
		FeeIn         float64 `yaml:"fee_in"`
		FeeOut        float64 `yaml:"fee_out"`
		LoanFee       float64 `yaml:"loan_fee"`
		RiskFree      float64 `yaml:"risk_free"`
		PerYear       bool    `yaml:"per_year"`
		Rule          string  `yaml:"rule"`
		NumRows       int     `yaml:"num_rows"`
		OrderField    int     `yaml:"order_field"`
	} `yaml:"batch"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		BatchCron   string `yaml:"batch_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTLHours int    `yaml:"ttl_hours"`
	} `yaml:"redis"`
	Proxy string `yaml:"proxy"`
}

// Load reads a .env file if present, then the YAML config, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

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
	if v := os.Getenv("MOEX_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("FETCH_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DataSource.FetchTimeoutSec = n
		}
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("CRON_BATCH"); v != "" {
		cfg.Schedule.BatchCron = v
	}

	// Defaults
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "http://iss.moex.com"
	}
	if cfg.DataSource.Engine == "" {
		cfg.DataSource.Engine = "stock"
	}
	if cfg.DataSource.Market == "" {
		cfg.DataSource.Market = "shares"
	}
	if cfg.DataSource.VenueTZ == "" {
		cfg.DataSource.VenueTZ = "Europe/Moscow"
	}
	if cfg.DataSource.DisplayTZ == "" {
		cfg.DataSource.DisplayTZ = "Local"
	}
	if cfg.DataSource.FetchTimeoutSec == 0 {
		cfg.DataSource.FetchTimeoutSec = 300
	}
	if cfg.DataSource.TopCapCount == 0 {
		cfg.DataSource.TopCapCount = 150
	}
	if cfg.Benchmark.Engine == "" {
		cfg.Benchmark.Engine = "stock"
	}
	if cfg.Benchmark.Market == "" {
		cfg.Benchmark.Market = "index"
	}
	if cfg.Benchmark.Ticker == "" {
		cfg.Benchmark.Ticker = "IMOEX"
	}
	if cfg.Fetch.LookbackHours == 0 {
		cfg.Fetch.LookbackHours = 7 * 24
	}
	if cfg.Fetch.Interval == 0 {
		cfg.Fetch.Interval = 60 // hourly candles
	}
	if cfg.Fetch.MaxAgeMinutes == 0 {
		cfg.Fetch.MaxAgeMinutes = 60
	}
	if cfg.Batch.LookbackHours == 0 {
		cfg.Batch.LookbackHours = 24
	}
	if cfg.Batch.Rule == "" {
		cfg.Batch.Rule = string(model.RuleOC)
	}
	if cfg.Batch.NumRows == 0 {
		cfg.Batch.NumRows = 10
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 */30 * * * *"
	}
	if cfg.Schedule.BatchCron == "" {
		cfg.Schedule.BatchCron = "0 0 19 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/candle_scout.db"
	}
	if cfg.Redis.TTLHours == 0 {
		cfg.Redis.TTLHours = 6
	}

	return cfg, nil
}

// BatchParams converts the batch section into computation parameters.
func (c *Config) BatchParams() model.BatchParams {
	return model.BatchParams{
		Lookback:   time.Duration(c.Batch.LookbackHours) * time.Hour,
		FeeIn:      c.Batch.FeeIn,
		FeeOut:     c.Batch.FeeOut,
		LoanFee:    c.Batch.LoanFee,
		RiskFree:   c.Batch.RiskFree,
		PerYear:    c.Batch.PerYear,
		Rule:       model.Rule(c.Batch.Rule),
		NumRows:    c.Batch.NumRows,
		OrderField: model.OrderField(c.Batch.OrderField),
	}
}

// FetchTimeout is the aggregate budget for one fetch batch.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.DataSource.FetchTimeoutSec) * time.Second
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required")
	}
	if _, err := time.LoadLocation(c.DataSource.VenueTZ); err != nil {
		return fmt.Errorf("data_source.venue_tz: %w", err)
	}
	if _, err := time.LoadLocation(c.DataSource.DisplayTZ); err != nil {
		return fmt.Errorf("data_source.display_tz: %w", err)
	}
	if c.Benchmark.Ticker == "" {
		return fmt.Errorf("benchmark.ticker is required")
	}
	params := c.BatchParams()
	if err := params.Validate(); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	return nil
}
