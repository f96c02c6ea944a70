package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Asset string `yaml:"asset"`
	Log   struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console or json
	} `yaml:"log"`
	DataSource struct {
		Provider          string  `yaml:"provider"` // yahoo, binance or mock
		BaseURL           string  `yaml:"base_url"`
		Interval          string  `yaml:"interval"`
		Limit             int     `yaml:"limit"`
		MinBars           int     `yaml:"min_bars"`
		VolPeriod         int     `yaml:"vol_period"`
		WindowSize        int     `yaml:"window_size"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"data_source"`
	Forecast struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
		EWMALambda float64       `yaml:"ewma_lambda"`
	} `yaml:"forecast"`
	Strategy struct {
		Policy      string  `yaml:"policy"`   // dynamic or static
		Fallback    string  `yaml:"fallback"` // static, dynamic or none
		MinSamples  int     `yaml:"min_samples"`
		BufferRatio float64 `yaml:"buffer_ratio"`
		StaticLow   float64 `yaml:"static_low"`
		StaticHigh  float64 `yaml:"static_high"`
	} `yaml:"strategy"`
	Portfolio struct {
		InitialCapital float64 `yaml:"initial_capital"`
		StartMode      string  `yaml:"start_mode"` // signal, long or flat
		StateFile      string  `yaml:"state_file"`
	} `yaml:"portfolio"`
	Telegram struct {
		BotToken    string `yaml:"bot_token"`
		ChatID      int64  `yaml:"chat_id"`
		APIEndpoint string `yaml:"api_endpoint"`
		MaxRetries  int    `yaml:"max_retries"`
	} `yaml:"telegram"`
	WhatsApp struct {
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Instance string `yaml:"instance"`
		Phone    string `yaml:"phone"`
	} `yaml:"whatsapp"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	HTTP struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"http"`
	Schedule struct {
		CycleCron string `yaml:"cycle_cron"`
		// ValidationInterval is the cadence /validate expects between recorded cycles.
		ValidationInterval time.Duration `yaml:"validation_interval"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the process environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"ASSET":              &c.Asset,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"EVOLUTION_API_URL":  &c.WhatsApp.BaseURL,
		"EVOLUTION_API_KEY":  &c.WhatsApp.APIKey,
		"WHATSAPP_PHONE":     &c.WhatsApp.Phone,
		"GARCH_SERVICE_URL":  &c.Forecast.ServiceURL,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
		"CRON_CYCLE":         &c.Schedule.CycleCron,
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"HTTPS_PROXY":        &c.Proxy,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.HTTP.Port = port
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}
	if v := os.Getenv("INITIAL_CAPITAL"); v != "" {
		capital, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("INITIAL_CAPITAL: %w", err)
		}
		c.Portfolio.InitialCapital = capital
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Asset == "" {
		c.Asset = "BTC-USD"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.Interval == "" {
		c.DataSource.Interval = "1h"
	}
	if c.DataSource.Limit == 0 {
		c.DataSource.Limit = 24 * 30
	}
	if c.DataSource.MinBars == 0 {
		c.DataSource.MinBars = 100
	}
	if c.DataSource.VolPeriod == 0 {
		c.DataSource.VolPeriod = 24
	}
	if c.DataSource.WindowSize == 0 {
		c.DataSource.WindowSize = 24 * 7
	}
	if c.DataSource.RequestsPerSecond == 0 {
		c.DataSource.RequestsPerSecond = 2
	}
	if c.Forecast.Timeout == 0 {
		c.Forecast.Timeout = 30 * time.Second
	}
	if c.Forecast.EWMALambda == 0 {
		c.Forecast.EWMALambda = 0.94
	}
	if c.Strategy.Policy == "" {
		c.Strategy.Policy = "dynamic"
	}
	if c.Strategy.Fallback == "" {
		c.Strategy.Fallback = "static"
	}
	if c.Strategy.MinSamples == 0 {
		c.Strategy.MinSamples = 20
	}
	if c.Strategy.BufferRatio == 0 {
		c.Strategy.BufferRatio = 0.1
	}
	if c.Strategy.StaticLow == 0 && c.Strategy.StaticHigh == 0 {
		c.Strategy.StaticLow = 1.5
		c.Strategy.StaticHigh = 3.0
	}
	if c.Portfolio.InitialCapital == 0 {
		c.Portfolio.InitialCapital = 1000
	}
	if c.Portfolio.StartMode == "" {
		c.Portfolio.StartMode = "signal"
	}
	if c.Portfolio.StateFile == "" {
		c.Portfolio.StateFile = "data/portfolio_state.json"
	}
	if c.Telegram.MaxRetries == 0 {
		c.Telegram.MaxRetries = 3
	}
	if c.WhatsApp.Instance == "" {
		c.WhatsApp.Instance = "garch_bot_instance"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "volatility-signals"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Schedule.CycleCron == "" {
		c.Schedule.CycleCron = "0 */5 * * * *"
	}
	if c.Schedule.ValidationInterval == 0 {
		c.Schedule.ValidationInterval = 5 * time.Minute
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/garch_sentinel.db"
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	if c.WhatsApp.BaseURL != "" {
		if c.WhatsApp.APIKey == "" {
			return fmt.Errorf("whatsapp.api_key is required when whatsapp.base_url is set")
		}
		if c.WhatsApp.Phone == "" {
			return fmt.Errorf("whatsapp.phone is required when whatsapp.base_url is set")
		}
	}
	switch c.DataSource.Provider {
	case "yahoo", "binance", "mock":
	default:
		return fmt.Errorf("data_source.provider must be yahoo, binance or mock, got %q", c.DataSource.Provider)
	}
	if c.DataSource.MinBars < 3 {
		return fmt.Errorf("data_source.min_bars must be at least 3")
	}
	switch c.Strategy.Policy {
	case "dynamic", "static":
	default:
		return fmt.Errorf("strategy.policy must be dynamic or static, got %q", c.Strategy.Policy)
	}
	switch c.Strategy.Fallback {
	case "dynamic", "static", "none":
	default:
		return fmt.Errorf("strategy.fallback must be dynamic, static or none, got %q", c.Strategy.Fallback)
	}
	if c.Strategy.MinSamples < 2 {
		return fmt.Errorf("strategy.min_samples must be at least 2")
	}
	if c.Strategy.BufferRatio < 0 {
		return fmt.Errorf("strategy.buffer_ratio must not be negative")
	}
	if c.Strategy.StaticLow > c.Strategy.StaticHigh {
		return fmt.Errorf("strategy.static_low must not exceed strategy.static_high")
	}
	if c.Portfolio.InitialCapital <= 0 {
		return fmt.Errorf("portfolio.initial_capital must be positive")
	}
	switch c.Portfolio.StartMode {
	case "signal", "long", "flat":
	default:
		return fmt.Errorf("portfolio.start_mode must be signal, long or flat, got %q", c.Portfolio.StartMode)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	return nil
}
