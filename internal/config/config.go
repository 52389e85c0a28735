package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"market-pulse/internal/logging"
	"market-pulse/internal/market"
)

// Config materialises application configuration.
type Config struct {
	App     AppConfig      `mapstructure:"app"`
	Logging logging.Config `mapstructure:"logging"`
	Feed    FeedConfig     `mapstructure:"feed"`
	History HistoryConfig  `mapstructure:"history"`
	Refresh RefreshConfig  `mapstructure:"refresh"`
	Rates   RatesConfig    `mapstructure:"rates"`
	Chart   ChartConfig    `mapstructure:"chart"`
	Convert ConvertConfig  `mapstructure:"convert"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	ActiveAsset string `mapstructure:"active_asset"`
}

// FeedConfig covers the push-feed websocket connection.
type FeedConfig struct {
	URL              string        `mapstructure:"url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	Buffer           int           `mapstructure:"buffer"`
}

// HistoryConfig covers the historical candle snapshot source.
type HistoryConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Interval       string        `mapstructure:"interval"`
	Limit          int           `mapstructure:"limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// RefreshConfig governs the reference-refresh cadence.
type RefreshConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// RatesConfig covers the startup exchange-rate lookup.
type RatesConfig struct {
	URL            string        `mapstructure:"url"`
	Currency       string        `mapstructure:"currency"`
	Fallback       float64       `mapstructure:"fallback"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ChartConfig sets PNG rendering behaviour. An empty output_dir disables
// rendering entirely.
type ChartConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
}

// ConvertConfig holds per-asset holdings used by the conversion consumer.
type ConvertConfig struct {
	Amounts map[string]float64 `mapstructure:"amounts"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKETPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "marketpulse")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.active_asset", string(market.Bitcoin))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("feed.url", "wss://stream.binance.com:9443/ws/btcusdt@ticker/ethusdt@ticker")
	v.SetDefault("feed.handshake_timeout", "10s")
	v.SetDefault("feed.buffer", 64)

	v.SetDefault("history.base_url", "https://api.binance.com/api/v3")
	v.SetDefault("history.interval", "15m")
	v.SetDefault("history.limit", 100)
	v.SetDefault("history.request_timeout", "10s")
	v.SetDefault("history.user_agent", "marketpulse/1.0")

	v.SetDefault("refresh.interval", "60s")
	v.SetDefault("refresh.startup_delay", "0s")

	v.SetDefault("rates.url", "https://api.exchangerate-api.com/v4/latest/USD")
	v.SetDefault("rates.currency", "CNY")
	v.SetDefault("rates.fallback", 7.2)
	v.SetDefault("rates.request_timeout", "10s")

	v.SetDefault("chart.output_dir", "")
	v.SetDefault("chart.width", 1280)
	v.SetDefault("chart.height", 720)

	v.SetDefault("convert.amounts", map[string]float64{string(market.Bitcoin): 1})
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if _, ok := market.AssetForName(c.App.ActiveAsset); !ok {
		return fmt.Errorf("app.active_asset %q is not a tracked asset", c.App.ActiveAsset)
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if c.History.Limit <= 0 {
		return fmt.Errorf("history.limit must be greater than zero")
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be greater than zero")
	}
	if c.Rates.Fallback <= 0 {
		return fmt.Errorf("rates.fallback must be greater than zero")
	}
	for name := range c.Convert.Amounts {
		if _, ok := market.AssetForName(name); !ok {
			return fmt.Errorf("convert.amounts: %q is not a tracked asset", name)
		}
	}
	return nil
}
