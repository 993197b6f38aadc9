package service

import (
	"log"

	"github.com/spf13/viper"
)

// Config is the full configuration surface. It is loaded once at startup
// and passed into components as a read-only snapshot; nothing mutates it
// while a request is in flight.
type Config struct {
	LLMProvider  string `mapstructure:"llm_provider"`
	BackendURL   string `mapstructure:"backend_url"`
	DataCacheDir string `mapstructure:"data_cache_dir"`

	// Category-level vendor selection, e.g. "core_stock_apis" -> "yfinance".
	DataVendors map[string]string `mapstructure:"data_vendors"`
	// Tool-level overrides; take precedence over the category default.
	ToolVendors map[string]string `mapstructure:"tool_vendors"`

	Binance BinanceConfig `mapstructure:"binance"`
	Yahoo   YahooConfig   `mapstructure:"yahoo"`
	News    NewsConfig    `mapstructure:"news"`
}

// BinanceConfig carries the kline endpoint connection settings.
type BinanceConfig struct {
	RESTURL     string `mapstructure:"rest_url"`
	PageDelayMs int    `mapstructure:"page_delay_ms"`
	TimeoutSec  int    `mapstructure:"timeout_sec"`
}

// YahooConfig carries the equity data endpoint settings.
type YahooConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// NewsConfig carries the news feed and news API settings. The FMP API key
// is read from the environment (FMP_API_KEY), never from the config file.
type NewsConfig struct {
	FeedURL    string `mapstructure:"feed_url"`
	FMPBaseURL string `mapstructure:"fmp_base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// LoadConfig reads config/config.yaml from configPath and resolves it
// against built-in defaults. Missing file is fatal; the defaults cover
// every key so a minimal file is enough.
func LoadConfig(configPath string) *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Fatalf("Config file not found: %s", err)
		} else {
			log.Fatalf("Error reading config file: %s", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config into struct: %s", err)
	}

	return &cfg
}

// DefaultConfig returns the configuration used when no file overrides are
// wanted (tests, library embedding).
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode default config: %s", err)
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm_provider", "openai")
	v.SetDefault("backend_url", "https://api.openai.com/v1")
	v.SetDefault("data_cache_dir", "data_cache")

	v.SetDefault("data_vendors", map[string]string{
		"core_stock_apis":      "yfinance",
		"technical_indicators": "yfinance",
		"fundamental_data":     "yfinance",
		"news_data":            "rss",
	})
	v.SetDefault("tool_vendors", map[string]string{})

	v.SetDefault("binance.rest_url", "https://api.binance.com")
	v.SetDefault("binance.page_delay_ms", 100)
	v.SetDefault("binance.timeout_sec", 30)

	v.SetDefault("yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("yahoo.timeout_sec", 30)

	v.SetDefault("news.feed_url", "https://coinjournal.net/news/feed/")
	v.SetDefault("news.fmp_base_url", "https://financialmodelingprep.com/api/v4/crypto_news")
	v.SetDefault("news.timeout_sec", 10)
}
