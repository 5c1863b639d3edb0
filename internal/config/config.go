package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Market    MarketConfig   `mapstructure:"market"`
	Selectors SelectorConfig `mapstructure:"selectors"`
	Database  DatabaseConfig `mapstructure:"database"`
	Redis     RedisConfig    `mapstructure:"redis"`
}

// MarketConfig holds everything needed to crawl one target site
type MarketConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	CategoryAPIURL  string `mapstructure:"category_api_url"`
	ProductAPIURL   string `mapstructure:"product_api_url"`
	CategoryPageURL string `mapstructure:"category_page_url"`
	PageQueryKey    string `mapstructure:"page_query_key"`

	Timeout              int      `mapstructure:"timeout"`
	MaxRetries           int      `mapstructure:"max_retries"`
	RetryBackoff         float64  `mapstructure:"retry_backoff"`
	RequestDelay         float64  `mapstructure:"request_delay"`
	PageSize             int      `mapstructure:"page_size"`
	PageLimit            int      `mapstructure:"page_limit"`
	Sort                 string   `mapstructure:"sort"`
	MaxWorkers           int      `mapstructure:"max_workers"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	UserAgent            string   `mapstructure:"user_agent"`
	Proxies              []string `mapstructure:"proxies"`

	// Category restricts a run to the category with this id or display name.
	Category string `mapstructure:"category"`
	// Resume skips categories recorded as complete by a previous run.
	Resume bool `mapstructure:"resume"`
}

// SelectorConfig holds the site-specific CSS selectors used by the HTML
// strategy. These are configuration data, not logic: an empty selector
// disables the corresponding extraction and the generic heuristics take over
// where one exists.
type SelectorConfig struct {
	CategoryLinks string `mapstructure:"category_links"`
	ProductCard   string `mapstructure:"product_card"`
	Name          string `mapstructure:"name"`
	Price         string `mapstructure:"price"`
	RegularPrice  string `mapstructure:"regular_price"`
	Link          string `mapstructure:"link"`
	Image         string `mapstructure:"image"`
	Unit          string `mapstructure:"unit"`
	OutOfStock    string `mapstructure:"out_of_stock"`
	NextPage      string `mapstructure:"next_page"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`

	// KeyPrefix namespaces the resume checkpoint keys.
	KeyPrefix string `mapstructure:"key_prefix"`
	// Stream is the name of the product record stream; empty disables the
	// stream sink.
	Stream string `mapstructure:"stream"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	applyDerived(&config.Market)

	return &config, nil
}

// applyDerived fills endpoint URLs that were left empty with conventional
// paths under the base URL.
func applyDerived(m *MarketConfig) {
	base := strings.TrimRight(m.BaseURL, "/")
	if m.CategoryAPIURL == "" {
		m.CategoryAPIURL = base + "/api/categories"
	}
	if m.ProductAPIURL == "" {
		m.ProductAPIURL = base + "/api/products"
	}
	if m.CategoryPageURL == "" {
		m.CategoryPageURL = base
	}
}

func setDefaults() {
	viper.SetDefault("market.base_url", "")
	viper.SetDefault("market.page_query_key", "page")
	viper.SetDefault("market.timeout", 30)
	viper.SetDefault("market.max_retries", 3)
	viper.SetDefault("market.retry_backoff", 2.0)
	viper.SetDefault("market.request_delay", 0.7)
	viper.SetDefault("market.page_size", 24)
	viper.SetDefault("market.page_limit", 0)
	viper.SetDefault("market.sort", "default")
	viper.SetDefault("market.max_workers", 1)
	viper.SetDefault("market.max_requests_per_second", 4)
	viper.SetDefault("market.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36")
	viper.SetDefault("market.resume", false)

	viper.SetDefault("selectors.product_card", ".productItem")
	viper.SetDefault("selectors.name", ".productName")
	viper.SetDefault("selectors.price", ".discountPriceSpan")
	viper.SetDefault("selectors.regular_price", ".regularPriceSpan")
	viper.SetDefault("selectors.link", "a")
	viper.SetDefault("selectors.image", "img")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "market")
	viper.SetDefault("database.user", "market_user")
	viper.SetDefault("database.password", "market_pass")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.key_prefix", "market:crawl:")
	viper.SetDefault("redis.stream", "market:stream:products")
}
