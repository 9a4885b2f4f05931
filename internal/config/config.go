package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for ShopStalk.
type Config struct {
	Harvest HarvestConfig `mapstructure:"harvest" yaml:"harvest"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Auth    AuthConfig    `mapstructure:"auth"    yaml:"auth"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// HarvestConfig controls the harvest run itself.
type HarvestConfig struct {
	// BaseURL is the root of the target site.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Categories are the catalog categories to crawl. The site also
	// exposes "household", which is empty and intentionally skipped.
	Categories []string `mapstructure:"categories" yaml:"categories"`

	// MaxPages is the page-count ceiling per paginated source. Crawls
	// normally stop earlier via their termination conditions.
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`

	// PageDelay is the politeness delay between catalog listing pages.
	PageDelay time.Duration `mapstructure:"page_delay" yaml:"page_delay"`

	// APIDelay is the politeness delay between paginated API requests
	// and between product detail pages.
	APIDelay time.Duration `mapstructure:"api_delay" yaml:"api_delay"`

	// MaxFallbackProducts caps how many product detail pages the
	// embedded-JSON fallback harvester will visit.
	MaxFallbackProducts int `mapstructure:"max_fallback_products" yaml:"max_fallback_products"`

	// ReferenceYear is the calendar year all review dates are projected
	// onto so downstream month filtering works on one axis.
	ReferenceYear int `mapstructure:"reference_year" yaml:"reference_year"`
}

// FetcherConfig controls the HTTP fetch client.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"` // http or browser
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
	Accept          string        `mapstructure:"accept"            yaml:"accept"`
	AcceptLanguage  string        `mapstructure:"accept_language"   yaml:"accept_language"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// AuthConfig holds the soft-gating header values the target expects.
// Neither is a real credential; both are observable in page source.
type AuthConfig struct {
	// SecretToken is sent as X-Secret-Token when the testimonials
	// endpoint rejects the referer-only request.
	SecretToken string `mapstructure:"secret_token" yaml:"secret_token"`

	// CSRFToken is sent as x-csrf-token on every reviews API request.
	CSRFToken string `mapstructure:"csrf_token" yaml:"csrf_token"`
}

// StorageConfig controls where the harvest document is written.
type StorageConfig struct {
	Type            string `mapstructure:"type"             yaml:"type"` // json or mongodb
	OutputPath      string `mapstructure:"output_path"      yaml:"output_path"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults for the
// reference target site.
func DefaultConfig() *Config {
	return &Config{
		Harvest: HarvestConfig{
			BaseURL:             "https://web-scraping.dev",
			Categories:          []string{"apparel", "consumables"},
			MaxPages:            200,
			PageDelay:           200 * time.Millisecond,
			APIDelay:            150 * time.Millisecond,
			MaxFallbackProducts: 60,
			ReferenceYear:       2023,
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  25 * time.Second,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			Accept:          "text/html,application/json;q=0.9,*/*;q=0.8",
			AcceptLanguage:  "en-US,en;q=0.9",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
		},
		Auth: AuthConfig{
			SecretToken: "secret123",
			CSRFToken:   "secret-csrf-token-123",
		},
		Storage: StorageConfig{
			Type:            "json",
			OutputPath:      "./data.json",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "shopstalk",
			MongoCollection: "harvests",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
