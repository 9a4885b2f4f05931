package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Harvest.BaseURL); err != nil {
		return fmt.Errorf("harvest.base_url: %w", err)
	}
	if len(cfg.Harvest.Categories) == 0 {
		return fmt.Errorf("harvest.categories must not be empty")
	}
	if cfg.Harvest.MaxPages < 1 {
		return fmt.Errorf("harvest.max_pages must be >= 1, got %d", cfg.Harvest.MaxPages)
	}
	if cfg.Harvest.PageDelay < 0 {
		return fmt.Errorf("harvest.page_delay must be >= 0")
	}
	if cfg.Harvest.APIDelay < 0 {
		return fmt.Errorf("harvest.api_delay must be >= 0")
	}
	if cfg.Harvest.MaxFallbackProducts < 1 {
		return fmt.Errorf("harvest.max_fallback_products must be >= 1, got %d", cfg.Harvest.MaxFallbackProducts)
	}
	if cfg.Harvest.ReferenceYear < 1970 || cfg.Harvest.ReferenceYear > 9999 {
		return fmt.Errorf("harvest.reference_year must be a plausible year, got %d", cfg.Harvest.ReferenceYear)
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if cfg.Storage.Type != "json" && cfg.Storage.Type != "mongodb" {
		return fmt.Errorf("storage.type %q is not supported (valid: json, mongodb)", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "json" && cfg.Storage.OutputPath == "" {
		return fmt.Errorf("storage.output_path must be set for json storage")
	}
	if cfg.Storage.Type == "mongodb" && cfg.Storage.MongoURI == "" {
		return fmt.Errorf("storage.mongo_uri must be set for mongodb storage")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a harvest target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
