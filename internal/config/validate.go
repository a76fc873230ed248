package config

import (
	"fmt"
	"net/url"
	"strings"
)

var (
	validProviders    = map[string]bool{"anthropic": true, "ollama": true}
	validContentTypes = map[string]bool{
		"best_bets": true, "player_props": true, "odds_analysis": true, "predictions": true,
	}
	validRawStorage = map[string]bool{"json": true, "jsonl": true, "mongo": true}
	validBackends   = map[string]bool{"file": true, "s3": true}
	validManifests  = map[string]bool{"file": true, "mongo": true}
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Data.Dir) == "" {
		return fmt.Errorf("data.dir must not be empty")
	}

	s := cfg.Scraper
	if s.MinDelay < 0 || s.MaxDelay < 0 || s.RateLimitDelay < 0 {
		return fmt.Errorf("scraper delays must be >= 0")
	}
	if s.MinDelay > s.MaxDelay {
		return fmt.Errorf("scraper.min_delay (%s) must be <= scraper.max_delay (%s)", s.MinDelay, s.MaxDelay)
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("scraper.request_timeout must be > 0")
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("scraper.concurrency must be >= 1, got %d", s.Concurrency)
	}
	if s.MaxBodySize <= 0 {
		return fmt.Errorf("scraper.max_body_size must be > 0")
	}
	if s.ProxyRotation != "" && s.ProxyRotation != "round_robin" && s.ProxyRotation != "random" {
		return fmt.Errorf("scraper.proxy_rotation must be 'round_robin' or 'random', got %q", s.ProxyRotation)
	}
	for _, p := range s.Proxies {
		if u, err := url.Parse(p); err != nil || u.Host == "" {
			return fmt.Errorf("scraper.proxies: invalid proxy URL %q", p)
		}
	}
	seen := make(map[string]bool, len(s.Sites))
	for _, site := range s.Sites {
		if site.Name == "" {
			return fmt.Errorf("scraper.sites: every site needs a name")
		}
		if seen[site.Name] {
			return fmt.Errorf("scraper.sites: duplicate site %q", site.Name)
		}
		seen[site.Name] = true
		if err := ValidateURL(site.BaseURL); err != nil {
			return fmt.Errorf("site %q: %w", site.Name, err)
		}
		if site.FollowLinks < 0 {
			return fmt.Errorf("site %q: follow_links must be >= 0", site.Name)
		}
	}

	if !validProviders[cfg.AI.Provider] {
		return fmt.Errorf("ai.provider must be 'anthropic' or 'ollama', got %q", cfg.AI.Provider)
	}
	if cfg.AI.MaxTokens < 1 {
		return fmt.Errorf("ai.max_tokens must be >= 1, got %d", cfg.AI.MaxTokens)
	}

	if !validContentTypes[cfg.Rewriter.DefaultContentType] {
		return fmt.Errorf("rewriter.default_content_type %q is not supported (valid: best_bets, player_props, odds_analysis, predictions)",
			cfg.Rewriter.DefaultContentType)
	}

	if cfg.Dedup.Threshold <= 0 || cfg.Dedup.Threshold > 1 {
		return fmt.Errorf("dedup.threshold must be in (0, 1], got %v", cfg.Dedup.Threshold)
	}
	if cfg.SEO.PassThreshold < 0 || cfg.SEO.PassThreshold > 100 {
		return fmt.Errorf("seo.pass_threshold must be 0-100, got %d", cfg.SEO.PassThreshold)
	}

	for _, r := range cfg.Storage.Raw {
		if !validRawStorage[r] {
			return fmt.Errorf("storage.raw %q is not supported (valid: json, jsonl, mongo)", r)
		}
	}

	if len(cfg.Publisher.Backends) == 0 {
		return fmt.Errorf("publisher.backends must not be empty")
	}
	for _, b := range cfg.Publisher.Backends {
		if !validBackends[b] {
			return fmt.Errorf("publisher backend %q is not supported (valid: file, s3)", b)
		}
	}
	if !validManifests[cfg.Publisher.Manifest] {
		return fmt.Errorf("publisher.manifest must be 'file' or 'mongo', got %q", cfg.Publisher.Manifest)
	}
	if contains(cfg.Publisher.Backends, "s3") && cfg.Publisher.S3.Bucket == "" {
		return fmt.Errorf("publisher.s3.bucket is required for the s3 backend")
	}
	if cfg.UsesMongo() && cfg.Storage.Mongo.URI == "" {
		return fmt.Errorf("storage.mongo.uri is required when mongo is used")
	}

	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("api.port must be 1-65535, got %d", cfg.API.Port)
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

// ValidateURL checks if a URL string is valid for scraping.
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
