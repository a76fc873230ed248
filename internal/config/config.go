package config

import (
	"path/filepath"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// DefaultUserAgent identifies the scraper to the sites it visits.
const DefaultUserAgent = "NovigSiteScraper/1.0 (+https://novig.com)"

// Config is the root configuration for SiteScraper.
type Config struct {
	Data      DataConfig      `mapstructure:"data"      yaml:"data"`
	Scraper   ScraperConfig   `mapstructure:"scraper"   yaml:"scraper"`
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	AI        AIConfig        `mapstructure:"ai"        yaml:"ai"`
	Rewriter  RewriterConfig  `mapstructure:"rewriter"  yaml:"rewriter"`
	Dedup     DedupConfig     `mapstructure:"dedup"     yaml:"dedup"`
	SEO       SEOConfig       `mapstructure:"seo"       yaml:"seo"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Publisher PublisherConfig `mapstructure:"publisher" yaml:"publisher"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// DataConfig locates the on-disk working tree.
type DataConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// RawDir holds scraped JSON, one directory per site.
func (d DataConfig) RawDir() string { return filepath.Join(d.Dir, "raw") }

// ProcessedDir holds rewritten Markdown, one directory per date.
func (d DataConfig) ProcessedDir() string { return filepath.Join(d.Dir, "processed") }

// PublishedDir holds final HTML/RSS and the manifest.
func (d DataConfig) PublishedDir() string { return filepath.Join(d.Dir, "published") }

// LogDir holds the pipeline log file.
func (d DataConfig) LogDir() string { return filepath.Join(d.Dir, "logs") }

// ScraperConfig controls fetching and politeness.
type ScraperConfig struct {
	UserAgent        string        `mapstructure:"user_agent"         yaml:"user_agent"`
	MinDelay         time.Duration `mapstructure:"min_delay"          yaml:"min_delay"`
	MaxDelay         time.Duration `mapstructure:"max_delay"          yaml:"max_delay"`
	RateLimitDelay   time.Duration `mapstructure:"rate_limit_delay"   yaml:"rate_limit_delay"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"    yaml:"request_timeout"`
	RespectRobotsTxt bool          `mapstructure:"respect_robots_txt" yaml:"respect_robots_txt"`
	Concurrency      int           `mapstructure:"concurrency"        yaml:"concurrency"`
	MaxBodySize      int64         `mapstructure:"max_body_size"      yaml:"max_body_size"`
	Proxies          []string      `mapstructure:"proxies"            yaml:"proxies"`
	ProxyRotation    string        `mapstructure:"proxy_rotation"     yaml:"proxy_rotation"`
	Sites            []SiteConfig  `mapstructure:"sites"              yaml:"sites"`
}

// SiteConfig describes one target site. Markup is not configured here;
// pages are reduced to readable text generically.
type SiteConfig struct {
	Name        string   `mapstructure:"name"         yaml:"name"`
	BaseURL     string   `mapstructure:"base_url"     yaml:"base_url"`
	Paths       []string `mapstructure:"paths"        yaml:"paths"`
	RenderJS    bool     `mapstructure:"render_js"    yaml:"render_js"`
	FollowLinks int      `mapstructure:"follow_links" yaml:"follow_links"`
}

// BrowserConfig controls headless rendering for render_js sites.
type BrowserConfig struct {
	Enabled  bool `mapstructure:"enabled"   yaml:"enabled"`
	Stealth  bool `mapstructure:"stealth"   yaml:"stealth"`
	MaxPages int  `mapstructure:"max_pages" yaml:"max_pages"`
}

// AIConfig controls the LLM backend.
type AIConfig struct {
	Provider       string        `mapstructure:"provider"        yaml:"provider"`
	Model          string        `mapstructure:"model"           yaml:"model"`
	Endpoint       string        `mapstructure:"endpoint"        yaml:"endpoint"`
	APIKey         string        `mapstructure:"api_key"         yaml:"api_key"`
	MaxTokens      int           `mapstructure:"max_tokens"      yaml:"max_tokens"`
	Temperature    float64       `mapstructure:"temperature"     yaml:"temperature"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// RewriterConfig holds article defaults.
type RewriterConfig struct {
	DefaultKeywords    []string `mapstructure:"default_keywords"     yaml:"default_keywords"`
	DefaultContentType string   `mapstructure:"default_content_type" yaml:"default_content_type"`
	DefaultSport       string   `mapstructure:"default_sport"        yaml:"default_sport"`
}

// DedupConfig controls duplicate detection.
type DedupConfig struct {
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`
}

// SEOConfig controls article gating.
type SEOConfig struct {
	PassThreshold     int  `mapstructure:"pass_threshold"      yaml:"pass_threshold"`
	PublishOnlyPassed bool `mapstructure:"publish_only_passed" yaml:"publish_only_passed"`
}

// StorageConfig controls where raw scrapes are written.
type StorageConfig struct {
	Raw   []string    `mapstructure:"raw"   yaml:"raw"`
	Mongo MongoConfig `mapstructure:"mongo" yaml:"mongo"`
}

// MongoConfig locates a MongoDB collection.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// PublisherConfig controls the publishing backends.
type PublisherConfig struct {
	Backends []string `mapstructure:"backends" yaml:"backends"`
	Manifest string   `mapstructure:"manifest" yaml:"manifest"`
	BaseURL  string   `mapstructure:"base_url" yaml:"base_url"`
	Author   string   `mapstructure:"author"   yaml:"author"`
	S3       S3Config `mapstructure:"s3"       yaml:"s3"`
}

// S3Config locates an S3-compatible bucket.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"          yaml:"endpoint"`
	Region          string `mapstructure:"region"            yaml:"region"`
	Bucket          string `mapstructure:"bucket"            yaml:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"     yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"    yaml:"use_path_style"`
	Prefix          string `mapstructure:"prefix"            yaml:"prefix"`
}

// APIConfig controls the REST server.
type APIConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   bool   `mapstructure:"file"   yaml:"file"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultSites returns the four sites the pipeline ships with.
func DefaultSites() []SiteConfig {
	return []SiteConfig{
		{
			Name:    "rotowire",
			BaseURL: "https://www.rotowire.com",
			Paths:   []string{"/betting/nba/", "/betting/nba/player-props.php", "/betting/nfl/", "/betting/mlb/"},
		},
		{
			Name:     "bettingpros",
			BaseURL:  "https://www.bettingpros.com",
			Paths:    []string{"/nba/picks/", "/nba/props/", "/nba/odds/", "/nfl/picks/"},
			RenderJS: true,
		},
		{
			Name:     "oddsshark",
			BaseURL:  "https://www.oddsshark.com",
			Paths:    []string{"/nba/odds", "/nba/computer-picks", "/ncaab/odds", "/nfl/odds"},
			RenderJS: true,
		},
		{
			Name:        "covers",
			BaseURL:     "https://www.covers.com",
			Paths:       []string{"/nba/betting-news", "/nba/odds", "/ncaab/betting-news", "/nfl/betting-news"},
			FollowLinks: 5,
		},
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{Dir: "data"},
		Scraper: ScraperConfig{
			UserAgent:        DefaultUserAgent,
			MinDelay:         1 * time.Second,
			MaxDelay:         2 * time.Second,
			RateLimitDelay:   2 * time.Second,
			RequestTimeout:   30 * time.Second,
			RespectRobotsTxt: true,
			Concurrency:      4,
			MaxBodySize:      10 * 1024 * 1024, // 10MB
			ProxyRotation:    "round_robin",
			Sites:            DefaultSites(),
		},
		Browser: BrowserConfig{
			Enabled:  true,
			Stealth:  true,
			MaxPages: 2,
		},
		AI: AIConfig{
			Provider:       "anthropic",
			Model:          "claude-sonnet-4-6",
			MaxTokens:      4096,
			Temperature:    0.7,
			RequestTimeout: 120 * time.Second,
		},
		Rewriter: RewriterConfig{
			DefaultKeywords:    []string{"Novig", "prediction markets"},
			DefaultContentType: "best_bets",
			DefaultSport:       "NBA",
		},
		Dedup: DedupConfig{Threshold: 0.85},
		SEO:   SEOConfig{PassThreshold: 70},
		Storage: StorageConfig{
			Raw: []string{"json"},
			Mongo: MongoConfig{
				Database:   "sitescraper",
				Collection: "raw_articles",
			},
		},
		Publisher: PublisherConfig{
			Backends: []string{"file"},
			Manifest: "file",
			BaseURL:  "https://novig.com/blog",
			Author:   "Novig AI",
			S3: S3Config{
				Region: "us-east-1",
				Prefix: "blog",
			},
		},
		API: APIConfig{Port: 8080},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// SiteByName returns the configured site with the given name.
func (c *Config) SiteByName(name string) (SiteConfig, bool) {
	for _, s := range c.Scraper.Sites {
		if s.Name == name {
			return s, true
		}
	}
	return SiteConfig{}, false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// UsesMongo reports whether any component is configured to use MongoDB.
func (c *Config) UsesMongo() bool {
	return contains(c.Storage.Raw, "mongo") || c.Publisher.Manifest == "mongo"
}
