package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// legacyEnv maps unprefixed environment variables onto config keys.
var legacyEnv = map[string]string{
	"ai.api_key":               "ANTHROPIC_API_KEY",
	"scraper.rate_limit_delay": "RATE_LIMIT_DELAY",
	"data.dir":                 "DATA_DIR",
	"logging.level":            "LOG_LEVEL",
	"publisher.s3.bucket":      "S3_BUCKET",
	"storage.mongo.uri":        "MONGO_URI",
}

// LoadDotEnv loads variables from the given .env files (".env" when none
// are given). Missing files are ignored; existing variables are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("SITESCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		// Prefixed form still wins when both are set.
		if err := v.BindEnv(key, "SITESCRAPER_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("sitescraper")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".sitescraper"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper. Every key must be
// registered for AutomaticEnv to see it during Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data.dir", cfg.Data.Dir)

	v.SetDefault("scraper.user_agent", cfg.Scraper.UserAgent)
	v.SetDefault("scraper.min_delay", cfg.Scraper.MinDelay)
	v.SetDefault("scraper.max_delay", cfg.Scraper.MaxDelay)
	v.SetDefault("scraper.rate_limit_delay", cfg.Scraper.RateLimitDelay)
	v.SetDefault("scraper.request_timeout", cfg.Scraper.RequestTimeout)
	v.SetDefault("scraper.respect_robots_txt", cfg.Scraper.RespectRobotsTxt)
	v.SetDefault("scraper.concurrency", cfg.Scraper.Concurrency)
	v.SetDefault("scraper.max_body_size", cfg.Scraper.MaxBodySize)
	v.SetDefault("scraper.proxies", cfg.Scraper.Proxies)
	v.SetDefault("scraper.proxy_rotation", cfg.Scraper.ProxyRotation)
	v.SetDefault("scraper.sites", cfg.Scraper.Sites)

	v.SetDefault("browser.enabled", cfg.Browser.Enabled)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.max_pages", cfg.Browser.MaxPages)

	v.SetDefault("ai.provider", cfg.AI.Provider)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.endpoint", cfg.AI.Endpoint)
	v.SetDefault("ai.api_key", cfg.AI.APIKey)
	v.SetDefault("ai.max_tokens", cfg.AI.MaxTokens)
	v.SetDefault("ai.temperature", cfg.AI.Temperature)
	v.SetDefault("ai.request_timeout", cfg.AI.RequestTimeout)

	v.SetDefault("rewriter.default_keywords", cfg.Rewriter.DefaultKeywords)
	v.SetDefault("rewriter.default_content_type", cfg.Rewriter.DefaultContentType)
	v.SetDefault("rewriter.default_sport", cfg.Rewriter.DefaultSport)

	v.SetDefault("dedup.threshold", cfg.Dedup.Threshold)

	v.SetDefault("seo.pass_threshold", cfg.SEO.PassThreshold)
	v.SetDefault("seo.publish_only_passed", cfg.SEO.PublishOnlyPassed)

	v.SetDefault("storage.raw", cfg.Storage.Raw)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)

	v.SetDefault("publisher.backends", cfg.Publisher.Backends)
	v.SetDefault("publisher.manifest", cfg.Publisher.Manifest)
	v.SetDefault("publisher.base_url", cfg.Publisher.BaseURL)
	v.SetDefault("publisher.author", cfg.Publisher.Author)
	v.SetDefault("publisher.s3.endpoint", cfg.Publisher.S3.Endpoint)
	v.SetDefault("publisher.s3.region", cfg.Publisher.S3.Region)
	v.SetDefault("publisher.s3.bucket", cfg.Publisher.S3.Bucket)
	v.SetDefault("publisher.s3.access_key_id", cfg.Publisher.S3.AccessKeyID)
	v.SetDefault("publisher.s3.secret_access_key", cfg.Publisher.S3.SecretAccessKey)
	v.SetDefault("publisher.s3.use_path_style", cfg.Publisher.S3.UsePathStyle)
	v.SetDefault("publisher.s3.prefix", cfg.Publisher.S3.Prefix)

	v.SetDefault("api.port", cfg.API.Port)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
