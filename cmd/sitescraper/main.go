package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Yashvanth1222/SiteScraper/internal/config"
)

var (
	cfgFile string
	verbose bool
	dataDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sitescraper",
		Short: "SiteScraper: scrape, rewrite and publish sports betting articles",
		Long: `SiteScraper collects betting content from configured sites, removes
near-duplicates, rewrites each story with an LLM, scores it for SEO, and
publishes the passing articles as HTML and RSS.

Stages:
  scrape   fetch listing pages and linked articles into data/raw
  rewrite  deduplicate and rewrite raw records into data/processed
  publish  render processed Markdown into data/published (file, s3)
  run      all three in order`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override data.dir")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(rewriteCmd())
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(feedCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env, the config file and environment, then applies
// the persistent flags.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dataDir != "" {
		cfg.Data.Dir = dataDir
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger writing to stderr and, when
// logging.file is set, to logs/pipeline.log. The returned func closes the
// log file.
func setupLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var (
		out     io.Writer = os.Stderr
		closeFn           = func() {}
	)
	if cfg.Logging.File {
		if err := os.MkdirAll(cfg.Data.LogDir(), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(cfg.Data.LogDir(), "pipeline.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closeFn = func() { f.Close() }
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), closeFn, nil
}

// today is the default --date.
func today() string { return time.Now().Format("2006-01-02") }

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("SiteScraper %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Data:\n")
			fmt.Printf("  Dir:                %s\n", cfg.Data.Dir)
			fmt.Printf("\nScraper:\n")
			fmt.Printf("  User Agent:         %s\n", cfg.Scraper.UserAgent)
			fmt.Printf("  Delay:              %s - %s\n", cfg.Scraper.MinDelay, cfg.Scraper.MaxDelay)
			fmt.Printf("  Request Timeout:    %s\n", cfg.Scraper.RequestTimeout)
			fmt.Printf("  Respect robots.txt: %v\n", cfg.Scraper.RespectRobotsTxt)
			fmt.Printf("  Concurrency:        %d\n", cfg.Scraper.Concurrency)
			for _, s := range cfg.Scraper.Sites {
				fmt.Printf("  Site %-14s %s %v (render_js=%v, follow_links=%d)\n", s.Name+":", s.BaseURL, s.Paths, s.RenderJS, s.FollowLinks)
			}
			fmt.Printf("\nAI:\n")
			fmt.Printf("  Provider:           %s\n", cfg.AI.Provider)
			fmt.Printf("  Model:              %s\n", cfg.AI.Model)
			fmt.Printf("  API Key:            %s\n", redact(cfg.AI.APIKey))
			fmt.Printf("\nRewriter:\n")
			fmt.Printf("  Content Type:       %s\n", cfg.Rewriter.DefaultContentType)
			fmt.Printf("  Sport:              %s\n", cfg.Rewriter.DefaultSport)
			fmt.Printf("  Keywords:           %v\n", cfg.Rewriter.DefaultKeywords)
			fmt.Printf("\nDedup threshold:      %.2f\n", cfg.Dedup.Threshold)
			fmt.Printf("SEO pass threshold:   %d (publish only passed: %v)\n", cfg.SEO.PassThreshold, cfg.SEO.PublishOnlyPassed)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Raw:                %v\n", cfg.Storage.Raw)
			fmt.Printf("\nPublisher:\n")
			fmt.Printf("  Backends:           %v\n", cfg.Publisher.Backends)
			fmt.Printf("  Manifest:           %s\n", cfg.Publisher.Manifest)
			fmt.Printf("  Base URL:           %s\n", cfg.Publisher.BaseURL)
			fmt.Printf("\nAPI port:             %d\n", cfg.API.Port)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:            %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:               %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

func redact(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}
