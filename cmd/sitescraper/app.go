package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Yashvanth1222/SiteScraper/internal/ai"
	"github.com/Yashvanth1222/SiteScraper/internal/api"
	"github.com/Yashvanth1222/SiteScraper/internal/config"
	"github.com/Yashvanth1222/SiteScraper/internal/fetcher"
	"github.com/Yashvanth1222/SiteScraper/internal/observability"
	"github.com/Yashvanth1222/SiteScraper/internal/pipeline"
	"github.com/Yashvanth1222/SiteScraper/internal/publisher"
	"github.com/Yashvanth1222/SiteScraper/internal/rewriter"
	"github.com/Yashvanth1222/SiteScraper/internal/scraper"
	"github.com/Yashvanth1222/SiteScraper/internal/seo"
	"github.com/Yashvanth1222/SiteScraper/internal/storage"
)

// app holds what every subcommand needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	close   func()
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := setupLogger(cfg)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	return &app{cfg: cfg, logger: logger, metrics: metrics, close: closeLog}, nil
}

// sites returns the configured sites, or the named subset.
func (a *app) sites(names []string) ([]config.SiteConfig, error) {
	if len(names) == 0 {
		return a.cfg.Scraper.Sites, nil
	}
	out := make([]config.SiteConfig, 0, len(names))
	for _, n := range names {
		s, ok := a.cfg.SiteByName(n)
		if !ok {
			return nil, fmt.Errorf("unknown site %q", n)
		}
		out = append(out, s)
	}
	return out, nil
}

func needsBrowser(sites []config.SiteConfig) bool {
	for _, s := range sites {
		if s.RenderJS {
			return true
		}
	}
	return false
}

// scrape fetches the selected sites and saves their raw records.
func (a *app) scrape(ctx context.Context, names []string) ([]scraper.Result, error) {
	sites, err := a.sites(names)
	if err != nil {
		return nil, err
	}

	httpFetcher, err := fetcher.NewHTTPFetcher(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	defer httpFetcher.Close()

	sc := a.cfg.Scraper
	opts := []scraper.Option{
		scraper.WithRobots(fetcher.NewRobotsManager(sc.RespectRobotsTxt, sc.UserAgent, httpFetcher.Client(), a.logger)),
		scraper.WithThrottle(fetcher.NewThrottle(sc.MinDelay, sc.MaxDelay)),
		scraper.WithMetrics(a.metrics),
		scraper.WithTimeout(sc.RequestTimeout),
	}
	if a.cfg.Browser.Enabled && needsBrowser(sites) {
		browser, err := fetcher.NewBrowserFetcher(a.cfg, a.logger)
		if err != nil {
			a.logger.Warn("browser unavailable, render_js sites fall back to HTTP", "error", err)
		} else {
			defer browser.Close()
			opts = append(opts, scraper.WithBrowser(browser))
		}
	}

	store, err := storage.NewRawStorage(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("create storage: %w", err)
	}
	defer store.Close()

	runner := scraper.NewRunner(scraper.New(httpFetcher, a.logger, opts...), store, sc.Concurrency, a.logger)
	results := runner.Run(ctx, sites)
	if err := ctx.Err(); err != nil {
		return results, err
	}
	if n := scraper.Failed(results); n == len(results) && n > 0 {
		return results, fmt.Errorf("all %d sites failed", n)
	}
	return results, nil
}

func (a *app) scorer() seo.Scorer {
	s := seo.DefaultScorer()
	s.PassThreshold = a.cfg.SEO.PassThreshold
	return s
}

// rewrite turns one day's raw records into processed articles.
func (a *app) rewrite(ctx context.Context, date string) (*pipeline.Summary, error) {
	llm := ai.NewLLMClient(ai.ConfigFrom(a.cfg.AI), a.logger)
	rw := rewriter.New(llm, a.logger,
		rewriter.WithScorer(a.scorer()),
		rewriter.WithDefaultKeywords(a.cfg.Rewriter.DefaultKeywords),
	)

	proc := pipeline.NewProcessor(pipeline.ProcessorConfig{
		RawDir:       a.cfg.Data.RawDir(),
		ProcessedDir: a.cfg.Data.ProcessedDir(),
		Threshold:    a.cfg.Dedup.Threshold,
		ContentType:  rewriter.ContentType(a.cfg.Rewriter.DefaultContentType),
		Sport:        a.cfg.Rewriter.DefaultSport,
		Keywords:     a.cfg.Rewriter.DefaultKeywords,
	}, rw, a.metrics, a.logger)

	return proc.Run(ctx, date)
}

func (a *app) publishOptions(onlyPassed bool) publisher.Options {
	return publisher.Options{
		OnlyPassed:    onlyPassed || a.cfg.SEO.PublishOnlyPassed,
		PassThreshold: a.cfg.SEO.PassThreshold,
	}
}

// publish renders and publishes one day's processed articles.
func (a *app) publish(ctx context.Context, date string, backends []string, onlyPassed bool) (*publisher.Summary, error) {
	svc, err := publisher.NewServiceFromConfig(ctx, a.cfg, backends, a.publishOptions(onlyPassed), a.metrics, a.logger)
	if err != nil {
		return nil, err
	}
	defer svc.Close()
	return svc.PublishAll(ctx, date)
}

// runSummary reports a full pipeline run.
type runSummary struct {
	Date     string             `json:"date"`
	Scraped  []scraper.Result   `json:"scraped"`
	Pipeline *pipeline.Summary  `json:"pipeline"`
	Publish  *publisher.Summary `json:"publish"`
	Elapsed  time.Duration      `json:"elapsed"`
}

// runAll scrapes, rewrites and publishes in order. A scrape that saves
// nothing still lets earlier raw files of the same day be processed.
func (a *app) runAll(ctx context.Context, req api.RunRequest) (*runSummary, error) {
	start := time.Now()
	date := req.Date
	if date == "" {
		date = today()
	}
	out := &runSummary{Date: date}

	scraped, err := a.scrape(ctx, req.Sites)
	out.Scraped = scraped
	if err != nil {
		if ctx.Err() != nil {
			return out, err
		}
		a.logger.Warn("scrape stage failed, continuing with existing raw data", "error", err)
	}

	out.Pipeline, err = a.rewrite(ctx, date)
	if err != nil {
		return out, fmt.Errorf("rewrite: %w", err)
	}

	out.Publish, err = a.publish(ctx, date, req.Backends, false)
	if err != nil {
		return out, fmt.Errorf("publish: %w", err)
	}

	out.Elapsed = time.Since(start)
	a.logger.Info("run complete",
		"date", date,
		"rewritten", out.Pipeline.Rewritten,
		"passed", out.Pipeline.Passed,
		"published", out.Publish.Published,
		"elapsed", out.Elapsed.Round(time.Millisecond),
	)
	return out, nil
}
