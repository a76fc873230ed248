package scraper

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Yashvanth1222/SiteScraper/internal/config"
	"github.com/Yashvanth1222/SiteScraper/internal/storage"
	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

// SiteScraper is the part of Scraper the Runner depends on.
type SiteScraper interface {
	Scrape(ctx context.Context, site config.SiteConfig) ([]*types.Item, error)
}

// Result is the outcome of scraping one site.
type Result struct {
	Site  string `json:"site"`
	Count int    `json:"count"`
	Path  string `json:"path,omitempty"`
	Err   error  `json:"-"`
}

// Stats tracks a run's progress.
type Stats struct {
	SitesDone    atomic.Int64
	SitesFailed  atomic.Int64
	RecordsSaved atomic.Int64
	StartTime    time.Time
}

// Runner scrapes several sites concurrently and saves each batch.
type Runner struct {
	scraper     SiteScraper
	store       storage.Storage
	concurrency int
	stats       *Stats
	logger      *slog.Logger
}

// NewRunner creates a Runner that keeps at most concurrency sites in flight.
func NewRunner(s SiteScraper, store storage.Storage, concurrency int, logger *slog.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		scraper:     s,
		store:       store,
		concurrency: concurrency,
		stats:       &Stats{},
		logger:      logger.With("component", "runner"),
	}
}

// Stats returns the counters of the most recent run.
func (r *Runner) Stats() *Stats { return r.stats }

// Run scrapes every site and returns one Result per site in input order.
// A failing site never stops the others.
func (r *Runner) Run(ctx context.Context, sites []config.SiteConfig) []Result {
	r.stats = &Stats{StartTime: time.Now()}
	r.logger.Info("starting scrape", "sites", len(sites), "concurrency", r.concurrency)

	results := make([]Result, len(sites))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i, site := range sites {
		wg.Add(1)
		go func(i int, site config.SiteConfig) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = Result{Site: site.Name, Err: ctx.Err()}
				r.stats.SitesFailed.Add(1)
				return
			}

			results[i] = r.runSite(ctx, site)
		}(i, site)
	}
	wg.Wait()

	r.logger.Info("scrape complete",
		"sites", len(sites),
		"failed", r.stats.SitesFailed.Load(),
		"records", r.stats.RecordsSaved.Load(),
		"elapsed", time.Since(r.stats.StartTime).Round(time.Millisecond),
	)
	return results
}

func (r *Runner) runSite(ctx context.Context, site config.SiteConfig) Result {
	res := Result{Site: site.Name}
	logger := r.logger.With("site", site.Name)

	items, err := r.scraper.Scrape(ctx, site)
	if err != nil {
		logger.Error("scrape failed", "error", err)
		r.stats.SitesFailed.Add(1)
		res.Err = err
		return res
	}

	if err := r.store.Store(ctx, site.Name, items); err != nil {
		logger.Error("save failed", "error", err)
		r.stats.SitesFailed.Add(1)
		res.Err = err
		return res
	}

	res.Count = len(items)
	res.Path = storage.Location(r.store, site.Name)
	r.stats.SitesDone.Add(1)
	r.stats.RecordsSaved.Add(int64(len(items)))
	logger.Info("saved records", "count", res.Count, "path", res.Path)
	return res
}

// Failed reports how many results carry an error.
func Failed(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}
