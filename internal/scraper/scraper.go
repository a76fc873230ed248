// Package scraper fetches the configured listing pages of each site and
// reduces them to content records.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Yashvanth1222/SiteScraper/internal/config"
	"github.com/Yashvanth1222/SiteScraper/internal/fetcher"
	"github.com/Yashvanth1222/SiteScraper/internal/observability"
	"github.com/Yashvanth1222/SiteScraper/internal/parser"
	"github.com/Yashvanth1222/SiteScraper/internal/rewriter"
	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

var sports = []string{"nba", "ncaab", "nfl", "mlb", "nhl"}

// SportFromPath returns the first known league named in path, upper-cased,
// or "UNKNOWN".
func SportFromPath(path string) string {
	lower := strings.ToLower(path)
	for _, s := range sports {
		if strings.Contains(lower, s) {
			return strings.ToUpper(s)
		}
	}
	return "UNKNOWN"
}

// CategoryFromPath maps a listing path onto an article content type.
func CategoryFromPath(path string) rewriter.ContentType {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "odds"):
		return rewriter.OddsAnalysis
	case strings.Contains(lower, "props"):
		return rewriter.PlayerProps
	case strings.Contains(lower, "predict"), strings.Contains(lower, "pick"):
		return rewriter.Predictions
	default:
		return rewriter.BestBets
	}
}

// Scraper turns a site's configured pages into records.
type Scraper struct {
	http      fetcher.Fetcher
	browser   fetcher.Fetcher
	robots    *fetcher.RobotsManager
	throttle  *fetcher.Throttle
	extractor *parser.Extractor
	metrics   *observability.Metrics
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithBrowser renders render_js sites with f.
func WithBrowser(f fetcher.Fetcher) Option { return func(s *Scraper) { s.browser = f } }

// WithRobots checks every URL against robots.txt.
func WithRobots(r *fetcher.RobotsManager) Option { return func(s *Scraper) { s.robots = r } }

// WithThrottle spaces requests to the same host.
func WithThrottle(t *fetcher.Throttle) Option { return func(s *Scraper) { s.throttle = t } }

// WithMetrics records fetch and scrape counters.
func WithMetrics(m *observability.Metrics) Option { return func(s *Scraper) { s.metrics = m } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option { return func(s *Scraper) { s.timeout = d } }

// New creates a Scraper that fetches with f.
func New(f fetcher.Fetcher, logger *slog.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		http:      f,
		extractor: parser.NewExtractor(logger),
		logger:    logger.With("component", "scraper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape fetches every path of site and returns one record per listing
// page plus up to follow_links linked articles. A failing page is logged
// and skipped; an error is returned only when nothing could be fetched.
func (s *Scraper) Scrape(ctx context.Context, site config.SiteConfig) ([]*types.Item, error) {
	logger := s.logger.With("site", site.Name)
	base := strings.TrimRight(site.BaseURL, "/")

	var (
		items    []*types.Item
		seen     = make(map[string]bool)
		failures int
		lastErr  error
		followed int
	)

	for _, path := range site.Paths {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		listingURL := base + path
		page, err := s.fetchPage(ctx, site, listingURL)
		if err != nil {
			failures++
			lastErr = err
			logger.Warn("failed to fetch page", "url", listingURL, "error", err)
			continue
		}

		category := CategoryFromPath(path)
		sport := SportFromPath(path)
		seen[listingURL] = true
		items = append(items, s.record(site, page, listingURL, category, sport))

		if site.FollowLinks <= followed {
			continue
		}
		for _, link := range parser.ArticleLinks(page.Links, listingURL, site.FollowLinks-followed) {
			if seen[link] {
				continue
			}
			seen[link] = true
			followed++

			article, err := s.fetchPage(ctx, site, link)
			if err != nil {
				logger.Warn("failed to fetch linked article", "url", link, "error", err)
				continue
			}
			items = append(items, s.record(site, article, link, category, sport))
		}
	}

	if len(items) == 0 && failures > 0 {
		return nil, fmt.Errorf("scrape %s: all %d pages failed: %w", site.Name, failures, lastErr)
	}

	s.metrics.Scraped(site.Name, len(items))
	logger.Info("site scraped", "records", len(items), "failed_pages", failures)
	return items, nil
}

func (s *Scraper) fetchPage(ctx context.Context, site config.SiteConfig, rawURL string) (*parser.Page, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, err
	}
	req.Site = site.Name
	req.Timeout = s.timeout

	f := s.http
	if site.RenderJS && s.browser != nil {
		req.RenderJS = true
		f = s.browser
	}

	resp, err := fetcher.Politely(ctx, f, s.robots, s.throttle, req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.metrics.FetchFailed(site.Name)
		}
		return nil, err
	}
	s.metrics.PageFetched(site.Name)

	page, err := s.extractor.Extract(resp)
	if kind := fetcher.DetectChallenge(resp.Body); kind != "" && (err != nil || len(page.Content) < minContentLen) {
		return nil, fmt.Errorf("%w: %s challenge on %s (sitekey %q)", types.ErrBlocked, kind, rawURL, fetcher.SiteKey(resp.Body))
	}
	return page, err
}

// Pages shorter than this that carry a bot challenge are treated as blocked.
const minContentLen = 500

func (s *Scraper) record(site config.SiteConfig, page *parser.Page, rawURL string, category rewriter.ContentType, sport string) *types.Item {
	item := types.NewItem(rawURL)
	item.Set(types.FieldSource, site.Name)
	item.Set(types.FieldTitle, page.Title)
	item.Set(types.FieldContent, page.Content)
	item.Set(types.FieldExcerpt, page.Excerpt)
	item.Set(types.FieldCategory, string(category))
	item.Set(types.FieldSport, sport)
	if page.PublishedAt != "" {
		item.Set(types.FieldPublishedAt, page.PublishedAt)
	}
	if page.Description != "" {
		item.Set("description", page.Description)
	}
	return item
}
