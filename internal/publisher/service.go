package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Yashvanth1222/SiteScraper/internal/config"
	"github.com/Yashvanth1222/SiteScraper/internal/observability"
)

// ManifestCollection holds published entries when the manifest is mongo.
const ManifestCollection = "published_articles"

// Options controls which articles the service publishes.
type Options struct {
	OnlyPassed    bool
	PassThreshold int
}

// Summary counts one PublishAll run.
type Summary struct {
	Date      string   `json:"date"`
	Formatted int      `json:"formatted"`
	Filtered  int      `json:"filtered"`
	Published int      `json:"published"`
	Skipped   int      `json:"skipped"`
	Errors    int      `json:"errors"`
	Results   []Result `json:"results"`
}

// Service formats a day's articles and publishes them to every backend.
type Service struct {
	formatter  *Formatter
	publishers []Publisher
	manifests  []Manifest
	opts       Options
	metrics    *observability.Metrics
	closers    []io.Closer
	logger     *slog.Logger
}

// NewService assembles a service from explicit parts. manifests are the
// ones listed by Entries; metrics may be nil.
func NewService(f *Formatter, publishers []Publisher, manifests []Manifest, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		formatter:  f,
		publishers: publishers,
		manifests:  manifests,
		opts:       opts,
		metrics:    metrics,
		logger:     logger.With("component", "publisher"),
	}
}

type mongoCloser struct{ client *mongo.Client }

func (c mongoCloser) Close() error { return c.client.Disconnect(context.Background()) }

// NewServiceFromConfig builds the formatter, manifests and publishers for
// the given backends, or the configured ones when backends is empty.
func NewServiceFromConfig(ctx context.Context, cfg *config.Config, backends []string, opts Options, metrics *observability.Metrics, logger *slog.Logger) (*Service, error) {
	if len(backends) == 0 {
		backends = cfg.Publisher.Backends
	}
	publishedDir := cfg.Data.PublishedDir()

	var (
		client  *mongo.Client
		closers []io.Closer
	)
	if cfg.Publisher.Manifest == "mongo" {
		c, err := ConnectMongo(ctx, cfg.Storage.Mongo.URI)
		if err != nil {
			return nil, err
		}
		client = c
		closers = append(closers, mongoCloser{client})
	}
	manifestFor := func(backend string) Manifest {
		if client != nil {
			return NewMongoManifest(client, cfg.Storage.Mongo.Database, ManifestCollection, backend, logger)
		}
		name := "manifest.json"
		if backend != "file" {
			name = "manifest." + backend + ".json"
		}
		return NewFileManifest(filepath.Join(publishedDir, name))
	}

	var (
		publishers []Publisher
		manifests  []Manifest
	)
	for _, b := range backends {
		m := manifestFor(b)
		switch b {
		case "file":
			publishers = append(publishers, NewFilePublisher(publishedDir, m, logger))
		case "s3":
			s3c, err := NewS3Client(ctx, cfg.Publisher.S3)
			if err != nil {
				closeAll(closers)
				return nil, err
			}
			publishers = append(publishers, NewS3Publisher(s3c, cfg.Publisher.S3.Bucket, cfg.Publisher.S3.Prefix, m, logger))
		default:
			closeAll(closers)
			return nil, fmt.Errorf("unknown publisher backend %q", b)
		}
		manifests = append(manifests, m)
	}

	f := NewFormatter(cfg.Data.ProcessedDir(), cfg.Publisher.BaseURL, cfg.Publisher.Author, logger)
	s := NewService(f, publishers, manifests, opts, metrics, logger)
	s.closers = closers
	return s, nil
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases backend connections.
func (s *Service) Close() error { return closeAll(s.closers) }

// Formatter exposes the service's formatter.
func (s *Service) Formatter() *Formatter { return s.formatter }

// PublishAll formats the articles processed on date and publishes each to
// every backend. A backend failure is counted and does not stop the run.
func (s *Service) PublishAll(ctx context.Context, date string) (*Summary, error) {
	articles, err := s.formatter.FormatAll(date)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Date: date, Formatted: len(articles)}

	threshold := s.opts.PassThreshold
	for _, a := range articles {
		if s.opts.OnlyPassed && a.SEOScore < threshold {
			summary.Filtered++
			s.logger.Info("skipping article below SEO threshold", "slug", a.Slug, "score", a.SEOScore, "threshold", threshold)
			continue
		}
		for _, p := range s.publishers {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			res, err := p.Publish(ctx, a)
			if err != nil {
				summary.Errors++
				s.logger.Error("publish failed", "backend", p.Name(), "slug", a.Slug, "error", err)
				continue
			}
			summary.Results = append(summary.Results, res)
			if res.Skipped {
				summary.Skipped++
				continue
			}
			summary.Published++
			s.metrics.Published(p.Name())
		}
	}

	s.logger.Info("publishing complete",
		"date", date,
		"formatted", summary.Formatted,
		"published", summary.Published,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
	)
	return summary, nil
}

// Entries lists every manifest entry across backends, oldest first.
func (s *Service) Entries(ctx context.Context) ([]Entry, error) {
	var all []Entry
	for _, m := range s.manifests {
		entries, err := m.List(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.Before(all[j].PublishedAt)
	})
	return all, nil
}
