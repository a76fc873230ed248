package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

// FilePublisher writes articles to {dir}/{date}/{slug}.html with the RSS
// item alongside as {slug}.rss.xml.
type FilePublisher struct {
	dir      string
	manifest Manifest
	logger   *slog.Logger
}

// NewFilePublisher creates a FilePublisher rooted at dir.
func NewFilePublisher(dir string, manifest Manifest, logger *slog.Logger) *FilePublisher {
	return &FilePublisher{
		dir:      dir,
		manifest: manifest,
		logger:   logger.With("component", "file_publisher"),
	}
}

func (p *FilePublisher) Name() string { return "file" }

func (p *FilePublisher) Publish(ctx context.Context, a *Formatted) (Result, error) {
	res, err := publishOnce(ctx, p.manifest, p.Name(), a, func() (string, error) {
		dayDir := filepath.Join(p.dir, a.Date)
		htmlPath := filepath.Join(dayDir, a.Slug+".html")
		if err := writeAtomic(htmlPath, []byte(a.HTML)); err != nil {
			return "", fmt.Errorf("write html: %w", err)
		}
		if a.RSS != "" {
			if err := writeAtomic(filepath.Join(dayDir, a.Slug+".rss.xml"), []byte(a.RSS)); err != nil {
				return "", fmt.Errorf("write rss item: %w", err)
			}
		}
		return htmlPath, nil
	})
	if err != nil {
		return res, &types.PublishError{Backend: p.Name(), Slug: a.Slug, Err: err}
	}

	if res.Skipped {
		p.logger.Info("skipping already-published article", "slug", a.Slug)
	} else {
		p.logger.Info("published article", "slug", a.Slug, "path", res.Location)
	}
	return res, nil
}
