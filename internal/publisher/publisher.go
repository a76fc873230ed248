package publisher

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Result reports what a backend did with one article.
type Result struct {
	Slug     string `json:"slug"`
	Backend  string `json:"backend"`
	Location string `json:"location,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
}

// Publisher pushes a formatted article to one destination.
type Publisher interface {
	Publish(ctx context.Context, article *Formatted) (Result, error)
	Name() string
}

// publishOnce runs put unless the manifest already holds the slug, then
// records the entry.
func publishOnce(ctx context.Context, m Manifest, backend string, a *Formatted, put func() (string, error)) (Result, error) {
	res := Result{Slug: a.Slug, Backend: backend}

	seen, err := m.Contains(ctx, a.Slug)
	if err != nil {
		return res, err
	}
	if seen {
		res.Skipped = true
		return res, nil
	}

	location, err := put()
	if err != nil {
		return res, err
	}
	res.Location = location

	err = m.Add(ctx, Entry{
		Slug:        a.Slug,
		Title:       a.Title,
		Date:        a.Date,
		Path:        location,
		Backend:     backend,
		PublishedAt: time.Now().UTC(),
	})
	return res, err
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
