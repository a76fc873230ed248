// Package storage persists raw scraped records, one batch per site.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Yashvanth1222/SiteScraper/internal/config"
	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

// Storage is the interface for all raw storage backends.
type Storage interface {
	// Store persists one site's batch of records.
	Store(ctx context.Context, source string, items []*types.Item) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Locator is implemented by backends that write to a predictable path.
type Locator interface {
	Path(source string) string
}

// Location returns where s writes a batch for source, or "" when no
// backend has a file location.
func Location(s Storage, source string) string {
	switch v := s.(type) {
	case Locator:
		return v.Path(source)
	case *MultiStorage:
		for _, b := range v.backends {
			if p := Location(b, source); p != "" {
				return p
			}
		}
	}
	return ""
}

// Envelope is the on-disk shape of one site's scrape.
type Envelope struct {
	Source    string        `json:"source"`
	ScrapedAt time.Time     `json:"scraped_at"`
	Articles  []*types.Item `json:"articles"`
}

// DateFormat names per-day files and directories.
const DateFormat = "2006-01-02"

// NewRawStorage builds the backends listed in cfg.Storage.Raw. More than
// one backend is wrapped in a MultiStorage.
func NewRawStorage(cfg *config.Config, logger *slog.Logger) (Storage, error) {
	kinds := cfg.Storage.Raw
	if len(kinds) == 0 {
		kinds = []string{"json"}
	}

	backends := make([]Storage, 0, len(kinds))
	closeAll := func() {
		for _, b := range backends {
			b.Close()
		}
	}

	for _, kind := range kinds {
		var (
			b   Storage
			err error
		)
		switch kind {
		case "json":
			b, err = NewRawFileStorage(cfg.Data.RawDir(), logger)
		case "jsonl":
			b, err = NewJSONLStorage(cfg.Data.RawDir(), logger)
		case "mongo":
			m := cfg.Storage.Mongo
			b, err = NewMongoStorage(m.URI, m.Database, m.Collection, logger)
		default:
			err = fmt.Errorf("unsupported storage type: %s", kind)
		}
		if err != nil {
			closeAll()
			return nil, &types.StorageError{Backend: kind, Err: err}
		}
		backends = append(backends, b)
	}

	if len(backends) == 1 {
		return backends[0], nil
	}
	return NewMultiStorage(backends, logger), nil
}
