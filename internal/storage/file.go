package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

// RawPath returns the envelope file for source on the day of t.
func RawPath(dir, source string, t time.Time) string {
	return filepath.Join(dir, source, t.Format(DateFormat)+".json")
}

// --- JSON envelope storage ---

// RawFileStorage writes each batch as {dir}/{source}/{date}.json, replacing
// any earlier scrape of the same site on the same day.
type RawFileStorage struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// NewRawFileStorage creates envelope file storage rooted at dir.
func NewRawFileStorage(dir string, logger *slog.Logger) (*RawFileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &RawFileStorage{
		dir:    dir,
		now:    time.Now,
		logger: logger.With("component", "raw_file_storage"),
	}, nil
}

func (s *RawFileStorage) Name() string { return "json" }

// Path returns where a batch for source stored now would be written.
func (s *RawFileStorage) Path(source string) string {
	return RawPath(s.dir, source, s.now())
}

func (s *RawFileStorage) Store(ctx context.Context, source string, items []*types.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()
	path := RawPath(s.dir, source, now)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create site dir: %w", err)
	}

	if items == nil {
		items = []*types.Item{}
	}
	env := Envelope{Source: source, ScrapedAt: now.UTC(), Articles: items}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	// Write to a temp file first so readers never see a partial envelope.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename output file: %w", err)
	}

	s.logger.Info("raw articles saved", "source", source, "path", path, "items", len(items))
	return nil
}

func (s *RawFileStorage) Close() error { return nil }

// --- JSONL Storage ---

// JSONLStorage appends records as newline-delimited JSON to
// {dir}/{source}/{date}.jsonl.
type JSONLStorage struct {
	dir    string
	now    func() time.Time
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates append-only JSONL storage rooted at dir.
func NewJSONLStorage(dir string, logger *slog.Logger) (*JSONLStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &JSONLStorage{
		dir:    dir,
		now:    time.Now,
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

// Path returns the file a batch for source stored now is appended to.
func (s *JSONLStorage) Path(source string) string {
	return filepath.Join(s.dir, source, s.now().Format(DateFormat)+".jsonl")
}

func (s *JSONLStorage) Store(ctx context.Context, source string, items []*types.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(source)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create site dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encode JSONL: %w", err)
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("JSONL written", "dir", s.dir, "items", s.count)
	return nil
}
