package publisher

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Yashvanth1222/SiteScraper/internal/observability"
	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

func sampleFormatted() *Formatted {
	return &Formatted{
		Slug:  "lakers-vs-celtics",
		Title: "Lakers vs Celtics",
		HTML:  "<article>ok</article>",
		RSS:   "<item><title>Lakers vs Celtics</title></item>\n",
		Date:  "2026-02-17",
	}
}

func TestFileManifest(t *testing.T) {
	ctx := context.Background()
	m := NewFileManifest(filepath.Join(t.TempDir(), "published", "manifest.json"))

	entries, err := m.List(ctx)
	if err != nil || len(entries) != 0 {
		t.Fatalf("new manifest should be empty, got %v, %v", entries, err)
	}
	if ok, _ := m.Contains(ctx, "a"); ok {
		t.Error("empty manifest should not contain anything")
	}

	if err := m.Add(ctx, Entry{Slug: "a", Title: "A", Backend: "file"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ok, _ := m.Contains(ctx, "a"); !ok {
		t.Error("manifest should contain added slug")
	}

	data, err := os.ReadFile(m.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"articles"`) || !strings.Contains(string(data), `"slug": "a"`) {
		t.Errorf("unexpected manifest file:\n%s", data)
	}
}

func TestFileManifestCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileManifest(path).Contains(context.Background(), "x"); err == nil {
		t.Fatal("expected error for corrupt manifest")
	}
}

func TestFilePublisher(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m := NewFileManifest(filepath.Join(dir, "manifest.json"))
	p := NewFilePublisher(dir, m, testLogger)

	res, err := p.Publish(ctx, sampleFormatted())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	wantHTML := filepath.Join(dir, "2026-02-17", "lakers-vs-celtics.html")
	if res.Skipped || res.Location != wantHTML {
		t.Errorf("unexpected result %+v", res)
	}
	if data, err := os.ReadFile(wantHTML); err != nil || string(data) != "<article>ok</article>" {
		t.Errorf("html file: %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "2026-02-17", "lakers-vs-celtics.rss.xml")); err != nil {
		t.Errorf("rss item should be written: %v", err)
	}

	again, err := p.Publish(ctx, sampleFormatted())
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if !again.Skipped {
		t.Error("already-published slug should be skipped")
	}

	entries, _ := m.List(ctx)
	if len(entries) != 1 || entries[0].Backend != "file" || entries[0].Path != wantHTML {
		t.Errorf("unexpected manifest entries %+v", entries)
	}
	if entries[0].PublishedAt.IsZero() {
		t.Error("published_at should be set")
	}
}

type fakePutter struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	err     error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string]string{}
		f.types = map[string]string{}
	}
	f.objects[*in.Bucket+"/"+*in.Key] = string(body)
	f.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func TestS3Publisher(t *testing.T) {
	ctx := context.Background()
	putter := &fakePutter{}
	m := NewFileManifest(filepath.Join(t.TempDir(), "manifest.s3.json"))
	p := NewS3Publisher(putter, "blog-bucket", "/blog/", m, testLogger)

	res, err := p.Publish(ctx, sampleFormatted())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.Location != "s3://blog-bucket/blog/2026-02-17/lakers-vs-celtics.html" {
		t.Errorf("location = %q", res.Location)
	}
	if putter.objects["blog-bucket/blog/2026-02-17/lakers-vs-celtics.html"] != "<article>ok</article>" {
		t.Errorf("html object missing: %v", putter.objects)
	}
	if putter.types["blog/2026-02-17/lakers-vs-celtics.rss.xml"] != "application/rss+xml" {
		t.Errorf("rss content type = %q", putter.types["blog/2026-02-17/lakers-vs-celtics.rss.xml"])
	}
	if !strings.HasPrefix(putter.types["blog/2026-02-17/lakers-vs-celtics.html"], "text/html") {
		t.Errorf("html content type = %q", putter.types["blog/2026-02-17/lakers-vs-celtics.html"])
	}

	if again, _ := p.Publish(ctx, sampleFormatted()); !again.Skipped {
		t.Error("second publish should be skipped")
	}
}

func TestS3PublisherError(t *testing.T) {
	m := NewFileManifest(filepath.Join(t.TempDir(), "manifest.s3.json"))
	p := NewS3Publisher(&fakePutter{err: errors.New("access denied")}, "b", "", m, testLogger)

	_, err := p.Publish(context.Background(), sampleFormatted())
	var perr *types.PublishError
	if !errors.As(err, &perr) || perr.Backend != "s3" || perr.Slug != "lakers-vs-celtics" {
		t.Fatalf("expected PublishError, got %v", err)
	}
	if ok, _ := m.Contains(context.Background(), "lakers-vs-celtics"); ok {
		t.Error("failed upload must not be recorded in the manifest")
	}
}

func TestServicePublishAll(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	processed := filepath.Join(root, "processed")
	published := filepath.Join(root, "published")
	day := filepath.Join(processed, "2026-02-17")

	writeArticle(t, day, "best_bets_good.md", "---\ntitle: Good Article\ndate: \"2026-02-17\"\nseo_score: 90\n---\n\nBody")
	writeArticle(t, day, "best_bets_weak.md", "---\ntitle: Weak Article\ndate: \"2026-02-17\"\nseo_score: 40\n---\n\nBody")

	fileManifest := NewFileManifest(filepath.Join(published, "manifest.json"))
	s3Manifest := NewFileManifest(filepath.Join(published, "manifest.s3.json"))
	putter := &fakePutter{}
	metrics := observability.NewMetrics(testLogger)

	svc := NewService(
		NewFormatter(processed, "https://novig.com/blog", "", testLogger),
		[]Publisher{
			NewFilePublisher(published, fileManifest, testLogger),
			NewS3Publisher(putter, "bucket", "blog", s3Manifest, testLogger),
		},
		[]Manifest{fileManifest, s3Manifest},
		Options{OnlyPassed: true, PassThreshold: 70},
		metrics,
		testLogger,
	)

	summary, err := svc.PublishAll(ctx, "2026-02-17")
	if err != nil {
		t.Fatalf("PublishAll: %v", err)
	}
	if summary.Formatted != 2 || summary.Filtered != 1 || summary.Published != 2 || summary.Errors != 0 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(published, "2026-02-17", "good-article.html")); err != nil {
		t.Errorf("good article should be published: %v", err)
	}
	if _, err := os.Stat(filepath.Join(published, "2026-02-17", "weak-article.html")); err == nil {
		t.Error("weak article should be filtered out")
	}

	snap := metrics.Snapshot()
	if snap["articles_published_total{backend=file}"] != 1 || snap["articles_published_total{backend=s3}"] != 1 {
		t.Errorf("unexpected publish metrics %v", snap)
	}

	entries, err := svc.Entries(ctx)
	if err != nil || len(entries) != 2 {
		t.Fatalf("expected 2 manifest entries, got %d, %v", len(entries), err)
	}

	rerun, err := svc.PublishAll(ctx, "2026-02-17")
	if err != nil {
		t.Fatal(err)
	}
	if rerun.Published != 0 || rerun.Skipped != 2 {
		t.Errorf("rerun should skip everything, got %+v", rerun)
	}
}

func TestFeed(t *testing.T) {
	dir := t.TempDir()
	f := NewFormatter(dir, "https://novig.com/blog", "", testLogger)
	day := filepath.Join(dir, "2026-02-17")
	writeArticle(t, day, "a.md", "---\ntitle: Knicks & Nets Preview\ndate: \"2026-02-17\"\n---\n\nFirst body.")
	writeArticle(t, day, "b.md", "---\ntitle: Heat Props\ndate: \"2026-02-17\"\n---\n\nSecond body.")

	published := filepath.Join(t.TempDir(), "published")
	p := NewFilePublisher(published, NewFileManifest(filepath.Join(published, "manifest.json")), testLogger)
	articles, err := f.FormatAll("2026-02-17")
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range articles {
		if _, err := p.Publish(context.Background(), a); err != nil {
			t.Fatal(err)
		}
	}

	path, n, err := WriteFeed(published, "2026-02-17", DefaultChannel("https://novig.com/blog"))
	if err != nil {
		t.Fatalf("WriteFeed: %v", err)
	}
	if n != 2 || filepath.Base(path) != "feed.xml" {
		t.Errorf("path=%s items=%d", path, n)
	}

	feed, err := VerifyFeed(path)
	if err != nil {
		t.Fatalf("VerifyFeed: %v", err)
	}
	if feed.Title != "Novig Blog" {
		t.Errorf("feed title = %q", feed.Title)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(feed.Items))
	}
	titles := []string{feed.Items[0].Title, feed.Items[1].Title}
	if titles[0] != "Heat Props" || titles[1] != "Knicks & Nets Preview" {
		t.Errorf("unexpected item titles %v", titles)
	}
	if feed.Items[1].Link != "https://novig.com/blog/knicks-nets-preview" {
		t.Errorf("item link = %q", feed.Items[1].Link)
	}
}
