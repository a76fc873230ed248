package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Yashvanth1222/SiteScraper/internal/observability"
	"github.com/Yashvanth1222/SiteScraper/internal/publisher"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestServer(t *testing.T, s *Server) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, r io.Reader, v any) {
	t.Helper()
	if err := json.NewDecoder(r).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, NewServer(0, testLogger))

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]string
	decode(t, resp.Body, &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}
}

func TestScore(t *testing.T) {
	srv := newTestServer(t, NewServer(0, testLogger))

	resp := postJSON(t, srv.URL+"/api/score", `{"title":"Short","meta_description":"","body":"tiny","keywords":["nba"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var report struct {
		Passed bool     `json:"passed"`
		Score  int      `json:"score"`
		Issues []string `json:"issues"`
	}
	decode(t, resp.Body, &report)
	if report.Passed || len(report.Issues) == 0 {
		t.Errorf("thin article should fail with issues: %+v", report)
	}
}

func TestBadJSON(t *testing.T) {
	s := NewServer(0, testLogger)
	s.SetRunner(func(ctx context.Context, req RunRequest) (any, error) { return nil, nil })
	srv := newTestServer(t, s)

	for _, path := range []string{"/api/score", "/api/dedup", "/api/runs"} {
		resp := postJSON(t, srv.URL+path, `{"title":`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, resp.StatusCode)
		}
	}
}

func TestDedup(t *testing.T) {
	srv := newTestServer(t, NewServer(0, testLogger))

	body := `{"records":[
		{"url":"https://a.com/1","title":"Lakers vs Celtics Best Bets"},
		{"url":"https://b.com/2","title":"Lakers vs Celtics Best Bets!"},
		{"url":"https://a.com/1","title":"Something else"},
		{"url":"https://c.com/3","title":"NFL Week 5 Player Props"}
	]}`
	resp := postJSON(t, srv.URL+"/api/dedup", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out struct {
		Records []map[string]any `json:"records"`
		Dropped int              `json:"dropped"`
	}
	decode(t, resp.Body, &out)
	if len(out.Records) != 2 || out.Dropped != 2 {
		t.Fatalf("kept %d dropped %d", len(out.Records), out.Dropped)
	}
	if out.Records[0]["url"] != "https://a.com/1" || out.Records[1]["url"] != "https://c.com/3" {
		t.Errorf("unexpected kept records %v", out.Records)
	}
}

func waitForJob(t *testing.T, base, id string) Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/api/runs/" + id)
		if err != nil {
			t.Fatal(err)
		}
		var job Job
		decode(t, resp.Body, &job)
		resp.Body.Close()
		if job.Status == StatusCompleted || job.Status == StatusFailed {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return Job{}
}

func TestRuns(t *testing.T) {
	s := NewServer(0, testLogger)
	var got RunRequest
	s.SetRunner(func(ctx context.Context, req RunRequest) (any, error) {
		got = req
		if req.Date == "bad" {
			return nil, errors.New("no raw records")
		}
		return map[string]int{"published": 3}, nil
	})
	srv := newTestServer(t, s)

	resp := postJSON(t, srv.URL+"/api/runs", `{"sites":["covers"],"date":"2026-02-17"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var created Job
	decode(t, resp.Body, &created)
	if created.ID == "" || created.Status != StatusPending {
		t.Fatalf("unexpected job %+v", created)
	}

	job := waitForJob(t, srv.URL, created.ID)
	if job.Status != StatusCompleted || job.FinishedAt == nil {
		t.Errorf("job = %+v", job)
	}
	if got.Date != "2026-02-17" || len(got.Sites) != 1 || got.Sites[0] != "covers" {
		t.Errorf("runner got %+v", got)
	}

	resp = postJSON(t, srv.URL+"/api/runs", `{"date":"bad"}`)
	var failing Job
	decode(t, resp.Body, &failing)
	job = waitForJob(t, srv.URL, failing.ID)
	if job.Status != StatusFailed || job.Error != "no raw records" {
		t.Errorf("failed job = %+v", job)
	}

	list, err := http.Get(srv.URL + "/api/runs")
	if err != nil {
		t.Fatal(err)
	}
	defer list.Body.Close()
	var jobs []Job
	decode(t, list.Body, &jobs)
	if len(jobs) != 2 || jobs[0].ID != created.ID {
		t.Errorf("list = %+v", jobs)
	}

	missing, err := http.Get(srv.URL + "/api/runs/does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing run status = %d", missing.StatusCode)
	}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestRunsWithoutRunner(t *testing.T) {
	srv := newTestServer(t, NewServer(0, testLogger))
	resp, err := http.Post(srv.URL+"/api/runs", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

type stubArticles struct {
	entries []publisher.Entry
	err     error
}

func (s stubArticles) Entries(ctx context.Context) ([]publisher.Entry, error) {
	return s.entries, s.err
}

func TestArticles(t *testing.T) {
	s := NewServer(0, testLogger)
	s.SetArticles(stubArticles{entries: []publisher.Entry{
		{Slug: "lakers-vs-celtics", Title: "Lakers vs Celtics", Date: "2026-02-17", Backend: "file"},
	}})
	srv := newTestServer(t, s)

	resp, err := http.Get(srv.URL + "/api/articles")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var entries []publisher.Entry
	decode(t, resp.Body, &entries)
	if len(entries) != 1 || entries[0].Slug != "lakers-vs-celtics" {
		t.Errorf("entries = %+v", entries)
	}

	s.SetArticles(stubArticles{err: errors.New("manifest unreadable")})
	resp2, err := http.Get(srv.URL + "/api/articles")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", resp2.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observability.NewMetrics(testLogger)
	metrics.PageFetched("covers")

	s := NewServer(0, testLogger)
	s.SetMetrics(metrics.Handler())
	srv := newTestServer(t, s)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `sitescraper_pages_fetched_total{site="covers"} 1`) {
		t.Errorf("metrics output missing counter:\n%s", body)
	}
}
