// Package api exposes scoring, deduplication and pipeline runs over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Yashvanth1222/SiteScraper/internal/dedup"
	"github.com/Yashvanth1222/SiteScraper/internal/publisher"
	"github.com/Yashvanth1222/SiteScraper/internal/seo"
	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

// Version is reported by the health endpoint.
var Version = "dev"

// RunRequest selects what a pipeline run covers. Empty fields fall back
// to the configured defaults.
type RunRequest struct {
	Sites    []string `json:"sites,omitempty"`
	Date     string   `json:"date,omitempty"`
	Backends []string `json:"backends,omitempty"`
}

// RunFunc executes one pipeline run and returns its summary.
type RunFunc func(ctx context.Context, req RunRequest) (any, error)

// ArticleLister lists published articles.
type ArticleLister interface {
	Entries(ctx context.Context) ([]publisher.Entry, error)
}

// Job status values.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job tracks an asynchronous pipeline run.
type Job struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	Request    RunRequest `json:"request"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Server provides the REST API.
type Server struct {
	mux    *http.ServeMux
	port   int
	logger *slog.Logger

	scorer         seo.Scorer
	dedupThreshold float64
	runner         RunFunc
	articles       ArticleLister
	metrics        http.Handler

	baseCtx context.Context
	http    *http.Server
	wg      sync.WaitGroup

	jobs   map[string]*Job
	jobsMu sync.RWMutex
}

// NewServer creates a new API server.
func NewServer(port int, logger *slog.Logger) *Server {
	s := &Server{
		mux:            http.NewServeMux(),
		port:           port,
		logger:         logger.With("component", "api_server"),
		scorer:         seo.DefaultScorer(),
		dedupThreshold: dedup.Threshold,
		baseCtx:        context.Background(),
		jobs:           make(map[string]*Job),
	}

	s.registerRoutes()
	return s
}

// SetScorer replaces the default SEO targets.
func (s *Server) SetScorer(sc seo.Scorer) { s.scorer = sc }

// SetDedupThreshold sets the similarity threshold used by /api/dedup.
func (s *Server) SetDedupThreshold(t float64) { s.dedupThreshold = t }

// SetRunner enables POST /api/runs.
func (s *Server) SetRunner(fn RunFunc) { s.runner = fn }

// SetArticles enables GET /api/articles.
func (s *Server) SetArticles(l ArticleLister) { s.articles = l }

// SetMetrics serves h on GET /metrics.
func (s *Server) SetMetrics(h http.Handler) { s.metrics = h }

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves the API in the background. Jobs started through the API
// run under ctx.
func (s *Server) Start(ctx context.Context) error {
	s.baseCtx = ctx
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Shutdown stops accepting requests and waits for running jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("POST /api/score", s.handleScore)
	s.mux.HandleFunc("POST /api/dedup", s.handleDedup)

	// Runs
	s.mux.HandleFunc("POST /api/runs", s.handleCreateRun)
	s.mux.HandleFunc("GET /api/runs", s.handleListRuns)
	s.mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)

	s.mux.HandleFunc("GET /api/articles", s.handleArticles)
	s.mux.HandleFunc("GET /metrics", s.handleMetrics)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": Version,
	})
}

type scoreRequest struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	Body            string   `json:"body"`
	Keywords        []string `json:"keywords"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var body scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	s.jsonResponse(w, http.StatusOK, s.scorer.Score(body.Title, body.MetaDescription, body.Body, body.Keywords))
}

func (s *Server) handleDedup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Records []map[string]any `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	items := make([]*types.Item, 0, len(body.Records))
	for _, rec := range body.Records {
		items = append(items, types.ItemFromMap(rec))
	}
	kept, dropped := dedup.New(dedup.WithThreshold(s.dedupThreshold)).Partition(items)

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"records": kept,
		"dropped": len(dropped),
	})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
			return
		}
	}
	if s.runner == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "pipeline not configured"})
		return
	}

	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Request:   req,
		CreatedAt: time.Now().UTC(),
	}

	s.jobsMu.Lock()
	s.jobs[job.ID] = job
	snapshot := *job
	s.jobsMu.Unlock()

	s.wg.Add(1)
	go s.runJob(job.ID, req)

	s.jsonResponse(w, http.StatusAccepted, snapshot)
}

func (s *Server) runJob(id string, req RunRequest) {
	defer s.wg.Done()
	logger := s.logger.With("job", id)

	s.setJob(id, func(j *Job) { j.Status = StatusRunning })
	logger.Info("run started", "sites", req.Sites, "date", req.Date)

	result, err := s.runner(s.baseCtx, req)

	s.setJob(id, func(j *Job) {
		now := time.Now().UTC()
		j.FinishedAt = &now
		j.Result = result
		if err != nil {
			j.Status = StatusFailed
			j.Error = err.Error()
			return
		}
		j.Status = StatusCompleted
	})
	if err != nil {
		logger.Error("run failed", "error", err)
		return
	}
	logger.Info("run completed")
}

func (s *Server) setJob(id string, fn func(*Job)) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if j, ok := s.jobs[id]; ok {
		fn(j)
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	s.jobsMu.RLock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, *j)
	}
	s.jobsMu.RUnlock()

	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.Before(jobs[k].CreatedAt) })
	s.jsonResponse(w, http.StatusOK, jobs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.jobsMu.RLock()
	job, ok := s.jobs[id]
	var snapshot Job
	if ok {
		snapshot = *job
	}
	s.jobsMu.RUnlock()

	if !ok {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	s.jsonResponse(w, http.StatusOK, snapshot)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	if s.articles == nil {
		s.jsonResponse(w, http.StatusOK, []publisher.Entry{})
		return
	}
	entries, err := s.articles.Entries(r.Context())
	if err != nil {
		s.logger.Error("list articles", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []publisher.Entry{}
	}
	s.jsonResponse(w, http.StatusOK, entries)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.NotFound(w, r)
		return
	}
	s.metrics.ServeHTTP(w, r)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
