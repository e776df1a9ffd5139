// Package server is the local dashboard: it serves the latest digest, cache statistics
// and run status, and starts a run on request.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udaytamma/AiEmailAssistant/config"
	"github.com/udaytamma/AiEmailAssistant/internal/cache"
	"github.com/udaytamma/AiEmailAssistant/internal/digeststore"
	"github.com/udaytamma/AiEmailAssistant/internal/lock"
	"github.com/udaytamma/AiEmailAssistant/internal/render"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/bytes"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Trigger runs the pipeline once and writes the digest document.
type Trigger func(ctx context.Context) error

type StatsSource interface {
	Stats() cache.Stats
}

type Server struct {
	cfg     *config.ServerCfg
	digests *digeststore.Store
	lock    *lock.File
	stats   StatsSource
	trigger Trigger
	nextRun func() time.Time
	logger  *slog.Logger

	running atomic.Bool
	runs    sync.WaitGroup

	mu     sync.RWMutex
	ctx    context.Context
	latest *snapshot
}

// snapshot is the digest as last read from disk, ready to serve.
type snapshot struct {
	raw     []byte
	etag    string
	page    []byte
	updated time.Time
}

type Option func(*Server)

// WithNextRun reports the next scheduled run in the status endpoint.
func WithNextRun(next func() time.Time) Option {
	return func(s *Server) { s.nextRun = next }
}

func New(cfg *config.ServerCfg, digests *digeststore.Store, lk *lock.File, stats StatsSource, trigger Trigger, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		digests: digests,
		lock:    lk,
		stats:   stats,
		trigger: trigger,
		logger:  logger,
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reload()
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/digest", s.handleDigest)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/cache/stats", s.handleCacheStats)
	return mux
}

// Serve listens until ctx ends, then shuts down and waits for runs it started.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	s.logger.Info("dashboard listening", "addr", s.cfg.Addr)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := httpServer.Shutdown(shutdownCtx)
		cancel()
		s.runs.Wait()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.logger.Info("dashboard stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Reload re-reads the digest document. A missing document clears the served digest;
// an unreadable one keeps the previous digest.
func (s *Server) Reload() {
	raw, err := s.digests.Raw()
	if errors.Is(err, digeststore.ErrNoDigest) {
		s.setLatest(nil)
		return
	} else if err != nil {
		s.logger.Warn("digest reload failed, keeping previous", "err", err)
		return
	}

	var doc digeststore.Document
	if err = json.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("digest is not decodable, keeping previous", "err", err)
		return
	}
	page, err := render.HTML(doc)
	if err != nil {
		s.logger.Warn("digest page render failed", "err", err)
	}

	s.setLatest(&snapshot{raw: raw, etag: bytes.ETag(raw), page: page, updated: doc.Metadata.LastUpdated})
	s.logger.Debug("digest reloaded", "run_id", doc.Metadata.RunID)
}

// Running reports whether a run is in progress, in this process or another one.
func (s *Server) Running() bool {
	return s.running.Load() || s.lock.Held()
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := s.page()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	if snap == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "No digest data available. Trigger a refresh to generate the digest.",
		})
		return
	}

	w.Header().Set("ETag", snap.etag)
	if r.Header.Get("If-None-Match") == snap.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(snap.raw)
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if s.lock.Held() || !s.running.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"status":  "running",
			"message": "Email assistant is already running. Please wait for it to complete.",
		})
		return
	}

	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		if err := s.trigger(ctx); err != nil {
			s.logger.Error("requested run failed", "err", err)
		}
		s.Reload()
		s.running.Store(false)
	}()

	s.logger.Info("run requested")
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Email assistant started successfully.",
	})
}

type status struct {
	Running     bool       `json:"running"`
	LastUpdated *time.Time `json:"last_updated"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := status{Running: s.Running()}
	if snap := s.current(); snap != nil && !snap.updated.IsZero() {
		st.LastUpdated = &snap.updated
	}
	if s.nextRun != nil {
		if next := s.nextRun(); !next.IsZero() {
			st.NextRun = &next
		}
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Stats())
}

func (s *Server) page() ([]byte, error) {
	if snap := s.current(); snap != nil && snap.page != nil {
		return snap.page, nil
	}
	return render.EmptyHTML()
}

func (s *Server) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Server) setLatest(snap *snapshot) {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}
