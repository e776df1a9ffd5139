package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/udaytamma/AiEmailAssistant/config"
	"github.com/udaytamma/AiEmailAssistant/internal/cache"
	"github.com/udaytamma/AiEmailAssistant/internal/digeststore"
	"github.com/udaytamma/AiEmailAssistant/internal/lock"
	"github.com/udaytamma/AiEmailAssistant/model"
)

type fixedStats cache.Stats

func (f fixedStats) Stats() cache.Stats { return cache.Stats(f) }

type fixture struct {
	dir     string
	digests *digeststore.Store
	lock    *lock.File
	release chan struct{}
	runs    chan struct{}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	return &fixture{
		dir:     dir,
		digests: digeststore.New(filepath.Join(dir, "digest_data.json"), slog.Default()),
		lock:    lock.New(filepath.Join(dir, "script.lock")),
		release: make(chan struct{}),
		runs:    make(chan struct{}, 4),
	}
}

// trigger holds the lock like a real run, waits for release, then writes a digest.
func (f *fixture) trigger(ctx context.Context) error {
	unlock, err := f.lock.Acquire()
	if err != nil {
		return err
	}
	defer unlock()
	f.runs <- struct{}{}

	select {
	case <-f.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return f.digests.Save(sampleDoc("run-from-refresh"))
}

func (f *fixture) server(opts ...Option) *Server {
	stats := fixedStats{Entries: 2, MaxSize: 30, ExpiryHours: 24, Location: "email_cache.json"}
	return New(&config.ServerCfg{Addr: "127.0.0.1:0"}, f.digests, f.lock, stats, f.trigger, slog.Default(), opts...)
}

func sampleDoc(runID string) digeststore.Document {
	item := model.Categorize(
		model.Item{ID: "a", Sender: "bank@example.com", Subject: "Bill"},
		model.Classification{Category: model.CategoryNeedAction, Subcategory: model.SubcategoryBillDue, Summary: "Pay", ActionItem: model.ActionNone},
	)
	digest := model.DigestResult{
		NeedAction:  model.BucketDigest{Items: []model.CategorizedItem{item}, Summary: []string{"Pay the bill"}},
		FYI:         model.BucketDigest{Items: []model.CategorizedItem{}, Summary: []string{}},
		Newsletters: []model.NewsletterDigest{},
	}
	return digeststore.NewDocument(runID, time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC), time.Second, digest, []model.CategorizedItem{item})
}

func get(t *testing.T, url string, header ...string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

// TestDigest_NotFoundThenServed returns 404 before the first run and the document after.
func TestDigest_NotFoundThenServed(t *testing.T) {
	f := newFixture(t)
	s := f.server()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/api/digest")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := get(t, srv.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "No digest yet")

	require.NoError(t, f.digests.Save(sampleDoc("run-1")))
	s.Reload()

	resp, body = get(t, srv.URL+"/api/digest")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	var doc digeststore.Document
	require.NoError(t, json.Unmarshal(body, &doc))
	require.Equal(t, "run-1", doc.Metadata.RunID)
	require.Equal(t, []string{"Pay the bill"}, doc.Digest.NeedAction.Summary)

	resp, _ = get(t, srv.URL+"/api/digest", "If-None-Match", etag)
	require.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp, body = get(t, srv.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "Pay the bill")
}

// TestRefresh_StartsOnceAndReloads rejects a second refresh while the first runs.
func TestRefresh_StartsOnceAndReloads(t *testing.T) {
	f := newFixture(t)
	s := f.server()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	<-f.runs

	resp, err = http.Post(srv.URL+"/api/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var st status
	_, body := get(t, srv.URL+"/api/status")
	require.NoError(t, json.Unmarshal(body, &st))
	require.True(t, st.Running)

	close(f.release)
	require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, 10*time.Millisecond)

	_, body = get(t, srv.URL+"/api/status")
	require.NoError(t, json.Unmarshal(body, &st))
	require.False(t, st.Running)
	require.NotNil(t, st.LastUpdated)

	resp, _ = get(t, srv.URL+"/api/digest")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestRefresh_ForeignLock answers 409 while another process holds the lock.
func TestRefresh_ForeignLock(t *testing.T) {
	f := newFixture(t)
	release, err := f.lock.Acquire()
	require.NoError(t, err)
	defer release()

	srv := httptest.NewServer(f.server().Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

// TestStatus_NextRunAndStats reports the schedule and cache statistics as JSON.
func TestStatus_NextRunAndStats(t *testing.T) {
	f := newFixture(t)
	next := time.Date(2025, 3, 2, 7, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(f.server(WithNextRun(func() time.Time { return next })).Handler())
	defer srv.Close()

	var st status
	_, body := get(t, srv.URL+"/api/status")
	require.NoError(t, json.Unmarshal(body, &st))
	require.False(t, st.Running)
	require.Nil(t, st.LastUpdated)
	require.NotNil(t, st.NextRun)
	require.True(t, st.NextRun.Equal(next))

	resp, body := get(t, srv.URL+"/api/cache/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"total_entries": 2, "max_size": 30, "utilization_percent": 0, "expiry_hours": 24, "location": "email_cache.json"}`, string(body))
}

// TestWatch_ReloadsOnReplace picks up a digest written by another process.
func TestWatch_ReloadsOnReplace(t *testing.T) {
	f := newFixture(t)
	s := f.server()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	require.Eventually(t, func() bool {
		_ = f.digests.Save(sampleDoc("external"))
		snap := s.current()
		return snap != nil
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

// TestServe_Shutdown returns once ctx is cancelled.
func TestServe_Shutdown(t *testing.T) {
	f := newFixture(t)
	s := f.server()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
