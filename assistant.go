// Package assistant wires the triage pipeline, its durable cache and the dashboard
// into one value built from configuration.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/udaytamma/AiEmailAssistant/config"
	"github.com/udaytamma/AiEmailAssistant/internal/cache"
	"github.com/udaytamma/AiEmailAssistant/internal/cache/db/dump"
	"github.com/udaytamma/AiEmailAssistant/internal/classifier"
	"github.com/udaytamma/AiEmailAssistant/internal/digeststore"
	"github.com/udaytamma/AiEmailAssistant/internal/gemini"
	"github.com/udaytamma/AiEmailAssistant/internal/lifetimer"
	"github.com/udaytamma/AiEmailAssistant/internal/llm"
	"github.com/udaytamma/AiEmailAssistant/internal/lock"
	"github.com/udaytamma/AiEmailAssistant/internal/mailbox"
	"github.com/udaytamma/AiEmailAssistant/internal/metrics"
	"github.com/udaytamma/AiEmailAssistant/internal/pipeline"
	"github.com/udaytamma/AiEmailAssistant/internal/scheduler"
	"github.com/udaytamma/AiEmailAssistant/internal/server"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/cachedtime"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/rate"
	"github.com/udaytamma/AiEmailAssistant/internal/summarizer"
	"github.com/udaytamma/AiEmailAssistant/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// ErrServerDisabled is returned by Serve when the configuration has no server section.
var ErrServerDisabled = errors.New("server is not configured")

// Mailbox lists new items and reads full message bodies.
type Mailbox interface {
	pipeline.Fetcher
	summarizer.BodyFetcher
}

type Assistant struct {
	cfg    *config.Assistant
	logger *slog.Logger
	clock  cachedtime.Clock
	env    telemetry.Env

	cache   *cache.Cache
	digests *digeststore.Store
	lock    *lock.File

	gen     llm.Generator
	mailbox Mailbox

	mu     sync.Mutex
	runner *pipeline.Runner

	closers []io.Closer
}

type Option func(*Assistant)

// WithGenerator replaces the Gemini client.
func WithGenerator(gen llm.Generator) Option {
	return func(a *Assistant) { a.gen = gen }
}

// WithMailbox replaces the Gmail client, which is otherwise built from the token file on first run.
func WithMailbox(m Mailbox) Option {
	return func(a *Assistant) { a.mailbox = m }
}

func WithClock(c cachedtime.Clock) Option {
	return func(a *Assistant) { a.clock = cachedtime.Or(c) }
}

// WithMetrics replaces the metrics sink chosen from configuration.
func WithMetrics(sink metrics.Sink) Option {
	return func(a *Assistant) { a.env.Metrics = sink }
}

// New loads the cache and prepares every component. Credentials are only read when a run starts,
// so cache administration works without them.
func New(cfg *config.Assistant, logger *slog.Logger, opts ...Option) (*Assistant, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Assistant{cfg: cfg, logger: logger, clock: cachedtime.Real()}
	for _, opt := range opts {
		opt(a)
	}

	if a.env.Metrics == nil && cfg.Metrics.Enabled() {
		sink, err := metrics.OpenSQLite(cfg.Metrics.DBPath, logger.With("component", "metrics"))
		if err != nil {
			return nil, err
		}
		a.env.Metrics = sink
		a.closers = append(a.closers, sink)
	}
	a.env = telemetry.NewEnv(logger, a.env.Metrics)

	storage := dump.NewFile(cfg.Persistence.CacheFile, cfg.Persistence.Gzip, dumpLogger(cfg.Logs))
	a.cache = cache.Load(cfg.Cache, storage, a.clock, logger.With("component", "cache"))
	a.digests = digeststore.New(cfg.Persistence.DigestFile, logger.With("component", "digest"))
	a.lock = lock.New(cfg.Persistence.LockFile)

	if a.gen == nil {
		a.gen = gemini.New(cfg.Gemini.APIKey,
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithBaseURL(cfg.Gemini.BaseURL),
			gemini.WithTimeout(cfg.Gemini.Timeout),
		)
	}
	return a, nil
}

// Run executes one triage pass under the run lock and writes the digest document.
// ErrLocked is returned while another run is in progress.
func (a *Assistant) Run(ctx context.Context) (digeststore.Document, error) {
	if err := a.cfg.Validate(); err != nil {
		return digeststore.Document{}, err
	}

	release, err := a.lock.Acquire()
	if err != nil {
		return digeststore.Document{}, err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			a.logger.Warn("lock release failed", "err", rerr)
		}
	}()

	// another process may have saved the cache since the last run
	a.cache.Reload()

	runner, err := a.pipeline(ctx)
	if err != nil {
		return digeststore.Document{}, err
	}

	out, err := runner.Run(ctx)
	if err != nil {
		return digeststore.Document{}, err
	}

	doc := digeststore.NewDocument(out.RunID, a.clock.Now(), out.Duration, out.Digest, out.Items)
	if err = a.digests.Save(doc); err != nil {
		a.env.Metrics.Error("digest", err)
		a.logger.Warn("digest document not written", "file", a.digests.Path(), "err", err)
	}

	a.logger.Info("run finished",
		"run_id", out.RunID,
		"fetched", out.Fetched,
		"new", out.New,
		"cached", out.Cached,
		"errors", out.Errors,
		"cursor_advanced", out.CursorAdvanced,
		"elapsed", out.Duration.String(),
	)
	return doc, nil
}

// Serve runs the dashboard, the digest watcher, the expiry sweeper, the statistics log
// and, when configured, the daily schedule until ctx is done.
func (a *Assistant) Serve(ctx context.Context) error {
	if !a.cfg.Server.Enabled() {
		return ErrServerDisabled
	}
	if err := os.MkdirAll(dirOf(a.digests.Path()), 0o755); err != nil {
		return fmt.Errorf("create digest directory: %w", err)
	}

	sweeper := lifetimer.New(ctx, a.cfg.Lifetime, a.logger.With("component", "lifetimer"), a.clock, a.cache)
	defer sweeper.Close()

	stats := telemetry.New(ctx, a.logger.With("component", "telemetry"), a.cache, sweeper, a.cfg.Server.TelemetryInterval)
	defer stats.Close()

	var opts []server.Option
	var sched *scheduler.Scheduler
	if a.cfg.Schedule.Enabled() {
		var err error
		if sched, err = a.schedule(ctx); err != nil {
			return err
		}
		opts = append(opts, server.WithNextRun(sched.Next))
	}

	srv := server.New(a.cfg.Server, a.digests, a.lock, a.cache, a.trigger, a.logger.With("component", "server"), opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx) })
	g.Go(func() error { return srv.Watch(gctx) })
	if sched != nil {
		g.Go(func() error { return sched.Run(gctx) })
	}
	err := g.Wait()

	telemetry.LogStats(a.logger, a.cache.Stats())
	return err
}

// CacheStats describes the cache contents.
func (a *Assistant) CacheStats() cache.Stats {
	return a.cache.Stats()
}

// ClearCache drops every entry and the fetch cursor, and removes the cache file.
func (a *Assistant) ClearCache() error {
	return a.cache.Clear()
}

// Close releases the metrics database.
func (a *Assistant) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Assistant) trigger(ctx context.Context) error {
	_, err := a.Run(ctx)
	return err
}

func (a *Assistant) schedule(ctx context.Context) (*scheduler.Scheduler, error) {
	sched, err := scheduler.New(a.cfg.Schedule, a.logger.With("component", "scheduler"))
	if err != nil {
		return nil, err
	}
	hour, minute, err := a.cfg.Schedule.Clock()
	if err != nil {
		return nil, err
	}
	err = sched.Daily(hour, minute, func() {
		if _, rerr := a.Run(ctx); errors.Is(rerr, lock.ErrLocked) {
			a.logger.Info("scheduled run skipped, another run is in progress")
		} else if rerr != nil {
			a.logger.Error("scheduled run failed", "err", rerr)
		}
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// pipeline builds the runner on first use. The mailbox client needs the OAuth token file;
// a failed attempt is retried by the next run.
func (a *Assistant) pipeline(ctx context.Context) (*pipeline.Runner, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.runner != nil {
		return a.runner, nil
	}
	if a.mailbox == nil {
		httpClient, err := mailbox.AuthorizedClient(ctx, a.cfg.Gmail.CredentialsFile, a.cfg.Gmail.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrNotConfigured, err)
		}
		a.mailbox = mailbox.New(httpClient,
			mailbox.WithBaseURL(a.cfg.Gmail.BaseURL),
			mailbox.WithEnv(a.env.With("component", "mailbox")),
		)
	}

	throttle := rate.NewLimiter(a.cfg.Throttle.RequestsPerMinute, time.Minute)
	digestOpts := []summarizer.Option{
		summarizer.WithMaxMembers(a.cfg.Digest.MaxMembers),
		summarizer.WithMaxPoints(a.cfg.Digest.MaxPoints),
		summarizer.WithBodyMaxChars(a.cfg.Digest.BodyMaxChars),
	}

	a.runner = pipeline.New(
		a.mailbox,
		a.cache,
		classifier.New(a.gen, throttle, a.env.With("component", "classifier")),
		summarizer.NewAggregator(a.gen, a.cache, throttle, a.env.With("component", "summarizer"), digestOpts...),
		summarizer.NewNewsletters(a.gen, a.cache, a.mailbox, throttle, a.env.With("component", "newsletters"), digestOpts...),
		a.env.With("component", "pipeline"),
		pipeline.WithQuery(a.cfg.Gmail.Query),
		pipeline.WithMaxResults(a.cfg.Gmail.MaxResults),
		pipeline.WithCoarseInvalidation(a.cfg.Digest.CoarseInvalidation),
		pipeline.WithClock(a.clock),
	)
	return a.runner, nil
}

// dumpLogger is the zerolog logger of the cache file storage, at the configured level.
func dumpLogger(cfg *config.LogsCfg) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.SlogLevel() {
	case slog.LevelDebug:
		level = zerolog.DebugLevel
	case slog.LevelWarn:
		level = zerolog.WarnLevel
	case slog.LevelError:
		level = zerolog.ErrorLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().
		Timestamp().
		Str("service", cfg.Service).
		Str("component", "dump").
		Logger()
}

func dirOf(path string) string {
	return filepath.Dir(filepath.Clean(path))
}
