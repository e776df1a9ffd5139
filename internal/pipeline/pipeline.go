// Package pipeline runs one triage pass: fetch new items, classify what the cache
// does not know yet, advance the fetch cursor and assemble the digest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/udaytamma/AiEmailAssistant/internal/classifier"
	"github.com/udaytamma/AiEmailAssistant/internal/metrics"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/cachedtime"
	"github.com/udaytamma/AiEmailAssistant/internal/summarizer"
	"github.com/udaytamma/AiEmailAssistant/internal/telemetry"
	"github.com/udaytamma/AiEmailAssistant/model"
)

// ErrFetch marks a run that failed because the mailbox could not be read.
var ErrFetch = errors.New("mailbox fetch failed")

const (
	defaultQuery      = "is:unread newer_than:1d"
	defaultMaxResults = 10
)

type Fetcher interface {
	Fetch(ctx context.Context, q model.FetchQuery) ([]model.Item, error)
}

// Cache is the part of the durable cache a run needs.
type Cache interface {
	Has(key string) bool
	Get(key string) (model.Value, bool)
	Set(key string, value model.Value) error
	Items() []model.ItemRecord
	Cursor() (time.Time, bool)
	SetCursor(at time.Time)
	Save() error
}

type Classifier interface {
	ClassifyMany(ctx context.Context, items []model.Item) ([]model.CategorizedItem, classifier.Report)
}

type Aggregator interface {
	Summarize(ctx context.Context, bucket model.Category, members []model.CategorizedItem, force bool) summarizer.Result
}

type Newsletters interface {
	Summarize(ctx context.Context, item model.CategorizedItem) summarizer.Result
}

// Outcome is what a completed run produced.
type Outcome struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Digest model.DigestResult
	// Items is the full classified set: cached items first, then this run's new items in fetch order.
	Items []model.CategorizedItem

	Fetched int
	New     int
	Cached  int
	// Errors counts non-fatal failures: fallbacks, unwritten cache entries, failed saves.
	Errors int
	// CursorAdvanced is false when some new item could not be cached.
	CursorAdvanced bool
}

type Runner struct {
	fetcher     Fetcher
	cache       Cache
	classifier  Classifier
	aggregator  Aggregator
	newsletters Newsletters
	env         telemetry.Env
	clock       cachedtime.Clock

	query              string
	maxResults         int
	coarseInvalidation bool
}

type Option func(*Runner)

func WithQuery(q string) Option {
	return func(r *Runner) {
		if q != "" {
			r.query = q
		}
	}
}

func WithMaxResults(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxResults = n
		}
	}
}

// WithCoarseInvalidation regenerates every bucket summary whenever the run found any new item.
// By default only the buckets a new item landed in are regenerated.
func WithCoarseInvalidation(on bool) Option {
	return func(r *Runner) { r.coarseInvalidation = on }
}

func WithClock(c cachedtime.Clock) Option {
	return func(r *Runner) { r.clock = cachedtime.Or(c) }
}

func New(
	fetcher Fetcher,
	cache Cache,
	cls Classifier,
	aggregator Aggregator,
	newsletters Newsletters,
	env telemetry.Env,
	opts ...Option,
) *Runner {
	r := &Runner{
		fetcher:     fetcher,
		cache:       cache,
		classifier:  cls,
		aggregator:  aggregator,
		newsletters: newsletters,
		env:         env,
		clock:       cachedtime.Real(),
		query:       defaultQuery,
		maxResults:  defaultMaxResults,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one pass. The only fatal condition is a failed fetch, reported as ErrFetch;
// every other failure degrades its own part of the digest and is counted in Outcome.Errors.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	out := &Outcome{RunID: uuid.NewString(), StartedAt: r.clock.Now()}
	logger := r.env.Logger.With("run_id", out.RunID)

	items, err := r.fetch(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFetch, err)
		logger.Error("run aborted", "err", err)
		r.finish(out, err)
		return nil, err
	}
	out.Fetched = len(items)

	cachedItems, newItems := r.partition(items)
	out.Cached, out.New = len(cachedItems), len(newItems)
	logger.Info("items fetched", "fetched", out.Fetched, "cached", out.Cached, "new", out.New)

	known := r.cache.Items()

	classified, report := r.classifier.ClassifyMany(ctx, newItems)
	out.Errors += report.Failed

	unsaved := 0
	for _, ci := range classified {
		if err = r.cache.Set(ci.ID, model.ItemValue(model.ItemRecord{CategorizedItem: ci})); err != nil {
			unsaved++
			r.env.Metrics.Error("pipeline", err)
			logger.Warn("classified item not cached", "item_id", ci.ID, "err", err)
		}
	}
	out.Errors += unsaved

	if unsaved == 0 {
		r.cache.SetCursor(out.StartedAt)
		out.CursorAdvanced = true
	} else {
		logger.Warn("fetch cursor not advanced", "unsaved", unsaved)
	}
	out.Errors += r.save(logger)

	out.Items = make([]model.CategorizedItem, 0, len(known)+len(classified))
	for _, rec := range known {
		out.Items = append(out.Items, rec.CategorizedItem)
	}
	out.Items = append(out.Items, classified...)

	digest, failed := r.digest(ctx, out.Items, classified)
	out.Digest = digest
	out.Errors += failed
	out.Errors += r.save(logger)

	r.finish(out, nil)
	logger.Info("run finished",
		"items", len(out.Items),
		"new", out.New,
		"errors", out.Errors,
		"elapsed", out.Duration.String(),
	)
	return out, nil
}

func (r *Runner) fetch(ctx context.Context) ([]model.Item, error) {
	q := model.FetchQuery{Text: r.query, MaxResults: r.maxResults}
	if cursor, ok := r.cache.Cursor(); ok {
		q.After = cursor
	}
	return r.fetcher.Fetch(ctx, q)
}

// partition splits items by whether the cache already holds their classification.
func (r *Runner) partition(items []model.Item) (cached, fresh []model.Item) {
	for _, it := range items {
		hit := r.cache.Has(it.ID)
		r.env.Metrics.CacheOp("item_has", hit)
		if hit {
			cached = append(cached, it)
		} else {
			fresh = append(fresh, it)
		}
	}
	return cached, fresh
}

// digest summarizes the Need-Action and FYI buckets and every newsletter.
// Marketing, SPAM and Unknown items are left out.
func (r *Runner) digest(ctx context.Context, all, fresh []model.CategorizedItem) (model.DigestResult, int) {
	var failed int
	groups := model.GroupByCategory(all)
	landed := model.GroupByCategory(fresh)

	force := func(bucket model.Category) bool {
		if r.coarseInvalidation {
			return len(fresh) > 0
		}
		return len(landed[bucket]) > 0
	}

	bucket := func(c model.Category) model.BucketDigest {
		members := groups[c]
		d := model.BucketDigest{Items: members, Summary: []string{}}
		if len(members) == 0 {
			return d
		}
		res := r.aggregator.Summarize(ctx, c, members, force(c))
		if res.Err != nil {
			failed++
		}
		if res.Points != nil {
			d.Summary = res.Points
		}
		return d
	}

	result := model.DigestResult{
		NeedAction:  bucket(model.CategoryNeedAction),
		FYI:         bucket(model.CategoryFYI),
		Newsletters: []model.NewsletterDigest{},
	}

	for _, it := range groups[model.CategoryNewsletter] {
		res := r.newsletters.Summarize(ctx, it)
		if res.Err != nil {
			failed++
		}
		result.Newsletters = append(result.Newsletters, model.NewsletterDigest{
			ID:            it.ID,
			Subject:       it.Subject,
			Sender:        it.Sender,
			SummaryPoints: res.Points,
		})
	}
	return result, failed
}

// save persists the cache; a failure is logged and counted, the run goes on with memory state.
func (r *Runner) save(logger *slog.Logger) int {
	if err := r.cache.Save(); err != nil {
		r.env.Metrics.Error("cache", err)
		logger.Warn("cache save failed, continuing with in-memory state", "err", err)
		return 1
	}
	return 0
}

func (r *Runner) finish(out *Outcome, err error) {
	out.Duration = r.clock.Since(out.StartedAt)
	r.env.Metrics.RunFinished(metrics.Run{
		ID:        out.RunID,
		StartedAt: out.StartedAt,
		Duration:  out.Duration,
		Fetched:   out.Fetched,
		New:       out.New,
		Cached:    out.Cached,
		Errors:    out.Errors,
		Err:       err,
	})
}
