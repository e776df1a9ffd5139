package summarizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/udaytamma/AiEmailAssistant/internal/llm"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/rate"
	"github.com/udaytamma/AiEmailAssistant/internal/telemetry"
	"github.com/udaytamma/AiEmailAssistant/model"
)

// ErrNoPoints is returned when a reply decodes but carries no usable bullet.
var ErrNoPoints = errors.New("reply carries no summary points")

type aggregateReply struct {
	Points []string `json:"summary_points"`
}

// Aggregator produces the consolidated summary of a bucket.
type Aggregator struct {
	gen      llm.Generator
	store    Store
	throttle rate.Throttle
	env      telemetry.Env
	settings settings
}

func NewAggregator(gen llm.Generator, store Store, throttle rate.Throttle, env telemetry.Env, opts ...Option) *Aggregator {
	if throttle == nil {
		throttle = rate.NoOp{}
	}
	return &Aggregator{gen: gen, store: store, throttle: throttle, env: env, settings: newSettings(opts)}
}

// Summarize returns the bullets of bucket for exactly these members.
//
// The result is cached under the aggregate key of the members, so any change of
// membership misses. With force set the cached bullets are ignored even on a hit.
// On model failure the members' own summaries are returned and nothing is cached.
func (a *Aggregator) Summarize(ctx context.Context, bucket model.Category, members []model.CategorizedItem, force bool) Result {
	if len(members) == 0 {
		return Result{Source: SourceEmpty}
	}

	key := model.AggregateKey(bucket, model.IDs(members))
	logger := a.env.Logger.With("bucket", bucket, "members", len(members))

	if !force {
		if value, ok := a.store.Get(key); ok {
			if agg, ok := value.Aggregate(); ok {
				a.env.Metrics.CacheOp("aggregate_get", true)
				logger.Info("using cached bucket summary")
				return Result{Key: key, Points: agg.Points, Source: SourceCached}
			}
		}
	} else {
		logger.Info("regenerating bucket summary")
	}
	a.env.Metrics.CacheOp("aggregate_get", false)

	points, err := a.generate(ctx, bucket, members)
	if err != nil {
		a.env.Metrics.Error("summarizer", err)
		logger.Warn("bucket summary failed, using member summaries", "err", err)
		return Result{Key: key, Points: aggregateFallback(members, a.settings.maxPoints), Source: SourceFallback, Err: err}
	}

	res := Result{Key: key, Points: points, Source: SourceGenerated}
	if err = a.store.Set(key, model.AggregateValue(points)); err != nil {
		res.Err = fmt.Errorf("cache bucket summary %s: %w", key, err)
		logger.Warn("bucket summary not cached", "err", err)
	}
	return res
}

func (a *Aggregator) generate(ctx context.Context, bucket model.Category, members []model.CategorizedItem) (points []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			points, err = nil, fmt.Errorf("summarize %s: panic: %v", bucket, r)
		}
	}()

	if err = a.throttle.Wait(ctx); err != nil {
		return nil, fmt.Errorf("summarize %s: %w", bucket, err)
	}

	start := time.Now()
	text, err := a.gen.Generate(ctx, aggregatePrompt(bucket, members, a.settings.maxMembers, a.settings.maxPoints))
	a.env.Metrics.APICall(apiName, "category_summary", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: generate: %w", bucket, err)
	}

	var r aggregateReply
	if err = llm.DecodeJSON(text, &r); err != nil {
		return nil, fmt.Errorf("summarize %s: %w", bucket, err)
	}
	if points = cleanPoints(r.Points, a.settings.maxPoints); len(points) == 0 {
		return nil, fmt.Errorf("summarize %s: %w: %w", bucket, llm.ErrMalformedReply, ErrNoPoints)
	}
	return points, nil
}

// aggregateFallback lists the members' one-line summaries, or their subjects.
func aggregateFallback(members []model.CategorizedItem, limit int) []string {
	out := make([]string, 0, min(len(members), limit))
	for _, m := range members {
		if len(out) == limit {
			break
		}
		out = append(out, m.DisplaySummary())
	}
	return out
}
