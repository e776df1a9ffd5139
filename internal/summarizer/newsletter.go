package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/udaytamma/AiEmailAssistant/internal/llm"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/rate"
	"github.com/udaytamma/AiEmailAssistant/internal/telemetry"
	"github.com/udaytamma/AiEmailAssistant/model"
)

// NewsletterPoints is the number of bullets of a newsletter summary.
const NewsletterPoints = 3

// NewsletterFallback is returned whenever a newsletter cannot be summarized.
func NewsletterFallback() []string {
	return []string{
		"Failed to generate summary point 1",
		"Failed to generate summary point 2",
		"Failed to generate summary point 3",
	}
}

// BodyFetcher reads the full text of an item. It returns an empty string on failure.
type BodyFetcher interface {
	FullBody(ctx context.Context, id string) string
}

type newsletterReply struct {
	Bullet1 string `json:"bullet1"`
	Bullet2 string `json:"bullet2"`
	Bullet3 string `json:"bullet3"`
}

// Newsletters summarizes newsletter items one by one. The summary lives in the
// item's own cache entry next to its classification.
type Newsletters struct {
	gen      llm.Generator
	store    Store
	bodies   BodyFetcher
	throttle rate.Throttle
	env      telemetry.Env
	settings settings
}

func NewNewsletters(gen llm.Generator, store Store, bodies BodyFetcher, throttle rate.Throttle, env telemetry.Env, opts ...Option) *Newsletters {
	if throttle == nil {
		throttle = rate.NoOp{}
	}
	return &Newsletters{gen: gen, store: store, bodies: bodies, throttle: throttle, env: env, settings: newSettings(opts)}
}

// Summarize returns the three bullets of item, from its cache entry when present.
func (n *Newsletters) Summarize(ctx context.Context, item model.CategorizedItem) Result {
	logger := n.env.Logger.With("item_id", item.ID)

	record := model.ItemRecord{CategorizedItem: item}
	if value, ok := n.store.Get(item.ID); ok {
		if cached, ok := value.Item(); ok {
			if len(cached.NewsletterSummary) > 0 {
				n.env.Metrics.CacheOp("newsletter_get", true)
				logger.Debug("using cached newsletter summary")
				return Result{Key: item.ID, Points: cached.NewsletterSummary, Source: SourceCached}
			}
			record = cached
		}
	}
	n.env.Metrics.CacheOp("newsletter_get", false)

	points, err := n.generate(ctx, item)
	if err != nil {
		n.env.Metrics.Error("summarizer", err)
		logger.Warn("newsletter summary failed, using fallback", "err", err)
		return Result{Key: item.ID, Points: NewsletterFallback(), Source: SourceFallback, Err: err}
	}

	res := Result{Key: item.ID, Points: points, Source: SourceGenerated}
	record.NewsletterSummary = points
	if err = n.store.Set(item.ID, model.ItemValue(record)); err != nil {
		res.Err = fmt.Errorf("cache newsletter summary %s: %w", item.ID, err)
		logger.Warn("newsletter summary not cached", "err", err)
	}
	return res
}

func (n *Newsletters) generate(ctx context.Context, item model.CategorizedItem) (points []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			points, err = nil, fmt.Errorf("summarize newsletter %s: panic: %v", item.ID, r)
		}
	}()

	body := ""
	if n.bodies != nil {
		body = strings.TrimSpace(n.bodies.FullBody(ctx, item.ID))
	}
	if body == "" {
		body = item.PreviewText
	}
	body = llm.TruncateRunes(body, n.settings.bodyMaxChars)

	if err = n.throttle.Wait(ctx); err != nil {
		return nil, fmt.Errorf("summarize newsletter %s: %w", item.ID, err)
	}

	start := time.Now()
	text, err := n.gen.Generate(ctx, newsletterPrompt(item.Subject, body))
	n.env.Metrics.APICall(apiName, "newsletter_summary", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("summarize newsletter %s: generate: %w", item.ID, err)
	}

	var r newsletterReply
	if err = llm.DecodeJSON(text, &r); err != nil {
		return nil, fmt.Errorf("summarize newsletter %s: %w", item.ID, err)
	}
	points = cleanPoints([]string{r.Bullet1, r.Bullet2, r.Bullet3}, 0)
	if len(points) != NewsletterPoints {
		return nil, fmt.Errorf("summarize newsletter %s: %w: %d of %d bullets", item.ID, llm.ErrMalformedReply, len(points), NewsletterPoints)
	}
	return points, nil
}
