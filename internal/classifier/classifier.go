// Package classifier assigns a Classification to each mailbox item using a text generator.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/udaytamma/AiEmailAssistant/internal/llm"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/rate"
	"github.com/udaytamma/AiEmailAssistant/internal/telemetry"
	"github.com/udaytamma/AiEmailAssistant/model"
)

const (
	apiName = "gemini"
	apiOp   = "categorize"
)

// ErrUnknownCategory is returned when a reply names no usable category.
var ErrUnknownCategory = errors.New("reply names no known category")

// reply is the JSON shape requested from the model.
type reply struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Summary     string  `json:"summary"`
	ActionItem  string  `json:"action_item"`
	DueDate     *string `json:"due_date"`
	DateDue     *string `json:"date_due"`
}

// Report summarizes a ClassifyMany call.
type Report struct {
	Succeeded int
	Failed    int
	Errors    []error
}

type Classifier struct {
	gen      llm.Generator
	throttle rate.Throttle
	env      telemetry.Env
}

func New(gen llm.Generator, throttle rate.Throttle, env telemetry.Env) *Classifier {
	if throttle == nil {
		throttle = rate.NoOp{}
	}
	return &Classifier{gen: gen, throttle: throttle, env: env}
}

// ClassifyOne always returns a usable Classification. When the model call or the reply
// fails, the fallback classification is returned together with the cause.
func (c *Classifier) ClassifyOne(ctx context.Context, item model.Item) (cls model.Classification, err error) {
	defer func() {
		if r := recover(); r != nil {
			cls, err = model.FallbackClassification(), fmt.Errorf("classify %s: panic: %v", item.ID, r)
		}
	}()

	start := time.Now()
	text, err := c.gen.Generate(ctx, buildPrompt(item))
	c.env.Metrics.APICall(apiName, apiOp, time.Since(start), err)
	if err != nil {
		return model.FallbackClassification(), fmt.Errorf("classify %s: generate: %w", item.ID, err)
	}

	cls, err = parseReply(text)
	if err != nil {
		c.env.Logger.Debug("unusable classification reply", "item_id", item.ID, "reply", truncate(text, 200))
		return model.FallbackClassification(), fmt.Errorf("classify %s: %w", item.ID, err)
	}
	return cls, nil
}

// ClassifyMany classifies items one at a time in order, waiting on the throttle between
// calls. A failed item gets the fallback classification and the batch continues.
func (c *Classifier) ClassifyMany(ctx context.Context, items []model.Item) ([]model.CategorizedItem, Report) {
	out := make([]model.CategorizedItem, 0, len(items))
	var report Report

	for i, item := range items {
		if i > 0 {
			if err := c.throttle.Wait(ctx); err != nil {
				c.env.Logger.Debug("throttle wait interrupted", "err", err)
			}
		}

		start := time.Now()
		cls, err := c.ClassifyOne(ctx, item)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, err)
			c.env.Metrics.Error("classifier", err)
			c.env.Logger.Warn("classification failed, using fallback", "item_id", item.ID, "err", err)
		} else {
			report.Succeeded++
		}
		c.env.Metrics.ItemProcessed(item.ID, cls.Category, time.Since(start))

		out = append(out, model.Categorize(item, cls))
	}

	c.env.Logger.Info("classification finished", "items", len(items), "succeeded", report.Succeeded, "failed", report.Failed)
	return out, report
}

func parseReply(text string) (model.Classification, error) {
	var r reply
	if err := llm.DecodeJSON(text, &r); err != nil {
		return model.Classification{}, err
	}

	category, ok := model.ParseCategory(r.Category)
	if !ok {
		return model.Classification{}, fmt.Errorf("%w: %w %q", llm.ErrMalformedReply, ErrUnknownCategory, r.Category)
	}

	cls := model.Classification{
		Category:    category,
		Subcategory: model.ParseSubcategory(r.Subcategory),
		Summary:     strings.TrimSpace(r.Summary),
		ActionItem:  model.ParseActionItem(r.ActionItem),
	}

	due := r.DueDate
	if due == nil {
		due = r.DateDue
	}
	if due != nil {
		// an unreadable date is dropped rather than failing the whole classification
		cls.DueDate, _ = model.ParseDueDate(*due)
	}
	return cls, nil
}

func truncate(s string, n int) string {
	if cut := llm.TruncateRunes(s, n); cut != s {
		return cut + "..."
	}
	return s
}
