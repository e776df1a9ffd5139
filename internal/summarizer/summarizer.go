// Package summarizer turns classified items into digest bullets: one consolidated
// summary per bucket and a three-bullet summary per newsletter. Both are cached, and
// both degrade to non-model text, which is never cached, when the model cannot help.
package summarizer

import (
	"github.com/udaytamma/AiEmailAssistant/model"
)

const (
	apiName = "gemini"

	defaultMaxMembers   = 10
	defaultMaxPoints    = 5
	defaultBodyMaxChars = 3000
)

// Store is the part of the cache the summarizers read and write.
type Store interface {
	Get(key string) (model.Value, bool)
	Set(key string, value model.Value) error
}

// Source tells where the bullets of a Result came from.
type Source uint8

const (
	SourceEmpty Source = iota
	SourceCached
	SourceGenerated
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceCached:
		return "cached"
	case SourceGenerated:
		return "generated"
	case SourceFallback:
		return "fallback"
	default:
		return "empty"
	}
}

// Result is the outcome of one summarization. Err is set when Points is a fallback
// or when the generated points could not be cached.
type Result struct {
	Key    string
	Points []string
	Source Source
	Err    error
}

type settings struct {
	maxMembers   int
	maxPoints    int
	bodyMaxChars int
}

type Option func(*settings)

// WithMaxMembers caps how many members are described in an aggregate prompt.
func WithMaxMembers(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxMembers = n
		}
	}
}

// WithMaxPoints caps the bullets of an aggregate summary.
func WithMaxPoints(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxPoints = n
		}
	}
}

// WithBodyMaxChars truncates newsletter bodies to n characters.
func WithBodyMaxChars(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.bodyMaxChars = n
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		maxMembers:   defaultMaxMembers,
		maxPoints:    defaultMaxPoints,
		bodyMaxChars: defaultBodyMaxChars,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// cleanPoints trims every point, drops empty ones and caps the result at limit (0 means no cap).
func cleanPoints(points []string, limit int) []string {
	out := make([]string, 0, len(points))
	for _, p := range points {
		if p = trimBullet(p); p != "" {
			out = append(out, p)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
