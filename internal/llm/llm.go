// Package llm defines the text generation capability the assistant depends on
// and the parsing shared by every prompt that expects a JSON reply.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyReply is returned when the provider answered without any text.
	ErrEmptyReply = errors.New("empty model reply")
	// ErrMalformedReply wraps replies that could not be decoded into the expected shape.
	ErrMalformedReply = errors.New("malformed model reply")
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var codeBlockRegex = regexp.MustCompile("(?s)^\\s*```(?:json|JSON)?\\s*(.+?)\\s*```\\s*$")

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if matches := codeBlockRegex.FindStringSubmatch(s); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return s
}

// DecodeJSON strips a code fence from reply and decodes it into v.
func DecodeJSON(reply string, v any) error {
	text := StripCodeFence(reply)
	if text == "" {
		return ErrEmptyReply
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}
	return nil
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
