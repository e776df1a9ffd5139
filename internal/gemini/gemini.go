// Package gemini implements llm.Generator on top of the Gemini generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultModel   = "gemini-2.5-flash-lite"
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultTimeout = 60 * time.Second

	maxErrorBody = 4 << 10
)

// ErrBlocked is returned when the provider refused to answer the prompt.
var ErrBlocked = errors.New("prompt blocked by provider")

// StatusError carries a non-200 provider reply.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("gemini: unexpected status %d: %s", e.Code, e.Message)
}

// Client is a Gemini text generator.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	temperature *float64
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the Gemini model to use.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTemperature pins the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) {
		c.temperature = &t
	}
}

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Model() string { return c.model }

// Generate sends prompt as a single user turn and returns the concatenated text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if c.temperature != nil {
		reqBody.GenerationConfig = &generationConfig{Temperature: c.temperature}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{Code: resp.StatusCode, Message: gjson.GetBytes(raw, "error.message").String()}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return parseResponse(raw)
}

func parseResponse(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", errors.New("decode response: invalid json")
	}

	if reason := gjson.GetBytes(raw, "promptFeedback.blockReason"); reason.Exists() {
		return "", fmt.Errorf("%w: %s", ErrBlocked, reason.String())
	}

	candidate := gjson.GetBytes(raw, "candidates.0")
	if !candidate.Exists() {
		return "", errors.New("no candidates in response")
	}

	var b strings.Builder
	for _, p := range candidate.Get("content.parts.#.text").Array() {
		b.WriteString(p.String())
	}
	if b.Len() == 0 {
		if reason := candidate.Get("finishReason").String(); reason != "" && reason != "STOP" {
			return "", fmt.Errorf("no text in candidate: finish reason %s", reason)
		}
		return "", errors.New("no text in candidate")
	}
	return b.String(), nil
}

// Gemini API types

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
}
