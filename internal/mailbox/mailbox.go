// Package mailbox reads items from Gmail over its REST API.
package mailbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/tidwall/gjson"
	"github.com/udaytamma/AiEmailAssistant/internal/telemetry"
	"github.com/udaytamma/AiEmailAssistant/model"
)

const (
	defaultBaseURL = "https://gmail.googleapis.com"
	apiName        = "gmail"

	unknownSender = "Unknown Sender"
	noSubject     = "No Subject"
)

// StatusError is a non-2xx answer of the Gmail API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gmail: status %d: %s", e.Code, e.Message)
}

type Client struct {
	http    *http.Client
	baseURL string
	env     telemetry.Env
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithEnv(env telemetry.Env) Option {
	return func(c *Client) { c.env = env }
}

// New wraps an already authorized HTTP client, see AuthorizedClient.
func New(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{http: httpClient, baseURL: defaultBaseURL, env: telemetry.NewEnv(nil, nil)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch lists the items matching q, newest first as Gmail returns them.
// A failing list call fails the fetch; a message that cannot be read is skipped.
func (c *Client) Fetch(ctx context.Context, q model.FetchQuery) ([]model.Item, error) {
	search := q.Text
	if !q.After.IsZero() {
		search = strings.TrimSpace(fmt.Sprintf("%s after:%d", search, q.After.Unix()))
	}

	params := url.Values{}
	if search != "" {
		params.Set("q", search)
	}
	if q.MaxResults > 0 {
		params.Set("maxResults", fmt.Sprint(q.MaxResults))
	}

	body, err := c.get(ctx, "list", "/gmail/v1/users/me/messages", params)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	ids := gjson.GetBytes(body, "messages.#.id").Array()
	items := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		item, internal, err := c.metadata(ctx, id.String())
		if err != nil {
			c.env.Metrics.Error("mailbox", err)
			c.env.Logger.Warn("skipping unreadable message", "item_id", id.String(), "err", err)
			continue
		}
		// "after:" has second granularity; the cursor itself is exclusive.
		if !q.After.IsZero() && !internal.After(q.After) {
			continue
		}
		items = append(items, item)
	}

	c.env.Logger.Info("mailbox fetched", "query", search, "listed", len(ids), "items", len(items))
	return items, nil
}

// FullBody returns the readable text of a message: its text/plain part, else its
// text/html part converted to text, else its snippet. Failures yield "".
func (c *Client) FullBody(ctx context.Context, id string) string {
	body, err := c.get(ctx, "body", "/gmail/v1/users/me/messages/"+url.PathEscape(id), url.Values{"format": {"full"}})
	if err != nil {
		c.env.Metrics.Error("mailbox", err)
		c.env.Logger.Warn("full body unavailable", "item_id", id, "err", err)
		return ""
	}

	msg := gjson.ParseBytes(body)
	plain, html := walkParts(msg.Get("payload"))
	switch {
	case strings.TrimSpace(plain) != "":
		return plain
	case strings.TrimSpace(html) != "":
		if text := htmlToText(html); text != "" {
			return text
		}
	}
	return msg.Get("snippet").String()
}

func (c *Client) metadata(ctx context.Context, id string) (model.Item, time.Time, error) {
	params := url.Values{"format": {"metadata"}, "metadataHeaders": {"From", "Subject", "Date"}}
	body, err := c.get(ctx, "get", "/gmail/v1/users/me/messages/"+url.PathEscape(id), params)
	if err != nil {
		return model.Item{}, time.Time{}, fmt.Errorf("get message %s: %w", id, err)
	}

	msg := gjson.ParseBytes(body)
	internal := time.UnixMilli(msg.Get("internalDate").Int())

	headers := msg.Get("payload.headers")
	item := model.Item{
		ID:          msg.Get("id").String(),
		Sender:      header(headers, "From", unknownSender),
		Subject:     header(headers, "Subject", noSubject),
		PreviewText: msg.Get("snippet").String(),
		ReceivedAt:  header(headers, "Date", internal.UTC().Format(time.RFC3339)),
	}
	if item.ID == "" {
		item.ID = id
	}
	return item, internal, nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.do(req)
	c.env.Metrics.APICall(apiName, op, time.Since(start), err)
	return body, err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &StatusError{Code: resp.StatusCode, Message: msg}
	}
	return body, nil
}

// header finds a header case-insensitively.
func header(headers gjson.Result, name, def string) string {
	for _, h := range headers.Array() {
		if strings.EqualFold(h.Get("name").String(), name) {
			if v := strings.TrimSpace(h.Get("value").String()); v != "" {
				return v
			}
		}
	}
	return def
}

// walkParts returns the first text/plain and the first text/html body of a payload tree.
func walkParts(part gjson.Result) (plain, html string) {
	if data := part.Get("body.data").String(); data != "" {
		switch strings.ToLower(part.Get("mimeType").String()) {
		case "text/plain":
			plain = decodeBase64URL(data)
		case "text/html":
			html = decodeBase64URL(data)
		}
	}
	for _, sub := range part.Get("parts").Array() {
		p, h := walkParts(sub)
		if plain == "" {
			plain = p
		}
		if html == "" {
			html = h
		}
	}
	return plain, html
}

func decodeBase64URL(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "=")); err == nil {
		return string(b)
	}
	return ""
}

var pageURL = &url.URL{Scheme: "https", Host: "mail.google.com"}

func htmlToText(html string) string {
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}
