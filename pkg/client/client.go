package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/usestring/redcap-mcp/internal/cache"
)

//go:generate mockgen -source=client.go -destination=mocks/mock_doer.go -package=mocks HTTPDoer

// HTTPDoer executes HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a REDCap API client bound to one project token.
type Client struct {
	cfg        *Config
	httpClient HTTPDoer
	cache      *cache.ResponseCache
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPDoer) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a REDCap client. A nil cfg yields an unconfigured client whose
// operations all fail with ErrNotConfigured.
func New(cfg *Config, opts ...Option) *Client {
	c := &Client{httpClient: http.DefaultClient}
	if cfg != nil {
		cp := *cfg
		if cp.Format == "" {
			cp.Format = FormatJSON
		}
		c.cfg = &cp
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.cfg != nil && c.cfg.CacheEnabled {
		size := c.cfg.CacheMaxItems
		if size <= 0 {
			size = DefaultCacheMaxItems
		}
		rc, err := cache.NewResponseCache(size)
		if err != nil {
			c.cfg.logger().Warn("response cache disabled", slog.String("error", err.Error()))
		} else {
			c.cache = rc
		}
	}
	return c
}

// Config returns a copy of the client configuration, or nil if unconfigured.
func (c *Client) Config() *Config {
	if c.cfg == nil {
		return nil
	}
	cp := *c.cfg
	return &cp
}

// CacheLen returns the number of memoized responses. It is 0 when caching is off.
func (c *Client) CacheLen() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

// FlushCache drops every memoized response.
func (c *Client) FlushCache() {
	if c.cache != nil {
		c.cache.Flush()
	}
}

// Response is a completed API call.
type Response struct {
	StatusCode int
	Body       []byte
	Cached     bool
}

// FileResponse is an opaque file download. The caller must close Body.
type FileResponse struct {
	Body        io.ReadCloser
	StatusCode  int
	ContentType string
	Filename    string
}

type responseMode string

const (
	modeJSON responseMode = "json"
	modeRaw  responseMode = "raw"
	modeFile responseMode = "file"
)

// payload builds a payload for content, failing when the client is unconfigured.
func (c *Client) payload(content string, b BuildOptions, opts RequestOptions) (Payload, error) {
	if c.cfg == nil {
		return nil, &ConfigurationError{Message: "no configuration", Cause: ErrNotConfigured}
	}
	return BuildPayload(c.cfg, content, b, opts), nil
}

// Post sends p and decodes the JSON response into out. out may be nil.
func (c *Client) Post(ctx context.Context, p Payload, out any) (*Response, error) {
	return c.post(ctx, p, out, true)
}

// post is Post with control over memoization; writes are never memoized.
func (c *Client) post(ctx context.Context, p Payload, out any, cacheable bool) (*Response, error) {
	resp, err := c.do(ctx, p, modeJSON, cacheable)
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return resp, &ResponseParseError{Content: p.Content(), Body: excerpt(resp.Body), Cause: err}
		}
	}
	return resp, nil
}

// PostRaw sends p and returns the body as plain text.
func (c *Client) PostRaw(ctx context.Context, p Payload) (string, error) {
	resp, err := c.do(ctx, p, modeRaw, true)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// PostFile sends p and returns the response stream without interpreting it.
// File responses bypass the cache.
func (c *Client) PostFile(ctx context.Context, p Payload) (*FileResponse, error) {
	if c.cfg == nil {
		return nil, &ConfigurationError{Message: "no configuration", Cause: ErrNotConfigured}
	}
	start := time.Now()
	reqID := uuid.NewString()
	log := c.cfg.logger()
	log.Log(ctx, c.cfg.LogLevel, "REDCap request",
		slog.String("request_id", reqID),
		slog.String("host", c.cfg.Host),
		slog.String("mode", string(modeFile)),
		slog.Any("payload", p),
	)

	resp, err := c.send(ctx, p)
	if err != nil {
		c.logFailure(ctx, reqID, p, start, err)
		return nil, err
	}

	ct := resp.Header.Get("Content-Type")
	fr := &FileResponse{
		Body:        resp.Body,
		StatusCode:  resp.StatusCode,
		ContentType: ct,
		Filename:    filename(ct, resp.Header.Get("Content-Disposition")),
	}
	log.Log(ctx, c.cfg.LogLevel, "REDCap response",
		slog.String("request_id", reqID),
		slog.String("content", p.Content()),
		slog.String("mode", string(modeFile)),
		slog.Int("status", resp.StatusCode),
		slog.String("content_type", ct),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return fr, nil
}

// do runs the buffered request path shared by JSON and raw responses.
func (c *Client) do(ctx context.Context, p Payload, mode responseMode, cacheable bool) (*Response, error) {
	if c.cfg == nil {
		return nil, &ConfigurationError{Message: "no configuration", Cause: ErrNotConfigured}
	}
	start := time.Now()
	reqID := uuid.NewString()
	log := c.cfg.logger()
	log.Log(ctx, c.cfg.LogLevel, "REDCap request",
		slog.String("request_id", reqID),
		slog.String("host", c.cfg.Host),
		slog.String("mode", string(mode)),
		slog.Any("payload", p),
	)

	var (
		resp *Response
		err  error
	)
	if c.cache != nil && cacheable {
		var e cache.Entry
		var hit bool
		e, hit, err = c.cache.Do(p.Key(), func() (cache.Entry, error) {
			r, err := c.fetch(ctx, p)
			if err != nil {
				return cache.Entry{}, err
			}
			return cache.Entry{StatusCode: r.StatusCode, Body: r.Body}, nil
		})
		if err == nil {
			resp = &Response{StatusCode: e.StatusCode, Body: e.Body, Cached: hit}
		}
	} else {
		resp, err = c.fetch(ctx, p)
	}
	if err != nil {
		c.logFailure(ctx, reqID, p, start, err)
		return nil, err
	}

	log.Log(ctx, c.cfg.LogLevel, "REDCap response",
		slog.String("request_id", reqID),
		slog.String("content", p.Content()),
		slog.String("mode", string(mode)),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(resp.Body)),
		slog.Bool("cached", resp.Cached),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return resp, nil
}

// fetch performs the POST and buffers a 2xx body.
func (c *Client) fetch(ctx context.Context, p Payload) (*Response, error) {
	resp, err := c.send(ctx, p)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Host: c.cfg.Host, StatusCode: resp.StatusCode, Message: "reading response", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError(resp.StatusCode, body)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// send posts the form-encoded payload to the configured host.
func (c *Client) send(ctx context.Context, p Payload) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Host, strings.NewReader(p.Values().Encode()))
	if err != nil {
		return nil, &ConfigurationError{Message: fmt.Sprintf("invalid host %q", c.cfg.Host), Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Host: c.cfg.Host, Cause: err}
	}
	return resp, nil
}

// parseError extracts REDCap's error message from a non-2xx body.
func (c *Client) parseError(status int, body []byte) error {
	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &TransportError{Host: c.cfg.Host, StatusCode: status, Message: errResp.Error}
	}
	return &TransportError{Host: c.cfg.Host, StatusCode: status, Message: excerpt(body)}
}

func (c *Client) logFailure(ctx context.Context, reqID string, p Payload, start time.Time, err error) {
	c.cfg.logger().Log(ctx, c.cfg.LogLevel, "REDCap request failed",
		slog.String("request_id", reqID),
		slog.String("content", p.Content()),
		slog.String("error", err.Error()),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

// filename reads the download name from the content-type "name" parameter,
// which is where REDCap puts it, falling back to Content-Disposition.
func filename(contentType, disposition string) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if name := params["name"]; name != "" {
			return name
		}
	}
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		return params["filename"]
	}
	return ""
}
