// internal/adapters/transport/client.go
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hotel_connect/internal/adapters/observability"
	"hotel_connect/internal/domain"
)

// Client is the shared outbound HTTP client of every provider connector.
// It never retries: the first failure goes straight back to the caller.
type Client struct {
	service string
	base    string
	hc      *http.Client
	rl      *rate.Limiter
	auth    Authenticator
	headers http.Header
}

type Option func(*Client)

// WithHTTPClient swaps the underlying *http.Client (tests, custom TLS).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithRateLimit caps outbound requests per second; rps <= 0 disables the limit.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.rl = rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

func WithAuth(a Authenticator) Option { return func(c *Client) { c.auth = a } }

// WithHeader adds a static header to every request.
func WithHeader(k, v string) Option { return func(c *Client) { c.headers.Set(k, v) } }

func New(service, base string, opts ...Option) *Client {
	c := &Client{
		service: service,
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: 30 * time.Second},
		rl:      rate.NewLimiter(rate.Inf, 0),
		headers: http.Header{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Service() string { return c.service }
func (c *Client) BaseURL() string { return c.base }
func (c *Client) HTTPClient() *http.Client { return c.hc }

// Request describes one call. Path is appended to the base URL unless it is absolute.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// JSON is encoded as the body when non-nil.
	JSON any
	// Raw is sent as-is with ContentType when JSON is nil.
	Raw         []byte
	ContentType string
	Header      http.Header
	// NoAuth skips the client's Authenticator (token endpoints).
	NoAuth bool
}

// Response is the decoded result of a 2xx call.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into out; an empty body leaves out untouched.
func (r *Response) Decode(out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// DoJSON performs req and decodes the JSON response into out.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Do performs req. Any non-2xx status becomes a *domain.ProviderAPIError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	u := req.Path
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = c.base + "/" + strings.TrimLeft(req.Path, "/")
	}
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := req.ContentType
	switch {
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	case req.Raw != nil:
		body = bytes.NewReader(req.Raw)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	hr, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Set(k, v)
		}
	}
	if contentType != "" {
		hr.Header.Set("Content-Type", contentType)
	}
	if hr.Header.Get("Accept") == "" {
		hr.Header.Set("Accept", "application/json")
	}
	hr.Header.Set("User-Agent", "hotel-connect/1.0")

	if c.auth != nil && !req.NoAuth {
		if err := c.auth.Authorize(ctx, hr); err != nil {
			return nil, fmt.Errorf("%s auth: %w", c.service, err)
		}
	}

	endpoint := endpointLabel(req.Path)
	start := time.Now()
	resp, err := c.hc.Do(hr)
	if err != nil {
		observability.ObserveExternal(c.service, endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s %s %s: %w", c.service, method, endpoint, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal(c.service, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Warn().
			Str("service", c.service).
			Str("method", method).
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("provider returned non-2xx")
		return nil, &domain.ProviderAPIError{
			Provider:   c.service,
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(b)),
		}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", c.service, err)
	}
	log.Debug().Str("service", c.service).Str("method", method).Str("endpoint", endpoint).
		Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("provider call")
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

// endpointLabel keeps metric cardinality bounded: ids and query strings are dropped.
func endpointLabel(path string) string {
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if looksLikeID(p) {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func looksLikeID(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits > 0 && (digits*2 >= len(s) || len(s) >= 16)
}
