// Package fetch downloads pages for the scraping pipeline.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"FootballNews/internal/ports"
)

const defaultTimeout = 15 * time.Second

// CollyFetcher fetches documents with a fresh colly collector per request, so
// one fetcher can be shared by the article loop of a single source.
type CollyFetcher struct {
	headers   map[string]string
	timeout   time.Duration
	transport http.RoundTripper
	logger    *slog.Logger
}

var _ ports.Fetcher = (*CollyFetcher)(nil)

// Option configures the fetcher.
type Option func(*CollyFetcher)

// WithTransport replaces the HTTP transport (tests, proxies).
func WithTransport(rt http.RoundTripper) Option {
	return func(f *CollyFetcher) {
		if rt != nil {
			f.transport = rt
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log *slog.Logger) Option {
	return func(f *CollyFetcher) {
		f.logger = log
	}
}

// NewCollyFetcher builds a fetcher sending headers on every request.
func NewCollyFetcher(headers map[string]string, timeout time.Duration, opts ...Option) *CollyFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cp := make(map[string]string, len(headers))
	for k, v := range headers {
		cp[k] = v
	}
	f := &CollyFetcher{
		headers:   cp,
		timeout:   timeout,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the response body. Non-2xx statuses are errors.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(colly.AllowURLRevisit())
	c.IgnoreRobotsTxt = true
	c.SetRequestTimeout(f.timeout)
	c.WithTransport(contextTransport{ctx: ctx, base: f.transport})
	if ua, ok := f.headers["User-Agent"]; ok {
		c.UserAgent = ua
	}

	var (
		body   []byte
		status int
	)
	c.OnRequest(func(r *colly.Request) {
		for k, v := range f.headers {
			r.Headers.Set(k, v)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	start := time.Now()
	err := c.Visit(url)
	if f.logger != nil {
		f.logger.Debug("fetch", "url", url, "status", status, "duration", time.Since(start), "error", err)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if status != 0 {
			return nil, fmt.Errorf("fetch %s: status %d: %w", url, status, err)
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, status)
	}
	return body, nil
}

// contextTransport binds outgoing requests to the caller's context.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
