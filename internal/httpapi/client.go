// Package httpapi is the HTTP transport shared by the gateway endpoint
// groups. It owns authentication, pacing, the circuit breaker and the
// mapping of transport failures onto the error types in pkg/core.
package httpapi

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"tickvault/internal/circuitbreaker"
	"tickvault/internal/ratelimit"
	"tickvault/pkg/core"
	"tickvault/pkg/dynjson"
)

const (
	streamBufSize = 64 << 10
	maxErrorBody  = 64 << 10
)

type Client struct {
	client  *resty.Client
	base    string
	logger  zerolog.Logger
	limiter *ratelimit.RateLimiter
	breaker *circuitbreaker.Breaker
	timeout time.Duration
	mu      sync.RWMutex
	closed  bool
}

// NewClient builds a transport rooted at base, which the caller derives
// from the configured gateway or overrides for tests.
func NewClient(cfg *core.Config, base string, logger zerolog.Logger) *Client {
	ua := cfg.UserAgent
	if ua == "" {
		ua = core.DefaultUserAgent
	}

	client := resty.New()
	client.SetBaseURL(base)
	client.SetBasicAuth(cfg.Key, "")
	client.SetHeader("User-Agent", ua)

	client.AddRequestMiddleware(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("http request")
		return nil
	})

	client.AddResponseMiddleware(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Msg("http response")
		return nil
	})

	c := &Client{
		client:  client,
		base:    base,
		logger:  logger,
		limiter: ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitPeriod),
		timeout: cfg.Timeout,
	}
	if cfg.CircuitBreakerEnabled {
		c.breaker = circuitbreaker.New(
			cfg.CircuitBreakerFailThreshold,
			cfg.CircuitBreakerSuccessThreshold,
			cfg.CircuitBreakerTimeout,
		)
	}
	return c
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	m := c.limiter.Metrics()
	c.logger.Debug().
		Int64("requests", m.TotalRequests).
		Int64("denied", m.DeniedRequests).
		Msg("closing http client")
	return c.client.Close()
}

func (c *Client) GetJSON(ctx context.Context, op core.Operation, path string, query map[string]string) (dynjson.Value, error) {
	return c.doJSON(ctx, op, path, func(req *resty.Request) (*resty.Response, error) {
		req.SetQueryParams(query)
		return req.Get(path)
	})
}

func (c *Client) PostJSON(ctx context.Context, op core.Operation, path string, form map[string]string) (dynjson.Value, error) {
	return c.doJSON(ctx, op, path, func(req *resty.Request) (*resty.Response, error) {
		req.SetFormData(form)
		return req.Post(path)
	})
}

func (c *Client) doJSON(ctx context.Context, op core.Operation, path string, send func(*resty.Request) (*resty.Response, error)) (dynjson.Value, error) {
	if err := c.acquire(ctx, op, path); err != nil {
		return dynjson.Value{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := send(c.client.R().SetContext(ctx))
	if err != nil {
		c.record(false)
		return dynjson.Value{}, &core.TransportError{Target: c.target(path), Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		c.record(resp.StatusCode() < 500)
		return dynjson.Value{}, &core.HTTPResponseError{
			Target:     c.target(path),
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(string(resp.Bytes())),
		}
	}
	c.record(true)
	return dynjson.Parse(op.String(), resp.Bytes())
}

// GetRawStream issues a GET and hands the raw response body to chunk
// piece by piece. A false return from chunk stops reading early without
// error. The request runs under ctx alone, never the client timeout.
func (c *Client) GetRawStream(ctx context.Context, op core.Operation, path string, query map[string]string, chunk func([]byte) bool) error {
	if err := c.acquire(ctx, op, path); err != nil {
		return err
	}

	req := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetQueryParams(query)
	resp, err := req.Get(path)
	if err != nil {
		c.record(false)
		return &core.TransportError{Target: c.target(path), Err: err}
	}
	body := resp.Body
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		c.record(resp.StatusCode() < 500)
		data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
		return &core.HTTPResponseError{
			Target:     c.target(path),
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(string(data)),
		}
	}

	buf := make([]byte, streamBufSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if !chunk(buf[:n]) {
				c.record(true)
				return nil
			}
		}
		if err == io.EOF {
			c.record(true)
			return nil
		}
		if err != nil {
			c.record(false)
			return &core.TransportError{Target: c.target(path), Err: err}
		}
	}
}

func (c *Client) acquire(ctx context.Context, op core.Operation, path string) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return core.ErrClientClosed
	}

	if c.breaker != nil && !c.breaker.Allow() {
		c.logger.Warn().
			Str("op", op.String()).
			Msg("circuit breaker rejected request")
		return &core.TransportError{Target: c.target(path), Err: core.ErrCircuitBreakerOpen}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return &core.TransportError{Target: c.target(path), Err: err}
	}
	return nil
}

func (c *Client) record(success bool) {
	if c.breaker == nil {
		return
	}
	was := c.breaker.State()
	c.breaker.Record(success)
	if now := c.breaker.State(); now != was {
		c.logger.Warn().
			Str("from", was.String()).
			Str("to", now.String()).
			Msg("circuit breaker state changed")
	}
}

func (c *Client) target(path string) string {
	return c.base + path
}
