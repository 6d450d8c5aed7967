// Package adminapi is a client for the company-profile admin REST API. Every
// response is wrapped in a {success, data, message} envelope and every call
// carries a bearer token.
package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/petrogas-holding/corpsite/internal/resilience"
)

// ClientContext is the connection configuration of the admin API. It is built
// once at startup and treated as read-only afterwards.
type ClientContext struct {
	BaseURL string
	Token   string
}

// WithToken returns a copy of cc authenticated with tok.
func (cc ClientContext) WithToken(tok string) ClientContext {
	cc.Token = tok
	return cc
}

// ErrRejected is returned when the API answers 2xx with success=false.
var ErrRejected = eris.New("adminapi: request rejected")

// StatusCode extracts the HTTP status of a failed call, or 0.
func StatusCode(err error) int {
	var se *resilience.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithRateLimit throttles calls to rps requests per second. Zero disables
// throttling.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetryPolicy overrides the retry policy for idempotent calls.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithBreaker sets the circuit breaker shared by all calls.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// Client calls the admin API.
type Client struct {
	cc      ClientContext
	http    *http.Client
	limiter *rate.Limiter
	policy  resilience.Policy
	breaker *resilience.Breaker
}

// New creates a client. Defaults: 10s timeout, 5 req/s, DefaultPolicy
// retries, breaker tripping after 5 consecutive transient failures.
func New(cc ClientContext, opts ...Option) *Client {
	cc.BaseURL = strings.TrimRight(cc.BaseURL, "/")
	c := &Client{
		cc:      cc,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(5, 5),
		policy:  resilience.DefaultPolicy(),
		breaker: resilience.NewBreaker(5, 30*time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Context returns the client's connection configuration.
func (c *Client) Context() ClientContext { return c.cc }

// WithToken returns a client for the same API authenticated with tok. The
// limiter and breaker are shared with c.
func (c *Client) WithToken(tok string) *Client {
	cp := *c
	cp.cc = c.cc.WithToken(tok)
	return &cp
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// Do sends one request to path (relative to the base URL) and returns the
// envelope's data. GET, PUT and DELETE are retried on transient failures.
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, eris.Wrap(err, "adminapi: encode body")
		}
	}

	policy := c.policy
	if method == http.MethodPost {
		policy.Attempts = 1
	}
	op := method + " " + path

	return resilience.Retry(ctx, policy, op, func(ctx context.Context) (json.RawMessage, error) {
		if c.breaker == nil {
			return c.roundTrip(ctx, method, path, payload)
		}
		return resilience.Call(ctx, c.breaker, func(ctx context.Context) (json.RawMessage, error) {
			return c.roundTrip(ctx, method, path, payload)
		})
	})
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "adminapi: rate limit")
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cc.BaseURL+"/"+strings.TrimLeft(path, "/"), body)
	if err != nil {
		return nil, eris.Wrap(err, "adminapi: create request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cc.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cc.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "adminapi: %s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, eris.Wrap(err, "adminapi: read body")
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &resilience.StatusError{Code: resp.StatusCode, Message: msg}
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if decodeErr != nil {
		return nil, eris.Wrapf(decodeErr, "adminapi: decode %s %s", method, path)
	}
	if !env.Success {
		return nil, eris.Wrapf(ErrRejected, "%s %s: %s", method, path, env.Message)
	}
	return env.Data, nil
}
