// Package opendata issues GET requests against open-data JSON endpoints.
//
// A Requester either owns the HTTP client it created (and releases it on
// Close) or borrows one supplied by the caller (and never releases it).
package opendata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/openoverheid/pkg/async"
	"github.com/samvad-hq/openoverheid/pkg/httpclient"
)

var defaultHeaders = map[string]string{
	"Accept": "application/json",
}

// Requester performs GET requests and returns the decoded JSON body.
type Requester struct {
	client  httpclient.Client
	owned   bool
	timeout time.Duration
	log     Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Requester.
type Option func(*Requester)

// WithLogger sets the logger used for request tracing.
func WithLogger(log Logger) Option {
	return func(r *Requester) { r.log = EnsureLogger(log) }
}

// WithTimeout sets the timeout of an owned client. Ignored for borrowed clients.
func WithTimeout(d time.Duration) Option {
	return func(r *Requester) { r.timeout = d }
}

// New creates a Requester owning a fresh resty-backed client.
func New(opts ...Option) *Requester {
	r := &Requester{owned: true, log: noopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	r.client = httpclient.NewRestyClient(r.timeout)
	return r
}

// NewWithClient creates a Requester borrowing client. Close never releases it.
func NewWithClient(client httpclient.Client, opts ...Option) *Requester {
	if client == nil {
		return New(opts...)
	}
	r := &Requester{client: client, log: noopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Client returns the underlying HTTP client so related components can borrow it.
func (r *Requester) Client() httpclient.Client { return r.client }

// Owned reports whether Close releases the underlying client.
func (r *Requester) Owned() bool { return r.owned }

// Request issues a GET against url and returns the raw JSON value of the body.
func (r *Requester) Request(ctx context.Context, url string) (json.RawMessage, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	resp, err := r.client.Get(ctx, url, defaultHeaders)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}

	body := resp.Body()
	r.log.DebugObj("open data request completed", "opendata_request", map[string]any{
		"url":        url,
		"status":     resp.StatusCode(),
		"bytes":      len(body),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, &HTTPError{URL: url, StatusCode: code, Body: responseSnippet(body)}
	}

	var doc json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &JSONParseError{URL: url, Err: err}
	}
	return doc, nil
}

// RequestAsync runs Request on its own goroutine.
func (r *Requester) RequestAsync(ctx context.Context, url string) *async.Future[json.RawMessage] {
	return async.Go(ctx, func(ctx context.Context) (json.RawMessage, error) {
		return r.Request(ctx, url)
	})
}

// Close releases the client if the requester owns it. Safe to call multiple times.
func (r *Requester) Close() error {
	if r == nil {
		return nil
	}
	r.closeOnce.Do(func() {
		if !r.owned {
			return
		}
		r.closed.Store(true)
		if c, ok := r.client.(httpclient.Closer); ok {
			r.closeErr = c.Close()
		}
	})
	return r.closeErr
}
