// Package http provides a fluent, retry-aware HTTP client for outbound calls
// (identity provider key sets).
//
// Usage:
//
//	resp, err := http.Get(keysURL).
//	    WithContext(ctx).
//	    Timeout(5 * time.Second).
//	    Retry(3, 200*time.Millisecond).
//	    Send()
//
//	var keys map[string]string
//	err = resp.JSON(&keys)
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"time"

	"github.com/shashiranjanraj/parcelhub/pkg/logger"
)

// maxResponseBytes caps how much of a response body is read into memory.
const maxResponseBytes = 1 << 20

// defaultTransport is the connection-pooled transport used in production.
// Tests can replace DefaultClient.Transport to inject mocks.
var defaultTransport = &gohttp.Transport{
	MaxIdleConns:        50,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// DefaultClient is the shared HTTP client used by all outgoing requests.
// Tests can swap DefaultClient.Transport to intercept calls:
//
//	http.DefaultClient.Transport = myMockTransport
//	defer http.ResetTransport()
var DefaultClient = &gohttp.Client{
	Transport: defaultTransport,
}

// ResetTransport restores the production transport on DefaultClient.
func ResetTransport() {
	DefaultClient.Transport = defaultTransport
}

// ------------------- Request -------------------

// Request is a fluent HTTP request builder.
type Request struct {
	method    string
	url       string
	headers   map[string]string
	timeout   time.Duration
	retries   int
	retryWait time.Duration
	ctx       context.Context
}

// Get starts a GET request.
func Get(url string) *Request { return newRequest(gohttp.MethodGet, url) }

func newRequest(method, url string) *Request {
	return &Request{
		method:    method,
		url:       url,
		headers:   map[string]string{"Accept": "application/json"},
		timeout:   10 * time.Second,
		retries:   1,
		retryWait: 200 * time.Millisecond,
		ctx:       context.Background(),
	}
}

// Header adds a single header to the request.
func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Timeout sets the per-attempt timeout.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry configures automatic retries on transport errors and 5xx responses.
// n is total attempts (1 = no retry), wait is the initial backoff (doubles each attempt).
func (r *Request) Retry(n int, wait time.Duration) *Request {
	if n < 1 {
		n = 1
	}
	r.retries = n
	r.retryWait = wait
	return r
}

// WithContext sets the context every attempt runs under.
func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// ------------------- Send -------------------

// Send executes the request and returns a Response. A 5xx response is
// retried; the last one is returned without error so callers can inspect it.
func (r *Request) Send() (*Response, error) {
	var (
		lastErr  error
		lastResp *Response
	)
	backoff := r.retryWait

	for attempt := 1; attempt <= r.retries; attempt++ {
		resp, err := r.do()
		switch {
		case err == nil && resp.StatusCode < 500:
			return resp, nil
		case err == nil:
			lastResp, lastErr = resp, nil
		default:
			lastResp, lastErr = nil, err
		}

		if attempt == r.retries {
			break
		}
		logger.WithCtx(r.ctx).Warn("http: request failed, retrying",
			"url", r.url, "attempt", attempt, "backoff", backoff, "error", lastErr)

		select {
		case <-time.After(backoff):
		case <-r.ctx.Done():
			return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, r.ctx.Err())
		}
		backoff *= 2
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, fmt.Errorf("http: all %d attempts failed for %s %s: %w", r.retries, r.method, r.url, lastErr)
}

func (r *Request) do() (*Response, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Raw:        raw,
	}, nil
}

// ------------------- Response -------------------

// Response wraps the HTTP response with convenience methods.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON unmarshals the response body into dest.
func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Throw returns an error if the response status is not 2xx.
func (r *Response) Throw() error {
	if !r.OK() {
		return fmt.Errorf("http: request failed with status %d: %s", r.StatusCode, string(r.Raw))
	}
	return nil
}
