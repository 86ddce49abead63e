// Package upstream wraps outbound HTTP JSON calls behind a circuit breaker.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("upstream circuit breaker open")

type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream: %d", e.Status)
}

type circuitBreaker struct {
	mu        sync.Mutex
	failures  int
	threshold int
	openedAt  time.Time
	cooldown  time.Duration
	now       func() time.Time
}

func newCircuitBreaker(threshold int, cooldown time.Duration) *circuitBreaker {
	if threshold <= 0 {
		threshold = 1
	}
	return &circuitBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

func (c *circuitBreaker) allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures < c.threshold {
		return true
	}
	if c.now().Sub(c.openedAt) > c.cooldown {
		c.failures = 0
		c.openedAt = time.Time{}
		return true
	}
	return false
}

func (c *circuitBreaker) success() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.openedAt = time.Time{}
}

func (c *circuitBreaker) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.failures >= c.threshold {
		c.openedAt = c.now()
	}
}

// Client issues JSON requests. A run of failures opens the breaker and
// further calls fail fast with ErrCircuitOpen until the cooldown elapses.
type Client struct {
	hc      *http.Client
	cb      *circuitBreaker
	headers map[string]string
}

type Options struct {
	Timeout    time.Duration
	FailLimit  int
	Cooldown   time.Duration
	Headers    map[string]string
	HTTPClient *http.Client
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		hc:      hc,
		cb:      newCircuitBreaker(opts.FailLimit, opts.Cooldown),
		headers: opts.Headers,
	}
}

// GetJSON fetches url and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) (int, error) {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

// PostJSON encodes body, posts it to url and decodes the reply into out.
func (c *Client) PostJSON(ctx context.Context, url string, body any, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, url, payload, out)
}

// Get returns the raw body of a successful GET.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if !c.cb.allow() {
		return nil, ErrCircuitOpen
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	res, err := c.hc.Do(req)
	if err != nil {
		c.cb.fail()
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		c.cb.fail()
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &UpstreamError{Status: res.StatusCode, Body: string(body)}
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.cb.fail()
		return nil, err
	}
	c.cb.success()
	return body, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte, out any) (int, error) {
	if !c.cb.allow() {
		return 0, ErrCircuitOpen
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.setHeaders(req)

	res, err := c.hc.Do(req)
	if err != nil {
		c.cb.fail()
		return 0, err
	}
	defer res.Body.Close()
	status := res.StatusCode
	if status >= 300 {
		c.cb.fail()
		bodyStr, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return status, &UpstreamError{Status: status, Body: string(bodyStr)}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		c.cb.fail()
		return status, fmt.Errorf("decoding response: %w", err)
	}
	c.cb.success()
	return status, nil
}

func (c *Client) setHeaders(req *http.Request) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}
