// Package remote is the HTTP client for the format conversion service.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/goccy/go-json"
)

const (
	// DefaultTimeout bounds a single request when Options.Timeout is unset.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 32 << 20
	maxErrorMessage  = 512
)

// Remote is the conversion capability consumed by the dispatcher.
type Remote interface {
	Convert(ctx context.Context, dir Direction, payload []byte) ([]byte, error)
	Info(ctx context.Context) (*Info, error)
}

// Info describes the conversion plugin as reported by the service.
type Info struct {
	Plugin      string   `json:"plugin"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Endpoints   []string `json:"endpoints,omitempty"`
}

// Func adapts a conversion function to Remote. Info is not supported and
// always reports ErrUnavailable.
type Func func(ctx context.Context, dir Direction, payload []byte) ([]byte, error)

// Convert calls f.
func (f Func) Convert(ctx context.Context, dir Direction, payload []byte) ([]byte, error) {
	return f(ctx, dir, payload)
}

// Info always fails.
func (f Func) Info(context.Context) (*Info, error) {
	return nil, fmt.Errorf("%w: plugin info not provided", ErrUnavailable)
}

// Options configures a Client.
type Options struct {
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// BreakerThreshold is the number of consecutive failures that opens the
	// circuit. Zero disables the breaker.
	BreakerThreshold uint

	// BreakerDelay is how long an open circuit fails fast before a trial
	// request is let through.
	BreakerDelay time.Duration

	Logger log.Logger

	// HTTPClient replaces the default client; Timeout is then ignored.
	HTTPClient *http.Client
}

// Client calls the conversion service over HTTP. Each call is a single
// request with no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker[any]
	logger     log.Logger
}

var _ Remote = (*Client)(nil)

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}

	if opts.BreakerThreshold > 0 {
		c.breaker = circuitbreaker.NewBuilder[any]().
			WithFailureThreshold(opts.BreakerThreshold).
			WithDelay(opts.BreakerDelay).
			OnOpen(func(circuitbreaker.StateChangedEvent) {
				level.Warn(logger).Log("msg", "conversion service circuit opened", "url", c.baseURL, "delay", opts.BreakerDelay)
			}).
			OnClose(func(circuitbreaker.StateChangedEvent) {
				level.Info(logger).Log("msg", "conversion service circuit closed", "url", c.baseURL)
			}).
			Build()
	}

	return c
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Convert posts payload to the service endpoint for dir and returns the
// converted body. Errors wrap ErrUnavailable, ErrRejected or
// ErrMalformedResponse.
func (c *Client) Convert(ctx context.Context, dir Direction, payload []byte) ([]byte, error) {
	var out []byte
	err := c.guard(func() error {
		var err error
		out, err = c.convert(ctx, dir, payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) convert(ctx context.Context, dir Direction, payload []byte) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodPost, dir.Path(), dir.RequestType(), dir.ResponseType(), payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s response: %w", ErrUnavailable, dir, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w", dir, statusError(resp.StatusCode, body))
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty %s response", ErrMalformedResponse, dir)
	}
	if ct := resp.Header.Get("Content-Type"); !dir.acceptsMediaType(ct) {
		return nil, fmt.Errorf("%w: %s response has media type %q, want %s",
			ErrMalformedResponse, dir, ct, dir.ResponseType())
	}

	return body, nil
}

// Info fetches the plugin info document.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	var info *Info
	err := c.guard(func() error {
		var err error
		info, err = c.info(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) info(ctx context.Context) (*Info, error) {
	resp, err := c.send(ctx, http.MethodGet, PluginPath+"/", "", MediaJSON, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read info response: %w", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("info: %w", statusError(resp.StatusCode, body))
	}

	var info Info
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: failed to decode info: %w", ErrMalformedResponse, err)
	}
	if info.Plugin == "" {
		return nil, fmt.Errorf("%w: info has no plugin name", ErrMalformedResponse)
	}
	return &info, nil
}

func (c *Client) send(ctx context.Context, method, path, contentType, accept string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrUnavailable, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", "toolcat")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %w", ErrUnavailable, c.baseURL, err)
	}
	return resp, nil
}

// guard runs fn behind the circuit breaker. Rejections with a 4xx status
// mean the service is healthy and count as successes. A call cancelled by
// the caller says nothing about the service and is not recorded.
func (c *Client) guard(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	if !c.breaker.TryAcquirePermit() {
		return fmt.Errorf("%w: circuit open for %s, retry in %s",
			ErrUnavailable, c.baseURL, c.breaker.RemainingDelay().Round(time.Millisecond))
	}

	err := fn()

	var se *StatusError
	switch {
	case err == nil:
		c.breaker.RecordSuccess()
	case errors.As(err, &se) && se.StatusCode < 500:
		c.breaker.RecordSuccess()
	case errors.Is(err, context.Canceled):
		// A half-open trial holds the only permit; reopen so the next
		// trial gets a fresh one after the delay.
		if c.breaker.IsHalfOpen() {
			c.breaker.Open()
		}
	default:
		c.breaker.RecordError(err)
	}
	return err
}

// statusError builds a StatusError, taking the message from a
// {"error": "..."} body when the service sent one.
func statusError(code int, body []byte) *StatusError {
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage] + "..."
	}
	return &StatusError{StatusCode: code, Message: msg}
}
