package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	userAgent    = "cargolifter"
	maxErrorBody = 4096
)

// Client is the HTTP client shared by all forge adapters.
// Requests have no deadline of their own; callers bound them through ctx.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client limited to rps requests per second.
// A non-positive rps disables the limit.
func NewClient(rps float64, burst int) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}

	return &Client{
		http:    cleanhttp.DefaultPooledClient(),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// request describes one API call
type request struct {
	method string
	url    string
	auth   func(*http.Request)
	body   any
	out    any
}

func (c *Client) do(ctx context.Context, r request) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Method: r.method, URL: r.url, Err: err}
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.auth != nil {
		r.auth(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: r.method, URL: r.url, Err: err}
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", r.method).
		Str("url", r.url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Forge request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(r, resp)
	}

	if r.out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: r.method, URL: r.url, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, r.out); err != nil {
		return fmt.Errorf("failed to decode response from %s %s: %w", r.method, r.url, err)
	}
	return nil
}

func statusError(r request, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", r.method, r.url, ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s %s: %w", r.method, r.url, ErrConflict)
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Method:     r.method,
		URL:        r.url,
		StatusCode: resp.StatusCode,
		Body:       string(bytes.TrimSpace(data)),
	}
}
