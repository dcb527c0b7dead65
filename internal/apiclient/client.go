package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRetries is how many times an idempotent query is retried after a
// transient failure.
const DefaultRetries = 1

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Jar holds the session credentials. A fresh in-memory jar is used when nil.
	Jar     http.CookieJar
	Retries int
	Logger  *slog.Logger
	// HTTPClient overrides the transport entirely; Jar and Timeout are ignored.
	HTTPClient *http.Client
}

// Client talks JSON to the remote TaskAura API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	retries int
	logger  *slog.Logger
}

// New builds a client rooted at opts.BaseURL.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("empty api base url")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url must be absolute: %q", opts.BaseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		jar := opts.Jar
		if jar == nil {
			jar, err = cookiejar.New(nil)
			if err != nil {
				return nil, fmt.Errorf("cookie jar: %w", err)
			}
		}
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Jar: jar, Timeout: timeout}
	}

	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		retries: retries,
		logger:  logger,
	}, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	out    any
	// retry enables the query retry policy. Mutations never retry.
	retry bool
}

func (c *Client) do(ctx context.Context, req request) error {
	attempts := 1
	if req.retry && req.method == http.MethodGet {
		attempts += c.retries
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = c.roundTrip(ctx, req)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			return err
		}
		if attempt < attempts {
			c.logger.Warn("retrying api query",
				slog.String("path", req.path),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, req request) error {
	target := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var payload io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", req.path, err)
		}
		payload = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("api request failed",
			slog.String("request_id", requestID),
			slog.String("method", req.method),
			slog.String("path", req.path),
			slog.String("error", err.Error()))
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		slog.String("request_id", requestID),
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(started)))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("read %s response: %w", req.path, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, body)
	}

	if req.out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, req.out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.path, err)
	}
	return nil
}
