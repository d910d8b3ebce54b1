// Package apiclient is the JSON REST client of the storefront API.
// It never retries; failures report whether they are transient through Retryable().
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "shopcache/1"
	genericMessage   = "request failed"
)

// Client calls the storefront REST API with JSON bodies and optional bearer tokens.
// It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the request timeout. A client passed with WithHTTPClient
// is copied first and is not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}

	return c
}

// Do sends a JSON request and decodes a 2xx response body into out.
// body is JSON-encoded when non-nil; token, when non-empty, is sent as a bearer token.
// Failures are *HTTPError, *ValidationError or *NetworkError. Do never retries.
func (c *Client) Do(ctx context.Context, method, path string, body any, token string, out any) error {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	u, err := c.resolve(path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: "read " + method + " " + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure(resp.StatusCode, payload)
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}

	return nil
}

// Get is Do with GET and no body.
func (c *Client) Get(ctx context.Context, path, token string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, token, out)
}

func (c *Client) resolve(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	base := strings.TrimRight(u.EscapedPath(), "/")
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = base + "/" + strings.TrimLeft(ref.EscapedPath(), "/")
	u.RawQuery = ref.RawQuery

	return u.String(), nil
}

type errorBody struct {
	Message string            `json:"message"`
	Field   string            `json:"field"`
	Errors  map[string]string `json:"errors"`
}

func failure(status int, payload []byte) error {
	var body errorBody
	_ = json.Unmarshal(payload, &body)

	msg := strings.TrimSpace(body.Message)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = genericMessage
	}

	httpErr := HTTPError{Status: status, Message: msg}

	if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
		fields := body.Errors
		if body.Field != "" {
			if fields == nil {
				fields = map[string]string{}
			}
			fields[body.Field] = msg
		}
		if len(fields) > 0 {
			return &ValidationError{HTTPError: httpErr, Fields: fields}
		}
	}

	return &httpErr
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var httpErr *HTTPError

	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}
