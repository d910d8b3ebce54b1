package shopcache

import (
	"context"
	"errors"
	"time"
)

const maxRetryDelay = 30 * time.Second

// Option is a function for configuring Cache and Executor.
type Option func(*options)

type options struct {
	name       string
	logger     ILogger
	defaults   QueryOptions
	retryDelay func(attempt int) time.Duration
	retryable  func(err error) bool
	now        func() time.Time
}

func defaultOptions() options {
	return options{
		name:       "",
		logger:     nil,
		defaults:   DefaultQueryOptions(),
		retryDelay: defaultRetryDelay,
		retryable:  defaultRetryable,
		now:        time.Now,
	}
}

// WithLogger sets a logger for hit ratio, fetch failures and mutation outcomes.
// By default, the logger is nil.
func WithLogger(name string, logger ILogger) Option {
	return func(c *options) {
		c.name = name
		c.logger = logger
	}
}

// WithQueryDefaults replaces the options every read starts from.
func WithQueryDefaults(q QueryOptions) Option {
	return func(c *options) {
		c.defaults = q
	}
}

// WithRetryDelay sets the pause before retry number attempt+1.
// By default the delay is one second doubled per attempt, capped at 30 seconds.
func WithRetryDelay(delay func(attempt int) time.Duration) Option {
	return func(c *options) {
		if delay != nil {
			c.retryDelay = delay
		}
	}
}

// WithRetryPolicy decides which fetch errors are transient.
// By default an error is retried unless it is a context error, an authentication
// error, or reports Retryable() == false.
func WithRetryPolicy(retryable func(err error) bool) Option {
	return func(c *options) {
		if retryable != nil {
			c.retryable = retryable
		}
	}
}

// WithClock overrides time.Now for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(c *options) {
		if now != nil {
			c.now = now
		}
	}
}

// QueryOptions are the recognized per-read settings.
type QueryOptions struct {
	// Enabled false skips fetching entirely; the read only reports the current state.
	Enabled bool
	// Retry is the number of automatic retries after a transient failure.
	Retry int
	// RefetchOnFocus lets Cache.Focus refresh the entry in the background.
	RefetchOnFocus bool
	// StaleTime is how long fetched data is served without revalidation.
	StaleTime time.Duration
}

// DefaultQueryOptions returns the defaults used when a cache is created without WithQueryDefaults.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Enabled:        true,
		Retry:          1,
		RefetchOnFocus: true,
		StaleTime:      0,
	}
}

// QueryOption adjusts QueryOptions for a single read.
type QueryOption func(*QueryOptions)

// Enabled toggles fetching for a read.
func Enabled(v bool) QueryOption {
	return func(q *QueryOptions) { q.Enabled = v }
}

// Retry sets the retry budget for a read. Negative values mean no retries.
func Retry(n int) QueryOption {
	return func(q *QueryOptions) { q.Retry = max(n, 0) }
}

// RefetchOnFocus toggles background refresh when focus is regained.
func RefetchOnFocus(v bool) QueryOption {
	return func(q *QueryOptions) { q.RefetchOnFocus = v }
}

// StaleTime sets how long data stays fresh for a read.
func StaleTime(d time.Duration) QueryOption {
	return func(q *QueryOptions) { q.StaleTime = d }
}

func defaultRetryDelay(attempt int) time.Duration {
	if attempt >= 5 {
		return maxRetryDelay
	}

	return min(time.Second<<attempt, maxRetryDelay)
}

func defaultRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrAuthentication) {
		return false
	}

	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}

	return true
}
