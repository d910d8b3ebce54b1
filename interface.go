package shopcache

import "context"

// IQueryCache is the untyped surface of Cache.
// For convenience of testing and replacing the implementation.
type IQueryCache interface {
	IInvalidator
	Remove(key Key) bool
	Subscribe(key Key, fn func(Snapshot)) (unsubscribe func(), err error)
	Focus(ctx context.Context) error
	Len() int
	Close()
}

// IInvalidator marks cache entries stale. The Executor only needs this part of the cache.
type IInvalidator interface {
	Invalidate(key Key) error
	InvalidatePrefix(prefix Key) (int, error)
}

// ILogger is an interface for logging cache hit/miss ratio, fetch failures and mutation outcomes.
type ILogger interface {
	LogCacheHitRatio(ctx context.Context, name string, hit bool)
	LogFetchError(ctx context.Context, name string, key Key, attempt int, err error)
	LogMutation(ctx context.Context, name, mutation string, err error)
}

// TokenSource supplies the bearer token for protected operations.
// An empty token with a nil error means the user is signed out.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
