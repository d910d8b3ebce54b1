package shopcache

import (
	"context"
	"errors"
	"fmt"
)

// Mutation describes a write and the read keys it stales.
type Mutation[I, T any] struct {
	// Name identifies the mutation in errors and logs.
	Name string
	// RequiresAuth makes the mutation fail with AuthenticationError when no token is stored.
	RequiresAuth bool
	// Execute performs the write. token is empty when the user is signed out.
	Execute func(ctx context.Context, token string, input I) (T, error)
	// Invalidates lists the keys to invalidate after a successful write.
	Invalidates func(input I) []Key
	// InvalidatesPrefix lists key prefixes to invalidate after a successful write.
	InvalidatesPrefix func(input I) []Key
}

// Executor runs mutations and invalidates the cache after successful writes.
type Executor struct {
	op     options
	cache  IInvalidator
	tokens TokenSource
}

// NewExecutor creates a new Executor. tokens may be nil, in which case every
// protected mutation fails with AuthenticationError.
func NewExecutor(cache IInvalidator, tokens TokenSource, opts ...Option) *Executor {
	e := &Executor{
		op:     defaultOptions(),
		cache:  cache,
		tokens: tokens,
	}

	for _, opt := range opts {
		opt(&e.op)
	}

	return e
}

// Mutate runs m exactly once.
//
// A protected mutation without a stored token fails with AuthenticationError before Execute is called.
// On failure the error is wrapped in MutationError and nothing is invalidated.
// On success every key from Invalidates and InvalidatesPrefix is invalidated and the result returned;
// an invalidation error is returned alongside the result.
func Mutate[I, T any](ctx context.Context, e *Executor, m Mutation[I, T], input I) (T, error) {
	var zero T

	if m.Execute == nil {
		return zero, &MutationError{Mutation: m.Name, Cause: errors.New("no execute function")}
	}

	token, err := e.token(ctx, m.Name, m.RequiresAuth)
	if err != nil {
		e.log(ctx, m.Name, err)

		return zero, err
	}

	res, err := m.Execute(ctx, token, input)
	if err != nil {
		err = &MutationError{Mutation: m.Name, Cause: err}
		e.log(ctx, m.Name, err)

		return zero, err
	}

	e.log(ctx, m.Name, nil)

	return res, e.invalidate(m.Name, invalidated(m.Invalidates, input), invalidated(m.InvalidatesPrefix, input))
}

func (e *Executor) token(ctx context.Context, name string, required bool) (string, error) {
	token, err := ReadToken(ctx, e.tokens, name, required)
	if err != nil && !errors.Is(err, ErrAuthentication) {
		return "", &MutationError{Mutation: name, Cause: err}
	}

	return token, err
}

// ReadToken returns the token operation op should send.
//
// A protected operation with a nil source or an empty token fails with AuthenticationError.
// A source that fails to read is reported as "read token: <cause>" for protected operations
// and ignored for public ones, which are then sent without a token.
// Reads and mutations both resolve tokens here; the Executor additionally wraps a source
// failure in MutationError.
func ReadToken(ctx context.Context, src TokenSource, op string, required bool) (string, error) {
	if src == nil {
		if required {
			return "", &AuthenticationError{Operation: op}
		}

		return "", nil
	}

	token, err := src.Token(ctx)
	switch {
	case err != nil && required:
		return "", fmt.Errorf("read token: %w", err)
	case err != nil:
		return "", nil
	case token == "" && required:
		return "", &AuthenticationError{Operation: op}
	}

	return token, nil
}

func (e *Executor) invalidate(name string, keys, prefixes []Key) error {
	if e.cache == nil {
		return nil
	}

	var errs []error

	for _, key := range keys {
		if err := e.cache.Invalidate(key); err != nil {
			errs = append(errs, fmt.Errorf("invalidate after %s: %w", name, err))
		}
	}

	for _, prefix := range prefixes {
		if _, err := e.cache.InvalidatePrefix(prefix); err != nil {
			errs = append(errs, fmt.Errorf("invalidate after %s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

func (e *Executor) log(ctx context.Context, mutation string, err error) {
	if e.op.logger != nil {
		e.op.logger.LogMutation(ctx, e.op.name, mutation, err)
	}
}

func invalidated[I any](fn func(I) []Key, input I) []Key {
	if fn == nil {
		return nil
	}

	return fn(input)
}
