// Package persist saves cache snapshots between runs.
package persist

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when no snapshot was saved yet.
var ErrNotFound = errors.New("snapshot not found")

// Store holds a single snapshot.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, b []byte) error
}

// Snapshotter is the part of shopcache.Cache that can be saved and restored.
type Snapshotter interface {
	Dehydrate() ([]byte, error)
	Hydrate(b []byte) error
}

// Restore loads the saved snapshot into cache. A missing snapshot is not an error.
func Restore(ctx context.Context, cache Snapshotter, store Store) error {
	b, err := store.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := cache.Hydrate(b); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	return nil
}

// Save writes the current contents of cache to store.
func Save(ctx context.Context, cache Snapshotter, store Store) error {
	b, err := cache.Dehydrate()
	if err != nil {
		return err
	}
	if err := store.Save(ctx, b); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	return nil
}
