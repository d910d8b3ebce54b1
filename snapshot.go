package shopcache

import (
	"encoding/json"
	"fmt"
	"time"
)

const snapshotVersion = 2

type snapshotFile struct {
	Version int             `json:"version"`
	Entries []snapshotEntry `json:"entries"`
}

// snapshotEntry stores the key as its canonical part strings so Hydrate
// rebuilds exactly the id a live read computes.
type snapshotEntry struct {
	Key       []string        `json:"key"`
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Dehydrate serializes every successfully fetched entry to JSON.
// Failed, idle and invalidated entries are skipped.
func (c *Cache) Dehydrate() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := snapshotFile{Version: snapshotVersion, Entries: make([]snapshotEntry, 0, c.entries.Len())}

	for _, id := range c.entries.Keys() {
		e, ok := c.entries.Peek(id)
		if !ok || !e.hasData || e.settled != StatusSuccess || e.invalidated {
			continue
		}

		data, err := json.Marshal(e.data)
		if err != nil {
			return nil, fmt.Errorf("dehydrate %s: %w", id, err)
		}

		out.Entries = append(out.Entries, snapshotEntry{Key: e.parts, Data: data, FetchedAt: e.fetched})
	}

	return json.Marshal(out)
}

// Hydrate restores entries produced by Dehydrate. Keys already present in the cache are kept.
// Restored data is decoded into the reader's type on first read.
func (c *Cache) Hydrate(b []byte) error {
	var in snapshotFile
	if err := json.Unmarshal(b, &in); err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}

	if in.Version != snapshotVersion {
		return fmt.Errorf("hydrate: unsupported snapshot version %d", in.Version)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}

	for _, se := range in.Entries {
		key := make(Key, len(se.Key))
		for i, part := range se.Key {
			key[i] = json.RawMessage(part)
		}

		id, parts, err := key.encode()
		if err != nil {
			return fmt.Errorf("hydrate: %w", err)
		}

		if c.entries.Contains(id) {
			continue
		}

		e := c.lookupLocked(id, key, parts)
		e.data = se.Data
		e.hasData = true
		e.hydrated = true
		e.settled = StatusSuccess
		e.fetched = se.FetchedAt
	}

	return nil
}
