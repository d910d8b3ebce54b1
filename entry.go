package shopcache

import (
	"context"
	"time"
)

// Status is the state of a cache entry.
type Status int

const (
	// StatusIdle means nothing was fetched yet.
	StatusIdle Status = iota
	// StatusLoading means a fetch is in flight.
	StatusLoading
	// StatusSuccess means the last applied fetch succeeded.
	StatusSuccess
	// StatusError means the last applied fetch failed.
	StatusError
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is an untyped, immutable view of a cache entry.
type Snapshot struct {
	Key         Key
	Data        any
	HasData     bool
	Err         error
	Status      Status
	FetchedAt   time.Time
	Invalidated bool
	// Stale is set when the data was served past its stale time.
	Stale bool

	id  string
	seq uint64
}

type fetchFunc func(ctx context.Context) (any, error)

// entry is owned by Cache and only touched under Cache.mu.
type entry struct {
	id    string
	key   Key
	parts []string

	data     any
	hasData  bool
	hydrated bool // data is json.RawMessage restored by Hydrate
	err      error
	settled  Status
	fetched  time.Time

	// flight is the id of the fetch readers attach to; 0 when none is running or after invalidation.
	flight      uint64
	invalidated bool
	inflight    int
	startedSeq  uint64
	landedSeq   uint64

	refetch        fetchFunc
	retry          int
	staleTime      time.Duration
	refetchOnFocus bool

	subscribers map[uint64]func(Snapshot)
}

func (e *entry) status() Status {
	if e.inflight > 0 {
		return StatusLoading
	}

	return e.settled
}

func (e *entry) needsFetch() bool {
	return e.invalidated || e.settled != StatusSuccess
}

func (e *entry) isStale(now time.Time) bool {
	return now.Sub(e.fetched) >= e.staleTime
}

func (e *entry) remember(fetch fetchFunc, q QueryOptions) {
	e.refetch = fetch
	e.retry = q.Retry
	e.staleTime = q.StaleTime
	e.refetchOnFocus = q.RefetchOnFocus
}

func (e *entry) snapshot(id string) Snapshot {
	return Snapshot{
		Key:         e.key,
		Data:        e.data,
		HasData:     e.hasData,
		Err:         e.err,
		Status:      e.status(),
		FetchedAt:   e.fetched,
		Invalidated: e.invalidated,
		Stale:       false,
		id:          id,
		seq:         e.landedSeq,
	}
}

// listeners returns a function delivering the current snapshot to every subscriber.
// It must be called with Cache.mu held and the result invoked after releasing it.
func (e *entry) listeners(id string) func() {
	if len(e.subscribers) == 0 {
		return func() {}
	}

	snap := e.snapshot(id)
	fns := make([]func(Snapshot), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		fns = append(fns, fn)
	}

	return func() {
		for _, fn := range fns {
			fn(snap)
		}
	}
}
