package shopcache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Cache is a keyed cache of asynchronous read results.
// Concurrent reads of the same key share one fetch; stale data is served while it is revalidated.
// A Cache is created once per application and passed to everything that reads through it.
type Cache struct {
	op options

	entries *lru.Cache[string, *entry]
	group   singleflight.Group

	mu       sync.Mutex
	flightID uint64
	subID    uint64
	closed   bool
	done     chan struct{}

	// flights counts every reader slot handed out by startLocked.
	flights sync.WaitGroup
}

var _ IQueryCache = (*Cache)(nil)

// Fetcher loads the value of a key, usually with one HTTP call.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Result is the typed view of a cache entry returned to readers.
type Result[T any] struct {
	Data      T
	HasData   bool
	Err       error
	Status    Status
	IsLoading bool
	IsStale   bool
	FetchedAt time.Time
}

// New creates a new instance of Cache.
// maxEntries bounds the number of keys; the least recently read key is dropped first.
func New(maxEntries int, opts ...Option) (*Cache, error) {
	if maxEntries <= 0 {
		return nil, ErrInvalidCacheSize
	}

	entries, err := lru.New[string, *entry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create entry table: %w", err)
	}

	c := &Cache{ //nolint:exhaustruct // zero values are ready to use
		op:      defaultOptions(),
		entries: entries,
		done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(&c.op)
	}

	return c, nil
}

// Read returns the entry for key, fetching it when there is no usable value.
//
// A missing, failed or invalidated entry is fetched and Read waits for the outcome.
// Concurrent readers of a loading key attach to the same fetch.
// Fresh data is returned as is; stale data is returned at once and revalidated in the background.
// If ctx is done before the fetch completes, Read returns the current state with ctx.Err();
// the fetch itself still completes and is stored.
func Read[T any](ctx context.Context, c *Cache, key Key, fetch Fetcher[T], opts ...QueryOption) Result[T] {
	snap, err := c.query(ctx, key, erase(fetch), opts, true)

	return resultOf[T](c, snap, err)
}

// Prefetch makes the same decision as Read but never waits.
// The returned result reports IsLoading when a fetch was started or joined.
func Prefetch[T any](ctx context.Context, c *Cache, key Key, fetch Fetcher[T], opts ...QueryOption) Result[T] {
	snap, err := c.query(ctx, key, erase(fetch), opts, false)

	return resultOf[T](c, snap, err)
}

// Peek returns the current state of key without fetching.
func Peek[T any](c *Cache, key Key) Result[T] {
	snap, err := c.peek(key)

	return resultOf[T](c, snap, err)
}

// Invalidate marks key stale. It does not fetch; the next read of key does.
func (c *Cache) Invalidate(key Key) error {
	id, _, err := key.encode()
	if err != nil {
		return err
	}

	notify := func() {}

	c.mu.Lock()
	if e, ok := c.entries.Peek(id); ok {
		notify = c.invalidateLocked(id, e)
	}
	c.mu.Unlock()

	notify()

	return nil
}

// InvalidatePrefix marks stale every key starting with prefix and returns how many were marked.
func (c *Cache) InvalidatePrefix(prefix Key) (int, error) {
	_, parts, err := prefix.encode()
	if err != nil {
		return 0, err
	}

	var notify []func()

	c.mu.Lock()
	for _, id := range c.entries.Keys() {
		e, ok := c.entries.Peek(id)
		if !ok || !hasPartsPrefix(e.parts, parts) {
			continue
		}
		notify = append(notify, c.invalidateLocked(id, e))
	}
	c.mu.Unlock()

	for _, fn := range notify {
		fn()
	}

	return len(notify), nil
}

// Remove drops key from the cache. A fetch in flight for it completes but is not stored.
func (c *Cache) Remove(key Key) bool {
	id, _, err := key.encode()
	if err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.Remove(id)
}

// Subscribe calls fn after every state change of key until unsubscribe is called.
// fn runs on the goroutine that changed the state and must not block.
func (c *Cache) Subscribe(key Key, fn func(Snapshot)) (func(), error) {
	id, parts, err := key.encode()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCacheClosed
	}

	e := c.lookupLocked(id, key, parts)
	if e.subscribers == nil {
		e.subscribers = make(map[uint64]func(Snapshot))
	}

	c.subID++
	sid := c.subID
	e.subscribers[sid] = fn

	return func() {
		c.mu.Lock()
		delete(e.subscribers, sid)
		c.mu.Unlock()
	}, nil
}

// Focus is called when the application regains focus.
// Every settled entry whose last read enabled RefetchOnFocus and whose data is stale is refetched.
// Focus waits for those fetches and returns the first failure.
func (c *Cache) Focus(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return ErrCacheClosed
	}

	now := c.op.now()

	var flights []<-chan singleflight.Result
	for _, id := range c.entries.Keys() {
		e, ok := c.entries.Peek(id)
		if !ok || e.refetch == nil || !e.refetchOnFocus || e.inflight > 0 || e.settled == StatusIdle {
			continue
		}
		if !e.invalidated && !e.isStale(now) {
			continue
		}
		flights = append(flights, c.startLocked(ctx, e))
	}
	c.mu.Unlock()

	var g errgroup.Group
	for _, ch := range flights {
		g.Go(func() error {
			res, err := c.wait(ctx, ch)
			if err != nil {
				return err
			}

			return res.Err
		})
	}

	return g.Wait()
}

// Len returns the number of keys in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.Len()
}

// Close rejects further reads and waits for fetches in flight.
// Pending retry delays are cut short.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.flights.Wait()
}

func (c *Cache) query(ctx context.Context, key Key, fetch fetchFunc, opts []QueryOption, wait bool) (Snapshot, error) {
	q := c.op.defaults
	for _, opt := range opts {
		opt(&q)
	}

	id, parts, err := key.encode()
	if err != nil {
		return Snapshot{Key: key}, err //nolint:exhaustruct // invalid key has no state
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return Snapshot{Key: key}, ErrCacheClosed //nolint:exhaustruct // closed cache has no state
	}

	if !q.Enabled || fetch == nil {
		// disabled reads neither create entries nor touch recency
		snap := Snapshot{Key: key, Status: StatusIdle} //nolint:exhaustruct // unknown key
		if e, ok := c.entries.Peek(id); ok {
			snap = e.snapshot(id)
		}
		c.mu.Unlock()

		return snap, nil
	}

	e := c.lookupLocked(id, key, parts)
	e.remember(fetch, q)

	if e.needsFetch() {
		ch := c.startLocked(ctx, e)
		snap := e.snapshot(id)
		c.mu.Unlock()

		c.logHit(ctx, false)

		if !wait {
			go c.release(ch)
			snap.Status = StatusLoading

			return snap, nil
		}

		_, err := c.wait(ctx, ch)

		return c.current(id, e), err
	}

	stale := e.isStale(c.op.now())
	if stale && e.inflight == 0 {
		go c.release(c.startLocked(ctx, e))
	}

	snap := e.snapshot(id)
	snap.Stale = stale
	c.mu.Unlock()

	c.logHit(ctx, true)

	return snap, nil
}

func (c *Cache) peek(key Key) (Snapshot, error) {
	id, _, err := key.encode()
	if err != nil {
		return Snapshot{Key: key}, err //nolint:exhaustruct // invalid key has no state
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Peek(id)
	if !ok {
		return Snapshot{Key: key, Status: StatusIdle}, nil //nolint:exhaustruct // unknown key
	}

	return e.snapshot(id), nil
}

func (c *Cache) current(id string, e *entry) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return e.snapshot(id)
}

// lookupLocked returns the entry for id, creating an idle one if needed.
func (c *Cache) lookupLocked(id string, key Key, parts []string) *entry {
	if e, ok := c.entries.Get(id); ok {
		return e
	}

	e := &entry{ //nolint:exhaustruct // idle entry
		id:      id,
		key:     NewKey(key...),
		parts:   parts,
		settled: StatusIdle,
	}
	c.entries.Add(id, e)

	return e
}

func (c *Cache) invalidateLocked(id string, e *entry) func() {
	e.flight = 0
	e.invalidated = true

	return e.listeners(id)
}

// startLocked starts a new fetch for e, or joins the running one.
// Every returned channel must be drained by wait or release.
func (c *Cache) startLocked(ctx context.Context, e *entry) <-chan singleflight.Result {
	c.flights.Add(1)

	if e.flight != 0 {
		return c.group.DoChan(flightKey(e.flight), joinOnly)
	}

	c.flightID++
	flight := c.flightID
	e.flight = flight
	e.inflight++
	e.startedSeq++
	e.invalidated = false

	seq := e.startedSeq
	fetch, retry := e.refetch, e.retry
	fctx := context.WithoutCancel(ctx)
	notify := e.listeners(e.id)

	return c.group.DoChan(flightKey(flight), func() (any, error) {
		notify()
		data, err := c.fetch(fctx, e.key, fetch, retry)
		c.settle(e, flight, seq, data, err)

		return nil, err
	})
}

// joinOnly is passed when attaching to a running flight; singleflight never calls it then.
func joinOnly() (any, error) { return nil, nil }

func flightKey(flight uint64) string {
	return strconv.FormatUint(flight, 10)
}

// settle applies a fetch outcome unless a fetch started later has already landed.
func (c *Cache) settle(e *entry, flight, seq uint64, data any, err error) {
	c.mu.Lock()
	e.inflight--
	if e.flight == flight {
		e.flight = 0
	}
	if seq > e.landedSeq {
		e.landedSeq = seq
		if err != nil {
			e.err = err
			e.settled = StatusError
		} else {
			e.data = data
			e.hasData = true
			e.hydrated = false
			e.err = nil
			e.settled = StatusSuccess
			e.fetched = c.op.now()
		}
	}
	notify := e.listeners(e.id)
	c.mu.Unlock()

	notify()
}

func (c *Cache) fetch(ctx context.Context, key Key, fetch fetchFunc, retry int) (any, error) {
	for attempt := 0; ; attempt++ {
		data, err := callFetcher(ctx, fetch)
		if err == nil {
			return data, nil
		}

		if c.op.logger != nil {
			c.op.logger.LogFetchError(ctx, c.op.name, key, attempt, err)
		}

		if attempt >= retry || !c.op.retryable(err) {
			return nil, err
		}

		timer := time.NewTimer(c.op.retryDelay(attempt))
		select {
		case <-timer.C:
		case <-c.done:
			timer.Stop()

			return nil, err
		}
	}
}

func callFetcher(ctx context.Context, fetch fetchFunc) (data any, err error) { //nolint:nonamedreturns // recover
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetcher panicked: %v", r)
		}
	}()

	return fetch(ctx)
}

// wait blocks until the flight delivers or ctx is done. The flight slot is released either way.
func (c *Cache) wait(ctx context.Context, ch <-chan singleflight.Result) (singleflight.Result, error) {
	select {
	case res := <-ch:
		c.flights.Done()

		return res, nil
	case <-ctx.Done():
		go c.release(ch)

		return singleflight.Result{}, ctx.Err() //nolint:exhaustruct // no result
	}
}

func (c *Cache) release(ch <-chan singleflight.Result) {
	<-ch
	c.flights.Done()
}

func (c *Cache) logHit(ctx context.Context, hit bool) {
	if c.op.logger != nil {
		c.op.logger.LogCacheHitRatio(ctx, c.op.name, hit)
	}
}

// storeDecoded replaces hydrated raw JSON with its decoded form so it is decoded only once.
func (c *Cache) storeDecoded(snap Snapshot, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries.Peek(snap.id); ok && e.hydrated && e.landedSeq == snap.seq {
		e.data = v
		e.hydrated = false
	}
}

func erase[T any](fetch Fetcher[T]) fetchFunc {
	if fetch == nil {
		return nil
	}

	return func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		return v, nil
	}
}

func resultOf[T any](c *Cache, snap Snapshot, err error) Result[T] {
	res := Result[T]{ //nolint:exhaustruct // data is set below
		Err:       snap.Err,
		Status:    snap.Status,
		IsLoading: snap.Status == StatusLoading,
		IsStale:   snap.Stale,
		FetchedAt: snap.FetchedAt,
	}
	if err != nil {
		res.Err = err
	}

	if !snap.HasData {
		return res
	}

	if v, ok := snap.Data.(T); ok {
		res.Data, res.HasData = v, true

		return res
	}

	raw, ok := snap.Data.(json.RawMessage)
	if !ok {
		var zero T
		res.Err = fmt.Errorf("%w: have %T, want %T", ErrTypeMismatch, snap.Data, zero)

		return res
	}

	var decoded T
	if derr := json.Unmarshal(raw, &decoded); derr != nil {
		res.Err = fmt.Errorf("%w: %w", ErrTypeMismatch, derr)

		return res
	}

	c.storeDecoded(snap, decoded)
	res.Data, res.HasData = decoded, true

	return res
}
