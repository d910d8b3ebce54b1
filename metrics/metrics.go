// Package metrics turns cache and mutation events into Prometheus counters and log lines.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/n-r-w/shopcache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopcache"

// Recorder implements shopcache.ILogger.
type Recorder struct {
	requests    *prometheus.CounterVec
	fetchErrors *prometheus.CounterVec
	mutations   *prometheus.CounterVec
	logger      *log.Logger
}

var _ shopcache.ILogger = (*Recorder)(nil)

// NewRecorder registers the counters with reg. logger may be nil to skip log output.
func NewRecorder(reg prometheus.Registerer, logger *log.Logger) (*Recorder, error) {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache reads by result (hit or miss)",
		}, []string{"cache", "result"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed fetch attempts, retries included",
		}, []string{"cache"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Executed mutations by outcome",
		}, []string{"cache", "mutation", "outcome"}),
		logger: logger,
	}

	for _, c := range []prometheus.Collector{r.requests, r.fetchErrors, r.mutations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// LogCacheHitRatio counts a cache hit or miss.
func (r *Recorder) LogCacheHitRatio(_ context.Context, name string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.requests.WithLabelValues(name, result).Inc()
}

// LogFetchError counts a failed fetch attempt and logs it.
func (r *Recorder) LogFetchError(_ context.Context, name string, key shopcache.Key, attempt int, err error) {
	r.fetchErrors.WithLabelValues(name).Inc()
	if r.logger != nil {
		r.logger.Printf("%s: fetch %s attempt %d: %v", name, key, attempt+1, err)
	}
}

// LogMutation counts a mutation by outcome and logs failures.
func (r *Recorder) LogMutation(_ context.Context, name, mutation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.mutations.WithLabelValues(name, mutation, outcome).Inc()
	if r.logger != nil && err != nil {
		r.logger.Printf("%s: %v", name, err)
	}
}

// Serve exposes g on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
