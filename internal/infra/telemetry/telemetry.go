package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics groups the Prometheus collectors instrumenting the
// licence store: write volume per operation, lost write races, and
// cache effectiveness.
type StoreMetrics struct {
	Writes      *prometheus.CounterVec
	Conflicts   *prometheus.CounterVec
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewStoreMetrics constructs and registers the store collectors with
// the provided registerer (DefaultRegisterer when nil).
func NewStoreMetrics(reg prometheus.Registerer) (*StoreMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ufsc",
		Subsystem: "licence_store",
		Name:      "writes_total",
		Help:      "Successful licence store writes partitioned by operation.",
	}, []string{"op"})

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ufsc",
		Subsystem: "licence_store",
		Name:      "version_conflicts_total",
		Help:      "Conditional writes rejected because the expected version no longer matched.",
	}, []string{"op"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ufsc",
		Subsystem: "licence_store",
		Name:      "cache_hits_total",
		Help:      "Licence reads served from the snapshot cache.",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ufsc",
		Subsystem: "licence_store",
		Name:      "cache_misses_total",
		Help:      "Licence reads that fell through to durable storage.",
	})

	m := &StoreMetrics{
		Writes:      writes,
		Conflicts:   conflicts,
		CacheHits:   cacheHits,
		CacheMisses: cacheMisses,
	}

	for _, collector := range []prometheus.Collector{writes, conflicts, cacheHits, cacheMisses} {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, fmt.Errorf("register store collector: %w", err)
		}
	}

	return m, nil
}

// RecordWrite counts one successful write for the given operation.
func (m *StoreMetrics) RecordWrite(op string) {
	if m == nil || m.Writes == nil {
		return
	}
	m.Writes.WithLabelValues(op).Inc()
}

// RecordConflict counts one lost write race for the given operation.
func (m *StoreMetrics) RecordConflict(op string) {
	if m == nil || m.Conflicts == nil {
		return
	}
	m.Conflicts.WithLabelValues(op).Inc()
}

// RecordCacheHit counts one read served from the cache.
func (m *StoreMetrics) RecordCacheHit() {
	if m == nil || m.CacheHits == nil {
		return
	}
	m.CacheHits.Inc()
}

// RecordCacheMiss counts one read that fell through to storage.
func (m *StoreMetrics) RecordCacheMiss() {
	if m == nil || m.CacheMisses == nil {
		return
	}
	m.CacheMisses.Inc()
}
