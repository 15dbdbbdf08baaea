// Package prometheus exports SyncLRU statistics as Prometheus metrics.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/llxisdsh/hashlink"
)

// StatsSource is anything that reports cache statistics, such as
// *hashlink.SyncLRU.
type StatsSource interface {
	Stats() hashlink.Stats
}

// cacheCollector reads a StatsSource on every scrape.
type cacheCollector struct {
	src StatsSource

	hits       *prometheus.Desc
	misses     *prometheus.Desc
	loads      *prometheus.Desc
	loadErrors *prometheus.Desc
	evictions  *prometheus.Desc
	entries    *prometheus.Desc
	capacity   *prometheus.Desc
}

// NewCollector creates a collector for src. Every metric carries a "cache"
// label set to name, so several caches can share one registry.
func NewCollector(name string, src StatsSource) prometheus.Collector {
	labels := prometheus.Labels{"cache": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName("hashlink", "lru", metric),
			help, nil, labels,
		)
	}
	return &cacheCollector{
		src:        src,
		hits:       desc("hits_total", "Total number of cache hits"),
		misses:     desc("misses_total", "Total number of cache misses"),
		loads:      desc("loads_total", "Total number of loader calls"),
		loadErrors: desc("load_errors_total", "Total number of loader calls that failed"),
		evictions:  desc("evictions_total", "Total number of entries evicted by capacity"),
		entries:    desc("entries", "Current number of cached entries"),
		capacity:   desc("capacity", "Maximum number of cached entries"),
	}
}

// MustRegister creates a collector for src and registers it with reg.
func MustRegister(reg prometheus.Registerer, name string, src StatsSource) prometheus.Collector {
	c := NewCollector(name, src)
	reg.MustRegister(c)
	return c
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.loads
	ch <- c.loadErrors
	ch <- c.evictions
	ch <- c.entries
	ch <- c.capacity
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v))
	}
	counter(c.hits, s.Hits)
	counter(c.misses, s.Misses)
	counter(c.loads, s.Loads)
	counter(c.loadErrors, s.LoadErrors)
	counter(c.evictions, s.Evictions)
	gauge(c.entries, s.Len)
	gauge(c.capacity, s.Capacity)
}

var _ prometheus.Collector = (*cacheCollector)(nil)
