// Package metrics exposes Prometheus counters for fetches, scrapes, cache
// lookups and monitor checks.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the fetcher, registry, cache and monitor report to.
type Recorder interface {
	RecordFetchAttempt(host string, statusCode int)
	RecordScrape(store string, results int, duration time.Duration)
	RecordCacheLookup(hit bool)
	RecordCheck(outcome string)
}

type Collector struct {
	fetchAttempts *prometheus.CounterVec
	scrapeResults *prometheus.CounterVec
	scrapeLatency *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	checks        *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buywise_fetch_attempts_total",
			Help: "HTTP fetch attempts by host and status code (0 for transport errors).",
		}, []string{"host", "status_code"}),
		scrapeResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buywise_scrape_results_total",
			Help: "Records emitted by store scrapers.",
		}, []string{"store"}),
		scrapeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "buywise_scrape_duration_seconds",
			Help:    "Store search latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"store"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buywise_cache_lookups_total",
			Help: "Result cache lookups by outcome.",
		}, []string{"result"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buywise_monitor_checks_total",
			Help: "Watchlist checks by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.fetchAttempts,
		c.scrapeResults,
		c.scrapeLatency,
		c.cacheLookups,
		c.checks,
	)
	return c
}

func (c *Collector) RecordFetchAttempt(host string, statusCode int) {
	c.fetchAttempts.WithLabelValues(host, strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordScrape(store string, results int, duration time.Duration) {
	c.scrapeResults.WithLabelValues(store).Add(float64(results))
	c.scrapeLatency.WithLabelValues(store).Observe(duration.Seconds())
}

func (c *Collector) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

func (c *Collector) RecordCheck(outcome string) {
	c.checks.WithLabelValues(outcome).Inc()
}

// Handler serves the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type nop struct{}

func (nop) RecordFetchAttempt(string, int)          {}
func (nop) RecordScrape(string, int, time.Duration) {}
func (nop) RecordCacheLookup(bool)                  {}
func (nop) RecordCheck(string)                      {}

// Nop discards everything. Used when no collector is wired.
var Nop Recorder = nop{}
