// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by route, method and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crash_http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	// HTTPDuration tracks request latency by route
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crash_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"route"})

	// StatsCacheHits counts stats requests answered from the result cache
	StatsCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crash_stats_cache_hits_total",
		Help: "Total stats requests served from cache",
	})

	// StatsCacheMisses counts stats requests that ran the engine
	StatsCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crash_stats_cache_misses_total",
		Help: "Total stats requests computed by the engine",
	})

	// StatsComputeDuration tracks engine ComputeStats latency
	StatsComputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crash_stats_compute_duration_seconds",
		Help:    "ComputeStats duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	// SnapshotReloads counts dataset reloads by result
	SnapshotReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crash_snapshot_reloads_total",
		Help: "Total dataset snapshot reloads by result",
	}, []string{"result"}) // "ok" or "error"

	// SnapshotVersion is the version of the snapshot being served
	SnapshotVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crash_snapshot_version",
		Help: "Version of the dataset snapshot currently served",
	})

	// DatasetRecords is the record count of the served snapshot
	DatasetRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "crash_dataset_records",
		Help: "Records in the served snapshot by kind",
	}, []string{"kind"}) // "crashes", "persons", "located"

	// ImportedRows counts rows written by the CSV importer
	ImportedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crash_import_rows_total",
		Help: "Rows processed by the CSV importer by outcome",
	}, []string{"outcome"}) // "imported" or "skipped"
)
