package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IndexerMetrics collects the indexer binary's metrics on its own registry,
// served from the standalone metrics listener.
type IndexerMetrics struct {
	registry *prometheus.Registry

	reindexTotal    *prometheus.CounterVec
	reindexDuration *prometheus.HistogramVec
	reindexDocs     *prometheus.HistogramVec
}

func NewIndexerMetrics() *IndexerMetrics {
	registry := prometheus.NewRegistry()

	reindexTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bpe",
			Subsystem: "indexer",
			Name:      "reindex_total",
			Help:      "Total FAQ index rebuilds by status.",
		},
		[]string{"service", "status"},
	)
	reindexDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bpe",
			Subsystem: "indexer",
			Name:      "reindex_duration_seconds",
			Help:      "FAQ index rebuild duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	reindexDocs := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bpe",
			Subsystem: "indexer",
			Name:      "reindex_documents",
			Help:      "Documents written per index rebuild.",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service"},
	)

	registry.MustRegister(reindexTotal, reindexDuration, reindexDocs)

	return &IndexerMetrics{
		registry:        registry,
		reindexTotal:    reindexTotal,
		reindexDuration: reindexDuration,
		reindexDocs:     reindexDocs,
	}
}

func (m *IndexerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IndexerMetrics) RecordReindex(service, status string, docs int, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.reindexTotal.WithLabelValues(service, status).Inc()
	if status == "success" {
		m.reindexDuration.WithLabelValues(service).Observe(duration.Seconds())
		m.reindexDocs.WithLabelValues(service).Observe(float64(docs))
	}
}
