// Package metrics exposes Prometheus instrumentation for identifier runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultChanged = "changed"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Recorder holds the collectors. A nil *Recorder records nothing.
type Recorder struct {
	bulkDocuments *prometheus.CounterVec
	bulkDuration  *prometheus.HistogramVec
	assigns       *prometheus.CounterVec
}

// New creates a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		bulkDocuments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultid",
			Name:      "bulk_documents_total",
			Help:      "Documents processed by bulk runs, by scheme, operation and result.",
		}, []string{"scheme", "operation", "result"}),
		bulkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vaultid",
			Name:      "bulk_duration_seconds",
			Help:      "Wall time of bulk runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"scheme", "operation"}),
		assigns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultid",
			Name:      "assign_total",
			Help:      "Single-note assignments, by scheme and result.",
		}, []string{"scheme", "result"}),
	}
	reg.MustRegister(r.bulkDocuments, r.bulkDuration, r.assigns)
	return r
}

// BulkDocument counts one document of a bulk run.
func (r *Recorder) BulkDocument(scheme, operation, result string) {
	if r == nil {
		return
	}
	r.bulkDocuments.WithLabelValues(scheme, operation, result).Inc()
}

// BulkDuration observes the duration of a finished run.
func (r *Recorder) BulkDuration(scheme, operation string, d time.Duration) {
	if r == nil {
		return
	}
	r.bulkDuration.WithLabelValues(scheme, operation).Observe(d.Seconds())
}

// Assign counts one single-note assignment.
func (r *Recorder) Assign(scheme, result string) {
	if r == nil {
		return
	}
	r.assigns.WithLabelValues(scheme, result).Inc()
}
