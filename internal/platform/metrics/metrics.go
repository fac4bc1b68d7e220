// Package metrics exposes Prometheus collectors for the upload pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spx_backend/internal/feature/series/domain/entity"
	"spx_backend/internal/feature/series/usecase"
)

// Metrics holds the upload pipeline collectors.
type Metrics struct {
	UploadsTotal   *prometheus.CounterVec   // labels: kind, result
	RowsSkipped    *prometheus.CounterVec   // labels: kind
	RecordsStored  *prometheus.GaugeVec     // labels: kind
	UploadDuration *prometheus.HistogramVec // labels: kind

	gatherer prometheus.Gatherer
}

var _ usecase.UploadMetrics = (*Metrics)(nil)

// New creates the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "series_uploads_total",
			Help: "Total CSV uploads by kind and result",
		}, []string{"kind", "result"}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "series_rows_skipped_total",
			Help: "Rows dropped during normalization",
		}, []string{"kind"}),
		RecordsStored: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "series_records_stored",
			Help: "Records in the collection after the last successful upload",
		}, []string{"kind"}),
		UploadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "series_upload_duration_seconds",
			Help:    "Time from parsed rows to stored collection",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"kind"}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.UploadsTotal,
		m.RowsSkipped,
		m.RecordsStored,
		m.UploadDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveUpload records a successful upload.
func (m *Metrics) ObserveUpload(kind entity.Kind, processed, skipped int, elapsed time.Duration) {
	k := string(kind)
	m.UploadsTotal.WithLabelValues(k, "success").Inc()
	m.RowsSkipped.WithLabelValues(k).Add(float64(skipped))
	m.RecordsStored.WithLabelValues(k).Set(float64(processed))
	m.UploadDuration.WithLabelValues(k).Observe(elapsed.Seconds())
}

// ObserveFailure records a rejected or failed upload under its reason.
func (m *Metrics) ObserveFailure(kind entity.Kind, reason string) {
	m.UploadsTotal.WithLabelValues(string(kind), reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
