// Package observability holds the service's Prometheus metrics and the
// OpenTelemetry tracing setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics handles application metrics and monitoring
type Metrics struct {
	SavesTotal       *prometheus.CounterVec
	SaveDuration     *prometheus.HistogramVec
	PayloadMarkups   prometheus.Histogram
	ConverterErrors  *prometheus.CounterVec
	ReloadFallbacks  prometheus.Counter
	MarkupsLive      prometheus.Gauge
	DetectionsTotal  prometheus.Counter
	UploadedBytes    prometheus.Counter
}

// NewMetrics registers the service metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SavesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "markup_saves_total",
			Help: "Save calls by mode (inplace/download) and outcome (ok/noop/error/busy).",
		}, []string{"mode", "outcome"}),
		SaveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "markup_save_duration_seconds",
			Help:    "End-to-end save round-trip duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		PayloadMarkups: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "markup_save_payload_markups",
			Help:    "Number of markups transmitted per save.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),
		ConverterErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "markup_converter_errors_total",
			Help: "Converter request failures by kind (request/corrupt/upload).",
		}, []string{"kind"}),
		ReloadFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "markup_reload_fallbacks_total",
			Help: "Times the markup-preserving reload fell back to a full reparse.",
		}),
		MarkupsLive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "markup_store_markups",
			Help: "Markups currently held in the store.",
		}),
		DetectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "markup_detections_total",
			Help: "Detections converted into markups.",
		}),
		UploadedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "markup_uploaded_bytes_total",
			Help: "Bytes uploaded to the converter backend.",
		}),
	}
}

// ObserveSave records one save call.
func (m *Metrics) ObserveSave(mode, outcome string, start time.Time, payloadSize int) {
	m.SavesTotal.WithLabelValues(mode, outcome).Inc()
	m.SaveDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if outcome == "ok" {
		m.PayloadMarkups.Observe(float64(payloadSize))
	}
}
