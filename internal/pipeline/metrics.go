package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics, registered on the default registry. The decompose
// command and the API server expose them on /metrics.
var (
	unitsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gaussdec_units_processed_total",
		Help: "Work units taken off the completion channel.",
	})
	spectraFitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gaussdec_spectra_fitted_total",
		Help: "Spectra fitted and normalized successfully.",
	})
	spectraSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gaussdec_spectra_skipped_total",
		Help: "Spectra dropped after per-unit errors.",
	})
	spectraFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gaussdec_spectra_filtered_total",
		Help: "Spectra masked out before fitting.",
	})
	componentsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gaussdec_components_persisted_total",
		Help: "Gaussian components appended to the store.",
	})
	storeFlushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gaussdec_store_flushes_total",
		Help: "Durable store flushes.",
	})
	fitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gaussdec_fit_duration_seconds",
		Help:    "Wall time spent fitting one spectrum.",
		Buckets: prometheus.DefBuckets,
	})
)
