package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	phaseTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalworkshop_phase_transitions_total",
			Help: "Total number of workshop phase transition attempts",
		},
		[]string{"from", "to", "outcome"},
	)

	activeSetSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "evalworkshop_active_set_size",
			Help: "Current size of a workshop's active trace set",
		},
		[]string{"workshop_id", "phase"},
	)

	tracesIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalworkshop_traces_ingested_total",
			Help: "Total number of traces ingested into workshops",
		},
		[]string{"workshop_id", "source"},
	)

	annotationsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalworkshop_annotations_submitted_total",
			Help: "Total number of annotations submitted",
		},
		[]string{"workshop_id"},
	)

	irrCalculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evalworkshop_irr_calculation_duration_seconds",
			Help:    "Inter-rater reliability calculation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"metric"},
	)

	workshopEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalworkshop_events_published_total",
			Help: "Total number of workshop events published to subscribers",
		},
		[]string{"type"},
	)
)

// RecordPhaseTransition records a phase transition attempt and its outcome
// ("applied", "noop", or "rejected").
func RecordPhaseTransition(from, to, outcome string) {
	phaseTransitionsTotal.WithLabelValues(from, to, outcome).Inc()
}

// SetActiveSetSize records the current active-set size for a workshop phase.
func SetActiveSetSize(workshopID, phase string, size int) {
	activeSetSize.WithLabelValues(workshopID, phase).Set(float64(size))
}

// RecordTracesIngested records traces added to a workshop pool.
func RecordTracesIngested(workshopID, source string, count int) {
	tracesIngestedTotal.WithLabelValues(workshopID, source).Add(float64(count))
}

// RecordAnnotationSubmitted records a submitted annotation.
func RecordAnnotationSubmitted(workshopID string) {
	annotationsSubmittedTotal.WithLabelValues(workshopID).Inc()
}

// ObserveIRRCalculation records the duration of an IRR calculation.
func ObserveIRRCalculation(metric string, d time.Duration) {
	irrCalculationDuration.WithLabelValues(metric).Observe(d.Seconds())
}

// RecordEventPublished records a workshop event published to SSE subscribers.
func RecordEventPublished(eventType string) {
	workshopEventsPublished.WithLabelValues(eventType).Inc()
}
