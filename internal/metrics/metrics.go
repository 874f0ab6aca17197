// Package metrics defines the Prometheus collectors exported by apply-agent.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnswerLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_agent_answer_lookups_total",
			Help: "Answer cache lookups by field type and result (hit or miss)",
		},
		[]string{"field_type", "result"},
	)

	OracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_agent_oracle_calls_total",
			Help: "Calls to the answer oracle by operation and status",
		},
		[]string{"operation", "status"},
	)

	FieldsFilled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_agent_fields_filled_total",
			Help: "Form fields handled by variant",
		},
		[]string{"variant"},
	)

	Attachments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_agent_attachments_total",
			Help: "File upload controls handled by kind and source",
		},
		[]string{"kind", "source"},
	)

	Applications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_agent_applications_total",
			Help: "Application attempts by outcome",
		},
		[]string{"outcome"},
	)

	ApplicationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apply_agent_application_duration_seconds",
			Help:    "Duration of application attempts in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"outcome"},
	)

	Redirects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_agent_redirects_total",
			Help: "Off-topic redirects seen by the redirect guard, by result (recovered or failed)",
		},
		[]string{"result"},
	)

	StepsPerApplication = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apply_agent_steps_per_application",
			Help:    "Form steps advanced per application attempt",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
