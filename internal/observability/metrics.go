package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of recommendation service requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Recommendation service request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_generations_total",
			Help: "Total number of career plan generations by outcome",
		},
		[]string{"outcome"},
	)
	GenerationsShared = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plan_generations_shared_total",
			Help: "Generation requests that joined an in-flight generation for the same assessment",
		},
	)

	RendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_renders_total",
			Help: "Total number of report renders by outcome",
		},
		[]string{"outcome"},
	)
	RenderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_render_duration_seconds",
			Help:    "Report render duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// Distribution of fit scores across generated plans.
	RoleFitScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plan_role_fit_score",
			Help:    "Distribution of recommended role fit scores (normalized fraction [0,1])",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)
)

// InitMetrics registers all Prometheus collectors once per process.
func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(GenerationsTotal)
	prometheus.MustRegister(GenerationsShared)
	prometheus.MustRegister(RendersTotal)
	prometheus.MustRegister(RenderDuration)
	prometheus.MustRegister(RoleFitScoreHistogram)
}

// ObservePlan records fit score distributions from a freshly generated plan.
func ObservePlan(fitScores []float64) {
	for _, s := range fitScores {
		if s >= 0 && s <= 1 {
			RoleFitScoreHistogram.Observe(s)
		}
	}
}
