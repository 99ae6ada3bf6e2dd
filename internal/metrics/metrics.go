package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	analysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetdesk",
			Name:      "conflict_analysis_total",
			Help:      "Count of conflict analyses by verdict.",
		},
		[]string{"verdict"},
	)

	orderCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetdesk",
			Name:      "order_created_total",
			Help:      "Count of orders created by outcome.",
		},
		[]string{"outcome"},
	)

	overrideTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetdesk",
			Name:      "override_total",
			Help:      "Count of override attempts by outcome.",
		},
		[]string{"outcome"},
	)

	confirmationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetdesk",
			Name:      "confirmation_total",
			Help:      "Count of confirmation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetdesk",
			Name:      "http_requests_total",
			Help:      "Count of API requests by handler and status.",
		},
		[]string{"handler", "status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(analysisTotal, orderCreated, overrideTotal, confirmationTotal, httpRequests)
	})
}

func IncAnalysis(verdict string) {
	analysisTotal.WithLabelValues(verdict).Inc()
}

func IncOrderCreated(outcome string) {
	orderCreated.WithLabelValues(outcome).Inc()
}

func IncOverride(outcome string) {
	overrideTotal.WithLabelValues(outcome).Inc()
}

func IncConfirmation(outcome string) {
	confirmationTotal.WithLabelValues(outcome).Inc()
}

func IncHTTPRequest(handler, status string) {
	httpRequests.WithLabelValues(handler, status).Inc()
}
