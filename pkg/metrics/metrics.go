package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)

	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "techstore",
		Name:      "orders_placed_total",
		Help:      "Orders committed by checkout",
	})

	CheckoutFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "techstore",
			Name:      "checkout_failures_total",
			Help:      "Checkouts rejected, by reason",
		},
		[]string{"reason"},
	)

	OutboxDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "techstore",
			Name:      "outbox_dispatched_total",
			Help:      "Outbox events published, by result",
		},
		[]string{"result"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
