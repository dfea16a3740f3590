package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the market collectors; served at /metrics.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "market",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "market",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "market",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders created, split by whether an idempotent replay returned an existing order.",
		},
		[]string{"replayed"},
	)

	CheckoutSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "market",
			Subsystem: "payments",
			Name:      "checkout_sessions_total",
			Help:      "Checkout sessions requested from the payment processor.",
		},
		[]string{"result"},
	)

	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "market",
			Subsystem: "payments",
			Name:      "webhook_events_total",
			Help:      "Payment webhook deliveries by event type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	DownloadLinks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "market",
			Subsystem: "fulfillment",
			Name:      "download_links_total",
			Help:      "Download link requests by result.",
		},
		[]string{"result"},
	)

	LedgerCredits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "market",
			Subsystem: "ledger",
			Name:      "credits_total",
			Help:      "Seller ledger credits applied from paid orders.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		OrdersCreated,
		CheckoutSessions,
		WebhookEvents,
		DownloadLinks,
		LedgerCredits,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Instrument records request counts and latency labelled by the chi route pattern,
// so /orders/{id} stays one series regardless of the id.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
