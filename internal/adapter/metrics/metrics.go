// Package metrics exposes checkout and HTTP metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/port"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var _ port.CheckoutObserver = (*Metrics)(nil)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	cartOperations  *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
	revenue         prometheus.Counter
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers checkout metrics and the Go runtime collectors in a new
// registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

func NewWithRegistry(
	reg prometheus.Registerer, gatherer prometheus.Gatherer,
) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		cartOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_cart_operations_total",
				Help: "Total number of cart operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		checkouts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_checkouts_total",
				Help: "Total number of checkout attempts by outcome",
			},
			[]string{"outcome"},
		),
		revenue: f.NewCounter(
			prometheus.CounterOpts{
				Name: "checkout_settled_amount_total",
				Help: "Sum of settled checkout totals",
			},
		),
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "checkout_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case domain.IsBusinessError(err):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

func (m *Metrics) ObserveCartOperation(operation string, err error) {
	m.cartOperations.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) ObserveCheckout(total decimal.Decimal, err error) {
	m.checkouts.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.revenue.Add(total.InexactFloat64())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		m.requests.WithLabelValues(
			r.Method, route, strconv.Itoa(sw.status),
		).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).
			Observe(time.Since(start).Seconds())
	})
}
