package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	prometheus.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// CheckoutMetrics counts checkout-engine outcomes: order submissions,
// payment callbacks by kind and shipping quotes by policy.
type CheckoutMetrics struct {
	Submissions    *prometheus.CounterVec
	PaymentEvents  *prometheus.CounterVec
	ShippingQuotes *prometheus.CounterVec
	QuoteLatencyMS *prometheus.HistogramVec
}

func NewCheckoutMetrics(service string) *CheckoutMetrics {
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "order_submissions_total",
		Help:      "Order submissions by outcome.",
	}, []string{"outcome"})
	paymentEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "payment_events_total",
		Help:      "Payment widget callbacks by kind and disposition.",
	}, []string{"kind", "disposition"})
	shippingQuotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "shipping_quotes_total",
		Help:      "Shipping quotes by policy and status.",
	}, []string{"policy", "status"})
	quoteLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "shipping_quote_duration_ms",
		Help:      "Shipping quote latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"policy"})

	prometheus.MustRegister(submissions, paymentEvents, shippingQuotes, quoteLatency)
	return &CheckoutMetrics{
		Submissions:    submissions,
		PaymentEvents:  paymentEvents,
		ShippingQuotes: shippingQuotes,
		QuoteLatencyMS: quoteLatency,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
