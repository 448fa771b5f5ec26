package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Medium responses around 700ms (500ms - 2s) ---
	750, 1000, 1250, 1500, 1750, 2000,

	// --- Slow responses (2s - 15s) ---
	2500, 3000, 4000, 5000, 7500, 10000, 15000,

	// --- Extended range: covers 60000ms+ (15s - 75s) ---
	20000,  // 20s
	30000,  // 30s
	45000,  // 45s
	60000,  // 60s
	75000,  // 75s
	90000,  // 90s
	120000, // 120s
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "gauge_vec":
		metric = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "gauge":
		metric = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
				Buckets:   HistogramBuckets,
			},
			m.Args,
		)
	case "histogram":
		metric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
				Buckets:   HistogramBuckets,
			},
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "summary":
		metric = prometheus.NewSummary(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	}
	return metric
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

var MetricsWebhookEvents = &Metric{
	ID:          "webhookEvents",
	Name:        "webhook_events_total",
	Description: "Webhook deliveries partitioned by provider, event type and result.",
	Type:        "counter_vec",
	Args:        []string{"provider", "type", "result"},
}

var MetricsCheckoutSessions = &Metric{
	ID:          "checkoutSessions",
	Name:        "checkout_sessions_total",
	Description: "Checkout session attempts partitioned by kind and result.",
	Type:        "counter_vec",
	Args:        []string{"kind", "result"},
}

var MetricsRateLimitRejections = &Metric{
	ID:          "rateLimitRejections",
	Name:        "rate_limit_rejections_total",
	Description: "Requests rejected by the sliding window limiter.",
	Type:        "counter_vec",
	Args:        []string{"action"},
}

// BusinessMetrics are registered alongside the HTTP metrics.
var BusinessMetrics = []*Metric{
	MetricsBusinessProcess,
	MetricsWebhookEvents,
	MetricsCheckoutSessions,
	MetricsRateLimitRejections,
}

// IncCounter increments a registered counter_vec. Unregistered metrics are ignored
// so services stay usable when the metrics listener is disabled.
func IncCounter(m *Metric, labels ...string) {
	if m == nil || m.MetricCollector == nil {
		return
	}
	if c, ok := m.MetricCollector.(*prometheus.CounterVec); ok {
		c.WithLabelValues(labels...).Inc()
	}
}

// ObserveSince records elapsed milliseconds on a registered histogram_vec.
func ObserveSince(m *Metric, start time.Time, labels ...string) {
	if m == nil || m.MetricCollector == nil {
		return
	}
	if h, ok := m.MetricCollector.(*prometheus.HistogramVec); ok {
		h.WithLabelValues(labels...).Observe(MillisecondsSince(start))
	}
}

// MillisecondsSince returns the fractional milliseconds elapsed since t.
func MillisecondsSince(t time.Time) float64 {
	return float64(time.Since(t)) / float64(time.Millisecond)
}
