// Package metrics exports loop events as Prometheus metrics.
//
// Example usage:
//
//	reg := prometheus.NewRegistry()
//	obs := metrics.New(metrics.Options{Registerer: reg})
//	srv := engine.New(engine.Config{Observer: obs, ...}, handler)
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yourusername/relay/pkg/relay/http11"
	"github.com/yourusername/relay/pkg/relay/loop"
)

// Options configures metric names and registration.
type Options struct {
	// Namespace prefixes every metric name.
	// Default: "relay"
	Namespace string

	// Subsystem is the second name component.
	// Default: "http"
	Subsystem string

	// Registerer receives the metrics. nil registers on
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Collector implements loop.Observer. Safe for concurrent use by all loops.
type Collector struct {
	connsOpen     prometheus.Gauge
	connsTotal    prometheus.Counter
	requests      *prometheus.CounterVec
	headerBytes   prometheus.Histogram
	responseBytes prometheus.Counter
	parseErrors   *prometheus.CounterVec
	backpressure  prometheus.Counter
	timeouts      prometheus.Counter
	corkFlushes   prometheus.Counter
	corkBytes     prometheus.Counter
}

var _ loop.Observer = (*Collector)(nil)

// New creates and registers a Collector. It panics if the metrics are
// already registered on the same Registerer, as promauto does.
func New(opts Options) *Collector {
	if opts.Namespace == "" {
		opts.Namespace = "relay"
	}
	if opts.Subsystem == "" {
		opts.Subsystem = "http"
	}
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	ns, sub := opts.Namespace, opts.Subsystem

	return &Collector{
		connsOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "connections_open",
			Help:      "Number of currently open connections",
		}),
		connsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "connections_total",
			Help:      "Total number of accepted connections",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "requests_total",
			Help:      "Total number of completed responses by status class",
		}, []string{"code"}),
		headerBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "request_header_bytes",
			Help:      "Size of the request line and header block",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 9), // 64B .. 16KB
		}),
		responseBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "response_body_bytes_total",
			Help:      "Total response body bytes handed to connections",
		}),
		parseErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "parse_errors_total",
			Help:      "Total number of rejected requests by error kind",
		}, []string{"kind"}),
		backpressure: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "backpressure_total",
			Help:      "Total number of writes that would block",
		}),
		timeouts: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "idle_timeouts_total",
			Help:      "Total number of connections closed by the idle timeout",
		}),
		corkFlushes: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "cork_flushes_total",
			Help:      "Total number of cork buffer flushes",
		}),
		corkBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "cork_flushed_bytes_total",
			Help:      "Total bytes written by cork buffer flushes",
		}),
	}
}

func (c *Collector) ConnOpened() {
	c.connsOpen.Inc()
	c.connsTotal.Inc()
}

func (c *Collector) ConnClosed() {
	c.connsOpen.Dec()
}

func (c *Collector) RequestServed(status, headerBytes int, bodyBytes int64) {
	c.requests.WithLabelValues(statusClass(status)).Inc()
	c.headerBytes.Observe(float64(headerBytes))
	c.responseBytes.Add(float64(bodyBytes))
}

func (c *Collector) ParseError(err error) {
	c.parseErrors.WithLabelValues(errorKind(err)).Inc()
}

func (c *Collector) Backpressure() {
	c.backpressure.Inc()
}

func (c *Collector) TimedOut() {
	c.timeouts.Inc()
}

func (c *Collector) CorkFlushes(count, bytes uint64) {
	c.corkFlushes.Add(float64(count))
	c.corkBytes.Add(float64(bytes))
}

var statusClasses = [...]string{"1xx", "2xx", "3xx", "4xx", "5xx"}

// statusClass keeps the label set bounded.
func statusClass(code int) string {
	if code >= 100 && code < 600 {
		return statusClasses[code/100-1]
	}
	return "other"
}

// errorKind maps a request error to a fixed label value. More specific
// sentinels are checked first since they also match ErrMalformed.
func errorKind(err error) string {
	switch {
	case errors.Is(err, http11.ErrHeaderOverflow):
		return "header_overflow"
	case errors.Is(err, http11.ErrHeaderTooLarge):
		return "header_too_large"
	case errors.Is(err, http11.ErrBodyTooLarge):
		return "body_too_large"
	case errors.Is(err, http11.ErrUnsupportedTransferEncoding):
		return "unsupported_transfer_encoding"
	case errors.Is(err, http11.ErrChunkedEncoding):
		return "chunked_encoding"
	case errors.Is(err, http11.ErrInvalidContentLength),
		errors.Is(err, http11.ErrContentLengthWithTransferEncoding):
		return "framing"
	case errors.Is(err, http11.ErrMalformed):
		return "malformed"
	default:
		return "other"
	}
}
