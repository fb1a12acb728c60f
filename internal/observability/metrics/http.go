package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics collects the api binary's metrics on a private registry,
// exposed on /metrics of the same listener.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	answersTotal     *prometheus.CounterVec
	answerConfidence *prometheus.HistogramVec
	answerCandidates *prometheus.HistogramVec
	answerDuration   *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bpe",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bpe",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bpe",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	answersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bpe",
			Subsystem: "chatbot",
			Name:      "answers_total",
			Help:      "Total chatbot answers by endpoint and resolution mode.",
		},
		[]string{"service", "endpoint", "mode"},
	)
	answerConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bpe",
			Subsystem: "chatbot",
			Name:      "answer_confidence",
			Help:      "Distribution of reported answer confidence.",
			Buckets:   []float64{0, 0.1, 0.2, 0.4, 0.6, 0.8, 1, 1.5, 2},
		},
		[]string{"service", "endpoint"},
	)
	answerCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bpe",
			Subsystem: "chatbot",
			Name:      "answer_sources",
			Help:      "Distribution of surfaced sources per answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		},
		[]string{"service", "endpoint"},
	)
	answerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bpe",
			Subsystem: "chatbot",
			Name:      "answer_duration_seconds",
			Help:      "Answer resolution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		answersTotal,
		answerConfidence,
		answerCandidates,
		answerDuration,
	)

	return &HTTPServerMetrics{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		answersTotal:     answersTotal,
		answerConfidence: answerConfidence,
		answerCandidates: answerCandidates,
		answerDuration:   answerDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// RecordAnswer observes one resolved chatbot answer.
func (m *HTTPServerMetrics) RecordAnswer(service, endpoint, mode string, confidence float64, sources int, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.answersTotal.WithLabelValues(service, endpoint, mode).Inc()
	m.answerConfidence.WithLabelValues(service, endpoint).Observe(confidence)
	m.answerCandidates.WithLabelValues(service, endpoint).Observe(float64(sources))
	m.answerDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
