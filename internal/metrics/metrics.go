package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исходы определения диалекта.
const (
	OutcomeOK        = "ok"
	OutcomeCharset   = "charset"
	OutcomeSeparator = "separator"
	OutcomeHeader    = "header"
	OutcomeError     = "error"
)

// Metrics: коллекторы Prometheus сервиса. С nil *Metrics можно работать,
// он ничего не пишет.
type Metrics struct {
	Rows       *prometheus.CounterVec
	Detections *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csvsniff_rows_total",
		Help: "Data rows read, by source format",
	}, []string{"source"})

	detections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csvsniff_detections_total",
		Help: "Dialect detections, by outcome",
	}, []string{"outcome"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "csvsniff_request_duration_seconds",
		Help:    "Time spent serving a request",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	reg.MustRegister(rows, detections, duration)

	return &Metrics{
		Rows:       rows,
		Detections: detections,
		Duration:   duration,
	}
}

func (m *Metrics) AddRows(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Rows.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) Detection(outcome string) {
	if m == nil {
		return
	}
	m.Detections.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSince(endpoint string, start time.Time) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// Handler отдаёт метрики в текстовом формате Prometheus.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
