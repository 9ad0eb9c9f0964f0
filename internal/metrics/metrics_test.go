package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Rows(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.AddRows("csv", 10)
	m.AddRows("csv", 5)
	m.AddRows("xlsx", 0)

	require.Equal(t, float64(15), testutil.ToFloat64(m.Rows.WithLabelValues("csv")))
	require.Equal(t, 1, testutil.CollectAndCount(m.Rows))
}

func TestMetrics_Detections(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Detection(OutcomeOK)
	m.Detection(OutcomeOK)
	m.Detection(OutcomeHeader)

	require.Equal(t, float64(2), testutil.ToFloat64(m.Detections.WithLabelValues(OutcomeOK)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.Detections.WithLabelValues(OutcomeHeader)))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.AddRows("csv", 1)
		m.Detection(OutcomeError)
		m.ObserveSince("sniff", time.Now())
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveSince("sniff", time.Now())
	m.Detection(OutcomeOK)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "csvsniff_request_duration_seconds_count")
	require.Contains(t, string(body), `csvsniff_detections_total{outcome="ok"} 1`)
}
