package serverhttp

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csv-sniffer/internal/config"
)

func newServer(t *testing.T, maxMB int) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		AllowOrigins: []string{"*"},
		MaxUploadMB:  maxMB,
		Encoding:     "UTF-8",
		SampleSize:   20,
		Separators:   []string{",", ";", "\t", "|", "^"},
		PreviewRows:  10,
	}
	srv := httptest.NewServer(NewRouter(cfg, zerolog.Nop(), prometheus.NewRegistry()))
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, url, name string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := newServer(t, 1)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	var h map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "ok", h["status"])
}

func TestSniffAndMetrics(t *testing.T) {
	srv := newServer(t, 1)
	resp := upload(t, srv.URL+"/sniff", "a.csv", []byte("a,b\n1,2\n3,4\n"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	body, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `csvsniff_rows_total{source="csv"} 2`)
	assert.Contains(t, string(body), `csvsniff_detections_total{outcome="ok"} 1`)
}

func TestRowsRoute(t *testing.T) {
	srv := newServer(t, 1)
	resp := upload(t, srv.URL+"/rows", "a.csv", []byte("a,b\n1,2\n"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"line":2,"values":{"a":"1","b":"2"}}`, string(body))
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newServer(t, 1)
	resp, err := http.Get(srv.URL + "/sniff")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
