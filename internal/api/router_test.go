package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/wordcount/internal/auth"
	"github.com/nikhilbhutani/wordcount/internal/config"
	"github.com/nikhilbhutani/wordcount/internal/metrics"
	"github.com/nikhilbhutani/wordcount/internal/occurrence"
)

func newTestServer(t *testing.T, secret string) *httptest.Server {
	t.Helper()
	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	cfg.Auth.JWTSecret = secret

	reg := prometheus.NewRegistry()
	m := metrics.NewCollector("wordcount", reg)
	svc := occurrence.NewService(occurrence.NewCounter(), occurrence.ServiceConfig{}, nil, occurrence.WithMetrics(m))

	rt := NewRouter(cfg, Deps{Counter: svc, Metrics: m, Gatherer: reg})
	srv := httptest.NewServer(rt.Setup())
	t.Cleanup(func() {
		srv.Close()
		rt.Close()
	})
	return srv
}

func post(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouterCountAndMetrics(t *testing.T) {
	srv := newTestServer(t, "")

	resp := post(t, srv.URL+"/api/v1/occurrences", "", `{"text": "e sono nato a Napoli e sono bello", "word": "sono"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body := new(strings.Builder)
	_, err = io.Copy(body, metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), `wordcount_occurrence_counts_total{status="ok"} 1`)
	assert.Contains(t, body.String(), `path="/api/v1/occurrences"`)
}

func TestRouterJobsDisabledWithoutScheduler(t *testing.T) {
	srv := newTestServer(t, "")

	resp := post(t, srv.URL+"/api/v1/jobs", "", `{"text": "sono", "word": "sono"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouterRequiresTokenWhenConfigured(t *testing.T) {
	srv := newTestServer(t, "s3cret")
	body := `{"text": "sono", "word": "sono"}`

	resp := post(t, srv.URL+"/api/v1/occurrences", "", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := auth.NewJWTMiddleware("s3cret").Issue("test", time.Minute)
	require.NoError(t, err)
	resp = post(t, srv.URL+"/api/v1/occurrences", token, body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode, "health is public")
}
