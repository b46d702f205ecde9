package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/loconomy/ai/agent"
	"github.com/hrygo/loconomy/ai/metrics"
	"github.com/hrygo/loconomy/internal/profile"
	"github.com/hrygo/loconomy/internal/version"
	"github.com/hrygo/loconomy/server/service/booking"
	"github.com/hrygo/loconomy/store"
	"github.com/hrygo/loconomy/store/db/sqlite"
)

func newTestServer(t *testing.T) (*Server, *metrics.PrometheusExporter) {
	t.Helper()
	ctx := context.Background()
	p := &profile.Profile{Mode: "dev", Addr: "127.0.0.1", Port: 0, Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "server.db")}

	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	require.NoError(t, s.Migrate(ctx))

	exporter := metrics.NewPrometheusExporter(metrics.Config{})
	a := agent.New(agent.DefaultConfig(), nil, booking.NewService(s, 5), agent.WithRecorder(exporter))

	srv, err := NewServer(ctx, p, s, a, exporter)
	require.NoError(t, err)
	return srv, exporter
}

func TestNewServer_RequiresAgent(t *testing.T) {
	_, err := NewServer(context.Background(), &profile.Profile{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, version.String(), body["version"])
}

func TestMetricsReflectAgentTraffic(t *testing.T) {
	srv, _ := newTestServer(t)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/process", strings.NewReader(`{"input":"/help"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `loconomy_agent_commands_total{command="help",status="ok"} 1`)
}

func TestStartAndShutdown(t *testing.T) {
	srv, _ := newTestServer(t)

	var hooked bool
	srv.OnShutdown(func(context.Context) error {
		hooked = true
		return nil
	})

	require.NoError(t, srv.Start(context.Background()))
	require.NotNil(t, srv.Addr())

	resp, err := http.Get("http://" + srv.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	srv.Shutdown(context.Background())
	assert.True(t, hooked)
}
