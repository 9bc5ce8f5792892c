package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-contingency/pkg/health"
	"github.com/dd0wney/cluso-contingency/pkg/metrics"
)

func startMetricsServer(t *testing.T, reg *metrics.Registry, opts ...Option) (*GracefulServer, context.CancelFunc, <-chan error) {
	t.Helper()
	opts = append(opts, WithShutdownTimeout(time.Second))
	gs := NewMetricsServer("127.0.0.1:0", reg, opts...)
	require.NoError(t, gs.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx) }()
	t.Cleanup(cancel)
	return gs, cancel, done
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestMetricsServer_Scrape(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.RecordNetwork("ieee14", 14, 20)
	gs, _, _ := startMetricsServer(t, reg)

	status, body := get(t, "http://"+gs.Addr()+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `contingency_network_nodes{network="ieee14"} 14`)
	assert.Contains(t, body, "contingency_uptime_seconds")

	status, body = get(t, "http://"+gs.Addr()+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok\n", body)
}

func TestMetricsServer_HealthChecks(t *testing.T) {
	checker := health.NewChecker()
	var progress health.Progress
	progress.Expect(2)
	progress.Finish(errors.New("timed out"))
	checker.Register("screening", health.ProgressCheck(&progress))
	gs, _, _ := startMetricsServer(t, metrics.NewRegistry(), WithHealth(checker))

	status, body := get(t, "http://"+gs.Addr()+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"status":"degraded"`)
	assert.Contains(t, body, `"orders_failed":1`)

	checker.Register("checkpoints", func() health.Check {
		return health.Check{Status: health.StatusUnhealthy}
	})
	status, _ = get(t, "http://"+gs.Addr()+"/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestGracefulServer_StopsOnContextCancel(t *testing.T) {
	gs, cancel, done := startMetricsServer(t, metrics.NewRegistry())
	assert.False(t, gs.IsShuttingDown())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	assert.True(t, gs.IsShuttingDown())
	select {
	case <-gs.ShutdownChannel():
	default:
		t.Error("shutdown channel should be closed")
	}
	assert.NoError(t, gs.Shutdown(time.Second), "second shutdown is a no-op")
}

func TestGracefulServer_ListenError(t *testing.T) {
	first := NewGracefulServer("127.0.0.1:0", http.NotFoundHandler())
	require.NoError(t, first.Listen())
	t.Cleanup(func() { _ = first.listener.Close() })

	second := NewGracefulServer(first.Addr(), http.NotFoundHandler())
	err := second.Serve(context.Background())
	assert.Error(t, err)
}

func TestGracefulServer_AddrBeforeListen(t *testing.T) {
	gs := NewGracefulServer("localhost:9999", http.NotFoundHandler())
	assert.Equal(t, "localhost:9999", gs.Addr())
}
