package stats_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/xpubd/pkg/stats"
)

func TestMetrics(t *testing.T) {
	m := stats.NewMetrics()
	m.ObserveLogin(stats.ResultSuccess)
	m.ObserveLogin(stats.ResultSuccess)
	m.ObserveLogin(stats.ResultRejected)
	m.ObserveDerivation(stats.ResultFailure)
	m.ObserveTemplate("create", stats.ResultSuccess)
	require.NoError(t, m.RegisterAccountsGauge(func() float64 { return 3 }))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `xpubd_logins_total{result="success"} 2`)
	require.Contains(t, string(body), `xpubd_logins_total{result="rejected"} 1`)
	require.Contains(t, string(body), `xpubd_derivations_total{result="failure"} 1`)
	require.Contains(t, string(body), `xpubd_templates_total{operation="create",result="success"} 1`)
	require.Contains(t, string(body), "xpubd_accounts 3")

	require.Error(t, m.RegisterAccountsGauge(func() float64 { return 0 }))
}

func TestDumpMetrics(t *testing.T) {
	m := stats.NewMetrics()
	m.ObserveLogin(stats.ResultSuccess)
	path := filepath.Join(t.TempDir(), "metrics")

	ctx, cancel := context.WithCancel(context.Background())
	done := stats.EnableMemoryStatistics(ctx, time.Hour, m.Gatherer(), path)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("memory statistics routine did not stop")
	}

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "xpubd_logins_total")
}
