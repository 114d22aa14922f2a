package metrics

import (
	"testing"

	"rtunnel/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStatus(t *testing.T) {
	cfg := models.TunnelConfig{ServerUser: "alice", ServerHost: "example.com", RemotePort: 3333, LocalPort: 22}
	ObserveStatus(cfg, models.TunnelStatus{
		InitKind:      models.InitSysV,
		Signature:     "3333:localhost:22",
		Running:       true,
		Pids:          []int{10, 11},
		LocalPortOpen: true,
	})

	if v := testutil.ToFloat64(tunnelUp); v != 1 {
		t.Errorf("tunnel_up = %v", v)
	}
	if v := testutil.ToFloat64(tunnelProcesses); v != 2 {
		t.Errorf("tunnel_processes = %v", v)
	}
	if v := testutil.ToFloat64(tunnelInfo.WithLabelValues("3333:localhost:22", "alice@example.com", "sysv")); v != 1 {
		t.Errorf("tunnel_info = %v", v)
	}

	ObserveStatus(cfg, models.TunnelStatus{InitKind: models.InitSysV, Signature: "3333:localhost:22"})
	if v := testutil.ToFloat64(tunnelUp); v != 0 {
		t.Errorf("tunnel_up = %v after stop", v)
	}
}

func TestObserveCheck(t *testing.T) {
	before := testutil.ToFloat64(relaunchCount)
	ObserveCheck(models.CheckResult{Running: true})
	ObserveCheck(models.CheckResult{Running: true, Relaunched: true})
	if got := testutil.ToFloat64(relaunchCount) - before; got != 1 {
		t.Errorf("relaunches = %v, want 1", got)
	}
}

func TestRequestCounters(t *testing.T) {
	reqs, errs := GetTotalRequestCount(), GetTotalErrorCount()
	IncrementRequestCount("/healthz")
	IncrementRequestCount("/healthz")
	IncrementErrorCount("/healthz")
	RecordRequestDuration("/healthz", 0.01)

	if GetTotalRequestCount()-reqs != 2 || GetTotalErrorCount()-errs != 1 {
		t.Errorf("local counters not updated")
	}
	if v := testutil.ToFloat64(requestCount.WithLabelValues("/healthz")); v < 2 {
		t.Errorf("http_requests_total = %v", v)
	}
}
