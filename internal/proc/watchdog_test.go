package proc

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"rtunnel/internal/models"
)

type fakeFinder struct {
	pids []int
	err  error
	sigs []string
}

func (f *fakeFinder) FindBySignature(ctx context.Context, signature string) ([]int, error) {
	f.sigs = append(f.sigs, signature)
	return f.pids, f.err
}

func testConfig() models.TunnelConfig {
	return models.TunnelConfig{
		ServerUser:           "alice",
		ServerHost:           "example.com",
		ServerPort:           22,
		LocalPort:            22,
		RemotePort:           3333,
		MonitorPort:          20000,
		ServerAliveInterval:  60,
		ServerAliveCountMax:  3,
		ExitOnForwardFailure: true,
	}
}

func lookPath(present ...string) func(string) (string, error) {
	return func(file string) (string, error) {
		for _, p := range present {
			if p == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func newTestWatchdog(finder Finder, started *[]*ProcessInstance) *Watchdog {
	w := NewWatchdog(finder, lookPath("autossh", "ssh"))
	w.PortFree = func(int) bool { return true }
	w.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	w.Start = func(ctx context.Context, pi *ProcessInstance) error {
		*started = append(*started, pi)
		return nil
	}
	return w
}

func TestWatchdogLeavesRunningTunnel(t *testing.T) {
	finder := &fakeFinder{pids: []int{42, 43}}
	var started []*ProcessInstance
	w := newTestWatchdog(finder, &started)

	res, err := w.Check(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !res.Running || res.Relaunched || res.Pid != 42 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(started) != 0 {
		t.Errorf("nothing should be started")
	}
	if finder.sigs[0] != "3333:localhost:22" {
		t.Errorf("signature = %q", finder.sigs[0])
	}
}

func TestWatchdogRelaunches(t *testing.T) {
	var started []*ProcessInstance
	w := newTestWatchdog(&fakeFinder{}, &started)

	res, err := w.Check(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !res.Relaunched || res.Signature != "3333:localhost:22" {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(started) != 1 {
		t.Fatalf("started %d processes", len(started))
	}
	pi := started[0]
	if pi.Command != "/usr/bin/autossh" {
		t.Errorf("command = %q", pi.Command)
	}
	args := strings.Join(pi.Args, " ")
	if !strings.HasPrefix(args, "-M 20000 -N") || !strings.Contains(args, "-R 3333:localhost:22") {
		t.Errorf("args = %q", args)
	}
	if len(pi.Env) != 1 || pi.Env[0] != "AUTOSSH_GATETIME=0" {
		t.Errorf("env = %v", pi.Env)
	}
	if w.Instance() != pi {
		t.Errorf("instance not remembered")
	}
}

func TestWatchdogErrors(t *testing.T) {
	var started []*ProcessInstance
	scanErr := errors.New("permission denied")
	w := newTestWatchdog(&fakeFinder{err: scanErr}, &started)
	if _, err := w.Check(context.Background(), testConfig()); !errors.Is(err, scanErr) {
		t.Errorf("expected scan error, got %v", err)
	}

	w = newTestWatchdog(&fakeFinder{}, &started)
	w.LookPath = lookPath()
	if _, err := w.Check(context.Background(), testConfig()); err == nil {
		t.Errorf("expected error without ssh client")
	}

	startErr := errors.New("fork failed")
	w = newTestWatchdog(&fakeFinder{}, &started)
	w.Start = func(context.Context, *ProcessInstance) error { return startErr }
	res, err := w.Check(context.Background(), testConfig())
	if !errors.Is(err, startErr) || res.Relaunched {
		t.Errorf("expected start error, got %+v %v", res, err)
	}
}

func TestMatchProcess(t *testing.T) {
	sig := "3333:localhost:22"
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"/usr/bin/autossh", "-M", "20000", "-N", "-R", sig, "alice@example.com"}, true},
		{[]string{"ssh", "-N", "-R" + sig, "alice@example.com"}, true},
		{[]string{"grep", "-R", sig}, false},
		{[]string{"ssh", "-R", "4444:localhost:22"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := MatchProcess(tt.args, sig); got != tt.want {
			t.Errorf("MatchProcess(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
