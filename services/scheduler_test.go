package services

import (
	"context"
	"testing"

	"github.com/spf13/afero"
)

func TestWatchdogScheduler(t *testing.T) {
	svc := newTestService(afero.NewMemMapFs(), fakeFinder{pids: []int{1}})

	bad := NewWatchdogScheduler(svc, "every minute")
	if err := bad.Start(context.Background()); err == nil {
		t.Errorf("invalid schedule accepted")
	}

	s := NewWatchdogScheduler(svc, "*/5 * * * *")
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s.NextRun().IsZero() {
		t.Errorf("next run not scheduled")
	}
	s.Stop()
	if !s.NextRun().IsZero() {
		t.Errorf("stopped scheduler still reports a next run")
	}
}
