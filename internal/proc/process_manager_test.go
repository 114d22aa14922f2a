//go:build unix

package proc

import (
	"context"
	"testing"
	"time"

	"rtunnel/internal/models"
)

func TestProcessInstanceLifecycle(t *testing.T) {
	exited := make(chan models.RunStatus, 1)
	pi := NewProcessInstance("sleeper", "sleep", []string{"30"})
	pi.SetOnExit(func(p *ProcessInstance) {
		exited <- p.Status
	})

	if err := pi.StartProcess(context.Background()); err != nil {
		t.Fatalf("StartProcess failed: %v", err)
	}
	if !pi.IsRunning() {
		t.Fatalf("process should be running")
	}
	detail := pi.GetDetail()
	if detail.Pid == 0 || detail.Status != models.StatusRunning {
		t.Errorf("unexpected detail: %+v", detail)
	}

	if err := pi.StopProcess(); err != nil {
		t.Fatalf("StopProcess failed: %v", err)
	}
	select {
	case status := <-exited:
		if status != models.StatusStopped {
			t.Errorf("status = %s, want stopped", status)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("exit callback not called")
	}
	if pi.IsRunning() {
		t.Errorf("process should not be running")
	}
}

func TestProcessInstanceExit(t *testing.T) {
	exited := make(chan struct{})
	pi := NewProcessInstance("false", "sh", []string{"-c", "exit 3"})
	pi.SetOnExit(func(*ProcessInstance) { close(exited) })

	if err := pi.StartProcess(context.Background()); err != nil {
		t.Fatalf("StartProcess failed: %v", err)
	}
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatalf("exit callback not called")
	}
	detail := pi.GetDetail()
	if detail.Status != models.StatusError || detail.LastExitReason == "" {
		t.Errorf("unexpected detail: %+v", detail)
	}
}

func TestProcessInstanceStartFailure(t *testing.T) {
	pi := NewProcessInstance("missing", "/nonexistent/binary", nil)
	if err := pi.StartProcess(context.Background()); err == nil {
		t.Fatalf("expected start failure")
	}
	if pi.GetDetail().Status != models.StatusError {
		t.Errorf("status should be error")
	}
}

func TestProcessInstancePidWhileExiting(t *testing.T) {
	exited := make(chan struct{})
	pi := NewProcessInstance("true", "true", nil)
	pi.SetOnExit(func(*ProcessInstance) { close(exited) })

	if err := pi.StartProcess(context.Background()); err != nil {
		t.Fatalf("StartProcess failed: %v", err)
	}
	// 与 watchProcess 并发读取，需配合 go test -race
	deadline := time.After(5 * time.Second)
	for {
		pid := pi.Pid()
		select {
		case <-exited:
			if pi.Pid() != 0 {
				t.Errorf("Pid after exit = %d, want 0", pi.Pid())
			}
			if pi.GetDetail().Pid != 0 {
				t.Errorf("detail still carries a pid after exit")
			}
			return
		case <-deadline:
			t.Fatalf("exit callback not called, last pid %d", pid)
		default:
		}
	}
}
