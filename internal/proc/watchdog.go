package proc

import (
	"context"
	"sync"
	"time"

	"rtunnel/internal/env"
	"rtunnel/internal/logger"
	"rtunnel/internal/models"
	"rtunnel/internal/tunnel"
	"rtunnel/internal/utils"
)

/**
 * Watchdog relaunches the tunnel when no matching process is running
 * @description
 * - Go counterpart of the cron watchdog script
 * - Check calls are serialized
 */
type Watchdog struct {
	Finder   Finder
	LookPath func(file string) (string, error)
	Start    func(ctx context.Context, pi *ProcessInstance) error
	PortFree func(port int) bool
	Now      func() time.Time

	mutex    sync.Mutex
	instance *ProcessInstance
}

func NewWatchdog(finder Finder, lookPath func(string) (string, error)) *Watchdog {
	return &Watchdog{
		Finder:   finder,
		LookPath: lookPath,
		Start: func(ctx context.Context, pi *ProcessInstance) error {
			return pi.StartProcess(ctx)
		},
		PortFree: utils.IsPortFree,
		Now:      time.Now,
	}
}

/**
 * Run one watchdog pass
 * @param {context.Context} ctx - Cancels the process scan
 * @param {models.TunnelConfig} cfg - Resolved configuration
 * @returns {models.CheckResult} What was found and whether a relaunch happened
 * @description
 * - A running process with the signature leaves everything untouched
 * - Otherwise autossh (or ssh) is started detached with AUTOSSH_GATETIME=0
 * @throws
 * - Process scan errors, missing client binary, start failures
 */
func (w *Watchdog) Check(ctx context.Context, cfg models.TunnelConfig) (models.CheckResult, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	sig := tunnel.Signature(cfg)
	res := models.CheckResult{Signature: sig, Time: w.Now()}

	pids, err := w.Finder.FindBySignature(ctx, sig)
	if err != nil {
		return res, err
	}
	if len(pids) > 0 {
		logger.Debugf("Tunnel %s is running (PID: %v)", sig, pids)
		res.Running = true
		res.Pid = pids[0]
		return res, nil
	}

	cmd, err := tunnel.BuildCommand(cfg, w.LookPath)
	if err != nil {
		return res, err
	}
	if cmd.Autossh && !w.PortFree(cfg.MonitorPort) {
		logger.Warnf("Monitor port %d is in use, autossh may fail to start", cfg.MonitorPort)
	}

	pi := NewProcessInstance(env.AppName, cmd.Path, cmd.Args)
	pi.Env = []string{"AUTOSSH_GATETIME=0"}
	logger.Warnf("Tunnel %s is not running, relaunching", sig)
	if err := w.Start(ctx, pi); err != nil {
		return res, err
	}
	w.instance = pi

	res.Running = true
	res.Relaunched = true
	res.Pid = pi.Pid()
	return res, nil
}

// Instance returns the process started by the last relaunch, nil if none.
func (w *Watchdog) Instance() *ProcessInstance {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.instance
}
