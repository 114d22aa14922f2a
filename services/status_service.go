package services

import (
	"context"
	"os/exec"
	"time"

	"rtunnel/internal/config"
	"rtunnel/internal/initsys"
	"rtunnel/internal/logger"
	"rtunnel/internal/metrics"
	"rtunnel/internal/models"
	"rtunnel/internal/proc"
	"rtunnel/internal/service"
	"rtunnel/internal/tunnel"
	"rtunnel/internal/utils"

	"github.com/spf13/afero"
)

/**
 * StatusService answers status queries for one resolved tunnel configuration
 * @description
 * - Shared by the status/check commands and the HTTP API
 * - Every query scans the host again, nothing is cached
 */
type StatusService struct {
	Fs        afero.Fs
	Finder    proc.Finder
	Watchdog  *proc.Watchdog
	PortCheck func(port int) bool
	Schedule  string
	Now       func() time.Time
	Version   string

	cfg       models.TunnelConfig
	startTime time.Time
}

func NewStatusService(cfg models.TunnelConfig) *StatusService {
	finder := proc.ProcessFinder{}
	return &StatusService{
		Fs:        afero.NewOsFs(),
		Finder:    finder,
		Watchdog:  proc.NewWatchdog(finder, exec.LookPath),
		PortCheck: utils.IsPortListening,
		Schedule:  config.Config.Watchdog.Schedule,
		Now:       time.Now,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// Config returns the configuration the service was created with.
func (s *StatusService) Config() models.TunnelConfig {
	return s.cfg
}

/**
 * Collect the tunnel state on this host
 * @param {context.Context} ctx - Cancels the process scan
 * @returns {models.TunnelStatus} Init kind, matching processes and installed artifacts
 * @description
 * - NextCheck is only set for the cron fallback
 */
func (s *StatusService) Status(ctx context.Context) (models.TunnelStatus, error) {
	kind := initsys.Detect(s.Fs)
	status := models.TunnelStatus{
		InitKind:  kind,
		Signature: tunnel.Signature(s.cfg),
	}

	pids, err := s.Finder.FindBySignature(ctx, status.Signature)
	if err != nil {
		return status, err
	}
	status.Pids = pids
	status.Running = len(pids) > 0
	status.LocalPortOpen = s.PortCheck(s.cfg.LocalPort)

	for _, path := range service.Artifacts(kind) {
		exists, _ := afero.Exists(s.Fs, path)
		status.Artifacts = append(status.Artifacts, models.Artifact{Path: path, Exists: exists})
	}

	if kind == models.InitUnknown {
		next, err := service.NextWatchdogRun(s.Schedule, s.Now())
		if err != nil {
			logger.Warnf("Invalid watchdog schedule %q: %v", s.Schedule, err)
		} else {
			status.NextCheck = next
		}
	}

	metrics.ObserveStatus(s.cfg, status)
	return status, nil
}

/**
 * Run one watchdog pass and record it
 * @param {context.Context} ctx - Cancels the process scan
 * @returns {models.CheckResult} Result of the pass
 */
func (s *StatusService) Check(ctx context.Context) (models.CheckResult, error) {
	res, err := s.Watchdog.Check(ctx, s.cfg)
	if err != nil {
		logger.Errorf("Watchdog check of %s failed: %v", res.Signature, err)
		return res, err
	}
	metrics.ObserveCheck(res)
	return res, nil
}

/**
 * Build the /healthz response
 * @returns {models.HealthResponse} Version, start time and uptime
 */
func (s *StatusService) GetHealthz() models.HealthResponse {
	return models.HealthResponse{
		Version:   s.Version,
		StartTime: s.startTime.Format(time.RFC3339),
		Status:    "UP",
		Uptime:    s.Now().Sub(s.startTime).Round(time.Second).String(),
		Requests:  metrics.GetTotalRequestCount(),
		Errors:    metrics.GetTotalErrorCount(),
	}
}
