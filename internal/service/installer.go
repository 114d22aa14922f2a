package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"rtunnel/internal/config"
	"rtunnel/internal/env"
	"rtunnel/internal/logger"
	"rtunnel/internal/models"
	"rtunnel/internal/pkgmgr"
	"rtunnel/internal/tunnel"
	"rtunnel/internal/utils"

	"github.com/spf13/afero"
)

const ScriptMode = 0755

// DependencyInstaller makes an executable available, see pkgmgr.Installer.
type DependencyInstaller interface {
	EnsureInstalled(ctx context.Context, binary string) (string, error)
}

/**
 * Outcome of an installation
 * @property {models.InitKind} Kind - Init system the service was installed for
 * @property {string} ConfigPath - Persisted configuration file
 * @property {[]string} Artifacts - Files written or modified
 * @property {string} Registration - Registration mechanism (rc.conf, update-rc.d, chkconfig, crontab)
 * @property {string} StartCommand - Command used to start the service
 */
type Result struct {
	Kind         models.InitKind `json:"kind"`
	ConfigPath   string          `json:"configPath"`
	Artifacts    []string        `json:"artifacts"`
	Registration string          `json:"registration"`
	StartCommand string          `json:"startCommand"`
}

type Installer struct {
	Fs       afero.Fs
	Runner   utils.Runner
	Deps     DependencyInstaller
	Geteuid  func() int
	Schedule string
}

func NewInstaller(fs afero.Fs, runner utils.Runner) *Installer {
	return &Installer{
		Fs:       fs,
		Runner:   runner,
		Deps:     pkgmgr.NewInstaller(runner),
		Geteuid:  os.Geteuid,
		Schedule: config.Config.Watchdog.Schedule,
	}
}

/**
 * Install the tunnel as a service for the given init system and start it
 * @param {context.Context} ctx - Cancels external commands
 * @param {models.TunnelConfig} cfg - Resolved configuration
 * @param {models.InitKind} kind - Result of initsys.Detect
 * @returns {Result} Written artifacts and commands used
 * @description
 * - Requires root
 * - Installs autossh through the package manager when missing
 * - Persists cfg to the system config file
 * - Files already written are left in place when a later step fails
 * @throws
 * - ErrInsufficientPrivilege, ErrDependencyInstallFailed, ErrServiceRegistrationFailed
 */
func (i *Installer) Install(ctx context.Context, cfg models.TunnelConfig, kind models.InitKind) (*Result, error) {
	if err := i.checkPrivilege(); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	autossh, err := i.Deps.EnsureInstalled(ctx, tunnel.AutosshBin)
	if err != nil {
		return nil, err
	}

	if err := config.WriteFile(i.Fs, env.SystemConfigPath, cfg); err != nil {
		return nil, err
	}
	logger.Infof("Configuration saved to %s", env.SystemConfigPath)

	res := &Result{
		Kind:       kind,
		ConfigPath: env.SystemConfigPath,
	}
	data := newScriptData(cfg, autossh)

	switch kind {
	case models.InitBSD:
		err = i.installBSD(ctx, data, res)
	case models.InitSysV:
		err = i.installSysV(ctx, data, res)
	default:
		res.Kind = models.InitUnknown
		err = i.installCron(ctx, data, res)
	}
	if err != nil {
		return res, err
	}
	logger.Infof("Service installed for %s init, started with: %s", res.Kind, res.StartCommand)
	return res, nil
}

/**
 * Remove what Install created for the given init system
 * @param {context.Context} ctx - Cancels external commands
 * @param {models.InitKind} kind - Init system to uninstall from
 * @param {string} user - Crontab owner for the cron fallback
 * @returns {[]string} Removed files
 * @description
 * - Stops the service first, stop failures are only logged
 * - The system config file is kept
 */
func (i *Installer) Uninstall(ctx context.Context, kind models.InitKind, user string) ([]string, error) {
	if err := i.checkPrivilege(); err != nil {
		return nil, err
	}
	switch kind {
	case models.InitBSD:
		return i.uninstallBSD(ctx)
	case models.InitSysV:
		return i.uninstallSysV(ctx)
	default:
		return i.uninstallCron(ctx, user)
	}
}

// Artifacts lists the files Install generates for an init system.
func Artifacts(kind models.InitKind) []string {
	switch kind {
	case models.InitBSD:
		return []string{env.SystemConfigPath, env.BSDRcScript, env.BSDRcConf}
	case models.InitSysV:
		return []string{env.SystemConfigPath, env.SysVInitScript}
	default:
		return []string{env.SystemConfigPath, env.WatchdogScript}
	}
}

func (i *Installer) checkPrivilege() error {
	if i.Geteuid() != 0 {
		return fmt.Errorf("%w: installing a system service requires root, run with sudo", models.ErrInsufficientPrivilege)
	}
	return nil
}

func (i *Installer) writeScript(path, content string) error {
	if err := i.Fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(i.Fs, path, []byte(content), ScriptMode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := i.Fs.Chmod(path, ScriptMode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	logger.Infof("Wrote %s", path)
	return nil
}

func (i *Installer) removeFile(path string, removed *[]string) error {
	err := i.Fs.Remove(path)
	if err == nil {
		*removed = append(*removed, path)
		return nil
	}
	if os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("remove %s: %w", path, err)
}

func (i *Installer) start(ctx context.Context, res *Result, name string, args ...string) error {
	res.StartCommand = utils.CommandLine(name, args)
	if _, err := i.Runner.Run(ctx, nil, name, args...); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	return nil
}
