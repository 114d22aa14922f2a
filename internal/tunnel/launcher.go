package tunnel

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"rtunnel/internal/logger"
	"rtunnel/internal/models"
)

// Launcher replaces the current process with the tunnel client.
type Launcher struct {
	LookPath func(file string) (string, error)
	Exec     func(argv0 string, argv []string, envv []string) error
	Environ  func() []string
}

func NewLauncher() *Launcher {
	return &Launcher{
		LookPath: exec.LookPath,
		Exec:     syscall.Exec,
		Environ:  os.Environ,
	}
}

/**
 * Run the tunnel in the foreground
 * @param {models.TunnelConfig} cfg - Resolved configuration
 * @returns {error} Only returns on failure; on success the process image is replaced
 * @description
 * - The exit status of the tunnel becomes the exit status of rtunnel
 */
func (l *Launcher) Run(cfg models.TunnelConfig) error {
	cmd, err := BuildCommand(cfg, l.LookPath)
	if err != nil {
		return err
	}
	if !cmd.Autossh {
		logger.Warnf("%s not found, running plain %s without reconnects", AutosshBin, SSHBin)
	}
	logger.Infof("Executing command: %s", cmd.String())

	if err := l.Exec(cmd.Path, cmd.Argv(), l.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", cmd.Path, err)
	}
	return nil
}
