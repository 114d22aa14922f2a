package pkgmgr

import (
	"context"
	"fmt"

	"rtunnel/internal/logger"
	"rtunnel/internal/models"
	"rtunnel/internal/utils"
)

/**
 * Package manager probe entry
 * @property {string} Name - Display name
 * @property {string} Binary - Executable whose presence identifies the manager
 * @property {func(string) []string} Args - Install arguments for a package
 */
type Manager struct {
	Name   string
	Binary string
	Args   func(pkg string) []string
}

// Managers 按此顺序探测: apt, yum, pkg, brew
var Managers = []Manager{
	{Name: "apt", Binary: "apt-get", Args: func(pkg string) []string { return []string{"install", "-y", pkg} }},
	{Name: "yum", Binary: "yum", Args: func(pkg string) []string { return []string{"install", "-y", pkg} }},
	{Name: "pkg", Binary: "pkg", Args: func(pkg string) []string { return []string{"install", "-y", pkg} }},
	{Name: "brew", Binary: "brew", Args: func(pkg string) []string { return []string{"install", pkg} }},
}

type Installer struct {
	Runner   utils.Runner
	Managers []Manager
}

func NewInstaller(runner utils.Runner) *Installer {
	return &Installer{Runner: runner, Managers: Managers}
}

/**
 * Make sure an executable is available, installing its package if needed
 * @param {context.Context} ctx - Cancels package manager runs
 * @param {string} binary - Executable that must end up on PATH (package has the same name)
 * @returns {string} Path of the executable
 * @description
 * - Returns immediately if the executable is already present
 * - Tries every present package manager in probe order until the executable appears
 * @throws
 * - ErrDependencyInstallFailed if no manager could install it
 */
func (i *Installer) EnsureInstalled(ctx context.Context, binary string) (string, error) {
	if p, err := i.Runner.LookPath(binary); err == nil {
		logger.Debugf("%s already installed at %s", binary, p)
		return p, nil
	}

	var lastErr error
	tried := 0
	for _, m := range i.Managers {
		if _, err := i.Runner.LookPath(m.Binary); err != nil {
			continue
		}
		tried++
		logger.Infof("Installing %s with %s", binary, m.Name)
		if _, err := i.Runner.Run(ctx, nil, m.Binary, m.Args(binary)...); err != nil {
			logger.Warnf("Install %s with %s failed: %v", binary, m.Name, err)
			lastErr = err
			continue
		}
		if p, err := i.Runner.LookPath(binary); err == nil {
			return p, nil
		}
		lastErr = fmt.Errorf("%s reported success but %s is still not in PATH", m.Name, binary)
	}

	if tried == 0 {
		return "", fmt.Errorf("%w: %s is not installed and no supported package manager (apt, yum, pkg, brew) was found",
			models.ErrDependencyInstallFailed, binary)
	}
	return "", fmt.Errorf("%w: %s: %v", models.ErrDependencyInstallFailed, binary, lastErr)
}
