package service

import (
	"context"
	"fmt"

	"rtunnel/internal/env"
	"rtunnel/internal/logger"
	"rtunnel/internal/models"
)

type registrar struct {
	tool       string
	register   []string
	unregister []string
}

// 优先 update-rc.d (Debian 系)，其次 chkconfig (RHEL 系)
var sysvRegistrars = []registrar{
	{tool: "update-rc.d", register: []string{env.AppName, "defaults"}, unregister: []string{"-f", env.AppName, "remove"}},
	{tool: "chkconfig", register: []string{"--add", env.AppName}, unregister: []string{"--del", env.AppName}},
}

func (i *Installer) findRegistrar() (registrar, error) {
	for _, r := range sysvRegistrars {
		if _, err := i.Runner.LookPath(r.tool); err == nil {
			return r, nil
		}
	}
	return registrar{}, fmt.Errorf("%w: neither update-rc.d nor chkconfig found", models.ErrServiceRegistrationFailed)
}

func (i *Installer) installSysV(ctx context.Context, data scriptData, res *Result) error {
	script, err := renderSysVInit(data)
	if err != nil {
		return err
	}
	if err := i.writeScript(env.SysVInitScript, script); err != nil {
		return err
	}
	res.Artifacts = append(res.Artifacts, env.SysVInitScript)

	reg, err := i.findRegistrar()
	if err != nil {
		return err
	}
	if _, err := i.Runner.Run(ctx, nil, reg.tool, reg.register...); err != nil {
		return fmt.Errorf("%w: %v", models.ErrServiceRegistrationFailed, err)
	}
	res.Registration = reg.tool

	return i.start(ctx, res, env.SysVInitScript, "start")
}

func (i *Installer) uninstallSysV(ctx context.Context) ([]string, error) {
	if _, err := i.Runner.Run(ctx, nil, env.SysVInitScript, "stop"); err != nil {
		logger.Warnf("Stop %s failed: %v", env.AppName, err)
	}
	if reg, err := i.findRegistrar(); err == nil {
		if _, err := i.Runner.Run(ctx, nil, reg.tool, reg.unregister...); err != nil {
			logger.Warnf("Unregister %s with %s failed: %v", env.AppName, reg.tool, err)
		}
	}
	var removed []string
	if err := i.removeFile(env.SysVInitScript, &removed); err != nil {
		return removed, err
	}
	return removed, nil
}
