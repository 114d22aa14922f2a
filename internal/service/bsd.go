package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"rtunnel/internal/env"
	"rtunnel/internal/logger"
	"rtunnel/internal/models"

	"github.com/spf13/afero"
)

func rcEnableLine() string {
	return fmt.Sprintf("%s_enable=\"YES\"", env.AppName)
}

func (i *Installer) installBSD(ctx context.Context, data scriptData, res *Result) error {
	script, err := renderBSDRc(data)
	if err != nil {
		return err
	}
	if err := i.writeScript(env.BSDRcScript, script); err != nil {
		return err
	}
	res.Artifacts = append(res.Artifacts, env.BSDRcScript)

	if err := i.enableInRcConf(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrServiceRegistrationFailed, err)
	}
	res.Artifacts = append(res.Artifacts, env.BSDRcConf)
	res.Registration = env.BSDRcConf

	return i.start(ctx, res, "service", env.AppName, "start")
}

// enableInRcConf 追加 enable 行，已存在时不重复添加
func (i *Installer) enableInRcConf() error {
	line := rcEnableLine()
	content, err := afero.ReadFile(i.Fs, env.BSDRcConf)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, l := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(l) == line {
			logger.Debugf("%s already contains %s", env.BSDRcConf, line)
			return nil
		}
	}

	f, err := i.Fs.OpenFile(env.BSDRcConf, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	prefix := ""
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		prefix = "\n"
	}
	_, err = f.WriteString(prefix + line + "\n")
	return err
}

func (i *Installer) disableInRcConf() error {
	content, err := afero.ReadFile(i.Fs, env.BSDRcConf)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	line := rcEnableLine()
	var kept []string
	for _, l := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(l) != line {
			kept = append(kept, l)
		}
	}
	return afero.WriteFile(i.Fs, env.BSDRcConf, []byte(strings.Join(kept, "\n")), 0644)
}

func (i *Installer) uninstallBSD(ctx context.Context) ([]string, error) {
	if _, err := i.Runner.Run(ctx, nil, "service", env.AppName, "stop"); err != nil {
		logger.Warnf("Stop %s failed: %v", env.AppName, err)
	}
	var removed []string
	if err := i.disableInRcConf(); err != nil {
		return removed, err
	}
	if err := i.removeFile(env.BSDRcScript, &removed); err != nil {
		return removed, err
	}
	return removed, nil
}
