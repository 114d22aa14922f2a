package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rtunnel/internal/config"
	"rtunnel/internal/env"
	"rtunnel/internal/logger"
	"rtunnel/internal/models"

	"github.com/robfig/cron/v3"
)

/**
 * Build the crontab line that runs the watchdog script
 * @param {string} schedule - Standard 5-field cron expression
 * @returns {string} Crontab line
 * @throws
 * - Error if the schedule does not parse
 */
func CrontabEntry(schedule string) (string, error) {
	if schedule == "" {
		schedule = config.DefaultWatchdogSchedule
	}
	if strings.HasPrefix(schedule, "@every") {
		return "", fmt.Errorf("invalid watchdog schedule %q: crontab does not support @every", schedule)
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return "", fmt.Errorf("invalid watchdog schedule %q: %w", schedule, err)
	}
	return fmt.Sprintf("%s %s >/dev/null 2>&1", schedule, env.WatchdogScript), nil
}

// NextWatchdogRun 返回 schedule 在 from 之后的下一次执行时间
func NextWatchdogRun(schedule string, from time.Time) (time.Time, error) {
	if schedule == "" {
		schedule = config.DefaultWatchdogSchedule
	}
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

func (i *Installer) installCron(ctx context.Context, data scriptData, res *Result) error {
	user := data.Config.LocalUser
	if user == "" {
		return fmt.Errorf("%w: no local service user for the crontab", models.ErrServiceRegistrationFailed)
	}
	entry, err := CrontabEntry(i.Schedule)
	if err != nil {
		return err
	}

	script, err := renderWatchdog(data)
	if err != nil {
		return err
	}
	if err := i.writeScript(env.WatchdogScript, script); err != nil {
		return err
	}
	res.Artifacts = append(res.Artifacts, env.WatchdogScript)

	if err := i.updateCrontab(ctx, user, entry); err != nil {
		return fmt.Errorf("%w: %v", models.ErrServiceRegistrationFailed, err)
	}
	res.Registration = "crontab"

	if user == "root" {
		return i.start(ctx, res, env.WatchdogScript)
	}
	return i.start(ctx, res, "su", "-", user, "-c", env.WatchdogScript)
}

// readCrontab 返回去掉看门狗行后的 crontab，只有 "no crontab for" 按空表处理
func (i *Installer) readCrontab(ctx context.Context, user string) ([]string, error) {
	out, err := i.Runner.Run(ctx, nil, "crontab", "-u", user, "-l")
	if err != nil {
		if strings.Contains(string(out), "no crontab for") || strings.Contains(err.Error(), "no crontab for") {
			logger.Debugf("%s has no crontab yet", user)
			return nil, nil
		}
		return nil, fmt.Errorf("read crontab of %s: %w", user, err)
	}
	var lines []string
	for _, l := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if l == "" || strings.Contains(l, env.WatchdogScript) {
			continue
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func (i *Installer) writeCrontab(ctx context.Context, user string, lines []string) error {
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	_, err := i.Runner.Run(ctx, strings.NewReader(content), "crontab", "-u", user, "-")
	return err
}

// updateCrontab 替换掉旧的看门狗行后追加新行
func (i *Installer) updateCrontab(ctx context.Context, user, entry string) error {
	if _, err := i.Runner.LookPath("crontab"); err != nil {
		return fmt.Errorf("crontab not found: %w", err)
	}
	lines, err := i.readCrontab(ctx, user)
	if err != nil {
		return err
	}
	return i.writeCrontab(ctx, user, append(lines, entry))
}

func (i *Installer) uninstallCron(ctx context.Context, user string) ([]string, error) {
	var removed []string
	if user != "" {
		if _, err := i.Runner.LookPath("crontab"); err == nil {
			lines, err := i.readCrontab(ctx, user)
			if err != nil {
				return removed, err
			}
			if err := i.writeCrontab(ctx, user, lines); err != nil {
				return removed, fmt.Errorf("update crontab of %s: %w", user, err)
			}
		}
	}
	if err := i.removeFile(env.WatchdogScript, &removed); err != nil {
		return removed, err
	}
	return removed, nil
}
