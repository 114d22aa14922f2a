package initsys

import (
	"rtunnel/internal/env"
	"rtunnel/internal/logger"
	"rtunnel/internal/models"

	"github.com/spf13/afero"
)

type discoveryCheck struct {
	kind models.InitKind
	dir  string
}

// 顺序有意义: BSD 先于 SysV, 都不匹配时为 unknown
var discoveryChecks = []discoveryCheck{
	{models.InitBSD, env.BSDRcDir},
	{models.InitSysV, env.SysVInitDir},
}

/**
 * Detect the init system of the host
 * @param {afero.Fs} fs - Filesystem to probe
 * @returns {models.InitKind} bsd, sysv or unknown
 * @description
 * - Only checks for well-known directories, never executes anything
 * - First matching check wins
 */
func Detect(fs afero.Fs) models.InitKind {
	for _, check := range discoveryChecks {
		ok, err := afero.DirExists(fs, check.dir)
		if err != nil {
			logger.Debugf("probe %s for init system %q failed: %v", check.dir, check.kind, err)
		}
		if ok {
			logger.Debugf("discovered init system %q (%s exists)", check.kind, check.dir)
			return check.kind
		}
	}
	logger.Debugf("no known init system directory found, falling back to cron")
	return models.InitUnknown
}
