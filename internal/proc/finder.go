package proc

import (
	"context"
	"fmt"
	"os"
	"sort"

	"rtunnel/internal/logger"
	"rtunnel/internal/tunnel"
	"rtunnel/internal/utils"

	"github.com/shirou/gopsutil/v4/process"
)

// Finder looks up running tunnel processes.
type Finder interface {
	FindBySignature(ctx context.Context, signature string) ([]int, error)
}

// ProcessFinder scans the process table with gopsutil.
type ProcessFinder struct{}

/**
 * Find ssh/autossh processes forwarding the given signature
 * @param {context.Context} ctx - Cancels the scan
 * @param {string} signature - Value of tunnel.Signature
 * @returns {[]int} Matching PIDs in ascending order
 * @description
 * - Processes whose command line cannot be read (permissions, exited) are skipped
 * - rtunnel's own process is never reported
 */
func (ProcessFinder) FindBySignature(ctx context.Context, signature string) ([]int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	self := int32(os.Getpid())

	var pids []int
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		args, err := p.CmdlineSliceWithContext(ctx)
		if err != nil || len(args) == 0 {
			continue
		}
		if MatchProcess(args, signature) {
			pids = append(pids, int(p.Pid))
		}
	}
	sort.Ints(pids)
	return pids, nil
}

// MatchProcess reports whether a command line is a tunnel client forwarding signature.
func MatchProcess(args []string, signature string) bool {
	return len(args) > 0 && tunnel.IsClient(args[0]) && tunnel.MatchSignature(args[1:], signature)
}

/**
 * Terminate every tunnel process with the given signature
 * @param {context.Context} ctx - Cancels the scan
 * @param {Finder} finder - Process lookup
 * @param {string} signature - Value of tunnel.Signature
 * @returns {[]int} PIDs that were signalled
 */
func StopBySignature(ctx context.Context, finder Finder, signature string) ([]int, error) {
	pids, err := finder.FindBySignature(ctx, signature)
	if err != nil {
		return nil, err
	}
	var stopped []int
	var last error
	for _, pid := range pids {
		if err := utils.KillProcessGracefully(pid, signature); err != nil {
			logger.Warnf("Stop tunnel process %d failed: %v", pid, err)
			last = err
			continue
		}
		stopped = append(stopped, pid)
	}
	return stopped, last
}
