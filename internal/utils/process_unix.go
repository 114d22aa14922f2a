//go:build unix

package utils

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"rtunnel/internal/logger"
)

// SetNewPG 设置进程属性，使子进程在父进程退出后继续运行
func SetNewPG(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// IsProcessRunning 发送signal 0检查进程是否存在
func IsProcessRunning(pid int) (bool, error) {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false, fmt.Errorf("failed to find process with PID %d: %v", pid, err)
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return false, nil
	}
	return true, nil
}

/**
 * Kill process gracefully with SIGTERM first, then SIGKILL if needed
 * @param {int} pid - Process ID to kill
 * @param {string} title - Name used in log messages
 * @returns {error} Returns error if process killing fails, nil on success
 * @description
 * - Waits up to one second for the process to exit after SIGTERM
 * @throws
 * - Process not found errors
 * - Signal sending errors
 */
func KillProcessGracefully(pid int, title string) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %s (PID: %d): %v", title, pid, err)
	}

	logger.Infof("Attempting graceful termination of process %s (PID: %d)", title, pid)
	if err = process.Signal(syscall.SIGTERM); err == nil {
		for i := 0; i < 10; i++ {
			if err := process.Signal(syscall.Signal(0)); err != nil {
				logger.Infof("Process %s (PID: %d) terminated gracefully", title, pid)
				return nil
			}
			time.Sleep(100 * time.Millisecond)
		}
	}

	logger.Warnf("Graceful termination failed, force killing process %s (PID: %d)", title, pid)
	if err = process.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to kill process %s (PID: %d): %v", title, pid, err)
	}
	return nil
}
