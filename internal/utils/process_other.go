//go:build !unix

package utils

import (
	"fmt"
	"os"
	"os/exec"
)

// SetNewPG 默认实现，用于不支持进程组的构建目标
func SetNewPG(cmd *exec.Cmd) {
}

// IsProcessRunning 检查进程是否正在运行
func IsProcessRunning(pid int) (bool, error) {
	_, err := os.FindProcess(pid)
	return err == nil, nil
}

func KillProcessGracefully(pid int, title string) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %s (PID: %d): %v", title, pid, err)
	}
	return process.Kill()
}
