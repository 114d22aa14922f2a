package proc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"rtunnel/internal/logger"
	"rtunnel/internal/models"
	"rtunnel/internal/utils"
)

/**
 * ProcessInstance 由 rtunnel 启动的隧道进程
 * @property {string} Title - 进程标题，用于显示
 * @property {string} Command - 执行命令
 * @property {[]string} Args - 命令参数
 * @property {[]string} Env - 追加的环境变量
 * @property {string} Status - 进程状态: running/exited/stopped/error
 * @property {time.Time} StartTime - 启动时间
 * @property {time.Time} LastExitTime - 最后退出时间
 * @property {string} LastExitReason - 最后退出原因
 */
type ProcessInstance struct {
	Title          string           //显示用的名字
	Command        string           //进程启动命令
	Args           []string         //进程参数
	Env            []string         //追加的环境变量
	Status         models.RunStatus //状态
	StartTime      time.Time        //启动时间
	LastExitTime   time.Time        //最后一次退出的时间
	LastExitReason string           //最后一次退出的原因
	onExit         func(*ProcessInstance)
	process        *os.Process //统一的进程对象，用于Wait()
	done           chan struct{}
	mutex          sync.Mutex //保护实例数据一致性的读写锁
}

func NewProcessInstance(title, command string, args []string) *ProcessInstance {
	return &ProcessInstance{
		Title:   title,
		Command: command,
		Args:    args,
		Status:  models.StatusExited,
	}
}

// SetOnExit 注册进程退出时的回调，回调在持有实例锁时调用
func (pi *ProcessInstance) SetOnExit(onExit func(*ProcessInstance)) {
	pi.mutex.Lock()
	defer pi.mutex.Unlock()
	pi.onExit = onExit
}

// Pid 返回当前进程号，进程已退出时为 0
func (pi *ProcessInstance) Pid() int {
	pi.mutex.Lock()
	defer pi.mutex.Unlock()
	return pi.pid()
}

// pid 调用方须持有 pi.mutex
func (pi *ProcessInstance) pid() int {
	if pi.process == nil {
		return 0
	}
	return pi.process.Pid
}

func (pi *ProcessInstance) GetDetail() models.ProcessDetail {
	pi.mutex.Lock()
	defer pi.mutex.Unlock()

	return models.ProcessDetail{
		Title:          pi.Title,
		Command:        pi.Command,
		Args:           pi.Args,
		Status:         pi.Status,
		Pid:            pi.pid(),
		StartTime:      pi.StartTime,
		LastExitTime:   pi.LastExitTime,
		LastExitReason: pi.LastExitReason,
	}
}

/**
 * StartProcess 启动进程
 * @param {context.Context} ctx - 仅用于取消启动前的准备，不会终止已启动的进程
 * @returns {error} 返回错误信息
 * @description
 * - 子进程放入新的进程组，rtunnel 退出后继续运行
 * - 使用协程等待进程退出并记录退出原因
 */
func (pi *ProcessInstance) StartProcess(ctx context.Context) error {
	pi.mutex.Lock()
	defer pi.mutex.Unlock()

	if pi.Status == models.StatusRunning {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Infof("Executing command: %s", utils.CommandLine(pi.Command, pi.Args))

	cmd := exec.Command(pi.Command, pi.Args...)
	cmd.Env = append(os.Environ(), pi.Env...)
	utils.SetNewPG(cmd)

	if err := cmd.Start(); err != nil {
		pi.Status = models.StatusError
		pi.LastExitReason = fmt.Sprintf("start failed: %v", err)
		logger.Errorf("Failed to start process '%s', error: %v", pi.Title, err)
		return err
	}

	pi.process = cmd.Process
	pi.Status = models.StatusRunning
	pi.StartTime = time.Now()
	pi.done = make(chan struct{})
	logger.Infof("Process '%s' started (PID: %d)", pi.Title, pi.pid())

	go pi.watchProcess(pi.process, pi.done)
	return nil
}

/**
 * StopProcess 停止进程
 * @returns {error} 返回错误信息
 * @description
 * - 先 SIGTERM，超时后 SIGKILL
 * - 等待监控协程记录退出
 */
func (pi *ProcessInstance) StopProcess() error {
	pi.mutex.Lock()
	if pi.Status != models.StatusRunning || pi.process == nil {
		pi.mutex.Unlock()
		return nil
	}
	pi.Status = models.StatusStopped
	pid := pi.pid()
	done := pi.done
	pi.mutex.Unlock()

	if err := utils.KillProcessGracefully(pid, pi.Title); err != nil {
		logger.Errorf("Failed to kill process '%s' (PID: %d)", pi.Title, pid)
		return err
	}
	<-done
	logger.Infof("Process '%s' (PID: %d) stopped", pi.Title, pid)
	return nil
}

// IsRunning 进程是否仍然存活
func (pi *ProcessInstance) IsRunning() bool {
	pi.mutex.Lock()
	defer pi.mutex.Unlock()

	if pi.Status != models.StatusRunning || pi.process == nil {
		return false
	}
	running, err := utils.IsProcessRunning(pi.pid())
	return err == nil && running
}

func (pi *ProcessInstance) watchProcess(process *os.Process, done chan struct{}) {
	defer close(done)
	state, err := process.Wait()
	if err == nil && !state.Success() {
		err = fmt.Errorf("%s", state.String())
	}

	pi.mutex.Lock()
	defer pi.mutex.Unlock()

	pi.LastExitTime = time.Now()
	switch {
	case pi.Status == models.StatusStopped:
		pi.LastExitReason = "stopped by user"
	case err != nil:
		logger.Errorf("Process '%s' (PID: %d) exited with error: %v", pi.Title, process.Pid, err)
		pi.LastExitReason = fmt.Sprintf("exited with error: %v", err)
		pi.Status = models.StatusError
	default:
		logger.Infof("Process '%s' (PID: %d) exited normally", pi.Title, process.Pid)
		pi.LastExitReason = "exited normally"
		pi.Status = models.StatusExited
	}
	pi.process = nil
	if pi.onExit != nil {
		pi.onExit(pi)
	}
}
