package models

import "fmt"

/**
 * Resolved reverse tunnel configuration
 * @property {string} ServerUser - SSH user on the relay server
 * @property {string} ServerHost - Relay server host name or address
 * @property {int} ServerPort - sshd port of the relay server
 * @property {int} LocalPort - local port exposed through the tunnel
 * @property {int} RemotePort - port opened on the relay server (-R)
 * @property {int} MonitorPort - autossh monitor port (-M)
 * @property {string} LocalUser - local account the service runs as
 * @property {int} ServerAliveInterval - ssh ServerAliveInterval, seconds
 * @property {int} ServerAliveCountMax - ssh ServerAliveCountMax
 * @property {bool} ExitOnForwardFailure - ssh ExitOnForwardFailure
 * @property {bool} InstallService - install as system service instead of running in foreground
 */
type TunnelConfig struct {
	ServerUser           string `json:"serverUser"`
	ServerHost           string `json:"serverHost"`
	ServerPort           int    `json:"serverPort"`
	LocalPort            int    `json:"localPort"`
	RemotePort           int    `json:"remotePort"`
	MonitorPort          int    `json:"monitorPort"`
	LocalUser            string `json:"localUser"`
	ServerAliveInterval  int    `json:"serverAliveInterval"`
	ServerAliveCountMax  int    `json:"serverAliveCountMax"`
	ExitOnForwardFailure bool   `json:"exitOnForwardFailure"`
	InstallService       bool   `json:"installService"`
}

// Destination 返回 user@host 形式的 ssh 目标
func (c TunnelConfig) Destination() string {
	return fmt.Sprintf("%s@%s", c.ServerUser, c.ServerHost)
}

// Forward 返回 -R 参数值，同时也是识别隧道进程的特征串
func (c TunnelConfig) Forward() string {
	return fmt.Sprintf("%d:localhost:%d", c.RemotePort, c.LocalPort)
}

// YesNo renders a boolean the way ssh_config expects it.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

type InitKind string

const (
	InitBSD     InitKind = "bsd"
	InitSysV    InitKind = "sysv"
	InitUnknown InitKind = "unknown"
)
