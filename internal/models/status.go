package models

import "time"

type Artifact struct {
	Path   string `json:"path"`   //生成的文件路径
	Exists bool   `json:"exists"` //文件是否存在
}

/**
 * Observed state of the tunnel on this host
 * @property {InitKind} InitKind - detected init system
 * @property {string} Signature - process signature used for matching
 * @property {bool} Running - true when at least one matching process exists
 * @property {[]int} Pids - matching process ids
 * @property {bool} LocalPortOpen - something listens on the forwarded local port
 * @property {[]Artifact} Artifacts - files the installer generates for this init kind
 * @property {time.Time} NextCheck - next scheduled watchdog run (cron fallback only)
 */
type TunnelStatus struct {
	InitKind      InitKind   `json:"initKind"`
	Signature     string     `json:"signature"`
	Running       bool       `json:"running"`
	Pids          []int      `json:"pids"`
	LocalPortOpen bool       `json:"localPortOpen"`
	Artifacts     []Artifact `json:"artifacts"`
	NextCheck     time.Time  `json:"nextCheck,omitempty"`
}

// CheckResult 一次看门狗检查的结果
type CheckResult struct {
	Signature  string    `json:"signature"`
	Running    bool      `json:"running"`
	Relaunched bool      `json:"relaunched"`
	Pid        int       `json:"pid,omitempty"`
	Time       time.Time `json:"time"`
}
