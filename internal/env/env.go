package env

import (
	"os"
	"os/user"
	"path/filepath"
)

const AppName = "rtunnel"

// 固定路径，安装器与看门狗脚本共用
const (
	ConfigFileName   = AppName + ".conf"
	SystemConfigPath = "/etc/" + ConfigFileName
	BSDRcDir         = "/usr/local/etc/rc.d"
	BSDRcScript      = BSDRcDir + "/" + AppName
	BSDRcConf        = "/etc/rc.conf"
	SysVInitDir      = "/etc/init.d"
	SysVInitScript   = SysVInitDir + "/" + AppName
	WatchdogScript   = "/usr/local/bin/" + AppName + "-watchdog"
	PidDir           = "/var/run/" + AppName
)

/**
 * Config file search order used when no explicit path is given
 * @returns {[]string} Candidate paths, first existing one wins
 * @description
 * - current directory
 * - system-wide path
 * - user config path ($XDG_CONFIG_HOME or ~/.config)
 */
func ConfigSearchPaths() []string {
	paths := []string{ConfigFileName, SystemConfigPath}
	if dir := UserConfigDir(); dir != "" {
		paths = append(paths, filepath.Join(dir, AppName, ConfigFileName))
	}
	return paths
}

func UserConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

/**
 * Get the user who invoked the tool
 * @returns {string} Invoking user name, empty if it cannot be determined
 * @description
 * - Under sudo the invoking user is $SUDO_USER, not root
 */
func InvokingUser() string {
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
