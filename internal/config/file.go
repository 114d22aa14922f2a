package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"rtunnel/internal/models"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Variable names of the shell-sourceable config file.
const (
	VarServerUser      = "SERVER_SSH_USER"
	VarServerHost      = "SERVER_SSH_HOST"
	VarServerPort      = "SERVER_SSH_PORT"
	VarLocalPort       = "LOCAL_SSH_PORT"
	VarForwardPort     = "SERVER_SSH_FORWARD_PORT"
	VarInstallService  = "INSTALL_LOCAL_SERVICE"
	VarLocalUser       = "LOCAL_SERVICE_USER"
	VarMonitorPort     = "MONITOR_PORT"
	VarAliveInterval   = "SERVER_ALIVE_INTERVAL"
	VarAliveCountMax   = "SERVER_ALIVE_COUNT_MAX"
	VarExitOnFwdFailed = "EXIT_ON_FORWARD_FAILURE"
)

const FileMode = 0644

/**
 * Read a config file into a layer
 * @param {afero.Fs} fs - Filesystem to read from
 * @param {string} path - Config file path
 * @returns {Layer} Values set in the file; empty variables are left unset
 * @description
 * - The file is KEY=value lines, "#" starts a comment, values may be quoted
 * - Parsed with viper's dotenv codec so "export KEY=value" is accepted too
 * @throws
 * - ErrInvalidValue for non-numeric ports/counters and unknown booleans
 */
func LoadFile(fs afero.Fs, path string) (Layer, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return Layer{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	layer, err := layerFromLookup(func(key string) string {
		return strings.TrimSpace(v.GetString(key))
	})
	if err != nil {
		return Layer{}, fmt.Errorf("%s: %w", path, err)
	}
	return layer, nil
}

func layerFromLookup(get func(string) string) (Layer, error) {
	var l Layer
	var err error

	str := func(key string) *string {
		if s := get(key); s != "" {
			return &s
		}
		return nil
	}
	num := func(key string) *int {
		s := get(key)
		if s == "" || err != nil {
			return nil
		}
		n, e := strconv.Atoi(s)
		if e != nil {
			err = fmt.Errorf("%w: %s=%q is not an integer", models.ErrInvalidValue, key, s)
			return nil
		}
		return &n
	}
	flag := func(key string) *bool {
		s := get(key)
		if s == "" || err != nil {
			return nil
		}
		b, e := ParseBool(s)
		if e != nil {
			err = fmt.Errorf("%w: %s=%q is not a boolean", models.ErrInvalidValue, key, s)
			return nil
		}
		return &b
	}

	l.ServerUser = str(VarServerUser)
	l.ServerHost = str(VarServerHost)
	l.LocalUser = str(VarLocalUser)
	l.ServerPort = num(VarServerPort)
	l.LocalPort = num(VarLocalPort)
	l.RemotePort = num(VarForwardPort)
	l.MonitorPort = num(VarMonitorPort)
	l.ServerAliveInterval = num(VarAliveInterval)
	l.ServerAliveCountMax = num(VarAliveCountMax)
	l.ExitOnForwardFailure = flag(VarExitOnFwdFailed)
	l.InstallService = flag(VarInstallService)
	if err != nil {
		return Layer{}, err
	}
	return l, nil
}

// ParseBool accepts the spellings shell users write: yes/no, on/off, true/false, 1/0.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}

/**
 * Serialize a configuration back to the config file format
 * @param {models.TunnelConfig} cfg - Resolved configuration
 * @returns {[]byte} File content, sourceable by /bin/sh
 */
func Encode(cfg models.TunnelConfig) []byte {
	var buf bytes.Buffer
	buf.WriteString("# rtunnel configuration, sourced by /bin/sh\n")
	buf.WriteString("# Generated file; values here are overridden by command line flags.\n")
	fmt.Fprintf(&buf, "%s=%s\n", VarServerUser, shellQuote(cfg.ServerUser))
	fmt.Fprintf(&buf, "%s=%s\n", VarServerHost, shellQuote(cfg.ServerHost))
	fmt.Fprintf(&buf, "%s=%d\n", VarServerPort, cfg.ServerPort)
	fmt.Fprintf(&buf, "%s=%d\n", VarLocalPort, cfg.LocalPort)
	fmt.Fprintf(&buf, "%s=%d\n", VarForwardPort, cfg.RemotePort)
	fmt.Fprintf(&buf, "%s=%s\n", VarInstallService, strconv.FormatBool(cfg.InstallService))
	fmt.Fprintf(&buf, "%s=%s\n", VarLocalUser, shellQuote(cfg.LocalUser))
	fmt.Fprintf(&buf, "%s=%d\n", VarMonitorPort, cfg.MonitorPort)
	fmt.Fprintf(&buf, "%s=%d\n", VarAliveInterval, cfg.ServerAliveInterval)
	fmt.Fprintf(&buf, "%s=%d\n", VarAliveCountMax, cfg.ServerAliveCountMax)
	fmt.Fprintf(&buf, "%s=%s\n", VarExitOnFwdFailed, models.YesNo(cfg.ExitOnForwardFailure))
	return buf.Bytes()
}

/**
 * Persist a configuration, overwriting any existing file
 * @param {afero.Fs} fs - Target filesystem
 * @param {string} path - Target path
 * @param {models.TunnelConfig} cfg - Configuration to write
 * @description
 * - Mode is forced to 0644 even when the file already existed with another mode
 */
func WriteFile(fs afero.Fs, path string, cfg models.TunnelConfig) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(fs, path, Encode(cfg), FileMode); err != nil {
		return fmt.Errorf("write config file %s: %w", path, err)
	}
	return fs.Chmod(path, FileMode)
}

// shellQuote 用双引号包裹，转义 sh 在双引号内仍会解释的字符
func shellQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")
	return `"` + r.Replace(s) + `"`
}
