package tunnel

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"rtunnel/internal/models"
)

const (
	AutosshBin = "autossh"
	SSHBin     = "ssh"
)

/**
 * Tunnel command line
 * @property {string} Path - Resolved executable path
 * @property {[]string} Args - Arguments, without argv[0]
 * @property {bool} Autossh - true when Path is autossh
 */
type Command struct {
	Path    string
	Args    []string
	Autossh bool
}

// Argv returns the full argument vector, argv[0] included.
func (c Command) Argv() []string {
	name := AutosshBin
	if !c.Autossh {
		name = SSHBin
	}
	return append([]string{name}, c.Args...)
}

func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

/**
 * ssh arguments for a reverse tunnel
 * @param {models.TunnelConfig} cfg - Resolved configuration
 * @returns {[]string} Arguments understood by both ssh and autossh
 * @example
 * SSHArgs(cfg)
 * // -N -o ServerAliveInterval=60 -o ServerAliveCountMax=3 -o ExitOnForwardFailure=yes
 * // -R 2222:localhost:22 -p 22 alice@example.com
 */
func SSHArgs(cfg models.TunnelConfig) []string {
	return []string{
		"-N",
		"-o", fmt.Sprintf("ServerAliveInterval=%d", cfg.ServerAliveInterval),
		"-o", fmt.Sprintf("ServerAliveCountMax=%d", cfg.ServerAliveCountMax),
		"-o", "ExitOnForwardFailure=" + models.YesNo(cfg.ExitOnForwardFailure),
		"-R", cfg.Forward(),
		"-p", strconv.Itoa(cfg.ServerPort),
		cfg.Destination(),
	}
}

// AutosshArgs prefixes SSHArgs with the autossh monitor port.
func AutosshArgs(cfg models.TunnelConfig) []string {
	return append([]string{"-M", strconv.Itoa(cfg.MonitorPort)}, SSHArgs(cfg)...)
}

/**
 * Build the tunnel command, preferring autossh over plain ssh
 * @param {models.TunnelConfig} cfg - Resolved configuration
 * @param {func(string) (string, error)} lookPath - Executable lookup, usually exec.LookPath
 * @returns {Command} Command ready to exec
 * @throws
 * - Error when neither autossh nor ssh is on PATH
 */
func BuildCommand(cfg models.TunnelConfig, lookPath func(string) (string, error)) (Command, error) {
	if p, err := lookPath(AutosshBin); err == nil {
		return Command{Path: p, Args: AutosshArgs(cfg), Autossh: true}, nil
	}
	p, err := lookPath(SSHBin)
	if err != nil {
		return Command{}, fmt.Errorf("neither %s nor %s found in PATH: %w", AutosshBin, SSHBin, err)
	}
	return Command{Path: p, Args: SSHArgs(cfg)}, nil
}

// Signature identifies the tunnel process in a process list.
func Signature(cfg models.TunnelConfig) string {
	return cfg.Forward()
}

/**
 * Check whether a command line belongs to the tunnel
 * @param {[]string} args - Command line of a process
 * @param {string} signature - Value of Signature()
 * @returns {bool} true if args forward the signature with -R
 */
func MatchSignature(args []string, signature string) bool {
	for i, arg := range args {
		if arg == "-R"+signature {
			return true
		}
		if arg == "-R" && i+1 < len(args) && args[i+1] == signature {
			return true
		}
	}
	return false
}

// IsClient reports whether argv0 names ssh or autossh.
func IsClient(argv0 string) bool {
	switch filepath.Base(argv0) {
	case AutosshBin, SSHBin:
		return true
	}
	return false
}
