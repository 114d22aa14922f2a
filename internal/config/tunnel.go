package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"rtunnel/internal/env"
	"rtunnel/internal/logger"
	"rtunnel/internal/models"

	"github.com/spf13/afero"
)

/**
 * Partial tunnel configuration, one per configuration source
 * @description
 * - nil means "not set by this source", the previous layer's value is kept
 * - The same type carries config file values and CLI values
 */
type Layer struct {
	ServerUser           *string
	ServerHost           *string
	ServerPort           *int
	LocalPort            *int
	RemotePort           *int
	MonitorPort          *int
	LocalUser            *string
	ServerAliveInterval  *int
	ServerAliveCountMax  *int
	ExitOnForwardFailure *bool
	InstallService       *bool
}

// Defaults returns the built-in values every resolution starts from.
func Defaults() models.TunnelConfig {
	return models.TunnelConfig{
		ServerPort:           22,
		LocalPort:            22,
		RemotePort:           2222,
		MonitorPort:          20000,
		LocalUser:            env.InvokingUser(),
		ServerAliveInterval:  60,
		ServerAliveCountMax:  3,
		ExitOnForwardFailure: true,
		InstallService:       false,
	}
}

/**
 * Overwrite the fields this layer sets
 * @param {models.TunnelConfig} cfg - Configuration produced by the previous layers
 * @returns {models.TunnelConfig} New configuration, cfg itself is not modified
 */
func (l Layer) Apply(cfg models.TunnelConfig) models.TunnelConfig {
	if l.ServerUser != nil {
		cfg.ServerUser = *l.ServerUser
	}
	if l.ServerHost != nil {
		cfg.ServerHost = *l.ServerHost
	}
	if l.ServerPort != nil {
		cfg.ServerPort = *l.ServerPort
	}
	if l.LocalPort != nil {
		cfg.LocalPort = *l.LocalPort
	}
	if l.RemotePort != nil {
		cfg.RemotePort = *l.RemotePort
	}
	if l.MonitorPort != nil {
		cfg.MonitorPort = *l.MonitorPort
	}
	if l.LocalUser != nil {
		cfg.LocalUser = *l.LocalUser
	}
	if l.ServerAliveInterval != nil {
		cfg.ServerAliveInterval = *l.ServerAliveInterval
	}
	if l.ServerAliveCountMax != nil {
		cfg.ServerAliveCountMax = *l.ServerAliveCountMax
	}
	if l.ExitOnForwardFailure != nil {
		cfg.ExitOnForwardFailure = *l.ExitOnForwardFailure
	}
	if l.InstallService != nil {
		cfg.InstallService = *l.InstallService
	}
	return cfg
}

/**
 * Locate the config file to read
 * @param {afero.Fs} fs - Filesystem to probe
 * @param {string} explicit - Path given with --config, may be empty
 * @returns {string} Path of the file to read, empty when none exists
 * @throws
 * - ErrConfigFileNotFound if an explicit path does not exist
 */
func FindConfigFile(fs afero.Fs, explicit string) (string, error) {
	if explicit != "" {
		if _, err := fs.Stat(explicit); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", models.ErrConfigFileNotFound, explicit)
			}
			return "", err
		}
		return explicit, nil
	}
	for _, p := range env.ConfigSearchPaths() {
		fi, err := fs.Stat(p)
		if err == nil && !fi.IsDir() {
			return p, nil
		}
	}
	return "", nil
}

/**
 * Merge defaults, config file and CLI values into the effective configuration
 * @param {afero.Fs} fs - Filesystem the config file is read from
 * @param {models.TunnelConfig} defaults - Lowest precedence values
 * @param {string} explicitPath - --config value, empty to use the search order
 * @param {Layer} cli - Values the user set on the command line
 * @returns {models.TunnelConfig} Resolved configuration
 * @description
 * - Precedence: defaults < config file < CLI, field by field
 * @throws
 * - ErrConfigFileNotFound, ErrInvalidValue, ErrMissingRequiredField
 */
func Resolve(fs afero.Fs, defaults models.TunnelConfig, explicitPath string, cli Layer) (models.TunnelConfig, error) {
	cfg := defaults

	path, err := FindConfigFile(fs, explicitPath)
	if err != nil {
		return models.TunnelConfig{}, err
	}
	if path != "" {
		logger.Infof("Loading config file %s", path)
		file, err := LoadFile(fs, path)
		if err != nil {
			return models.TunnelConfig{}, err
		}
		cfg = file.Apply(cfg)
	} else {
		logger.Debugf("No config file found, using defaults and command line")
	}

	cfg = cli.Apply(cfg)
	if err := Validate(cfg); err != nil {
		return models.TunnelConfig{}, err
	}
	return cfg, nil
}

// 这些值会被写入生成的 sh 脚本
const unsafeChars = " \t\n\"'`$\\;&|<>()*?#"

// Validate checks the invariants of a resolved configuration.
func Validate(cfg models.TunnelConfig) error {
	if cfg.ServerUser == "" {
		return fmt.Errorf("%w: server ssh user (-u/--server-ssh-user or %s)", models.ErrMissingRequiredField, VarServerUser)
	}
	if cfg.ServerHost == "" {
		return fmt.Errorf("%w: server ssh host (-h/--server-ssh-host or %s)", models.ErrMissingRequiredField, VarServerHost)
	}
	for name, value := range map[string]string{
		VarServerUser: cfg.ServerUser,
		VarServerHost: cfg.ServerHost,
		VarLocalUser:  cfg.LocalUser,
	} {
		if strings.ContainsAny(value, unsafeChars) {
			return fmt.Errorf("%w: %s=%q contains shell metacharacters", models.ErrInvalidValue, name, value)
		}
	}
	ports := []struct {
		name string
		port int
	}{
		{VarServerPort, cfg.ServerPort},
		{VarLocalPort, cfg.LocalPort},
		{VarForwardPort, cfg.RemotePort},
		{VarMonitorPort, cfg.MonitorPort},
	}
	for _, p := range ports {
		if p.port < 1 || p.port > 65535 {
			return fmt.Errorf("%w: %s=%d is out of range 1-65535", models.ErrInvalidValue, p.name, p.port)
		}
	}
	if cfg.ServerAliveInterval < 0 {
		return fmt.Errorf("%w: %s must not be negative", models.ErrInvalidValue, VarAliveInterval)
	}
	if cfg.ServerAliveCountMax < 0 {
		return fmt.Errorf("%w: %s must not be negative", models.ErrInvalidValue, VarAliveCountMax)
	}
	return nil
}
