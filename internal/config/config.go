package config

import (
	"strings"

	"github.com/spf13/viper"
)

/**
 * Status server configuration parameters
 * @property {string} address - Server listening address (e.g. "127.0.0.1:20080")
 * @property {string} socket - Optional unix socket path served in addition to address
 * @property {string} mode - gin mode (debug/release/test)
 */
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Socket  string `mapstructure:"socket"`
	Mode    string `mapstructure:"mode"`
}

/**
 * Logging configuration
 * @property {string} level - Log level (debug/info/warn/error)
 * @property {string} path - Log file path, "console" for stderr
 */
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

/**
 * Watchdog configuration
 * @property {string} schedule - cron expression used for the crontab entry and the in-server watchdog
 */
type WatchdogConfig struct {
	Schedule string `mapstructure:"schedule"`
}

type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Watchdog WatchdogConfig `mapstructure:"watchdog"`
}

const DefaultWatchdogSchedule = "*/5 * * * *"

/**
 * Load tool settings from the environment
 * @returns {*AppConfig} Settings with defaults applied
 * @description
 * - Every key can be overridden by RTUNNEL_<SECTION>_<KEY>, e.g. RTUNNEL_LOG_LEVEL
 * - These settings never affect the tunnel itself, see Resolve for that
 */
func LoadConfig() (*AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("RTUNNEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", "127.0.0.1:20080")
	v.SetDefault("server.socket", "")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.path", "console")
	v.SetDefault("watchdog.schedule", DefaultWatchdogSchedule)

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var Config AppConfig

func init() {
	cfg, err := LoadConfig()
	if err == nil {
		Config = *cfg
	}
}
