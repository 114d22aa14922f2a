package root

import (
	"context"
	"fmt"

	"rtunnel/internal/config"
	"rtunnel/internal/initsys"
	"rtunnel/internal/logger"
	"rtunnel/internal/models"
	"rtunnel/internal/service"
	"rtunnel/internal/tunnel"
	"rtunnel/internal/utils"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// 命令行参数名，同时用于判断哪些参数被显式设置
const (
	FlagServerUser       = "server-ssh-user"
	FlagServerHost       = "server-ssh-host"
	FlagServerPort       = "server-ssh-port"
	FlagLocalPort        = "local-ssh-port"
	FlagForwardPort      = "server-ssh-forward-port"
	FlagInstallService   = "install-local-service"
	FlagLocalUser        = "local-service-user"
	FlagConfig           = "config"
	FlagMonitorPort      = "monitor-port"
	FlagAliveInterval    = "server-alive-interval"
	FlagAliveCountMax    = "server-alive-count-max"
	FlagExitOnFwdFailure = "exit-on-forward-failure"
	FlagLogLevel         = "log-level"
	FlagLogFile          = "log-file"
)

var RootCmd = &cobra.Command{
	Use:   "rtunnel [flags]",
	Short: "Reverse SSH tunnel configurator",
	Long: `rtunnel opens a reverse SSH tunnel (-R) to a relay server, either in the
foreground or installed as a system service kept alive by autossh.

Settings come from built-in defaults, then the first config file found
(./rtunnel.conf, /etc/rtunnel.conf, ~/.config/rtunnel/rtunnel.conf, or -c FILE),
then command line flags.`,
	Args:              cobra.NoArgs,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := ResolveConfig(cmd)
		if err != nil {
			return err
		}
		return Run(cmd.Context(), cfg)
	},
}

const rootExample = `  # run the tunnel in the foreground
  rtunnel -u alice -h relay.example.com -r 3333

  # install a service that keeps the tunnel open, using /etc/rtunnel.conf
  sudo rtunnel -s -c /etc/rtunnel.conf`

// HelpRequested is set once usage was printed because of --help.
var HelpRequested bool

/**
 * Install or launch the tunnel for a resolved configuration
 * @param {context.Context} ctx - Cancels installer commands
 * @param {models.TunnelConfig} cfg - Resolved configuration
 * @returns {error} Installer errors; on a successful launch the call never returns
 */
func Run(ctx context.Context, cfg models.TunnelConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.InstallService {
		return tunnel.NewLauncher().Run(cfg)
	}

	fs := afero.NewOsFs()
	kind := initsys.Detect(fs)
	logger.Infof("Detected init system: %s", kind)

	res, err := service.NewInstaller(fs, utils.ExecRunner{}).Install(ctx, cfg, kind)
	if err != nil {
		return err
	}
	fmt.Printf("Installed %s service (%s), started with: %s\n", res.Kind, res.Registration, res.StartCommand)
	for _, p := range res.Artifacts {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

/**
 * Resolve the tunnel configuration for a command
 * @param {*cobra.Command} cmd - Command whose flags were parsed
 * @returns {models.TunnelConfig} defaults < config file < command line
 */
func ResolveConfig(cmd *cobra.Command) (models.TunnelConfig, error) {
	layer, err := CLILayer(cmd.Flags())
	if err != nil {
		return models.TunnelConfig{}, err
	}
	configPath, _ := cmd.Flags().GetString(FlagConfig)
	return config.Resolve(afero.NewOsFs(), config.Defaults(), configPath, layer)
}

/**
 * Build the command line layer
 * @param {*pflag.FlagSet} flags - Parsed flags
 * @returns {config.Layer} Only flags the user actually passed are set
 */
func CLILayer(flags *pflag.FlagSet) (config.Layer, error) {
	var l config.Layer
	var err error

	str := func(name string) *string {
		if !flags.Changed(name) || err != nil {
			return nil
		}
		var v string
		v, err = flags.GetString(name)
		return &v
	}
	num := func(name string) *int {
		if !flags.Changed(name) || err != nil {
			return nil
		}
		var v int
		v, err = flags.GetInt(name)
		return &v
	}
	flag := func(name string) *bool {
		if !flags.Changed(name) || err != nil {
			return nil
		}
		var v bool
		v, err = flags.GetBool(name)
		return &v
	}

	l.ServerUser = str(FlagServerUser)
	l.ServerHost = str(FlagServerHost)
	l.ServerPort = num(FlagServerPort)
	l.LocalPort = num(FlagLocalPort)
	l.RemotePort = num(FlagForwardPort)
	l.InstallService = flag(FlagInstallService)
	l.LocalUser = str(FlagLocalUser)
	l.MonitorPort = num(FlagMonitorPort)
	l.ServerAliveInterval = num(FlagAliveInterval)
	l.ServerAliveCountMax = num(FlagAliveCountMax)
	l.ExitOnForwardFailure = flag(FlagExitOnFwdFailure)
	if err != nil {
		return config.Layer{}, err
	}
	return l, nil
}

func setupLogging(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if !flags.Changed(FlagLogLevel) && !flags.Changed(FlagLogFile) {
		return nil
	}
	if flags.Changed(FlagLogLevel) {
		config.Config.Log.Level, _ = flags.GetString(FlagLogLevel)
	}
	if flags.Changed(FlagLogFile) {
		config.Config.Log.Path, _ = flags.GetString(FlagLogFile)
	}
	logger.InitLogger(config.Config.Log.Path, config.Config.Log.Level)
	return nil
}

func flagError(cmd *cobra.Command, err error) error {
	return fmt.Errorf("%w: %v", models.ErrUnknownFlag, err)
}

// AddFlags registers the tunnel and logging flags on pf.
func AddFlags(pf *pflag.FlagSet) {
	pf.SortFlags = false
	pf.StringP(FlagServerUser, "u", "", "SSH user on the relay server")
	pf.StringP(FlagServerHost, "h", "", "Relay server host name or address")
	pf.IntP(FlagServerPort, "p", 22, "sshd port of the relay server")
	pf.IntP(FlagLocalPort, "l", 22, "Local port exposed through the tunnel")
	pf.IntP(FlagForwardPort, "r", 2222, "Port opened on the relay server")
	pf.BoolP(FlagInstallService, "s", false, "Install as a system service instead of running in the foreground")
	pf.StringP(FlagLocalUser, "U", "", "Local account the service runs as (default: invoking user)")
	pf.StringP(FlagConfig, "c", "", "Config file, replaces the default search order")
	pf.Int(FlagMonitorPort, 20000, "autossh monitor port (-M)")
	pf.Int(FlagAliveInterval, 60, "ssh ServerAliveInterval in seconds")
	pf.Int(FlagAliveCountMax, 3, "ssh ServerAliveCountMax")
	pf.Bool(FlagExitOnFwdFailure, true, "ssh ExitOnForwardFailure")
	pf.String(FlagLogLevel, "", "Log level (debug/info/warn/error)")
	pf.String(FlagLogFile, "", "Log file, \"console\" for stderr")
}

func init() {
	// -h 留给 --server-ssh-host，cobra 发现已有 help 参数时不再注册带 -h 的默认参数
	RootCmd.PersistentFlags().Bool("help", false, "help for rtunnel")
	AddFlags(RootCmd.PersistentFlags())
	RootCmd.Example = rootExample
	RootCmd.SetFlagErrorFunc(flagError)

	defaultHelp := RootCmd.HelpFunc()
	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		HelpRequested = true
		defaultHelp(cmd, args)
	})
}
