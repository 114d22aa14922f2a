package service

import (
	"errors"
	"fmt"

	"rtunnel/cmd/root"
	"rtunnel/internal/config"
	"rtunnel/internal/initsys"
	"rtunnel/internal/logger"
	"rtunnel/internal/models"
	"rtunnel/internal/proc"
	installer "rtunnel/internal/service"
	"rtunnel/internal/tunnel"
	"rtunnel/internal/utils"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the installed tunnel service",
	Long: `Stop the tunnel service and remove what 'rtunnel -s' installed for the
detected init system. /etc/rtunnel.conf is kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return uninstall(cmd)
	},
}

func uninstall(cmd *cobra.Command) error {
	fs := afero.NewOsFs()
	kind := initsys.Detect(fs)

	cfg, err := root.ResolveConfig(cmd)
	resolved := err == nil
	if err != nil {
		if !errors.Is(err, models.ErrMissingRequiredField) {
			return err
		}
		// 只需要本地用户来清理 crontab
		layer, lerr := root.CLILayer(cmd.Flags())
		if lerr != nil {
			return lerr
		}
		cfg = layer.Apply(config.Defaults())
	}

	removed, err := installer.NewInstaller(fs, utils.ExecRunner{}).Uninstall(cmd.Context(), kind, cfg.LocalUser)
	if err != nil {
		return err
	}
	for _, p := range removed {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", p)
	}

	// cron 方式启动的 autossh 不受任何服务管理
	if kind == models.InitUnknown && resolved {
		pids, err := proc.StopBySignature(cmd.Context(), proc.ProcessFinder{}, tunnel.Signature(cfg))
		if err != nil {
			logger.Warnf("Stop tunnel processes failed: %v", err)
		}
		for _, pid := range pids {
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped tunnel process %d\n", pid)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled %s service\n", kind)
	return nil
}

func init() {
	root.RootCmd.AddCommand(uninstallCmd)
}
