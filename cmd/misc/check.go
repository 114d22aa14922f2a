package misc

import (
	"rtunnel/cmd/root"
	"rtunnel/internal/utils"
	"rtunnel/services"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Relaunch the tunnel if it is not running",
	Long: `Run one watchdog pass: look for an ssh/autossh process forwarding the
configured port and start autossh in the background when none is found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := root.ResolveConfig(cmd)
		if err != nil {
			return err
		}
		res, err := services.NewStatusService(cfg).Check(cmd.Context())
		if err != nil {
			return err
		}
		rec, err := utils.StructToOrderedMap(res)
		if err != nil {
			return err
		}
		utils.PrintKeyValues(cmd.OutOrStdout(), rec)
		return nil
	},
}

const checkExample = `  # suitable for a crontab entry
  rtunnel check -c /etc/rtunnel.conf`

func init() {
	root.RootCmd.AddCommand(checkCmd)
	checkCmd.Example = checkExample
}
