package misc

import (
	"fmt"

	"rtunnel/cmd/root"
	"rtunnel/internal/initsys"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Print the detected init system (bsd, sysv or unknown)",
	Long:  "Print the init system a service install would target. 'unknown' means the cron watchdog fallback.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), initsys.Detect(afero.NewOsFs()))
	},
}

func init() {
	root.RootCmd.AddCommand(detectCmd)
}
