package service

import (
	"fmt"
	"io"

	"rtunnel/cmd/root"
	"rtunnel/internal/models"
	"rtunnel/internal/utils"
	"rtunnel/services"

	"github.com/iancoleman/orderedmap"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tunnel processes and installed service files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := root.ResolveConfig(cmd)
		if err != nil {
			return err
		}
		status, err := services.NewStatusService(cfg).Status(cmd.Context())
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

/**
 * Print a tunnel status as two tables
 * @param {io.Writer} w - Output
 * @param {models.TunnelStatus} status - Status to print
 * @description
 * - Summary first, then one row per generated artifact
 */
func printStatus(w io.Writer, status models.TunnelStatus) {
	summary := orderedmap.New()
	summary.Set("init", string(status.InitKind))
	summary.Set("signature", status.Signature)
	summary.Set("running", status.Running)
	summary.Set("pids", fmt.Sprint(status.Pids))
	summary.Set("local port open", status.LocalPortOpen)
	if !status.NextCheck.IsZero() {
		summary.Set("next watchdog run", status.NextCheck.Format("2006-01-02 15:04:05"))
	}
	utils.PrintKeyValues(w, summary)

	var rows []*orderedmap.OrderedMap
	for _, a := range status.Artifacts {
		row := orderedmap.New()
		row.Set("FILE", a.Path)
		row.Set("EXISTS", a.Exists)
		rows = append(rows, row)
	}
	utils.FprintFormat(w, rows)
}

func init() {
	root.RootCmd.AddCommand(statusCmd)
}
