package misc

import (
	"fmt"

	"rtunnel/cmd/root"
	"rtunnel/internal/config"
	"rtunnel/internal/utils"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or save the resolved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long:  "Show the configuration after merging defaults, the config file and command line flags.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := root.ResolveConfig(cmd)
		if err != nil {
			return err
		}
		rec, err := utils.StructToOrderedMap(cfg)
		if err != nil {
			return err
		}
		utils.PrintKeyValues(cmd.OutOrStdout(), rec)
		return nil
	},
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the resolved configuration in config file format",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := root.ResolveConfig(cmd)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" || output == "-" {
			_, err = cmd.OutOrStdout().Write(config.Encode(cfg))
			return err
		}
		if err := config.WriteFile(afero.NewOsFs(), output, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", output)
		return nil
	},
}

const configExample = `  # show what a run with these flags would use
  rtunnel config show -u alice -h relay.example.com

  # turn command line flags into a config file
  rtunnel config write -u alice -h relay.example.com -r 3333 -o ./rtunnel.conf`

func init() {
	configWriteCmd.Flags().StringP("output", "o", "", "Output file, stdout when empty")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configWriteCmd)
	root.RootCmd.AddCommand(configCmd)
	configCmd.Example = configExample
}
