package cmd

import (
	"fmt"
	"io"

	"rtunnel/cmd/root"

	"github.com/spf13/cobra"
)

var SoftwareVer = ""
var BuildTime = ""
var BuildTag = ""
var BuildCommitId = ""

func PrintVersions(w io.Writer) {
	fmt.Fprintf(w, "Version %s\n", SoftwareVer)
	fmt.Fprintf(w, "Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "Build Tag: %s\n", BuildTag)
	fmt.Fprintf(w, "Build Commit ID: %s\n", BuildCommitId)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long:  `The 'version' command shows version details including git commit and build time`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		PrintVersions(cmd.OutOrStdout())
	},
}

func init() {
	root.RootCmd.AddCommand(versionCmd)
	root.RootCmd.Version = SoftwareVer

	versionCmd.Example = `  rtunnel version`
}
