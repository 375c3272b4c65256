package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/defilens/debank-mcp/internal/server/handlers"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Crucible and Go versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		v := handlers.CurrentVersion()

		fmt.Fprintf(out, "%s %s\n", v.App.Name, v.App.Version)
		if !extended {
			return nil
		}
		fmt.Fprintf(out, "Commit: %s\n", v.App.Commit)
		fmt.Fprintf(out, "Built: %s\n", v.App.BuildDate)
		fmt.Fprintf(out, "Go: %s (%s)\n\n", v.App.GoVersion, v.Runtime.Platform)
		fmt.Fprintf(out, "Gofulmen: %s\n", v.Dependencies.Gofulmen)
		fmt.Fprintf(out, "Crucible: %s\n", v.Dependencies.Crucible)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
