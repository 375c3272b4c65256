package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/defilens/debank-mcp/internal/observability"
	"github.com/defilens/debank-mcp/internal/output"
	"github.com/defilens/debank-mcp/internal/tools"
)

const accountUnitsTool = "debank_get_account_units"

var unitsOutput string

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Show API unit balance and usage forecast",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.CLILogger
		format, err := output.ParseFormat(unitsOutput, output.FormatTable)
		if err != nil {
			ExitWithCode(logger, foundry.ExitFailure, "Invalid --output", err)
		}

		cfg := loadConfig(nil)
		client := requireClient(cfg, logger)
		defer client.Close() // nolint:errcheck // Close never fails

		outcome := newRegistry(cfg, client, logger).Invoke(cmd.Context(), accountUnitsTool, nil)
		if err := writeOutcome(cmd.OutOrStdout(), format, outcome); err != nil {
			return err
		}
		if outcome.Failed {
			failure, _ := outcome.Result.(*tools.Failure)
			ExitWithCode(logger, exitCodeForFailure(failure), "Account units lookup failed", nil)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unitsCmd)
	unitsCmd.Flags().StringVarP(&unitsOutput, "output", "o", "table", "output format: table, json, yaml, markdown")
}
