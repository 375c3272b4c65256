package cmd

import (
	"fmt"
	"sort"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/defilens/debank-mcp/internal/observability"
	"github.com/defilens/debank-mcp/internal/output"
	"github.com/defilens/debank-mcp/internal/tools"
)

var toolsOutput string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the MCP tools this server advertises",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(toolsOutput, output.FormatTable)
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitFailure, "Invalid --output", err)
		}

		// Listing never reaches the upstream, so no client or key is needed.
		cfg := loadConfig(nil)
		registry := newRegistry(cfg, nil, nil)

		rendered, err := output.RenderTools(format, toolSummaries(registry))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func toolSummaries(registry *tools.Registry) []output.ToolSummary {
	all := registry.Tools()
	summaries := make([]output.ToolSummary, 0, len(all))
	for _, tool := range all {
		schema := tool.Definition.InputSchema
		required := map[string]bool{}
		for _, name := range schema.Required {
			required[name] = true
		}
		var optional []string
		for name := range schema.Properties {
			if !required[name] {
				optional = append(optional, name)
			}
		}
		sort.Strings(optional)

		summaries = append(summaries, output.ToolSummary{
			Name:        tool.Name(),
			Description: tool.Definition.Description,
			Required:    append([]string(nil), schema.Required...),
			Optional:    optional,
		})
	}
	return summaries
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.Flags().StringVarP(&toolsOutput, "output", "o", "table", "output format: table, json, yaml, markdown")
}
