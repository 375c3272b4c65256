package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/defilens/debank-mcp/internal/observability"
	"github.com/defilens/debank-mcp/internal/output"
	"github.com/defilens/debank-mcp/internal/tools"
)

var (
	callArgs   []string
	callJSON   string
	callOutput string
)

var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Invoke one tool and print its result",
	Long: `Invoke a single tool with the same handler the MCP transports use.

Arguments come from --json (an object) and repeated --arg key=value flags;
--arg wins on conflicts. Values that parse as JSON (numbers, booleans,
arrays) keep that type, everything else is a string.

Examples:
  debank-mcp call debank_get_chains
  debank-mcp call debank_get_user_balance --arg address=0x5853ed4f26a3fcea565b3fbc698bb19cdf6deb85
  debank-mcp call debank_get_user_tokens --json '{"address":"0x...","limit":10}' -o table`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.CLILogger

		format, err := output.ParseFormat(callOutput, output.FormatJSON)
		if err != nil {
			ExitWithCode(logger, foundry.ExitFailure, "Invalid --output", err)
		}
		toolArgs, err := parseToolArgs(callJSON, callArgs)
		if err != nil {
			ExitWithCode(logger, foundry.ExitFailure, "Invalid tool arguments", err)
		}

		cfg := loadConfig(nil)
		client := requireClient(cfg, logger)
		defer client.Close() // nolint:errcheck // Close never fails

		registry := newRegistry(cfg, client, logger)
		outcome := registry.Invoke(cmd.Context(), args[0], toolArgs)

		if err := writeOutcome(cmd.OutOrStdout(), format, outcome); err != nil {
			return err
		}
		if outcome.Failed {
			var cause error
			failure, _ := outcome.Result.(*tools.Failure)
			if failure != nil {
				cause = fmt.Errorf("%s: %s", failure.Error, failure.Message)
			}
			ExitWithCode(logger, exitCodeForFailure(failure), "Tool call failed", cause)
		}
		logger.Debug("Tool call finished",
			zap.String("call_id", outcome.CallID),
			zap.Duration("duration", outcome.Duration))
		return nil
	},
}

// parseToolArgs merges a JSON object with key=value pairs.
func parseToolArgs(rawJSON string, pairs []string) (map[string]any, error) {
	out := map[string]any{}
	if strings.TrimSpace(rawJSON) != "" {
		if err := json.Unmarshal([]byte(rawJSON), &out); err != nil {
			return nil, fmt.Errorf("--json must be a JSON object: %w", err)
		}
		if out == nil {
			out = map[string]any{}
		}
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--arg %q must be key=value", pair)
		}
		out[key] = parseArgValue(value)
	}
	return out, nil
}

// parseArgValue keeps JSON values typed and unquotes JSON strings. Hex
// strings such as addresses never parse as JSON and stay strings; a bare
// null stays the literal text.
func parseArgValue(raw string) any {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		switch v := decoded.(type) {
		case string, float64, bool, []any, map[string]any:
			return v
		}
	}
	return raw
}

func writeOutcome(w io.Writer, format output.Format, outcome tools.Outcome) error {
	rendered, err := output.Render(format, outcome.Result)
	if err != nil {
		return fmt.Errorf("render result: %w", err)
	}
	_, err = fmt.Fprintln(w, rendered)
	return err
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().StringArrayVar(&callArgs, "arg", nil, "tool argument as key=value (repeatable)")
	callCmd.Flags().StringVar(&callJSON, "json", "", "tool arguments as a JSON object")
	callCmd.Flags().StringVarP(&callOutput, "output", "o", "json", "output format: json, yaml, table, markdown")
}
