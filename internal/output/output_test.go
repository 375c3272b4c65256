package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type tokenResult struct {
	TotalUSD float64 `json:"total_usd_value"`
	Count    int     `json:"count"`
}

func sampleResult() map[string]any {
	return map[string]any{
		"address":         "0x5853ed4f26a3fcea565b3fbc698bb19cdf6deb85",
		"total_usd_value": 1250000.0,
		"pagination":      map[string]any{"offset": 0, "limit": 50, "has_more": true},
		"tokens": []any{
			map[string]any{"symbol": "ETH", "amount": 1.5, "chain": "eth"},
			map[string]any{"symbol": "USDC", "amount": 200, "chain": "arb|nova"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table", FormatJSON)
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("YML", FormatJSON)
	require.NoError(t, err)
	require.Equal(t, FormatYAML, format)

	format, err = ParseFormat("", FormatJSON)
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	_, err = ParseFormat("csv", FormatJSON)
	require.Error(t, err)
}

func TestRenderJSON(t *testing.T) {
	rendered, err := Render(FormatJSON, tokenResult{TotalUSD: 12.5, Count: 3})
	require.NoError(t, err)
	require.Contains(t, rendered, "\"total_usd_value\": 12.5")
	require.Contains(t, rendered, "\"count\": 3")
}

func TestRenderYAMLUsesJSONNamesAndPlainIntegers(t *testing.T) {
	rendered, err := Render(FormatYAML, sampleResult())
	require.NoError(t, err)
	require.Contains(t, rendered, "total_usd_value: 1250000")
	require.NotContains(t, rendered, "e+06")
	require.Contains(t, rendered, "has_more: true")

	rendered, err = Render(FormatYAML, tokenResult{Count: 2})
	require.NoError(t, err)
	require.Contains(t, rendered, "count: 2")
}

func TestRenderTable(t *testing.T) {
	rendered, err := Render(FormatTable, sampleResult())
	require.NoError(t, err)
	require.Contains(t, rendered, "FIELD")
	require.Contains(t, rendered, "pagination.limit")
	require.Contains(t, rendered, "1250000")
	require.Contains(t, rendered, "tokens")
	require.Contains(t, rendered, "USDC")
}

func TestRenderMarkdown(t *testing.T) {
	rendered, err := Render(FormatMarkdown, sampleResult())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rendered, "| Field | Value |"))
	require.Contains(t, rendered, "### tokens")
	require.Contains(t, rendered, "| amount | chain | symbol |")
	require.Contains(t, rendered, "arb\\|nova")
}

func TestRenderScalarsAndLists(t *testing.T) {
	rendered, err := Render(FormatMarkdown, []any{"eth", "bsc"})
	require.NoError(t, err)
	require.Contains(t, rendered, "| 1 | bsc |")

	rendered, err = Render(FormatMarkdown, "ok")
	require.NoError(t, err)
	require.Contains(t, rendered, "| ok |")

	rendered, err = Render(FormatMarkdown, map[string]any{"ids": []any{"a", "b"}, "note": nil})
	require.NoError(t, err)
	require.Contains(t, rendered, "| ids | a, b |")
	require.Contains(t, rendered, "| note | - |")
}

func TestListSectionCapsColumns(t *testing.T) {
	wide := map[string]any{}
	for _, key := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		wide[key] = 1
	}
	wide["nested"] = map[string]any{"x": 1}

	sec := listSection("wide", []any{wide})
	require.Len(t, sec.header, maxColumns)
	require.NotContains(t, sec.header, "nested")
	require.Equal(t, "a", sec.header[0])
}

func TestRenderTools(t *testing.T) {
	summaries := []ToolSummary{
		{Name: "debank_get_chains", Description: "List supported chains.\nMore detail."},
		{Name: "debank_get_user_balance", Description: "Total balance", Required: []string{"address"}, Optional: []string{"chain_id"}},
	}

	rendered, err := RenderTools(FormatTable, summaries)
	require.NoError(t, err)
	require.Contains(t, rendered, "debank_get_user_balance")
	require.Contains(t, rendered, "List supported chains.")
	require.NotContains(t, rendered, "More detail.")

	rendered, err = RenderTools(FormatJSON, summaries)
	require.NoError(t, err)
	require.Contains(t, rendered, "\"required\": [")

	rendered, err = RenderTools(FormatYAML, summaries)
	require.NoError(t, err)
	require.Contains(t, rendered, "- name: debank_get_chains")
}
