package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	"github.com/defilens/debank-mcp/internal/debank"
	"github.com/defilens/debank-mcp/internal/validate"
)

// SimulationChains lists the chains DeBank can pre-execute transactions on.
var SimulationChains = []string{
	"astar", "avax", "boba", "bsc", "cro", "eth", "ftm", "hmy",
	"matic", "metis", "mobm", "movr", "nova", "op", "sdn", "xdai",
}

var requiredTxFields = []string{"chainId", "from", "to", "value", "data"}

// Gas units for common operations, used to turn a gas price into a cost estimate.
const (
	gasSimpleTransfer = 21000
	gasTokenTransfer  = 65000
	gasSwap           = 150000

	weiPerGwei = 1_000_000_000
)

func advancedTools(h *handlers) []Tool {
	return []Tool{
		{
			Definition: mcp.NewTool("debank_get_user_net_curve",
				mcp.WithDescription("Get a wallet's 24h net worth curve with start, end, change and trend."),
				mcp.WithString("address", mcp.Required(), mcp.Description("Wallet address (0x prefixed)")),
				mcp.WithString("chain_id", mcp.Description("Single chain curve. Cannot be combined with chain_ids.")),
				mcp.WithString("chain_ids", mcp.Description("Comma-separated chains to include in the total curve")),
			),
			Handler: h.netCurve,
		},
		{
			Definition: mcp.NewTool("debank_get_pool_info",
				mcp.WithDescription("Get liquidity pool statistics: TVL, depositor counts and average deposit."),
				mcp.WithString("pool_id", mcp.Required(), mcp.Description("Pool contract address (0x prefixed)")),
				mcp.WithString("chain_id", mcp.Required(), mcp.Description("Chain ID (e.g. 'eth')")),
			),
			Handler: h.poolInfo,
		},
		{
			Definition: mcp.NewTool("debank_simulate_transaction",
				mcp.WithDescription("Simulate a transaction before signing it. Returns predicted balance changes, gas usage "+
					"and a safety analysis with a risk level, warnings and recommendations. "+
					"Supported chains: "+strings.Join(SimulationChains, ", ")+"."),
				mcp.WithObject("transaction_data",
					mcp.Required(),
					mcp.Description("Transaction with chainId, from, to, value and data (plus optional gas, gasPrice, nonce)")),
				mcp.WithArray("pending_transactions",
					mcp.Description("Transactions to execute before this one"),
					mcp.Items(map[string]any{"type": "object"})),
				mcp.WithBoolean("explain_only",
					mcp.Description("Describe the transaction without simulating balances (default false)")),
			),
			Handler: h.simulate,
		},
		{
			Definition: mcp.NewTool("debank_get_gas_prices",
				mcp.WithDescription("Get current gas price tiers for a chain with cost estimates for common operations."),
				mcp.WithString("chain_id", mcp.Required(), mcp.Description("Chain ID (e.g. 'eth')")),
			),
			Handler: h.gasPrices,
		},
		{
			Definition: mcp.NewTool("debank_get_account_units",
				mcp.WithDescription("Get the remaining DeBank API units and 30 day usage with a runway estimate."),
			),
			Handler: h.accountUnits,
		},
		{
			Definition: mcp.NewTool("debank_get_user_social",
				mcp.WithDescription("DeBank Connect social data (profile, followers, following). "+
					"Requires OAuth, which is not supported; returns alternatives."),
				mcp.WithString("access_token", mcp.Required(), mcp.Description("OAuth bearer token")),
				mcp.WithString("social_type",
					mcp.Description("'profile' (default), 'followers' or 'following'"),
					mcp.Enum("profile", "followers", "following")),
				mcp.WithNumber("limit", mcp.Description("Results to return (default 20)")),
				mcp.WithNumber("offset", mcp.Description("Results to skip (default 0)")),
			),
			Handler: h.userSocial,
		},
	}
}

type netCurveArgs struct {
	Address  string `mapstructure:"address"`
	ChainID  string `mapstructure:"chain_id"`
	ChainIDs string `mapstructure:"chain_ids"`
}

// CurveSummary compares the first and last points of a net worth curve.
type CurveSummary struct {
	StartValueUSD float64 `json:"start_value_usd"`
	EndValueUSD   float64 `json:"end_value_usd"`
	ChangeUSD     float64 `json:"change_usd"`
	ChangePercent float64 `json:"change_percent"`
	Trend         string  `json:"trend"`
}

func summarizeCurve(points []any) *CurveSummary {
	if len(points) == 0 {
		return nil
	}
	first := number(path(points[0], "usd_value"))
	last := number(path(points[len(points)-1], "usd_value"))
	change := last - first

	pct := 0.0
	if first > 0 {
		pct = change / first * 100
	}
	trend := "flat"
	switch {
	case change > 0:
		trend = "up"
	case change < 0:
		trend = "down"
	}
	return &CurveSummary{
		StartValueUSD: first,
		EndValueUSD:   last,
		ChangeUSD:     change,
		ChangePercent: round(pct, 2),
		Trend:         trend,
	}
}

func (h *handlers) netCurve(ctx context.Context, args map[string]any) (any, error) {
	var p netCurveArgs
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	address, err := validate.HexPrefixed("address", p.Address)
	if err != nil {
		return nil, err
	}
	chainID := strings.TrimSpace(p.ChainID)
	chainIDs := splitList(p.ChainIDs)
	if err := validate.Exclusive("chain_id", chainID != "", "chain_ids", len(chainIDs) > 0); err != nil {
		return nil, err
	}

	var result any
	if chainID != "" {
		result, err = debank.ChainNetCurve(ctx, h.api, address, chainID)
	} else {
		result, err = debank.TotalNetCurve(ctx, h.api, address, chainIDs)
	}
	if err != nil {
		return nil, err
	}

	points := asList(result)
	if points == nil {
		points = []any{}
	}
	return map[string]any{
		"success":     true,
		"address":     address,
		"chain_id":    orAllChains(chainID),
		"data_points": points,
		"count":       len(points),
		"summary":     summarizeCurve(points),
	}, nil
}

type poolArgs struct {
	PoolID  string `mapstructure:"pool_id"`
	ChainID string `mapstructure:"chain_id"`
}

// PoolSummary derives per-user figures from pool stats.
type PoolSummary struct {
	TotalValueLockedUSD float64 `json:"total_value_locked_usd"`
	TotalUsers          float64 `json:"total_users"`
	ValuableUsers       float64 `json:"valuable_users"`
	AverageDepositUSD   float64 `json:"average_deposit_usd"`
	ValuableUserRatio   float64 `json:"valuable_user_ratio_pct"`
	Protocol            string  `json:"protocol"`
	PoolName            string  `json:"pool_name"`
}

func (h *handlers) poolInfo(ctx context.Context, args map[string]any) (any, error) {
	var p poolArgs
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	poolID, err := validate.HexPrefixed("pool_id", p.PoolID)
	if err != nil {
		return nil, err
	}
	chainID, err := validate.ChainID("chain_id", p.ChainID)
	if err != nil {
		return nil, err
	}

	result, err := debank.Pool(ctx, h.api, poolID, chainID)
	if err != nil {
		return nil, err
	}
	pool := asMap(result)
	if pool == nil {
		return map[string]any{"pool": result}, nil
	}

	stats, ok := pool["stats"]
	if !ok {
		return pool, nil
	}
	tvl := number(path(stats, "deposit_usd_value"))
	users := number(path(stats, "deposit_user_count"))
	valuable := number(path(stats, "deposit_valuable_user_count"))

	var avg, ratio float64
	if users > 0 {
		avg = tvl / users
		ratio = valuable / users * 100
	}
	pool["summary"] = PoolSummary{
		TotalValueLockedUSD: tvl,
		TotalUsers:          users,
		ValuableUsers:       valuable,
		AverageDepositUSD:   round(avg, 2),
		ValuableUserRatio:   round(ratio, 2),
		Protocol:            text(pool["protocol_id"], "unknown"),
		PoolName:            text(pool["name"], "unknown"),
	}
	return pool, nil
}

type simulateArgs struct {
	TransactionData     map[string]any   `mapstructure:"transaction_data"`
	PendingTransactions []map[string]any `mapstructure:"pending_transactions"`
	ExplainOnly         bool             `mapstructure:"explain_only"`
}

func (h *handlers) simulate(ctx context.Context, args map[string]any) (any, error) {
	var p simulateArgs
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	tx := p.TransactionData
	if tx == nil {
		return nil, &validate.Error{Field: "transaction_data", Message: "transaction_data is required"}
	}

	var missing []string
	for _, field := range requiredTxFields {
		if _, ok := tx[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &validate.Error{
			Field: "transaction_data",
			Message: fmt.Sprintf("Transaction missing required fields: %s. Required: %s",
				strings.Join(missing, ", "), strings.Join(requiredTxFields, ", ")),
		}
	}
	for _, field := range []string{"from", "to"} {
		if !strings.HasPrefix(text(tx[field], ""), "0x") {
			return nil, &validate.Error{
				Field:   "transaction_data." + field,
				Message: fmt.Sprintf("transaction '%s' address must start with 0x", field),
			}
		}
	}

	chainID := text(tx["chainId"], fmt.Sprint(tx["chainId"]))
	if !simulationSupported(chainID) {
		return map[string]any{
			"error": "unsupported_chain",
			"message": fmt.Sprintf("Chain '%s' does not support transaction simulation. Supported chains: %s",
				chainID, strings.Join(SimulationChains, ", ")),
			"supported_chains": SimulationChains,
			"transaction":      tx,
		}, nil
	}

	var result any
	var err error
	if p.ExplainOnly {
		result, err = debank.ExplainTx(ctx, h.api, tx, p.PendingTransactions)
	} else {
		result, err = debank.PreExecTx(ctx, h.api, tx, p.PendingTransactions)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return simulationFailure(err, tx), nil
	}

	body := asMap(result)
	if body == nil {
		return map[string]any{"data": result}, nil
	}
	if !p.ExplainOnly {
		if analysis, err := h.analyzer.AnalyzeRaw(body); err == nil {
			body["safety_analysis"] = analysis
		}
	}
	return body, nil
}

func simulationSupported(chainID string) bool {
	idx := sort.SearchStrings(SimulationChains, chainID)
	return idx < len(SimulationChains) && SimulationChains[idx] == chainID
}

func simulationFailure(err error, tx map[string]any) map[string]any {
	failure := map[string]any{
		"error":       "simulation_failed",
		"message":     err.Error(),
		"transaction": tx,
		"note": "DeBank transaction simulation API has specific format requirements. " +
			"This feature may require direct interaction with DeBank's web interface " +
			"or a more specialized transaction simulation service.",
		"alternatives": []string{
			"Use Tenderly or Blocknative for transaction simulation",
			"Test transactions on testnets before mainnet",
			"Use read-only calls for view/pure functions",
			"Check gas estimation with eth_estimateGas",
		},
	}
	if kind := debank.KindOf(err); kind != "" {
		failure["kind"] = string(kind)
	}
	return failure
}

type gasArgs struct {
	ChainID string `mapstructure:"chain_id"`
}

// GasEstimate is a typical gas cost for one kind of operation.
type GasEstimate struct {
	GasUnits    int    `json:"gas_units"`
	Description string `json:"description"`
}

func gasEstimates() map[string]any {
	return map[string]any{
		"simple_transfer": GasEstimate{GasUnits: gasSimpleTransfer, Description: "Simple ETH/native token transfer"},
		"token_transfer":  GasEstimate{GasUnits: gasTokenTransfer, Description: "ERC-20 token transfer"},
		"swap":            GasEstimate{GasUnits: gasSwap, Description: "Token swap on DEX"},
		"note":            "Multiply gas_units by price_gwei and divide by 1B to get cost in native token",
	}
}

func (h *handlers) gasPrices(ctx context.Context, args map[string]any) (any, error) {
	var p gasArgs
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	chainID, err := validate.ChainID("chain_id", p.ChainID)
	if err != nil {
		return nil, err
	}

	result, err := debank.GasMarket(ctx, h.api, chainID)
	if err != nil {
		return nil, err
	}

	switch data := result.(type) {
	case []any:
		for _, tier := range data {
			m := asMap(tier)
			if m == nil {
				continue
			}
			if price, ok := m["price"]; ok {
				m["price_gwei"] = decimal.NewFromFloat(number(price)).
					Div(decimal.NewFromInt(weiPerGwei)).InexactFloat64()
			}
		}
		return map[string]any{
			"success":   true,
			"gas_tiers": data,
			"estimates": gasEstimates(),
			"chain":     chainID,
		}, nil
	case map[string]any:
		return data, nil
	default:
		return map[string]any{"success": true, "gas_data": result, "chain": chainID}, nil
	}
}

// PeakDay is the heaviest usage day in the stats window.
type PeakDay struct {
	Date  any     `json:"date"`
	Usage float64 `json:"usage"`
}

// UsageAnalysis projects how long the unit balance lasts at the current rate.
type UsageAnalysis struct {
	Total30DayUsage float64 `json:"total_30day_usage"`
	AvgDailyUsage   float64 `json:"avg_daily_usage"`
	// DaysRemaining is a number of days or the string "unlimited".
	DaysRemaining  any     `json:"days_remaining_at_current_rate"`
	PeakDay        PeakDay `json:"peak_day"`
	Recommendation string  `json:"recommendation"`
}

// AnalyzeUsage summarizes daily usage stats against a unit balance.
func AnalyzeUsage(balance float64, stats []any) UsageAnalysis {
	var total float64
	peak := PeakDay{Date: "unknown", Usage: math.Inf(-1)}
	for _, day := range stats {
		usage := number(path(day, "usage"))
		total += usage
		if usage > peak.Usage {
			peak = PeakDay{Date: path(day, "date"), Usage: usage}
		}
	}
	if peak.Date == nil {
		peak.Date = "unknown"
	}
	if math.IsInf(peak.Usage, -1) {
		peak.Usage = 0
	}

	var avg float64
	if len(stats) > 0 {
		avg = total / float64(len(stats))
	}

	analysis := UsageAnalysis{
		Total30DayUsage: total,
		AvgDailyUsage:   round(avg, 1),
		DaysRemaining:   "unlimited",
		PeakDay:         peak,
		Recommendation:  UsageRecommendation(balance, avg),
	}
	if avg > 0 {
		analysis.DaysRemaining = round(balance/avg, 1)
	}
	return analysis
}

// UsageRecommendation grades the unit runway.
func UsageRecommendation(balance, avgDaily float64) string {
	if avgDaily == 0 {
		return "No recent usage detected. Your balance is stable."
	}
	days := balance / avgDaily
	switch {
	case days < 7:
		return fmt.Sprintf("WARNING: Only %.1f days of usage remaining at current rate. Consider purchasing more units.", days)
	case days < 14:
		return fmt.Sprintf("CAUTION: %.1f days of usage remaining. Monitor your consumption closely.", days)
	case days < 30:
		return fmt.Sprintf("GOOD: %.1f days of usage remaining. Your balance is adequate.", days)
	default:
		return fmt.Sprintf("EXCELLENT: %.1f days of usage remaining. Your balance is healthy.", days)
	}
}

func (h *handlers) accountUnits(ctx context.Context, _ map[string]any) (any, error) {
	result, err := debank.AccountUnits(ctx, h.api)
	if err != nil {
		return nil, err
	}
	body := asMap(result)
	if body == nil {
		return map[string]any{"data": result}, nil
	}
	if stats := asList(body["stats"]); len(stats) > 0 {
		body["usage_analysis"] = AnalyzeUsage(number(body["balance"]), stats)
	}
	return body, nil
}

type socialArgs struct {
	AccessToken string `mapstructure:"access_token"`
	SocialType  string `mapstructure:"social_type"`
	Limit       int    `mapstructure:"limit"`
	Offset      int    `mapstructure:"offset"`
}

func (h *handlers) userSocial(_ context.Context, args map[string]any) (any, error) {
	p := socialArgs{SocialType: "profile", Limit: 20}
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}

	return map[string]any{
		"error": "OAuth not implemented",
		"message": "DeBank Connect social features require OAuth authentication which is not yet supported. " +
			"Use API Pro endpoints for blockchain data instead.",
		"status":      "not_implemented",
		"social_type": p.SocialType,
		"available_alternatives": []map[string]string{
			{"tool": "debank_get_user_balance", "description": "Get total portfolio value across all chains"},
			{"tool": "debank_get_user_tokens", "description": "List all tokens held by an address"},
			{"tool": "debank_get_user_protocols", "description": "View DeFi positions (lending, staking, LP, etc.)"},
			{"tool": "debank_get_user_nfts", "description": "Get NFT collections and holdings"},
		},
		"future_support": map[string]any{
			"planned": true,
			"features": []string{
				"User profile retrieval",
				"Follower list access",
				"Following list access",
				"Social network analysis",
			},
			"requirements": []string{
				"OAuth 2.0 implementation",
				"DeBank Connect API access",
				"User authorization flow",
			},
		},
	}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
