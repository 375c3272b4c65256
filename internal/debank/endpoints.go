package debank

import (
	"context"
	"strings"
)

// Caller is the request surface shared by Client and test doubles.
type Caller interface {
	Get(ctx context.Context, endpoint string, params Params) (any, error)
	Post(ctx context.Context, endpoint string, body any) (any, error)
}

var _ Caller = (*Client)(nil)

// Endpoint paths used by more than one caller.
const (
	PathGasMarket     = "/v1/wallet/gas_market"
	PathTotalNetCurve = "/v1/user/total_net_curve"
	PathChainNetCurve = "/v1/user/chain_net_curve"
	PathPool          = "/v1/pool"
	PathAccountUnits  = "/v1/account/units"
	PathExplainTx     = "/v1/wallet/explain_tx"
	PathPreExecTx     = "/v1/wallet/pre_exec_tx"
)

// GasMarket returns the gas price tiers for a chain.
func GasMarket(ctx context.Context, c Caller, chainID string) (any, error) {
	return c.Get(ctx, PathGasMarket, Params{"chain_id": chainID})
}

// TotalNetCurve returns the 24h net worth curve across all chains, or across
// chainIDs when any are given.
func TotalNetCurve(ctx context.Context, c Caller, addr string, chainIDs []string) (any, error) {
	params := Params{"id": addr}
	if len(chainIDs) > 0 {
		params["chain_ids"] = strings.Join(chainIDs, ",")
	}
	return c.Get(ctx, PathTotalNetCurve, params)
}

// ChainNetCurve returns the 24h net worth curve for one chain.
func ChainNetCurve(ctx context.Context, c Caller, addr, chainID string) (any, error) {
	return c.Get(ctx, PathChainNetCurve, Params{"id": addr, "chain_id": chainID})
}

// Pool returns liquidity pool statistics.
func Pool(ctx context.Context, c Caller, poolID, chainID string) (any, error) {
	return c.Get(ctx, PathPool, Params{"id": poolID, "chain_id": chainID})
}

// AccountUnits returns the API unit balance and 30 day usage.
func AccountUnits(ctx context.Context, c Caller) (any, error) {
	return c.Get(ctx, PathAccountUnits, nil)
}

// ExplainTx asks the upstream to describe a transaction without executing it.
func ExplainTx(ctx context.Context, c Caller, tx map[string]any, pending []map[string]any) (any, error) {
	return c.Post(ctx, PathExplainTx, txBody(tx, pending))
}

// PreExecTx simulates a transaction and returns balance changes and gas usage.
func PreExecTx(ctx context.Context, c Caller, tx map[string]any, pending []map[string]any) (any, error) {
	return c.Post(ctx, PathPreExecTx, txBody(tx, pending))
}

func txBody(tx map[string]any, pending []map[string]any) map[string]any {
	body := map[string]any{"tx": tx}
	if len(pending) > 0 {
		body["pending_tx_list"] = pending
	}
	return body
}

func (c *Client) GasMarket(ctx context.Context, chainID string) (any, error) {
	return GasMarket(ctx, c, chainID)
}

func (c *Client) TotalNetCurve(ctx context.Context, addr string, chainIDs []string) (any, error) {
	return TotalNetCurve(ctx, c, addr, chainIDs)
}

func (c *Client) ChainNetCurve(ctx context.Context, addr, chainID string) (any, error) {
	return ChainNetCurve(ctx, c, addr, chainID)
}

func (c *Client) Pool(ctx context.Context, poolID, chainID string) (any, error) {
	return Pool(ctx, c, poolID, chainID)
}

func (c *Client) AccountUnits(ctx context.Context) (any, error) {
	return AccountUnits(ctx, c)
}

func (c *Client) ExplainTx(ctx context.Context, tx map[string]any, pending []map[string]any) (any, error) {
	return ExplainTx(ctx, c, tx, pending)
}

func (c *Client) PreExecTx(ctx context.Context, tx map[string]any, pending []map[string]any) (any, error) {
	return PreExecTx(ctx, c, tx, pending)
}
