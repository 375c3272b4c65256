package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/defilens/debank-mcp/internal/debank"
	"github.com/defilens/debank-mcp/internal/safety"
	"github.com/defilens/debank-mcp/internal/validate"
)

type handlers struct {
	api      debank.Caller
	analyzer *safety.Analyzer
}

const (
	maxHolderLimit  = 100
	maxHolderOffset = 10000
)

func coreTools(h *handlers) []Tool {
	return []Tool{
		{
			Definition: mcp.NewTool("debank_get_chains",
				mcp.WithDescription("Get blockchain network information from DeBank: native token, wrapped token, "+
					"and whether transaction pre-execution is supported. Omit chain_id to list every supported chain."),
				mcp.WithString("chain_id",
					mcp.Description("Chain ID (e.g. 'eth', 'bsc', 'arb'). Omit to list all chains.")),
			),
			Handler: h.chains,
		},
		{
			Definition: mcp.NewTool("debank_get_protocols",
				mcp.WithDescription("Get DeFi protocol information from DeBank. Returns one protocol by ID, "+
					"the protocols on a chain, or every protocol across chains."),
				mcp.WithString("protocol_id",
					mcp.Description("Protocol ID (e.g. 'uniswap', 'aave'). Cannot be combined with all_chains.")),
				mcp.WithString("chain_id",
					mcp.Description("Chain ID to scope the lookup")),
				mcp.WithBoolean("all_chains",
					mcp.Description("List protocols across all chains")),
			),
			Handler: h.protocols,
		},
		{
			Definition: mcp.NewTool("debank_get_token_info",
				mcp.WithDescription("Get token details and prices: current info for one token, a batch of up to 100 tokens, "+
					"or the historical price of one token on a date."),
				mcp.WithString("chain_id",
					mcp.Required(),
					mcp.Description("Chain ID (e.g. 'eth')")),
				mcp.WithString("token_id",
					mcp.Description("Token contract address or native token ID")),
				mcp.WithArray("token_ids",
					mcp.Description("Up to 100 token IDs. Cannot be combined with token_id."),
					mcp.Items(map[string]any{"type": "string"})),
				mcp.WithString("date",
					mcp.Description("Historical price date in YYYY-MM-DD format (requires token_id)")),
			),
			Handler: h.tokenInfo,
		},
		{
			Definition: mcp.NewTool("debank_get_token_holders",
				mcp.WithDescription("Get the largest holders of a token, useful for distribution and whale analysis."),
				mcp.WithString("chain_id",
					mcp.Required(),
					mcp.Description("Chain ID (e.g. 'eth')")),
				mcp.WithString("token_id",
					mcp.Required(),
					mcp.Description("Token contract address (0x prefixed)")),
				mcp.WithNumber("limit",
					mcp.Description("Number of holders to return (1-100, default 100)")),
				mcp.WithNumber("offset",
					mcp.Description("Starting position (0-10000, default 0)")),
			),
			Handler: h.tokenHolders,
		},
		{
			Definition: mcp.NewTool("debank_get_user_balance",
				mcp.WithDescription("Get a wallet's total USD balance across all chains, or its balance on one chain."),
				mcp.WithString("address",
					mcp.Required(),
					mcp.Description("Wallet address (0x prefixed)")),
				mcp.WithString("chain_id",
					mcp.Description("Chain ID. Omit for the cross-chain total.")),
			),
			Handler: h.userBalance,
		},
	}
}

type chainsArgs struct {
	ChainID string `mapstructure:"chain_id"`
}

func (h *handlers) chains(ctx context.Context, args map[string]any) (any, error) {
	var p chainsArgs
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}

	if chainID := strings.TrimSpace(p.ChainID); chainID != "" {
		result, err := h.api.Get(ctx, "/v1/chain", debank.Params{"id": chainID})
		if err != nil {
			return nil, err
		}
		return map[string]any{"chain": result}, nil
	}

	result, err := h.api.Get(ctx, "/v1/chain/list", nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{"chains": result, "count": len(asList(result))}, nil
}

type protocolsArgs struct {
	ProtocolID string `mapstructure:"protocol_id"`
	ChainID    string `mapstructure:"chain_id"`
	AllChains  bool   `mapstructure:"all_chains"`
}

func (h *handlers) protocols(ctx context.Context, args map[string]any) (any, error) {
	var p protocolsArgs
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	protocolID := strings.TrimSpace(p.ProtocolID)
	chainID := strings.TrimSpace(p.ChainID)
	if err := validate.Exclusive("protocol_id", protocolID != "", "all_chains", p.AllChains); err != nil {
		return nil, err
	}

	if protocolID != "" {
		params := debank.Params{"id": protocolID}
		if chainID != "" {
			params["chain_id"] = chainID
		}
		result, err := h.api.Get(ctx, "/v1/protocol", params)
		if err != nil {
			return nil, err
		}
		return map[string]any{"protocol": result}, nil
	}

	endpoint, params := "/v1/protocol/all_list", debank.Params(nil)
	if !p.AllChains && chainID != "" {
		endpoint, params = "/v1/protocol/list", debank.Params{"chain_id": chainID}
	}
	result, err := h.api.Get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	return map[string]any{"protocols": result, "count": len(asList(result))}, nil
}

type tokenInfoArgs struct {
	ChainID  string   `mapstructure:"chain_id"`
	TokenID  string   `mapstructure:"token_id"`
	TokenIDs []string `mapstructure:"token_ids"`
	Date     string   `mapstructure:"date"`
}

func (h *handlers) tokenInfo(ctx context.Context, args map[string]any) (any, error) {
	var p tokenInfoArgs
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	chainID, err := validate.ChainID("chain_id", p.ChainID)
	if err != nil {
		return nil, err
	}
	tokenID := strings.TrimSpace(p.TokenID)
	if err := validate.Exclusive("token_id", tokenID != "", "token_ids", len(p.TokenIDs) > 0); err != nil {
		return nil, err
	}
	if tokenID == "" && len(p.TokenIDs) == 0 {
		return nil, &validate.Error{Field: "token_id", Message: "Must specify either token_id or token_ids"}
	}

	switch {
	case tokenID != "" && strings.TrimSpace(p.Date) != "":
		date, err := validate.Date("date", p.Date)
		if err != nil {
			return nil, err
		}
		result, err := h.api.Get(ctx, "/v1/token/history_price", debank.Params{
			"chain_id": chainID,
			"id":       tokenID,
			"date_at":  date,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"token": result, "historical": true, "date": date}, nil

	case len(p.TokenIDs) > 0:
		ids, err := validate.TokenIDs("token_ids", p.TokenIDs, validate.MaxTokenIDs)
		if err != nil {
			return nil, err
		}
		result, err := h.api.Get(ctx, "/v1/token/list_by_ids", debank.Params{
			"chain_id": chainID,
			"ids":      ids,
		})
		if err != nil {
			return nil, err
		}
		if list, ok := result.([]any); ok {
			return map[string]any{"tokens": list, "count": len(list)}, nil
		}
		return map[string]any{"tokens": result}, nil

	default:
		result, err := h.api.Get(ctx, "/v1/token", debank.Params{"chain_id": chainID, "id": tokenID})
		if err != nil {
			return nil, err
		}
		return map[string]any{"token": result}, nil
	}
}

type tokenHoldersArgs struct {
	ChainID string `mapstructure:"chain_id"`
	TokenID string `mapstructure:"token_id"`
	Limit   int    `mapstructure:"limit"`
	Offset  int    `mapstructure:"offset"`
}

func (h *handlers) tokenHolders(ctx context.Context, args map[string]any) (any, error) {
	p := tokenHoldersArgs{Limit: maxHolderLimit}
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	chainID, err := validate.ChainID("chain_id", p.ChainID)
	if err != nil {
		return nil, err
	}
	tokenID, err := validate.HexPrefixed("token_id", p.TokenID)
	if err != nil {
		return nil, err
	}
	if err := validate.Range("limit", p.Limit, 1, maxHolderLimit); err != nil {
		return nil, err
	}
	if err := validate.Range("offset", p.Offset, 0, maxHolderOffset); err != nil {
		return nil, err
	}

	result, err := h.api.Get(ctx, "/v1/token/top_holders", debank.Params{
		"chain_id": chainID,
		"id":       tokenID,
		"limit":    p.Limit,
		"start":    p.Offset,
	})
	if err != nil {
		return nil, err
	}
	if list, ok := result.([]any); ok {
		return map[string]any{"holders": list, "count": len(list)}, nil
	}
	return result, nil
}

type userBalanceArgs struct {
	Address string `mapstructure:"address"`
	ChainID string `mapstructure:"chain_id"`
}

func (h *handlers) userBalance(ctx context.Context, args map[string]any) (any, error) {
	var p userBalanceArgs
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	address, err := validate.HexPrefixed("address", p.Address)
	if err != nil {
		return nil, err
	}

	if chainID := strings.TrimSpace(p.ChainID); chainID != "" {
		return h.api.Get(ctx, "/v1/user/chain_balance", debank.Params{"id": address, "chain_id": chainID})
	}
	return h.api.Get(ctx, "/v1/user/total_balance", debank.Params{"id": address})
}
