package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	"github.com/defilens/debank-mcp/internal/debank"
	"github.com/defilens/debank-mcp/internal/validate"
)

const (
	defaultPageLimit   = 50
	maxPageLimit       = 500
	defaultHistoryPage = 20
	maxHistoryPage     = 100

	// highRiskExposureUSD flags an approval whose spendable value exceeds this amount.
	highRiskExposureUSD = 10000

	paginationWarning = "Results were paginated. Use limit/offset to fetch more."
	allChains         = "all_chains"
)

func portfolioTools(h *handlers) []Tool {
	return []Tool{
		{
			Definition: mcp.NewTool("debank_get_user_tokens",
				mcp.WithDescription("Get the tokens a wallet holds with amounts, prices and USD value. "+
					"Results are paginated locally with limit/offset."),
				mcp.WithString("address", mcp.Required(), mcp.Description("Wallet address (0x + 40 hex)")),
				mcp.WithString("chain_id", mcp.Description("Chain ID. Omit for all chains.")),
				mcp.WithString("token_id", mcp.Description("Single token to query (requires chain_id)")),
				mcp.WithBoolean("is_all", mcp.Description("Include small and unverified tokens (default false)")),
				mcp.WithNumber("limit", mcp.Description("Maximum tokens to return (1-500, default 50)")),
				mcp.WithNumber("offset", mcp.Description("Tokens to skip (default 0)")),
			),
			Handler: h.userTokens,
		},
		{
			Definition: mcp.NewTool("debank_get_user_nfts",
				mcp.WithDescription("Get the NFTs a wallet holds with collection and valuation data. "+
					"Results are paginated locally with limit/offset."),
				mcp.WithString("address", mcp.Required(), mcp.Description("Wallet address (0x + 40 hex)")),
				mcp.WithString("chain_id", mcp.Description("Chain ID. Omit for all chains.")),
				mcp.WithBoolean("is_all", mcp.Description("Include unverified NFTs (default false)")),
				mcp.WithNumber("limit", mcp.Description("Maximum NFTs to return (1-500, default 50)")),
				mcp.WithNumber("offset", mcp.Description("NFTs to skip (default 0)")),
			),
			Handler: h.userNFTs,
		},
		{
			Definition: mcp.NewTool("debank_get_user_protocols",
				mcp.WithDescription("Get a wallet's DeFi positions (lending, staking, liquidity) with net, asset and debt totals."),
				mcp.WithString("address", mcp.Required(), mcp.Description("Wallet address (0x + 40 hex)")),
				mcp.WithString("protocol_id", mcp.Description("Single protocol to query")),
				mcp.WithString("chain_id", mcp.Description("Chain ID. Omit for all chains.")),
				mcp.WithString("detail_level",
					mcp.Description("'simple' for balances only, 'complex' for full position details (default)"),
					mcp.Enum("simple", "complex")),
			),
			Handler: h.userProtocols,
		},
		{
			Definition: mcp.NewTool("debank_get_user_history",
				mcp.WithDescription("Get a wallet's transaction history with categories, projects and token metadata."),
				mcp.WithString("address", mcp.Required(), mcp.Description("Wallet address (0x + 40 hex)")),
				mcp.WithString("chain_id", mcp.Description("Chain ID. Omit for all chains.")),
				mcp.WithString("token_id", mcp.Description("Only transactions involving this token")),
				mcp.WithNumber("start_time", mcp.Description("Unix timestamp to page back from")),
				mcp.WithNumber("page_count", mcp.Description("Transactions to return (1-100, default 20)")),
			),
			Handler: h.userHistory,
		},
		{
			Definition: mcp.NewTool("debank_get_user_approvals",
				mcp.WithDescription("Get the token or NFT approvals a wallet has granted, with exposure and spender analysis. "+
					"High exposure values indicate security risk."),
				mcp.WithString("address", mcp.Required(), mcp.Description("Wallet address (0x + 40 hex)")),
				mcp.WithString("chain_id", mcp.Required(), mcp.Description("Chain ID (e.g. 'eth')")),
				mcp.WithString("approval_type",
					mcp.Description("'token' (default) or 'nft'"),
					mcp.Enum("token", "nft")),
			),
			Handler: h.userApprovals,
		},
	}
}

// Pagination describes a locally sliced upstream list.
type Pagination struct {
	TotalCount    int  `json:"total_count" yaml:"total_count"`
	ReturnedCount int  `json:"returned_count" yaml:"returned_count"`
	Limit         int  `json:"limit" yaml:"limit"`
	Offset        int  `json:"offset" yaml:"offset"`
	HasMore       bool `json:"has_more" yaml:"has_more"`
	NextOffset    *int `json:"next_offset" yaml:"next_offset"`
}

func paginate(items []any, limit, offset int) ([]any, Pagination) {
	total := len(items)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	page := items[start:end]

	p := Pagination{
		TotalCount:    total,
		ReturnedCount: len(page),
		Limit:         limit,
		Offset:        offset,
		HasMore:       offset+limit < total,
	}
	if p.HasMore {
		next := offset + limit
		p.NextOffset = &next
	}
	return page, p
}

func pageWarning(total, limit int) string {
	if total > limit {
		return paginationWarning
	}
	return ""
}

func orAllChains(chainID string) string {
	if chainID == "" {
		return allChains
	}
	return chainID
}

type pageArgs struct {
	Address string `mapstructure:"address"`
	ChainID string `mapstructure:"chain_id"`
	IsAll   bool   `mapstructure:"is_all"`
	Limit   int    `mapstructure:"limit"`
	Offset  int    `mapstructure:"offset"`
}

func (p *pageArgs) check() (string, error) {
	address, err := validate.Address("address", p.Address)
	if err != nil {
		return "", err
	}
	if err := validate.Range("limit", p.Limit, 1, maxPageLimit); err != nil {
		return "", err
	}
	if p.Offset < 0 {
		return "", &validate.Error{Field: "offset", Message: "offset must be >= 0"}
	}
	p.ChainID = strings.TrimSpace(p.ChainID)
	return address, nil
}

type userTokensArgs struct {
	pageArgs `mapstructure:",squash"`
	TokenID  string `mapstructure:"token_id"`
}

// UserTokens is the paginated token holding result.
type UserTokens struct {
	Success       bool       `json:"success"`
	Address       string     `json:"address"`
	ChainID       string     `json:"chain_id"`
	Pagination    Pagination `json:"pagination"`
	TotalUSDValue float64    `json:"total_usd_value"`
	Tokens        []any      `json:"tokens"`
	Warning       string     `json:"warning,omitempty"`
}

func (h *handlers) userTokens(ctx context.Context, args map[string]any) (any, error) {
	p := userTokensArgs{pageArgs: pageArgs{Limit: defaultPageLimit}}
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	address, err := p.check()
	if err != nil {
		return nil, err
	}
	tokenID := strings.TrimSpace(p.TokenID)

	var endpoint string
	params := debank.Params{"id": address}
	switch {
	case tokenID != "" && p.ChainID != "":
		endpoint = "/v1/user/token"
		params["chain_id"] = p.ChainID
		params["token_id"] = tokenID
	case p.ChainID != "":
		endpoint = "/v1/user/token_list"
		params["chain_id"] = p.ChainID
		params["is_all"] = p.IsAll
	default:
		endpoint = "/v1/user/all_token_list"
		params["is_all"] = p.IsAll
	}

	data, err := h.api.Get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	list, ok := data.([]any)
	if !ok {
		return map[string]any{
			"success":  true,
			"address":  address,
			"chain_id": p.ChainID,
			"token_id": tokenID,
			"token":    data,
		}, nil
	}

	page, pagination := paginate(list, p.Limit, p.Offset)
	total := sumProducts(page, "amount", "price")
	return UserTokens{
		Success:       true,
		Address:       address,
		ChainID:       orAllChains(p.ChainID),
		Pagination:    pagination,
		TotalUSDValue: total.Round(2).InexactFloat64(),
		Tokens:        page,
		Warning:       pageWarning(len(list), p.Limit),
	}, nil
}

// UserNFTs is the paginated NFT holding result.
type UserNFTs struct {
	Success         bool       `json:"success"`
	Address         string     `json:"address"`
	ChainID         string     `json:"chain_id"`
	Pagination      Pagination `json:"pagination"`
	CollectionCount int        `json:"collection_count"`
	TotalUSDValue   float64    `json:"total_usd_value"`
	NFTs            []any      `json:"nfts"`
	Warning         string     `json:"warning,omitempty"`
}

func (h *handlers) userNFTs(ctx context.Context, args map[string]any) (any, error) {
	p := pageArgs{Limit: defaultPageLimit}
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	address, err := p.check()
	if err != nil {
		return nil, err
	}

	endpoint := "/v1/user/all_nft_list"
	params := debank.Params{"id": address, "is_all": p.IsAll}
	if p.ChainID != "" {
		endpoint = "/v1/user/nft_list"
		params["chain_id"] = p.ChainID
	}

	data, err := h.api.Get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	list, ok := data.([]any)
	if !ok {
		return map[string]any{"success": true, "address": address, "data": data}, nil
	}

	page, pagination := paginate(list, p.Limit, p.Offset)
	total := decimal.Zero
	collections := stringSet{}
	for _, nft := range page {
		total = total.Add(decimal.NewFromFloat(number(path(nft, "usd_price"))))
		collections.add(text(path(nft, "contract_name"), "Unknown"))
	}

	return UserNFTs{
		Success:         true,
		Address:         address,
		ChainID:         orAllChains(p.ChainID),
		Pagination:      pagination,
		CollectionCount: len(collections),
		TotalUSDValue:   total.Round(2).InexactFloat64(),
		NFTs:            page,
		Warning:         pageWarning(len(list), p.Limit),
	}, nil
}

type userProtocolsArgs struct {
	Address     string `mapstructure:"address"`
	ProtocolID  string `mapstructure:"protocol_id"`
	ChainID     string `mapstructure:"chain_id"`
	DetailLevel string `mapstructure:"detail_level"`
}

// ProtocolSummary totals a wallet's positions.
type ProtocolSummary struct {
	TotalNetUSDValue   float64 `json:"total_net_usd_value"`
	TotalAssetUSDValue float64 `json:"total_asset_usd_value"`
	TotalDebtUSDValue  float64 `json:"total_debt_usd_value"`
}

func (h *handlers) userProtocols(ctx context.Context, args map[string]any) (any, error) {
	p := userProtocolsArgs{DetailLevel: "complex"}
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	address, err := validate.Address("address", p.Address)
	if err != nil {
		return nil, err
	}
	detail := strings.ToLower(strings.TrimSpace(p.DetailLevel))
	if detail != "simple" && detail != "complex" {
		return nil, &validate.Error{Field: "detail_level", Message: "detail_level must be 'simple' or 'complex'"}
	}
	protocolID := strings.TrimSpace(p.ProtocolID)
	chainID := strings.TrimSpace(p.ChainID)

	var endpoint string
	params := debank.Params{"id": address}
	switch {
	case protocolID != "":
		endpoint = "/v1/user/protocol"
		params["protocol_id"] = protocolID
		if chainID != "" {
			params["chain_id"] = chainID
		}
	case chainID != "":
		endpoint = "/v1/user/" + detail + "_protocol_list"
		params["chain_id"] = chainID
	default:
		endpoint = "/v1/user/all_" + detail + "_protocol_list"
	}

	data, err := h.api.Get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	list, ok := data.([]any)
	if !ok {
		return map[string]any{
			"success":     true,
			"address":     address,
			"protocol_id": protocolID,
			"chain_id":    chainID,
			"protocol":    data,
		}, nil
	}

	net, asset, debt := decimal.Zero, decimal.Zero, decimal.Zero
	accumulate := func(stats any) {
		net = net.Add(decimal.NewFromFloat(number(path(stats, "net_usd_value"))))
		asset = asset.Add(decimal.NewFromFloat(number(path(stats, "asset_usd_value"))))
		debt = debt.Add(decimal.NewFromFloat(number(path(stats, "debt_usd_value"))))
	}
	for _, protocol := range list {
		if detail == "simple" {
			accumulate(protocol)
			continue
		}
		for _, item := range asList(path(protocol, "portfolio_item_list")) {
			accumulate(path(item, "stats"))
		}
	}

	return map[string]any{
		"success":        true,
		"address":        address,
		"chain_id":       orAllChains(chainID),
		"detail_level":   detail,
		"protocol_count": len(list),
		"summary": ProtocolSummary{
			TotalNetUSDValue:   net.Round(2).InexactFloat64(),
			TotalAssetUSDValue: asset.Round(2).InexactFloat64(),
			TotalDebtUSDValue:  debt.Round(2).InexactFloat64(),
		},
		"protocols": list,
	}, nil
}

type userHistoryArgs struct {
	Address   string `mapstructure:"address"`
	ChainID   string `mapstructure:"chain_id"`
	TokenID   string `mapstructure:"token_id"`
	StartTime *int64 `mapstructure:"start_time"`
	PageCount int    `mapstructure:"page_count"`
}

// HistorySummary aggregates a page of transactions.
type HistorySummary struct {
	TransactionCount int      `json:"transaction_count"`
	ChainsInvolved   []string `json:"chains_involved"`
	TotalValueUSD    float64  `json:"total_value_usd"`
}

func (h *handlers) userHistory(ctx context.Context, args map[string]any) (any, error) {
	p := userHistoryArgs{PageCount: defaultHistoryPage}
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	address, err := validate.Address("address", p.Address)
	if err != nil {
		return nil, err
	}
	if err := validate.Pagination(nil, &p.PageCount, maxHistoryPage); err != nil {
		return nil, err
	}
	if err := validate.TimeRange(p.StartTime, nil); err != nil {
		return nil, err
	}
	chainID := strings.TrimSpace(p.ChainID)
	tokenID := strings.TrimSpace(p.TokenID)

	endpoint := "/v1/user/all_history_list"
	params := debank.Params{"id": address, "page_count": p.PageCount}
	if chainID != "" {
		endpoint = "/v1/user/history_list"
		params["chain_id"] = chainID
	}
	if tokenID != "" {
		params["token_id"] = tokenID
	}
	if p.StartTime != nil && *p.StartTime > 0 {
		params["start_time"] = *p.StartTime
	}

	data, err := h.api.Get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	body := asMap(data)
	if body == nil {
		return nil, &debank.APIError{
			Kind:    debank.KindUnclassified,
			Message: "Unexpected response format: API returned " + typeName(data) + " instead of object",
		}
	}

	history := asList(body["history_list"])
	chains := stringSet{}
	total := decimal.Zero
	for _, tx := range history {
		chains.add(text(path(tx, "chain_id"), "unknown"))
		moves := append(append([]any{}, asList(path(tx, "sends"))...), asList(path(tx, "receives"))...)
		total = total.Add(sumProducts(moves, "amount", "price"))
	}

	filters := map[string]any{
		"token_id":   nilIfEmpty(tokenID),
		"start_time": p.StartTime,
		"page_count": p.PageCount,
	}
	if history == nil {
		history = []any{}
	}

	return map[string]any{
		"success":  true,
		"address":  address,
		"chain_id": orAllChains(chainID),
		"filters":  filters,
		"summary": HistorySummary{
			TransactionCount: len(history),
			ChainsInvolved:   chains.sorted(),
			TotalValueUSD:    total.Round(2).InexactFloat64(),
		},
		"history_list": history,
		"cate_dict":    objectOrEmpty(body["cate_dict"]),
		"project_dict": objectOrEmpty(body["project_dict"]),
		"token_dict":   objectOrEmpty(body["token_dict"]),
		"cex_dict":     objectOrEmpty(body["cex_dict"]),
	}, nil
}

type userApprovalsArgs struct {
	Address      string `mapstructure:"address"`
	ChainID      string `mapstructure:"chain_id"`
	ApprovalType string `mapstructure:"approval_type"`
}

// TokenApprovalAnalysis summarizes token allowances.
type TokenApprovalAnalysis struct {
	TotalApprovals   int      `json:"total_approvals"`
	TotalExposureUSD float64  `json:"total_exposure_usd"`
	HighRiskCount    int      `json:"high_risk_count"`
	UniqueSpenders   int      `json:"unique_spenders"`
	SpenderList      []string `json:"spender_list"`
}

// NFTApprovalAnalysis summarizes NFT approvals.
type NFTApprovalAnalysis struct {
	TotalNFTApprovals      int      `json:"total_nft_approvals"`
	TotalContractApprovals int      `json:"total_contract_approvals"`
	UniqueSpenders         int      `json:"unique_spenders"`
	SpenderList            []string `json:"spender_list"`
}

func spenderName(approval any) string {
	return text(path(approval, "spender", "protocol", "name"), "Unknown")
}

func (h *handlers) userApprovals(ctx context.Context, args map[string]any) (any, error) {
	p := userApprovalsArgs{ApprovalType: "token"}
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	address, err := validate.Address("address", p.Address)
	if err != nil {
		return nil, err
	}
	chainID, err := validate.Required("chain_id", p.ChainID)
	if err != nil {
		return nil, &validate.Error{Field: "chain_id", Message: "chain_id is required for approvals endpoint"}
	}
	kind := strings.ToLower(strings.TrimSpace(p.ApprovalType))
	if kind != "token" && kind != "nft" {
		return nil, &validate.Error{Field: "approval_type", Message: "approval_type must be 'token' or 'nft'"}
	}

	params := debank.Params{"id": address, "chain_id": chainID}
	if kind == "nft" {
		data, err := h.api.Get(ctx, "/v1/user/nft_authorized_list", params)
		if err != nil {
			return nil, err
		}
		tokens := asList(path(data, "tokens"))
		contracts := asList(path(data, "contracts"))
		spenders := stringSet{}
		for _, item := range tokens {
			spenders.add(spenderName(item))
		}
		for _, item := range contracts {
			spenders.add(spenderName(item))
		}
		return map[string]any{
			"success":       true,
			"address":       address,
			"chain_id":      chainID,
			"approval_type": "nft",
			"security_analysis": NFTApprovalAnalysis{
				TotalNFTApprovals:      len(tokens),
				TotalContractApprovals: len(contracts),
				UniqueSpenders:         len(spenders),
				SpenderList:            spenders.sorted(),
			},
			"tokens":    emptyIfNil(tokens),
			"contracts": emptyIfNil(contracts),
		}, nil
	}

	data, err := h.api.Get(ctx, "/v1/user/token_authorized_list", params)
	if err != nil {
		return nil, err
	}
	list, ok := data.([]any)
	if !ok {
		return map[string]any{
			"success":           true,
			"approvals":         []any{},
			"count":             0,
			"warning":           "Unexpected response structure",
			"raw_response_type": typeName(data),
			"address":           address,
			"chain_id":          chainID,
			"approval_type":     "token",
		}, nil
	}

	threshold := decimal.NewFromInt(highRiskExposureUSD)
	total := decimal.Zero
	highRisk := []any{}
	spenders := stringSet{}
	for _, approval := range list {
		exposure := decimal.NewFromFloat(number(path(approval, "value"))).
			Mul(decimal.NewFromFloat(number(path(approval, "token", "price"))))
		total = total.Add(exposure)
		if exposure.GreaterThan(threshold) {
			highRisk = append(highRisk, approval)
		}
		spenders.add(spenderName(approval))
	}

	return map[string]any{
		"success":       true,
		"address":       address,
		"chain_id":      chainID,
		"approval_type": "token",
		"security_analysis": TokenApprovalAnalysis{
			TotalApprovals:   len(list),
			TotalExposureUSD: total.Round(2).InexactFloat64(),
			HighRiskCount:    len(highRisk),
			UniqueSpenders:   len(spenders),
			SpenderList:      spenders.sorted(),
		},
		"approvals":           list,
		"high_risk_approvals": highRisk,
	}, nil
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func objectOrEmpty(v any) any {
	if m := asMap(v); m != nil {
		return m
	}
	return map[string]any{}
}

func emptyIfNil(l []any) []any {
	if l == nil {
		return []any{}
	}
	return l
}
