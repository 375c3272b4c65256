// Package safety scores a transaction simulation before the user signs it.
package safety

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RiskLevel orders from low to critical.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

func (r RiskLevel) rank() int {
	switch r {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return 0
	}
}

// Thresholds are the tunable limits of the analysis.
type Thresholds struct {
	LargeTransferUSD float64 `mapstructure:"large_transfer_usd"`
	HighGasUnits     int64   `mapstructure:"high_gas_units"`
}

// DefaultThresholds returns the stock limits: $10,000 sent and 500,000 gas.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LargeTransferUSD: 10000,
		HighGasUnits:     500000,
	}
}

// Simulation is the subset of a pre_exec_tx response the analyzer reads.
type Simulation struct {
	PreExec       PreExec       `mapstructure:"pre_exec"`
	BalanceChange BalanceChange `mapstructure:"balance_change"`
	Gas           Gas           `mapstructure:"gas"`
	IsMultisig    bool          `mapstructure:"is_multisig"`
}

type PreExec struct {
	// Success is nil when the upstream omitted it, which counts as success.
	Success *bool          `mapstructure:"success"`
	Error   map[string]any `mapstructure:"error"`
}

type BalanceChange struct {
	SendTokenList    []TokenChange `mapstructure:"send_token_list"`
	ReceiveTokenList []TokenChange `mapstructure:"receive_token_list"`
	SendNFTList      []any         `mapstructure:"send_nft_list"`
	ReceiveNFTList   []any         `mapstructure:"receive_nft_list"`
}

type TokenChange struct {
	AmountUSD float64 `mapstructure:"amount_usd"`
}

type Gas struct {
	GasUsed int64 `mapstructure:"gas_used"`
}

// Succeeded reports the execution outcome, defaulting to true.
func (p PreExec) Succeeded() bool {
	return p.Success == nil || *p.Success
}

// Analysis is the verdict returned alongside the raw simulation.
type Analysis struct {
	RiskLevel       RiskLevel `json:"risk_level" yaml:"risk_level"`
	Warnings        []string  `json:"warnings" yaml:"warnings"`
	Recommendations []string  `json:"recommendations" yaml:"recommendations"`
	WillSucceed     bool      `json:"will_succeed" yaml:"will_succeed"`
	EstimatedGas    int64     `json:"estimated_gas" yaml:"estimated_gas"`
}

// Analyzer applies Thresholds to simulations. The zero value is not usable; use New.
type Analyzer struct {
	thresholds Thresholds
	printer    *message.Printer
}

// New returns an analyzer. Non-positive thresholds fall back to the defaults.
func New(t Thresholds) *Analyzer {
	defaults := DefaultThresholds()
	if t.LargeTransferUSD <= 0 {
		t.LargeTransferUSD = defaults.LargeTransferUSD
	}
	if t.HighGasUnits <= 0 {
		t.HighGasUnits = defaults.HighGasUnits
	}
	return &Analyzer{
		thresholds: t,
		printer:    message.NewPrinter(language.English),
	}
}

// Thresholds returns the limits in effect.
func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// Decode converts a decoded JSON simulation response into a Simulation.
func Decode(raw any) (Simulation, error) {
	var sim Simulation
	if raw == nil {
		return sim, nil
	}
	if _, ok := raw.(map[string]any); !ok {
		return sim, fmt.Errorf("simulation response: expected object, got %T", raw)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &sim,
	})
	if err != nil {
		return sim, err
	}
	if err := decoder.Decode(raw); err != nil {
		return sim, fmt.Errorf("simulation response: %w", err)
	}
	return sim, nil
}

// AnalyzeRaw decodes and analyzes a pre_exec_tx response in one step.
func (a *Analyzer) AnalyzeRaw(raw any) (Analysis, error) {
	sim, err := Decode(raw)
	if err != nil {
		return Analysis{}, err
	}
	return a.Analyze(sim), nil
}

// Analyze applies the rules in order. Risk only ever escalates.
func (a *Analyzer) Analyze(sim Simulation) Analysis {
	out := Analysis{
		RiskLevel:       RiskLow,
		Warnings:        []string{},
		Recommendations: []string{},
		WillSucceed:     sim.PreExec.Succeeded(),
		EstimatedGas:    sim.Gas.GasUsed,
	}
	escalate := func(level RiskLevel) {
		if level.rank() > out.RiskLevel.rank() {
			out.RiskLevel = level
		}
	}

	if !out.WillSucceed {
		out.Warnings = append(out.Warnings, "Transaction will FAIL if executed")
		if len(sim.PreExec.Error) > 0 {
			msg, _ := sim.PreExec.Error["msg"].(string)
			if msg == "" {
				msg = "Unknown error"
			}
			out.Warnings = append(out.Warnings, "Error: "+msg)
		}
		escalate(RiskCritical)
	}

	change := sim.BalanceChange
	sendsTokens := len(change.SendTokenList) > 0
	sendsNFTs := len(change.SendNFTList) > 0

	if sendsTokens {
		total := decimal.Zero
		for _, token := range change.SendTokenList {
			total = total.Add(decimal.NewFromFloat(token.AmountUSD))
		}
		if total.GreaterThan(decimal.NewFromFloat(a.thresholds.LargeTransferUSD)) {
			out.Warnings = append(out.Warnings,
				a.printer.Sprintf("Large token transfer: $%.2f", total.InexactFloat64()))
			escalate(RiskHigh)
		}
	}

	if sendsNFTs {
		out.Warnings = append(out.Warnings, fmt.Sprintf("Transferring %d NFT(s)", len(change.SendNFTList)))
	}

	// Receiving an NFT counts as receiving something.
	receives := len(change.ReceiveTokenList) > 0 || len(change.ReceiveNFTList) > 0
	if (sendsTokens || sendsNFTs) && !receives {
		out.Warnings = append(out.Warnings, "Sending assets but receiving nothing - verify this is intentional")
		escalate(RiskMedium)
	}

	if sim.Gas.GasUsed > a.thresholds.HighGasUnits {
		out.Warnings = append(out.Warnings, a.printer.Sprintf("High gas usage: %d units", sim.Gas.GasUsed))
	}

	if sim.IsMultisig {
		out.Recommendations = append(out.Recommendations, "This is a multisig transaction requiring multiple signatures")
	}
	if out.RiskLevel.rank() >= RiskMedium.rank() {
		out.Recommendations = append(out.Recommendations, "Review transaction details carefully before proceeding")
	}
	if sendsTokens || sendsNFTs {
		out.Recommendations = append(out.Recommendations, "Verify recipient address is correct")
	}

	return out
}
