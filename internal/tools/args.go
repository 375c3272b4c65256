package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"

	"github.com/defilens/debank-mcp/internal/validate"
)

// decodeArgs fills out from raw tool arguments. Fields already set on out act
// as defaults. Numbers arriving as JSON floats and booleans sent as strings
// are accepted.
func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(args); err != nil {
		return &validate.Error{Message: "invalid arguments: " + err.Error()}
	}
	return nil
}

// asMap returns v as a JSON object, or nil.
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// asList returns v as a JSON array, or nil.
func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

// number coerces JSON numbers (and numeric strings) to float64. Anything else,
// including NaN and infinities, is 0.
func number(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		f, _ = n.Float64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// text returns v as a string or fallback when absent or not a string.
func text(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

// path walks nested objects by key.
func path(v any, keys ...string) any {
	for _, key := range keys {
		m := asMap(v)
		if m == nil {
			return nil
		}
		v = m[key]
	}
	return v
}

func round(f float64, places int32) float64 {
	return decimal.NewFromFloat(f).Round(places).InexactFloat64()
}

// sumProducts totals a*b across items, used for USD valuation of amount*price pairs.
func sumProducts(items []any, amountKey string, priceKeys ...string) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		amount := number(path(item, amountKey))
		price := number(path(item, priceKeys...))
		total = total.Add(decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(price)))
	}
	return total
}

type stringSet map[string]struct{}

func (s stringSet) add(v string) {
	s[v] = struct{}{}
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
