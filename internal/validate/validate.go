// Package validate checks and normalizes tool arguments before they reach the
// DeBank client. Every failure is a *Error naming the offending field.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// MaxTokenIDs bounds batch token lookups.
	MaxTokenIDs = 100

	// DateLayout is the only accepted date format (YYYY-MM-DD).
	DateLayout = "2006-01-02"
)

// Error is a rejected argument.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err is (or wraps) a *Error.
func IsValidation(err error) bool {
	var target *Error
	return errors.As(err, &target)
}

func fail(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Address accepts 0x followed by 40 hex characters and returns it lowercased.
func Address(field, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fail(field, "Address cannot be empty")
	}
	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return "", fail(field, "Invalid Ethereum address format. "+
			"Address must start with '0x' followed by 40 hexadecimal characters. Got: %s", address)
	}
	return strings.ToLower(address), nil
}

// ChainID trims and lowercases a chain identifier. When supported is non-empty
// the chain must be one of them.
func ChainID(field, chainID string, supported ...string) (string, error) {
	chainID = strings.ToLower(strings.TrimSpace(chainID))
	if chainID == "" {
		return "", fail(field, "Chain ID cannot be empty or whitespace only")
	}
	if len(supported) == 0 {
		return chainID, nil
	}
	for _, candidate := range supported {
		if strings.ToLower(candidate) == chainID {
			return chainID, nil
		}
	}
	return "", fail(field, "Chain '%s' is not supported. Supported chains: %s",
		chainID, strings.Join(supported, ", "))
}

// Date accepts YYYY-MM-DD and returns it re-formatted (zero padded).
func Date(field, date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", fail(field, "Date string cannot be empty")
	}
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fail(field, "Invalid date format. Expected format: YYYY-MM-DD. Got: %s", date)
	}
	return parsed.Format(DateLayout), nil
}

// TokenIDs trims every id and enforces 1..limit entries.
func TokenIDs(field string, ids []string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = MaxTokenIDs
	}
	if len(ids) == 0 {
		return nil, fail(field, "Token IDs list cannot be empty")
	}
	if len(ids) > limit {
		return nil, fail(field, "Too many token IDs provided. Maximum allowed: %d, got: %d", limit, len(ids))
	}
	out := make([]string, 0, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fail(field, "Token ID at index %d cannot be empty or whitespace only", i)
		}
		out = append(out, id)
	}
	return out, nil
}

// ProtocolID trims a protocol identifier and rejects blanks.
func ProtocolID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fail(field, "Protocol ID cannot be empty or whitespace only")
	}
	return id, nil
}

// Pagination checks optional page number and size. Nil values are not checked.
func Pagination(pageNum, pageCount *int, maxPageCount int) error {
	if pageNum != nil && *pageNum < 1 {
		return fail("page_num", "page_num must be >= 1")
	}
	if pageCount != nil {
		if *pageCount < 1 {
			return fail("page_count", "page_count must be >= 1")
		}
		if maxPageCount > 0 && *pageCount > maxPageCount {
			return fail("page_count", "page_count cannot exceed %d, got: %d", maxPageCount, *pageCount)
		}
	}
	return nil
}

// Range checks that value lies within [lo, hi].
func Range(field string, value, lo, hi int) error {
	if value < lo || value > hi {
		return fail(field, "%s must be between %d and %d, got: %d", field, lo, hi, value)
	}
	return nil
}

// TimeRange checks optional unix timestamps: non-negative and start < end.
func TimeRange(start, end *int64) error {
	if start != nil && *start < 0 {
		return fail("start_time", "start_time must be a positive Unix timestamp")
	}
	if end != nil && *end < 0 {
		return fail("end_time", "end_time must be a positive Unix timestamp")
	}
	if start != nil && end != nil && *start >= *end {
		return fail("start_time", "start_time must be less than end_time")
	}
	return nil
}

// TxHash accepts 0x followed by 64 hex characters and returns it lowercased.
func TxHash(field, hash string) (string, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return "", fail(field, "Transaction hash cannot be empty")
	}
	decoded, err := hexutil.Decode(hash)
	if err != nil || !strings.HasPrefix(hash, "0x") || len(decoded) != common.HashLength {
		return "", fail(field, "Invalid transaction hash format. "+
			"Hash must start with '0x' followed by 64 hexadecimal characters. Got: %s", hash)
	}
	return strings.ToLower(hash), nil
}

// HexPrefixed is the lighter check used for simulation inputs: present and 0x-prefixed.
func HexPrefixed(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fail(field, "%s is required", field)
	}
	if !strings.HasPrefix(value, "0x") {
		return "", fail(field, "%s must start with '0x'", field)
	}
	return value, nil
}

// Required rejects a blank string.
func Required(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fail(field, "%s is required", field)
	}
	return value, nil
}

// Exclusive fails when both a and b are set.
func Exclusive(fieldA string, a bool, fieldB string, b bool) error {
	if a && b {
		return fail(fieldA, "Cannot specify both %s and %s", fieldA, fieldB)
	}
	return nil
}
