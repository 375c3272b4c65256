package tools

import (
	"context"
	"errors"

	"github.com/defilens/debank-mcp/internal/debank"
	"github.com/defilens/debank-mcp/internal/validate"
)

// Failure kinds that do not originate in the DeBank client.
const (
	FailureUnknownTool = "unknown_tool"
	FailureCancelled   = "cancelled"
	FailureUnknown     = "unknown_error"
)

// Failure is the structured result returned to the assistant instead of an error.
type Failure struct {
	Success    bool   `json:"success" yaml:"success"`
	Error      string `json:"error" yaml:"error"`
	Message    string `json:"message" yaml:"message"`
	RetryAfter int    `json:"retry_after,omitempty" yaml:"retry_after,omitempty"`
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
}

// FromError classifies err into a Failure. Rate-limit failures carry the
// retry-after hint in whole seconds.
func FromError(err error) *Failure {
	if err == nil {
		return nil
	}

	var vErr *validate.Error
	if errors.As(err, &vErr) {
		return &Failure{Error: string(debank.KindValidation), Message: vErr.Error()}
	}

	var apiErr *debank.APIError
	if errors.As(err, &apiErr) {
		f := &Failure{
			Error:      string(apiErr.Kind),
			Message:    apiErr.Message,
			StatusCode: apiErr.StatusCode,
		}
		if apiErr.Kind == debank.KindRateLimit {
			f.RetryAfter = apiErr.RetryAfterSeconds()
		}
		return f
	}

	switch {
	case errors.Is(err, debank.ErrClosed):
		return &Failure{Error: string(debank.KindConfiguration), Message: err.Error()}
	case IsUnknownTool(err):
		return &Failure{Error: FailureUnknownTool, Message: err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Failure{Error: FailureCancelled, Message: err.Error()}
	default:
		return &Failure{Error: FailureUnknown, Message: err.Error()}
	}
}
