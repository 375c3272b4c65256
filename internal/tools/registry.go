// Package tools implements the DeBank tool handlers exposed over MCP and the CLI.
//
// Each tool pairs an mcp.Tool definition with a handler that validates its
// arguments, calls the DeBank API through a debank.Caller and reshapes the
// response. Handler failures never escape as Go errors to the protocol layer;
// Registry.Invoke turns them into a structured Failure result.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/defilens/debank-mcp/internal/debank"
	"github.com/defilens/debank-mcp/internal/metrics"
	"github.com/defilens/debank-mcp/internal/safety"
)

// Handler runs a tool with raw JSON arguments and returns a JSON-encodable result.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool is one registered capability.
type Tool struct {
	Definition mcp.Tool
	Handler    Handler
}

// Name returns the tool name as advertised to clients.
func (t Tool) Name() string {
	return t.Definition.Name
}

// Outcome is the result of Invoke.
type Outcome struct {
	CallID   string
	Tool     string
	Result   any
	Failed   bool
	Duration time.Duration
}

// Registry holds every tool in advertisement order.
type Registry struct {
	tools  []Tool
	byName map[string]int
	logger *logging.Logger
}

// Option customizes a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	analyzer *safety.Analyzer
	logger   *logging.Logger
}

// WithAnalyzer sets the analyzer used by the simulation tool.
func WithAnalyzer(analyzer *safety.Analyzer) Option {
	return func(c *registryConfig) {
		c.analyzer = analyzer
	}
}

// WithLogger attaches a logger for per-call diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// NewRegistry registers all DeBank tools against api.
func NewRegistry(api debank.Caller, opts ...Option) *Registry {
	cfg := registryConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.analyzer == nil {
		cfg.analyzer = safety.New(safety.DefaultThresholds())
	}

	h := &handlers{api: api, analyzer: cfg.analyzer}
	r := &Registry{
		byName: make(map[string]int),
		logger: cfg.logger,
	}

	groups := [][]Tool{coreTools(h), portfolioTools(h), advancedTools(h)}
	for _, group := range groups {
		for _, tool := range group {
			r.add(tool)
		}
	}
	return r
}

func (r *Registry) add(tool Tool) {
	if _, exists := r.byName[tool.Name()]; exists {
		panic(fmt.Sprintf("tools: duplicate tool %q", tool.Name()))
	}
	r.byName[tool.Name()] = len(r.tools)
	r.tools = append(r.tools, tool)
}

// Tools returns the registered tools in advertisement order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for _, tool := range r.tools {
		names = append(names, tool.Name())
	}
	sort.Strings(names)
	return names
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[idx], true
}

// Call runs a tool and returns its raw result or error.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	tool, ok := r.Lookup(name)
	if !ok {
		return nil, ErrUnknownTool{Name: name}
	}
	if args == nil {
		args = map[string]any{}
	}
	return tool.Handler(ctx, args)
}

// Invoke runs a tool, translating any error into a Failure result, and
// records the call in logs and metrics.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) Outcome {
	out := Outcome{CallID: uuid.NewString(), Tool: name}
	start := time.Now()

	result, err := r.Call(ctx, name, args)
	out.Duration = time.Since(start)

	outcome := "success"
	if err != nil {
		failure := FromError(err)
		out.Result = failure
		out.Failed = true
		outcome = failure.Error
	} else {
		out.Result = result
	}
	metrics.RecordToolCall(name, outcome, out.Duration)

	if r.logger != nil {
		fields := []zap.Field{
			zap.String("call_id", out.CallID),
			zap.String("tool", name),
			zap.Duration("duration", out.Duration),
			zap.String("outcome", outcome),
		}
		if err != nil {
			r.logger.Warn("Tool call failed", append(fields, zap.Error(err))...)
		} else {
			r.logger.Debug("Tool call completed", fields...)
		}
	}
	return out
}

// ErrUnknownTool is returned for names that are not registered.
type ErrUnknownTool struct {
	Name string
}

func (e ErrUnknownTool) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// IsUnknownTool reports whether err is an ErrUnknownTool.
func IsUnknownTool(err error) bool {
	var target ErrUnknownTool
	return errors.As(err, &target)
}
