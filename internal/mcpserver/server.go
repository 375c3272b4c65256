// Package mcpserver exposes the tool registry over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/defilens/debank-mcp/internal/tools"
)

// Name is the server name advertised during the MCP handshake.
const Name = "debank-mcp"

// EndpointPath is where the streamable HTTP transport is mounted.
const EndpointPath = "/mcp"

const instructions = "Tools for the DeBank Pro API: chains, protocols, tokens, wallet portfolios, " +
	"approvals, transaction simulation with safety analysis, gas prices and API unit usage. " +
	"Addresses are 0x-prefixed hex strings; chain IDs are DeBank short names such as eth, bsc or arb."

// New registers every tool in the registry on a fresh MCP server.
func New(registry *tools.Registry, version string) *server.MCPServer {
	s := server.NewMCPServer(Name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, tool := range registry.Tools() {
		s.AddTool(tool.Definition, handlerFor(registry, tool.Name()))
	}
	return s
}

// handlerFor adapts Registry.Invoke to the MCP handler signature. Failures are
// returned as error results carrying the Failure JSON, never as Go errors.
func handlerFor(registry *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := registry.Invoke(ctx, name, req.GetArguments())

		payload, err := json.MarshalIndent(out.Result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError("encode result: " + err.Error()), nil
		}
		if out.Failed {
			return mcp.NewToolResultError(string(payload)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// ServeStdio runs the server on stdin/stdout until ctx is cancelled or the
// input stream closes. Protocol diagnostics go to errLog, never to stdout.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, errLog io.Writer) error {
	stdio := server.NewStdioServer(s)
	if errLog != nil {
		stdio.SetErrorLogger(log.New(errLog, "", log.LstdFlags))
	}
	err := stdio.Listen(ctx, in, out)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// HTTPHandler returns the streamable HTTP transport for mounting on a router.
func HTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s, server.WithEndpointPath(EndpointPath))
}
