package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/defilens/debank-mcp/internal/debank"
	"github.com/defilens/debank-mcp/internal/tools"
)

type fakeAPI struct {
	err error
}

func (f fakeAPI) Get(_ context.Context, endpoint string, _ debank.Params) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	if endpoint == "/v1/chain/list" {
		return []any{map[string]any{"id": "eth"}}, nil
	}
	return map[string]any{"endpoint": endpoint}, nil
}

func (f fakeAPI) Post(_ context.Context, endpoint string, _ any) (any, error) {
	return f.Get(context.Background(), endpoint, nil)
}

func rpc(t *testing.T, srvAPI fakeAPI, method string, params any) map[string]any {
	t.Helper()
	s := New(tools.NewRegistry(srvAPI), "1.2.3")

	raw, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)

	resp := s.HandleMessage(context.Background(), raw)
	encoded, err := json.Marshal(resp)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(encoded, &out))
	require.Nil(t, out["error"], "unexpected JSON-RPC error: %s", encoded)
	return out["result"].(map[string]any)
}

func TestToolsListAdvertisesRegistry(t *testing.T) {
	result := rpc(t, fakeAPI{}, "tools/list", map[string]any{})
	listed := result["tools"].([]any)
	require.Len(t, listed, len(tools.NewRegistry(fakeAPI{}).Names()))

	names := map[string]bool{}
	for _, item := range listed {
		names[item.(map[string]any)["name"].(string)] = true
	}
	require.True(t, names["debank_simulate_transaction"])
	require.True(t, names["debank_get_user_tokens"])
}

func textContent(t *testing.T, result map[string]any) string {
	t.Helper()
	content := result["content"].([]any)
	require.Len(t, content, 1)
	return content[0].(map[string]any)["text"].(string)
}

func TestToolsCallReturnsJSONText(t *testing.T) {
	result := rpc(t, fakeAPI{}, "tools/call", map[string]any{"name": "debank_get_chains", "arguments": map[string]any{}})
	require.NotEqual(t, true, result["isError"])

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &body))
	require.Equal(t, float64(1), body["count"])
}

func TestToolsCallFailureIsErrorResult(t *testing.T) {
	api := fakeAPI{err: &debank.APIError{Kind: debank.KindRateLimit, StatusCode: 429, RetryAfter: debank.DefaultRetryAfter, Message: "slow down"}}
	result := rpc(t, api, "tools/call", map[string]any{"name": "debank_get_chains", "arguments": map[string]any{}})
	require.Equal(t, true, result["isError"])

	var failure tools.Failure
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &failure))
	require.False(t, failure.Success)
	require.Equal(t, "rate_limit_error", failure.Error)
	require.Equal(t, 60, failure.RetryAfter)
	require.Equal(t, 429, failure.StatusCode)
}

func TestToolsCallValidationFailure(t *testing.T) {
	result := rpc(t, fakeAPI{}, "tools/call", map[string]any{
		"name":      "debank_get_user_tokens",
		"arguments": map[string]any{"address": "not-an-address"},
	})
	require.Equal(t, true, result["isError"])
	require.Contains(t, textContent(t, result), "validation_error")
}

func TestServeStdioStopsAtEOF(t *testing.T) {
	s := New(tools.NewRegistry(fakeAPI{}), "1.2.3")
	in := strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"ping"}` + "\n")
	var out, errs bytes.Buffer

	require.NoError(t, ServeStdio(context.Background(), s, in, &out, &errs))
	require.Contains(t, out.String(), `"id":7`)
}

func TestHTTPHandlerInitialize(t *testing.T) {
	ts := httptest.NewServer(HTTPHandler(New(tools.NewRegistry(fakeAPI{}), "1.2.3")))
	defer ts.Close()

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`
	req, err := http.NewRequest(http.MethodPost, ts.URL+EndpointPath, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck // test cleanup

	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(payload), Name)
}
