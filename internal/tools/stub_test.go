package tools

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/defilens/debank-mcp/internal/debank"
)

type recordedCall struct {
	Method   string
	Endpoint string
	Params   debank.Params
	Body     any
}

// stubCaller serves canned JSON per endpoint and records every request.
type stubCaller struct {
	mu        sync.Mutex
	responses map[string]any
	errs      map[string]error
	calls     []recordedCall
}

func newStub(t *testing.T) *stubCaller {
	t.Helper()
	return &stubCaller{responses: map[string]any{}, errs: map[string]error{}}
}

func (s *stubCaller) respond(t *testing.T, endpoint, body string) *stubCaller {
	t.Helper()
	var decoded any
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	s.responses[endpoint] = decoded
	return s
}

func (s *stubCaller) fail(endpoint string, err error) *stubCaller {
	s.errs[endpoint] = err
	return s
}

func (s *stubCaller) Get(_ context.Context, endpoint string, params debank.Params) (any, error) {
	return s.record(recordedCall{Method: "GET", Endpoint: endpoint, Params: params})
}

func (s *stubCaller) Post(_ context.Context, endpoint string, body any) (any, error) {
	return s.record(recordedCall{Method: "POST", Endpoint: endpoint, Body: body})
}

func (s *stubCaller) record(call recordedCall) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if err, ok := s.errs[call.Endpoint]; ok {
		return nil, err
	}
	return s.responses[call.Endpoint], nil
}

func (s *stubCaller) lastCall(t *testing.T) recordedCall {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.calls, "expected an upstream call")
	return s.calls[len(s.calls)-1]
}

func (s *stubCaller) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// toJSON round-trips a handler result so assertions can use plain maps.
func toJSON(t *testing.T, v any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func call(t *testing.T, stub *stubCaller, tool string, args map[string]any) map[string]any {
	t.Helper()
	result, err := NewRegistry(stub).Call(context.Background(), tool, args)
	require.NoError(t, err)
	return toJSON(t, result)
}

func callErr(t *testing.T, stub *stubCaller, tool string, args map[string]any) *Failure {
	t.Helper()
	_, err := NewRegistry(stub).Call(context.Background(), tool, args)
	require.Error(t, err)
	return FromError(err)
}
