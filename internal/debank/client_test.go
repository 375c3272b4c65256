package debank

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func jsonResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) (*Client, *sleepRecorder) {
	t.Helper()
	recorder := &sleepRecorder{}
	all := append([]Option{WithBaseURL(baseURL), WithSleep(recorder.sleep)}, opts...)
	client, err := New("test-key", all...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, recorder
}

func TestNewRequiresAccessKey(t *testing.T) {
	for _, key := range []string{"", "   ", "\t\n"} {
		client, err := New(key)
		require.Nil(t, client)
		require.Error(t, err)
		require.Equal(t, KindConfiguration, KindOf(err))
	}
}

func TestNewDefaults(t *testing.T) {
	client, err := New(" key ")
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	require.Equal(t, DefaultBaseURL, client.BaseURL())
	require.Equal(t, DefaultTimeout, client.Timeout())
	require.Equal(t, DefaultMaxRetries, client.MaxRetries())
	require.False(t, client.RateLimit().Known())
	require.NotNil(t, client.transport)
	require.Equal(t, 10, client.transport.MaxConnsPerHost)
	require.Equal(t, 5, client.transport.MaxIdleConns)
	require.Equal(t, 5, client.transport.MaxIdleConnsPerHost)
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	client, err := New("key", WithBaseURL("https://example.test///"))
	require.NoError(t, err)
	require.Equal(t, "https://example.test", client.BaseURL())
}

func TestGetSendsHeadersAndParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/user/token_list", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("AccessKey"))
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		require.Empty(t, r.Header.Get("Content-Type"))

		query := r.URL.Query()
		require.Equal(t, "0xabc", query.Get("id"))
		require.Equal(t, "true", query.Get("is_all"))
		require.Equal(t, "0", query.Get("start"))
		require.False(t, query.Has("chain_id"))

		_, _ = w.Write([]byte(`[{"id":"eth","amount":1.5}]`))
	}))
	defer server.Close()

	client, sleeps := newTestClient(t, server.URL)

	var missing *string
	result, err := client.Get(context.Background(), "/v1/user/token_list", Params{
		"id":       "0xabc",
		"is_all":   true,
		"start":    0,
		"chain_id": missing,
	})
	require.NoError(t, err)

	list, ok := result.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	require.Equal(t, "eth", list[0].(map[string]any)["id"])
	require.Empty(t, sleeps.recorded())
}

func TestEndpointLeadingSlashIsOptional(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL+"/")

	_, err := client.Get(context.Background(), "v1/chain/list", nil)
	require.NoError(t, err)
	_, err = client.Get(context.Background(), "/v1/chain/list", nil)
	require.NoError(t, err)

	require.Equal(t, []string{"/v1/chain/list", "/v1/chain/list"}, paths)
}

func TestPostSendsJSONBody(t *testing.T) {
	var bodies []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "test-key", r.Header.Get("AccessKey"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		_, _ = w.Write([]byte(`{"pre_exec":{"success":true}}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	result, err := client.PreExecTx(context.Background(), map[string]any{"chainId": 1}, nil)
	require.NoError(t, err)
	require.Equal(t, true, result.(map[string]any)["pre_exec"].(map[string]any)["success"])

	_, err = client.Post(context.Background(), "/v1/wallet/explain_tx", nil)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	require.Equal(t, map[string]any{"tx": map[string]any{"chainId": float64(1)}}, bodies[0])
	require.Empty(t, bodies[1])
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		header     http.Header
		kind       Kind
		contains   string
		retryAfter time.Duration
	}{
		{name: "bad request", status: 400, body: `{"error":{"message":"bad id"}}`, kind: KindValidation, contains: "Invalid request parameters: bad id"},
		{name: "unauthorized", status: 401, body: `nope`, kind: KindAuth, contains: "Authentication failed. Please check your DeBank API access key."},
		{name: "forbidden", status: 403, body: `units exhausted`, kind: KindAuth, contains: "Access forbidden: units exhausted. This may be due to capacity limits"},
		{name: "rate limited", status: 429, header: http.Header{"Retry-After": []string{"7"}}, kind: KindRateLimit, contains: "retry after 7 seconds", retryAfter: 7 * time.Second},
		{name: "rate limited default", status: 429, kind: KindRateLimit, contains: "retry after 60 seconds", retryAfter: 60 * time.Second},
		{name: "rate limited garbage header", status: 429, header: http.Header{"Retry-After": []string{"soon"}}, kind: KindRateLimit, retryAfter: 60 * time.Second},
		{name: "internal error", status: 500, body: `{"error":{"message":"boom"}}`, kind: KindServer, contains: "DeBank API internal error: boom. Please try again later."},
		{name: "unavailable", status: 503, kind: KindServer, contains: "HTTP 503"},
		{name: "not found", status: 404, body: `missing`, kind: KindUnclassified, contains: "API request failed with status 404: missing"},
		{name: "created", status: 201, body: `{}`, kind: KindUnclassified, contains: "status 201"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				for key, values := range tc.header {
					for _, v := range values {
						w.Header().Add(key, v)
					}
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client, sleeps := newTestClient(t, server.URL)
			_, err := client.Get(context.Background(), "/v1/chain", Params{"id": "eth"})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tc.kind, apiErr.Kind)
			require.Equal(t, tc.status, apiErr.StatusCode)
			require.Contains(t, err.Error(), strconv.Itoa(tc.status))
			if tc.contains != "" {
				require.Contains(t, strings.ToLower(apiErr.Message), strings.ToLower(tc.contains))
			}
			require.Equal(t, tc.retryAfter, apiErr.RetryAfter)

			require.Equal(t, int32(1), attempts.Load(), "non-200 responses are never retried")
			require.Empty(t, sleeps.recorded())
		})
	}
}

func TestRetryAfterHTTPDate(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", now.Add(90*time.Second).Format(http.TimeFormat))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, WithClock(func() time.Time { return now }))
	_, err := client.Get(context.Background(), "/v1/chain", nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, KindRateLimit, apiErr.Kind)
	require.Equal(t, 90*time.Second, apiErr.RetryAfter)
	require.Equal(t, 90, apiErr.RetryAfterSeconds())
}

func TestNonJSONSuccessIsUnclassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	_, err := client.Get(context.Background(), "/v1/chain/list", nil)
	require.Error(t, err)
	require.Equal(t, KindUnclassified, KindOf(err))
}

func TestTransportFailuresRetryWithBackoff(t *testing.T) {
	var attempts atomic.Int32
	httpClient := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts.Add(1)
		return nil, errors.New("connection refused")
	})}

	client, sleeps := newTestClient(t, "https://api.test", WithHTTPClient(httpClient))
	_, err := client.Get(context.Background(), "/v1/chain", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, KindNetwork, apiErr.Kind)
	require.Zero(t, apiErr.StatusCode)
	require.Contains(t, apiErr.Message, "Network error:")
	require.Contains(t, apiErr.Message, "connection refused")

	require.Equal(t, int32(DefaultMaxRetries+1), attempts.Load())
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, sleeps.recorded())
}

func TestTimeoutRetriesThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	httpClient := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if attempts.Add(1) <= 2 {
			return nil, timeoutErr{}
		}
		return jsonResponse(req, http.StatusOK, `{"usd_value":12.5}`), nil
	})}

	client, sleeps := newTestClient(t, "https://api.test", WithHTTPClient(httpClient))
	result, err := client.Get(context.Background(), "/v1/user/total_balance", Params{"id": "0xabc"})
	require.NoError(t, err)
	require.Equal(t, 12.5, result.(map[string]any)["usd_value"])

	require.Equal(t, int32(3), attempts.Load())
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeps.recorded())
}

func TestTimeoutExhaustionReturnsTimeoutKind(t *testing.T) {
	httpClient := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, timeoutErr{}
	})}

	client, sleeps := newTestClient(t, "https://api.test",
		WithHTTPClient(httpClient),
		WithMaxRetries(2),
		WithBackoffBase(10*time.Millisecond))
	_, err := client.Get(context.Background(), "/v1/chain", nil)
	require.Equal(t, KindTimeout, KindOf(err))
	require.Contains(t, err.Error(), "Request timeout:")
	require.Equal(t, []time.Duration{20 * time.Millisecond, 40 * time.Millisecond}, sleeps.recorded())
}

func TestSlowServerTimesOut(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL,
		WithTimeout(50*time.Millisecond),
		WithMaxRetries(1))
	_, err := client.Get(context.Background(), "/v1/chain", nil)
	require.Equal(t, KindTimeout, KindOf(err))
	require.Equal(t, int32(2), attempts.Load())
}

func TestZeroRetriesMakesOneAttempt(t *testing.T) {
	var attempts atomic.Int32
	httpClient := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts.Add(1)
		return nil, errors.New("reset by peer")
	})}

	client, sleeps := newTestClient(t, "https://api.test", WithHTTPClient(httpClient), WithMaxRetries(0))
	_, err := client.Get(context.Background(), "/v1/chain", nil)
	require.Equal(t, KindNetwork, KindOf(err))
	require.Equal(t, int32(1), attempts.Load())
	require.Empty(t, sleeps.recorded())
}

func TestRateLimitSnapshotReplacedWholesale(t *testing.T) {
	reset := time.Now().Add(time.Hour).Unix()
	var call atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch call.Add(1) {
		case 1:
			w.Header().Set("X-RateLimit-Remaining", "5")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
		case 2:
			// no rate-limit headers
		case 3:
			w.Header().Set("X-RateLimit-Remaining", "4")
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	_, err := client.Get(context.Background(), "/v1/chain", nil)
	require.NoError(t, err)
	snap := client.RateLimit()
	require.NotNil(t, snap.Remaining)
	require.Equal(t, 5, *snap.Remaining)
	require.NotNil(t, snap.Reset)
	require.Equal(t, reset, snap.Reset.Unix())

	_, err = client.Get(context.Background(), "/v1/chain", nil)
	require.NoError(t, err)
	require.Equal(t, 5, *client.RateLimit().Remaining, "responses without headers keep the snapshot")

	_, err = client.Get(context.Background(), "/v1/chain", nil)
	require.NoError(t, err)
	snap = client.RateLimit()
	require.Equal(t, 4, *snap.Remaining)
	require.Nil(t, snap.Reset, "snapshot is replaced, not merged")
}

func TestSnapshotUpdatedOnErrorResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	_, err := client.Get(context.Background(), "/v1/chain", nil)
	require.Equal(t, KindRateLimit, KindOf(err))
	require.Equal(t, 0, *client.RateLimit().Remaining)
}

func TestThrottleWaitsUntilReset(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var call atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if call.Add(1) == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(now.Add(10*time.Second).Unix(), 10))
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, sleeps := newTestClient(t, server.URL, WithClock(func() time.Time { return now }))

	_, err := client.Get(context.Background(), "/v1/chain", nil)
	require.NoError(t, err)
	require.Empty(t, sleeps.recorded())

	_, err = client.Get(context.Background(), "/v1/chain", nil)
	require.NoError(t, err)
	require.Equal(t, []time.Duration{10 * time.Second}, sleeps.recorded())
}

func TestThrottleSkipsPastResetOrRemainingBudget(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cases := map[string]http.Header{
		"reset in past": {
			"X-Ratelimit-Remaining": []string{"0"},
			"X-Ratelimit-Reset":     []string{strconv.FormatInt(now.Add(-time.Second).Unix(), 10)},
		},
		"budget left": {
			"X-Ratelimit-Remaining": []string{"3"},
			"X-Ratelimit-Reset":     []string{strconv.FormatInt(now.Add(time.Minute).Unix(), 10)},
		},
		"no reset": {
			"X-Ratelimit-Remaining": []string{"0"},
		},
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for key, values := range header {
					w.Header()[key] = values
				}
				_, _ = w.Write([]byte(`{}`))
			}))
			defer server.Close()

			client, sleeps := newTestClient(t, server.URL, WithClock(func() time.Time { return now }))
			for i := 0; i < 2; i++ {
				_, err := client.Get(context.Background(), "/v1/chain", nil)
				require.NoError(t, err)
			}
			require.Empty(t, sleeps.recorded())
		})
	}
}

func TestCancelledContextStopsRetries(t *testing.T) {
	var attempts atomic.Int32
	httpClient := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts.Add(1)
		return nil, errors.New("connection refused")
	})}

	ctx, cancel := context.WithCancel(context.Background())
	client, err := New("key",
		WithBaseURL("https://api.test"),
		WithHTTPClient(httpClient),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}))
	require.NoError(t, err)

	_, err = client.Get(ctx, "/v1/chain", nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int32(1), attempts.Load())
}

func TestCloseIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := New("key", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/v1/chain", nil)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = client.Get(context.Background(), "/v1/chain", nil)
	require.ErrorIs(t, err, ErrClosed)
	_, err = client.Post(context.Background(), "/v1/wallet/pre_exec_tx", nil)
	require.ErrorIs(t, err, ErrClosed)
}

func TestConvenienceEndpoints(t *testing.T) {
	type seen struct {
		method string
		path   string
		query  string
	}
	var mu sync.Mutex
	var calls []seen
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, seen{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery})
		mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	ctx := context.Background()

	_, err := client.GasMarket(ctx, "eth")
	require.NoError(t, err)
	_, err = client.TotalNetCurve(ctx, "0xabc", []string{"eth", "bsc"})
	require.NoError(t, err)
	_, err = client.ChainNetCurve(ctx, "0xabc", "eth")
	require.NoError(t, err)
	_, err = client.Pool(ctx, "0xpool", "eth")
	require.NoError(t, err)
	_, err = client.AccountUnits(ctx)
	require.NoError(t, err)
	_, err = client.ExplainTx(ctx, map[string]any{"from": "0x1"}, []map[string]any{{"from": "0x2"}})
	require.NoError(t, err)

	require.Equal(t, []seen{
		{http.MethodGet, "/v1/wallet/gas_market", "chain_id=eth"},
		{http.MethodGet, "/v1/user/total_net_curve", "chain_ids=eth%2Cbsc&id=0xabc"},
		{http.MethodGet, "/v1/user/chain_net_curve", "chain_id=eth&id=0xabc"},
		{http.MethodGet, "/v1/pool", "chain_id=eth&id=0xpool"},
		{http.MethodGet, "/v1/account/units", ""},
		{http.MethodPost, "/v1/wallet/explain_tx", ""},
	}, calls)
}

func TestChainListReturnedUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chain/list", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"eth","name":"Ethereum"}]`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	result, err := client.Get(context.Background(), "/v1/chain/list", nil)
	require.NoError(t, err)
	require.Equal(t, []any{map[string]any{"id": "eth", "name": "Ethereum"}}, result)
}

func TestRateLimitCarriesRetryAfterHint(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, recorder := newTestClient(t, srv.URL)
	_, err := client.Get(context.Background(), "/v1/user/total_balance", Params{"id": "0xabc"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, KindRateLimit, apiErr.Kind)
	require.Equal(t, 42, apiErr.RetryAfterSeconds())
	require.Equal(t, int32(1), hits.Load())
	require.Empty(t, recorder.recorded())
}

func TestUntrustedCertificateIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	srv.Config.ErrorLog = log.New(io.Discard, "", 0)
	srv.StartTLS()
	defer srv.Close()

	client, sleeps := newTestClient(t, srv.URL)
	_, err := client.Get(context.Background(), "/v1/chain/list", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, KindUnclassified, apiErr.Kind)
	require.Contains(t, apiErr.Message, "Request rejected:")
	require.False(t, IsRetryable(apiErr.Kind))
	require.Empty(t, sleeps.recorded())
	require.Zero(t, hits.Load())
}

func TestUnsupportedSchemeIsNotRetried(t *testing.T) {
	client, sleeps := newTestClient(t, "ftp://api.test")
	_, err := client.Get(context.Background(), "/v1/chain/list", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, KindUnclassified, apiErr.Kind)
	require.Contains(t, apiErr.Message, "unsupported protocol scheme")
	require.Empty(t, sleeps.recorded())
}
