// Package debank is the HTTP client for the DeBank Pro OpenAPI.
//
// The client injects the AccessKey header, tracks rate-limit headers,
// retries transport-level failures with exponential backoff and classifies
// every other failure into an *APIError with a fixed Kind.
package debank

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/defilens/debank-mcp/internal/metrics"
)

const (
	DefaultBaseURL     = "https://pro-openapi.debank.com"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultBackoffBase = time.Second

	// Pool ceiling protects the upstream service, not local throughput.
	maxConnsPerHost = 10
	maxIdleConns    = 5

	headerAccessKey = "AccessKey"
)

// Client performs authenticated calls against the DeBank API.
// A Client is safe for concurrent use.
type Client struct {
	baseURL     string
	accessKey   string
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration

	httpClient *http.Client
	transport  *http.Transport
	logger     *logging.Logger
	clock      func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	snapshot RateLimitSnapshot

	closeOnce sync.Once
	closed    atomic.Bool
}

// Option customizes a Client at construction.
type Option func(*Client)

// WithBaseURL overrides the API origin. Trailing slashes are removed.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMaxRetries sets how many extra attempts transient failures get.
func WithMaxRetries(retries int) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.maxRetries = retries
		}
	}
}

// WithBackoffBase sets the unit of the exponential backoff (base * 2^attempt).
func WithBackoffBase(base time.Duration) Option {
	return func(c *Client) {
		if base >= 0 {
			c.backoffBase = base
		}
	}
}

// WithLogger attaches a logger for request and retry diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the pooled HTTP client. The caller owns its transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithClock overrides the time source used for rate-limit decisions.
func WithClock(clock func() time.Time) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithSleep overrides how the client waits during backoff and throttling.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New builds a client. An empty access key fails with KindConfiguration
// before any transport is allocated.
func New(accessKey string, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(accessKey)
	if key == "" {
		return nil, configurationError("access key is required")
	}

	c := &Client{
		baseURL:     DefaultBaseURL,
		accessKey:   key,
		timeout:     DefaultTimeout,
		maxRetries:  DefaultMaxRetries,
		backoffBase: DefaultBackoffBase,
		clock:       time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	if c.httpClient == nil {
		c.transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxConnsPerHost:     maxConnsPerHost,
			MaxIdleConns:        maxIdleConns,
			MaxIdleConnsPerHost: maxIdleConns,
			IdleConnTimeout:     90 * time.Second,
		}
		c.httpClient = &http.Client{Transport: c.transport, Timeout: c.timeout}
	}

	return c, nil
}

// BaseURL returns the normalized API origin.
func (c *Client) BaseURL() string { return c.baseURL }

// MaxRetries returns the configured retry budget for transient failures.
func (c *Client) MaxRetries() int { return c.maxRetries }

// Timeout returns the per-attempt timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Closed reports whether Close has been called.
func (c *Client) Closed() bool { return c.closed.Load() }

// RateLimit returns a copy of the last observed rate-limit snapshot.
func (c *Client) RateLimit() RateLimitSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Get issues a GET request and returns the decoded JSON body.
func (c *Client) Get(ctx context.Context, endpoint string, params Params) (any, error) {
	return c.do(ctx, http.MethodGet, endpoint, params.Encode(), nil)
}

// Post issues a POST request with body encoded as JSON. A nil body is sent as {}.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (any, error) {
	if body == nil {
		body = map[string]any{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, "", payload)
}

// Close releases pooled connections. It is safe to call more than once.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.transport != nil {
			c.transport.CloseIdleConnections()
			return
		}
		if c.httpClient != nil {
			c.httpClient.CloseIdleConnections()
		}
	})
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint, query string, body []byte) (any, error) {
	if c == nil {
		return nil, configurationError("client is not configured")
	}
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	path := strings.TrimLeft(endpoint, "/")
	target := c.baseURL + "/" + path
	if query != "" {
		target += "?" + query
	}

	if err := c.awaitRateLimit(ctx); err != nil {
		return nil, err
	}

	var lastErr *APIError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		result, err := c.attempt(ctx, method, target, path, body, attempt+1)
		if err == nil {
			return result, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !IsRetryable(apiErr.Kind) {
			return nil, err
		}
		lastErr = apiErr
		metrics.RecordUpstreamRetry(path, string(apiErr.Kind))

		if attempt == c.maxRetries {
			break
		}

		delay := c.backoff(attempt + 1)
		if c.logger != nil {
			c.logger.Warn("DeBank request failed, retrying",
				zap.String("method", method),
				zap.String("endpoint", path),
				zap.String("kind", string(apiErr.Kind)),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.Error(apiErr))
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, method, target, path string, body []byte, attempt int) (any, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &APIError{Kind: KindUnclassified, Message: "build request: " + err.Error(), Err: err}
	}
	req.Header.Set(headerAccessKey, c.accessKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.logger != nil {
		c.logger.Debug("DeBank request",
			zap.String("method", method),
			zap.String("endpoint", path),
			zap.Int("attempt", attempt))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		metrics.RecordUpstreamRequest(method, path, 0, time.Since(start))
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	c.observeRateLimit(resp.Header)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classifyTransport(err)
	}
	metrics.RecordUpstreamRequest(method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusOK {
		var decoded any
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, &APIError{
				Kind:       KindUnclassified,
				StatusCode: resp.StatusCode,
				Message:    "invalid JSON response: " + err.Error(),
				Err:        err,
			}
		}
		return decoded, nil
	}

	apiErr := classifyResponse(resp.StatusCode, errorDetail(resp.StatusCode, payload), retryAfterHeader(resp.Header, c.clock()))
	if c.logger != nil {
		c.logger.Debug("DeBank request rejected",
			zap.String("method", method),
			zap.String("endpoint", path),
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(apiErr.Kind)))
	}
	return nil, apiErr
}

// awaitRateLimit pauses when the last response reported an exhausted budget.
// This is a courtesy delay: concurrent callers may read the same snapshot and
// all proceed once the reset passes.
func (c *Client) awaitRateLimit(ctx context.Context) error {
	snap := c.RateLimit()
	wait := snap.waitFor(c.clock())
	if wait <= 0 {
		return nil
	}
	if c.logger != nil {
		c.logger.Info("DeBank rate limit exhausted, waiting for reset",
			zap.Duration("wait", wait),
			zap.Time("reset", *snap.Reset))
	}
	return c.sleep(ctx, wait)
}

func (c *Client) observeRateLimit(h http.Header) {
	snap, ok := snapshotFromHeaders(h)
	if !ok {
		return
	}
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
}

func (c *Client) backoff(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	return c.backoffBase * time.Duration(int64(1)<<uint(attempt))
}

// errorDetail extracts {"error":{"message":...}} from a body, falling back to
// the raw text and then to a generic status string.
func errorDetail(status int, body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

// classifyTransport separates retryable connection failures from errors that
// another attempt cannot fix: certificate verification and a base URL the
// transport cannot speak.
func classifyTransport(err error) *APIError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return timeoutError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutError(err)
	}
	if isCertificateError(err) || isUnsupportedScheme(err) {
		return rejectedError(err)
	}
	return networkError(err)
}

func isCertificateError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var invalid x509.CertificateInvalidError
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &invalid)
}

func isUnsupportedScheme(err error) bool {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) || urlErr.Err == nil {
		return false
	}
	return strings.HasPrefix(urlErr.Err.Error(), "unsupported protocol scheme")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
