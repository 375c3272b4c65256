package debank

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
	headerRetryAfter         = "Retry-After"
)

// RateLimitSnapshot is the last rate-limit state observed in response headers.
// Both fields stay nil until the upstream reports them.
type RateLimitSnapshot struct {
	Remaining *int
	Reset     *time.Time
}

// Known reports whether any rate-limit header has been observed.
func (s RateLimitSnapshot) Known() bool {
	return s.Remaining != nil || s.Reset != nil
}

// waitFor returns how long a caller should pause before issuing a request.
// Only an exhausted budget with a future reset produces a wait.
func (s RateLimitSnapshot) waitFor(now time.Time) time.Duration {
	if s.Remaining == nil || s.Reset == nil {
		return 0
	}
	if *s.Remaining != 0 {
		return 0
	}
	if !now.Before(*s.Reset) {
		return 0
	}
	return s.Reset.Sub(now)
}

// snapshotFromHeaders builds a fresh snapshot from a response. ok is false when
// the response carries no parseable rate-limit header at all, in which case the
// previous snapshot must be kept.
func snapshotFromHeaders(h http.Header) (RateLimitSnapshot, bool) {
	var snap RateLimitSnapshot
	if h == nil {
		return snap, false
	}

	if raw := strings.TrimSpace(h.Get(headerRateLimitRemaining)); raw != "" {
		if remaining, err := strconv.Atoi(raw); err == nil {
			snap.Remaining = &remaining
		}
	}
	if raw := strings.TrimSpace(h.Get(headerRateLimitReset)); raw != "" {
		if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
			reset := time.Unix(ts, 0)
			snap.Reset = &reset
		}
	}

	return snap, snap.Known()
}

// retryAfterHeader parses Retry-After as delta-seconds or an HTTP date.
func retryAfterHeader(h http.Header, now time.Time) time.Duration {
	if h == nil {
		return 0
	}
	raw := strings.TrimSpace(h.Get(headerRetryAfter))
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if parsed, err := http.ParseTime(raw); err == nil {
		if wait := parsed.Sub(now); wait > 0 {
			return wait
		}
	}
	return 0
}
