package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureRequestID(t *testing.T, header string) (string, string) {
	t.Helper()

	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return seen, rec.Header().Get(RequestIDHeader)
}

func TestRequestIDReusesCallerValue(t *testing.T) {
	seen, echoed := captureRequestID(t, "  call-42  ")
	assert.Equal(t, "call-42", seen)
	assert.Equal(t, "call-42", echoed)
}

func TestRequestIDReplacesUnsafeValues(t *testing.T) {
	for name, header := range map[string]string{
		"missing":  "",
		"too long": strings.Repeat("a", maxRequestIDLen+1),
		"spaces":   "two words",
		"control":  "id\x01",
	} {
		t.Run(name, func(t *testing.T) {
			seen, echoed := captureRequestID(t, header)
			require.Len(t, seen, 36)
			assert.Equal(t, seen, echoed)
			assert.NotEqual(t, strings.TrimSpace(header), seen)
		})
	}
}

func TestGetRequestID(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Equal(t, "abc", GetRequestID(WithRequestID(context.Background(), "abc")))
}
