package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(retry int) *Client {
	return New(&http.Client{Timeout: time.Second}, Options{
		Retry:              retry,
		BackoffMin:         time.Millisecond,
		BackoffMax:         2 * time.Millisecond,
		MaxConsecutiveFail: 2,
		CircuitOpen:        time.Minute,
	})
}

func TestDoRetriesServerErrorsAndReplaysBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"q":"nvidia"}`, string(body))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := testClient(1).DoJSON(context.Background(), http.MethodPost, srv.URL, nil, map[string]string{"q": "nvidia"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDoJSONClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := testClient(3).DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(0)
	for i := 0; i < 2; i++ {
		err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)
		require.Error(t, err)
	}
	err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestHostAllowlist(t *testing.T) {
	c := New(nil, Options{HostAllowlist: []string{"*.serper.dev"}})
	err := c.DoJSON(context.Background(), http.MethodGet, "http://example.com/", nil, nil, nil)
	assert.ErrorIs(t, err, ErrHostNotAllowed)

	tests := []struct {
		pattern, host string
		want          bool
	}{
		{"*", "anything", true},
		{"serpapi.com", "SerpAPI.com", true},
		{"*.serper.dev", "google.serper.dev", true},
		{"*.serper.dev", "serper.dev", true},
		{"*.serper.dev", "evilserper.dev", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchHost(tt.pattern, tt.host), "%s vs %s", tt.pattern, tt.host)
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := testClient(5).DoJSON(ctx, http.MethodGet, srv.URL, nil, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
