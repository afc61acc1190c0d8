package httpx

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
)

type Client struct {
	hc        *http.Client
	opt       Options
	fail      int32 // consecutive failures
	openUntil int64 // unix nanos for circuit open deadline
}

type Options struct {
	Timeout            time.Duration
	Retry              int
	BackoffMin         time.Duration
	BackoffMax         time.Duration
	HostAllowlist      []string
	MaxConsecutiveFail int
	CircuitOpen        time.Duration
}

var (
	ErrCircuitOpen    = errors.New("circuit open")
	ErrHostNotAllowed = errors.New("host not allowed")
)

// StatusError is returned by DoJSON for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func NewFromConfig(cfg *config.HTTPClientConfig) *Client {
	if cfg == nil {
		cfg = &config.HTTPClientConfig{}
	}
	to := config.Ms(cfg.TimeoutMs, 1200*time.Millisecond)
	retry := 1
	if cfg.Retry > 0 {
		retry = cfg.Retry
	}
	mcf := 5
	if cfg.MaxConsecutiveFailures > 0 {
		mcf = cfg.MaxConsecutiveFailures
	}
	cop := 5 * time.Second
	if cfg.CircuitOpenSeconds > 0 {
		cop = time.Duration(cfg.CircuitOpenSeconds) * time.Second
	}

	transport := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: to}).DialContext,
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:    100,
		IdleConnTimeout: 30 * time.Second,
	}
	return New(&http.Client{Timeout: to, Transport: transport}, Options{
		Timeout:            to,
		Retry:              retry,
		BackoffMin:         config.Ms(cfg.BackoffMinMs, 100*time.Millisecond),
		BackoffMax:         config.Ms(cfg.BackoffMaxMs, 800*time.Millisecond),
		HostAllowlist:      cfg.HostAllowlist,
		MaxConsecutiveFail: mcf,
		CircuitOpen:        cop,
	})
}

// New wraps an existing http.Client, mostly for tests against httptest servers.
func New(hc *http.Client, opt Options) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if opt.MaxConsecutiveFail <= 0 {
		opt.MaxConsecutiveFail = 5
	}
	return &Client{hc: hc, opt: opt}
}

func (c *Client) allowed(u *url.URL) bool {
	if len(c.opt.HostAllowlist) == 0 {
		return true
	}
	host := u.Hostname()
	for _, h := range c.opt.HostAllowlist {
		if matchHost(h, host) {
			return true
		}
	}
	return false
}

func matchHost(pattern, host string) bool {
	if pattern == "*" {
		return true
	}
	if strings.EqualFold(pattern, host) {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suf := strings.TrimPrefix(pattern, "*.")
		return strings.HasSuffix(host, "."+suf) || host == suf
	}
	return false
}

// Do sends req, retrying transport errors and 5xx responses with jittered backoff.
// A request body is replayed through req.GetBody on each retry.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if !c.allowed(req.URL) {
		logger.Warnf("httpx: blocked outbound host: %s", req.URL.Host)
		return nil, ErrHostNotAllowed
	}
	if atomic.LoadInt64(&c.openUntil) > time.Now().UnixNano() {
		return nil, ErrCircuitOpen
	}
	ctx := req.Context()
	var resp *http.Response
	var err error
	for i := 0; i <= c.opt.Retry; i++ {
		if i > 0 && req.GetBody != nil {
			body, gerr := req.GetBody()
			if gerr != nil {
				return nil, gerr
			}
			req.Body = body
		}
		resp, err = c.hc.Do(req)
		if err == nil && resp.StatusCode < 500 {
			atomic.StoreInt32(&c.fail, 0)
			return resp, nil
		}
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err == nil {
			err = &StatusError{StatusCode: resp.StatusCode}
		}
		resp = nil
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warnf("httpx: request failed (try %d/%d) to %s: %v", i+1, c.opt.Retry+1, req.URL.Host, err)
		if i < c.opt.Retry {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffJitter(c.opt.BackoffMin, c.opt.BackoffMax)):
			}
		}
	}
	if atomic.AddInt32(&c.fail, 1) >= int32(c.opt.MaxConsecutiveFail) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.opt.CircuitOpen).UnixNano())
		atomic.StoreInt32(&c.fail, 0)
		logger.Warnf("httpx: circuit opened for %v", c.opt.CircuitOpen)
	}
	return nil, err
}

// DoJSON marshals in (when non-nil) as the request body, sends it and decodes a 2xx
// response into out (when non-nil).
func (c *Client) DoJSON(ctx context.Context, method, rawURL string, header http.Header, in, out any) error {
	var body io.Reader
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if in != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 256)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func backoffJitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}
