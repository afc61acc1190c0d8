package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/orchestrator"
)

type fakeService struct {
	askErr    error
	uploadErr error
	saved     map[string]string
}

func (f *fakeService) Ask(ctx context.Context, question string) (*orchestrator.Answer, error) {
	if f.askErr != nil {
		return nil, f.askErr
	}
	if question == "exit" {
		return &orchestrator.Answer{Message: "Exiting the app."}, nil
	}
	return &orchestrator.Answer{Message: "answer: " + question}, nil
}

func (f *fakeService) SaveUpload(ctx context.Context, name string, r io.Reader) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, _ := io.ReadAll(r)
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[name] = string(data)
	return name, nil
}

func newTestServer(svc Service) *httptest.Server {
	cfg := config.Default().Server
	return httptest.NewServer(New(svc, cfg, 1<<20).Handler())
}

func TestAsk(t *testing.T) {
	ts := newTestServer(&fakeService{})
	defer ts.Close()

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"answer", `{"question":"revenue?"}`, http.StatusOK, `{"message":"answer: revenue?"}`},
		{"exit", `{"question":"exit"}`, http.StatusOK, `{"message":"Exiting the app."}`},
		{"bad json", `{"question":`, http.StatusBadRequest, `{"error":"invalid request body"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/v1/users", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.JSONEq(t, tt.want, string(body))
		})
	}
}

func TestAskErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{errs.Wrap(errs.ErrClassifierUnavailable, "gate", errors.New("down")), http.StatusBadGateway},
		{errs.Wrap(errs.ErrRetrievalUnavailable, "search", errors.New("down")), http.StatusServiceUnavailable},
		{errs.New(errs.ErrInvalidQuestion, "run", "empty question"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		ts := newTestServer(&fakeService{askErr: tt.err})
		resp, err := http.Post(ts.URL+"/api/v1/users", "application/json", strings.NewReader(`{"question":"q"}`))
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.err.Error())
		resp.Body.Close()
		ts.Close()
	}
}

func multipartBody(t *testing.T, field, name, content string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	svc := &fakeService{}
	ts := newTestServer(svc)
	defer ts.Close()

	body, ct := multipartBody(t, "file", "10k.txt", "annual report")
	resp, err := http.Post(ts.URL+"/api/v1/users/uploadDocument", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"filename":"10k.txt","status":"uploaded"}`, string(data))
	assert.Equal(t, "annual report", svc.saved["10k.txt"])
}

func TestUploadFailures(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		err    error
		status int
		detail string
	}{
		{"missing file", "document", nil, http.StatusBadRequest, "missing file"},
		{"io failure", "file", errors.New("disk full"), http.StatusInternalServerError, "Something went wrong"},
		{"invalid", "file", errs.New(errs.ErrInvalidUpload, "upload", "file exceeds 1 bytes"), http.StatusBadRequest, "file exceeds 1 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(&fakeService{uploadErr: tt.err})
			defer ts.Close()
			body, ct := multipartBody(t, tt.field, "a.txt", "x")
			resp, err := http.Post(ts.URL+"/api/v1/users/uploadDocument", ct, body)
			require.NoError(t, err)
			defer resp.Body.Close()
			data, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, string(data), tt.detail)
		})
	}
}

func TestHealthMetricsAndCORS(t *testing.T) {
	ts := newTestServer(&fakeService{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "go_goroutines")

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/users", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://frontend.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"), fmt.Sprint(resp.Header))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}
