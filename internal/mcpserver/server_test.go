package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/orchestrator"
)

type fakeService struct {
	err  error
	topK int
}

func (f *fakeService) Ask(ctx context.Context, question string) (*orchestrator.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &orchestrator.Answer{Message: "answer: " + question}, nil
}

func (f *fakeService) SearchContext(ctx context.Context, query string, topK int) ([]string, error) {
	f.topK = topK
	return []string{"snippet"}, f.err
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandleAsk(t *testing.T) {
	res, err := HandleAsk(&fakeService{})(context.Background(), call("ask", map[string]any{"question": "revenue?"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "answer: revenue?", text(t, res))
}

func TestHandleAskErrors(t *testing.T) {
	res, err := HandleAsk(&fakeService{})(context.Background(), call("ask", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = HandleAsk(&fakeService{err: errors.New("down")})(context.Background(), call("ask", map[string]any{"question": "q"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "down")
}

func TestHandleSearchContext(t *testing.T) {
	svc := &fakeService{}
	res, err := HandleSearchContext(svc)(context.Background(), call("search-context", map[string]any{"query": "margins", "top_k": 3}))
	require.NoError(t, err)
	var body struct {
		Query    string   `json:"query"`
		Snippets []string `json:"snippets"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &body))
	assert.Equal(t, "margins", body.Query)
	assert.Equal(t, []string{"snippet"}, body.Snippets)
	assert.Equal(t, 3, svc.topK)
}

func TestNewRegistersTools(t *testing.T) {
	s := New("pathway-rag", "test", &fakeService{})
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"ask"`)
	assert.Contains(t, string(data), `"name":"search-context"`)
}
