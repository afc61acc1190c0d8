// Package mcpserver exposes the question answering service as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/orchestrator"
)

const instructions = "Financial question answering over an internal document index with web search fallback. " +
	"Use ask for complete answers and search-context to inspect the indexed snippets."

// Service is the part of rag.Service the tools need.
type Service interface {
	Ask(ctx context.Context, question string) (*orchestrator.Answer, error)
	SearchContext(ctx context.Context, query string, topK int) ([]string, error)
}

// New registers the ask and search-context tools.
func New(name, version string, svc Service) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Answer a question by decomposing it, retrieving evidence for each part and synthesizing one response"),
			mcp.WithString("question", mcp.Required(), mcp.Description("The natural-language question")),
		),
		HandleAsk(svc),
	)
	s.AddTool(
		mcp.NewTool("search-context",
			mcp.WithDescription("Return the internal index snippets most relevant to a query"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
			mcp.WithNumber("top_k", mcp.Description("Number of snippets to return")),
		),
		HandleSearchContext(svc),
	)
	return s
}

// ServeStdio blocks serving the tools over stdin and stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func HandleAsk(svc Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ans, err := svc.Ask(ctx, question)
		if err != nil {
			logger.Errorf("mcp: ask failed: %v", err)
			return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
		}
		return mcp.NewToolResultText(ans.Message), nil
	}
}

func HandleSearchContext(svc Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		snippets, err := svc.SearchContext(ctx, query, req.GetInt("top_k", 0))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		data, err := json.Marshal(map[string]any{"query": query, "snippets": snippets})
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
