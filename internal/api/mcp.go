package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPDeps holds dependencies for the MCP server. OwnerID fixes which user's
// documents the stdio transport queries; MCP clients are local and
// pre-trusted for exactly one account.
type MCPDeps struct {
	Answer  Asker
	OwnerID string
}

// NewMCPServer creates an MCP server exposing the question pipeline as a tool.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"docqa",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("docqa answers questions from the configured user's uploaded documents."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask_documents",
			mcp.WithDescription("Answer a natural-language question using only the user's uploaded documents. Consumes one daily quota slot."),
			mcp.WithString("question", mcp.Description("The question to answer"), mcp.Required()),
		),
		mcpAskDocuments(deps),
	)

	return s
}

func mcpAskDocuments(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		res, err := deps.Answer.Ask(ctx, deps.OwnerID, question)
		if err != nil {
			return mcpError(fmt.Sprintf("ask failed: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(res.Answer)
		if len(res.Sources) > 0 {
			sb.WriteString("\n\nSources:")
			for _, src := range res.Sources {
				fmt.Fprintf(&sb, "\n- %s (similarity %.6f)", src.DocumentID, src.Similarity)
			}
		}
		fmt.Fprintf(&sb, "\n\nQuestions used today: %d (%d remaining)", res.QuestionsUsed, res.QuestionsRemaining)
		return mcpText(sb.String()), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
