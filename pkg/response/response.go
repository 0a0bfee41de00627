package response

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPResponse represents the response returned by the MCP server
type MCPResponse struct {
	// LLM response to be sent to the LLM
	LLM any `json:"llm"`
}

// CreateMcpResponse marshals payload into the JSON text sent back to the client.
func CreateMcpResponse(payload any) (string, error) {
	bytes, err := json.Marshal(MCPResponse{LLM: payload})
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}

	return string(bytes), nil
}

// NewToolResult wraps payload in a text tool result.
func NewToolResult(payload any) (*mcp.CallToolResult, error) {
	text, err := CreateMcpResponse(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil
}
