package llm

import (
	"context"
	"time"
)

// Message represents a chat message
type Message struct {
	Role      string                   `json:"role"` // "user", "assistant", "tool"
	Content   string                   `json:"content"`
	ToolCalls []map[string]interface{} `json:"tool_calls,omitempty"`
	ToolID    string                   `json:"tool_id,omitempty"`
	ToolName  string                   `json:"tool_name,omitempty"` // Name of the tool for tool responses
	Timestamp time.Time                `json:"timestamp,omitempty"`
}

// CompletionRequest represents a completion request
type CompletionRequest struct {
	Messages     []Message                `json:"messages"`
	Tools        []map[string]interface{} `json:"tools,omitempty"`
	Temperature  float64                  `json:"temperature"`
	MaxTokens    int                      `json:"max_tokens,omitempty"`
	SystemPrompt string                   `json:"system_prompt,omitempty"`
}

// CompletionResponse represents a completion response
type CompletionResponse struct {
	Content    string                   `json:"content"`
	ToolCalls  []map[string]interface{} `json:"tool_calls,omitempty"`
	StopReason string                   `json:"stop_reason"`
	Usage      map[string]interface{}   `json:"usage,omitempty"`
}

// Client is the interface for LLM clients
type Client interface {
	// CompleteWithRequest sends a completion request and returns the response
	CompleteWithRequest(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	// GetModelName returns the model name
	GetModelName() string
}
