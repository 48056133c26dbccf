package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Seka35/visual-crm/internal/consts"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIClient implements the Client interface against the OpenAI
// chat-completions API.
type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIClient constructs a client that talks directly to the OpenAI API.
func NewOpenAIClient(apiKey, modelName string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai client requires an API key")
	}

	model := strings.TrimSpace(modelName)
	if model == "" {
		model = consts.DefaultModel
	}

	return &OpenAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: openAIDefaultBaseURL,
		httpClient: &http.Client{
			Timeout: consts.Timeout2Minutes,
		},
	}, nil
}

// SetHTTPClient overrides the underlying HTTP client (used in tests).
func (c *OpenAIClient) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// SetBaseURL overrides the API base URL.
func (c *OpenAIClient) SetBaseURL(url string) {
	if strings.TrimSpace(url) != "" {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

func (c *OpenAIClient) GetModelName() string {
	return c.model
}

func (c *OpenAIClient) CompleteWithRequest(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("openai completion request cannot be nil")
	}

	payload, err := c.buildChatRequest(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := c.newChatRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai completion failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message == nil {
		return &CompletionResponse{StopReason: "stop"}, nil
	}

	first := chatResp.Choices[0]
	stopReason := first.FinishReason
	if strings.TrimSpace(stopReason) == "" {
		stopReason = "stop"
	}

	return &CompletionResponse{
		Content:    extractOpenAIText(first.Message.Content),
		ToolCalls:  NormalizeToolCallIDs(copyOpenAIToolCalls(first.Message.ToolCalls)),
		StopReason: stopReason,
		Usage:      chatResp.Usage,
	}, nil
}

func (c *OpenAIClient) buildChatRequest(req *CompletionRequest) (*openAIChatRequest, error) {
	messages, err := convertMessagesToOpenAI(req)
	if err != nil {
		return nil, err
	}

	payload := &openAIChatRequest{
		Model:    c.model,
		Messages: messages,
	}

	if len(req.Tools) > 0 {
		payload.Tools = req.Tools
		payload.ToolChoice = "auto"
	}

	if req.Temperature != 0 {
		temp := req.Temperature
		payload.Temperature = &temp
	}

	if req.MaxTokens > 0 {
		payload.MaxTokens = req.MaxTokens
	}

	return payload, nil
}

func (c *OpenAIClient) newChatRequest(ctx context.Context, payload *openAIChatRequest) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai failed to encode payload: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.baseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

func convertMessagesToOpenAI(req *CompletionRequest) ([]openAIChatMessage, error) {
	messages := make([]openAIChatMessage, 0, len(req.Messages)+1)

	if system := strings.TrimSpace(req.SystemPrompt); system != "" {
		messages = append(messages, openAIChatMessage{
			Role:    "system",
			Content: system,
		})
	}

	for _, msg := range req.Messages {
		role := strings.TrimSpace(strings.ToLower(msg.Role))
		if role == "" {
			role = "user"
		}

		oMsg := openAIChatMessage{
			Role:    role,
			Content: msg.Content,
		}

		if msg.ToolName != "" {
			oMsg.Name = msg.ToolName
		}

		if role == "assistant" && len(msg.ToolCalls) > 0 {
			oMsg.ToolCalls = msg.ToolCalls
		}

		if role == "tool" && msg.ToolID != "" {
			oMsg.ToolCallID = msg.ToolID
		}

		messages = append(messages, oMsg)
	}

	if len(messages) == 0 {
		return nil, fmt.Errorf("openai completion requires at least one message")
	}

	return messages, nil
}

func copyOpenAIToolCalls(toolCalls []map[string]interface{}) []map[string]interface{} {
	if len(toolCalls) == 0 {
		return nil
	}

	result := make([]map[string]interface{}, 0, len(toolCalls))
	for _, tc := range toolCalls {
		if tc == nil {
			continue
		}

		copyMap := make(map[string]interface{}, len(tc))
		for k, v := range tc {
			if k == "function" {
				fnMap, _ := v.(map[string]interface{})
				if fnMap == nil {
					continue
				}

				fnCopy := make(map[string]interface{}, len(fnMap))
				for fk, fv := range fnMap {
					if fk == "arguments" {
						fnCopy[fk] = stringifyArguments(fv)
					} else {
						fnCopy[fk] = fv
					}
				}
				copyMap[k] = fnCopy
				continue
			}

			copyMap[k] = v
		}

		result = append(result, copyMap)
	}

	return result
}

func stringifyArguments(raw interface{}) string {
	switch value := raw.(type) {
	case nil:
		return "{}"
	case string:
		if strings.TrimSpace(value) == "" {
			return "{}"
		}
		return value
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return "{}"
		}
		return string(data)
	}
}

func extractOpenAIText(content interface{}) string {
	switch value := content.(type) {
	case nil:
		return ""
	case string:
		return value
	case []interface{}:
		var sb strings.Builder
		for _, part := range value {
			sb.WriteString(extractOpenAIText(part))
		}
		return sb.String()
	case map[string]interface{}:
		if text, ok := value["text"].(string); ok {
			return text
		}
		if inner, ok := value["content"]; ok {
			return extractOpenAIText(inner)
		}
	}
	return ""
}

type openAIChatRequest struct {
	Model       string                   `json:"model"`
	Messages    []openAIChatMessage      `json:"messages"`
	Tools       []map[string]interface{} `json:"tools,omitempty"`
	ToolChoice  string                   `json:"tool_choice,omitempty"`
	Temperature *float64                 `json:"temperature,omitempty"`
	MaxTokens   int                      `json:"max_tokens,omitempty"`
}

type openAIChatMessage struct {
	Role       string                   `json:"role"`
	Content    interface{}              `json:"content"`
	Name       string                   `json:"name,omitempty"`
	ToolCalls  []map[string]interface{} `json:"tool_calls,omitempty"`
	ToolCallID string                   `json:"tool_call_id,omitempty"`
}

type openAIChatResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Model   string                 `json:"model"`
	Created int64                  `json:"created"`
	Choices []openAIChatChoice     `json:"choices"`
	Usage   map[string]interface{} `json:"usage,omitempty"`
}

type openAIChatChoice struct {
	Index        int                `json:"index"`
	FinishReason string             `json:"finish_reason"`
	Message      *openAIChatMessage `json:"message"`
}
