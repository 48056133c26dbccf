package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClientRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient("", "gpt-4o")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewOpenAIClientDefaultsModel(t *testing.T) {
	client, err := NewOpenAIClient("sk-test", "")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", client.GetModelName())
}

func TestCompleteWithRequestProse(t *testing.T) {
	var captured openAIChatRequest

	client, err := NewOpenAIClient("sk-test", "gpt-4o")
	require.NoError(t, err)
	client.SetHTTPClient(newTestHTTPClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
		assert.Contains(t, req.URL.String(), "/chat/completions")

		body, readErr := io.ReadAll(req.Body)
		require.NoError(t, readErr)
		require.NoError(t, json.Unmarshal(body, &captured))

		return newTestHTTPResponse(req, http.StatusOK, `{
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "You have 3 tasks."}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5}
		}`), nil
	}))

	resp, err := client.CompleteWithRequest(context.Background(), &CompletionRequest{
		SystemPrompt: "You are a CRM assistant.",
		Messages: []Message{
			{Role: "user", Content: "show me my tasks"},
		},
		Tools: []map[string]interface{}{
			{"type": "function", "function": map[string]interface{}{"name": "get_tasks"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "You have 3 tasks.", resp.Content)
	assert.Empty(t, resp.ToolCalls)
	assert.Equal(t, "stop", resp.StopReason)

	require.NotEmpty(t, captured.Messages)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "auto", captured.ToolChoice)
	assert.Len(t, captured.Tools, 1)
}

func TestCompleteWithRequestToolCalls(t *testing.T) {
	client, err := NewOpenAIClient("sk-test", "gpt-4o")
	require.NoError(t, err)
	client.SetHTTPClient(newTestHTTPClient(func(req *http.Request) (*http.Response, error) {
		return newTestHTTPResponse(req, http.StatusOK, `{
			"choices": [{"index": 0, "finish_reason": "tool_calls",
				"message": {"role": "assistant", "content": null,
					"tool_calls": [{"id": "call_abc", "type": "function",
						"function": {"name": "delete_task", "arguments": "{\"task_id\":\"t42\"}"}}]}}]
		}`), nil
	}))

	resp, err := client.CompleteWithRequest(context.Background(), &CompletionRequest{
		Messages: []Message{{Role: "user", Content: "delete task t42"}},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "tool_calls", resp.StopReason)
	assert.Equal(t, "delete_task", ToolCallName(resp.ToolCalls[0]))
	assert.Equal(t, "call_abc", ToolCallID(resp.ToolCalls[0]))

	args, err := ToolCallArguments(resp.ToolCalls[0])
	require.NoError(t, err)
	assert.Equal(t, "t42", args["task_id"])
}

func TestCompleteWithRequestAPIError(t *testing.T) {
	client, err := NewOpenAIClient("sk-test", "gpt-4o")
	require.NoError(t, err)
	client.SetHTTPClient(newTestHTTPClient(func(req *http.Request) (*http.Response, error) {
		return newTestHTTPResponse(req, http.StatusUnauthorized, `{"error": {"message": "bad key"}}`), nil
	}))

	_, err = client.CompleteWithRequest(context.Background(), &CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestCompleteWithRequestNilRequest(t *testing.T) {
	client, err := NewOpenAIClient("sk-test", "gpt-4o")
	require.NoError(t, err)

	_, err = client.CompleteWithRequest(context.Background(), nil)
	require.Error(t, err)
}

func TestConvertMessagesToOpenAIToolWiring(t *testing.T) {
	req := &CompletionRequest{
		Messages: []Message{
			{Role: "user", Content: "show tasks"},
			{
				Role: "assistant",
				ToolCalls: []map[string]interface{}{
					{"id": "call_1", "type": "function",
						"function": map[string]interface{}{"name": "get_tasks", "arguments": "{}"}},
				},
			},
			{Role: "tool", Content: "Found tasks:\n- read book (ID: t1)", ToolID: "call_1", ToolName: "get_tasks"},
		},
	}

	messages, err := convertMessagesToOpenAI(req)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	assert.Len(t, messages[1].ToolCalls, 1)
	assert.Equal(t, "call_1", messages[2].ToolCallID)
	assert.Equal(t, "get_tasks", messages[2].Name)
}

func TestConvertMessagesToOpenAIEmpty(t *testing.T) {
	_, err := convertMessagesToOpenAI(&CompletionRequest{})
	require.Error(t, err)
}
