package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Seka35/visual-crm/internal/consts"
	"github.com/Seka35/visual-crm/internal/logger"
)

const defaultAPIBase = "https://api.telegram.org"

// Client is a minimal Bot API client over net/http. Methods map one-to-one
// onto Bot API methods.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a Bot API client for the given bot token.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("Telegram bot token is required")
	}
	return &Client{
		token:   token,
		baseURL: defaultAPIBase,
		httpClient: &http.Client{
			// Above the long-poll window so getUpdates can idle out
			// server-side first.
			Timeout: time.Duration(consts.LongPollSeconds+10) * time.Second,
		},
		log: logger.Global().WithPrefix("telegram"),
	}, nil
}

// SetBaseURL overrides the API endpoint (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetHTTPClient overrides the HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

// call posts a JSON payload to one Bot API method and decodes the result
// into out (which may be nil when the result does not matter).
func (c *Client) call(ctx context.Context, method string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", method, err)
		}
		body = bytes.NewReader(data)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("%s failed: %s (code %d)", method, api.Description, api.ErrorCode)
	}
	if out != nil {
		if err := json.Unmarshal(api.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetMe returns the bot's own account, useful as a startup health check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates long-polls for new updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	payload := map[string]interface{}{
		"offset":          offset,
		"timeout":         timeoutSeconds,
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends a message and returns the sent copy.
func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) (*Message, error) {
	var msg Message
	if err := c.call(ctx, "sendMessage", params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageText rewrites a previously sent message in place.
func (c *Client) EditMessageText(ctx context.Context, params EditMessageTextParams) error {
	return c.call(ctx, "editMessageText", params, nil)
}

// AnswerCallbackQuery acknowledges a button press so the client stops the
// loading spinner.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	payload := map[string]interface{}{"callback_query_id": callbackID}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// SendChatAction shows a "typing..." indicator while a turn is processed.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	payload := map[string]interface{}{"chat_id": chatID, "action": action}
	return c.call(ctx, "sendChatAction", payload, nil)
}

// GetFile resolves a file id to a downloadable server path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	payload := map[string]interface{}{"file_id": fileID}
	var file File
	if err := c.call(ctx, "getFile", payload, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DownloadFile streams a file previously resolved with GetFile. The caller
// closes the reader.
func (c *Client) DownloadFile(ctx context.Context, filePath string) (io.ReadCloser, error) {
	url := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("file download failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("file download failed: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// SetMyCommands publishes the command menu shown in the chat UI.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	payload := map[string]interface{}{"commands": commands}
	return c.call(ctx, "setMyCommands", payload, nil)
}

// SetWebhook registers the push endpoint for webhook mode.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	payload := map[string]interface{}{
		"url":             url,
		"allowed_updates": []string{"message", "callback_query"},
	}
	return c.call(ctx, "setWebhook", payload, nil)
}

// DeleteWebhook switches back to long polling.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", nil, nil)
}
