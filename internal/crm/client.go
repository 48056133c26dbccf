package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Seka35/visual-crm/internal/consts"
	"github.com/Seka35/visual-crm/internal/logger"
)

// Collections the repository exposes. Every collection shares the same
// filtered CRUD contract.
const (
	CollectionContacts = "contacts"
	CollectionDeals    = "deals"
	CollectionTasks    = "tasks"
	CollectionDebts    = "debts"
	CollectionEvents   = "events"
)

var validCollections = map[string]bool{
	CollectionContacts: true,
	CollectionDeals:    true,
	CollectionTasks:    true,
	CollectionDebts:    true,
	CollectionEvents:   true,
}

// Record is an opaque field mapping returned by the repository.
type Record map[string]interface{}

// ID returns the record identifier as a string, empty when absent.
func (r Record) ID() string {
	return r.String("id")
}

// String returns a field as a string. Numeric identifiers are formatted
// without a decimal point.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Scope restricts repository calls to an owner and an optional workflow
// partition. An empty WorkflowID selects the private partition (records with
// no workflow assigned).
type Scope struct {
	UserID     string
	WorkflowID string
}

// Filter is an extra PostgREST condition appended to a list query,
// e.g. {Key: "completed", Op: "eq", Value: "false"}.
type Filter struct {
	Key   string
	Op    string
	Value string
}

// Client talks to the Supabase PostgREST API backing the CRM.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a repository client for the given Supabase project.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" || strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("supabase URL and key must be set")
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: consts.Timeout30Seconds,
		},
		log: logger.Global().WithPrefix("crm"),
	}, nil
}

// SetHTTPClient overrides the underlying HTTP client (used in tests).
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// List returns the records of a collection visible in the given scope.
func (c *Client) List(ctx context.Context, collection string, scope Scope, filters ...Filter) ([]Record, error) {
	if !validCollections[collection] {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}

	query := url.Values{}
	query.Set("select", "*")
	applyScope(query, scope)
	for _, f := range filters {
		query.Set(f.Key, f.Op+"."+f.Value)
	}

	var records []Record
	if err := c.do(ctx, http.MethodGet, collection, query, nil, &records); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return records, nil
}

// Create inserts a record into a collection, stamping it with the scope's
// owner and workflow.
func (c *Client) Create(ctx context.Context, collection string, fields Record, scope Scope) (Record, error) {
	if !validCollections[collection] {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}

	payload := make(Record, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	if scope.UserID != "" {
		payload["user_id"] = scope.UserID
	}
	if scope.WorkflowID != "" {
		payload["workflow_id"] = scope.WorkflowID
	}

	var created []Record
	if err := c.do(ctx, http.MethodPost, collection, nil, payload, &created); err != nil {
		return nil, fmt.Errorf("create %s: %w", collection, err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("create %s: empty response", collection)
	}
	return created[0], nil
}

// Update applies a partial field mapping to a single record by identifier.
func (c *Client) Update(ctx context.Context, collection, id string, fields Record) (Record, error) {
	if !validCollections[collection] {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("update %s: id is required", collection)
	}

	query := url.Values{}
	query.Set("id", "eq."+id)

	var updated []Record
	if err := c.do(ctx, http.MethodPatch, collection, query, fields, &updated); err != nil {
		return nil, fmt.Errorf("update %s %s: %w", collection, id, err)
	}
	if len(updated) == 0 {
		return nil, fmt.Errorf("update %s: no record with id %s", collection, id)
	}
	return updated[0], nil
}

// Delete removes a single record by identifier.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	if !validCollections[collection] {
		return fmt.Errorf("unknown collection %q", collection)
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("delete %s: id is required", collection)
	}

	query := url.Values{}
	query.Set("id", "eq."+id)

	if err := c.do(ctx, http.MethodDelete, collection, query, nil, nil); err != nil {
		return fmt.Errorf("delete %s %s: %w", collection, id, err)
	}
	return nil
}

func applyScope(query url.Values, scope Scope) {
	if scope.UserID != "" {
		query.Set("user_id", "eq."+scope.UserID)
	}
	if scope.WorkflowID != "" {
		query.Set("workflow_id", "eq."+scope.WorkflowID)
	} else if scope.UserID != "" {
		// Private partition: only records with no workflow assigned.
		query.Set("workflow_id", "is.null")
	}
}

func (c *Client) do(ctx context.Context, method, table string, query url.Values, body interface{}, out interface{}) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	c.log.Debug("%s %s", method, endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
