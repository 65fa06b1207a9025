package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Table names of the three entity kinds.
const (
	TableProfiles = "profiles"
	TableShifts   = "shifts"
	TableTasks    = "tasks"
)

// TokenSource supplies the current access token for the Authorization
// header. An empty token means the call goes out unauthenticated and the
// store will reject it.
type TokenSource interface {
	Token() string
}

// Config holds table-store client configuration.
type Config struct {
	// BaseURL is the service root; the row API lives under /rest/v1.
	BaseURL string
	// APIKey is sent as the apikey header on every request.
	APIKey     string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the remote table store. All list and write traffic of the
// sync core goes through it; it holds no entity state of its own.
type Client struct {
	baseURL    string
	apiKey     string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a table-store client.
func NewClient(cfg Config, tokens TokenSource) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     logger.With("component", "remote"),
	}
}

// List fetches every row of table ordered ascending by orderCol.
func (c *Client) List(ctx context.Context, table, orderCol string) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", orderCol+".asc")

	var rows []json.RawMessage
	if err := c.do(ctx, http.MethodGet, table, q, nil, nil, &rows); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return rows, nil
}

// Insert creates one row. The store assigns the identifier.
func (c *Client) Insert(ctx context.Context, table string, row map[string]any) error {
	if err := c.do(ctx, http.MethodPost, table, nil, nil, row, nil); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// Update patches the row with the given id, sending only the columns present
// in partial. Omitted columns are left untouched by the store. Returns
// ErrNotFound when no row matched.
func (c *Client) Update(ctx context.Context, table, id string, partial map[string]any) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	headers := http.Header{"Prefer": []string{"return=representation"}}

	var updated []json.RawMessage
	if err := c.do(ctx, http.MethodPatch, table, q, headers, partial, &updated); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("update %s %s: %w", table, id, ErrNotFound)
	}
	return nil
}

// Delete removes the row with the given id. Deleting a row that is already
// gone is not an error.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	if err := c.do(ctx, http.MethodDelete, table, q, nil, nil, nil); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// Upsert inserts row or replaces the existing row sharing its conflict key,
// e.g. Upsert(ctx, "shifts", row, "user_id,date").
func (c *Client) Upsert(ctx context.Context, table string, row map[string]any, conflictCols string) error {
	q := url.Values{}
	q.Set("on_conflict", conflictCols)
	headers := http.Header{"Prefer": []string{"resolution=merge-duplicates"}}

	if err := c.do(ctx, http.MethodPost, table, q, headers, row, nil); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, table string, query url.Values, headers http.Header, body, out any) error {
	u := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("X-Client-Request-Id", uuid.NewString())
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil {
			apiErr.Code = errBody.Code
			apiErr.Message = errBody.Message
		}
		c.logger.Debug("request failed", "method", method, "table", table, "status", resp.StatusCode)
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
