package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/okian/streak/internal/domain/model"
	"github.com/okian/streak/internal/domain/types"
)

// Client talks to the streak HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// ackResponse is returned for a replayed idempotency key.
type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, "", nil)
}

// Bulk posts one bulk edit. It reports whether the server treated the request
// as a duplicate of an earlier one with the same key.
func (c *Client) Bulk(ctx context.Context, user string, req types.BulkRequest, key string) (bool, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(user)+"/bulk", req, key, &raw); err != nil {
		return false, err
	}
	return duplicate(raw), nil
}

// Toggle flips one field of one day.
func (c *Client) Toggle(ctx context.Context, user string, date model.Date, field model.Field, key string) (bool, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/users/%s/days/%s/toggle", url.PathEscape(user), date)
	if err := c.do(ctx, http.MethodPost, path, types.ToggleRequest{Field: field.String()}, key, &raw); err != nil {
		return false, err
	}
	return duplicate(raw), nil
}

// Streak fetches the user's streak as of today on the server.
func (c *Client) Streak(ctx context.Context, user string) (types.Summary, error) {
	var sum types.Summary
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(user)+"/streak", nil, "", &sum)
	return sum, err
}

func duplicate(raw json.RawMessage) bool {
	var ack ackResponse
	return json.Unmarshal(raw, &ack) == nil && ack.Duplicate
}

func (c *Client) do(ctx context.Context, method, path string, body any, key string, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func newKey() string { return uuid.NewString() }
