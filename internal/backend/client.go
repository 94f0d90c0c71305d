// Package backend is the HTTP client for the remote bulk messaging
// API. The API is a black box reached through a fixed set of
// request/response contracts; every response uses a single
// {success,data,error} envelope and anything else is a decode error,
// never a silent fallback.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// ErrUnauthorized is returned when the backend rejects the session
// token. The local session is invalidated before this is returned.
var ErrUnauthorized = errors.New("backend rejected the session token")

// envelope is the single response shape the backend speaks.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// Client is a bulk messaging API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string

	// OnUnauthorized runs after a request fails with 401 and the
	// in-memory token has been cleared. It fires once per rejected
	// request, never per record.
	OnUnauthorized func()
}

// NewClient creates a new API client. timeout bounds every request;
// zero means 30s.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetToken installs the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// request performs an HTTP request and decodes the response envelope
// into result.
func (c *Client) request(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("session token rejected by backend", "method", method, "path", path)
		c.SetToken("")
		if c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
		return ErrUnauthorized
	}

	if resp.StatusCode >= 400 {
		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Error == "" {
			return fmt.Errorf("backend: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("backend: %s", env.Error)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		if env.Error != "" {
			return fmt.Errorf("backend: %s", env.Error)
		}
		return errors.New("backend: request not successful")
	}
	if len(env.Data) == 0 {
		return errors.New("decode response: missing data field")
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// CreateContact stores one contact record.
func (c *Client) CreateContact(ctx context.Context, rec ContactRecord) (*Contact, error) {
	var contact Contact
	if err := c.request(ctx, http.MethodPost, "/contacts", rec, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetContacts lists stored contacts.
func (c *Client) GetContacts(ctx context.Context) ([]Contact, error) {
	var contacts []Contact
	if err := c.request(ctx, http.MethodGet, "/contacts", nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// UpdateContact replaces the record of an existing contact.
func (c *Client) UpdateContact(ctx context.Context, id string, rec ContactRecord) (*Contact, error) {
	var contact Contact
	if err := c.request(ctx, http.MethodPut, "/contacts/"+url.PathEscape(id), rec, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// DeleteContact removes a contact.
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/contacts/"+url.PathEscape(id), nil, nil)
}

// SendMessage submits one compose action.
func (c *Client) SendMessage(ctx context.Context, req *SendRequest) (*SendResult, error) {
	var result SendResult
	if err := c.request(ctx, http.MethodPost, "/messages/send", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetMessages lists historical messages.
func (c *Client) GetMessages(ctx context.Context, filter MessageFilter) ([]MessageRecord, error) {
	path := "/messages"
	params := url.Values{}
	if filter.Page > 0 {
		params.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Type != "" {
		params.Set("type", string(filter.Type))
	}
	if filter.Status != "" {
		params.Set("status", string(filter.Status))
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var msgs []MessageRecord
	if err := c.request(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// GetMessageStats fetches the backend's dashboard aggregates.
func (c *Client) GetMessageStats(ctx context.Context) (*MessageStats, error) {
	var stats MessageStats
	if err := c.request(ctx, http.MethodGet, "/messages/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
