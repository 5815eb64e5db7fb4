package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terra-clan/recruitment-portal/internal/gateway"
	"github.com/terra-clan/recruitment-portal/internal/models"
)

// sheetNotConfigured is the error text the submit endpoint uses for a missing sheet id
const sheetNotConfigured = "Google Sheet ID not configured"

// Client is a Go SDK for the recruitment-portal API
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout. It applies to a copy of the HTTP
// client, whatever the option order.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a new recruitment-portal client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.timeout > 0 {
		httpClient := *c.httpClient
		httpClient.Timeout = c.timeout
		c.httpClient = &httpClient
	}

	return c
}

// APIError is a non-success answer of the portal
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (HTTP %d): %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Append posts record to the submission endpoint. Errors follow the
// gateway classification, so a Client can stand in for a local gateway.
func (c *Client) Append(ctx context.Context, record *models.ApplicationRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal application: %w", err)
	}

	status, resp, err := c.doRequest(ctx, "POST", "/api/submit", bytes.NewReader(body))
	if err != nil {
		return &gateway.TransientError{Op: "submit", Err: err}
	}

	var result models.SubmitResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return &gateway.TransientError{Op: "submit", Err: fmt.Errorf("failed to unmarshal response (HTTP %d): %w", status, err)}
	}

	if status == http.StatusOK && result.Success {
		return nil
	}
	if result.Error == sheetNotConfigured {
		return &gateway.ConfigurationError{Err: gateway.ErrNotConfigured}
	}
	return &gateway.TransientError{Op: "submit", Err: &APIError{StatusCode: status, Message: result.Error}}
}

// ListDomains retrieves the domain catalog
func (c *Client) ListDomains(ctx context.Context) ([]models.Domain, error) {
	var data struct {
		Domains []models.Domain `json:"domains"`
	}
	if err := c.getJSON(ctx, "/api/v1/domains", &data); err != nil {
		return nil, err
	}
	return data.Domains, nil
}

// QuestionsFor retrieves the combined questions of a domain selection
func (c *Client) QuestionsFor(ctx context.Context, primaryID, secondaryID string) ([]models.Question, error) {
	q := url.Values{}
	q.Set("primary", primaryID)
	if secondaryID != "" {
		q.Set("secondary", secondaryID)
	}

	var data struct {
		Questions []models.Question `json:"questions"`
	}
	if err := c.getJSON(ctx, "/api/v1/questions?"+q.Encode(), &data); err != nil {
		return nil, err
	}
	return data.Questions, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	var data map[string]string
	return c.getJSON(ctx, "/health", &data)
}

// getJSON fetches path and decodes the data of the response envelope into v
func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	status, resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return err
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response (HTTP %d): %w", status, err)
	}

	if !result.Success {
		apiErr := &APIError{StatusCode: status}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return apiErr
	}

	if err := json.Unmarshal(result.Data, v); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request and returns the status and body
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
