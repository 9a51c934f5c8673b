package saveapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"linkq/internal/config"
)

const userAgent = "linkq/0.1"

// Request carries one bookmark to the save endpoint.
type Request struct {
	URL     string `json:"url"`
	Comment string `json:"comment,omitempty"`
}

// Result carries the endpoint's optional generated content back to the
// caller. All fields are opaque pass-through.
type Result struct {
	GeneratedComment string
	GeneratedSummary string
	GeneratedTags    []string
}

// Saver delivers one bookmark save request. Implementations must honor the
// context deadline.
type Saver interface {
	Save(ctx context.Context, req Request) (Result, error)
}

// ErrNotConfigured is returned when no endpoint URL is configured.
var ErrNotConfigured = errors.New("save endpoint is not configured")

// DeliveryError wraps any failed attempt. The queue treats every delivery
// error as transient.
type DeliveryError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *DeliveryError) Error() string {
	if e.Message != "" && e.StatusCode != 0 {
		return fmt.Sprintf("save endpoint: %s (status %d)", e.Message, e.StatusCode)
	}
	if e.Message != "" {
		return "save endpoint: " + e.Message
	}
	if e.Cause != nil {
		return "save endpoint: " + e.Cause.Error()
	}
	return "save endpoint: delivery failed"
}

func (e *DeliveryError) Unwrap() error { return e.Cause }

// Client is the HTTP implementation of Saver.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewClient builds a save endpoint client from configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("saveapi requires config")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint.URL)
	if endpoint == "" {
		return nil, ErrNotConfigured
	}
	timeout := time.Duration(cfg.Endpoint.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		token:    strings.TrimSpace(cfg.Endpoint.Token),
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type saveResponse struct {
	Success          bool     `json:"success"`
	Error            string   `json:"error"`
	GeneratedComment string   `json:"generated_comment"`
	GeneratedSummary string   `json:"generated_summary"`
	GeneratedTags    []string `json:"generated_tags"`
}

// Save posts one bookmark and interprets the endpoint's verdict.
func (c *Client) Save(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, &DeliveryError{Message: "encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, &DeliveryError{Message: "build request", Cause: err}
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Result{}, &DeliveryError{Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, &DeliveryError{StatusCode: resp.StatusCode, Message: "read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(payload))
		if len(message) > 200 {
			message = message[:200]
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return Result{}, &DeliveryError{StatusCode: resp.StatusCode, Message: message}
	}

	var decoded saveResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Result{}, &DeliveryError{StatusCode: resp.StatusCode, Message: "malformed response body", Cause: err}
	}
	if !decoded.Success {
		message := strings.TrimSpace(decoded.Error)
		if message == "" {
			message = "endpoint rejected the save"
		}
		return Result{}, &DeliveryError{StatusCode: resp.StatusCode, Message: message}
	}

	return Result{
		GeneratedComment: decoded.GeneratedComment,
		GeneratedSummary: decoded.GeneratedSummary,
		GeneratedTags:    decoded.GeneratedTags,
	}, nil
}
