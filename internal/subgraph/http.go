package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient is a thin wrapper around the standard http client used for
// GraphQL POST requests. Retries are owned by the caller, not by this
// layer, so a failed request surfaces immediately with enough context
// to classify it.
type HTTPClient struct {
	client         *http.Client
	defaultHeaders map[string]string
}

// HTTPClientOption is a function that configures the HTTPClient
type HTTPClientOption func(*HTTPClient)

// WithTimeout sets the timeout for the HTTP client
func WithTimeout(timeout time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = timeout
	}
}

// WithDefaultHeaders sets default headers for the HTTP client
func WithDefaultHeaders(headers map[string]string) HTTPClientOption {
	return func(c *HTTPClient) {
		c.defaultHeaders = headers
	}
}

// NewHTTPClient creates a new HTTPClient with the given options
func NewHTTPClient(options ...HTTPClientOption) *HTTPClient {
	client := &HTTPClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		defaultHeaders: map[string]string{
			"Content-Type": "application/json",
		},
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// Error represents an HTTP-level failure from the subgraph endpoint
type Error struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Message)
}

// Transient reports whether the failure is worth retrying. Rate limits
// and server-side errors are transient; other 4xx responses are not.
func (e *Error) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Post executes a JSON POST request and decodes the response into target
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}, target interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range c.defaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("request failed with status code %d", resp.StatusCode),
			Body:       respBody,
		}
	}

	if target == nil {
		return nil
	}
	if len(respBody) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(respBody, target)
}

// IsTransient reports whether an error from the client is a transient
// source failure (network error, timeout, rate limit, 5xx). Permanent
// failures such as malformed queries are not retried.
func IsTransient(err error) bool {
	var httpErr *Error
	if errors.As(err, &httpErr) {
		return httpErr.Transient()
	}
	var gqlErr *GraphQLError
	if errors.As(err, &gqlErr) {
		return false
	}
	// Everything else is network-level (DNS, timeout, reset) and retryable.
	return err != nil
}
