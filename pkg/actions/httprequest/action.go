// Package httprequest provides the HTTP request action for workflow steps.
package httprequest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redglass/conductor/pkg/models"
)

const defaultTimeout = 30 * time.Second

var (
	// ErrURLMissing is returned when the request URL is absent.
	ErrURLMissing = errors.New("http_request requires a 'url'")
	// ErrServerStatus is returned on a retryable 5xx response.
	ErrServerStatus = errors.New("server returned an error status")
)

// Action performs one HTTP request with optional headers, body, and retries.
type Action struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	Timeout time.Duration
	Retry   RetryConfig

	client *http.Client
}

// RetryConfig bounds re-attempts on transport errors and 5xx responses.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

func NewAction(config map[string]any) (*Action, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return nil, ErrURLMissing
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	headers := make(map[string]string)

	if raw, ok := config["headers"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	body, err := encodeBody(config["body"])
	if err != nil {
		return nil, err
	}

	timeout := defaultTimeout
	if seconds, ok := config["timeout"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &Action{
		Method:  strings.ToUpper(method),
		URL:     url,
		Headers: headers,
		Body:    body,
		Timeout: timeout,
		Retry:   parseRetryConfig(config["retry"]),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// encodeBody renders the configured body: strings pass through, structured
// values are JSON-encoded.
func encodeBody(raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode request body: %w", err)
		}

		return string(encoded), nil
	}
}

func parseRetryConfig(raw any) RetryConfig {
	retry := RetryConfig{Attempts: 1}

	retryMap, ok := raw.(map[string]any)
	if !ok {
		return retry
	}

	if attempts, ok := retryMap["attempts"].(float64); ok && attempts >= 1 {
		retry.Attempts = int(attempts)
	}

	if delay, ok := retryMap["delay"].(float64); ok && delay >= 0 {
		retry.Delay = time.Duration(delay) * time.Millisecond
	}

	return retry
}

func (a *Action) Execute(ctx context.Context, _ models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "http_request_action", "method", a.Method, "url", a.URL)
	logger.InfoContext(ctx, "Executing HTTP request")

	var lastErr error

	for attempt := 1; attempt <= a.Retry.Attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, "Retrying HTTP request", "attempt", attempt)

			select {
			case <-time.After(a.Retry.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := a.doRequest(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err
	}

	return nil, fmt.Errorf("http request failed after %d attempts: %w", a.Retry.Attempts, lastErr)
}

func (a *Action) doRequest(ctx context.Context) (any, error) {
	var body io.Reader
	if a.Body != "" {
		body = bytes.NewBufferString(a.Body)
	}

	req, err := http.NewRequestWithContext(ctx, a.Method, a.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	if a.Body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: %d", ErrServerStatus, resp.StatusCode)
	}

	return map[string]any{
		"status":  resp.StatusCode,
		"headers": flattenHeaders(resp.Header),
		"body":    decodeBody(payload),
	}, nil
}

// decodeBody returns JSON payloads as structured data, everything else as a
// string.
func decodeBody(payload []byte) any {
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err == nil {
		return decoded
	}

	return string(payload)
}

func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for k := range header {
		out[k] = header.Get(k)
	}

	return out
}
