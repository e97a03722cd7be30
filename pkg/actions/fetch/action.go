// Package fetch provides a minimal GET-and-parse action for pulling data into
// a workflow without the full http_request configuration surface.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/redglass/conductor/pkg/models"
)

const fetchTimeout = 30 * time.Second

var (
	// ErrURLMissing is returned when the fetch URL is absent.
	ErrURLMissing = errors.New("fetch requires a 'url'")
	// ErrFetchStatus is returned on a non-2xx response.
	ErrFetchStatus = errors.New("fetch returned a non-success status")
)

type Action struct {
	URL string

	client *http.Client
}

func NewAction(config map[string]any) (*Action, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return nil, ErrURLMissing
	}

	return &Action{URL: url, client: &http.Client{Timeout: fetchTimeout}}, nil
}

func (a *Action) Execute(ctx context.Context, _ models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "fetch_action", "url", a.URL)
	logger.InfoContext(ctx, "Fetching URL")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d", ErrFetchStatus, resp.StatusCode)
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err == nil {
		return decoded, nil
	}

	return string(payload), nil
}
