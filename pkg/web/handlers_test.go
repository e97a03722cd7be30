package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redglass/conductor/pkg/actions/condition"
	"github.com/redglass/conductor/pkg/actions/transform"
	"github.com/redglass/conductor/pkg/mcp"
	"github.com/redglass/conductor/pkg/models"
	"github.com/redglass/conductor/pkg/persistence/file"
	"github.com/redglass/conductor/pkg/registry"
	"github.com/redglass/conductor/pkg/workflow"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := workflow.NewStore(context.Background(), file.NewPersistence(t.TempDir()), logger)
	require.NoError(t, err)

	reg := registry.NewRegistry(logger)
	require.NoError(t, reg.RegisterAction(transform.NewActionFactory()))
	require.NoError(t, reg.RegisterAction(condition.NewActionFactory()))

	history := workflow.NewHistory(workflow.DefaultHistoryLimit)
	executor := workflow.NewExecutor(store, reg, history, nil, nil, logger)

	scheduler := workflow.NewScheduler(store, executor, nil, logger)
	t.Cleanup(scheduler.Stop)

	manager := mcp.NewManager(logger, nil)

	return NewApp(NewAPIHandlers(store, executor, scheduler, history, manager, logger))
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader

	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)

		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, raw
}

func TestWorkflowCRUD(t *testing.T) {
	app := setupTestApp(t)

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows", map[string]any{
		"name":        "uppercase echo",
		"description": "shouts the incoming message",
		"trigger":     map[string]any{"type": "manual"},
		"actions": []map[string]any{
			{"id": "a1", "type": "transform", "parameters": map[string]any{
				"operation": "uppercase",
				"input":     "{{message}}",
			}},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var created models.WorkflowDefinition
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Enabled)

	resp, raw = doJSON(t, app, http.MethodGet, "/workflows/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.WorkflowDefinition
	require.NoError(t, json.Unmarshal(raw, &fetched))
	assert.Equal(t, created.Name, fetched.Name)

	resp, _ = doJSON(t, app, http.MethodDelete, "/workflows/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/workflows/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExecuteWorkflowEndpoint(t *testing.T) {
	app := setupTestApp(t)

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows", map[string]any{
		"name":    "uppercase echo",
		"trigger": map[string]any{"type": "manual"},
		"actions": []map[string]any{
			{"id": "a1", "type": "transform", "parameters": map[string]any{
				"operation": "uppercase",
				"input":     "{{message}}",
			}},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var created models.WorkflowDefinition
	require.NoError(t, json.Unmarshal(raw, &created))

	resp, raw = doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/execute", map[string]any{
		"message": "hello there",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var record models.ExecutionRecord
	require.NoError(t, json.Unmarshal(raw, &record))
	assert.True(t, record.Success)
	require.Len(t, record.Results, 1)
	assert.Equal(t, "HELLO THERE", record.Results[0].Result)

	// The run is visible in the execution history.
	resp, raw = doJSON(t, app, http.MethodGet, "/executions/"+record.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}

func TestExecuteUnknownWorkflowReturns404(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/missing/execute", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDispatchMatchesKeywordWorkflows(t *testing.T) {
	app := setupTestApp(t)

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows", map[string]any{
		"name":    "keyword shouter",
		"trigger": map[string]any{"type": "keyword", "keywords": []string{"weather"}},
		"actions": []map[string]any{
			{"id": "a1", "type": "transform", "parameters": map[string]any{
				"operation": "uppercase",
				"input":     "{{message}}",
			}},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = doJSON(t, app, http.MethodPost, "/dispatch", map[string]any{
		"message": "how is the Weather today",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var result struct {
		Matched int                       `json:"matched"`
		Records []*models.ExecutionRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, 1, result.Matched)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "HOW IS THE WEATHER TODAY", result.Records[0].Results[0].Result)
}

func TestServerEndpoints(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/servers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/servers/ghost", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Missing required fields fail validation before anything is spawned.
	resp, _ = doJSON(t, app, http.MethodPost, "/servers", map[string]any{"name": "incomplete"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestToolEndpoints(t *testing.T) {
	app := setupTestApp(t)

	resp, raw := doJSON(t, app, http.MethodGet, "/tools", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Tools map[string]mcp.ToolInfo `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Empty(t, result.Tools)

	resp, _ = doJSON(t, app, http.MethodPost, "/tools/weather_forecast/call", map[string]any{
		"arguments": map[string]any{"city": "Lisbon"},
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
