package httprequest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redglass/conductor/pkg/models"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestDecodesJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Lisbon", body["city"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"forecast":"sunny"}`))
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{
		"method": "post",
		"url":    server.URL,
		"body":   map[string]any{"city": "Lisbon"},
	})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.ExecutionContext{}, discard())
	require.NoError(t, err)

	response, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, response["status"])

	payload, ok := response["body"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sunny", payload["forecast"])
}

func TestRequestRetriesOnServerError(t *testing.T) {
	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{
		"url":   server.URL,
		"retry": map[string]any{"attempts": float64(2), "delay": float64(1)},
	})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.ExecutionContext{}, discard())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	response := result.(map[string]any)
	assert.Equal(t, "ok", response["body"])
}

func TestRequestRequiresURL(t *testing.T) {
	_, err := NewAction(map[string]any{"method": "GET"})
	require.ErrorIs(t, err, ErrURLMissing)
}
