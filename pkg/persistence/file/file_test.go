package file

import (
	"context"
	"testing"
	"time"

	"github.com/redglass/conductor/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fp := NewPersistence(t.TempDir())

	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	maxExecutions := 5

	workflows := []*models.WorkflowDefinition{
		{
			ID:          "wf-1",
			Name:        "Morning digest",
			Description: "Summarize overnight messages",
			Enabled:     true,
			Trigger: models.Trigger{
				Type: models.TriggerSchedule,
				Schedule: &models.Schedule{
					Frequency:     models.FrequencyDaily,
					Time:          "09:00",
					MaxExecutions: &maxExecutions,
				},
			},
			Actions: []models.ActionSpec{
				{
					Type:       "ai_prompt",
					Parameters: map[string]any{"prompt": "Summarize: {{input}}"},
				},
				{
					Type:            "notification",
					Parameters:      map[string]any{"title": "Digest", "body": "{{aiResponse}}"},
					ContinueOnError: true,
				},
			},
			CreatedAt: day,
			UpdatedAt: day,
		},
		{
			ID:      "wf-2",
			Name:    "Keyword helper",
			Enabled: false,
			Trigger: models.Trigger{
				Type:     models.TriggerKeyword,
				Keywords: []string{"deploy", "release"},
			},
			Actions:   []models.ActionSpec{},
			CreatedAt: day,
			UpdatedAt: day,
		},
	}

	require.NoError(t, fp.SaveWorkflows(ctx, workflows))

	loaded, err := fp.LoadWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, workflows[0], loaded[0])
	assert.Equal(t, workflows[1], loaded[1])
}

func TestPersistence_LoadMissingFile(t *testing.T) {
	ctx := context.Background()
	fp := NewPersistence(t.TempDir())

	loaded, err := fp.LoadWorkflows(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestPersistence_SaveReplacesCollection(t *testing.T) {
	ctx := context.Background()
	fp := NewPersistence(t.TempDir())

	require.NoError(t, fp.SaveWorkflows(ctx, []*models.WorkflowDefinition{
		{ID: "wf-1", Name: "First workflow"},
		{ID: "wf-2", Name: "Second workflow"},
	}))
	require.NoError(t, fp.SaveWorkflows(ctx, []*models.WorkflowDefinition{
		{ID: "wf-2", Name: "Second workflow"},
	}))

	loaded, err := fp.LoadWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "wf-2", loaded[0].ID)
}

func TestPersistence_HealthCheck(t *testing.T) {
	ctx := context.Background()

	fp := NewPersistence(t.TempDir())
	assert.NoError(t, fp.HealthCheck(ctx))

	missing := NewPersistence("/nonexistent/conductor-data")
	assert.Error(t, missing.HealthCheck(ctx))
}
