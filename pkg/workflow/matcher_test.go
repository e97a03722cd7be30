package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redglass/conductor/pkg/models"
)

func triggered(triggerType models.TriggerType) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:      "w1",
		Name:    "matcher subject",
		Enabled: true,
		Trigger: models.Trigger{Type: triggerType},
	}
}

func TestMatchesManual(t *testing.T) {
	def := triggered(models.TriggerManual)

	assert.True(t, Matches(def, models.TriggerContext{Manual: true}))
	assert.False(t, Matches(def, models.TriggerContext{Message: "anything"}))
}

func TestMatchesKeywordCaseFolded(t *testing.T) {
	def := triggered(models.TriggerKeyword)
	def.Trigger.Keywords = []string{"Weather", "forecast"}

	tests := []struct {
		message string
		want    bool
	}{
		{"what's the WEATHER like", true},
		{"any Forecast for tomorrow?", true},
		{"weathering the storm", true}, // substring match is intentional
		{"completely unrelated", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(def, models.TriggerContext{Message: tt.message}), "message %q", tt.message)
	}
}

func TestMatchesIntentExactly(t *testing.T) {
	def := triggered(models.TriggerIntent)
	def.Trigger.Intents = []string{"get_weather", "get_news"}

	assert.True(t, Matches(def, models.TriggerContext{Intent: "get_weather"}))
	assert.False(t, Matches(def, models.TriggerContext{Intent: "get_weather_hourly"}))
	assert.False(t, Matches(def, models.TriggerContext{}))
}

func TestScheduleNeverMatchesSynchronously(t *testing.T) {
	def := triggered(models.TriggerSchedule)
	def.Trigger.Schedule = &models.Schedule{Frequency: models.FrequencyDaily, Time: "09:00"}

	assert.False(t, Matches(def, models.TriggerContext{Manual: true, Message: "09:00"}))
}

func TestDisabledWorkflowNeverMatches(t *testing.T) {
	def := triggered(models.TriggerManual)
	def.Enabled = false

	assert.False(t, Matches(def, models.TriggerContext{Manual: true}))
}

func TestMatchAllFilters(t *testing.T) {
	manual := triggered(models.TriggerManual)

	keyword := triggered(models.TriggerKeyword)
	keyword.ID = "w2"
	keyword.Trigger.Keywords = []string{"news"}

	matched := MatchAll([]*models.WorkflowDefinition{manual, keyword}, models.TriggerContext{
		Manual:  true,
		Message: "morning news please",
	})

	assert.Len(t, matched, 2)
}
