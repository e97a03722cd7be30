package workflow

import (
	"strings"

	"github.com/redglass/conductor/pkg/models"
)

// Matches reports whether a trigger context activates a workflow. It is pure:
// no clock reads, no store access. Schedule-triggered workflows never match
// here; their firing belongs to the Scheduler alone.
func Matches(def *models.WorkflowDefinition, trigger models.TriggerContext) bool {
	if !def.Enabled {
		return false
	}

	switch def.Trigger.Type {
	case models.TriggerManual:
		return trigger.Manual
	case models.TriggerKeyword:
		return matchesKeyword(def.Trigger.Keywords, trigger.Message)
	case models.TriggerIntent:
		return matchesIntent(def.Trigger.Intents, trigger.Intent)
	case models.TriggerSchedule:
		return false
	default:
		return false
	}
}

// MatchAll filters a workflow list down to those the context activates.
func MatchAll(definitions []*models.WorkflowDefinition, trigger models.TriggerContext) []*models.WorkflowDefinition {
	matched := make([]*models.WorkflowDefinition, 0)

	for _, def := range definitions {
		if Matches(def, trigger) {
			matched = append(matched, def)
		}
	}

	return matched
}

func matchesKeyword(keywords []string, message string) bool {
	if message == "" {
		return false
	}

	folded := strings.ToLower(message)

	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}

		if strings.Contains(folded, strings.ToLower(keyword)) {
			return true
		}
	}

	return false
}

func matchesIntent(intents []string, intent string) bool {
	if intent == "" {
		return false
	}

	for _, candidate := range intents {
		if candidate == intent {
			return true
		}
	}

	return false
}
