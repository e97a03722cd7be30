// Package models defines the core domain models for workflow automation.
package models

import "time"

// TriggerType identifies the condition kind that causes a workflow to run.
type TriggerType string

const (
	TriggerManual   TriggerType = "manual"
	TriggerKeyword  TriggerType = "keyword"
	TriggerIntent   TriggerType = "intent"
	TriggerSchedule TriggerType = "schedule"
)

// Trigger is a tagged variant: exactly one of the optional field groups is
// meaningful for a given Type.
type Trigger struct {
	Type     TriggerType `json:"type"               validate:"required,oneof=manual keyword intent schedule"`
	Keywords []string    `json:"keywords,omitempty"`
	Intents  []string    `json:"intents,omitempty"`
	Schedule *Schedule   `json:"schedule,omitempty"`
}

// ActionSpec is one step of a workflow. Type selects the executor in the
// action registry; Parameters carry the type-specific configuration and may
// contain {{name}} placeholders resolved against the execution context.
type ActionSpec struct {
	ID              string         `json:"id"`
	Type            string         `json:"type" validate:"required"`
	Name            string         `json:"name,omitempty"`
	Parameters      map[string]any `json:"parameters"`
	ContinueOnError bool           `json:"continue_on_error,omitempty"`
}

// WorkflowDefinition is the persisted description of an automation:
// a trigger plus an ordered action list. Actions execute in slice order.
type WorkflowDefinition struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"        validate:"required,min=3"`
	Description    string       `json:"description"`
	Enabled        bool         `json:"enabled"`
	Trigger        Trigger      `json:"trigger"`
	Actions        []ActionSpec `json:"actions"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	LastExecuted   *time.Time   `json:"last_executed,omitempty"`
	ExecutionCount int          `json:"execution_count"`
}

// TriggerContext is the free-form event context matched against workflow
// triggers. Data carries any additional keys a trigger source wants to make
// available to the execution.
type TriggerContext struct {
	Manual  bool           `json:"manual,omitempty"`
	Message string         `json:"message,omitempty"`
	Intent  string         `json:"intent,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}
