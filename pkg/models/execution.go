package models

import "time"

// ExecutionContext is the mutable variable namespace threaded through one
// workflow run. Values always contains "input"; after each action it gains
// type-specific keys (result, lastResult, aiResponse, httpResponse,
// mcpResult, clipboard) so later actions can reference earlier outputs.
type ExecutionContext struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Values     map[string]any `json:"values"`
}

// NewExecutionContext seeds a context with the caller-supplied input values.
func NewExecutionContext(id, workflowID string, input map[string]any) *ExecutionContext {
	values := make(map[string]any, len(input)+1)
	for k, v := range input {
		values[k] = v
	}

	if _, ok := values["input"]; !ok {
		values["input"] = input
	}

	return &ExecutionContext{
		ID:         id,
		WorkflowID: workflowID,
		Values:     values,
	}
}

// StepResult records one successfully executed action.
type StepResult struct {
	Index      int    `json:"index"`
	ActionID   string `json:"action_id,omitempty"`
	ActionType string `json:"action_type"`
	Result     any    `json:"result,omitempty"`
	Success    bool   `json:"success"`
}

// StepError records one failed action.
type StepError struct {
	Index      int    `json:"index"`
	ActionID   string `json:"action_id,omitempty"`
	ActionType string `json:"action_type"`
	Error      string `json:"error"`
}

// ExecutionRecord is the outcome of one workflow run, appended to the
// bounded execution history.
type ExecutionRecord struct {
	ID           string       `json:"id"`
	WorkflowID   string       `json:"workflow_id"`
	WorkflowName string       `json:"workflow_name"`
	StartTime    time.Time    `json:"start_time"`
	EndTime      time.Time    `json:"end_time"`
	Success      bool         `json:"success"`
	Results      []StepResult `json:"results"`
	Errors       []StepError  `json:"errors"`
}
