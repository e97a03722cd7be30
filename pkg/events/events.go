// Package events defines event types published on the bus for process
// lifecycle and workflow execution notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const Topic = "conductor.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Tool-process lifecycle events.
	ProcessStartedEvent      EventType = "process.started"
	ProcessExitedEvent       EventType = "process.exited"
	ProcessRestartingEvent   EventType = "process.restarting"
	ProcessFailedEvent       EventType = "process.failed"
	ToolRegistryUpdatedEvent EventType = "process.tools.updated"
	ServerNotificationEvent  EventType = "process.notification"

	// Workflow execution lifecycle events.
	WorkflowExecutionStartedEvent  EventType = "workflow.execution.started"
	WorkflowExecutionFinishedEvent EventType = "workflow.execution.finished"
	ScheduleFiredEvent             EventType = "workflow.schedule.fired"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// ProcessStarted is published when a tool-server process has been spawned.
type ProcessStarted struct {
	BaseEvent

	ServerName string `json:"server_name"`
	PID        int    `json:"pid,omitempty"`
	Restart    bool   `json:"restart,omitempty"`
}

func (e ProcessStarted) GetType() EventType { return ProcessStartedEvent }

// ProcessExited is published on any process exit, expected or not.
type ProcessExited struct {
	BaseEvent

	ServerName string `json:"server_name"`
	Error      string `json:"error,omitempty"`
	Unexpected bool   `json:"unexpected"`
}

func (e ProcessExited) GetType() EventType { return ProcessExitedEvent }

// ProcessRestarting is published before a bounded restart attempt.
type ProcessRestarting struct {
	BaseEvent

	ServerName   string `json:"server_name"`
	RestartCount int    `json:"restart_count"`
}

func (e ProcessRestarting) GetType() EventType { return ProcessRestartingEvent }

// ProcessFailed is published when the restart limit is exhausted.
type ProcessFailed struct {
	BaseEvent

	ServerName string `json:"server_name"`
	Error      string `json:"error,omitempty"`
}

func (e ProcessFailed) GetType() EventType { return ProcessFailedEvent }

// ToolRegistryUpdated is published after a tools/list refresh.
type ToolRegistryUpdated struct {
	BaseEvent

	ServerName string `json:"server_name"`
	ToolCount  int    `json:"tool_count"`
}

func (e ToolRegistryUpdated) GetType() EventType { return ToolRegistryUpdatedEvent }

// ServerNotification carries an unsolicited notification emitted by a tool
// process on its stdout.
type ServerNotification struct {
	BaseEvent

	ServerName string         `json:"server_name"`
	Method     string         `json:"method"`
	Params     map[string]any `json:"params,omitempty"`
}

func (e ServerNotification) GetType() EventType { return ServerNotificationEvent }

// WorkflowExecutionStarted marks the beginning of one workflow run.
type WorkflowExecutionStarted struct {
	BaseEvent

	ExecutionID  string `json:"execution_id"`
	WorkflowID   string `json:"workflow_id"`
	WorkflowName string `json:"workflow_name"`
}

func (e WorkflowExecutionStarted) GetType() EventType { return WorkflowExecutionStartedEvent }

// WorkflowExecutionFinished marks the end of one workflow run.
type WorkflowExecutionFinished struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	WorkflowID  string        `json:"workflow_id"`
	Success     bool          `json:"success"`
	Duration    time.Duration `json:"duration"`
}

func (e WorkflowExecutionFinished) GetType() EventType { return WorkflowExecutionFinishedEvent }

// ScheduleFired is published when an armed schedule timer fires.
type ScheduleFired struct {
	BaseEvent

	WorkflowID string    `json:"workflow_id"`
	FiredAt    time.Time `json:"fired_at"`
	Rearmed    bool      `json:"rearmed"`
}

func (e ScheduleFired) GetType() EventType { return ScheduleFiredEvent }
