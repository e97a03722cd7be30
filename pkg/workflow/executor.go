package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/redglass/conductor/pkg/eventbus"
	"github.com/redglass/conductor/pkg/events"
	"github.com/redglass/conductor/pkg/models"
	"github.com/redglass/conductor/pkg/otelhelper"
	"github.com/redglass/conductor/pkg/registry"
	"github.com/redglass/conductor/pkg/template"
)

// Executor runs a workflow's action pipeline. Actions execute strictly in
// order within one run; concurrent runs of different (or even the same)
// workflow each get an independent context and record.
type Executor struct {
	logger   *slog.Logger
	store    *Store
	registry *registry.Registry
	history  *History
	eventBus eventbus.EventPublisher
	tracer   trace.Tracer
}

func NewExecutor(
	store *Store,
	reg *registry.Registry,
	history *History,
	eventBus eventbus.EventPublisher,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Executor {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("conductor")
	}

	return &Executor{
		logger:   logger.With("module", "workflow_executor"),
		store:    store,
		registry: reg,
		history:  history,
		eventBus: eventBus,
		tracer:   tracer,
	}
}

// Execute runs one workflow to completion and returns its record. An unknown
// workflow id is the only error reported synchronously; action failures are
// captured inside the record instead.
func (e *Executor) Execute(ctx context.Context, workflowID string, trigger models.TriggerContext) (*models.ExecutionRecord, error) {
	def, err := e.store.Get(workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	executionID := uuid.New().String()
	executionCtx := models.NewExecutionContext(executionID, workflowID, triggerInput(trigger))

	logger := e.logger.With("workflow_id", workflowID, "execution_id", executionID)
	logger.Info("Starting workflow execution", "name", def.Name, "actions", len(def.Actions))

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.WorkflowNameKey, def.Name),
		attribute.String(otelhelper.ExecutionIDKey, executionID),
	)
	defer span.End()

	e.publish(workflowID, events.WorkflowExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.WorkflowExecutionStartedEvent),
		ExecutionID:  executionID,
		WorkflowID:   workflowID,
		WorkflowName: def.Name,
	})

	record := models.ExecutionRecord{
		ID:           executionID,
		WorkflowID:   workflowID,
		WorkflowName: def.Name,
		StartTime:    time.Now().UTC(),
		Success:      true,
		Results:      []models.StepResult{},
		Errors:       []models.StepError{},
	}

	for i, spec := range def.Actions {
		result, err := e.runAction(ctx, spec, executionCtx, logger)
		if err != nil {
			record.Errors = append(record.Errors, models.StepError{
				Index:      i,
				ActionID:   spec.ID,
				ActionType: spec.Type,
				Error:      err.Error(),
			})
			record.Success = false

			logger.Warn("Action failed", "index", i, "action_type", spec.Type, "error", err)

			if !spec.ContinueOnError {
				break
			}

			continue
		}

		record.Results = append(record.Results, models.StepResult{
			Index:      i,
			ActionID:   spec.ID,
			ActionType: spec.Type,
			Result:     result,
			Success:    true,
		})

		updateContext(executionCtx, spec, result)

		// A condition that resolves false ends the pipeline without failing it.
		if spec.Type == "condition" && result == false {
			logger.Info("Condition not met, stopping pipeline", "index", i)

			break
		}
	}

	record.EndTime = time.Now().UTC()

	if !record.Success {
		otelhelper.SetError(span, fmt.Errorf("workflow execution had %d failed actions", len(record.Errors)))
	}

	e.history.Append(record)

	e.publish(workflowID, events.WorkflowExecutionFinished{
		BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionFinishedEvent),
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		Success:     record.Success,
		Duration:    record.EndTime.Sub(record.StartTime),
	})

	logger.Info("Workflow execution finished",
		"success", record.Success,
		"results", len(record.Results),
		"errors", len(record.Errors),
	)

	return &record, nil
}

// RunTriggered executes every workflow whose trigger matches the context and
// returns their records in match order. Individual failures are logged and
// skipped so one broken workflow cannot shadow the others.
func (e *Executor) RunTriggered(ctx context.Context, trigger models.TriggerContext) []*models.ExecutionRecord {
	matched := MatchAll(e.store.List(), trigger)
	records := make([]*models.ExecutionRecord, 0, len(matched))

	for _, def := range matched {
		record, err := e.Execute(ctx, def.ID, trigger)
		if err != nil {
			e.logger.Error("Triggered execution failed", "workflow_id", def.ID, "error", err)

			continue
		}

		records = append(records, record)
	}

	return records
}

func (e *Executor) runAction(
	ctx context.Context,
	spec models.ActionSpec,
	executionCtx *models.ExecutionContext,
	logger *slog.Logger,
) (any, error) {
	params := template.SubstituteParameters(spec.Parameters, executionCtx)

	action, err := e.registry.CreateAction(spec.Type, params)
	if err != nil {
		return nil, err
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.action",
		attribute.String(otelhelper.ActionIDKey, spec.ID),
		attribute.String(otelhelper.ActionTypeKey, spec.Type),
	)
	defer span.End()

	result, err := action.Execute(ctx, *executionCtx, logger)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return result, nil
}

// updateContext threads an action's output into the variable namespace so
// later actions can reference it through placeholders.
func updateContext(executionCtx *models.ExecutionContext, spec models.ActionSpec, result any) {
	if result == nil {
		return
	}

	executionCtx.Values["result"] = result
	executionCtx.Values["lastResult"] = result

	switch spec.Type {
	case "ai_prompt":
		executionCtx.Values["aiResponse"] = result
	case "http_request", "fetch":
		executionCtx.Values["httpResponse"] = result
	case "mcp_tool":
		executionCtx.Values["mcpResult"] = result
	case "clipboard":
		if op, _ := spec.Parameters["operation"].(string); op == "read" {
			executionCtx.Values["clipboard"] = result
		}
	}
}

func triggerInput(trigger models.TriggerContext) map[string]any {
	input := make(map[string]any, len(trigger.Data)+2)
	for k, v := range trigger.Data {
		input[k] = v
	}

	if trigger.Message != "" {
		input["message"] = trigger.Message
	}

	if trigger.Intent != "" {
		input["intent"] = trigger.Intent
	}

	return input
}

func (e *Executor) publish(key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(context.Background(), key, event); err != nil {
		e.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
