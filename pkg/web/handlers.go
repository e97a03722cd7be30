// Package web provides the REST surface for workflow management and
// tool-server supervision.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/redglass/conductor/pkg/mcp"
	"github.com/redglass/conductor/pkg/models"
	"github.com/redglass/conductor/pkg/workflow"
)

type APIHandlers struct {
	logger    *slog.Logger
	store     *workflow.Store
	executor  *workflow.Executor
	scheduler *workflow.Scheduler
	history   *workflow.History
	manager   *mcp.Manager
	validator *validator.Validate
}

func NewAPIHandlers(
	store *workflow.Store,
	executor *workflow.Executor,
	scheduler *workflow.Scheduler,
	history *workflow.History,
	manager *mcp.Manager,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		logger:    logger.With("module", "web"),
		store:     store,
		executor:  executor,
		scheduler: scheduler,
		history:   history,
		manager:   manager,
		validator: validator.New(),
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := http.StatusOK

	storeErr := h.store.HealthCheck(c.Context())
	if storeErr != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"servers":   h.manager.StatusAll(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) ListWorkflows(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"workflows": h.store.List()})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	def, err := h.store.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(def)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var def models.WorkflowDefinition
	if err := c.Bind().JSON(&def); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	created, err := h.store.Create(c.Context(), &def)
	if err != nil {
		return badRequest(c, err.Error())
	}

	h.scheduler.Arm(created)

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	var def models.WorkflowDefinition
	if err := c.Bind().JSON(&def); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	updated, err := h.store.Update(c.Context(), id, &def)
	if err != nil {
		return handleError(c, err)
	}

	h.scheduler.Arm(updated)

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	if err := h.store.Delete(c.Context(), id); err != nil {
		return handleError(c, err)
	}

	h.scheduler.Cancel(id)

	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteWorkflow runs a workflow on demand. The request body, if any, seeds
// the trigger context; the run always counts as manual.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	var trigger models.TriggerContext
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&trigger); err != nil {
			return badRequest(c, "invalid JSON body")
		}
	}

	trigger.Manual = true

	record, err := h.executor.Execute(c.Context(), id, trigger)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(record)
}

// Dispatch matches an event context against all workflows and executes every
// match, returning the records.
func (h *APIHandlers) Dispatch(c fiber.Ctx) error {
	var trigger models.TriggerContext
	if err := c.Bind().JSON(&trigger); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	records := h.executor.RunTriggered(c.Context(), trigger)

	return c.JSON(fiber.Map{"matched": len(records), "records": records})
}

func (h *APIHandlers) ListExecutions(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"executions": h.history.List(c.Query("workflow_id"))})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	record, ok := h.history.Get(c.Params("id"))
	if !ok {
		return notFound(c, "execution not found")
	}

	return c.JSON(record)
}

type addServerRequest struct {
	Name    string            `json:"name"    validate:"required"`
	Command string            `json:"command" validate:"required"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

func (h *APIHandlers) AddServer(c fiber.Ctx) error {
	var req addServerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	spec := mcp.LaunchSpec{Command: req.Command, Args: req.Args, Env: req.Env}

	if err := h.manager.AddServer(c.Context(), req.Name, spec); err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"name": req.Name, "status": mcp.StatusStarting})
}

func (h *APIHandlers) RemoveServer(c fiber.Ctx) error {
	if err := h.manager.RemoveServer(c.Context(), c.Params("name")); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetServer(c fiber.Ctx) error {
	info, err := h.manager.Status(c.Params("name"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(info)
}

func (h *APIHandlers) ListServers(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"servers": h.manager.StatusAll()})
}

func (h *APIHandlers) ListTools(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"tools": h.manager.GetAllTools()})
}

type callToolRequest struct {
	Arguments map[string]any `json:"arguments"`
}

func (h *APIHandlers) CallTool(c fiber.Ctx) error {
	var req callToolRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "invalid JSON body")
		}
	}

	result, err := h.manager.CallTool(c.Context(), c.Params("key"), req.Arguments)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{"result": result})
}
