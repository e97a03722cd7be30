// Package workflow implements the automation engine: the definition store,
// trigger matching, scheduling, and the action execution pipeline.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/redglass/conductor/pkg/models"
	"github.com/redglass/conductor/pkg/persistence"
)

// Store owns all persisted workflow definitions. Every mutation rewrites the
// full collection through the persistence layer before returning, so the
// in-memory view and the backing document never diverge.
type Store struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	validate    *validator.Validate

	mu        sync.RWMutex
	workflows map[string]*models.WorkflowDefinition
}

func NewStore(ctx context.Context, p persistence.Persistence, logger *slog.Logger) (*Store, error) {
	store := &Store{
		logger:      logger.With("module", "workflow_store"),
		persistence: p,
		validate:    validator.New(),
		workflows:   make(map[string]*models.WorkflowDefinition),
	}

	definitions, err := p.LoadWorkflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflows: %w", err)
	}

	for _, def := range definitions {
		store.workflows[def.ID] = def
	}

	store.logger.Info("Loaded workflows", "count", len(definitions))

	return store, nil
}

// Create assigns defaults (generated id, enabled, manual trigger, empty
// action list), validates, and persists the new definition.
func (s *Store) Create(ctx context.Context, def *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if def.ID == "" {
		def.ID = uuid.New().String()
	}

	if def.Trigger.Type == "" {
		def.Trigger.Type = models.TriggerManual
	}

	if def.Actions == nil {
		def.Actions = []models.ActionSpec{}
	}

	def.Enabled = true

	now := time.Now().UTC()
	def.CreatedAt = now
	def.UpdatedAt = now

	if err := s.validateDefinition(def); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.workflows[def.ID] = def

	if err := s.persist(ctx); err != nil {
		delete(s.workflows, def.ID)

		return nil, err
	}

	s.logger.Info("Created workflow", "workflow_id", def.ID, "name", def.Name)

	return cloneDefinition(def), nil
}

// Update replaces a definition, preserving its identity and creation time.
func (s *Store) Update(ctx context.Context, id string, def *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.workflows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", persistence.ErrWorkflowNotFound, id)
	}

	def.ID = id
	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = time.Now().UTC()

	if def.Actions == nil {
		def.Actions = []models.ActionSpec{}
	}

	if err := s.validateDefinition(def); err != nil {
		return nil, err
	}

	s.workflows[id] = def

	if err := s.persist(ctx); err != nil {
		s.workflows[id] = existing

		return nil, err
	}

	s.logger.Info("Updated workflow", "workflow_id", id)

	return cloneDefinition(def), nil
}

// Delete removes a definition and persists the shrunken collection.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.workflows[id]
	if !ok {
		return fmt.Errorf("%w: %q", persistence.ErrWorkflowNotFound, id)
	}

	delete(s.workflows, id)

	if err := s.persist(ctx); err != nil {
		s.workflows[id] = existing

		return err
	}

	s.logger.Info("Deleted workflow", "workflow_id", id)

	return nil
}

func (s *Store) Get(id string) (*models.WorkflowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.workflows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", persistence.ErrWorkflowNotFound, id)
	}

	return cloneDefinition(def), nil
}

// List returns all definitions ordered by creation time.
func (s *Store) List() []*models.WorkflowDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot()
}

// ListEnabled returns the enabled definitions ordered by creation time.
func (s *Store) ListEnabled() []*models.WorkflowDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enabled := make([]*models.WorkflowDefinition, 0, len(s.workflows))
	for _, def := range s.snapshot() {
		if def.Enabled {
			enabled = append(enabled, def)
		}
	}

	return enabled
}

// MarkExecuted records execution bookkeeping on a definition and persists it.
func (s *Store) MarkExecuted(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.workflows[id]
	if !ok {
		return fmt.Errorf("%w: %q", persistence.ErrWorkflowNotFound, id)
	}

	def.LastExecuted = &at
	def.ExecutionCount++
	def.UpdatedAt = time.Now().UTC()

	return s.persist(ctx)
}

// SetEnabled flips a definition's enabled flag and persists it.
func (s *Store) SetEnabled(ctx context.Context, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.workflows[id]
	if !ok {
		return fmt.Errorf("%w: %q", persistence.ErrWorkflowNotFound, id)
	}

	def.Enabled = enabled
	def.UpdatedAt = time.Now().UTC()

	return s.persist(ctx)
}

// validateDefinition runs the struct tags plus the per-frequency schedule
// checks the tags cannot express.
func (s *Store) validateDefinition(def *models.WorkflowDefinition) error {
	if err := s.validate.Struct(def); err != nil {
		return fmt.Errorf("invalid workflow: %w", err)
	}

	if def.Trigger.Type == models.TriggerSchedule {
		if def.Trigger.Schedule == nil {
			return fmt.Errorf("invalid workflow: %w", models.ErrInvalidSchedule)
		}

		if err := def.Trigger.Schedule.Validate(); err != nil {
			return fmt.Errorf("invalid workflow: %w", err)
		}
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.persistence.HealthCheck(ctx)
}

// persist writes the whole collection. Callers hold the write lock.
func (s *Store) persist(ctx context.Context) error {
	if err := s.persistence.SaveWorkflows(ctx, s.snapshot()); err != nil {
		return fmt.Errorf("failed to persist workflows: %w", err)
	}

	return nil
}

func (s *Store) snapshot() []*models.WorkflowDefinition {
	definitions := make([]*models.WorkflowDefinition, 0, len(s.workflows))
	for _, def := range s.workflows {
		definitions = append(definitions, cloneDefinition(def))
	}

	sort.Slice(definitions, func(i, j int) bool {
		if definitions[i].CreatedAt.Equal(definitions[j].CreatedAt) {
			return definitions[i].ID < definitions[j].ID
		}

		return definitions[i].CreatedAt.Before(definitions[j].CreatedAt)
	})

	return definitions
}

func cloneDefinition(def *models.WorkflowDefinition) *models.WorkflowDefinition {
	clone := *def

	clone.Actions = make([]models.ActionSpec, len(def.Actions))
	copy(clone.Actions, def.Actions)

	if def.LastExecuted != nil {
		at := *def.LastExecuted
		clone.LastExecuted = &at
	}

	return &clone
}
