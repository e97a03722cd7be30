package workflow

import (
	"sync"

	"github.com/redglass/conductor/pkg/models"
)

// DefaultHistoryLimit bounds the in-memory execution history.
const DefaultHistoryLimit = 100

// History is a bounded, newest-first buffer of execution records. When the
// limit is reached the oldest record is evicted.
type History struct {
	mu      sync.RWMutex
	limit   int
	records []models.ExecutionRecord
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	return &History{limit: limit}
}

func (h *History) Append(record models.ExecutionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, record)

	if len(h.records) > h.limit {
		h.records = h.records[len(h.records)-h.limit:]
	}
}

// List returns records newest first, optionally filtered by workflow id.
func (h *History) List(workflowID string) []models.ExecutionRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.ExecutionRecord, 0, len(h.records))

	for i := len(h.records) - 1; i >= 0; i-- {
		if workflowID != "" && h.records[i].WorkflowID != workflowID {
			continue
		}

		out = append(out, h.records[i])
	}

	return out
}

func (h *History) Get(executionID string) (models.ExecutionRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].ID == executionID {
			return h.records[i], true
		}
	}

	return models.ExecutionRecord{}, false
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.records)
}
