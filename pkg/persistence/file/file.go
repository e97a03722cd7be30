// Package file provides file-based persistence for the workflow collection.
// The whole collection lives in one JSON document at a well-known path and is
// replaced atomically on every save.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redglass/conductor/pkg/models"
	"github.com/redglass/conductor/pkg/persistence"
)

const collectionFile = "workflows.json"

// Persistence implements persistence.Persistence on top of a directory.
type Persistence struct {
	root string
}

func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (fp *Persistence) path() string {
	return filepath.Join(fp.root, collectionFile)
}

// LoadWorkflows reads the full collection. A missing file is an empty
// collection, not an error.
func (fp *Persistence) LoadWorkflows(_ context.Context) ([]*models.WorkflowDefinition, error) {
	body, err := os.ReadFile(fp.path())
	if err != nil {
		if os.IsNotExist(err) {
			return make([]*models.WorkflowDefinition, 0), nil
		}

		return nil, fmt.Errorf("failed to read workflow collection: %w", err)
	}

	var workflows []*models.WorkflowDefinition
	if err := json.Unmarshal(body, &workflows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow collection: %w", err)
	}

	return workflows, nil
}

// SaveWorkflows replaces the whole collection. The document is written to a
// temporary file and renamed into place so readers never observe a partial
// write.
func (fp *Persistence) SaveWorkflows(_ context.Context, workflows []*models.WorkflowDefinition) error {
	if err := os.MkdirAll(fp.root, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if workflows == nil {
		workflows = make([]*models.WorkflowDefinition, 0)
	}

	data, err := json.MarshalIndent(workflows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow collection: %w", err)
	}

	tmp, err := os.CreateTemp(fp.root, collectionFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary collection file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("failed to write workflow collection: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("failed to close temporary collection file: %w", err)
	}

	if err := os.Rename(tmpName, fp.path()); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("failed to replace workflow collection: %w", err)
	}

	return nil
}

func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return persistence.ErrStoreUnavailable
	}

	return nil
}

func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
