package cmd

import (
	"github.com/redglass/conductor/pkg/persistence"
	"github.com/redglass/conductor/pkg/persistence/file"
)

// NewPersistence builds the workflow collection store rooted at dataDir.
// "file://" prefixes are accepted and stripped.
func NewPersistence(dataDir string) persistence.Persistence {
	return file.NewPersistence(dataDir)
}
