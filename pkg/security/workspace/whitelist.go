package workspace

import (
	"fmt"
	"path/filepath"
)

// Allow lets the guard accept paths below dir even though it lies outside
// the root. Adding the same directory twice is a no-op.
func (g *Guard) Allow(dir string) error {
	if dir == "" {
		return fmt.Errorf("allowed directory cannot be empty")
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve allowed directory: %w", err)
	}
	evalPath := resolveExisting(absPath)

	for _, existing := range g.allowed {
		if existing == evalPath {
			return nil
		}
	}
	g.allowed = append(g.allowed, evalPath)
	return nil
}

// Allowed returns a copy of the allowed directories.
func (g *Guard) Allowed() []string {
	out := make([]string, len(g.allowed))
	copy(out, g.allowed)
	return out
}

// ClearAllowed removes every allowed directory.
func (g *Guard) ClearAllowed() {
	g.allowed = nil
}
