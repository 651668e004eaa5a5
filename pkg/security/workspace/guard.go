// Package workspace confines files written on behalf of tool callers to an
// output directory. Paths that resolve outside it, through ".." segments or
// symbolic links, are rejected.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideWorkspace is returned for paths that resolve outside the guarded
// directory and every allowed directory.
var ErrOutsideWorkspace = errors.New("path is outside the output directory")

// Guard resolves caller supplied paths against a root directory.
type Guard struct {
	root    string   // absolute, symlink-free
	allowed []string // extra directories outside root
}

// NewGuard creates a guard rooted at dir. The directory is created when
// missing.
func NewGuard(dir string) (*Guard, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	evalPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate output directory symlinks: %w", err)
	}

	return &Guard{root: evalPath}, nil
}

// Root returns the absolute path of the guarded directory.
func (g *Guard) Root() string {
	return g.root
}

// Resolve turns path into an absolute path. Relative paths are taken from
// the root and a leading ~/ expands to the home directory. The result must
// lie inside the root or an allowed directory.
func (g *Guard) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(g.root, expanded)
	}

	resolved := resolveExisting(filepath.Clean(expanded))
	if !g.Contains(resolved) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}
	return resolved, nil
}

// Contains reports whether absPath is the root, an allowed directory, or
// below one of them.
func (g *Guard) Contains(absPath string) bool {
	p := resolveExisting(absPath)
	if within(p, g.root) {
		return true
	}
	for _, dir := range g.allowed {
		if within(p, dir) {
			return true
		}
	}
	return false
}

// Rel returns absPath relative to the root.
func (g *Guard) Rel(absPath string) (string, error) {
	p := resolveExisting(absPath)
	if !within(p, g.root) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, absPath)
	}
	return filepath.Rel(g.root, p)
}

// WriteFile resolves path, creates its parent directories and writes data.
// It returns the absolute path written.
func (g *Guard) WriteFile(path string, data []byte) (string, error) {
	resolved, err := g.Resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return resolved, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand ~: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}

func within(path, dir string) bool {
	sep := string(filepath.Separator)
	return path == dir || strings.HasPrefix(path+sep, dir+sep)
}

// resolveExisting evaluates symlinks in the longest existing prefix of path
// and appends the remaining components unchanged.
func resolveExisting(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}

	var rest []string
	current := path
	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved
		}
		parent := filepath.Dir(current)
		if parent == current {
			return filepath.Clean(path)
		}
		rest = append(rest, filepath.Base(current))
		current = parent
	}
}
