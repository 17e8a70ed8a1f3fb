// Package workspace manages the ephemeral scratch directories the pipeline
// hands to external tools. A workspace is exclusively owned by one unit of
// work and is removed on every exit path; no other package deletes workspace
// directories.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is a scratch directory under the shared cache root.
type Workspace struct {
	path string
}

// Acquire creates a uniquely named directory under root. Concurrent workers
// may acquire under the same root without collision.
func Acquire(root string) (*Workspace, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	path := filepath.Join(root, "ws-"+uuid.NewString())
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{path: path}, nil
}

// Path returns the workspace directory.
func (w *Workspace) Path() string { return w.path }

// Join resolves name inside the workspace.
func (w *Workspace) Join(name string) string { return filepath.Join(w.path, name) }

// WriteFile places content into the workspace and returns its absolute path.
func (w *Workspace) WriteFile(name, content string) (string, error) {
	path := w.Join(name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// Close removes the workspace directory and everything in it.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.path)
}

// With scopes a workspace to fn: the directory is created before fn runs and
// removed afterwards regardless of fn's outcome.
func With(root string, fn func(ws *Workspace) error) error {
	ws, err := Acquire(root)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ws)
}
