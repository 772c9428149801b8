package types

import (
	"path/filepath"
)

// WorkingTree is the directory one Stage call builds in. Root is what the
// orchestrator created; SourceDir is where the source actually lives, which
// is the single top-level directory of the extraction when there is one.
type WorkingTree struct {
	ID        string
	Root      string
	SourceDir string
}

// Path joins rel onto the source directory.
func (w *WorkingTree) Path(rel ...string) string {
	return filepath.Join(append([]string{w.SourceDir}, rel...)...)
}
