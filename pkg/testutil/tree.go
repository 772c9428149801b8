// pkg/testutil/tree.go
// DEPENDENCIES: None (base test utilities)
// PURPOSE: Build and inspect on-disk directory trees

package testutil

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// FileTree represents a directory structure for testing. Values are a
// string (file content), a nested FileTree (directory), a Symlink or a
// File with explicit mode.
type FileTree map[string]interface{}

// Symlink is a FileTree entry creating a symbolic link.
type Symlink struct {
	Target string
}

// File is a FileTree entry with an explicit mode.
type File struct {
	Content string
	Mode    fs.FileMode
}

// WriteTree creates tree under root, creating root if needed.
func WriteTree(t *testing.T, root string, tree FileTree) {
	t.Helper()

	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", root, err)
	}

	for name, content := range tree {
		fullPath := filepath.Join(root, name)

		switch v := content.(type) {
		case string:
			writeFile(t, fullPath, v, 0o644)
		case File:
			writeFile(t, fullPath, v.Content, v.Mode)
		case Symlink:
			if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
				t.Fatalf("Failed to create directory for %s: %v", fullPath, err)
			}
			if err := os.Symlink(v.Target, fullPath); err != nil {
				t.Fatalf("Failed to create symlink %s: %v", fullPath, err)
			}
		case FileTree:
			WriteTree(t, fullPath, v)
		default:
			t.Fatalf("Invalid file tree content type for %s: %T", name, content)
		}
	}
}

func writeFile(t *testing.T, path, content string, mode fs.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	// WriteFile is subject to umask
	if err := os.Chmod(path, mode); err != nil {
		t.Fatalf("Failed to chmod %s: %v", path, err)
	}
}

// TempTree writes tree into a fresh temporary directory and returns it.
func TempTree(t *testing.T, tree FileTree) string {
	t.Helper()
	root := t.TempDir()
	WriteTree(t, root, tree)
	return root
}

// Snapshot describes every entry below root, keyed by slash-separated
// relative path. Files record mode and content digest, symlinks their
// target, directories their mode.
func Snapshot(t *testing.T, root string) map[string]string {
	t.Helper()

	snap := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := os.Lstat(path)
		if err != nil {
			return err
		}

		key := filepath.ToSlash(rel)
		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			snap[key] = "link " + target
		case info.IsDir():
			snap[key] = fmt.Sprintf("dir %o", info.Mode().Perm())
		default:
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			snap[key] = fmt.Sprintf("file %o %x", info.Mode().Perm(), sha256.Sum256(content))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to snapshot %s: %v", root, err)
	}
	return snap
}

// ReadFile returns the content of path or fails the test.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(content)
}

// Checksum returns the hex sha256 of content.
func Checksum(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}
