// pkg/testutil/archives.go
// DEPENDENCIES: klauspost/compress
// PURPOSE: Write tar, zip and compressed fixtures

package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ArchiveEntry is one member of a fixture archive. Names ending in "/" are
// directories; a non-empty Link makes a symlink.
type ArchiveEntry struct {
	Name string
	Body string
	Mode int64
	Link string
}

var fixtureTime = time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

// TarBytes renders entries as an uncompressed tar stream.
func TarBytes(t *testing.T, entries []ArchiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:    e.Name,
			Mode:    e.Mode,
			ModTime: fixtureTime,
			Format:  tar.FormatUSTAR,
		}
		switch {
		case e.Link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Link
		case len(e.Name) > 0 && e.Name[len(e.Name)-1] == '/':
			hdr.Typeflag = tar.TypeDir
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Body))
		}
		if hdr.Mode == 0 {
			hdr.Mode = defaultMode(hdr.Typeflag)
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("Failed to write tar header %s: %v", e.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.Body)); err != nil {
				t.Fatalf("Failed to write tar body %s: %v", e.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close tar writer: %v", err)
	}
	return buf.Bytes()
}

func defaultMode(typeflag byte) int64 {
	if typeflag == tar.TypeDir {
		return 0o755
	}
	return 0o644
}

// GzipBytes compresses content with gzip.
func GzipBytes(t *testing.T, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(content); err != nil {
		t.Fatalf("Failed to gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}

// ZstdBytes compresses content with zstd.
func ZstdBytes(t *testing.T, content []byte) []byte {
	t.Helper()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("Failed to create zstd encoder: %v", err)
	}
	defer func() { _ = enc.Close() }()
	return enc.EncodeAll(content, nil)
}

// ZipBytes renders entries as a zip archive.
func ZipBytes(t *testing.T, entries []ArchiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		mode := fs.FileMode(e.Mode)
		isDir := len(e.Name) > 0 && e.Name[len(e.Name)-1] == '/'
		if mode == 0 {
			mode = fs.FileMode(defaultMode(tar.TypeReg))
			if isDir {
				mode = fs.FileMode(defaultMode(tar.TypeDir))
			}
		}
		if isDir {
			mode |= fs.ModeDir
		}

		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate, Modified: fixtureTime}
		hdr.SetMode(mode)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("Failed to write zip header %s: %v", e.Name, err)
		}
		if !isDir {
			if _, err := w.Write([]byte(e.Body)); err != nil {
				t.Fatalf("Failed to write zip body %s: %v", e.Name, err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

// WriteBytes writes content to dir/name and returns the path.
func WriteBytes(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// WriteTarGz writes a gzip-compressed tar of entries to dir/name.
func WriteTarGz(t *testing.T, dir, name string, entries []ArchiveEntry) string {
	t.Helper()
	return WriteBytes(t, dir, name, GzipBytes(t, TarBytes(t, entries)))
}
