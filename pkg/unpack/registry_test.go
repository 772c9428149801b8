// pkg/unpack/registry_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem (t.TempDir)
// PURPOSE: Test strategy priority and content-based selection

package unpack_test

import (
	"archive/tar"
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/testutil"
	"github.com/arthur-debert/stager/pkg/types"
	"github.com/arthur-debert/stager/pkg/unpack"
)

func xzBytes(t *testing.T, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// v7TarBytes builds a pre-POSIX tar, which carries no "ustar" magic.
func v7TarBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := tar.NewWriter(&buf)
	require.NoError(t, w.WriteHeader(&tar.Header{
		Name:     "pkg/a.txt",
		Mode:     0o644,
		Size:     2,
		ModTime:  time.Unix(1_000_000_000, 0),
		Typeflag: tar.TypeReg,
		Format:   tar.FormatV7,
	}))
	_, err := w.Write([]byte("a\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDefaultRegistryOrder(t *testing.T) {
	reg := unpack.DefaultRegistry(unpack.Options{})

	var names []string
	for _, s := range reg.Strategies() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"git", "directory", "zip", "tar", "compressed", "external", "uncompressed"}, names)
}

func TestSelect(t *testing.T) {
	tarEntries := []testutil.ArchiveEntry{{Name: "pkg/"}, {Name: "pkg/a.txt", Body: "a\n"}}

	tests := []struct {
		name     string
		setup    func(t *testing.T, dir string) string
		strategy string
		kind     unpack.Kind
	}{
		{
			name: "plain directory",
			setup: func(t *testing.T, dir string) string {
				testutil.WriteTree(t, filepath.Join(dir, "src"), testutil.FileTree{"a": "a"})
				return filepath.Join(dir, "src")
			},
			strategy: "directory",
			kind:     unpack.KindDirectory,
		},
		{
			name: "git checkout",
			setup: func(t *testing.T, dir string) string {
				testutil.WriteTree(t, filepath.Join(dir, "repo"), testutil.FileTree{".git": testutil.FileTree{"HEAD": "ref: refs/heads/main\n"}})
				return filepath.Join(dir, "repo")
			},
			strategy: "git",
			kind:     unpack.KindVCS,
		},
		{
			name: "zip with misleading extension",
			setup: func(t *testing.T, dir string) string {
				return testutil.WriteBytes(t, dir, "source.tar.gz", testutil.ZipBytes(t, tarEntries))
			},
			strategy: "zip",
			kind:     unpack.KindArchive,
		},
		{
			name: "plain tar",
			setup: func(t *testing.T, dir string) string {
				return testutil.WriteBytes(t, dir, "source", testutil.TarBytes(t, tarEntries))
			},
			strategy: "tar",
			kind:     unpack.KindArchive,
		},
		{
			name: "gzip tar",
			setup: func(t *testing.T, dir string) string {
				return testutil.WriteTarGz(t, dir, "source.zip", tarEntries)
			},
			strategy: "tar",
			kind:     unpack.KindArchive,
		},
		{
			name: "zstd tar",
			setup: func(t *testing.T, dir string) string {
				return testutil.WriteBytes(t, dir, "source.tar.zst", testutil.ZstdBytes(t, testutil.TarBytes(t, tarEntries)))
			},
			strategy: "tar",
			kind:     unpack.KindArchive,
		},
		{
			name: "xz tar",
			setup: func(t *testing.T, dir string) string {
				return testutil.WriteBytes(t, dir, "source.tar.xz", xzBytes(t, testutil.TarBytes(t, tarEntries)))
			},
			strategy: "tar",
			kind:     unpack.KindArchive,
		},
		{
			name: "v7 tar",
			setup: func(t *testing.T, dir string) string {
				return testutil.WriteBytes(t, dir, "source", v7TarBytes(t))
			},
			strategy: "tar",
			kind:     unpack.KindArchive,
		},
		{
			name: "gzip v7 tar",
			setup: func(t *testing.T, dir string) string {
				return testutil.WriteBytes(t, dir, "source.gz", testutil.GzipBytes(t, v7TarBytes(t)))
			},
			strategy: "tar",
			kind:     unpack.KindArchive,
		},
		{
			name: "jar resolves to zip",
			setup: func(t *testing.T, dir string) string {
				jar := testutil.ZipBytes(t, []testutil.ArchiveEntry{{Name: "META-INF/MANIFEST.MF", Body: "Manifest-Version: 1.0\n"}})
				return testutil.WriteBytes(t, dir, "lib.jar", jar)
			},
			strategy: "zip",
			kind:     unpack.KindArchive,
		},
		{
			name: "gzip single file",
			setup: func(t *testing.T, dir string) string {
				return testutil.WriteBytes(t, dir, "fix.diff.gz", testutil.GzipBytes(t, []byte(testutil.NoopPatchA)))
			},
			strategy: "compressed",
			kind:     unpack.KindFile,
		},
		{
			name: "seven zip",
			setup: func(t *testing.T, dir string) string {
				return testutil.WriteBytes(t, dir, "source.7z", []byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c, 0, 4})
			},
			strategy: "external",
			kind:     unpack.KindArchive,
		},
		{
			name: "plain patch file",
			setup: func(t *testing.T, dir string) string {
				return testutil.WriteBytes(t, dir, "fix.tar.gz", []byte(testutil.NoopPatchA))
			},
			strategy: "uncompressed",
			kind:     unpack.KindFile,
		},
	}

	reg := unpack.DefaultRegistry(unpack.Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t, t.TempDir())

			s, err := reg.Select(path)
			require.NoError(t, err)
			assert.Equal(t, tt.strategy, s.Name())
			assert.Equal(t, tt.kind, s.Kind())
		})
	}
}

func TestSelectUnsupported(t *testing.T) {
	reg := unpack.NewRegistry()
	require.NoError(t, reg.Register(unpack.NewZip()))

	path := testutil.WriteBytes(t, t.TempDir(), "notes.txt", []byte("hello"))
	_, err := reg.Select(path)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnsupportedSource))
}

func TestSelectMissingSource(t *testing.T) {
	_, err := unpack.DefaultRegistry(unpack.Options{}).Select(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileSystem))
}

func TestRegisterDuplicate(t *testing.T) {
	reg := unpack.DefaultRegistry(unpack.Options{})
	err := reg.Register(unpack.NewTar())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists))
}

func TestRegistryExtract(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteBytes(t, dir, "testball-0.1.tgz", testutil.NoopTarball(t))
	dest := filepath.Join(dir, "out")
	testutil.WriteTree(t, dest, testutil.FileTree{})

	s, err := unpack.DefaultRegistry(unpack.Options{}).Extract(context.Background(), types.ExtractionRequest{
		SourcePath:      src,
		DestinationPath: dest,
	})
	require.NoError(t, err)
	assert.Equal(t, "tar", s.Name())
	assert.Equal(t, testutil.NoopSource, testutil.ReadFile(t, filepath.Join(dest, "testball-0.1", "libexec", "NOOP")))
}

func TestRegistryExtractRequiresDestination(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteBytes(t, dir, "testball-0.1.tgz", testutil.NoopTarball(t))

	_, err := unpack.DefaultRegistry(unpack.Options{}).Extract(context.Background(), types.ExtractionRequest{
		SourcePath:      src,
		DestinationPath: filepath.Join(dir, "missing"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileSystem))
}
