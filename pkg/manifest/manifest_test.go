// pkg/manifest/manifest_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Real filesystem (t.TempDir)
// PURPOSE: Test TOML and YAML manifest decoding into resources and patch specs

package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/manifest"
	"github.com/arthur-debert/stager/pkg/types"
)

const tomlManifest = `
[resource]
name = "testball"
url = "testball-0.1.tar.gz"
checksum = "sha256:ABC"

[[resource.patches]]
inline = "--- a\n+++ b\n"
strip = "p0"

[[patches]]
url = "patches.tgz"
checksum = "def"
apply = ["noop-a.diff", "noop-c.diff"]
directory = "libexec"

[[patches]]
url = "https://example.com/fix.diff"
checksum = "123"
strip = ":p2"

[variables]
prefix = "/opt/stager"
`

const yamlManifest = `
resource:
  name: testball
  url: testball-0.1.tar.gz
  checksum: "sha256:ABC"
  patches:
    - inline: "--- a\n+++ b\n"
      strip: p0
patches:
  - url: patches.tgz
    checksum: def
    apply: [noop-a.diff, noop-c.diff]
    directory: libexec
  - url: https://example.com/fix.diff
    checksum: "123"
    strip: ":p2"
variables:
  prefix: /opt/stager
`

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "toml", file: "build.toml", content: tomlManifest},
		{name: "yaml", file: "build.yaml", content: yamlManifest},
		{name: "yml", file: "build.yml", content: yamlManifest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, tt.file, tt.content)
			dir := filepath.Dir(path)

			m, err := manifest.Load(path)
			require.NoError(t, err)
			assert.Equal(t, dir, m.Dir)
			assert.Equal(t, map[string]string{"prefix": "/opt/stager"}, m.Variables)

			res, err := m.StagingResource()
			require.NoError(t, err)
			assert.Equal(t, "testball", res.Name)
			assert.Equal(t, filepath.Join(dir, "testball-0.1.tar.gz"), res.URL)
			assert.Equal(t, "sha256:ABC", res.Checksum)
			assert.False(t, res.Fetched())
			require.Len(t, res.Patches, 1)
			assert.Equal(t, types.P0, res.Patches[0].Strip)
			assert.Equal(t, types.InlineOrigin{Text: "--- a\n+++ b\n"}, res.Patches[0].Origin)

			specs, err := m.PatchSpecs()
			require.NoError(t, err)
			require.Len(t, specs, 2)

			assert.Equal(t, types.P1, specs[0].Strip)
			assert.Equal(t, types.FetchedOrigin{URL: filepath.Join(dir, "patches.tgz"), Checksum: "def"}, specs[0].Origin)
			assert.Equal(t, []string{"noop-a.diff", "noop-c.diff"}, specs[0].Apply)
			assert.Equal(t, "libexec", specs[0].Directory)

			assert.Equal(t, types.P2, specs[1].Strip)
			assert.Equal(t, types.FetchedOrigin{URL: "https://example.com/fix.diff", Checksum: "123"}, specs[1].Origin)
		})
	}
}

func TestPathResourceIsFetched(t *testing.T) {
	m, err := manifest.Parse([]byte(`
[resource]
name = "checkout"
path = "/src/checkout"
ref_kind = "commit"
ref = "abc123"
`), manifest.FormatTOML)
	require.NoError(t, err)

	res, err := m.StagingResource()
	require.NoError(t, err)
	assert.Equal(t, "/src/checkout", res.LocalPath)
	assert.Equal(t, types.RefRevision, res.RefKind)
	assert.Equal(t, "abc123", res.Ref)
	assert.NoError(t, res.Validate())
}

func TestManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
		patch   string
	}{
		{
			name:    "unknown key",
			content: "[resource]\nname = \"x\"\nurl = \"a\"\nflavour = \"mint\"\n",
			code:    errors.ErrInvalidInput,
		},
		{
			name:    "two resource origins",
			content: "[resource]\nurl = \"a\"\npath = \"b\"\n",
			code:    errors.ErrInvalidInput,
		},
		{
			name:    "unknown ref kind",
			content: "[resource]\npath = \"b\"\nref_kind = \"label\"\nref = \"x\"\n",
			code:    errors.ErrInvalidInput,
		},
		{
			name:    "bad strip",
			content: "[resource]\npath = \"b\"\n[[patches]]\ninline = \"x\"\nstrip = \"px\"\n",
			code:    errors.ErrInvalidInput,
			patch:   "patches[0]",
		},
		{
			name:    "patch without origin",
			content: "[resource]\npath = \"b\"\n[[patches]]\nurl = \"a\"\n[[patches]]\nstrip = \"p1\"\n",
			code:    errors.ErrInvalidInput,
			patch:   "patches[1]",
		},
		{
			name:    "inline with apply list",
			content: "[resource]\npath = \"b\"\n[[patches]]\ninline = \"x\"\napply = [\"a.diff\"]\n",
			code:    errors.ErrInvalidApplyList,
			patch:   "patches[0]",
		},
		{
			name:    "escaping directory",
			content: "[resource]\npath = \"b\"\n[[resource.patches]]\ninline = \"x\"\ndirectory = \"../x\"\n",
			code:    errors.ErrUnsafePath,
			patch:   "resource.patches[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := manifest.Parse([]byte(tt.content), manifest.FormatTOML)
			if err == nil {
				_, err = m.StagingResource()
			}
			if err == nil {
				_, err = m.PatchSpecs()
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetErrorCode(err), "got %v", err)
			if tt.patch != "" {
				assert.Equal(t, tt.patch, errors.GetErrorDetails(err)["patch"])
			}
		})
	}
}

func TestFormatFor(t *testing.T) {
	_, err := manifest.FormatFor("build.json")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = manifest.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}
