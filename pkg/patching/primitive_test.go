// pkg/patching/primitive_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem (t.TempDir), patch(1) for CommandPrimitive
// PURPOSE: Test both patch primitives against the NOOP fixture tree

package patching_test

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/stager/pkg/patching"
	"github.com/arthur-debert/stager/pkg/testutil"
	"github.com/arthur-debert/stager/pkg/types"
)

type namedPrimitive struct {
	name      string
	primitive func(t *testing.T) patching.Primitive
}

var allPrimitives = []namedPrimitive{
	{
		name:      "builtin",
		primitive: func(t *testing.T) patching.Primitive { return patching.NewBuiltinPrimitive() },
	},
	{
		name: "command",
		primitive: func(t *testing.T) patching.Primitive {
			testutil.RequireTool(t, "patch")
			return patching.NewCommandPrimitive("", 0)
		},
	},
}

// noopSourceDir writes the fixture tree and returns its source directory.
func noopSourceDir(t *testing.T) string {
	t.Helper()
	root := testutil.TempTree(t, testutil.NoopTree())
	return filepath.Join(root, "testball-0.1")
}

func TestPrimitivesApply(t *testing.T) {
	tests := []struct {
		name    string
		patches []string
		strip   types.StripLevel
		want    string
	}{
		{name: "p1 git diff", patches: []string{testutil.NoopPatchA}, strip: types.P1, want: "#!/bin/bash\necho ABCD\n"},
		{name: "p0 plain diff", patches: []string{testutil.NoopPatchB}, strip: types.P0, want: "#!/bin/bash\necho ABCD\n"},
		{name: "sequential", patches: []string{testutil.NoopPatchA, testutil.NoopPatchC}, strip: types.P1, want: "#!/bin/bash\necho 1234\n"},
	}

	for _, p := range allPrimitives {
		for _, tt := range tests {
			t.Run(p.name+"/"+tt.name, func(t *testing.T) {
				prim := p.primitive(t)
				dir := noopSourceDir(t)

				for _, patch := range tt.patches {
					require.NoError(t, prim.Apply(context.Background(), []byte(patch), tt.strip, dir))
				}

				assert.Equal(t, tt.want, testutil.ReadFile(t, filepath.Join(dir, "libexec", "NOOP")))
				info, err := os.Stat(filepath.Join(dir, "libexec", "NOOP"))
				require.NoError(t, err)
				assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
			})
		}
	}
}

func TestPrimitivesReject(t *testing.T) {
	tests := []struct {
		name  string
		patch string
		strip types.StripLevel
	}{
		{name: "wrong strip level", patch: testutil.NoopPatchA, strip: types.P0},
		{name: "too deep strip level", patch: testutil.NoopPatchB, strip: types.P2},
		{name: "hunk does not match", patch: testutil.NoopPatchC, strip: types.P1},
	}

	for _, p := range allPrimitives {
		for _, tt := range tests {
			t.Run(p.name+"/"+tt.name, func(t *testing.T) {
				prim := p.primitive(t)
				dir := noopSourceDir(t)
				before := testutil.Snapshot(t, dir)

				err := prim.Apply(context.Background(), []byte(tt.patch), tt.strip, dir)
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, patching.ErrRejected), "got %v", err)
				assert.Equal(t, before, testutil.Snapshot(t, dir))
			})
		}
	}
}

// The second section fails, so the first must not be written either.
const partiallyApplicable = `--- a/README
+++ b/README
@@ -1 +1 @@
-testball
+patched
--- a/libexec/NOOP
+++ b/libexec/NOOP
@@ -1,2 +1,2 @@
 #!/bin/bash
-echo MISSING
+echo ABCD
`

func TestPrimitivesAreAtomic(t *testing.T) {
	for _, p := range allPrimitives {
		t.Run(p.name, func(t *testing.T) {
			prim := p.primitive(t)
			dir := noopSourceDir(t)
			before := testutil.Snapshot(t, dir)

			err := prim.Apply(context.Background(), []byte(partiallyApplicable), types.P1, dir)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, patching.ErrRejected))
			assert.Equal(t, before, testutil.Snapshot(t, dir))
		})
	}
}

const createAndDelete = `diff --git a/docs/NEW b/docs/NEW
new file mode 100644
index 0000000..3b18e51
--- /dev/null
+++ b/docs/NEW
@@ -0,0 +1 @@
+hello world
diff --git a/README b/README
deleted file mode 100644
index 9daeafb..0000000
--- a/README
+++ /dev/null
@@ -1 +0,0 @@
-testball
`

func TestBuiltinCreatesAndDeletes(t *testing.T) {
	dir := noopSourceDir(t)

	require.NoError(t, patching.NewBuiltinPrimitive().Apply(context.Background(), []byte(createAndDelete), types.P1, dir))

	assert.Equal(t, "hello world\n", testutil.ReadFile(t, filepath.Join(dir, "docs", "NEW")))
	assert.NoFileExists(t, filepath.Join(dir, "README"))
}

func TestBuiltinSeveralSectionsOnOneFile(t *testing.T) {
	dir := noopSourceDir(t)
	combined := testutil.NoopPatchA + testutil.NoopPatchC

	require.NoError(t, patching.NewBuiltinPrimitive().Apply(context.Background(), []byte(combined), types.P1, dir))
	assert.Equal(t, "#!/bin/bash\necho 1234\n", testutil.ReadFile(t, filepath.Join(dir, "libexec", "NOOP")))
}

func TestBuiltinRejectsGarbage(t *testing.T) {
	dir := noopSourceDir(t)

	err := patching.NewBuiltinPrimitive().Apply(context.Background(), []byte("this is not a patch\n"), types.P1, dir)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, patching.ErrRejected))
}

func TestBuiltinRejectsEscapingNames(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "src")
	testutil.WriteTree(t, dir, testutil.FileTree{"a": "a\n"})
	testutil.WriteTree(t, root, testutil.FileTree{"outside": "secret\n"})

	escaping := "--- ../outside\n+++ ../outside\n@@ -1 +1 @@\n-secret\n+owned\n"
	err := patching.NewBuiltinPrimitive().Apply(context.Background(), []byte(escaping), types.P0, dir)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, patching.ErrRejected))
	assert.Equal(t, "secret\n", testutil.ReadFile(t, filepath.Join(root, "outside")))
}
