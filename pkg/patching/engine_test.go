// pkg/patching/engine_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Real filesystem (t.TempDir)
// PURPOSE: Test sequential application, error mapping and cancellation

package patching_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/patching"
	"github.com/arthur-debert/stager/pkg/testutil"
	"github.com/arthur-debert/stager/pkg/types"
)

type call struct {
	content string
	strip   types.StripLevel
	dir     string
}

// recordingPrimitive records calls and fails on the configured index.
type recordingPrimitive struct {
	calls  []call
	failAt int
	err    error
	onCall func(i int)
}

func (r *recordingPrimitive) Apply(_ context.Context, content []byte, strip types.StripLevel, rootDir string) error {
	i := len(r.calls)
	r.calls = append(r.calls, call{content: string(content), strip: strip, dir: rootDir})
	if r.onCall != nil {
		r.onCall(i)
	}
	if r.err != nil && i == r.failAt {
		return r.err
	}
	return nil
}

func bodies(names ...string) []types.ResolvedPatchBody {
	out := make([]types.ResolvedPatchBody, len(names))
	for i, name := range names {
		out[i] = types.ResolvedPatchBody{Content: []byte(name), Strip: types.P1, Position: i, Name: name}
	}
	return out
}

func TestEngineAppliesInOrder(t *testing.T) {
	tree := &types.WorkingTree{Root: "/work", SourceDir: "/work/src"}
	prim := &recordingPrimitive{}

	require.NoError(t, patching.NewEngine(prim).Apply(context.Background(), tree, bodies("a", "b", "a")))

	require.Len(t, prim.calls, 3)
	assert.Equal(t, []string{"a", "b", "a"}, []string{prim.calls[0].content, prim.calls[1].content, prim.calls[2].content})
	for _, c := range prim.calls {
		assert.Equal(t, "/work/src", c.dir)
		assert.Equal(t, types.P1, c.strip)
	}
}

func TestEngineStopsAtFirstFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{name: "rejection", err: fmt.Errorf("%w: hunk failed", patching.ErrRejected), code: errors.ErrPatchApply},
		{name: "io failure", err: stderrors.New("disk on fire"), code: errors.ErrFileSystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := &types.WorkingTree{SourceDir: t.TempDir()}
			prim := &recordingPrimitive{failAt: 1, err: tt.err}

			err := patching.NewEngine(prim).Apply(context.Background(), tree, bodies("first", "second", "third"))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetErrorCode(err))
			assert.Len(t, prim.calls, 2)

			details := errors.GetErrorDetails(err)
			assert.Equal(t, "p1", details["strip"])
			assert.Equal(t, 1, details["position"])
			assert.Equal(t, "second", details["name"])
		})
	}
}

func TestEngineObservesCancellationBetweenBodies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prim := &recordingPrimitive{onCall: func(i int) {
		if i == 0 {
			cancel()
		}
	}}
	tree := &types.WorkingTree{SourceDir: t.TempDir()}

	err := patching.NewEngine(prim).Apply(ctx, tree, bodies("first", "second"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCancelled))
	assert.Len(t, prim.calls, 1)
}

func TestEngineAppliesInsideDirectory(t *testing.T) {
	root := testutil.TempTree(t, testutil.FileTree{"src": testutil.FileTree{"lib": testutil.FileTree{"x": "x"}}})
	tree := &types.WorkingTree{Root: root, SourceDir: filepath.Join(root, "src")}
	prim := &recordingPrimitive{}

	b := bodies("p")
	b[0].Directory = "lib"
	require.NoError(t, patching.NewEngine(prim).Apply(context.Background(), tree, b))
	assert.Equal(t, filepath.Join(root, "src", "lib"), prim.calls[0].dir)

	b[0].Directory = "missing"
	err := patching.NewEngine(prim).Apply(context.Background(), tree, b)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileSystem))

	b[0].Directory = "../.."
	err = patching.NewEngine(prim).Apply(context.Background(), tree, b)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnsafePath))
}

func TestEngineWrongStripLeavesTreeUnchanged(t *testing.T) {
	dir := noopSourceDir(t)
	tree := &types.WorkingTree{Root: filepath.Dir(dir), SourceDir: dir}
	before := testutil.Snapshot(t, dir)

	b := []types.ResolvedPatchBody{{Content: []byte(testutil.NoopPatchA), Strip: types.P0, Name: "noop-a.diff"}}
	err := patching.NewEngine(patching.NewBuiltinPrimitive()).Apply(context.Background(), tree, b)

	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPatchApply))
	assert.Equal(t, "noop-a.diff", errors.GetErrorDetails(err)["name"])
	assert.Equal(t, before, testutil.Snapshot(t, dir))
}
