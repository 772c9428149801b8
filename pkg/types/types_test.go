// pkg/types/types_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test strip level parsing and patch spec validation

package types_test

import (
	"testing"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStripLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    types.StripLevel
		wantErr bool
	}{
		{in: "p0", want: types.P0},
		{in: "p1", want: types.P1},
		{in: ":p2", want: types.P2},
		{in: "-p3", want: 3},
		{in: "1", want: types.P1},
		{in: "P1", want: types.P1},
		{in: "", wantErr: true},
		{in: "px", wantErr: true},
		{in: "p-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := types.ParseStripLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripLevelRendering(t *testing.T) {
	assert.Equal(t, "p1", types.P1.String())
	assert.Equal(t, "-p0", types.P0.Flag())
}

func TestPatchConstructorsDefaultToP1(t *testing.T) {
	assert.Equal(t, types.DefaultStrip, types.NewInlinePatch("x").Strip)
	assert.Equal(t, types.P1, types.NewFetchedPatch("file:///tmp/p.diff", "").Strip)
	assert.Equal(t, types.P0, types.NewInlinePatch("x").WithStrip(types.P0).Strip)
}

func TestPatchSpecValidate(t *testing.T) {
	tests := []struct {
		name string
		spec types.PatchSpec
		code errors.ErrorCode
	}{
		{
			name: "inline",
			spec: types.NewInlinePatch("--- a/f\n+++ b/f\n"),
		},
		{
			name: "fetched archive with apply list",
			spec: types.NewFetchedPatch("https://example.com/p.tar.gz", "abc", "A.diff", "C.diff"),
		},
		{
			name: "fetched without apply list is resolved later",
			spec: types.NewFetchedPatch("https://example.com/p.tar.gz", "abc"),
		},
		{
			name: "apply list on inline patch",
			spec: types.PatchSpec{Strip: types.P1, Origin: types.InlineOrigin{Text: "x"}, Apply: []string{"A.diff"}},
			code: errors.ErrInvalidApplyList,
		},
		{
			name: "fetched without url",
			spec: types.NewFetchedPatch("", "abc"),
			code: errors.ErrInvalidInput,
		},
		{
			name: "no origin",
			spec: types.PatchSpec{Strip: types.P1},
			code: errors.ErrInvalidInput,
		},
		{
			name: "negative strip",
			spec: types.NewInlinePatch("x").WithStrip(-1),
			code: errors.ErrInvalidInput,
		},
		{
			name: "apply entry escapes archive",
			spec: types.NewFetchedPatch("https://example.com/p.tar.gz", "", "../etc/passwd"),
			code: errors.ErrInvalidApplyList,
		},
		{
			name: "absolute apply entry",
			spec: types.NewFetchedPatch("https://example.com/p.tar.gz", "", "/A.diff"),
			code: errors.ErrInvalidApplyList,
		},
		{
			name: "directory escapes tree",
			spec: types.NewInlinePatch("x").InDirectory("../outside"),
			code: errors.ErrUnsafePath,
		},
		{
			name: "nested directory",
			spec: types.NewInlinePatch("x").InDirectory("src/lib"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetErrorCode(err))
		})
	}
}

func TestIsLocalPath(t *testing.T) {
	assert.True(t, types.IsLocalPath("a/b.diff"))
	assert.True(t, types.IsLocalPath("a/../b.diff"))
	assert.False(t, types.IsLocalPath("a/../../b.diff"))
	assert.False(t, types.IsLocalPath(".."))
	assert.False(t, types.IsLocalPath(""))
	assert.False(t, types.IsLocalPath("/abs"))
}

func TestResourceValidate(t *testing.T) {
	res := types.Resource{Name: "pkg", URL: "https://example.com/pkg.tar.gz"}
	err := res.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	res.LocalPath = "/tmp/pkg.tar.gz"
	assert.NoError(t, res.Validate())

	res.Ref = "v1.0"
	assert.Error(t, res.Validate())
	res.RefKind = types.RefTag
	assert.NoError(t, res.Validate())

	res.Literal = "content"
	assert.Error(t, res.Validate())
}

func TestParseRefKind(t *testing.T) {
	kind, err := types.ParseRefKind("Tag")
	require.NoError(t, err)
	assert.Equal(t, types.RefTag, kind)

	kind, err = types.ParseRefKind("commit")
	require.NoError(t, err)
	assert.Equal(t, types.RefRevision, kind)

	_, err = types.ParseRefKind("bookmark")
	assert.Error(t, err)
}

func TestWorkingTreePath(t *testing.T) {
	tree := &types.WorkingTree{Root: "/work/x", SourceDir: "/work/x/pkg-1.0"}
	assert.Equal(t, "/work/x/pkg-1.0/src/main.c", tree.Path("src", "main.c"))
}
