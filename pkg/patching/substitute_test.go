package patching_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthur-debert/stager/pkg/patching"
)

func TestSubstituter(t *testing.T) {
	s := patching.NewSubstituter("@@HOMEBREW_", "@@", map[string]string{"prefix": "/usr/local", "cellar": "/usr/local/Cellar"})

	assert.Equal(t, "@@HOMEBREW_PREFIX@@", s.Token("prefix"))

	got := s.Apply([]byte("a=@@HOMEBREW_PREFIX@@ b=@@HOMEBREW_CELLAR@@ c=@@HOMEBREW_OTHER@@"), map[string]string{"cellar": "/c"})
	assert.Equal(t, "a=/usr/local b=/c c=@@HOMEBREW_OTHER@@", string(got))

	// values are not rescanned
	got = s.Apply([]byte("@@HOMEBREW_PREFIX@@"), map[string]string{"prefix": "@@HOMEBREW_CELLAR@@"})
	assert.Equal(t, "@@HOMEBREW_CELLAR@@", string(got))

	empty := patching.NewSubstituter("{{", "}}", nil)
	assert.Equal(t, "{{X}}", string(empty.Apply([]byte("{{X}}"), nil)))
}
