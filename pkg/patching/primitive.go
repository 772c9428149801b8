package patching

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/arthur-debert/stager/pkg/types"
)

// ErrRejected marks a patch that cleanly failed to apply: a hunk did not
// match, a target file was missing, or the input was not a patch. Any other
// error from a Primitive is an I/O failure.
var ErrRejected = stderrors.New("patch rejected")

// Primitive applies one patch text to the tree rooted at rootDir, with
// strip leading path components removed from every file name.
type Primitive interface {
	Apply(ctx context.Context, content []byte, strip types.StripLevel, rootDir string) error
}

func rejectf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}
