package patching

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/types"
)

// Engine applies resolved patch bodies to a working tree.
type Engine struct {
	primitive Primitive
}

// NewEngine returns an Engine applying through p.
func NewEngine(p Primitive) *Engine {
	return &Engine{primitive: p}
}

// Apply runs every body in order against the tree's source directory,
// joined with the body's Directory when set. It stops at the first failure
// and leaves earlier changes in place. A clean rejection is reported as
// ErrPatchApply with the strip level, position and name of the body; there
// is no retry at another strip level. Cancellation is only observed
// between bodies.
func (e *Engine) Apply(ctx context.Context, tree *types.WorkingTree, bodies []types.ResolvedPatchBody) error {
	logger := logging.GetLogger("patching.engine")

	for _, body := range bodies {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrCancelled, "patching cancelled").
				WithDetail("position", body.Position)
		}

		dir, err := bodyDir(tree, body)
		if err != nil {
			return err
		}

		done := logging.LogOperationStart(logger.With().
			Str("patch", body.Name).
			Int("position", body.Position).
			Str("strip", body.Strip.String()).
			Logger(), "apply patch")
		err = e.primitive.Apply(ctx, body.Content, body.Strip, dir)
		done()

		if err == nil {
			continue
		}
		details := map[string]interface{}{
			"strip":    body.Strip.String(),
			"position": body.Position,
			"name":     body.Name,
		}
		if stderrors.Is(err, ErrRejected) {
			return errors.Wrapf(err, errors.ErrPatchApply, "patch %s failed to apply with %s", body.Name, body.Strip.Flag()).
				WithDetails(details)
		}
		return errors.Wrapf(err, errors.ErrFileSystem, "patch %s could not be applied", body.Name).
			WithDetails(details)
	}
	return nil
}

func bodyDir(tree *types.WorkingTree, body types.ResolvedPatchBody) (string, error) {
	if body.Directory == "" {
		return tree.SourceDir, nil
	}
	if !types.IsLocalPath(body.Directory) {
		return "", errors.Newf(errors.ErrUnsafePath, "patch directory %q escapes the source tree", body.Directory).
			WithDetail("directory", body.Directory)
	}

	dir := filepath.Join(tree.SourceDir, filepath.FromSlash(body.Directory))
	info, err := os.Stat(dir)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileSystem, "patch directory %s is not accessible", body.Directory).
			WithDetail("directory", body.Directory)
	}
	if !info.IsDir() {
		return "", errors.Newf(errors.ErrFileSystem, "patch directory %s is not a directory", body.Directory).
			WithDetail("directory", body.Directory)
	}
	return dir, nil
}
