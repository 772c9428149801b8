package unpack

import (
	"context"
	"os"
	"path/filepath"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/filesystem"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/types"
)

// Uncompressed is the fallback for any regular file no other strategy
// recognised. The file is placed into the destination as-is.
type Uncompressed struct{}

// NewUncompressed returns the plain-file strategy.
func NewUncompressed() *Uncompressed { return &Uncompressed{} }

func (u *Uncompressed) Name() string { return "uncompressed" }

func (u *Uncompressed) Kind() Kind { return KindFile }

func (u *Uncompressed) CanExtract(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (u *Uncompressed) Extract(ctx context.Context, req types.ExtractionRequest) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCancelled, "extraction cancelled")
	}

	target := filepath.Join(req.DestinationPath, filepath.Base(req.SourcePath))
	opts := filesystem.CopyOptions{MergeXattrs: req.MergeExtendedAttributes}

	logger := logging.GetLogger("unpack.uncompressed")
	logger.Debug().
		Str("source", req.SourcePath).
		Str("target", target).
		Bool("move", req.Move).
		Msg("Placing file")

	if req.Move {
		return filesystem.MoveEntry(req.SourcePath, target, opts)
	}
	return filesystem.CopyEntry(req.SourcePath, target, opts)
}
