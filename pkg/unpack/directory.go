package unpack

import (
	"context"
	"os"

	"github.com/arthur-debert/stager/pkg/filesystem"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/types"
)

// Directory stages a directory by copying or moving its children.
type Directory struct{}

// NewDirectory returns the directory strategy.
func NewDirectory() *Directory { return &Directory{} }

func (d *Directory) Name() string { return "directory" }

func (d *Directory) Kind() Kind { return KindDirectory }

// CanExtract accepts any directory, following symlinks.
func (d *Directory) CanExtract(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Extract copies the children of the source into the destination, or
// moves them when req.Move is set. See filesystem.CopyTree and
// filesystem.MoveTree for the conflict rules.
func (d *Directory) Extract(ctx context.Context, req types.ExtractionRequest) error {
	return extractDirectory(ctx, d.Name(), req)
}

func extractDirectory(ctx context.Context, name string, req types.ExtractionRequest) error {
	logger := logging.GetLogger("unpack." + name)
	opts := filesystem.CopyOptions{MergeXattrs: req.MergeExtendedAttributes}

	event := logger.Debug()
	if req.Verbose {
		event = logger.Info()
	}
	event.Str("source", req.SourcePath).
		Str("destination", req.DestinationPath).
		Bool("move", req.Move).
		Msg("Staging directory")

	if req.Move {
		return filesystem.MoveTree(ctx, req.SourcePath, req.DestinationPath, opts)
	}
	return filesystem.CopyTree(ctx, req.SourcePath, req.DestinationPath, opts)
}
