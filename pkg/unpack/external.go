package unpack

import (
	"context"
	"os/exec"
	"strings"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/types"
)

// External hands archives this package cannot read itself (7z, rar, xar,
// cpio, lzip) to the first available tool in Tools. Each tool is invoked
// tar-style: `tool -xf SOURCE -C DEST`.
type External struct {
	Tools []string
}

// NewExternal returns the external-archiver strategy.
func NewExternal(tools []string) *External {
	return &External{Tools: tools}
}

func (e *External) Name() string { return "external" }

func (e *External) Kind() Kind { return KindArchive }

func (e *External) CanExtract(path string) bool {
	switch sniffFile(path) {
	case format7z, formatRar, formatXar, formatCpio, formatLzip:
		return true
	default:
		return false
	}
}

func (e *External) Extract(ctx context.Context, req types.ExtractionRequest) error {
	logger := logging.GetLogger("unpack.external")

	tool, err := e.findTool()
	if err != nil {
		return err
	}

	flags := "-xf"
	if req.Verbose {
		flags = "-xvf"
	}
	args := []string{flags, req.SourcePath, "-C", req.DestinationPath}
	logging.LogCommand(logger, tool, args)

	cmd := exec.CommandContext(ctx, tool, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), errors.ErrCancelled, "extraction cancelled")
		}
		return errors.Wrapf(err, errors.ErrFileSystem, "%s failed to extract %s", tool, req.SourcePath).
			WithDetail("tool", tool).
			WithDetail("output", strings.TrimSpace(string(output)))
	}
	if req.Verbose && len(output) > 0 {
		logger.Info().Str("tool", tool).Msg(strings.TrimSpace(string(output)))
	}
	return nil
}

func (e *External) findTool() (string, error) {
	for _, name := range e.Tools {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.Newf(errors.ErrUnsupportedSource, "none of the archivers %v is installed", e.Tools).
		WithDetail("tools", e.Tools)
}
