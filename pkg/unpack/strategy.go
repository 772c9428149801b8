package unpack

import (
	"context"

	"github.com/arthur-debert/stager/pkg/types"
)

// Kind classifies what a strategy produces.
type Kind int

const (
	// KindDirectory copies or moves an existing directory.
	KindDirectory Kind = iota
	// KindVCS is a version-control checkout.
	KindVCS
	// KindArchive unpacks a multi-member archive.
	KindArchive
	// KindFile materializes exactly one file.
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindVCS:
		return "vcs"
	case KindArchive:
		return "archive"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Strategy extracts one family of source formats.
type Strategy interface {
	// Name identifies the strategy in the registry and in logs.
	Name() string
	Kind() Kind
	// CanExtract reports whether path is in this strategy's format.
	CanExtract(path string) bool
	// Extract populates req.DestinationPath from req.SourcePath.
	Extract(ctx context.Context, req types.ExtractionRequest) error
}
