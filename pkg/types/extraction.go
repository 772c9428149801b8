package types

import (
	"fmt"
	"strings"
)

// RefKind names which kind of version-control reference Ref holds.
type RefKind string

const (
	RefNone     RefKind = ""
	RefBranch   RefKind = "branch"
	RefTag      RefKind = "tag"
	RefRevision RefKind = "revision"
)

// ParseRefKind accepts the names used in package definitions.
func ParseRefKind(s string) (RefKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return RefNone, nil
	case "branch":
		return RefBranch, nil
	case "tag":
		return RefTag, nil
	case "revision", "commit":
		return RefRevision, nil
	default:
		return RefNone, fmt.Errorf("unknown ref kind %q", s)
	}
}

// ExtractionRequest describes one extraction of SourcePath into
// DestinationPath. DestinationPath must exist and be empty or compatible.
type ExtractionRequest struct {
	SourcePath      string
	DestinationPath string

	RefKind RefKind
	Ref     string

	MergeExtendedAttributes bool
	Move                    bool
	Verbose                 bool
}
