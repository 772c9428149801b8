package types

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arthur-debert/stager/pkg/errors"
)

// StripLevel is the number of leading path components removed from file
// names inside a patch before they are matched against the tree.
type StripLevel int

const (
	P0 StripLevel = 0
	P1 StripLevel = 1
	P2 StripLevel = 2
)

// DefaultStrip is the conventional -p1.
const DefaultStrip = P1

func (s StripLevel) String() string {
	return "p" + strconv.Itoa(int(s))
}

// Flag renders the level the way the patch tool expects it.
func (s StripLevel) Flag() string {
	return "-p" + strconv.Itoa(int(s))
}

// ParseStripLevel accepts "p1", ":p1", "-p1" and "1".
func ParseStripLevel(s string) (StripLevel, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, ":")
	trimmed = strings.TrimPrefix(trimmed, "-")
	trimmed = strings.TrimPrefix(strings.ToLower(trimmed), "p")
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 0 {
		return 0, errors.Newf(errors.ErrInvalidInput, "invalid strip level %q", s)
	}
	return StripLevel(n), nil
}

// PatchOrigin is where a patch's content comes from. It is closed to
// InlineOrigin and FetchedOrigin.
type PatchOrigin interface {
	isPatchOrigin()
	Describe() string
}

// InlineOrigin carries the patch text directly.
type InlineOrigin struct {
	Text string
}

func (InlineOrigin) isPatchOrigin() {}

func (InlineOrigin) Describe() string { return "inline" }

// FetchedOrigin points at content the fetch collaborator downloads: either a
// single patch file or a patch archive.
type FetchedOrigin struct {
	URL      string
	Checksum string
}

func (FetchedOrigin) isPatchOrigin() {}

func (o FetchedOrigin) Describe() string { return o.URL }

// PatchSpec declares one patch. Build it with NewInlinePatch or
// NewFetchedPatch so Strip starts at DefaultStrip.
type PatchSpec struct {
	Strip  StripLevel
	Origin PatchOrigin

	// Apply lists archive members to apply, in order. Only valid for a
	// fetched patch archive.
	Apply []string

	// Directory, when set, is the subdirectory of the source tree the
	// patch applies in.
	Directory string
}

// NewInlinePatch returns a -p1 patch with literal content.
func NewInlinePatch(text string) PatchSpec {
	return PatchSpec{Strip: DefaultStrip, Origin: InlineOrigin{Text: text}}
}

// NewFetchedPatch returns a -p1 patch downloaded from url.
func NewFetchedPatch(url, checksum string, apply ...string) PatchSpec {
	return PatchSpec{
		Strip:  DefaultStrip,
		Origin: FetchedOrigin{URL: url, Checksum: checksum},
		Apply:  apply,
	}
}

// WithStrip returns a copy using strip level s.
func (p PatchSpec) WithStrip(s StripLevel) PatchSpec {
	p.Strip = s
	return p
}

// InDirectory returns a copy applying inside dir.
func (p PatchSpec) InDirectory(dir string) PatchSpec {
	p.Directory = dir
	return p
}

func (p PatchSpec) String() string {
	desc := "<nil>"
	if p.Origin != nil {
		desc = p.Origin.Describe()
	}
	if len(p.Apply) > 0 {
		return fmt.Sprintf("%s patch %s apply=%v", p.Strip, desc, p.Apply)
	}
	return fmt.Sprintf("%s patch %s", p.Strip, desc)
}

// Validate checks the rules that hold regardless of fetched content.
// Archive-dependent rules are enforced by the resolver.
func (p PatchSpec) Validate() error {
	if p.Strip < 0 {
		return errors.Newf(errors.ErrInvalidInput, "negative strip level %d", int(p.Strip))
	}
	switch o := p.Origin.(type) {
	case InlineOrigin:
		if len(p.Apply) > 0 {
			return errors.New(errors.ErrInvalidApplyList, "apply list given for an inline patch").
				WithDetail("apply", p.Apply)
		}
	case FetchedOrigin:
		if o.URL == "" {
			return errors.New(errors.ErrInvalidInput, "fetched patch has no url")
		}
	case nil:
		return errors.New(errors.ErrInvalidInput, "patch has no origin")
	default:
		return errors.Newf(errors.ErrInternal, "unknown patch origin %T", o)
	}
	for _, member := range p.Apply {
		if !IsLocalPath(member) {
			return errors.Newf(errors.ErrInvalidApplyList, "apply entry %q is not a relative path inside the archive", member).
				WithDetail("entry", member)
		}
	}
	if p.Directory != "" && !IsLocalPath(p.Directory) {
		return errors.Newf(errors.ErrUnsafePath, "patch directory %q escapes the source tree", p.Directory).
			WithDetail("directory", p.Directory)
	}
	return nil
}

// IsLocalPath reports whether name is a non-empty relative path that stays
// below its base once cleaned.
func IsLocalPath(name string) bool {
	if name == "" || strings.ContainsRune(name, 0) {
		return false
	}
	slashed := filepath.ToSlash(name)
	if path.IsAbs(slashed) || filepath.IsAbs(name) {
		return false
	}
	clean := path.Clean(slashed)
	return clean != ".." && !strings.HasPrefix(clean, "../")
}

// ResolvedPatchBody is one concrete patch application handed to the engine.
type ResolvedPatchBody struct {
	Content   []byte
	Strip     StripLevel
	Position  int
	Name      string
	Directory string
}
