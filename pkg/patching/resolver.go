package patching

import (
	"context"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/fetch"
	"github.com/arthur-debert/stager/pkg/filesystem"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/types"
	"github.com/arthur-debert/stager/pkg/unpack"
)

// InlineName is the body name given to inline patches.
const InlineName = "inline"

// Resolver turns patch specs into concrete bodies.
type Resolver struct {
	fetcher     fetch.Fetcher
	strategies  *unpack.Registry
	substituter *Substituter

	// ScratchDir holds temporary extractions of fetched patches. Empty
	// means the system temp directory.
	ScratchDir string
}

// NewResolver returns a Resolver fetching through f, extracting with
// strategies and substituting with s.
func NewResolver(f fetch.Fetcher, strategies *unpack.Registry, s *Substituter) *Resolver {
	return &Resolver{fetcher: f, strategies: strategies, substituter: s}
}

// Resolve returns the bodies for spec in application order. variables
// override the substituter's defaults.
func (r *Resolver) Resolve(ctx context.Context, spec types.PatchSpec, variables map[string]string) ([]types.ResolvedPatchBody, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var bodies []types.ResolvedPatchBody
	var err error
	switch origin := spec.Origin.(type) {
	case types.InlineOrigin:
		bodies = []types.ResolvedPatchBody{{
			Content: []byte(origin.Text),
			Name:    InlineName,
		}}
	case types.FetchedOrigin:
		bodies, err = r.resolveFetched(ctx, spec, origin)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Newf(errors.ErrInternal, "unknown patch origin %T", origin)
	}

	for i := range bodies {
		bodies[i].Strip = spec.Strip
		bodies[i].Position = i
		bodies[i].Directory = spec.Directory
		if r.substituter != nil {
			bodies[i].Content = r.substituter.Apply(bodies[i].Content, variables)
		}
	}

	logger := logging.GetLogger("patching.resolver")
	logger.Debug().
		Str("patch", spec.String()).
		Int("bodies", len(bodies)).
		Msg("Resolved patch")
	return bodies, nil
}

func (r *Resolver) resolveFetched(ctx context.Context, spec types.PatchSpec, origin types.FetchedOrigin) ([]types.ResolvedPatchBody, error) {
	logger := logging.GetLogger("patching.resolver")

	localPath, err := fetch.Require(ctx, r.fetcher, origin.URL, origin.Checksum)
	if err != nil {
		return nil, err
	}

	strategy, err := r.strategies.Select(localPath)
	if err != nil {
		return nil, err
	}

	single := strategy.Kind() == unpack.KindFile
	switch {
	case single && len(spec.Apply) > 0:
		return nil, errors.Newf(errors.ErrInvalidApplyList, "apply list given for single patch file %s", origin.URL).
			WithDetail("url", origin.URL).
			WithDetail("apply", spec.Apply)
	case !single && len(spec.Apply) == 0:
		return nil, errors.Newf(errors.ErrMissingApply, "patch archive %s needs an apply list", origin.URL).
			WithDetail("url", origin.URL)
	}

	tmp, err := os.MkdirTemp(r.ScratchDir, "stager-patch-*")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileSystem, "cannot create scratch directory")
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			logger.Warn().Err(err).Str("dir", tmp).Msg("Failed to remove scratch directory")
		}
	}()

	err = strategy.Extract(ctx, types.ExtractionRequest{SourcePath: localPath, DestinationPath: tmp})
	if err != nil {
		return nil, errors.Passthrough(err, errors.ErrFileSystem, "cannot extract patch")
	}

	fsys := filesystem.NewAferoFS(afero.NewBasePathFs(afero.NewOsFs(), tmp))
	if single {
		return readSingle(fsys, origin.URL)
	}
	return readMembers(fsys, spec.Apply)
}

// readSingle returns the one file a single-file strategy produced.
func readSingle(fsys filesystem.FS, rawURL string) ([]types.ResolvedPatchBody, error) {
	entries, err := fsys.ReadDir("/")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileSystem, "cannot list extracted patch")
	}
	if len(entries) != 1 || !entries[0].Type().IsRegular() {
		return nil, errors.Newf(errors.ErrInternal, "expected one patch file from %s, found %d entries", rawURL, len(entries))
	}

	content, err := fsys.ReadFile("/" + entries[0].Name())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileSystem, "cannot read extracted patch")
	}
	return []types.ResolvedPatchBody{{Content: content, Name: patchName(rawURL)}}, nil
}

// readMembers looks up each apply entry below the archive's single
// top-level directory, keeping order and duplicates.
func readMembers(fsys filesystem.FS, apply []string) ([]types.ResolvedPatchBody, error) {
	root, err := filesystem.DescendSingleDir(fsys, "/")
	if err != nil {
		return nil, err
	}

	bodies := make([]types.ResolvedPatchBody, 0, len(apply))
	for _, entry := range apply {
		member := path.Join(filepath.ToSlash(root), entry)

		info, err := fsys.Lstat(member)
		if err != nil || !info.Mode().IsRegular() {
			return nil, memberNotFound(entry, err)
		}
		content, err := fsys.ReadFile(member)
		if err != nil {
			return nil, memberNotFound(entry, err)
		}
		bodies = append(bodies, types.ResolvedPatchBody{Content: content, Name: entry})
	}
	return bodies, nil
}

func memberNotFound(entry string, cause error) error {
	if cause == nil {
		cause = fs.ErrNotExist
	}
	return errors.Wrapf(cause, errors.ErrPatchMemberNotFound, "patch archive has no file %s", entry).
		WithDetail("entry", entry)
}

func patchName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return filepath.Base(rawURL)
}
