package staging

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/arthur-debert/stager/pkg/config"
	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/fetch"
	"github.com/arthur-debert/stager/pkg/filesystem"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/patching"
	"github.com/arthur-debert/stager/pkg/types"
	"github.com/arthur-debert/stager/pkg/unpack"
)

// Options tunes a Stager.
type Options struct {
	// WorkRoot is the directory working trees are created in.
	WorkRoot string
	// Move relocates the contents of a directory resource into the tree
	// instead of copying them.
	Move bool
	// MergeExtendedAttributes is forwarded to the extraction strategy.
	MergeExtendedAttributes bool
	// Verbose is forwarded to the extraction strategy.
	Verbose bool
}

// Stager stages resources.
type Stager struct {
	strategies *unpack.Registry
	resolver   *patching.Resolver
	engine     *patching.Engine
	opts       Options
}

// New returns a Stager extracting with strategies, resolving patches
// through f and s, and applying them with p.
func New(strategies *unpack.Registry, f fetch.Fetcher, p patching.Primitive, s *patching.Substituter, opts Options) *Stager {
	return &Stager{
		strategies: strategies,
		resolver:   patching.NewResolver(f, strategies, s),
		engine:     patching.NewEngine(p),
		opts:       opts,
	}
}

// NewFromConfig wires a Stager from cfg.
func NewFromConfig(cfg *config.Config, f fetch.Fetcher) (*Stager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := Primitive(cfg.Patch)
	if err != nil {
		return nil, err
	}

	strategies := unpack.DefaultRegistry(unpack.Options{ExternalTools: cfg.Extract.ExternalTools})
	sub := patching.NewSubstituter(cfg.Substitution.TokenPrefix, cfg.Substitution.TokenSuffix, cfg.Substitution.Variables)
	return New(strategies, f, p, sub, Options{
		WorkRoot:                cfg.Staging.WorkRoot,
		Move:                    cfg.Extract.Move,
		MergeExtendedAttributes: cfg.Extract.MergeExtendedAttributes,
		Verbose:                 cfg.Extract.Verbose,
	}), nil
}

// Primitive returns the patch primitive named by cfg.Tool.
func Primitive(cfg config.Patch) (patching.Primitive, error) {
	switch cfg.Tool {
	case config.ToolBuiltin:
		return patching.NewBuiltinPrimitive(), nil
	case config.ToolCommand:
		return patching.NewCommandPrimitive(cfg.Command, cfg.Fuzz), nil
	default:
		return nil, errors.Newf(errors.ErrConfigValid, "unknown patch tool %q", cfg.Tool).
			WithDetail("key", "patch.tool")
	}
}

// StageResource stages res with the patches it declares.
func (s *Stager) StageResource(ctx context.Context, res types.Resource, variables map[string]string) (*types.WorkingTree, error) {
	return s.Stage(ctx, res, res.Patches, variables)
}

// Stage extracts res into a new working tree and applies specs in order.
// variables override the configured substitution values for this call.
//
// Once the tree exists it is returned with any error, in whatever state the
// failing step left it. Nothing is rolled back or removed.
func (s *Stager) Stage(ctx context.Context, res types.Resource, specs []types.PatchSpec, variables map[string]string) (tree *types.WorkingTree, err error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, annotate(err, i)
		}
	}

	tree, err = s.createTree(res.Name)
	if err != nil {
		return nil, err
	}
	logger := logging.GetLogger("staging").With().
		Str("stage_id", tree.ID).
		Str("resource", res.Name).
		Logger()
	done := logging.LogOperationStart(logger, "stage")
	defer done()

	defer func() {
		if err != nil {
			logger.Warn().Err(err).Str("tree", tree.Root).Msg("Stage failed, working tree left in place")
		}
	}()

	strategy, err := s.strategies.Extract(ctx, types.ExtractionRequest{
		SourcePath:              res.LocalPath,
		DestinationPath:         tree.Root,
		RefKind:                 res.RefKind,
		Ref:                     res.Ref,
		Move:                    s.opts.Move,
		MergeExtendedAttributes: s.opts.MergeExtendedAttributes,
		Verbose:                 s.opts.Verbose,
	})
	if err != nil {
		return tree, err
	}

	tree.SourceDir, err = filesystem.DescendSingleDir(filesystem.NewOS(), tree.Root)
	if err != nil {
		return tree, err
	}
	logger.Info().
		Str("strategy", strategy.Name()).
		Str("source_dir", tree.SourceDir).
		Msg("Extracted resource")

	for i, spec := range specs {
		if err = ctx.Err(); err != nil {
			return tree, errors.Wrap(err, errors.ErrCancelled, "staging cancelled").WithDetail("spec", i)
		}

		bodies, err := s.resolver.Resolve(ctx, spec, variables)
		if err != nil {
			return tree, annotate(err, i)
		}
		if err := s.engine.Apply(ctx, tree, bodies); err != nil {
			return tree, annotate(err, i)
		}
		logger.Info().Str("patch", spec.String()).Int("spec", i).Int("bodies", len(bodies)).Msg("Applied patch")
	}

	return tree, nil
}

func (s *Stager) createTree(name string) (*types.WorkingTree, error) {
	if s.opts.WorkRoot == "" {
		return nil, errors.New(errors.ErrInvalidInput, "no work root configured")
	}
	if err := os.MkdirAll(s.opts.WorkRoot, 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot create work root %s", s.opts.WorkRoot)
	}

	id := uuid.NewString()
	root := filepath.Join(s.opts.WorkRoot, treeName(name)+"-"+id)
	if err := os.Mkdir(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot create working tree %s", root)
	}
	return &types.WorkingTree{ID: id, Root: root, SourceDir: root}, nil
}

func treeName(name string) string {
	base := filepath.Base(name)
	if name == "" || !types.IsLocalPath(base) || base == "." {
		return "resource"
	}
	return base
}

// annotate records which spec failed without changing the error's code.
func annotate(err error, spec int) error {
	var se *errors.StagerError
	if stderrors.As(err, &se) {
		se.WithDetail("spec", spec)
		return err
	}
	return errors.Wrap(err, errors.ErrInternal, "unexpected failure").WithDetail("spec", spec)
}
