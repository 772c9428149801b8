package unpack

import (
	"context"
	"os"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/registry"
	"github.com/arthur-debert/stager/pkg/types"
)

// Registry is an ordered set of strategies. Registration order is probe
// order.
type Registry struct {
	strategies registry.Registry[Strategy]
}

// Options configures the strategies of DefaultRegistry.
type Options struct {
	// ExternalTools are tried in order by the external strategy.
	ExternalTools []string
}

// DefaultExternalTools is used when Options.ExternalTools is empty.
var DefaultExternalTools = []string{"bsdtar", "tar"}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: registry.New[Strategy]()}
}

// DefaultRegistry returns the built-in strategies in priority order.
func DefaultRegistry(opts Options) *Registry {
	tools := opts.ExternalTools
	if len(tools) == 0 {
		tools = DefaultExternalTools
	}

	r := NewRegistry()
	for _, s := range []Strategy{
		NewGit(),
		NewDirectory(),
		NewZip(),
		NewTar(),
		NewCompressed(),
		NewExternal(tools),
		NewUncompressed(),
	} {
		registry.MustRegister(r.strategies, s.Name(), s)
	}
	return r
}

// Register appends s at the lowest priority.
func (r *Registry) Register(s Strategy) error {
	return r.strategies.Register(s.Name(), s)
}

// Get returns the strategy registered under name.
func (r *Registry) Get(name string) (Strategy, error) {
	return r.strategies.Get(name)
}

// Strategies returns the registered strategies in priority order.
func (r *Registry) Strategies() []Strategy {
	return r.strategies.Ordered()
}

// Select returns the first strategy that accepts path.
func (r *Registry) Select(path string) (Strategy, error) {
	logger := logging.GetLogger("unpack.registry")

	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot read source %s", path).
			WithDetail("source", path)
	}

	for _, s := range r.strategies.Ordered() {
		if s.CanExtract(path) {
			logger.Debug().Str("source", path).Str("strategy", s.Name()).Msg("Selected extraction strategy")
			return s, nil
		}
	}

	return nil, errors.Newf(errors.ErrUnsupportedSource, "no extraction strategy accepts %s", path).
		WithDetail("source", path)
}

// Extract selects a strategy for req.SourcePath and runs it.
func (r *Registry) Extract(ctx context.Context, req types.ExtractionRequest) (Strategy, error) {
	s, err := r.Select(req.SourcePath)
	if err != nil {
		return nil, err
	}
	if err := checkDestination(req.DestinationPath); err != nil {
		return nil, err
	}

	logger := logging.GetLogger("unpack." + s.Name())
	done := logging.LogOperationStart(logger, "extract")
	defer done()

	if err := s.Extract(ctx, req); err != nil {
		return s, errors.Passthrough(err, errors.ErrFileSystem, "extraction failed")
	}
	return s, nil
}

func checkDestination(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "destination %s is not accessible", path).
			WithDetail("destination", path)
	}
	if !info.IsDir() {
		return errors.Newf(errors.ErrInvalidInput, "destination %s is not a directory", path).
			WithDetail("destination", path)
	}
	return nil
}
