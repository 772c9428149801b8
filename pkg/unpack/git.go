package unpack

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/types"
)

// Git stages a local git checkout. The working copy is copied (or moved)
// like a plain directory, then the requested branch, tag or revision is
// checked out in the destination. The source repository is never touched.
type Git struct{}

// NewGit returns the git strategy.
func NewGit() *Git { return &Git{} }

func (g *Git) Name() string { return "git" }

func (g *Git) Kind() Kind { return KindVCS }

func (g *Git) CanExtract(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}

func (g *Git) Extract(ctx context.Context, req types.ExtractionRequest) error {
	if err := extractDirectory(ctx, g.Name(), req); err != nil {
		return err
	}
	if req.RefKind == types.RefNone || req.Ref == "" {
		return nil
	}
	return checkoutRef(req.DestinationPath, req.RefKind, req.Ref)
}

func checkoutRef(dir string, kind types.RefKind, ref string) error {
	logger := logging.GetLogger("unpack.git")

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot open repository %s", dir)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot open worktree %s", dir)
	}

	opts := &git.CheckoutOptions{Force: true}
	switch kind {
	case types.RefBranch:
		// stay on the branch when it exists locally
		branch := plumbing.NewBranchReferenceName(ref)
		if _, err := repo.Reference(branch, true); err == nil {
			opts.Branch = branch
			break
		}
		hash, err := resolveCommit(repo, "refs/remotes/origin/"+ref)
		if err != nil {
			return refNotFound(kind, ref, err)
		}
		opts.Hash = hash
	case types.RefTag:
		hash, err := resolveCommit(repo, plumbing.NewTagReferenceName(ref).String())
		if err != nil {
			return refNotFound(kind, ref, err)
		}
		opts.Hash = hash
	case types.RefRevision:
		hash, err := resolveCommit(repo, ref)
		if err != nil {
			return refNotFound(kind, ref, err)
		}
		opts.Hash = hash
	default:
		return errors.Newf(errors.ErrInvalidInput, "unknown ref kind %q", kind)
	}

	if err := worktree.Checkout(opts); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot check out %s %s", kind, ref).
			WithDetail("ref", ref)
	}

	logger.Debug().Str("kind", string(kind)).Str("ref", ref).Str("dir", dir).Msg("Checked out ref")
	return nil
}

// resolveCommit resolves rev to a commit hash. Annotated tags are peeled
// to their commit.
func resolveCommit(repo *git.Repository, rev string) (plumbing.Hash, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return *hash, nil
}

func refNotFound(kind types.RefKind, ref string, cause error) error {
	return errors.Wrapf(cause, errors.ErrNotFound, "%s %q not found", kind, ref).
		WithDetail("ref", ref)
}
