package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/types"
)

// Result describes fetched content.
type Result struct {
	LocalPath string
	// VerifiedChecksumOK is true only when the content matched the expected
	// checksum, or when no checksum was required.
	VerifiedChecksumOK bool
}

// Fetcher retrieves content addressed by url. Implementations must not keep
// mutable state between calls.
type Fetcher interface {
	Fetch(ctx context.Context, url, checksum string) (Result, error)
}

// LocalFetcher resolves file:// URLs and plain paths on the local disk.
type LocalFetcher struct {
	// BaseDir anchors relative paths. Empty means the working directory.
	BaseDir string
	// AllowUnverified accepts content fetched without a checksum.
	AllowUnverified bool
}

// NewLocalFetcher returns a LocalFetcher rooted at baseDir.
func NewLocalFetcher(baseDir string) *LocalFetcher {
	return &LocalFetcher{BaseDir: baseDir}
}

func (f *LocalFetcher) Fetch(ctx context.Context, rawURL, checksum string) (Result, error) {
	logger := logging.GetLogger("fetch.local")

	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrap(err, errors.ErrCancelled, "fetch cancelled")
	}

	path, err := f.localPath(rawURL)
	if err != nil {
		return Result{}, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Result{}, errors.Newf(errors.ErrNotFound, "%s does not exist", path).
			WithDetail("url", rawURL)
	}
	if err != nil {
		return Result{}, errors.Wrapf(err, errors.ErrFileSystem, "cannot read %s", path)
	}

	result := Result{LocalPath: path}
	if checksum == "" {
		result.VerifiedChecksumOK = f.AllowUnverified
		logger.Debug().Str("path", path).Bool("verified", result.VerifiedChecksumOK).Msg("Fetched without checksum")
		return result, nil
	}
	if info.IsDir() {
		return Result{}, errors.Newf(errors.ErrChecksum, "cannot verify a checksum for directory %s", path).
			WithDetail("url", rawURL)
	}

	actual, err := FileChecksum(path)
	if err != nil {
		return Result{}, err
	}
	expected := NormalizeChecksum(checksum)
	if actual != expected {
		return Result{}, errors.Newf(errors.ErrChecksum, "checksum mismatch for %s", path).
			WithDetail("url", rawURL).
			WithDetail("expected", expected).
			WithDetail("actual", actual)
	}

	result.VerifiedChecksumOK = true
	logger.Debug().Str("path", path).Msg("Fetched and verified")
	return result, nil
}

func (f *LocalFetcher) localPath(rawURL string) (string, error) {
	path := rawURL
	if strings.Contains(rawURL, "://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrInvalidInput, "invalid url %q", rawURL)
		}
		if u.Scheme != "file" {
			return "", errors.Newf(errors.ErrUnsupportedSource, "scheme %q is not served by the local fetcher", u.Scheme).
				WithDetail("url", rawURL)
		}
		path = u.Path
	}
	if path == "" {
		return "", errors.Newf(errors.ErrInvalidInput, "empty path in %q", rawURL)
	}
	if !filepath.IsAbs(path) && f.BaseDir != "" {
		path = filepath.Join(f.BaseDir, path)
	}
	return filepath.Clean(path), nil
}

// NormalizeChecksum lower-cases a hex sha256 and drops a "sha256:" prefix.
func NormalizeChecksum(checksum string) string {
	c := strings.ToLower(strings.TrimSpace(checksum))
	return strings.TrimPrefix(c, "sha256:")
}

// FileChecksum returns the hex sha256 of the file at path.
func FileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileSystem, "cannot open %s", path)
	}
	defer func() { _ = file.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileSystem, "cannot read %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Require fetches rawURL and refuses content whose checksum was not verified.
func Require(ctx context.Context, f Fetcher, rawURL, checksum string) (string, error) {
	result, err := f.Fetch(ctx, rawURL, checksum)
	if err != nil {
		return "", errors.Passthrough(err, errors.ErrFileSystem, "fetch failed")
	}
	if !result.VerifiedChecksumOK {
		return "", errors.Newf(errors.ErrChecksum, "checksum of %s was not verified", rawURL).
			WithDetail("url", rawURL)
	}
	return result.LocalPath, nil
}

// Resource makes res available locally. Resources already fetched are
// returned unchanged; literal resources are written to scratchDir.
func Resource(ctx context.Context, f Fetcher, res types.Resource, scratchDir string) (types.Resource, error) {
	switch {
	case res.Fetched():
		return res, nil
	case res.Literal != "":
		name := res.Name
		if name == "" || !types.IsLocalPath(name) {
			name = "resource"
		}
		path := filepath.Join(scratchDir, filepath.Base(name))
		if err := os.WriteFile(path, []byte(res.Literal), 0o644); err != nil {
			return res, errors.Wrapf(err, errors.ErrFileSystem, "cannot write literal resource %s", path)
		}
		res.LocalPath = path
		return res, nil
	case res.URL != "":
		path, err := Require(ctx, f, res.URL, res.Checksum)
		if err != nil {
			return res, err
		}
		res.LocalPath = path
		return res, nil
	default:
		return res, errors.Newf(errors.ErrInvalidInput, "resource %q has no url or literal content", res.Name).
			WithDetail("resource", res.Name)
	}
}
