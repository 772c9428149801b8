package patching

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/spf13/afero"

	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/types"
)

var gitHeader = regexp.MustCompile(`(?m)^diff --git `)

// BuiltinPrimitive applies unified and git diffs without an external tool.
// Every file section is applied in memory first; the tree is only written
// once the whole patch applied, so a rejected patch changes nothing.
type BuiltinPrimitive struct {
	// Fs is the filesystem rootDir is resolved on. Defaults to the OS.
	Fs afero.Fs
}

// NewBuiltinPrimitive returns a BuiltinPrimitive over the OS filesystem.
func NewBuiltinPrimitive() *BuiltinPrimitive {
	return &BuiltinPrimitive{Fs: afero.NewOsFs()}
}

// pending is the in-memory state of one file while a patch is applied.
type pending struct {
	content []byte
	mode    fs.FileMode
	deleted bool
}

type overlay struct {
	fsys  afero.Fs
	files map[string]*pending
	order []string
}

func (b *BuiltinPrimitive) Apply(ctx context.Context, content []byte, strip types.StripLevel, rootDir string) error {
	logger := logging.GetLogger("patching.builtin")

	base := b.Fs
	if base == nil {
		base = afero.NewOsFs()
	}
	ov := &overlay{
		fsys:  afero.NewBasePathFs(base, rootDir),
		files: make(map[string]*pending),
	}

	files, _, err := gitdiff.Parse(bytes.NewReader(content))
	if err != nil {
		return rejectf("malformed patch: %v", err)
	}
	if len(files) == 0 {
		return rejectf("no file sections found")
	}
	isGit := gitHeader.Match(content)

	for _, f := range files {
		if err := ov.apply(f, strip, isGit); err != nil {
			return err
		}
	}

	if err := ov.flush(); err != nil {
		return err
	}
	logger.Debug().Str("dir", rootDir).Int("files", len(ov.order)).Str("strip", strip.String()).Msg("Applied patch")
	return nil
}

func (ov *overlay) apply(f *gitdiff.File, strip types.StripLevel, isGit bool) error {
	if f.IsBinary {
		return rejectf("binary patch for %s is not supported", displayName(f))
	}

	oldName, newName := stripName(f.OldName, strip, isGit, "a/"), stripName(f.NewName, strip, isGit, "b/")

	var source, target string
	switch {
	case f.IsNew:
		if newName == "" {
			return rejectf("cannot strip %s from %s", strip.Flag(), f.NewName)
		}
		if _, exists, err := ov.lookup(newName); err != nil {
			return err
		} else if exists {
			return rejectf("%s already exists", newName)
		}
		target = newName
	case f.IsRename || f.IsCopy:
		if oldName == "" || newName == "" {
			return rejectf("cannot strip %s from %s", strip.Flag(), displayName(f))
		}
		source, target = oldName, newName
	default:
		found := ""
		for _, candidate := range []string{oldName, newName} {
			if candidate == "" {
				continue
			}
			if _, exists, err := ov.lookup(candidate); err != nil {
				return err
			} else if exists {
				found = candidate
				break
			}
		}
		if found == "" {
			return rejectf("can't find file to patch at %s with %s", displayName(f), strip.Flag())
		}
		source, target = found, found
	}

	var src []byte
	mode := fs.FileMode(0o644)
	if source != "" {
		p, exists, err := ov.lookup(source)
		if err != nil {
			return err
		}
		if !exists {
			return rejectf("can't find file to patch at %s", source)
		}
		src, mode = p.content, p.mode
	}
	if f.NewMode != 0 {
		mode = f.NewMode.Perm()
	}

	var out bytes.Buffer
	if err := gitdiff.Apply(&out, bytes.NewReader(src), f); err != nil {
		return rejectf("%s: %v", target, err)
	}

	if f.IsRename {
		ov.set(source, &pending{deleted: true})
	}
	if f.IsDelete {
		ov.set(target, &pending{deleted: true})
		return nil
	}
	ov.set(target, &pending{content: out.Bytes(), mode: mode})
	return nil
}

// lookup returns the current state of name, reading it from disk the first
// time. Directories and missing files do not exist for patching purposes.
func (ov *overlay) lookup(name string) (*pending, bool, error) {
	if p, ok := ov.files[name]; ok {
		return p, !p.deleted, nil
	}

	info, err := ov.fsys.Stat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if info.IsDir() {
		return nil, false, nil
	}
	content, err := afero.ReadFile(ov.fsys, name)
	if err != nil {
		return nil, false, err
	}

	p := &pending{content: content, mode: info.Mode().Perm()}
	ov.files[name] = p
	return p, true, nil
}

func (ov *overlay) set(name string, p *pending) {
	if !contains(ov.order, name) {
		ov.order = append(ov.order, name)
	}
	ov.files[name] = p
}

// flush writes every touched file in first-touch order.
func (ov *overlay) flush() error {
	for _, name := range ov.order {
		p := ov.files[name]
		if p.deleted {
			if err := ov.fsys.Remove(name); err != nil && !os.IsNotExist(err) {
				return err
			}
			continue
		}
		if err := ov.fsys.MkdirAll(path.Dir(name), 0o755); err != nil {
			return err
		}
		if err := afero.WriteFile(ov.fsys, name, p.content, p.mode); err != nil {
			return err
		}
		if err := ov.fsys.Chmod(name, p.mode); err != nil {
			return err
		}
	}
	return nil
}

// stripName removes strip leading components from name the way patch -pN
// does. go-gitdiff has already dropped the a/ or b/ prefix from git diffs,
// so one fewer component is removed there and -p0 restores the prefix.
// It returns "" when name has too few components or would leave the tree.
func stripName(name string, strip types.StripLevel, isGit bool, gitPrefix string) string {
	if name == "" {
		return ""
	}
	n := int(strip)
	if isGit {
		if n == 0 {
			name = gitPrefix + name
		} else {
			n--
		}
	}

	parts := strings.Split(name, "/")
	var kept []string
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	if strings.HasPrefix(name, "/") {
		// an absolute name keeps its leading slash only at -p0
		if n == 0 {
			return ""
		}
		n--
	}
	if n >= len(kept) {
		return ""
	}

	stripped := strings.Join(kept[n:], "/")
	if !types.IsLocalPath(stripped) {
		return ""
	}
	return path.Clean(stripped)
}

func displayName(f *gitdiff.File) string {
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
