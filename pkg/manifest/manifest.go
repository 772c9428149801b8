package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/types"
)

// Format is a manifest encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.Newf(errors.ErrInvalidInput, "cannot tell the manifest format of %s", path).
			WithDetail("path", path)
	}
}

// Manifest is a decoded manifest file.
type Manifest struct {
	Resource  Resource          `toml:"resource" yaml:"resource"`
	Patches   []Patch           `toml:"patches" yaml:"patches"`
	Variables map[string]string `toml:"variables" yaml:"variables"`

	// Dir anchors relative urls and paths. Load sets it to the manifest's
	// directory.
	Dir string `toml:"-" yaml:"-"`
}

// Resource declares what to stage. Exactly one of URL, Path and Literal is
// set.
type Resource struct {
	Name     string  `toml:"name" yaml:"name"`
	URL      string  `toml:"url" yaml:"url"`
	Path     string  `toml:"path" yaml:"path"`
	Literal  string  `toml:"literal" yaml:"literal"`
	Checksum string  `toml:"checksum" yaml:"checksum"`
	RefKind  string  `toml:"ref_kind" yaml:"ref_kind"`
	Ref      string  `toml:"ref" yaml:"ref"`
	Patches  []Patch `toml:"patches" yaml:"patches"`
}

// Patch declares one patch. Exactly one of Inline and URL is set.
type Patch struct {
	Strip     string   `toml:"strip" yaml:"strip"`
	Inline    string   `toml:"inline" yaml:"inline"`
	URL       string   `toml:"url" yaml:"url"`
	Checksum  string   `toml:"checksum" yaml:"checksum"`
	Apply     []string `toml:"apply" yaml:"apply"`
	Directory string   `toml:"directory" yaml:"directory"`
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNotFound, "cannot read manifest %s", path).
			WithDetail("path", path)
	}

	m, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot resolve %s", path)
	}
	m.Dir = abs
	return m, nil
}

// Parse decodes data. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	var err error
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&m)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&m)
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown manifest format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "malformed %s manifest", format)
	}
	return &m, nil
}

// StagingResource returns the staging resource with its own patches attached. A
// Path resource is returned already fetched.
func (m *Manifest) StagingResource() (types.Resource, error) {
	r := m.Resource
	set := 0
	for _, v := range []string{r.URL, r.Path, r.Literal} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return types.Resource{}, errors.Newf(errors.ErrInvalidInput, "resource %q needs exactly one of url, path and literal", r.Name).
			WithDetail("resource", r.Name)
	}

	kind, err := types.ParseRefKind(r.RefKind)
	if err != nil {
		return types.Resource{}, errors.Wrap(err, errors.ErrInvalidInput, "invalid resource ref").
			WithDetail("resource", r.Name)
	}
	specs, err := m.specs(r.Patches, "resource.patches")
	if err != nil {
		return types.Resource{}, err
	}

	res := types.Resource{
		Name:     r.Name,
		URL:      m.resolve(r.URL),
		Literal:  r.Literal,
		Checksum: r.Checksum,
		RefKind:  kind,
		Ref:      r.Ref,
		Patches:  specs,
	}
	if r.Path != "" {
		res.LocalPath = m.resolve(r.Path)
	}
	return res, nil
}

// PatchSpecs returns the top-level patches.
func (m *Manifest) PatchSpecs() ([]types.PatchSpec, error) {
	return m.specs(m.Patches, "patches")
}

func (m *Manifest) specs(patches []Patch, field string) ([]types.PatchSpec, error) {
	specs := make([]types.PatchSpec, 0, len(patches))
	for i, p := range patches {
		spec, err := m.spec(p)
		if err != nil {
			return nil, withIndex(err, field, i)
		}
		if err := spec.Validate(); err != nil {
			return nil, withIndex(err, field, i)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (m *Manifest) spec(p Patch) (types.PatchSpec, error) {
	strip := types.DefaultStrip
	if p.Strip != "" {
		s, err := types.ParseStripLevel(p.Strip)
		if err != nil {
			return types.PatchSpec{}, err
		}
		strip = s
	}

	var spec types.PatchSpec
	switch {
	case p.Inline != "" && p.URL != "":
		return spec, errors.New(errors.ErrInvalidInput, "patch has both inline content and a url")
	case p.Inline != "":
		spec = types.NewInlinePatch(p.Inline)
		spec.Apply = p.Apply
	case p.URL != "":
		spec = types.NewFetchedPatch(m.resolve(p.URL), p.Checksum, p.Apply...)
	default:
		return spec, errors.New(errors.ErrInvalidInput, "patch has neither inline content nor a url")
	}
	return spec.WithStrip(strip).InDirectory(p.Directory), nil
}

// resolve anchors a relative local reference at Dir. URLs with a scheme
// and absolute paths are returned unchanged.
func (m *Manifest) resolve(ref string) string {
	if ref == "" || m.Dir == "" || strings.Contains(ref, "://") || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(m.Dir, filepath.FromSlash(ref))
}

func withIndex(err error, field string, i int) error {
	at := fmt.Sprintf("%s[%d]", field, i)
	if se, ok := err.(*errors.StagerError); ok {
		return se.WithDetail("patch", at)
	}
	return errors.Wrap(err, errors.ErrInvalidInput, "invalid patch").WithDetail("patch", at)
}
