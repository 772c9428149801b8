package types

import (
	"github.com/arthur-debert/stager/pkg/errors"
)

// Resource is a fetchable input of a package build. The fetch collaborator
// owns it; the staging core only reads it.
type Resource struct {
	Name string

	// URL and Literal are mutually exclusive content origins.
	URL     string
	Literal string

	Checksum string

	// LocalPath is set once the resource has been fetched.
	LocalPath string

	// RefKind and Ref select a branch, tag or revision for
	// version-control resources.
	RefKind RefKind
	Ref     string

	// Patches declared for this resource, in application order.
	Patches []PatchSpec
}

// Fetched reports whether the resource has a local path to extract from.
func (r Resource) Fetched() bool {
	return r.LocalPath != ""
}

// Validate checks the resource is ready to be staged.
func (r Resource) Validate() error {
	if r.URL != "" && r.Literal != "" {
		return errors.Newf(errors.ErrInvalidInput, "resource %q has both a url and a literal origin", r.Name).
			WithDetail("resource", r.Name)
	}
	if !r.Fetched() {
		return errors.Newf(errors.ErrInvalidInput, "resource %q has not been fetched", r.Name).
			WithDetail("resource", r.Name)
	}
	if r.Ref != "" && r.RefKind == RefNone {
		return errors.Newf(errors.ErrInvalidInput, "resource %q has a ref without a ref kind", r.Name).
			WithDetail("resource", r.Name)
	}
	return nil
}
