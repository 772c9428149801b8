// Package filesystem holds the file-level primitives the extraction
// strategies are built from: a small FS abstraction with OS and afero
// backends, attribute-preserving tree copies, the deferring tree move and
// extended attribute merging.
package filesystem
