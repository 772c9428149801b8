// Package unpack turns a fetched resource into a populated directory.
//
// Each supported source format is a Strategy. A Registry holds strategies in
// priority order and Select returns the first one whose CanExtract accepts
// the source. CanExtract looks at content (magic bytes, filesystem type),
// never at the file name alone.
//
// The default order is:
//
//	git, directory, zip, tar, compressed, external, uncompressed
//
// Strategies are stateless values; a registry is read-only once built and
// may be shared by concurrent extractions into different destinations.
package unpack
