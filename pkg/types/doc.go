// Package types defines the data model shared by the staging pipeline:
// resources, extraction requests, patch specs and the working tree
// that extraction populates and patching mutates.
package types
