// Package staging turns a fetched resource and an ordered list of patch
// specs into a patched working tree.
//
// A Stage call is one sequential pipeline: validate every spec, create an
// empty tree under the work root, extract the resource into it, then
// resolve and apply each spec in declaration order. The first failure ends
// the call and is returned with its original error code. Nothing is retried
// and nothing already applied is rolled back.
//
// A Stager holds no per-call state, so separate Stage calls may run
// concurrently in separate trees.
package staging
