// Package manifest decodes staging manifests: one resource, the patches to
// apply to it and substitution variables, written as TOML or YAML.
//
//	[resource]
//	name = "testball"
//	url = "testball-0.1.tar.gz"
//	checksum = "sha256:..."
//
//	[[patches]]
//	strip = "p1"
//	url = "testball-0.1-patches.tgz"
//	checksum = "..."
//	apply = ["noop-a.diff", "noop-c.diff"]
//
//	[variables]
//	prefix = "/opt/stager"
//
// Relative urls and paths are resolved against the manifest's directory.
package manifest
