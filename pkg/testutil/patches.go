// pkg/testutil/patches.go
// DEPENDENCIES: None
// PURPOSE: The NOOP source tree and the patches that rewrite it

package testutil

import (
	"os/exec"
	"testing"
)

// NoopSource is the content of libexec/NOOP in the fixture source tree.
const NoopSource = "#!/bin/bash\necho NOOP\n"

// NoopPatchA rewrites NOOP to ABCD, taking -p1.
const NoopPatchA = `diff --git a/libexec/NOOP b/libexec/NOOP
index bfdda4c..e08d8f4 100755
--- a/libexec/NOOP
+++ b/libexec/NOOP
@@ -1,2 +1,2 @@
 #!/bin/bash
-echo NOOP
+echo ABCD
`

// NoopPatchB rewrites NOOP to ABCD, taking -p0.
const NoopPatchB = `--- libexec/NOOP
+++ libexec/NOOP
@@ -1,2 +1,2 @@
 #!/bin/bash
-echo NOOP
+echo ABCD
`

// NoopPatchC rewrites ABCD to 1234, taking -p1. It only applies after A.
const NoopPatchC = `diff --git a/libexec/NOOP b/libexec/NOOP
index e08d8f4..3d0b1c5 100755
--- a/libexec/NOOP
+++ b/libexec/NOOP
@@ -1,2 +1,2 @@
 #!/bin/bash
-echo ABCD
+echo 1234
`

// NoopPatchD rewrites NOOP to the install prefix placeholder, taking -p1.
const NoopPatchD = `diff --git a/libexec/NOOP b/libexec/NOOP
index bfdda4c..a5b3d2e 100755
--- a/libexec/NOOP
+++ b/libexec/NOOP
@@ -1,2 +1,2 @@
 #!/bin/bash
-echo NOOP
+echo @@HOMEBREW_PREFIX@@
`

// NoopTree is the fixture source tree, as unpacked from its tarball.
func NoopTree() FileTree {
	return FileTree{
		"testball-0.1": FileTree{
			"libexec": FileTree{
				"NOOP": File{Content: NoopSource, Mode: 0o755},
			},
			"README": "testball\n",
		},
	}
}

// NoopTarball returns the fixture source tree as a .tar.gz body.
func NoopTarball(t *testing.T) []byte {
	t.Helper()
	return GzipBytes(t, TarBytes(t, []ArchiveEntry{
		{Name: "testball-0.1/"},
		{Name: "testball-0.1/README", Body: "testball\n"},
		{Name: "testball-0.1/libexec/"},
		{Name: "testball-0.1/libexec/NOOP", Body: NoopSource, Mode: 0o755},
	}))
}

// NoopPatchArchive returns a .tar.gz holding the four patches inside a
// single top-level directory.
func NoopPatchArchive(t *testing.T) []byte {
	t.Helper()
	return GzipBytes(t, TarBytes(t, []ArchiveEntry{
		{Name: "testball-0.1-patches/"},
		{Name: "testball-0.1-patches/noop-a.diff", Body: NoopPatchA},
		{Name: "testball-0.1-patches/noop-b.diff", Body: NoopPatchB},
		{Name: "testball-0.1-patches/noop-c.diff", Body: NoopPatchC},
		{Name: "testball-0.1-patches/noop-d.diff", Body: NoopPatchD},
	}))
}

// RequireTool skips the test when name is not on PATH.
func RequireTool(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}
