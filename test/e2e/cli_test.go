//go:build e2e

package e2e

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildIsDeterministic(t *testing.T) {
	dir := setupTree(t, map[string]string{
		"README.md":   "# Hello\n",
		"src/main.go": "package main\n",
	})

	out1 := runMtl(t, dir, "local", "build")
	out2 := runMtl(t, dir, "local", "build")
	compareOutput(t, "build", out1, out2)

	root := strings.Fields(out1)[0]
	if len(root) != 16 {
		t.Fatalf("expected a 16-hex-character root OID, got %q", root)
	}
}

func TestBuildThenRevParseHEAD(t *testing.T) {
	dir := setupTree(t, map[string]string{"a.txt": "hello\n"})

	build := strings.Fields(runMtl(t, dir, "local", "build"))[0]
	head := strings.TrimSpace(runMtl(t, dir, "rev-parse", "HEAD"))

	compareOutput(t, "rev-parse HEAD vs build root", head, build)
}

func TestPrintTreeListsEntries(t *testing.T) {
	dir := setupTree(t, map[string]string{
		"a.txt":     "a\n",
		"dir/b.txt": "b\n",
	})
	runMtl(t, dir, "local", "build")

	out := runMtl(t, dir, "print-tree", "-r", "HEAD")
	if !strings.Contains(out, "a.txt") || !strings.Contains(out, "dir") || !strings.Contains(out, "b.txt") {
		t.Fatalf("print-tree output missing expected entries:\n%s", out)
	}
}

func TestDiffDetectsAddedAndModified(t *testing.T) {
	dir := setupTree(t, map[string]string{"a.txt": "a\n"})
	runMtl(t, dir, "local", "build")
	runMtl(t, dir, "ref", "save", "before")

	writeFiles(t, dir, map[string]string{
		"a.txt": "a changed\n",
		"b.txt": "new file\n",
	})
	runMtl(t, dir, "local", "build")
	runMtl(t, dir, "ref", "save", "after")

	out := runMtl(t, dir, "diff", "before", "after")
	if !strings.Contains(out, "a.txt") {
		t.Fatalf("diff missing modified a.txt:\n%s", out)
	}
	if !strings.Contains(out, "b.txt") {
		t.Fatalf("diff missing added b.txt:\n%s", out)
	}
}

func TestDiffIsReversible(t *testing.T) {
	dir := setupTree(t, map[string]string{"a.txt": "a\n"})
	runMtl(t, dir, "local", "build")
	runMtl(t, dir, "ref", "save", "before")

	writeFiles(t, dir, map[string]string{"a.txt": "a changed\n"})
	runMtl(t, dir, "local", "build")
	runMtl(t, dir, "ref", "save", "after")

	forward := runMtl(t, dir, "diff", "before", "after")
	backward := runMtl(t, dir, "diff", "after", "before")

	if strings.Count(forward, "\n") != strings.Count(backward, "\n") {
		t.Fatalf("reversed diff has a different number of lines:\nforward:\n%s\nbackward:\n%s", forward, backward)
	}
}

func TestRefSaveListDelete(t *testing.T) {
	dir := setupTree(t, map[string]string{"a.txt": "a\n"})
	runMtl(t, dir, "local", "build")
	runMtl(t, dir, "ref", "save", "stable")

	list := runMtl(t, dir, "ref", "list")
	if !strings.Contains(list, "stable") {
		t.Fatalf("ref list missing saved ref:\n%s", list)
	}

	runMtl(t, dir, "ref", "delete", "stable")
	list = runMtl(t, dir, "ref", "list")
	if strings.Contains(list, "stable") {
		t.Fatalf("ref list still contains deleted ref:\n%s", list)
	}
}

func TestGCDryRunReportsSummary(t *testing.T) {
	dir := setupTree(t, map[string]string{"a.txt": "a\n"})
	runMtl(t, dir, "local", "build")

	writeFiles(t, dir, map[string]string{"a.txt": "a changed\n"})
	runMtl(t, dir, "local", "build")

	out := runMtl(t, dir, "gc", "--dry")
	if !strings.Contains(out, "unreachable") {
		t.Fatalf("gc --dry missing summary line:\n%s", out)
	}
}

func TestPackMovesLooseObjectsAndPreservesLookup(t *testing.T) {
	dir := setupTree(t, map[string]string{"a.txt": "a\n"})
	runMtl(t, dir, "local", "build")

	runMtl(t, dir, "pack")

	if _, err := os.Stat(filepath.Join(dir, ".mtl", "pack", "packed.redb")); err != nil {
		t.Fatalf("expected pack/packed.redb to exist: %v", err)
	}

	out := runMtl(t, dir, "cat-object", "HEAD:a.txt")
	compareOutput(t, "cat-object after pack", out, "a\n")
}

func TestLocalUpdateRebuildsOnlySubtree(t *testing.T) {
	dir := setupTree(t, map[string]string{
		"a.txt":     "a\n",
		"dir/b.txt": "b\n",
	})
	before := strings.Fields(runMtl(t, dir, "local", "build"))[0]

	writeFiles(t, dir, map[string]string{"dir/b.txt": "b changed\n"})
	after := strings.Fields(runMtl(t, dir, "local", "update", "dir"))[0]

	if before == after {
		t.Fatalf("expected update to change the root OID after modifying dir/b.txt")
	}

	full := strings.Fields(runMtl(t, dir, "local", "build"))[0]
	if full != after {
		t.Fatalf("update's root OID %s does not match a full rebuild's root OID %s", after, full)
	}
}

func TestRevParseUnknownRefFails(t *testing.T) {
	dir := setupTree(t, map[string]string{"a.txt": "a\n"})
	runMtl(t, dir, "local", "build")

	if _, err := runMtlExpectErr(dir, "rev-parse", "does-not-exist"); err == nil {
		t.Fatalf("expected rev-parse of an unknown ref to fail")
	}
}
