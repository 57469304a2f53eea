package mtlcore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIgnoreMatcherBasicPattern(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, ".gitignore", "*.log\n")

	m := (&ignoreMatcher{}).child(dir, "")
	if !m.isIgnored("debug.log", false) {
		t.Error("expected debug.log to be ignored")
	}
	if m.isIgnored("debug.txt", false) {
		t.Error("did not expect debug.txt to be ignored")
	}
}

func TestIgnoreMatcherNegation(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, ".gitignore", "*.log\n!keep.log\n")

	m := (&ignoreMatcher{}).child(dir, "")
	if m.isIgnored("keep.log", false) {
		t.Error("expected keep.log to be un-ignored by the negated rule")
	}
	if !m.isIgnored("other.log", false) {
		t.Error("expected other.log to still be ignored")
	}
}

func TestIgnoreMatcherDirOnly(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, ".gitignore", "build/\n")

	m := (&ignoreMatcher{}).child(dir, "")
	if !m.isIgnored("build", true) {
		t.Error("expected build/ to ignore the directory")
	}
	if m.isIgnored("build", false) {
		t.Error("dir-only pattern should not match a file named build")
	}
}

func TestIgnoreMatcherDoubleStar(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, ".gitignore", "**/vendor/**\n")

	m := (&ignoreMatcher{}).child(dir, "")
	if !m.isIgnored("a/vendor/pkg/file.go", false) {
		t.Error("expected nested vendor contents to be ignored")
	}
}

func TestIgnoreMatcherIgnoreFileWinsOverGitignoreAtSameLevel(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, ".gitignore", "!keep.tmp\n")
	writeIgnoreFile(t, dir, ".ignore", "keep.tmp\n")

	m := (&ignoreMatcher{}).child(dir, "")
	if !m.isIgnored("keep.tmp", false) {
		t.Error("expected .ignore's later rule to override .gitignore's negation")
	}
}

func TestIgnoreMatcherChildInheritsParentRules(t *testing.T) {
	root := t.TempDir()
	writeIgnoreFile(t, root, ".gitignore", "*.log\n")
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	rootMatcher := (&ignoreMatcher{}).child(root, "")
	subMatcher := rootMatcher.child(sub, "sub")

	if !subMatcher.isIgnored("sub/debug.log", false) {
		t.Error("expected parent ignore rule to apply within a subdirectory")
	}
}

func writeIgnoreFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}
