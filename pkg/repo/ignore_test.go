package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSkiffignore(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, IgnoreFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", IgnoreFileName, err)
	}
}

// Test 1: .skiff/ is always ignored — no .skiffignore file needed.
func TestIgnore_SkiffDirAlwaysIgnored(t *testing.T) {
	dir := t.TempDir()

	ic := NewIgnoreChecker(dir)

	if !ic.IsIgnored(".skiff/HEAD") {
		t.Error("expected .skiff/HEAD to be ignored")
	}
	if !ic.IsIgnored(".skiff/objects/abc") {
		t.Error("expected .skiff/objects/abc to be ignored")
	}
	if !ic.IsIgnored(".skiff") {
		t.Error("expected .skiff to be ignored")
	}
}

// Test 2: .git/ is always ignored.
func TestIgnore_GitDirAlwaysIgnored(t *testing.T) {
	dir := t.TempDir()

	ic := NewIgnoreChecker(dir)

	if !ic.IsIgnored(".git/config") {
		t.Error("expected .git/config to be ignored")
	}
	if !ic.IsIgnored(".git") {
		t.Error("expected .git to be ignored")
	}
}

// Test 3: A slash-free glob applies at every directory depth.
func TestIgnore_GlobMatchesAtAnyDepth(t *testing.T) {
	dir := t.TempDir()
	writeSkiffignore(t, dir, "*.log\n")

	ic := NewIgnoreChecker(dir)

	if !ic.IsIgnored("debug.log") {
		t.Error("expected debug.log to be ignored")
	}
	if !ic.IsIgnored("a/b/c/debug.log") {
		t.Error("expected a/b/c/debug.log to be ignored")
	}
	if ic.IsIgnored("debug.log.txt") {
		t.Error("debug.log.txt should not be ignored")
	}
}

// Test 4: Directory-only pattern ignores the directory and everything under it.
func TestIgnore_DirOnlyPattern(t *testing.T) {
	dir := t.TempDir()
	writeSkiffignore(t, dir, "build/\n")

	ic := NewIgnoreChecker(dir)

	if !ic.IsIgnored("build") {
		t.Error("expected build to be ignored")
	}
	if !ic.IsIgnored("build/out/a.o") {
		t.Error("expected build/out/a.o to be ignored")
	}
	if ic.IsIgnored("src/build.go") {
		t.Error("src/build.go should not be ignored")
	}
}

// Test 5: Negation un-ignores a previously matched path; last match wins.
func TestIgnore_NegationLastMatchWins(t *testing.T) {
	dir := t.TempDir()
	writeSkiffignore(t, dir, "*.log\n!keep.log\n")

	ic := NewIgnoreChecker(dir)

	if !ic.IsIgnored("debug.log") {
		t.Error("expected debug.log to be ignored")
	}
	if ic.IsIgnored("keep.log") {
		t.Error("keep.log should be un-ignored by negation")
	}
}

// Test 6: A pattern containing a slash matches against the full relative path.
func TestIgnore_SlashedPatternMatchesFullPath(t *testing.T) {
	dir := t.TempDir()
	writeSkiffignore(t, dir, "docs/tmp\n")

	ic := NewIgnoreChecker(dir)

	if !ic.IsIgnored("docs/tmp") {
		t.Error("expected docs/tmp to be ignored")
	}
	if !ic.IsIgnored("docs/tmp/draft.md") {
		t.Error("expected docs/tmp/draft.md to be ignored")
	}
	if ic.IsIgnored("other/docs/tmp") {
		t.Error("other/docs/tmp should not match an anchored pattern")
	}
}

// Test 7: Globstar spans directory segments.
func TestIgnore_Globstar(t *testing.T) {
	dir := t.TempDir()
	writeSkiffignore(t, dir, "vendor/**/testdata\n")

	ic := NewIgnoreChecker(dir)

	if !ic.IsIgnored("vendor/a/b/testdata") {
		t.Error("expected vendor/a/b/testdata to be ignored")
	}
	if !ic.IsIgnored("vendor/x/testdata/file.txt") {
		t.Error("expected vendor/x/testdata/file.txt to be ignored")
	}
	if ic.IsIgnored("src/testdata") {
		t.Error("src/testdata should not be ignored")
	}
}

// Test 8: Blank lines and comments are skipped; a leading "./" is stripped.
func TestIgnore_CommentsAndDotSlash(t *testing.T) {
	dir := t.TempDir()
	writeSkiffignore(t, dir, "# build artifacts\n\n*.tmp\n")

	ic := NewIgnoreChecker(dir)

	if !ic.IsIgnored("./scratch.tmp") {
		t.Error("expected ./scratch.tmp to be ignored")
	}
	if ic.IsIgnored("# build artifacts") {
		t.Error("comment lines must not become patterns")
	}
}

// Test 9: Same decision for "p" and "./p" — the predicate normalizes both.
func TestIgnore_NormalizedPathsAgree(t *testing.T) {
	dir := t.TempDir()
	writeSkiffignore(t, dir, "cache\n")

	ic := NewIgnoreChecker(dir)

	if ic.IsIgnored("cache/obj.bin") != ic.IsIgnored("./cache/obj.bin") {
		t.Error("expected identical decisions for normalized and ./-prefixed paths")
	}
}

// Test 10: A missing .skiffignore yields only the built-in rules.
func TestIgnore_MissingFileNoExtraRules(t *testing.T) {
	dir := t.TempDir()

	ic := NewIgnoreChecker(dir)

	if ic.IsIgnored("main.go") {
		t.Error("main.go should not be ignored without rules")
	}
	if ic.IsIgnored("deep/nested/file.txt") {
		t.Error("deep/nested/file.txt should not be ignored without rules")
	}
}

// Test 11: a file under an ignored directory cannot be re-included — the
// ignored parent decides for everything beneath it.
func TestIgnore_NoReIncludeUnderIgnoredDir(t *testing.T) {
	dir := t.TempDir()
	writeSkiffignore(t, dir, "build/\n!build/keep.txt\n")

	ic := NewIgnoreChecker(dir)

	if !ic.IsIgnored("build/keep.txt") {
		t.Error("expected build/keep.txt to stay ignored under an ignored directory")
	}
	if !ic.IsIgnored("build/out/a.o") {
		t.Error("expected build/out/a.o to be ignored")
	}

	// Re-including the directory itself re-opens paths beneath it.
	writeSkiffignore(t, dir, "build/\n!build/\n")
	ic = NewIgnoreChecker(dir)
	if ic.IsIgnored("build/keep.txt") {
		t.Error("build/keep.txt should not be ignored once build/ is re-included")
	}
}
