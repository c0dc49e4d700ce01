package repo

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// IgnoreFileName is the pattern file read from the repository root.
const IgnoreFileName = ".skiffignore"

// IgnoreChecker determines if a path should be excluded from trackable
// status. It is compiled once at handle construction; the resulting
// predicate is pure and deterministic for a fixed rule set.
type IgnoreChecker struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern  string
	negated  bool
	dirOnly  bool
	hasSlash bool // pattern contains a slash, so match against full path
	regex    *regexp.Regexp
}

// NewIgnoreChecker creates an IgnoreChecker for the given repository root.
// It always hides the repository metadata directory (.skiff/) and .git/.
// If a .skiffignore file exists in repoRoot, its patterns are parsed and
// applied; a missing file is not an error and yields no extra rules.
func NewIgnoreChecker(repoRoot string) *IgnoreChecker {
	ic := &IgnoreChecker{}

	// Built-in rules: the metadata directory is never trackable.
	ic.patterns = append(ic.patterns,
		ignorePattern{pattern: ".skiff", dirOnly: true},
		ignorePattern{pattern: ".git", dirOnly: true},
	)

	f, err := os.Open(filepath.Join(repoRoot, IgnoreFileName))
	if err == nil {
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if p := parseIgnoreLine(scanner.Text()); p != nil {
				ic.patterns = append(ic.patterns, *p)
			}
		}
	}

	return ic
}

// parseIgnoreLine parses a single line from a .skiffignore file. Returns nil
// if the line is empty or a comment.
func parseIgnoreLine(line string) *ignorePattern {
	line = strings.TrimRight(line, " \t")
	if line == "" {
		return nil
	}
	if strings.HasPrefix(line, "#") {
		return nil
	}

	p := &ignorePattern{}

	// Negation: lines starting with ! un-ignore a pattern.
	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}

	// Directory-only: lines ending with / match the directory and
	// everything under it.
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}

	p.hasSlash = strings.Contains(line, "/")
	p.pattern = line
	if strings.Contains(line, "**") {
		if re, err := regexp.Compile(globToRegex(line)); err == nil {
			p.regex = re
		}
	}
	return p
}

// IsIgnored checks whether a relative path should be ignored. The path uses
// forward slashes and is relative to the repository root; a leading "./" is
// accepted and stripped so callers get the same decision either way.
//
// Last matching pattern wins (to support negation), with one restriction:
// a path under an ignored directory cannot be re-included, so an ignored
// parent decides for everything beneath it. Directory-pruning scans and
// per-file queries therefore always agree.
func (ic *IgnoreChecker) IsIgnored(path string) bool {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")

	for i := 0; i < len(path); i++ {
		if path[i] == '/' && ic.decide(path[:i]) {
			return true
		}
	}
	return ic.decide(path)
}

// decide evaluates the rule list against one path, last match wins.
func (ic *IgnoreChecker) decide(path string) bool {
	ignored := false
	for i := range ic.patterns {
		if ic.patterns[i].matches(path) {
			ignored = !ic.patterns[i].negated
		}
	}
	return ignored
}

// matches checks if the given relative path matches this ignore pattern.
func (p *ignorePattern) matches(path string) bool {
	if p.dirOnly {
		// The directory itself or anything under it.
		if path == p.pattern || strings.HasPrefix(path, p.pattern+"/") {
			return true
		}
		return false
	}

	if p.hasSlash {
		// Pattern contains a slash: match against the full relative path,
		// or treat it as a directory prefix.
		if p.match(path) {
			return true
		}
		return strings.HasPrefix(path, p.pattern+"/")
	}

	// Pattern without a slash: match any path segment, so "build" or
	// "*.log" applies at every directory depth.
	if p.match(filepath.Base(path)) {
		return true
	}
	for i := 0; i < len(path); i++ {
		if path[i] == '/' && p.match(path[:i]) {
			return true
		}
	}
	return false
}

func (p *ignorePattern) match(target string) bool {
	if p.regex != nil {
		return p.regex.MatchString(target)
	}
	matched, _ := filepath.Match(p.pattern, target)
	return matched
}

// globToRegex translates an ignore glob into an anchored regular expression
// over slash-separated relative paths.
func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if ch == '*' {
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					// Globstar directory segment: match zero or more path segments.
					b.WriteString("(?:.*/)?")
					i += 2
				} else {
					b.WriteString(".*")
					i++
				}
				continue
			}
			b.WriteString("[^/]*")
			continue
		}
		if ch == '?' {
			b.WriteString("[^/]")
			continue
		}
		if strings.ContainsRune(`.+()|[]{}^$\\`, rune(ch)) {
			b.WriteByte('\\')
		}
		b.WriteByte(ch)
	}
	b.WriteString("$")
	return b.String()
}
