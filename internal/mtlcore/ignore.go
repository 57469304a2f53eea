package mtlcore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ignorePattern is a single parsed ignore-file pattern.
type ignorePattern struct {
	pattern  string // the glob pattern (cleaned)
	negated  bool   // true if the original line starts with '!'
	dirOnly  bool   // true if the original pattern ends with '/'
	anchored bool   // true if the pattern is anchored to its base directory
}

// ignoreRule is a pattern associated with the directory (relative to the
// walk root, "" for the root itself) whose ignore file declared it.
type ignoreRule struct {
	baseDir string
	pat     ignorePattern
}

// ignoreMatcher aggregates ignore rules accumulated along a walk's ancestor
// chain. Rules are stored in accumulation order; later rules override
// earlier ones for a matching path, which gives deeper directories'
// patterns (appended last) precedence over shallower ones, and gives a
// directory's own .ignore precedence over its own .gitignore, per the
// "inner overrides outer, last-match-wins within a file" rule.
type ignoreMatcher struct {
	rules []ignoreRule
}

// child returns a new matcher extending m with the ignore rules declared in
// dir's own .gitignore and .ignore files (in that order, so .ignore wins
// ties at the same directory level). relDir is dir's path relative to the
// walk root, using "" for the walk root itself.
func (m *ignoreMatcher) child(dir, relDir string) *ignoreMatcher {
	base := relDir
	if base != "" {
		base += "/"
	}

	child := &ignoreMatcher{rules: append([]ignoreRule(nil), m.rules...)}
	child.loadFile(filepath.Join(dir, ".gitignore"), base)
	child.loadFile(filepath.Join(dir, ".ignore"), base)
	return child
}

// loadFile reads an ignore-format file and appends its patterns scoped to
// baseDir. A missing file is not an error; ignore files are optional.
func (m *ignoreMatcher) loadFile(path, baseDir string) {
	f, err := os.Open(path) //nolint:gosec // path is built from the walk root, not attacker input
	if err != nil {
		return
	}
	defer f.Close() //nolint:errcheck // read-only, nothing to flush

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		pat, ok := parseIgnoreLine(scanner.Text())
		if !ok {
			continue
		}
		m.rules = append(m.rules, ignoreRule{baseDir: baseDir, pat: pat})
	}
}

// isIgnored reports whether relPath (forward-slash separated, relative to
// the walk root) should be ignored. isDir indicates whether the path names
// a directory.
func (m *ignoreMatcher) isIgnored(relPath string, isDir bool) bool {
	ignored := false
	for _, rule := range m.rules {
		if rule.pat.dirOnly && !isDir {
			continue
		}
		if matchIgnoreRule(rule, relPath) {
			ignored = !rule.pat.negated
		}
	}
	return ignored
}

// parseIgnoreLine parses a single ignore-file line. Returns false for blank
// lines and comments.
func parseIgnoreLine(line string) (ignorePattern, bool) {
	line = strings.TrimRight(line, " \t")
	if line == "" || line[0] == '#' {
		return ignorePattern{}, false
	}

	var pat ignorePattern
	if line[0] == '!' {
		pat.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		pat.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		pat.anchored = true
		line = line[1:]
	}

	if strings.Contains(line, "/") {
		remainder := strings.TrimPrefix(line, "**/")
		if strings.Contains(remainder, "/") {
			pat.anchored = true
		} else if !strings.HasPrefix(line, "**/") {
			pat.anchored = true
		}
	}

	pat.pattern = line
	return pat, line != ""
}

// matchIgnoreRule checks a single rule against a walk-root-relative path.
func matchIgnoreRule(rule ignoreRule, relPath string) bool {
	pat := rule.pat

	target := relPath
	if rule.baseDir != "" {
		if !strings.HasPrefix(relPath, rule.baseDir) {
			return false
		}
		target = relPath[len(rule.baseDir):]
	}

	if pat.anchored {
		return matchIgnoreGlob(pat.pattern, target)
	}

	base := target
	if idx := strings.LastIndex(target, "/"); idx >= 0 {
		base = target[idx+1:]
	}
	if matchIgnoreGlob(pat.pattern, base) {
		return true
	}
	return matchIgnoreGlob(pat.pattern, target)
}

// matchIgnoreGlob matches an ignore-style glob pattern against name,
// handling "**" as zero-or-more path components in addition to what
// filepath.Match already supports.
func matchIgnoreGlob(pattern, name string) bool {
	if !strings.Contains(pattern, "**") {
		matched, _ := filepath.Match(pattern, name)
		return matched
	}
	return matchIgnoreSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchIgnoreSegments(patParts, nameParts []string) bool {
	pi, ni := 0, 0
	for pi < len(patParts) && ni < len(nameParts) {
		if patParts[pi] == "**" {
			pi++
			if pi >= len(patParts) {
				return true
			}
			for tryNi := ni; tryNi <= len(nameParts); tryNi++ {
				if matchIgnoreSegments(patParts[pi:], nameParts[tryNi:]) {
					return true
				}
			}
			return false
		}
		matched, _ := filepath.Match(patParts[pi], nameParts[ni])
		if !matched {
			return false
		}
		pi++
		ni++
	}
	for pi < len(patParts) {
		if patParts[pi] != "**" {
			return false
		}
		pi++
	}
	return ni >= len(nameParts)
}
