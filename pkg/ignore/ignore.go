// Package ignore filters discovered files through .gitignore and
// .useminignore patterns using go-git
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the repo-level ignore file read on top of .gitignore.
const FileName = ".useminignore"

// defaultPatterns are always ignored.
var defaultPatterns = []string{".git/**", "node_modules/**", "bower_components/**"}

// Matcher provides gitignore-based file filtering
type Matcher struct {
	matcher gitignore.Matcher
}

// NewMatcher creates a matcher over fs with layered ignore files:
// 1. .gitignore files and .git/info/exclude (foundation)
// 2. .useminignore at the root of fs (repo overrides)
// 3. userFile, when not empty (user overrides)
//
// Later layers win, so a "!" pattern in .useminignore can restore a file
// .gitignore drops.
func NewMatcher(fs billy.Filesystem, userFile string) (*Matcher, error) {
	var all []gitignore.Pattern
	for _, p := range defaultPatterns {
		all = append(all, gitignore.ParsePattern(p, nil))
	}

	if gitPatterns, err := gitignore.ReadPatterns(fs, nil); err == nil {
		all = append(all, gitPatterns...)
	}

	if data, err := util.ReadFile(fs, FileName); err == nil {
		for _, p := range parsePatterns(string(data)) {
			all = append(all, gitignore.ParsePattern(p, nil))
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if userFile != "" {
		data, err := os.ReadFile(filepath.Clean(userFile)) // #nosec G304 -- user-selected ignore file
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		for _, p := range parsePatterns(string(data)) {
			all = append(all, gitignore.ParsePattern(p, nil))
		}
	}

	return &Matcher{matcher: gitignore.NewMatcher(all)}, nil
}

// parsePatterns drops blank lines and comments.
func parsePatterns(content string) []string {
	var patterns []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// IsIgnored reports whether the file at path, relative to the matcher
// root, is ignored.
func (m *Matcher) IsIgnored(path string) bool {
	return m.match(path, false)
}

// IsIgnoredDir reports whether a directory should be skipped during
// traversal.
func (m *Matcher) IsIgnoredDir(path string) bool {
	return m.match(path, true)
}

func (m *Matcher) match(path string, isDir bool) bool {
	if m == nil {
		return false
	}
	parts := splitPath(filepath.ToSlash(path))
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, isDir)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
