// Package pathfinder discovers the templates to process under a root
// directory.
package pathfinder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/fulmenhq/gousemin/pkg/ignore"
)

// DiscoveryOptions configures file discovery behavior
type DiscoveryOptions struct {
	IncludePatterns []string
	ExcludePatterns []string
	// Ignore drops files and prunes directories before patterns apply.
	Ignore   *ignore.Matcher
	MaxDepth int
	// ProgressCallback is called every 100 files and once at the end.
	ProgressCallback func(found int, currentPath string)
}

// DiscoverFiles walks root on fs and returns the slash-separated paths,
// relative to root, of the files matching opts. Results are sorted.
func DiscoverFiles(fs billy.Filesystem, root string, opts DiscoveryOptions) ([]string, error) {
	if root == "" {
		root = "."
	}
	st, err := fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("base path validation failed: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("base path validation failed: %s is not a directory", root)
	}

	var files []string
	walkFunc := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if opts.Ignore.IsIgnoredDir(rel) || prunesDir(rel, opts.ExcludePatterns) {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 && calculateDepth(rel, true) > opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if opts.Ignore.IsIgnored(rel) {
			return nil
		}
		if len(opts.IncludePatterns) > 0 && !MatchesAnyPattern(rel, opts.IncludePatterns) {
			return nil
		}
		if MatchesAnyPattern(rel, opts.ExcludePatterns) {
			return nil
		}

		files = append(files, rel)
		if opts.ProgressCallback != nil && len(files)%100 == 0 {
			opts.ProgressCallback(len(files), path)
		}
		return nil
	}

	if err := util.Walk(fs, root, walkFunc); err != nil {
		return nil, fmt.Errorf("discovery walk failed: %w", err)
	}

	sort.Strings(files)
	if opts.ProgressCallback != nil {
		opts.ProgressCallback(len(files), "discovery complete")
	}
	return files, nil
}

// MatchesAnyPattern checks if path matches any of the given patterns.
// A pattern without a slash also matches the base name unless it starts
// with "./", which pins it to the root.
func MatchesAnyPattern(path string, patterns []string) bool {
	for _, pattern := range patterns {
		rootOnly := strings.HasPrefix(pattern, "./") || strings.HasPrefix(pattern, ".\\")
		normalized := filepath.ToSlash(filepath.Clean(strings.ReplaceAll(pattern, "\\", "/")))

		if matched, err := doublestar.Match(normalized, path); err == nil && matched {
			return true
		}

		if !rootOnly && !strings.Contains(normalized, "/") {
			if matched, err := doublestar.Match(normalized, filepath.Base(path)); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// prunesDir reports whether an exclude pattern of the form "dir/**" covers
// the whole directory.
func prunesDir(dir string, patterns []string) bool {
	var trimmed []string
	for _, p := range patterns {
		if t, ok := strings.CutSuffix(filepath.ToSlash(p), "/**"); ok {
			trimmed = append(trimmed, t)
		}
	}
	return MatchesAnyPattern(dir, trimmed)
}

func calculateDepth(relPath string, isDir bool) int {
	normalized := strings.Trim(filepath.ToSlash(relPath), "/")
	if normalized == "" || normalized == "." {
		return 0
	}
	segments := strings.Split(normalized, "/")
	if !isDir {
		return len(segments) - 1
	}
	return len(segments)
}
