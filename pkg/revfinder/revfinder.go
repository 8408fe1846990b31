// Package revfinder resolves logical asset paths to their revved
// (content-hashed) counterparts on a filesystem.
package revfinder

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"

	"github.com/fulmenhq/gousemin/pkg/logger"
	"github.com/fulmenhq/gousemin/pkg/tplurl"
)

var hashRe = regexp.MustCompile(`^[0-9a-fA-F]{4,}$`)

// revSeparators are tried in order between the base name and the hash.
var revSeparators = []string{".", "-"}

// Finder looks revved files up in the directories of a search path. It
// holds no mutable state and is safe for concurrent use.
type Finder struct {
	fs       billy.Filesystem
	manifest Manifest
}

// Option configures a Finder.
type Option func(*Finder)

// WithManifest makes the finder consult m before listing directories.
func WithManifest(m Manifest) Option {
	return func(f *Finder) { f.manifest = m }
}

// New returns a finder over fs.
func New(fs billy.Filesystem, opts ...Option) *Finder {
	f := &Finder{fs: fs}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Find returns the revved form of logical, keeping its directory part. It
// returns logical unchanged when no revved file is found or when logical
// cannot designate a local file.
func (f *Finder) Find(logical string, searchPath []string) string {
	if tplurl.IsSkippable(logical) {
		return logical
	}
	rel := strings.TrimPrefix(logical, "/")

	for _, dir := range searchPath {
		candidate := path.Join(toSlash(dir), rel)
		if name, ok := f.fromManifest(candidate, rel); ok {
			return swapBase(logical, name)
		}
		if name, ok := f.fromListing(candidate); ok {
			logger.Trace("Found revved file", logger.String("ref", logical), logger.String("dir", dir), logger.String("name", name))
			return swapBase(logical, name)
		}
	}
	return logical
}

func (f *Finder) fromManifest(candidate, rel string) (string, bool) {
	if f.manifest == nil {
		return "", false
	}
	for _, key := range []string{candidate, rel} {
		if v, ok := f.manifest[key]; ok && v != "" {
			return path.Base(v), true
		}
	}
	return "", false
}

func (f *Finder) fromListing(candidate string) (string, bool) {
	dir, file := path.Split(candidate)
	if dir == "" {
		dir = "."
	}
	entries, err := f.fs.ReadDir(dir)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	for _, sep := range revSeparators {
		pattern := escapeMeta(base+sep) + "*" + escapeMeta(ext)
		for _, name := range names {
			ok, err := doublestar.Match(pattern, name)
			if err != nil || !ok {
				continue
			}
			hash := strings.TrimSuffix(strings.TrimPrefix(name, base+sep), ext)
			if hashRe.MatchString(hash) {
				return name, true
			}
		}
	}
	return "", false
}

// swapBase replaces the last element of logical with name.
func swapBase(logical, name string) string {
	i := strings.LastIndex(logical, "/")
	if i < 0 {
		return name
	}
	return logical[:i+1] + name
}

var globMeta = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`, `{`, `\{`, `}`, `\}`)

func escapeMeta(s string) string {
	return globMeta.Replace(s)
}

func toSlash(dir string) string {
	return strings.ReplaceAll(dir, "\\", "/")
}
