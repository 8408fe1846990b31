// Package patterns holds the reference-matching tables applied when
// rewriting asset references to their built counterparts.
package patterns

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/fulmenhq/gousemin/pkg/tplurl"
)

// ErrUnsupportedTable is returned by Lookup for an unknown table name.
var ErrUnsupportedTable = errors.New("unsupported pattern table")

// Meta is the per-match context produced by a FilterIn and handed, unchanged,
// to the FilterOut of the same pattern.
type Meta struct {
	// Capture is the reference as it appeared in the content.
	Capture string
	// Template is the decoded wrapping of Capture, when the filter decoded it.
	Template tplurl.Match
	// Generated is the wrapping recorded by the flow configs for Capture.
	Generated *Wrapping
}

// FilterIn turns a captured reference into the logical path to look up.
type FilterIn func(capture string) (key string, meta Meta)

// FilterOut turns a resolved path back into the text to substitute for the
// capture.
type FilterOut func(resolved string, meta Meta) string

// Pattern is one entry of a table.
type Pattern struct {
	// Matcher finds a textual context; its first participating group is the reference.
	Matcher     *regexp.Regexp
	Description string
	FilterIn    FilterIn
	FilterOut   FilterOut
	// Reject vetoes a whole match. Optional.
	Reject func(match string) bool
}

// In applies FilterIn, defaulting to identity.
func (p Pattern) In(capture string) (string, Meta) {
	if p.FilterIn == nil {
		return IdentityIn(capture)
	}
	return p.FilterIn(capture)
}

// Out applies FilterOut, defaulting to identity.
func (p Pattern) Out(resolved string, meta Meta) string {
	if p.FilterOut == nil {
		return IdentityOut(resolved, meta)
	}
	return p.FilterOut(resolved, meta)
}

// Rejects reports whether the pattern vetoes match.
func (p Pattern) Rejects(match string) bool {
	return p.Reject != nil && p.Reject(match)
}

// CaptureIndex returns the bounds of the reference within a submatch index
// slice as returned by FindAllStringSubmatchIndex.
func CaptureIndex(loc []int) (start, end int, ok bool) {
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] >= 0 {
			return loc[i], loc[i+1], true
		}
	}
	return 0, 0, false
}

// IdentityIn looks the capture up as is.
func IdentityIn(capture string) (string, Meta) {
	return capture, Meta{Capture: capture}
}

// IdentityOut substitutes the resolved path as is.
func IdentityOut(resolved string, _ Meta) string {
	return resolved
}

// Table groups pattern lists by content type ("html", "css", "js").
type Table map[string][]Pattern

// Wrapping is the template syntax a generated bundle was referenced with
// before block replacement flattened it.
type Wrapping struct {
	Prefix       string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	SuffixStatic string `json:"suffix_static,omitempty" yaml:"suffix_static,omitempty"`
	Static       bool   `json:"static,omitempty" yaml:"static,omitempty"`
}

// Apply wraps path the way the original sources were wrapped.
func (w Wrapping) Apply(path string) string {
	switch {
	case w.Prefix != "":
		return w.Prefix + path
	case w.Static:
		return tplurl.Static(path, w.SuffixStatic)
	default:
		return path
	}
}

// GeneratedIndex gives access to the wrappings recorded for generated
// bundles, keyed by the reference the bundle is linked with.
type GeneratedIndex interface {
	Lookup(ref string) (Wrapping, bool)
}

// Lookup returns the named pattern list. Plain tables are "html", "css" and
// "js"; template-aware ones are "django:html" and "django:css". index may be
// nil.
func Lookup(name string, index GeneratedIndex) ([]Pattern, error) {
	var (
		list []Pattern
		ok   bool
	)
	switch {
	case len(name) > len(djangoNS) && name[:len(djangoNS)] == djangoNS:
		list, ok = Django(index)[name[len(djangoNS):]]
	default:
		list, ok = Default()[name]
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s (supported: %v)", ErrUnsupportedTable, name, Names())
	}
	return list, nil
}

const djangoNS = "django:"

// Names lists the table names accepted by Lookup.
func Names() []string {
	var names []string
	for k := range Default() {
		names = append(names, k)
	}
	for k := range Django(nil) {
		names = append(names, djangoNS+k)
	}
	sort.Strings(names)
	return names
}
