// Package processor replaces build blocks with references to their
// destination and rewrites asset references to the files a Finder resolves
// them to.
package processor

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fulmenhq/gousemin/pkg/logger"
	"github.com/fulmenhq/gousemin/pkg/patterns"
)

// Configuration errors returned by New.
var (
	ErrNoPatterns = errors.New("no pattern given")
	ErrNoFinder   = errors.New("missing parameter: finder")
	ErrNoFile     = errors.New("missing parameter: file")
)

// Finder resolves a logical asset path against an ordered list of
// directories. It returns logical unchanged when nothing matches.
type Finder interface {
	Find(logical string, searchPath []string) string
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func(logical string, searchPath []string) string

// Find calls f.
func (f FinderFunc) Find(logical string, searchPath []string) string {
	return f(logical, searchPath)
}

// Stats counts what a processor did since it was created.
type Stats struct {
	BlocksReplaced     int64 `json:"blocks_replaced" yaml:"blocks_replaced"`
	ReferencesMatched  int64 `json:"references_matched" yaml:"references_matched"`
	ReferencesResolved int64 `json:"references_resolved" yaml:"references_resolved"`
}

// Processor applies one pattern list. It is safe for concurrent use as long
// as its Finder is.
type Processor struct {
	patterns []patterns.Pattern
	finder   Finder
	log      func(string)

	blocks   atomic.Int64
	matched  atomic.Int64
	resolved atomic.Int64
}

// Option configures a Processor.
type Option func(*Processor)

// WithLog sets the hook receiving one line per pattern pass and per changed
// reference.
func WithLog(fn func(string)) Option {
	return func(p *Processor) {
		if fn != nil {
			p.log = fn
		}
	}
}

// New returns a processor over pats resolving references with finder.
func New(pats []patterns.Pattern, finder Finder, opts ...Option) (*Processor, error) {
	if len(pats) == 0 {
		return nil, ErrNoPatterns
	}
	if finder == nil {
		return nil, ErrNoFinder
	}
	p := &Processor{
		patterns: pats,
		finder:   finder,
		log:      func(string) {},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Stats returns a snapshot of the counters.
func (p *Processor) Stats() Stats {
	return Stats{
		BlocksReplaced:     p.blocks.Load(),
		ReferencesMatched:  p.matched.Load(),
		ReferencesResolved: p.resolved.Load(),
	}
}

// ReplaceWithRevved rewrites every reference matched by the pattern list in
// content. Patterns run in order, each over the output of the previous one.
func (p *Processor) ReplaceWithRevved(content string, f *File) string {
	for _, pat := range p.patterns {
		p.log(pat.Description)
		content = p.rewrite(content, pat, f)
	}
	return content
}

func (p *Processor) rewrite(content string, pat patterns.Pattern, f *File) string {
	locs := pat.Matcher.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return content
	}

	var sb strings.Builder
	last := 0
	for _, loc := range locs {
		match := content[loc[0]:loc[1]]
		cs, ce, ok := patterns.CaptureIndex(loc)
		if !ok || pat.Rejects(match) {
			continue
		}
		p.matched.Add(1)

		src := content[cs:ce]
		key, meta := pat.In(src)
		searchPath := effectiveSearchPath(key, f)

		logger.Trace("Looking for revved version", logger.String("ref", key), logger.String("search_path", strings.Join(searchPath, ",")))
		found := p.finder.Find(key, searchPath)

		res := match[:cs-loc[0]] + pat.Out(found, meta) + match[ce-loc[0]:]
		if found != key {
			p.resolved.Add(1)
			p.log(match + " changed to " + res)
		}

		sb.WriteString(content[last:loc[0]])
		sb.WriteString(res)
		last = loc[1]
	}
	sb.WriteString(content[last:])
	return sb.String()
}

// effectiveSearchPath puts the inline search path of the block producing key
// in front of the file's search path.
func effectiveSearchPath(key string, f *File) []string {
	if f == nil {
		return nil
	}
	for _, b := range f.Blocks {
		if b.Dest == key {
			sp := make([]string, 0, len(b.SearchPath)+len(f.SearchPath))
			sp = append(sp, b.SearchPath...)
			return append(sp, f.SearchPath...)
		}
	}
	return f.SearchPath
}

// Process replaces the blocks of f and rewrites the references of the
// result. A non-empty searchPath replaces the file's search path, with ""
// standing for the file's directory.
func (p *Processor) Process(f *File, searchPath ...string) (string, error) {
	if f == nil {
		return "", ErrNoFile
	}
	if len(searchPath) > 0 {
		sp := make([]string, len(searchPath))
		for i, dir := range searchPath {
			if dir == "" {
				dir = f.Dir
			}
			sp[i] = dir
		}
		f.SearchPath = sp
	}
	logger.Debug("Processing file", logger.String("file", f.Path), logger.Int("blocks", len(f.Blocks)))
	return p.ReplaceWithRevved(p.ReplaceBlocks(f), f), nil
}
