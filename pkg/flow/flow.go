// Package flow generates the configuration of the external build steps
// (concatenation, minification) that turn the sources of a block into its
// destination file.
package flow

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/fulmenhq/gousemin/pkg/block"
	"github.com/fulmenhq/gousemin/pkg/patterns"
	"github.com/fulmenhq/gousemin/pkg/tplurl"
)

var (
	ErrMixedTemplate    = errors.New("mixing {% static %} tag with template var or other tag prefix in the same block not supported")
	ErrMixedPrefix      = errors.New("different template var or tag prefix in the same block not supported")
	ErrMixedSuffix      = errors.New("different suffix after {% static %} tag in the same block not supported")
	ErrMissingContext   = errors.New("missing required context fields")
	ErrUnknownGenerator = errors.New("unknown flow step")
)

// Error reports a block whose sources cannot go through one generator.
type Error struct {
	Step string
	Dest string
	Src  []string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: block %s: %v\n  src: [%s]", e.Step, e.Dest, e.Err, strings.Join(e.Src, ", "))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Context carries the state threaded through the steps of one block. A
// generator reads InFiles and writes OutFiles for the next step.
type Context struct {
	InDir string
	// InDirs, when set, replaces InDir: the first directory holding an input wins.
	InDirs   []string
	OutDir   string
	InFiles  []string
	OutFiles []string
	// Last is true for the final step, which writes the block destination.
	Last bool
	// FS is used to probe InDirs. Without it the first directory is used.
	FS billy.Filesystem

	wrapping patterns.Wrapping
}

func (c *Context) validate() error {
	if c.OutDir == "" || (c.InDir == "" && len(c.InDirs) == 0) {
		return ErrMissingContext
	}
	return nil
}

// FileSet is one output of a step with the inputs it is built from.
type FileSet struct {
	Dest              string   `json:"dest" yaml:"dest"`
	Src               []string `json:"src" yaml:"src"`
	patterns.Wrapping `yaml:",inline"`
}

// Config is what a generator produces for one block.
type Config struct {
	Files []FileSet `json:"files" yaml:"files"`
}

// Generator creates the configuration of one step.
type Generator interface {
	Name() string
	CreateConfig(ctx *Context, b block.Block) (Config, error)
}

var generators = map[string]Generator{
	Concat{}.Name(): Concat{},
	Uglify{}.Name(): Uglify{},
	CSSMin{}.Name(): CSSMin{},
}

// LookupGenerator returns the generator registered under name.
func LookupGenerator(name string) (Generator, error) {
	g, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnknownGenerator, name, strings.Join(GeneratorNames(), ", "))
	}
	return g, nil
}

// GeneratorNames lists the registered generators.
func GeneratorNames() []string {
	names := make([]string, 0, len(generators))
	for n := range generators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// decodeInputs strips the template syntax of files and returns the wrapping
// they share.
func decodeInputs(files []string) ([]string, patterns.Wrapping, error) {
	var (
		raws          = make([]string, 0, len(files))
		prefix        string
		prefixSet     bool
		suffix        string
		staticSet     bool
		templatedVars bool
	)
	for _, f := range files {
		m := tplurl.Decode(f)
		switch m.Kind {
		case tplurl.KindStaticTag:
			if templatedVars {
				return nil, patterns.Wrapping{}, ErrMixedTemplate
			}
			if staticSet && suffix != m.Suffix {
				return nil, patterns.Wrapping{}, ErrMixedSuffix
			}
			suffix, staticSet = m.Suffix, true
		default:
			if m.Kind == tplurl.KindVarPrefix {
				if staticSet {
					return nil, patterns.Wrapping{}, ErrMixedTemplate
				}
				templatedVars = true
			}
			if prefixSet && prefix != m.Prefix {
				return nil, patterns.Wrapping{}, ErrMixedPrefix
			}
			prefix, prefixSet = m.Prefix, true
		}
		raws = append(raws, m.Raw)
	}

	var w patterns.Wrapping
	switch {
	case prefix != "":
		w.Prefix = prefix
	case staticSet:
		w.Static = true
		w.SuffixStatic = suffix
	}
	return raws, w, nil
}
