package flow

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"

	"github.com/fulmenhq/gousemin/pkg/block"
	"github.com/fulmenhq/gousemin/pkg/logger"
	"github.com/fulmenhq/gousemin/pkg/patterns"
)

// Flow maps block types to the ordered steps building them.
type Flow struct {
	Steps map[string][]string `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// DefaultFlow concatenates then minifies scripts and stylesheets.
func DefaultFlow() Flow {
	return Flow{Steps: map[string][]string{
		"js":  {"concat", "uglify"},
		"css": {"concat", "cssmin"},
	}}
}

// Validate reports the first unknown step name.
func (f Flow) Validate() error {
	for _, steps := range f.Steps {
		for _, s := range steps {
			if _, err := LookupGenerator(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// Options locate the directories a flow reads from and writes to.
type Options struct {
	Flow Flow
	// Root is the directory block sources are relative to.
	Root string
	// Staging receives intermediate outputs, one subdirectory per step.
	Staging string
	// Dest receives the block destinations.
	Dest string
	FS   billy.Filesystem
}

// Result holds the configuration of every step, merged across blocks.
type Result struct {
	Dest    string            `json:"dest" yaml:"dest"`
	Configs map[string]Config `json:"configs" yaml:"configs"`

	wrappings map[string]patterns.Wrapping
}

// Lookup returns the template wrapping recorded for the generated file
// referenced as ref.
func (r *Result) Lookup(ref string) (patterns.Wrapping, bool) {
	if r == nil {
		return patterns.Wrapping{}, false
	}
	w, ok := r.wrappings[filepath.Join(r.Dest, ref)]
	return w, ok
}

// Merge appends the configurations and wrappings of o to r. Steps keep the
// order in which their results were merged.
func (r *Result) Merge(o *Result) {
	if o == nil {
		return
	}
	for step, cfg := range o.Configs {
		c := r.Configs[step]
		c.Files = append(c.Files, cfg.Files...)
		r.Configs[step] = c
	}
	for dest, w := range o.wrappings {
		r.wrappings[dest] = w
	}
}

func (r *Result) add(step string, cfg Config, last bool) {
	if len(cfg.Files) == 0 {
		return
	}
	c := r.Configs[step]
	c.Files = append(c.Files, cfg.Files...)
	r.Configs[step] = c
	if !last {
		return
	}
	for _, fs := range cfg.Files {
		r.wrappings[fs.Dest] = fs.Wrapping
	}
}

// Prepare runs the generators of opts.Flow over blocks. Blocks of a type
// without steps are skipped; rev-only blocks only record their wrapping.
func Prepare(blocks []block.Block, opts Options) (*Result, error) {
	if err := opts.Flow.Validate(); err != nil {
		return nil, err
	}
	if opts.Dest == "" {
		return nil, fmt.Errorf("%w: dest", ErrMissingContext)
	}
	staging := opts.Staging
	if staging == "" {
		staging = ".tmp"
	}
	root := opts.Root
	if root == "" {
		root = "."
	}

	r := &Result{
		Dest:      opts.Dest,
		Configs:   map[string]Config{},
		wrappings: map[string]patterns.Wrapping{},
	}
	for _, b := range blocks {
		if b.RevOnly {
			_, w, err := decodeInputs(b.Src)
			if err != nil {
				return nil, &Error{Step: "revonly", Dest: b.Dest, Src: b.Src, Err: err}
			}
			r.wrappings[filepath.Join(opts.Dest, destOf(b))] = w
			continue
		}

		steps := opts.Flow.Steps[b.Type]
		if len(steps) == 0 {
			logger.Debug("No flow for block type", logger.String("type", b.Type), logger.String("block", b.Dest))
			continue
		}

		ctx := &Context{InDir: root, InFiles: b.Src, FS: opts.FS}
		if len(b.SearchPath) > 0 {
			for _, sp := range b.SearchPath {
				ctx.InDirs = append(ctx.InDirs, filepath.Join(root, sp))
			}
			ctx.InDirs = append(ctx.InDirs, root)
		}

		for i, name := range steps {
			g, err := LookupGenerator(name)
			if err != nil {
				return nil, err
			}
			ctx.Last = i == len(steps)-1
			ctx.OutDir = filepath.Join(staging, name)
			if ctx.Last {
				ctx.OutDir = opts.Dest
			}

			cfg, err := g.CreateConfig(ctx, b)
			if err != nil {
				return nil, err
			}
			r.add(name, cfg, ctx.Last)

			ctx.InDir = ctx.OutDir
			ctx.InDirs = nil
			ctx.InFiles = ctx.OutFiles
		}
	}
	return r, nil
}
