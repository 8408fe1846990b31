// Package usemin ties the block scanner, the flow generators and the
// reference rewriter together over a set of files.
package usemin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/fulmenhq/gousemin/pkg/block"
	"github.com/fulmenhq/gousemin/pkg/flow"
	"github.com/fulmenhq/gousemin/pkg/logger"
	"github.com/fulmenhq/gousemin/pkg/patterns"
	"github.com/fulmenhq/gousemin/pkg/processor"
	"github.com/fulmenhq/gousemin/pkg/revfinder"
	"github.com/fulmenhq/gousemin/pkg/safeio"
	"github.com/fulmenhq/gousemin/pkg/work"
)

// Options configure an Engine. Paths are relative to the root of FS.
type Options struct {
	FS billy.Filesystem
	// Root is the directory inputs and block sources are relative to.
	Root    string
	Dest    string
	Staging string
	// Patterns names the reference table for markup files. Stylesheets and
	// scripts use the css and js tables of the same namespace.
	Patterns string
	// SearchPath replaces the per-file search path; "" is the file's directory.
	SearchPath  []string
	Flow        flow.Flow
	Manifest    string
	StrictMedia bool
	Workers     int
	// DryRun processes files without writing them.
	DryRun bool
}

// Engine processes files with one set of options.
type Engine struct {
	opts       Options
	finder     *revfinder.Finder
	dispatcher *work.Dispatcher
}

// New validates opts and loads the rev manifest, if any.
func New(opts Options) (*Engine, error) {
	if opts.FS == nil {
		return nil, errors.New("missing filesystem")
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Patterns == "" {
		opts.Patterns = "html"
	}
	if opts.Flow.Steps == nil {
		opts.Flow = flow.DefaultFlow()
	}
	if err := opts.Flow.Validate(); err != nil {
		return nil, err
	}
	if _, err := patterns.Lookup(opts.Patterns, nil); err != nil {
		return nil, err
	}

	var finderOpts []revfinder.Option
	if opts.Manifest != "" {
		m, err := revfinder.LoadManifest(opts.FS, opts.Manifest)
		if err != nil {
			return nil, err
		}
		finderOpts = append(finderOpts, revfinder.WithManifest(m))
	}

	return &Engine{
		opts:       opts,
		finder:     revfinder.New(opts.FS, finderOpts...),
		dispatcher: work.NewDispatcher(work.DispatcherConfig{MaxWorkers: opts.Workers}),
	}, nil
}

func (e *Engine) scanOptions() []block.Option {
	if e.opts.StrictMedia {
		return []block.Option{block.WithStrictMedia()}
	}
	return nil
}

// Scan reads and scans every path. Files that fail are reported in the
// summary and left out of the returned slice.
func (e *Engine) Scan(ctx context.Context, paths []string) ([]*processor.File, *work.ExecutionSummary, error) {
	var (
		mu    sync.Mutex
		files = make(map[string]*processor.File, len(paths))
	)
	summary, err := e.dispatcher.Run(ctx, paths, func(_ context.Context, path string) (string, error) {
		f, err := processor.ReadFile(e.opts.FS, path, e.scanOptions()...)
		if err != nil {
			return "", err
		}
		mu.Lock()
		files[path] = f
		mu.Unlock()
		return fmt.Sprintf("%d blocks", len(f.Blocks)), nil
	})

	ordered := make([]*processor.File, 0, len(files))
	for _, p := range paths {
		if f, ok := files[p]; ok {
			ordered = append(ordered, f)
		}
	}
	return ordered, summary, err
}

// Prepare builds the flow configuration of the blocks of files. Each file is
// prepared on its own: a file whose blocks cannot go through the flow fails
// in the returned summary and is left out of the result. The error is only
// set for problems that concern every file.
func (e *Engine) Prepare(ctx context.Context, files []*processor.File) (*flow.Result, *work.ExecutionSummary, error) {
	opts := flow.Options{
		Flow:    e.opts.Flow,
		Root:    e.opts.Root,
		Staging: e.opts.Staging,
		Dest:    e.opts.Dest,
		FS:      e.opts.FS,
	}
	merged, err := flow.Prepare(nil, opts)
	if err != nil {
		return nil, nil, err
	}

	byPath := make(map[string]*processor.File, len(files))
	paths := make([]string, 0, len(files))
	for _, f := range files {
		byPath[f.Path] = f
		paths = append(paths, f.Path)
	}

	var (
		mu      sync.Mutex
		results = make(map[string]*flow.Result, len(files))
	)
	summary, err := e.dispatcher.Run(ctx, paths, func(_ context.Context, path string) (string, error) {
		res, err := flow.Prepare(byPath[path].Blocks, opts)
		if err != nil {
			return "", err
		}
		mu.Lock()
		results[path] = res
		mu.Unlock()
		return "", nil
	})

	for _, p := range paths {
		merged.Merge(results[p])
	}
	return merged, summary, err
}

// Output is the processed form of one file.
type Output struct {
	Path    string
	Dest    string
	Content string
}

// Report sums up a Process run.
type Report struct {
	Summary *work.ExecutionSummary
	Stats   processor.Stats
	Outputs []Output
}

// Process scans paths, prepares the flow, then replaces blocks and
// rewrites references in every file. Results are written under Dest
// unless the engine runs dry. A failing file does not stop the others;
// Report.Summary lists what failed.
func (e *Engine) Process(ctx context.Context, paths []string) (*Report, error) {
	files, summary, err := e.Scan(ctx, paths)
	if err != nil {
		return &Report{Summary: summary}, err
	}

	var index patterns.GeneratedIndex
	if e.opts.Dest != "" {
		res, prepared, err := e.Prepare(ctx, files)
		summary = work.Merge(summary, prepared)
		if err != nil {
			return &Report{Summary: summary}, err
		}
		files = succeeded(files, prepared)
		index = res
	}

	procs := map[string]*processor.Processor{}
	for _, f := range files {
		name := e.tableFor(f.Path)
		if _, ok := procs[name]; ok {
			continue
		}
		pats, err := patterns.Lookup(name, index)
		if err != nil {
			return &Report{Summary: summary}, err
		}
		p, err := processor.New(pats, e.finder, processor.WithLog(func(msg string) { logger.Debug(msg) }))
		if err != nil {
			return &Report{Summary: summary}, err
		}
		procs[name] = p
	}

	byPath := make(map[string]*processor.File, len(files))
	okPaths := make([]string, 0, len(files))
	for _, f := range files {
		byPath[f.Path] = f
		okPaths = append(okPaths, f.Path)
	}

	var (
		mu      sync.Mutex
		outputs = make(map[string]Output, len(files))
	)
	processed, err := e.dispatcher.Run(ctx, okPaths, func(_ context.Context, path string) (string, error) {
		out := Output{Path: path}
		if e.opts.Dest != "" {
			dest, err := safeio.OutputPath(e.opts.Root, e.opts.Dest, path)
			if err != nil {
				return "", err
			}
			out.Dest = dest
		}

		content, err := procs[e.tableFor(path)].Process(byPath[path], e.searchPath(out.Dest)...)
		if err != nil {
			return "", err
		}
		out.Content = content
		if out.Dest != "" && !e.opts.DryRun {
			if err := safeio.WriteFile(e.opts.FS, out.Dest, []byte(content)); err != nil {
				return "", err
			}
		}
		mu.Lock()
		outputs[path] = out
		mu.Unlock()
		return out.Dest, nil
	})

	report := &Report{Summary: work.Merge(summary, processed)}
	for _, p := range procs {
		s := p.Stats()
		report.Stats.BlocksReplaced += s.BlocksReplaced
		report.Stats.ReferencesMatched += s.ReferencesMatched
		report.Stats.ReferencesResolved += s.ReferencesResolved
	}
	for _, path := range paths {
		if o, ok := outputs[path]; ok {
			report.Outputs = append(report.Outputs, o)
		}
	}
	return report, err
}

// searchPath returns the search path of a file written to dest. Each ""
// entry stands for the directory of the output, where the flow writes
// bundles, followed by the file's own directory.
func (e *Engine) searchPath(dest string) []string {
	sp := e.opts.SearchPath
	if len(sp) == 0 {
		sp = []string{""}
	}
	if dest == "" {
		return sp
	}
	out := make([]string, 0, len(sp)+1)
	for _, dir := range sp {
		if dir == "" {
			out = append(out, filepath.ToSlash(filepath.Dir(dest)))
		}
		out = append(out, dir)
	}
	return out
}

// succeeded keeps the files whose result in summary is a success.
func succeeded(files []*processor.File, summary *work.ExecutionSummary) []*processor.File {
	if summary == nil {
		return files
	}
	ok := make(map[string]bool, len(summary.Results))
	for _, r := range summary.Results {
		ok[r.Path] = r.Success
	}
	kept := files[:0:0]
	for _, f := range files {
		if ok[f.Path] {
			kept = append(kept, f)
		}
	}
	return kept
}

// tableFor picks the pattern table of path from its extension.
func (e *Engine) tableFor(path string) string {
	ns := ""
	if i := strings.Index(e.opts.Patterns, ":"); i >= 0 {
		ns = e.opts.Patterns[:i+1]
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".css":
		return ns + "css"
	case ".js":
		if ns != "" {
			// Template namespaces carry no script table; markers still apply.
			return ns + "html"
		}
		return "js"
	default:
		return e.opts.Patterns
	}
}
