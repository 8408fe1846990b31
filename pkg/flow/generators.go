package flow

import (
	"path/filepath"

	"github.com/fulmenhq/gousemin/pkg/block"
	"github.com/fulmenhq/gousemin/pkg/logger"
	"github.com/fulmenhq/gousemin/pkg/patterns"
	"github.com/fulmenhq/gousemin/pkg/tplurl"
)

// Concat joins every source of a block into one file named after its dest.
type Concat struct{}

func (Concat) Name() string { return "concat" }

func (c Concat) CreateConfig(ctx *Context, b block.Block) (Config, error) {
	if err := ctx.validate(); err != nil {
		return Config{}, err
	}
	raws, err := ctx.adopt(c.Name(), b)
	if err != nil {
		return Config{}, err
	}

	dest := destOf(b)
	fs := FileSet{Dest: filepath.Join(ctx.OutDir, dest), Src: []string{}, Wrapping: ctx.wrapping}
	for _, f := range raws {
		if len(ctx.InDirs) == 0 {
			fs.Src = append(fs.Src, filepath.Join(ctx.InDir, f))
			continue
		}
		if src, ok := ctx.locate(f); ok {
			fs.Src = append(fs.Src, src)
		} else {
			logger.Warn("Source not found in any search directory", logger.String("src", f), logger.String("block", b.Dest))
		}
	}

	ctx.OutFiles = []string{dest}
	return Config{Files: []FileSet{fs}}, nil
}

// Uglify minifies script files. Rev-only blocks produce no configuration.
type Uglify struct{}

func (Uglify) Name() string { return "uglify" }

func (u Uglify) CreateConfig(ctx *Context, b block.Block) (Config, error) {
	if b.RevOnly {
		return Config{}, nil
	}
	if err := ctx.validate(); err != nil {
		return Config{}, err
	}
	raws, err := ctx.adopt(u.Name(), b)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	ctx.OutFiles = nil
	if ctx.Last {
		dest := destOf(b)
		fs := FileSet{Dest: filepath.Join(ctx.OutDir, dest), Src: make([]string, 0, len(raws)), Wrapping: ctx.wrapping}
		for _, f := range raws {
			fs.Src = append(fs.Src, filepath.Join(ctx.inDir(), f))
		}
		cfg.Files = append(cfg.Files, fs)
		ctx.OutFiles = append(ctx.OutFiles, dest)
		return cfg, nil
	}

	for _, f := range raws {
		cfg.Files = append(cfg.Files, FileSet{
			Dest:     filepath.Join(ctx.OutDir, f),
			Src:      []string{filepath.Join(ctx.inDir(), f)},
			Wrapping: ctx.wrapping,
		})
		ctx.OutFiles = append(ctx.OutFiles, f)
	}
	return cfg, nil
}

// CSSMin minifies every input of a block into its dest.
type CSSMin struct{}

func (CSSMin) Name() string { return "cssmin" }

func (c CSSMin) CreateConfig(ctx *Context, b block.Block) (Config, error) {
	if err := ctx.validate(); err != nil {
		return Config{}, err
	}
	raws, err := ctx.adopt(c.Name(), b)
	if err != nil {
		return Config{}, err
	}

	dest := destOf(b)
	fs := FileSet{Dest: filepath.Join(ctx.OutDir, dest), Src: make([]string, 0, len(raws)), Wrapping: ctx.wrapping}
	for _, f := range raws {
		fs.Src = append(fs.Src, filepath.Join(ctx.inDir(), f))
	}
	ctx.OutFiles = []string{dest}
	return Config{Files: []FileSet{fs}}, nil
}

// adopt decodes the inputs of ctx. A template wrapping found on them
// replaces the one carried over from earlier steps.
func (c *Context) adopt(step string, b block.Block) ([]string, error) {
	raws, w, err := decodeInputs(c.InFiles)
	if err != nil {
		return nil, &Error{Step: step, Dest: b.Dest, Src: append([]string(nil), c.InFiles...), Err: err}
	}
	if w != (patterns.Wrapping{}) {
		c.wrapping = w
	}
	return raws, nil
}

func (c *Context) inDir() string {
	if c.InDir == "" && len(c.InDirs) > 0 {
		return c.InDirs[0]
	}
	return c.InDir
}

// locate returns the path of f in the first of InDirs holding it.
func (c *Context) locate(f string) (string, bool) {
	for _, d := range c.InDirs {
		p := filepath.Join(d, f)
		if c.FS == nil {
			return p, true
		}
		if _, err := c.FS.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func destOf(b block.Block) string {
	return tplurl.Decode(b.Dest).Raw
}
