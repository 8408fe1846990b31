/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/fulmenhq/gousemin/pkg/config"
	"github.com/fulmenhq/gousemin/pkg/ignore"
	"github.com/fulmenhq/gousemin/pkg/logger"
	"github.com/fulmenhq/gousemin/pkg/pathfinder"
	"github.com/fulmenhq/gousemin/pkg/safeio"
	"github.com/fulmenhq/gousemin/pkg/usemin"
)

// addEngineFlags registers the flags shared by commands that build an engine.
// Each flag overrides the config key of the same name when set.
func addEngineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("root", "", "Directory inputs and block sources are relative to")
	f.String("dest", "", "Directory receiving processed files and block outputs")
	f.String("staging", "", "Directory receiving intermediate flow outputs")
	f.String("patterns", "", "Reference table for markup files (html, django:html)")
	f.StringSlice("search-path", nil, "Directories references are resolved against (\"\" is the file's directory)")
	f.String("manifest", "", "Rev manifest (JSON, YAML or TOML) mapping logical paths to revved paths")
	f.Int("workers", 0, "Files processed concurrently (0 = number of CPUs)")
	f.Bool("strict-media", false, "Fail on blocks whose stylesheets declare different media")
}

// loadConfig loads configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, &configError{err: err}
	}
	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, &configError{err: err}
	}
	if used := config.ConfigFileUsed(); used != "" {
		logger.Debug("Loaded configuration", logger.String("file", used))
	}
	return cfg, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	str("root", &cfg.Root)
	str("dest", &cfg.Dest)
	str("staging", &cfg.Staging)
	str("patterns", &cfg.Patterns)
	str("manifest", &cfg.Finder.Manifest)
	if f.Changed("search-path") {
		cfg.SearchPath, _ = f.GetStringSlice("search-path")
	}
	if f.Changed("workers") {
		cfg.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("strict-media") {
		cfg.Scan.StrictMedia, _ = f.GetBool("strict-media")
	}
	if f.Changed("include") {
		cfg.Include, _ = f.GetStringSlice("include")
	}
	if f.Changed("exclude") {
		cfg.Exclude, _ = f.GetStringSlice("exclude")
	}
}

// workingFS is the filesystem every command operates on.
func workingFS() (billy.Filesystem, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return osfs.New(wd), nil
}

func newEngine(fs billy.Filesystem, cfg *config.Config, dryRun bool) (*usemin.Engine, error) {
	return usemin.New(usemin.Options{
		FS:          fs,
		Root:        cfg.Root,
		Dest:        cfg.Dest,
		Staging:     cfg.Staging,
		Patterns:    cfg.Patterns,
		SearchPath:  cfg.SearchPath,
		Flow:        cfg.Flow,
		Manifest:    cfg.Finder.Manifest,
		StrictMedia: cfg.Scan.StrictMedia,
		Workers:     cfg.Workers,
		DryRun:      dryRun,
	})
}

// inputPaths turns command arguments into paths relative to the working
// directory. Without arguments, inputs are discovered under cfg.Root.
func inputPaths(fs billy.Filesystem, cfg *config.Config, args []string) ([]string, error) {
	if len(args) == 0 {
		return discoverInputs(fs, cfg)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		p := arg
		if filepath.IsAbs(p) {
			if p, err = filepath.Rel(wd, p); err != nil {
				return nil, err
			}
		}
		clean, err := safeio.CleanUserPath(p)
		if err != nil {
			return nil, fmt.Errorf("invalid input %s: %w", arg, err)
		}
		paths = append(paths, filepath.ToSlash(clean))
	}
	return paths, nil
}

func discoverInputs(fs billy.Filesystem, cfg *config.Config) ([]string, error) {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	rootFS, err := fs.Chroot(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open root %s: %w", root, err)
	}

	userIgnore := ""
	if home, err := os.UserHomeDir(); err == nil {
		userIgnore = filepath.Join(home, ".config", "gousemin", "ignore")
	}
	matcher, err := ignore.NewMatcher(rootFS, userIgnore)
	if err != nil {
		return nil, err
	}

	found, err := pathfinder.DiscoverFiles(rootFS, ".", pathfinder.DiscoveryOptions{
		IncludePatterns: cfg.Include,
		ExcludePatterns: cfg.Exclude,
		Ignore:          matcher,
		ProgressCallback: func(n int, current string) {
			logger.Trace("Discovering inputs", logger.Int("found", n), logger.String("path", current))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover inputs under %s: %w", root, err)
	}

	paths := make([]string, 0, len(found))
	for _, p := range found {
		paths = append(paths, filepath.ToSlash(filepath.Join(root, p)))
	}
	logger.Debug("Discovered inputs", logger.String("root", root), logger.Int("count", len(paths)))
	return paths, nil
}

// outputFormat resolves --format, falling back to JSON when the global
// --json flag is set.
func outputFormat(cmd *cobra.Command, allowed ...string) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	if !cmd.Flags().Changed("format") {
		if j, _ := cmd.Flags().GetBool("json"); j {
			format = "json"
		}
	}
	for _, a := range allowed {
		if format == a {
			return format, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q", format)
}
