/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fulmenhq/gousemin/pkg/ascii"
	"github.com/fulmenhq/gousemin/pkg/block"
	"github.com/fulmenhq/gousemin/pkg/logger"
	"github.com/fulmenhq/gousemin/pkg/processor"
)

func newBlocksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks [files...]",
		Short: "List the build blocks of files",
		Long: `Scan files for build blocks and list them.

Each block shows its line, type, destination and source references.
Without file arguments, inputs are discovered under the configured root.`,
		RunE: runBlocks,
	}
	cmd.Flags().String("format", "text", "Output format (text|json)")
	cmd.Flags().String("root", "", "Directory inputs are discovered under")
	cmd.Flags().StringSlice("include", nil, "Glob patterns selecting inputs when none are given")
	cmd.Flags().StringSlice("exclude", nil, "Glob patterns dropping discovered inputs")
	cmd.Flags().Bool("strict-media", false, "Fail on blocks whose stylesheets declare different media")
	return cmd
}

type fileBlocks struct {
	File   string        `json:"file"`
	Blocks []block.Block `json:"blocks"`
}

func runBlocks(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd, "text", "json")
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fs, err := workingFS()
	if err != nil {
		return err
	}
	paths, err := inputPaths(fs, cfg, args)
	if err != nil {
		return err
	}

	var opts []block.Option
	if cfg.Scan.StrictMedia {
		opts = append(opts, block.WithStrictMedia())
	}

	var (
		results []fileBlocks
		failed  error
	)
	for _, p := range paths {
		f, err := processor.ReadFile(fs, p, opts...)
		if err != nil {
			logger.Error("Failed to scan file", logger.String("file", p), logger.Err(err))
			if failed == nil {
				failed = err
			}
			continue
		}
		results = append(results, fileBlocks{File: f.Path, Blocks: f.Blocks})
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if results == nil {
			results = []fileBlocks{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode blocks: %w", err)
		}
	} else {
		writeBlocksTable(out, results)
	}
	return failed
}

var blockTypeCase = cases.Upper(language.Und)

const maxSourcesWidth = 60

func writeBlocksTable(w io.Writer, results []fileBlocks) {
	rows := [][]string{{"FILE", "LINE", "TYPE", "DEST", "SOURCES", "NOTES"}}
	for _, r := range results {
		for _, b := range r.Blocks {
			rows = append(rows, []string{
				r.File,
				fmt.Sprint(b.Line),
				blockTypeCase.String(b.Type),
				b.Dest,
				ascii.Truncate(strings.Join(b.Src, " "), maxSourcesWidth),
				blockNotes(b),
			})
		}
	}
	if len(rows) == 1 {
		fmt.Fprintln(w, "No build blocks found")
		return
	}
	fmt.Fprint(w, ascii.Table(rows))
}

func blockNotes(b block.Block) string {
	var notes []string
	if b.RevOnly {
		notes = append(notes, "rev-only")
	}
	if b.Media != "" {
		notes = append(notes, "media="+b.Media)
	}
	if b.MediaConflict {
		notes = append(notes, "media-conflict")
	}
	if b.Defer {
		notes = append(notes, "defer")
	}
	if b.Async {
		notes = append(notes, "async")
	}
	if b.ConditionalStart != "" {
		notes = append(notes, "conditional")
	}
	return strings.Join(notes, ",")
}
