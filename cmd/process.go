/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/gousemin/pkg/config"
	"github.com/fulmenhq/gousemin/pkg/logger"
	"github.com/fulmenhq/gousemin/pkg/usemin"
)

func newProcessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [files...]",
		Short: "Replace build blocks and rewrite references to revved files",
		Long: `Replace every build block with a reference to its bundle and rewrite
asset references to their revved names.

Results are written under --dest, keeping each file's path relative to
--root. With --stdout nothing is written and the processed content is
printed instead. Without file arguments, inputs are discovered under the
configured root using the include and exclude globs, .gitignore and
.useminignore.

A file that fails does not stop the others; the command exits non-zero
once every file has been handled.`,
		RunE: runProcess,
	}
	addEngineFlags(cmd)
	cmd.Flags().StringSlice("include", nil, "Glob patterns selecting inputs when none are given")
	cmd.Flags().StringSlice("exclude", nil, "Glob patterns dropping discovered inputs")
	cmd.Flags().Bool("stdout", false, "Print processed files instead of writing them")
	cmd.Flags().Bool("dry-run", false, "Process files without writing them")
	cmd.Flags().String("format", "text", "Summary format (text|json)")
	cmd.Flags().Bool("watch", false, "Re-process inputs when they change")
	return cmd
}

type processRun struct {
	cfg    *config.Config
	engine *usemin.Engine
	paths  []string
	stdout bool
	format string
	out    io.Writer
}

func runProcess(cmd *cobra.Command, args []string) error {
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

	stdout, _ := cmd.Flags().GetBool("stdout")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	engine, err := newEngine(fs, cfg, dryRun || stdout)
	if err != nil {
		return err
	}

	run := &processRun{
		cfg:    cfg,
		engine: engine,
		paths:  paths,
		stdout: stdout,
		format: format,
		out:    cmd.OutOrStdout(),
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := run.once(ctx); err != nil {
			logger.Warn("Initial run failed", logger.Err(err))
		}
		return watchInputs(ctx, run)
	}
	return run.once(cmd.Context())
}

// once processes every input and reports the outcome.
func (r *processRun) once(ctx context.Context) error {
	if len(r.paths) == 0 {
		logger.Warn("No input files found", logger.String("root", r.cfg.Root))
		return nil
	}

	report, err := r.engine.Process(ctx, r.paths)
	if err != nil {
		return err
	}

	for _, res := range report.Summary.Results {
		if !res.Success {
			logger.Error("Failed to process file", logger.String("file", res.Path), logger.String("error", res.Error))
		}
	}

	if r.stdout {
		for i, o := range report.Outputs {
			if len(report.Outputs) > 1 {
				if i > 0 {
					fmt.Fprintln(r.out)
				}
				fmt.Fprintf(r.out, "==> %s <==\n", o.Path)
			}
			fmt.Fprint(r.out, o.Content)
		}
	} else if r.format == "json" {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(processReport(report)); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	}

	logger.Info("Processing complete",
		logger.Int("files", report.Summary.TotalItems),
		logger.Int("failed", report.Summary.Failed),
		logger.Int64("blocks", report.Stats.BlocksReplaced),
		logger.Int64("references", report.Stats.ReferencesResolved),
		logger.Duration("duration", report.Summary.TotalDuration))

	if report.Summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed: %w", report.Summary.Failed, report.Summary.TotalItems, report.Summary.FirstError())
	}
	return nil
}

type jsonReport struct {
	Files              int              `json:"files"`
	Failed             int              `json:"failed"`
	BlocksReplaced     int64            `json:"blocks_replaced"`
	ReferencesMatched  int64            `json:"references_matched"`
	ReferencesResolved int64            `json:"references_resolved"`
	Outputs            []jsonOutput     `json:"outputs"`
	Results            []jsonFileResult `json:"results"`
}

type jsonOutput struct {
	Path string `json:"path"`
	Dest string `json:"dest,omitempty"`
}

type jsonFileResult struct {
	Path    string `json:"path"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func processReport(report *usemin.Report) jsonReport {
	out := jsonReport{
		Files:              report.Summary.TotalItems,
		Failed:             report.Summary.Failed,
		BlocksReplaced:     report.Stats.BlocksReplaced,
		ReferencesMatched:  report.Stats.ReferencesMatched,
		ReferencesResolved: report.Stats.ReferencesResolved,
		Outputs:            []jsonOutput{},
		Results:            []jsonFileResult{},
	}
	for _, o := range report.Outputs {
		out.Outputs = append(out.Outputs, jsonOutput{Path: o.Path, Dest: o.Dest})
	}
	for _, r := range report.Summary.Results {
		out.Results = append(out.Results, jsonFileResult{Path: r.Path, Success: r.Success, Error: r.Error})
	}
	return out
}
