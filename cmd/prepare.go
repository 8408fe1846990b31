/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/gousemin/pkg/logger"
	"github.com/fulmenhq/gousemin/pkg/work"
)

func newPrepareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare [files...]",
		Short: "Emit concat, uglify and cssmin configuration for build blocks",
		Long: `Scan files for build blocks and run the configured flow over them.

The output lists, per step, every destination with the sources it is
built from. Staging directories hold intermediate steps; the last step
of each block writes under --dest.`,
		RunE: runPrepare,
	}
	addEngineFlags(cmd)
	cmd.Flags().String("format", "yaml", "Output format (yaml|json)")
	cmd.Flags().StringSlice("include", nil, "Glob patterns selecting inputs when none are given")
	cmd.Flags().StringSlice("exclude", nil, "Glob patterns dropping discovered inputs")
	return cmd
}

func runPrepare(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd, "yaml", "json")
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
	engine, err := newEngine(fs, cfg, true)
	if err != nil {
		return err
	}

	files, summary, err := engine.Scan(cmd.Context(), paths)
	if err != nil {
		return err
	}
	result, prepared, err := engine.Prepare(cmd.Context(), files)
	if err != nil {
		return err
	}
	summary = work.Merge(summary, prepared)
	for _, r := range summary.Results {
		if !r.Success {
			logger.Error("Failed to prepare file", logger.String("file", r.Path), logger.String("error", r.Error))
		}
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode flow configuration: %w", err)
		}
	default:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode flow configuration: %w", err)
		}
		if err := enc.Close(); err != nil {
			return err
		}
	}
	return summary.FirstError()
}
