/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/gousemin/pkg/buildinfo"
	"github.com/fulmenhq/gousemin/pkg/config"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show the gousemin version.

With --extended, the commit, build date, Go version, platform and the
supported config schema versions are shown as well. The global --json flag
switches to JSON output.`,
		Args: cobra.NoArgs,
		RunE: runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show detailed build information")
	return cmd
}

type versionInfo struct {
	buildinfo.Info `yaml:",inline"`
	Schemas        []string `json:"config_schemas,omitempty"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	info := versionInfo{Info: buildinfo.Get()}
	if extended {
		schemas, err := config.GetAvailableSchemas()
		if err != nil {
			return err
		}
		info.Schemas = schemas
	}

	if jsonOutput {
		if !extended {
			info = versionInfo{Info: buildinfo.Info{
				Version:   info.Version,
				GoVersion: info.GoVersion,
				Platform:  info.Platform,
			}}
		}
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %v", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "gousemin %s\n", info.Version)
	if !extended {
		return nil
	}
	if info.Module != "" && info.Module != info.Version {
		fmt.Fprintf(out, "Module version: %s\n", info.Module)
	}
	commit := info.Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	if commit == "" {
		commit = "unknown"
	}
	fmt.Fprintf(out, "Git commit: %s\n", commit)
	if info.BuildDate != "" {
		fmt.Fprintf(out, "Build date: %s\n", info.BuildDate)
	}
	fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "Platform: %s\n", info.Platform)
	fmt.Fprintf(out, "Config schemas: %v\n", info.Schemas)
	return nil
}
