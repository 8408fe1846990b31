/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fulmenhq/gousemin/internal/ops"
	"github.com/fulmenhq/gousemin/pkg/buildinfo"
	"github.com/fulmenhq/gousemin/pkg/exitcode"
	"github.com/fulmenhq/gousemin/pkg/logger"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gousemin",
		Short: "Replace build blocks and rewrite asset references to revved files",
		Long: `gousemin scans HTML, CSS, JS and Django templates for build blocks,
replaces each block with a single reference to its bundle and rewrites
asset references to their revved (content-hashed) names.

Examples:
   gousemin blocks app/index.html        # List the build blocks of a file
   gousemin prepare app/index.html       # Emit concat/uglify/cssmin configuration
   gousemin process --dest dist          # Process every template under root
   gousemin process --stdout index.html  # Print the processed file`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file (default .gousemin.yaml or gousemin.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.SetGlobalNormalizationFunc(normalizeFlagName)

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("gousemin {{.Version}}\n")

	cmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		if cmd.HasParent() {
			cmd.Println(cmd.Long)
			cmd.Println()
			cmd.Print(cmd.UsageString())
			return
		}
		reg := ops.GetRegistry()
		cmd.Println(cmd.Long)
		cmd.Println()
		for _, group := range ops.Groups {
			cmds := reg.GetCommandsByGroup(group)
			if len(cmds) == 0 {
				continue
			}
			cmd.Printf("%s Commands:\n", strings.ToUpper(string(group[:1]))+string(group[1:]))
			for _, c := range cmds {
				cmd.Printf("  %-12s %s\n", c.Name, c.Description)
			}
			cmd.Println()
		}
		cmd.Println("Flags:")
		cmd.Print(cmd.UsageString())
	})

	return cmd
}

// normalizeFlagName accepts --dry_run for --dry-run.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// registerSubcommands adds all subcommands to the root command.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newBlocksCommand())
	cmd.AddCommand(newPrepareCommand())
	cmd.AddCommand(newProcessCommand())
	cmd.AddCommand(newVersionCommand())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if logger.Enabled(logger.ErrorLevel) {
			logger.Error("Command execution failed", logger.Err(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

func init() {
	registerSubcommands(rootCmd)

	for _, c := range rootCmd.Commands() {
		group, desc, json := ops.GroupBuild, c.Short, false
		switch c.Name() {
		case "version":
			group = ops.GroupSupport
		case "blocks", "prepare", "process":
			json = true
		default:
			continue
		}
		if err := ops.RegisterCommand(ops.CommandRegistration{
			Name:         c.Name(),
			Group:        group,
			Command:      c,
			Description:  desc,
			SupportsJSON: json,
		}); err != nil {
			panic(fmt.Sprintf("Failed to register %s command: %v", c.Name(), err))
		}
	}
}

// configError marks failures to load or validate configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ce *configError
	if errors.As(err, &ce) {
		return exitcode.ConfigError
	}
	return exitcode.FromError(err)
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) error {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	dryRun := false
	if f := cmd.Flags().Lookup("dry-run"); f != nil {
		dryRun = f.Value.String() == "true"
	}

	level, err := logger.ParseLevel(logLevelStr)
	if err != nil {
		return &configError{err: err}
	}

	return logger.Initialize(logger.Config{
		Level:     level,
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "gousemin",
		DryRun:    dryRun,
	})
}
