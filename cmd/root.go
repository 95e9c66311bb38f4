/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"os"
	"strings"

	"github.com/fulmenhq/depscout/internal/ops"
	"github.com/fulmenhq/depscout/pkg/buildinfo"
	"github.com/fulmenhq/depscout/pkg/exitcode"
	"github.com/fulmenhq/depscout/pkg/logger"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depscout",
		Short: "Runtime dependency scanner for Windows hosts",
		Long: `Depscout enumerates the runtime frameworks a Windows host depends on:
Java runtimes, .NET runtimes, and SQL database engines. Evidence from the
registry, the filesystem, and the live process table is merged into a single
report and classified against an end-of-life catalog.

Examples:
   depscout scan                  # Full scan, report to dependency_report.json
   depscout scan --fail-on eol_frameworks   # Gate CI on end-of-life findings
   depscout frameworks            # Installed frameworks only
   depscout doctor                # Check probe tools and host access
   depscout version               # Show version (use --extended for build info)`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json-logs", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().String("config", "", "Configuration file overriding the discovered ones")

	// Wire Cobra's built-in --version using depscout's binary version
	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("depscout {{.Version}}\n")

	// Grouped help by command group (Scan → Utility → Support)
	cmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		reg := ops.GetRegistry()
		cmd.Println(cmd.Long)
		cmd.Println()
		cmd.Println("Scan Commands:")
		for _, c := range reg.GetCommandsByGroup(ops.GroupScan) {
			cmd.Printf("  %-12s %s\n", c.Name, c.Description)
		}
		cmd.Println()
		cmd.Println("Utility Commands:")
		for _, c := range reg.GetCommandsByGroup(ops.GroupUtility) {
			cmd.Printf("  %-12s %s\n", c.Name, c.Description)
		}
		cmd.Println()
		cmd.Println("Support Commands:")
		for _, c := range reg.GetCommandsByGroup(ops.GroupSupport) {
			cmd.Printf("  %-12s %s\n", c.Name, c.Description)
		}
		cmd.Println()
		cmd.Println("Flags:")
		cmd.Print(cmd.UsageString())
	})

	return cmd
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command. It is called by main.main() and only
// needs to happen once.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitcode.GeneralError)
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")
	noColor, _ := cmd.Flags().GetBool("no-color")

	var logLevel logger.Level
	switch strings.ToLower(logLevelStr) {
	case "trace":
		logLevel = logger.TraceLevel
	case "debug":
		logLevel = logger.DebugLevel
	case "info":
		logLevel = logger.InfoLevel
	case "warn":
		logLevel = logger.WarnLevel
	case "error":
		logLevel = logger.ErrorLevel
	default:
		logLevel = logger.InfoLevel
	}

	config := logger.Config{
		Level:     logLevel,
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "depscout",
	}

	if err := logger.Initialize(config); err != nil {
		if _, writeErr := os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n"); writeErr != nil {
			_ = writeErr
		}
		os.Exit(exitcode.ConfigError)
	}
}
