/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/depscout/internal/ascii"
	"github.com/fulmenhq/depscout/internal/ops"
	"github.com/fulmenhq/depscout/internal/scan"
)

// processesCmd represents the processes command
var processesCmd = &cobra.Command{
	Use:   "processes",
	Short: "Inspect running processes for framework usage (phase 3 only)",
	Long: `Processes enumerates the live process table, recognizes .NET runtimes
from coreclr.dll module paths, flags self-contained .NET apps, and probes
JVM processes with java -version. Module enumeration needs Windows; other
platforms report the phase unsupported.`,
	Args: cobra.NoArgs,
	RunE: runProcesses,
}

func init() {
	rootCmd.AddCommand(processesCmd)

	capabilities := ops.GetDefaultCapabilities(ops.GroupScan, ops.CategoryInspection)
	if err := ops.RegisterCommandWithTaxonomy("processes", ops.GroupScan, ops.CategoryInspection, capabilities, processesCmd, "Inspect running processes for framework usage"); err != nil {
		panic(fmt.Sprintf("Failed to register processes command: %v", err))
	}

	processesCmd.Flags().Bool("json", false, "Output findings as JSON")
	processesCmd.Flags().Duration("java-probe-timeout", 0, "Timeout for each java -version probe")
}

func runProcesses(cmd *cobra.Command, _ []string) error {
	cfg, err := loadScanConfig(cmd)
	if err != nil {
		return err
	}
	engine, err := scan.NewEngine(cfg)
	if err != nil {
		return err
	}

	result, err := engine.ScanProcesses(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(cmd, result)
	}

	if len(result.Frameworks) > 0 {
		cmd.Println("Running frameworks:")
		cmd.Print(frameworksTable(result.Frameworks))
	}
	if len(result.Findings) == 0 {
		if len(result.Frameworks) == 0 {
			cmd.Println("No framework usage observed in running processes.")
		}
		return nil
	}
	rows := make([][]string, 0, len(result.Findings))
	for _, f := range result.Findings {
		dep := f.Dependency
		rows = append(rows, []string{
			f.Category, dep.Process, strconv.Itoa(int(dep.PID)), dep.Kind, dep.Version,
		})
	}
	cmd.Println("Process dependencies:")
	cmd.Print(ascii.Table([]string{"Category", "Process", "PID", "Kind", "Version"}, rows))
	return nil
}
