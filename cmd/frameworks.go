/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/depscout/internal/ascii"
	"github.com/fulmenhq/depscout/internal/ops"
	"github.com/fulmenhq/depscout/internal/report"
	"github.com/fulmenhq/depscout/internal/scan"
)

// frameworksCmd represents the frameworks command
var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "Detect installed frameworks (phase 1 only)",
	Long: `Frameworks runs only the framework detectors: Java registry keys,
dotnet --list-runtimes, SQL Server registry entries, the service table,
and the Uninstall key sweep. No filesystem walk, no process inspection.`,
	Args: cobra.NoArgs,
	RunE: runFrameworks,
}

func init() {
	rootCmd.AddCommand(frameworksCmd)

	capabilities := ops.GetDefaultCapabilities(ops.GroupScan, ops.CategoryDiscovery)
	if err := ops.RegisterCommandWithTaxonomy("frameworks", ops.GroupScan, ops.CategoryDiscovery, capabilities, frameworksCmd, "Detect installed frameworks"); err != nil {
		panic(fmt.Sprintf("Failed to register frameworks command: %v", err))
	}

	frameworksCmd.Flags().Bool("json", false, "Output findings as JSON")
	frameworksCmd.Flags().String("eol-catalog", "", "EOL catalog file overriding the embedded one")
}

func runFrameworks(cmd *cobra.Command, _ []string) error {
	cfg, err := loadScanConfig(cmd)
	if err != nil {
		return err
	}
	engine, err := scan.NewEngine(cfg)
	if err != nil {
		return err
	}

	frameworks, err := engine.DetectFrameworks(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(cmd, frameworks)
	}

	if len(frameworks) == 0 {
		cmd.Println("No frameworks detected.")
		return nil
	}
	cmd.Print(frameworksTable(frameworks))
	return nil
}

func frameworksTable(frameworks []report.Framework) string {
	rows := make([][]string, 0, len(frameworks))
	for _, fw := range frameworks {
		rows = append(rows, []string{
			fw.Name, fw.Version, fw.Source, fw.Confidence, fw.Status, fw.EOLStatus,
		})
	}
	return ascii.Table([]string{"Name", "Version", "Source", "Confidence", "Status", "EOL"}, rows)
}
