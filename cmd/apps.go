/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/depscout/internal/ascii"
	"github.com/fulmenhq/depscout/internal/ops"
	"github.com/fulmenhq/depscout/internal/scan"
)

// appsCmd represents the apps command
var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Scan installed applications for framework artifacts (phase 2 only)",
	Long: `Apps walks the application roots (Program Files, Program Files (x86),
ProgramData by default) to a bounded depth, collecting jar files, .NET
runtime configs, deps manifests, app.config files, and project files, and
attributes each artifact to the application that ships it.`,
	Args: cobra.NoArgs,
	RunE: runApps,
}

func init() {
	rootCmd.AddCommand(appsCmd)

	capabilities := ops.GetDefaultCapabilities(ops.GroupScan, ops.CategoryInspection)
	if err := ops.RegisterCommandWithTaxonomy("apps", ops.GroupScan, ops.CategoryInspection, capabilities, appsCmd, "Scan installed applications for framework artifacts"); err != nil {
		panic(fmt.Sprintf("Failed to register apps command: %v", err))
	}

	appsCmd.Flags().Bool("json", false, "Output findings as JSON")
	appsCmd.Flags().StringArray("scan-dir", nil, "Application root to walk; repeatable (replaces the default roots)")
	appsCmd.Flags().Int("max-depth", 0, "Directory depth limit for the walk")
}

func runApps(cmd *cobra.Command, _ []string) error {
	cfg, err := loadScanConfig(cmd)
	if err != nil {
		return err
	}
	engine, err := scan.NewEngine(cfg)
	if err != nil {
		return err
	}

	findings, err := engine.ScanApplications(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(cmd, findings)
	}

	if len(findings) == 0 {
		cmd.Println("No application dependencies found.")
		return nil
	}
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		dep := f.Dependency
		rows = append(rows, []string{
			f.Category, dep.App, dep.Kind, dep.Artifact, dep.Framework, dep.Version,
		})
	}
	cmd.Print(ascii.Table([]string{"Category", "App", "Kind", "Artifact", "Framework", "Version"}, rows))
	return nil
}
