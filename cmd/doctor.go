/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/depscout/internal/doctor"
	"github.com/fulmenhq/depscout/internal/ops"
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the surfaces a scan depends on",
	Long: `Doctor checks the probe binaries (dotnet, java) on PATH and the host
introspection surfaces a scan reads: the registry, the service table, the
process table, and module snapshots. Nothing is modified; the output shows
which scan phases would degrade on this host.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	capabilities := ops.GetDefaultCapabilities(ops.GroupSupport, ops.CategoryDiagnostics)
	if err := ops.RegisterCommandWithTaxonomy("doctor", ops.GroupSupport, ops.CategoryDiagnostics, capabilities, doctorCmd, "Diagnose scan prerequisites"); err != nil {
		panic(fmt.Sprintf("Failed to register doctor command: %v", err))
	}

	doctorCmd.Flags().Bool("json", false, "Output diagnostics as JSON")
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	tools := make([]doctor.Status, 0, 2)
	for _, tool := range doctor.KnownProbeTools() {
		tools = append(tools, doctor.CheckTool(tool))
	}
	access := doctor.CheckAccess(cmd.Context())

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(cmd, map[string]interface{}{
			"tools":  tools,
			"access": access,
		})
	}

	cmd.Println("Probe tools:")
	for _, status := range tools {
		if status.Present {
			if status.Version != "" {
				cmd.Printf("  ✓ %s (%s)\n", status.Name, status.Version)
			} else {
				cmd.Printf("  ✓ %s\n", status.Name)
			}
			continue
		}
		cmd.Printf("  ✗ %s not found\n", status.Name)
		cmd.Printf("      %s\n", status.Instructions)
	}

	cmd.Println()
	cmd.Println("Host access:")
	for _, check := range access {
		mark := "✓"
		if !check.OK {
			mark = "✗"
		}
		cmd.Printf("  %s %s: %s\n", mark, check.Name, check.Detail)
	}
	return nil
}
