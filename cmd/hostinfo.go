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

// hostinfoCmd represents the hostinfo command
var hostinfoCmd = &cobra.Command{
	Use:   "hostinfo",
	Short: "Show the host metadata a scan report would carry",
	Long: `Hostinfo prints the machine description that lands in a report's host
block: hostname, OS and version, architecture, and boot time.`,
	Args: cobra.NoArgs,
	RunE: runHostinfo,
}

func init() {
	rootCmd.AddCommand(hostinfoCmd)

	capabilities := ops.GetDefaultCapabilities(ops.GroupSupport, ops.CategoryEnvironment)
	if err := ops.RegisterCommandWithTaxonomy("hostinfo", ops.GroupSupport, ops.CategoryEnvironment, capabilities, hostinfoCmd, "Show host metadata"); err != nil {
		panic(fmt.Sprintf("Failed to register hostinfo command: %v", err))
	}

	hostinfoCmd.Flags().Bool("json", false, "Output host metadata as JSON")
}

func runHostinfo(cmd *cobra.Command, _ []string) error {
	info := scan.CollectHostInfo(cmd.Context())

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(cmd, info)
	}

	lines := []string{
		"Hostname:     " + info.Hostname,
		"OS:           " + info.OS,
		"OS version:   " + info.OSVersion,
		"Architecture: " + info.Architecture,
	}
	if info.BootTime != "" {
		lines = append(lines, "Boot time:    "+info.BootTime)
	}
	cmd.Print(ascii.Box(lines))
	return nil
}
