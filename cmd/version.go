/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/depscout/internal/ops"
	"github.com/fulmenhq/depscout/pkg/buildinfo"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show depscout version information",
	Long:  `Show the depscout version. Use --extended for build and platform details.`,
	Args:  cobra.NoArgs,
	RunE:  runVersionCmd,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	capabilities := ops.GetDefaultCapabilities(ops.GroupSupport, ops.CategoryInformation)
	if err := ops.RegisterCommandWithTaxonomy("version", ops.GroupSupport, ops.CategoryInformation, capabilities, versionCmd, "Show version information"); err != nil {
		panic(fmt.Sprintf("Failed to register version command: %v", err))
	}

	versionCmd.Flags().Bool("extended", false, "Show detailed build information")
	versionCmd.Flags().Bool("json", false, "Output version information in JSON format")
}

func runVersionCmd(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if jsonOutput {
		info := map[string]string{
			"version":   buildinfo.BinaryVersion,
			"goVersion": runtime.Version(),
			"platform":  runtime.GOOS,
			"arch":      runtime.GOARCH,
		}
		if extended {
			info["moduleVersion"] = buildinfo.ModuleVersion()
			info["vcsRevision"] = buildinfo.VCSRevision()
		}
		return printJSON(cmd, info)
	}

	cmd.Printf("depscout %s\n", buildinfo.BinaryVersion)
	if extended {
		cmd.Printf("  module:   %s\n", buildinfo.ModuleVersion())
		if rev := buildinfo.VCSRevision(); rev != "" {
			cmd.Printf("  revision: %s\n", rev)
		}
		cmd.Printf("  go:       %s\n", runtime.Version())
		cmd.Printf("  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	}
	return nil
}
