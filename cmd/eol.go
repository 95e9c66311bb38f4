/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/depscout/internal/ascii"
	"github.com/fulmenhq/depscout/internal/ops"
	"github.com/fulmenhq/depscout/pkg/eol"
)

// eolCmd represents the eol command group
var eolCmd = &cobra.Command{
	Use:   "eol",
	Short: "Inspect the end-of-life catalog",
	Long: `Eol exposes the catalog used to classify detected frameworks. List the
loaded rules, or check a single name/version pair the way a scan would.`,
}

var eolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the loaded EOL rules",
	Args:  cobra.NoArgs,
	RunE:  runEOLList,
}

var eolCheckCmd = &cobra.Command{
	Use:   "check <name> <version>",
	Short: "Classify one framework version",
	Long: `Check classifies a framework name and version against the catalog,
exactly as a scan would. Example:

  depscout eol check java 1.8.0_371
  depscout eol check Microsoft.NETCore.App 3.1.32`,
	Args: cobra.ExactArgs(2),
	RunE: runEOLCheck,
}

func init() {
	rootCmd.AddCommand(eolCmd)
	eolCmd.AddCommand(eolListCmd)
	eolCmd.AddCommand(eolCheckCmd)

	capabilities := ops.GetDefaultCapabilities(ops.GroupUtility, ops.CategoryCatalog)
	if err := ops.RegisterCommandWithTaxonomy("eol", ops.GroupUtility, ops.CategoryCatalog, capabilities, eolCmd, "Inspect the end-of-life catalog"); err != nil {
		panic(fmt.Sprintf("Failed to register eol command: %v", err))
	}

	eolCmd.PersistentFlags().String("catalog", "", "EOL catalog file overriding the embedded one")
	eolListCmd.Flags().Bool("json", false, "Output rules as JSON")
	eolCheckCmd.Flags().Bool("json", false, "Output the classification as JSON")
}

func loadClassifier(cmd *cobra.Command) (*eol.Classifier, error) {
	if path, _ := cmd.Flags().GetString("catalog"); path != "" {
		return eol.LoadFile(path)
	}
	return eol.LoadEmbedded()
}

func runEOLList(cmd *cobra.Command, _ []string) error {
	classifier, err := loadClassifier(cmd)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(cmd, classifier.Rules())
	}

	cmd.Printf("Catalog version %s\n", classifier.CatalogVersion())
	rows := make([][]string, 0, len(classifier.Rules()))
	for _, rule := range classifier.Rules() {
		constraint := describePolicy(rule)
		rows = append(rows, []string{rule.Name, strings.Join(rule.Aliases, ", "), constraint})
	}
	cmd.Print(ascii.Table([]string{"Rule", "Aliases", "EOL when"}, rows))
	return nil
}

func describePolicy(rule eol.Rule) string {
	var parts []string
	if rule.Policy.MinimumVersion != "" {
		parts = append(parts, "< "+rule.Policy.MinimumVersion)
	}
	if len(rule.Policy.DisallowedPrefixes) > 0 {
		parts = append(parts, "prefix in {"+strings.Join(rule.Policy.DisallowedPrefixes, ", ")+"}")
	}
	if len(rule.Policy.DisallowedVersions) > 0 {
		parts = append(parts, "version in {"+strings.Join(rule.Policy.DisallowedVersions, ", ")+"}")
	}
	if len(parts) == 0 {
		return "never"
	}
	return strings.Join(parts, " or ")
}

func runEOLCheck(cmd *cobra.Command, args []string) error {
	classifier, err := loadClassifier(cmd)
	if err != nil {
		return err
	}

	name, version := args[0], args[1]
	class := classifier.Classify(name, version)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(cmd, map[string]string{
			"name":     name,
			"version":  version,
			"status":   class.Status,
			"eol_date": class.Date,
			"rule":     class.Rule,
		})
	}

	switch {
	case class.Rule == "":
		cmd.Printf("%s %s: %s (no catalog rule matches)\n", name, version, class.Status)
	case class.Date != "":
		cmd.Printf("%s %s: %s since %s (rule %s)\n", name, version, class.Status, class.Date, class.Rule)
	default:
		cmd.Printf("%s %s: %s (rule %s)\n", name, version, class.Status, class.Rule)
	}
	return nil
}
