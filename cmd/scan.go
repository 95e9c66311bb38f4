/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fulmenhq/depscout/internal/ops"
	"github.com/fulmenhq/depscout/internal/report"
	"github.com/fulmenhq/depscout/internal/scan"
	"github.com/fulmenhq/depscout/internal/schema"
	"github.com/fulmenhq/depscout/pkg/config"
	"github.com/fulmenhq/depscout/pkg/exitcode"
	"github.com/fulmenhq/depscout/pkg/logger"
	"github.com/fulmenhq/depscout/pkg/policy"
	"github.com/fulmenhq/depscout/pkg/safeio"
)

const reportSchemaName = "scan-report-v1.0.0"

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a full three-phase dependency scan",
	Long: `Scan runs all three phases against this host: framework detection
(registry, dotnet CLI, service table), the installed-application walk, and
the running-process inspection. Evidence merges into one report, every
framework is classified against the end-of-life catalog, and the report is
written as a JSON snapshot.

Examples:
  depscout scan
  depscout scan --format markdown --output report.json
  depscout scan --skip-processes --scan-dir 'D:\Apps'
  depscout scan --fail-on eol_frameworks --fail-on running_eol
  depscout scan --fail-on policies/prod.yaml`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	capabilities := ops.GetDefaultCapabilities(ops.GroupScan, ops.CategoryOrchestration)
	if err := ops.RegisterCommandWithTaxonomy("scan", ops.GroupScan, ops.CategoryOrchestration, capabilities, scanCmd, "Full three-phase dependency scan"); err != nil {
		panic(fmt.Sprintf("Failed to register scan command: %v", err))
	}

	scanCmd.Flags().StringP("output", "o", "", "Report file path (default dependency_report.json)")
	scanCmd.Flags().String("format", "concise", "Stdout rendering: json, markdown, html, concise, or both")
	scanCmd.Flags().Bool("pretty", true, "Indent the JSON snapshot")
	scanCmd.Flags().Bool("no-write", false, "Print only; do not write the report file")
	scanCmd.Flags().StringArray("fail-on", nil, "Policy gate name or policy file; repeatable")
	addPhaseFlags(scanCmd)
}

// addPhaseFlags defines the flags shared by scan and the phase-scoped
// commands.
func addPhaseFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("skip-apps", false, "Skip the installed-application walk")
	cmd.Flags().Bool("skip-processes", false, "Skip the running-process scan")
	cmd.Flags().StringArray("scan-dir", nil, "Application root to walk; repeatable (replaces the default roots)")
	cmd.Flags().Int("max-depth", 0, "Directory depth limit for the application walk")
	cmd.Flags().Duration("java-probe-timeout", 0, "Timeout for each java -version probe")
	cmd.Flags().String("eol-catalog", "", "EOL catalog file overriding the embedded one")
}

// loadScanConfig layers the persisted configuration under any flags the
// user set on this invocation.
func loadScanConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadProjectConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	flags := cmd.Flags()
	if path, _ := flags.GetString("config"); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}
	applyFlagOverrides(flags, cfg)
	return cfg, nil
}

// applyFlagOverrides copies explicitly-set flags over the loaded
// configuration. Unset flags leave the config values alone.
func applyFlagOverrides(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("skip-apps") {
		cfg.Scan.SkipApps, _ = flags.GetBool("skip-apps")
	}
	if flags.Changed("skip-processes") {
		cfg.Scan.SkipProcesses, _ = flags.GetBool("skip-processes")
	}
	if flags.Changed("scan-dir") {
		roots, _ := flags.GetStringArray("scan-dir")
		cfg.Scan.Roots = roots
	}
	if flags.Changed("max-depth") {
		cfg.Scan.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("java-probe-timeout") {
		cfg.Scan.JavaProbeTimeout, _ = flags.GetDuration("java-probe-timeout")
	}
	if flags.Changed("eol-catalog") {
		cfg.EOL.CatalogPath, _ = flags.GetString("eol-catalog")
	}
	if flags.Changed("output") {
		cfg.Report.Output, _ = flags.GetString("output")
	}
	if flags.Changed("format") {
		cfg.Report.Format, _ = flags.GetString("format")
	}
	if flags.Changed("pretty") {
		cfg.Report.Pretty, _ = flags.GetBool("pretty")
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadScanConfig(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	noWrite, _ := cmd.Flags().GetBool("no-write")
	gates, _ := cmd.Flags().GetStringArray("fail-on")

	engine, err := scan.NewEngine(cfg)
	if err != nil {
		return err
	}

	rep, err := engine.Run(cmd.Context())
	if err != nil {
		return err
	}

	snapshot, err := marshalSnapshot(rep, cfg.Report.Pretty)
	if err != nil {
		return err
	}
	if cfg.Report.Validate {
		if err := validateSnapshot(snapshot); err != nil {
			return err
		}
	}
	if !noWrite {
		if err := writeSnapshot(cfg.Report.Output, snapshot, format, rep); err != nil {
			return err
		}
		logger.Info("report written", logger.String("path", cfg.Report.Output))
	}

	if err := renderToStdout(cmd, rep, format, cfg.Report.Pretty); err != nil {
		return err
	}

	return enforcePolicy(cmd, cfg, gates, rep)
}

func marshalSnapshot(rep *report.Report, pretty bool) ([]byte, error) {
	formatter := report.NewFormatter(report.FormatJSON)
	formatter.SetPretty(pretty)
	out, err := formatter.FormatReport(rep)
	if err != nil {
		return nil, err
	}
	return []byte(out + "\n"), nil
}

// validateSnapshot checks the exact bytes headed for disk against the
// embedded report schema. A report that fails its own schema is a bug,
// so this is an error rather than a warning.
func validateSnapshot(snapshot []byte) error {
	result, err := schema.ValidateBytes(snapshot, reportSchemaName)
	if err != nil {
		return fmt.Errorf("validating report: %w", err)
	}
	if !result.Valid {
		for _, verr := range result.Errors {
			logger.Error("report schema violation",
				logger.String("path", verr.Path), logger.String("message", verr.Message))
		}
		return fmt.Errorf("report failed schema validation (%d errors)", len(result.Errors))
	}
	return nil
}

// writeSnapshot writes the JSON snapshot and, for format "both", an
// HTML rendering beside it.
func writeSnapshot(path string, snapshot []byte, format string, rep *report.Report) error {
	if err := safeio.WriteFilePreservePerms(path, snapshot); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if format != "both" {
		return nil
	}
	html, err := report.NewFormatter(report.FormatHTML).FormatReport(rep)
	if err != nil {
		return err
	}
	htmlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
	if err := safeio.WriteFilePreservePerms(htmlPath, []byte(html)); err != nil {
		return fmt.Errorf("writing HTML report: %w", err)
	}
	logger.Info("report written", logger.String("path", htmlPath))
	return nil
}

func renderToStdout(cmd *cobra.Command, rep *report.Report, format string, pretty bool) error {
	outputFormat := report.OutputFormat(format)
	if format == "both" {
		outputFormat = report.FormatConcise
	}
	formatter := report.NewFormatter(outputFormat)
	formatter.SetPretty(pretty)
	rendered, err := formatter.FormatReport(rep)
	if err != nil {
		return err
	}
	cmd.Println(rendered)
	return nil
}

// enforcePolicy gates the report. Each --fail-on value is either a
// builtin gate name or a path to a policy file; with no values the
// configured (or embedded, deny-nothing) policy applies.
func enforcePolicy(cmd *cobra.Command, cfg *config.Config, gates []string, rep *report.Report) error {
	engine, err := policyEngine(cfg, gates)
	if err != nil {
		return err
	}
	violations, err := engine.Evaluate(cmd.Context(), rep)
	if err != nil {
		return err
	}
	if len(violations) == 0 {
		return nil
	}
	for _, violation := range violations {
		fmt.Fprintf(cmd.ErrOrStderr(), "policy violation: %s\n", violation)
	}
	logger.Error("report failed policy", logger.Int("violations", len(violations)))
	os.Exit(exitcode.PolicyViolation)
	return nil
}

func policyEngine(cfg *config.Config, gates []string) (*policy.Engine, error) {
	var names []string
	for _, gate := range gates {
		if looksLikePolicyFile(gate) {
			return policy.LoadFile(gate)
		}
		names = append(names, gate)
	}
	if len(names) > 0 {
		doc, err := policy.FromGates(names)
		if err != nil {
			return nil, err
		}
		return policy.FromDocument(doc), nil
	}
	if cfg.Policy.Enabled && cfg.Policy.Path != "" {
		return policy.LoadFile(cfg.Policy.Path)
	}
	return policy.LoadEmbedded()
}

func looksLikePolicyFile(value string) bool {
	if strings.ContainsAny(value, `/\`) {
		return true
	}
	switch strings.ToLower(filepath.Ext(value)) {
	case ".yaml", ".yml", ".json", ".rego":
		return true
	}
	return false
}

// printJSON renders any value as indented JSON on the command's stdout.
func printJSON(cmd *cobra.Command, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format JSON: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
