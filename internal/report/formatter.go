/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/fulmenhq/depscout/internal/assets"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OutputFormat represents the format for report output
type OutputFormat string

const (
	FormatJSON     OutputFormat = "json"
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
	// Concise is a short, colorized summary ideal for terminals
	FormatConcise OutputFormat = "concise"
)

func init() {
	raymond.RegisterHelper("lower", func(s string) string {
		return strings.ToLower(s)
	})
}

// Formatter handles formatting scan reports
type Formatter struct {
	format OutputFormat
	pretty bool
}

// NewFormatter creates a new report formatter
func NewFormatter(format OutputFormat) *Formatter {
	return &Formatter{format: format, pretty: true}
}

// SetPretty controls JSON indentation.
func (f *Formatter) SetPretty(pretty bool) {
	f.pretty = pretty
}

// FormatReport formats a scan report according to the configured format
func (f *Formatter) FormatReport(report *Report) (string, error) {
	switch f.format {
	case FormatConcise:
		return f.formatConcise(report), nil
	case FormatMarkdown:
		return f.formatMarkdown(report), nil
	case FormatJSON:
		return f.formatJSON(report)
	case FormatHTML:
		return f.formatHTML(report)
	default:
		return "", fmt.Errorf("unsupported format: %s", f.format)
	}
}

// WriteReport writes a formatted report to the given writer
func (f *Formatter) WriteReport(w io.Writer, report *Report) error {
	output, err := f.FormatReport(report)
	if err != nil {
		return err
	}

	_, err = w.Write([]byte(output))
	return err
}

func (f *Formatter) formatJSON(report *Report) (string, error) {
	var data []byte
	var err error
	if f.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatConcise prints a short, colorized summary suitable for terminals
func (f *Formatter) formatConcise(report *Report) string {
	color := func(code string, s string) string {
		if os.Getenv("NO_COLOR") != "" {
			return s
		}
		return "\x1b[" + code + "m" + s + "\x1b[0m"
	}
	bold := func(s string) string { return color("1", s) }
	green := func(s string) string { return color("32", s) }
	yellow := func(s string) string { return color("33", s) }
	red := func(s string) string { return color("31", s) }

	titler := cases.Title(language.English)

	var sb strings.Builder

	fmt.Fprintf(&sb, "%s host=%s | frameworks: %d | dependencies: %d\n",
		bold("Dependency Scan"), report.Host.Hostname,
		report.Summary.FrameworksFound, report.Summary.DependenciesFound)

	eolCount := 0
	for _, fw := range report.Frameworks {
		var eolStr string
		switch fw.EOLStatus {
		case "EOL":
			eolCount++
			eolStr = red(fw.EOLStatus)
			if fw.EOLDate != "" {
				eolStr += red(fmt.Sprintf(" (since %s)", fw.EOLDate))
			}
		case "Supported":
			eolStr = green(fw.EOLStatus)
		default:
			eolStr = yellow(fw.EOLStatus)
		}
		fmt.Fprintf(&sb, " - %s %s: %s [%s, %s confidence]\n",
			fw.Name, fw.Version, eolStr, titler.String(fw.Status), fw.Confidence)
	}

	for _, category := range sortedCategories(report.Dependencies) {
		fmt.Fprintf(&sb, " - %s: %d dependencies\n", category, len(report.Dependencies[category]))
	}

	for _, phase := range report.Phases {
		var statusStr string
		switch phase.Status {
		case PhaseSuccess:
			statusStr = green("ok")
		case PhaseSkipped:
			statusStr = yellow("skipped")
		default:
			statusStr = red("error")
		}
		fmt.Fprintf(&sb, " - phase %s: %s (%dms, %d findings)\n",
			phase.Name, statusStr, phase.DurationMS, phase.Findings)
		if phase.Error != "" {
			fmt.Fprintf(&sb, "   %s %s\n", red("!"), phase.Error)
		}
	}

	if eolCount == 0 {
		sb.WriteString(green("✅ No end-of-life frameworks found"))
	} else {
		sb.WriteString(yellow(fmt.Sprintf("⚠️ %d end-of-life framework(s) detected - see report for details", eolCount)))
	}

	return sb.String()
}

// formatMarkdown creates a markdown-formatted scan report
func (f *Formatter) formatMarkdown(report *Report) string {
	var sb strings.Builder

	sb.WriteString("# Runtime Dependency Report\n\n")
	fmt.Fprintf(&sb, "**Generated:** %s\n", report.Summary.ScanTimestamp)
	fmt.Fprintf(&sb, "**Tool:** %s %s\n", report.Tool.Name, report.Tool.Version)
	fmt.Fprintf(&sb, "**Host:** %s (%s %s, %s)\n",
		report.Host.Hostname, report.Host.OS, report.Host.OSVersion, report.Host.Architecture)
	fmt.Fprintf(&sb, "**Scan ID:** %s\n\n", report.ScanID)

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- **Frameworks found:** %d\n", report.Summary.FrameworksFound)
	fmt.Fprintf(&sb, "- **Application dependencies:** %d\n\n", report.Summary.DependenciesFound)

	sb.WriteString("## Frameworks\n\n")
	if len(report.Frameworks) == 0 {
		sb.WriteString("No frameworks detected.\n\n")
	} else {
		sb.WriteString("| Name | Version | Source | Method | Confidence | Status | EOL |\n")
		sb.WriteString("|------|---------|--------|--------|------------|--------|-----|\n")
		for _, fw := range report.Frameworks {
			eol := fw.EOLStatus
			if fw.EOLDate != "" {
				eol = fmt.Sprintf("%s (since %s)", fw.EOLStatus, fw.EOLDate)
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s | %s |\n",
				fw.Name, fw.Version, fw.Source, fw.DetectionMethod, fw.Confidence, fw.Status, eol)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Dependencies\n\n")
	categories := sortedCategories(report.Dependencies)
	if len(categories) == 0 {
		sb.WriteString("No dependencies recorded.\n\n")
	}
	for _, category := range categories {
		fmt.Fprintf(&sb, "### %s\n\n", category)
		for _, dep := range report.Dependencies[category] {
			fmt.Fprintf(&sb, "- %s\n", describeDependency(dep))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Phases\n\n")
	sb.WriteString("| Phase | Status | Duration | Findings |\n")
	sb.WriteString("|-------|--------|----------|----------|\n")
	for _, phase := range report.Phases {
		status := phase.Status
		if phase.Error != "" {
			status = fmt.Sprintf("%s (%s)", phase.Status, phase.Error)
		}
		fmt.Fprintf(&sb, "| %s | %s | %dms | %d |\n",
			phase.Name, status, phase.DurationMS, phase.Findings)
	}

	return sb.String()
}

// formatHTML renders the report through the embedded Handlebars
// template. A template override can be supplied via
// DEPSCOUT_TEMPLATE_PATH.
func (f *Formatter) formatHTML(report *Report) (string, error) {
	// Round-trip through JSON so template keys match the report's wire
	// names.
	jsonBytes, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &data); err != nil {
		return "", fmt.Errorf("failed to stage template data: %w", err)
	}

	tpl, err := loadHTMLTemplate()
	if err != nil {
		return "", err
	}

	out, err := raymond.Render(tpl, data)
	if err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return out, nil
}

func loadHTMLTemplate() (string, error) {
	if envPath := strings.TrimSpace(os.Getenv("DEPSCOUT_TEMPLATE_PATH")); envPath != "" {
		envPath = filepath.Clean(envPath)
		content, err := os.ReadFile(envPath) // #nosec G304 - operator-supplied template path, cleaned above
		if err != nil {
			return "", fmt.Errorf("failed to load template override: %w", err)
		}
		return string(content), nil
	}

	content, ok := assets.GetTemplate("report.html.hbs")
	if !ok {
		return "", fmt.Errorf("embedded report template missing")
	}
	return string(content), nil
}

func describeDependency(dep Dependency) string {
	var sb strings.Builder
	if dep.App != "" {
		sb.WriteString(dep.App + ": ")
	}
	sb.WriteString(dep.Kind)
	if dep.Artifact != "" {
		sb.WriteString(": " + dep.Artifact)
	}
	switch {
	case dep.Framework != "" && dep.Version != "":
		fmt.Fprintf(&sb, " requires %s %s", dep.Framework, dep.Version)
	case dep.Framework != "":
		sb.WriteString(" requires " + dep.Framework)
	case dep.Version != "":
		sb.WriteString(" " + dep.Version)
	}
	if dep.Path != "" {
		fmt.Fprintf(&sb, " (`%s`)", dep.Path)
	}
	if dep.Process != "" {
		fmt.Fprintf(&sb, " [%s pid %d]", dep.Process, dep.PID)
	}
	return sb.String()
}

func sortedCategories(deps map[string][]Dependency) []string {
	categories := make([]string, 0, len(deps))
	for category := range deps {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
