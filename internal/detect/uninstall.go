package detect

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/fulmenhq/depscout/internal/report"
	"github.com/fulmenhq/depscout/internal/winsys"
	"github.com/fulmenhq/depscout/pkg/logger"
)

// uninstallRoots lists the Add/Remove Programs registry roots, 64-bit
// view first.
var uninstallRoots = []string{
	`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`,
	`SOFTWARE\Wow6432Node\Microsoft\Windows\CurrentVersion\Uninstall`,
}

// uninstallPatterns maps display-name substrings to canonical framework
// names. First match wins, so the specific .NET variants sort before
// the generic ones.
var uninstallPatterns = []struct {
	substring string
	name      string
}{
	{"asp.net core", "Microsoft.AspNetCore.App"},
	{"windows desktop runtime", "Microsoft.WindowsDesktop.App"},
	{".net core runtime", "Microsoft.NETCore.App"},
	{".net runtime", "Microsoft.NETCore.App"},
	{".net framework", ".NET Framework"},
	{"sql server", "Microsoft SQL Server"},
	{"mariadb", "MariaDB"},
	{"mysql", "MySQL"},
	{"postgresql", "PostgreSQL"},
	{"java", "Java"},
}

// UninstallDetector reads Add/Remove Programs entries whose display
// names look like framework installs. Confidence is low: display
// versions do not always line up with engine versions, so this
// detector runs first and stronger probes overwrite it on merge-key
// collisions.
type UninstallDetector struct {
	registry winsys.RegistryView
}

// NewUninstallDetector creates a detector over the given registry view.
func NewUninstallDetector(registry winsys.RegistryView) *UninstallDetector {
	return &UninstallDetector{registry: registry}
}

// Name identifies the detector in logs and phase errors.
func (d *UninstallDetector) Name() string { return "installed-programs" }

// Detect scans both Uninstall hives for framework-looking entries.
// Entries without a display version are skipped.
func (d *UninstallDetector) Detect(ctx context.Context) ([]report.Framework, error) {
	var frameworks []report.Framework
	for _, root := range uninstallRoots {
		if err := ctx.Err(); err != nil {
			return frameworks, err
		}
		subKeys, err := d.registry.SubKeyNames(root)
		if err != nil {
			if errors.Is(err, winsys.ErrUnsupported) {
				return nil, err
			}
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Debug("uninstall root unreadable",
					logger.String("key", root), logger.Err(err))
			}
			continue
		}
		for _, sub := range subKeys {
			key := root + `\` + sub
			displayName, err := d.registry.StringValue(key, "DisplayName")
			if err != nil {
				continue
			}
			name, ok := matchFrameworkName(displayName)
			if !ok {
				continue
			}
			version, err := d.registry.StringValue(key, "DisplayVersion")
			if err != nil || strings.TrimSpace(version) == "" {
				continue
			}

			fw := report.Framework{
				Name:            name,
				Version:         strings.TrimSpace(version),
				Source:          report.SourceUninstallKeys,
				DetectionMethod: report.MethodStatic,
				Confidence:      report.ConfidenceLow,
				Status:          report.StatusInstalled,
			}
			if location, err := d.registry.StringValue(key, "InstallLocation"); err == nil && strings.TrimSpace(location) != "" {
				fw.InstallPath = location
			}
			frameworks = append(frameworks, fw)
		}
	}
	return frameworks, nil
}

// matchFrameworkName maps an Add/Remove Programs display name onto a
// framework name, or reports no match.
func matchFrameworkName(displayName string) (string, bool) {
	lower := strings.ToLower(displayName)
	if strings.Contains(lower, "javascript") {
		return "", false
	}
	for _, pattern := range uninstallPatterns {
		if strings.Contains(lower, pattern.substring) {
			return pattern.name, true
		}
	}
	return "", false
}
