package detect

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"unicode"

	"github.com/fulmenhq/depscout/internal/report"
	"github.com/fulmenhq/depscout/internal/winsys"
	"github.com/fulmenhq/depscout/pkg/logger"
)

// javaRegistryRoots are the JavaSoft keys vendors publish installs
// under. Wow6432Node covers 32-bit runtimes on 64-bit hosts.
var javaRegistryRoots = []struct {
	path    string
	edition string
}{
	{`SOFTWARE\JavaSoft\Java Runtime Environment`, "JRE"},
	{`SOFTWARE\JavaSoft\Java Development Kit`, "JDK"},
	{`SOFTWARE\JavaSoft\JDK`, "JDK"},
	{`SOFTWARE\Wow6432Node\JavaSoft\Java Runtime Environment`, "JRE"},
	{`SOFTWARE\Wow6432Node\JavaSoft\Java Development Kit`, "JDK"},
}

// JavaDetector finds Java installations through the registry.
type JavaDetector struct {
	registry winsys.RegistryView
}

// NewJavaDetector creates a Java detector over the given registry view.
func NewJavaDetector(registry winsys.RegistryView) *JavaDetector {
	return &JavaDetector{registry: registry}
}

func (d *JavaDetector) Name() string { return "java" }

// Detect enumerates version subkeys under each JavaSoft root. A subkey
// counts only when it carries a JavaHome value, and alias keys
// shadowed by a fuller version (1.8 next to 1.8.0_371) are dropped so
// one install reports once.
func (d *JavaDetector) Detect(ctx context.Context) ([]report.Framework, error) {
	var found []report.Framework
	for _, root := range javaRegistryRoots {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		subKeys, err := d.registry.SubKeyNames(root.path)
		if err != nil {
			if errors.Is(err, winsys.ErrUnsupported) {
				return nil, err
			}
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			logger.Debug("java registry root unreadable",
				logger.String("key", root.path), logger.Err(err))
			continue
		}

		for _, version := range keepDeepestVersions(subKeys) {
			home, err := d.registry.StringValue(root.path+`\`+version, "JavaHome")
			if err != nil {
				continue
			}
			found = append(found, report.Framework{
				Name:            "Java",
				Version:         version,
				Edition:         root.edition,
				InstallPath:     home,
				Source:          report.SourceRegistry,
				DetectionMethod: report.MethodStatic,
				Confidence:      report.ConfidenceHigh,
				Status:          report.StatusInstalled,
			})
		}
	}
	return found, nil
}

// keepDeepestVersions filters registry subkeys to version-shaped names
// and drops any that a longer sibling extends.
func keepDeepestVersions(subKeys []string) []string {
	versions := make([]string, 0, len(subKeys))
	for _, key := range subKeys {
		key = strings.TrimSpace(key)
		if key == "" || !unicode.IsDigit(rune(key[0])) {
			continue
		}
		versions = append(versions, key)
	}

	kept := make([]string, 0, len(versions))
	for _, candidate := range versions {
		shadowed := false
		for _, other := range versions {
			if other == candidate {
				continue
			}
			if strings.HasPrefix(other, candidate+".") || strings.HasPrefix(other, candidate+"_") {
				shadowed = true
				break
			}
		}
		if !shadowed {
			kept = append(kept, candidate)
		}
	}
	return kept
}
