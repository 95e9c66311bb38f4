// Package appscan walks application directories for artifacts that tie
// installed software to runtime frameworks: jar files, .NET runtime
// configs, deps manifests, app.config files, and project files. Apps
// are named from the Uninstall registry when possible and from the
// directory layout otherwise.
package appscan

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/depscout/internal/report"
	"github.com/fulmenhq/depscout/internal/winsys"
	"github.com/fulmenhq/depscout/pkg/logger"
	"github.com/fulmenhq/depscout/pkg/safeio"
)

// Dependency categories in the report's dependencies map.
const (
	CategoryJava   = "java"
	CategoryDotnet = "dotnet"
)

// Finding is one artifact attributed to an application.
type Finding struct {
	Category   string
	Dependency report.Dependency
}

// Options bound the walk.
type Options struct {
	Roots       []string
	Patterns    []string
	MaxDepth    int
	MaxFileSize int64
}

// Scanner walks application roots for framework artifacts.
type Scanner struct {
	opts     Options
	registry winsys.RegistryView
}

// NewScanner creates a scanner. The registry view is used to resolve
// application names from Uninstall keys; a stub view degrades to
// directory-based naming.
func NewScanner(opts Options, registry winsys.RegistryView) *Scanner {
	return &Scanner{opts: opts, registry: registry}
}

// Scan walks each existing root to the configured depth and parses
// every file matching a pattern. Unreadable directories and
// unparseable files are skipped; only context cancellation aborts the
// walk.
func (s *Scanner) Scan(ctx context.Context) ([]Finding, error) {
	apps := s.installedApps()

	var findings []Finding
	for _, root := range s.opts.Roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := s.walk(ctx, root, root, s.opts.MaxDepth, apps, &findings); err != nil {
			return findings, err
		}
	}
	return findings, nil
}

func (s *Scanner) walk(ctx context.Context, root, dir string, depth int, apps []installedApp, findings *[]Finding) error {
	if depth <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Permission errors are routine under Program Files.
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)

		if entry.IsDir() {
			if strings.HasPrefix(name, ".") {
				continue
			}
			if err := s.walk(ctx, root, full, depth-1, apps, findings); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if !s.matches(root, full) {
			continue
		}

		finding, ok := s.analyze(full)
		if !ok {
			continue
		}
		finding.Dependency.App = appNameFor(full, root, apps)
		*findings = append(*findings, finding)
	}
	return nil
}

func (s *Scanner) matches(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.opts.Patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// analyze parses one matched artifact into a dependency record.
func (s *Scanner) analyze(path string) (Finding, bool) {
	base := filepath.Base(path)
	lower := strings.ToLower(base)

	switch {
	case strings.HasSuffix(lower, ".jar"):
		return Finding{Category: CategoryJava, Dependency: report.Dependency{
			Kind:      "jar",
			Framework: "Java Runtime",
			Artifact:  base,
			Version:   versionFromFilename(base),
			Path:      path,
		}}, true
	case strings.HasSuffix(lower, ".runtimeconfig.json"):
		return s.analyzeCapped(path, base, parseRuntimeConfig)
	case strings.HasSuffix(lower, ".deps.json"):
		return s.analyzeCapped(path, base, parseDepsManifest)
	case strings.HasSuffix(lower, ".exe.config"):
		return s.analyzeCapped(path, base, parseExeConfig)
	case strings.HasSuffix(lower, ".csproj"):
		return s.analyzeCapped(path, base, parseProjectFile)
	}
	return Finding{}, false
}

type artifactParser func(data []byte, base, path string) (Finding, bool)

func (s *Scanner) analyzeCapped(path, base string, parse artifactParser) (Finding, bool) {
	data, err := safeio.ReadFileCapped(path, s.opts.MaxFileSize)
	if err != nil {
		logger.Debug("skipping unreadable artifact",
			logger.String("path", path), logger.Err(err))
		return Finding{}, false
	}
	return parse(data, base, path)
}

// installedApp is one Uninstall-key entry with a usable install
// location.
type installedApp struct {
	name     string
	location string
}

var uninstallRoots = []string{
	`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`,
	`SOFTWARE\Wow6432Node\Microsoft\Windows\CurrentVersion\Uninstall`,
}

// installedApps loads DisplayName/InstallLocation pairs from the
// Uninstall keys, longest locations first so nested installs resolve
// to the most specific entry.
func (s *Scanner) installedApps() []installedApp {
	var apps []installedApp
	for _, root := range uninstallRoots {
		subKeys, err := s.registry.SubKeyNames(root)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, winsys.ErrUnsupported) {
				logger.Debug("uninstall root unreadable",
					logger.String("key", root), logger.Err(err))
			}
			continue
		}
		for _, sub := range subKeys {
			key := root + `\` + sub
			name, err := s.registry.StringValue(key, "DisplayName")
			if err != nil || strings.TrimSpace(name) == "" {
				continue
			}
			location, err := s.registry.StringValue(key, "InstallLocation")
			if err != nil || strings.TrimSpace(location) == "" {
				continue
			}
			apps = append(apps, installedApp{name: name, location: normalizePath(location)})
		}
	}
	sort.Slice(apps, func(i, j int) bool {
		return len(apps[i].location) > len(apps[j].location)
	})
	return apps
}

// appNameFor resolves the owning application for an artifact: the most
// specific Uninstall entry whose install location contains it, then
// the top-level directory under the scan root, then the file stem.
func appNameFor(path, root string, apps []installedApp) string {
	normalized := normalizePath(path)
	for _, app := range apps {
		if pathHasPrefix(normalized, app.location) {
			return app.name
		}
	}

	rel, err := filepath.Rel(root, path)
	if err == nil {
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) > 1 {
			// Store packages carry version and architecture suffixes in
			// the directory name.
			if strings.EqualFold(parts[0], "WindowsApps") && len(parts) > 2 {
				return strings.SplitN(parts[1], "_", 2)[0]
			}
			return parts[0]
		}
	}

	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func normalizePath(path string) string {
	path = strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
	return strings.TrimSuffix(path, "/")
}

func pathHasPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
