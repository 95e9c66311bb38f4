/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package scan orchestrates a full dependency scan: the framework
// detectors, the application walk, and the process inspection run as
// sequential phases whose evidence merges into one report. A phase
// failure is recorded in the report, never fatal to the scan.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/fulmenhq/depscout/internal/appscan"
	"github.com/fulmenhq/depscout/internal/detect"
	"github.com/fulmenhq/depscout/internal/procscan"
	"github.com/fulmenhq/depscout/internal/report"
	"github.com/fulmenhq/depscout/internal/winsys"
	"github.com/fulmenhq/depscout/pkg/buildinfo"
	"github.com/fulmenhq/depscout/pkg/config"
	"github.com/fulmenhq/depscout/pkg/eol"
	"github.com/fulmenhq/depscout/pkg/logger"
)

type appScanner interface {
	Scan(ctx context.Context) ([]appscan.Finding, error)
}

type procScanner interface {
	Scan(ctx context.Context) (*procscan.Result, error)
}

// Engine runs one scan. Build it with NewEngine for production wiring;
// tests swap the seams directly.
type Engine struct {
	cfg        *config.Config
	detectors  []detect.Detector
	apps       appScanner
	procs      procScanner
	classifier *eol.Classifier
	host       func(ctx context.Context) report.HostInfo
}

// NewEngine wires the production detectors and scanners from cfg.
func NewEngine(cfg *config.Config) (*Engine, error) {
	classifier, err := newClassifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading EOL catalog: %w", err)
	}

	registry := winsys.NewRegistry()

	// Ordered weakest evidence first: merging is last-write-wins per
	// field, so the stronger probes must land after the uninstall
	// sweep.
	detectors := []detect.Detector{
		detect.NewUninstallDetector(registry),
		detect.NewJavaDetector(registry),
		detect.NewDotnetDetector(cfg.Scan.DotnetTimeout),
		detect.NewMSSQLDetector(registry),
		detect.NewServiceSQLDetector(winsys.NewServiceTable()),
	}

	apps := appscan.NewScanner(appscan.Options{
		Roots:       cfg.Scan.Roots,
		Patterns:    cfg.Scan.Patterns,
		MaxDepth:    cfg.Scan.MaxDepth,
		MaxFileSize: cfg.Scan.MaxFileSize,
	}, registry)

	return &Engine{
		cfg:        cfg,
		detectors:  detectors,
		apps:       apps,
		procs:      procscan.NewScanner(winsys.NewModuleLister(), cfg.Scan.JavaProbeTimeout),
		classifier: classifier,
		host:       CollectHostInfo,
	}, nil
}

func newClassifier(cfg *config.Config) (*eol.Classifier, error) {
	if cfg.EOL.CatalogPath != "" {
		return eol.LoadFile(cfg.EOL.CatalogPath)
	}
	return eol.LoadEmbedded()
}

// Run executes the three phases in order and returns the merged,
// EOL-classified report. The returned error covers only setup-level
// failures; phase errors land in the report's phase results.
func (e *Engine) Run(ctx context.Context) (*report.Report, error) {
	started := time.Now()
	builder := report.NewBuilder()

	e.runPhase(ctx, builder, "frameworks", false, e.frameworksPhase)
	e.runPhase(ctx, builder, "applications", e.cfg.Scan.SkipApps, e.applicationsPhase)
	e.runPhase(ctx, builder, "processes", e.cfg.Scan.SkipProcesses, e.processesPhase)

	rep := builder.Build(
		uuid.NewString(),
		report.ToolInfo{Name: "depscout", Version: buildinfo.BinaryVersion},
		e.host(ctx),
		started,
	)

	// Classification runs after merging so a framework seen by several
	// sources is judged exactly once.
	e.ClassifyEOL(rep.Frameworks)

	logger.Info("scan complete",
		logger.String("scan_id", rep.ScanID),
		logger.Int("frameworks", rep.Summary.FrameworksFound),
		logger.Int("dependencies", rep.Summary.DependenciesFound))
	return rep, nil
}

type phaseFunc func(ctx context.Context, b *report.Builder) error

func (e *Engine) runPhase(ctx context.Context, b *report.Builder, name string, skip bool, run phaseFunc) {
	if skip {
		logger.Debug("phase skipped by configuration", logger.String("phase", name))
		b.AddPhase(report.PhaseResult{Name: name, Status: report.PhaseSkipped})
		return
	}

	if e.cfg.Scan.PhaseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Scan.PhaseTimeout)
		defer cancel()
	}

	frameworksBefore := b.FrameworkCount()
	depsBefore := b.DependencyCount()
	phaseStart := time.Now()
	err := run(ctx, b)

	phase := report.PhaseResult{
		Name:       name,
		Status:     report.PhaseSuccess,
		DurationMS: time.Since(phaseStart).Milliseconds(),
		Findings:   b.FrameworkCount() - frameworksBefore + b.DependencyCount() - depsBefore,
	}
	switch {
	case err == nil:
	case errors.Is(err, winsys.ErrUnsupported):
		phase.Status = report.PhaseSkipped
		phase.Error = err.Error()
	default:
		phase.Status = report.PhaseError
		phase.Error = err.Error()
		logger.Warn("phase failed", logger.String("phase", name), logger.Err(err))
	}
	b.AddPhase(phase)
}

// frameworksPhase runs every detector even when earlier ones fail.
// The phase only counts as unsupported when each failing detector was,
// so a genuine error on one source is not masked by stub errors on the
// others.
func (e *Engine) frameworksPhase(ctx context.Context, b *report.Builder) error {
	var failures []error
	unsupported := 0
	for _, det := range e.detectors {
		frameworks, err := det.Detect(ctx)
		if err != nil {
			if errors.Is(err, winsys.ErrUnsupported) {
				unsupported++
			}
			failures = append(failures, fmt.Errorf("%s: %w", det.Name(), err))
			continue
		}
		for _, fw := range frameworks {
			b.AddFramework(fw)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	joined := errors.Join(failures...)
	if unsupported == len(failures) {
		return joined
	}
	return fmt.Errorf("detector failures: %v", joined)
}

func (e *Engine) applicationsPhase(ctx context.Context, b *report.Builder) error {
	findings, err := e.apps.Scan(ctx)
	for _, f := range findings {
		b.AddDependency(f.Category, f.Dependency)
	}
	return err
}

func (e *Engine) processesPhase(ctx context.Context, b *report.Builder) error {
	result, err := e.procs.Scan(ctx)
	if result != nil {
		for _, fw := range result.Frameworks {
			b.AddFramework(fw)
		}
		for _, f := range result.Findings {
			b.AddDependency(f.Category, f.Dependency)
		}
	}
	return err
}

// CollectHostInfo describes the machine being scanned. Every field
// degrades independently; a hostile or minimal environment still
// yields a usable report header.
func CollectHostInfo(ctx context.Context) report.HostInfo {
	info := report.HostInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
	if name, err := os.Hostname(); err == nil {
		info.Hostname = name
	}

	stat, err := host.InfoWithContext(ctx)
	if err != nil {
		logger.Debug("host introspection failed", logger.Err(err))
		return info
	}
	if stat.Platform != "" {
		info.OS = stat.Platform
	}
	info.OSVersion = stat.PlatformVersion
	if stat.KernelArch != "" {
		info.Architecture = stat.KernelArch
	}
	if info.Hostname == "" {
		info.Hostname = stat.Hostname
	}
	if stat.BootTime > 0 {
		info.BootTime = time.Unix(int64(stat.BootTime), 0).UTC().Format(time.RFC3339)
	}
	return info
}
