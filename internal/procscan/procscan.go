// Package procscan inspects running processes for framework usage.
// .NET runtimes are recognized from coreclr.dll paths in each
// process's module table; JVMs are probed by running the process's own
// java executable with -version. Module enumeration needs Windows, so
// on other platforms the phase reports itself unsupported.
package procscan

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/fulmenhq/depscout/internal/report"
	"github.com/fulmenhq/depscout/internal/winsys"
	"github.com/fulmenhq/depscout/pkg/logger"
	"github.com/shirou/gopsutil/v4/process"
)

// Dependency categories in the report's dependencies map. Runtime
// evidence stays separate from the static artifact categories.
const (
	CategoryJavaRuntime   = "java_runtime"
	CategoryDotnetRuntime = "dotnet_runtime"
)

var (
	// sharedRuntimePattern recognizes coreclr.dll loaded out of a
	// shared framework directory, capturing runtime id and version.
	sharedRuntimePattern = regexp.MustCompile(`\\dotnet\\shared\\(microsoft\.(?:netcore|aspnetcore)\.app)\\([^\\]+)\\coreclr\.dll`)
	// javaVersionPattern matches the banner java -version prints on
	// stderr.
	javaVersionPattern = regexp.MustCompile(`version "([^"]+)"`)
)

// canonicalRuntimeNames restores vendor casing lost when module paths
// are lowercased for matching, so runtime findings merge with the
// dotnet CLI listing.
var canonicalRuntimeNames = map[string]string{
	"microsoft.netcore.app":    "Microsoft.NETCore.App",
	"microsoft.aspnetcore.app": "Microsoft.AspNetCore.App",
}

// Finding is one per-process dependency record.
type Finding struct {
	Category   string
	Dependency report.Dependency
}

// Result carries what the process phase observed: frameworks seen
// running plus per-process dependency records.
type Result struct {
	Frameworks []report.Framework
	Findings   []Finding
}

// processInfo is the slice of process state the scanner reads.
type processInfo struct {
	pid  int32
	name string
	exe  string
}

// processLister enumerates candidate processes.
type processLister func(ctx context.Context) ([]processInfo, error)

// commandRunner executes a version probe and returns combined output;
// java writes its banner to stderr.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Scanner inspects the live process table once per Scan call.
type Scanner struct {
	list         processLister
	modules      winsys.ModuleLister
	runner       commandRunner
	probeTimeout time.Duration
}

// NewScanner creates a scanner backed by the host process table. The
// probe timeout bounds each java -version subprocess.
func NewScanner(modules winsys.ModuleLister, probeTimeout time.Duration) *Scanner {
	return &Scanner{
		list:         listProcesses,
		modules:      modules,
		runner:       runProbe,
		probeTimeout: probeTimeout,
	}
}

// Scan walks the process table. Processes that vanish or deny access
// are skipped; an unsupported module lister aborts the phase.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	procs, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, proc := range procs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if proc.exe == "" {
			continue
		}
		if err := s.inspectDotnet(proc, result); err != nil {
			return result, err
		}
		if isJavaProcess(proc) {
			s.inspectJava(ctx, proc, result)
		}
	}
	return result, nil
}

// inspectDotnet walks the process module table looking for coreclr. A
// coreclr.dll under the shared framework tree identifies the runtime
// and version; one anywhere else marks a self-contained deployment.
func (s *Scanner) inspectDotnet(proc processInfo, result *Result) error {
	modules, err := s.modules.Modules(proc.pid)
	if err != nil {
		if errors.Is(err, winsys.ErrUnsupported) {
			return err
		}
		// Protected processes deny module access; that is not evidence
		// either way.
		logger.Debug("module walk failed",
			logger.String("process", proc.name),
			logger.Int("pid", int(proc.pid)),
			logger.Err(err))
		return nil
	}

	for _, module := range modules {
		path := strings.ToLower(module.Path)
		if m := sharedRuntimePattern.FindStringSubmatch(path); m != nil {
			name := canonicalRuntimeNames[m[1]]
			if name == "" {
				name = m[1]
			}
			result.Frameworks = append(result.Frameworks, report.Framework{
				Name:            name,
				Version:         m[2],
				Vendor:          "Microsoft",
				Source:          report.SourceProcess,
				DetectionMethod: report.MethodRuntime,
				Confidence:      report.ConfidenceHigh,
				Status:          report.StatusRunning,
			})
			result.Findings = append(result.Findings, Finding{
				Category: CategoryDotnetRuntime,
				Dependency: report.Dependency{
					Process:   proc.name,
					PID:       proc.pid,
					Kind:      "shared_runtime",
					Framework: name,
					Version:   m[2],
					Path:      module.Path,
				},
			})
			return nil
		}
		if strings.Contains(path, "coreclr.dll") && !strings.Contains(path, "microsoft.net") {
			result.Findings = append(result.Findings, Finding{
				Category: CategoryDotnetRuntime,
				Dependency: report.Dependency{
					Process: proc.name,
					PID:     proc.pid,
					Kind:    "self_contained",
					Path:    module.Path,
				},
			})
			return nil
		}
	}
	return nil
}

// inspectJava probes the process executable for its version banner. A
// failed probe still records the process, just without a version or a
// framework entry.
func (s *Scanner) inspectJava(ctx context.Context, proc processInfo, result *Result) {
	version := s.probeJavaVersion(ctx, proc.exe)

	result.Findings = append(result.Findings, Finding{
		Category: CategoryJavaRuntime,
		Dependency: report.Dependency{
			Process:   proc.name,
			PID:       proc.pid,
			Kind:      "jvm",
			Framework: "Java Runtime",
			Version:   version,
			Path:      proc.exe,
		},
	})
	if version == "" {
		return
	}

	result.Frameworks = append(result.Frameworks, report.Framework{
		Name:            "Java",
		Version:         version,
		Source:          report.SourceProcess,
		DetectionMethod: report.MethodRuntime,
		Confidence:      report.ConfidenceHigh,
		Status:          report.StatusRunning,
	})
}

func (s *Scanner) probeJavaVersion(ctx context.Context, exe string) string {
	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	output, err := s.runner(probeCtx, exe, "-version")
	if err != nil {
		logger.Debug("java version probe failed",
			logger.String("exe", exe), logger.Err(err))
		return ""
	}
	if m := javaVersionPattern.FindSubmatch(output); m != nil {
		return string(m[1])
	}
	return ""
}

func isJavaProcess(proc processInfo) bool {
	return isJavaExecutable(proc.name) || isJavaExecutable(lastPathSegment(proc.exe))
}

func isJavaExecutable(name string) bool {
	switch strings.ToLower(name) {
	case "java.exe", "javaw.exe":
		return true
	}
	return false
}

// lastPathSegment splits on either separator so scanned Windows paths
// parse the same in tests on any host.
func lastPathSegment(path string) string {
	if idx := strings.LastIndexAny(path, `\/`); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func listProcesses(ctx context.Context) ([]processInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating processes: %w", err)
	}
	infos := make([]processInfo, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			// Vanished or protected processes drop out here.
			continue
		}
		exe, _ := proc.ExeWithContext(ctx)
		infos = append(infos, processInfo{pid: proc.Pid, name: name, exe: exe})
	}
	return infos, nil
}

func runProbe(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}
