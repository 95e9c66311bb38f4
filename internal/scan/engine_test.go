package scan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/depscout/internal/appscan"
	"github.com/fulmenhq/depscout/internal/detect"
	"github.com/fulmenhq/depscout/internal/procscan"
	"github.com/fulmenhq/depscout/internal/report"
	"github.com/fulmenhq/depscout/internal/winsys"
	"github.com/fulmenhq/depscout/pkg/config"
	"github.com/fulmenhq/depscout/pkg/eol"
)

type fakeDetector struct {
	name       string
	frameworks []report.Framework
	err        error
}

func (d fakeDetector) Name() string { return d.name }

func (d fakeDetector) Detect(context.Context) ([]report.Framework, error) {
	return d.frameworks, d.err
}

type fakeAppScanner struct {
	findings []appscan.Finding
	err      error
	called   bool
	deadline bool
}

func (s *fakeAppScanner) Scan(ctx context.Context) ([]appscan.Finding, error) {
	s.called = true
	_, s.deadline = ctx.Deadline()
	return s.findings, s.err
}

type fakeProcScanner struct {
	result *procscan.Result
	err    error
	called bool
}

func (s *fakeProcScanner) Scan(context.Context) (*procscan.Result, error) {
	s.called = true
	return s.result, s.err
}

func newTestEngine(t *testing.T, detectors []detect.Detector, apps appScanner, procs procScanner) *Engine {
	t.Helper()
	classifier, err := eol.LoadEmbedded()
	require.NoError(t, err, "LoadEmbedded()")
	return &Engine{
		cfg:        &config.Config{Scan: config.ScanConfig{PhaseTimeout: time.Minute}},
		detectors:  detectors,
		apps:       apps,
		procs:      procs,
		classifier: classifier,
		host: func(context.Context) report.HostInfo {
			return report.HostInfo{Hostname: "WIN-TEST01", OS: "windows", OSVersion: "10.0.19045", Architecture: "x86_64"}
		},
	}
}

func phaseByName(t *testing.T, rep *report.Report, name string) report.PhaseResult {
	t.Helper()
	for _, phase := range rep.Phases {
		if phase.Name == name {
			return phase
		}
	}
	t.Fatalf("phase %q missing from report: %+v", name, rep.Phases)
	return report.PhaseResult{}
}

func TestEngineRunMergesPhases(t *testing.T) {
	detector := fakeDetector{
		name: "java",
		frameworks: []report.Framework{{
			Name:            "Java",
			Version:         "1.8.0_371",
			Edition:         "JRE",
			InstallPath:     `C:\Program Files\Java\jre1.8.0_371`,
			Source:          report.SourceRegistry,
			DetectionMethod: report.MethodStatic,
			Confidence:      report.ConfidenceHigh,
			Status:          report.StatusInstalled,
		}},
	}
	apps := &fakeAppScanner{findings: []appscan.Finding{{
		Category: appscan.CategoryJava,
		Dependency: report.Dependency{
			App:       "Demo Suite",
			Kind:      "jar",
			Framework: "Java Runtime",
			Artifact:  "log4j-core-2.14.1.jar",
			Version:   "2.14.1",
			Path:      `C:\Program Files\Demo Suite\lib\log4j-core-2.14.1.jar`,
		},
	}}}
	procs := &fakeProcScanner{result: &procscan.Result{
		Frameworks: []report.Framework{{
			Name:            "Java",
			Version:         "1.8.0_371",
			Source:          report.SourceProcess,
			DetectionMethod: report.MethodRuntime,
			Confidence:      report.ConfidenceHigh,
			Status:          report.StatusRunning,
		}},
		Findings: []procscan.Finding{{
			Category: procscan.CategoryJavaRuntime,
			Dependency: report.Dependency{
				Process:   "java.exe",
				PID:       4242,
				Kind:      "jvm",
				Framework: "Java Runtime",
				Version:   "1.8.0_371",
				Path:      `C:\Program Files\Java\jre1.8.0_371\bin\java.exe`,
			},
		}},
	}}

	engine := newTestEngine(t, []detect.Detector{detector}, apps, procs)
	rep, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rep.ScanID == "" {
		t.Error("Run() produced an empty scan_id")
	}
	if rep.Tool.Name != "depscout" {
		t.Errorf("tool name = %q, want depscout", rep.Tool.Name)
	}
	if rep.Host.Hostname != "WIN-TEST01" {
		t.Errorf("hostname = %q, want WIN-TEST01", rep.Host.Hostname)
	}

	if len(rep.Frameworks) != 1 {
		t.Fatalf("got %d frameworks, want 1 merged entry: %+v", len(rep.Frameworks), rep.Frameworks)
	}
	fw := rep.Frameworks[0]
	if fw.Status != report.StatusRunning {
		t.Errorf("merged status = %q, want running", fw.Status)
	}
	if fw.Source != report.SourceProcess {
		t.Errorf("merged source = %q, want process", fw.Source)
	}
	if fw.Edition != "JRE" || fw.InstallPath == "" {
		t.Errorf("merge dropped installed-evidence fields: %+v", fw)
	}
	if fw.EOLStatus != eol.StatusEOL || fw.EOLDate != "2019-01-15" {
		t.Errorf("classification = %s/%s, want EOL/2019-01-15", fw.EOLStatus, fw.EOLDate)
	}

	if got := len(rep.Dependencies[appscan.CategoryJava]); got != 1 {
		t.Errorf("java dependencies = %d, want 1", got)
	}
	if got := len(rep.Dependencies[procscan.CategoryJavaRuntime]); got != 1 {
		t.Errorf("java_runtime dependencies = %d, want 1", got)
	}
	if rep.Summary.FrameworksFound != 1 || rep.Summary.DependenciesFound != 2 {
		t.Errorf("summary counts = %d/%d, want 1/2",
			rep.Summary.FrameworksFound, rep.Summary.DependenciesFound)
	}

	wantPhases := []struct {
		name     string
		findings int
	}{
		{"frameworks", 1},
		{"applications", 1},
		{"processes", 1},
	}
	if len(rep.Phases) != len(wantPhases) {
		t.Fatalf("got %d phases, want %d: %+v", len(rep.Phases), len(wantPhases), rep.Phases)
	}
	for i, want := range wantPhases {
		phase := rep.Phases[i]
		if phase.Name != want.name || phase.Status != report.PhaseSuccess {
			t.Errorf("phase %d = %s/%s, want %s/success", i, phase.Name, phase.Status, want.name)
		}
		if phase.Findings != want.findings {
			t.Errorf("phase %s findings = %d, want %d", phase.Name, phase.Findings, want.findings)
		}
	}
}

func TestEngineRunHonorsSkipFlags(t *testing.T) {
	apps := &fakeAppScanner{}
	procs := &fakeProcScanner{}
	engine := newTestEngine(t, nil, apps, procs)
	engine.cfg.Scan.SkipApps = true
	engine.cfg.Scan.SkipProcesses = true

	rep, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if apps.called || procs.called {
		t.Errorf("skipped scanners ran anyway: apps=%v procs=%v", apps.called, procs.called)
	}
	if got := phaseByName(t, rep, "applications").Status; got != report.PhaseSkipped {
		t.Errorf("applications status = %q, want skipped", got)
	}
	if got := phaseByName(t, rep, "processes").Status; got != report.PhaseSkipped {
		t.Errorf("processes status = %q, want skipped", got)
	}
	if got := phaseByName(t, rep, "frameworks").Status; got != report.PhaseSuccess {
		t.Errorf("frameworks status = %q, want success", got)
	}
}

func TestEngineRunRecordsPhaseError(t *testing.T) {
	procs := &fakeProcScanner{
		result: &procscan.Result{
			Frameworks: []report.Framework{{
				Name:            "Java",
				Version:         "17.0.2",
				Source:          report.SourceProcess,
				DetectionMethod: report.MethodRuntime,
				Confidence:      report.ConfidenceHigh,
				Status:          report.StatusRunning,
			}},
		},
		err: errors.New("process table unavailable"),
	}
	engine := newTestEngine(t, nil, &fakeAppScanner{}, procs)

	rep, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, phase failures must stay inside the report", err)
	}
	phase := phaseByName(t, rep, "processes")
	if phase.Status != report.PhaseError {
		t.Errorf("status = %q, want error", phase.Status)
	}
	if !strings.Contains(phase.Error, "process table unavailable") {
		t.Errorf("phase error = %q, want the original message", phase.Error)
	}
	if len(rep.Frameworks) != 1 {
		t.Errorf("partial findings before the failure were dropped: %+v", rep.Frameworks)
	}
}

func TestEngineRunSkipsUnsupportedProcessScan(t *testing.T) {
	procs := &fakeProcScanner{err: fmt.Errorf("listing modules: %w", winsys.ErrUnsupported)}
	engine := newTestEngine(t, nil, &fakeAppScanner{}, procs)

	rep, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	phase := phaseByName(t, rep, "processes")
	if phase.Status != report.PhaseSkipped {
		t.Errorf("status = %q, want skipped", phase.Status)
	}
	if phase.Error == "" {
		t.Error("unsupported phase should record the reason it was skipped")
	}
}

func TestFrameworksPhaseStatusClassification(t *testing.T) {
	javaFw := report.Framework{
		Name:            "Java",
		Version:         "17.0.2",
		Source:          report.SourceRegistry,
		DetectionMethod: report.MethodStatic,
		Confidence:      report.ConfidenceHigh,
		Status:          report.StatusInstalled,
	}

	tests := []struct {
		name           string
		detectors      []detect.Detector
		wantStatus     string
		wantFrameworks int
	}{
		{
			name: "all failures unsupported",
			detectors: []detect.Detector{
				fakeDetector{name: "java", err: winsys.ErrUnsupported},
				fakeDetector{name: "mssql", err: fmt.Errorf("registry: %w", winsys.ErrUnsupported)},
			},
			wantStatus: report.PhaseSkipped,
		},
		{
			name: "unsupported peers do not mask a real failure",
			detectors: []detect.Detector{
				fakeDetector{name: "java", err: winsys.ErrUnsupported},
				fakeDetector{name: "dotnet", err: errors.New("dotnet: exit status 1")},
			},
			wantStatus: report.PhaseError,
		},
		{
			name: "findings survive peer failures",
			detectors: []detect.Detector{
				fakeDetector{name: "java", frameworks: []report.Framework{javaFw}},
				fakeDetector{name: "mssql", err: winsys.ErrUnsupported},
			},
			wantStatus:     report.PhaseSkipped,
			wantFrameworks: 1,
		},
		{
			name: "all detectors clean",
			detectors: []detect.Detector{
				fakeDetector{name: "java", frameworks: []report.Framework{javaFw}},
			},
			wantStatus:     report.PhaseSuccess,
			wantFrameworks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, tt.detectors, &fakeAppScanner{}, &fakeProcScanner{result: &procscan.Result{}})
			rep, err := engine.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			phase := phaseByName(t, rep, "frameworks")
			if phase.Status != tt.wantStatus {
				t.Errorf("frameworks status = %q, want %q (error: %s)", phase.Status, tt.wantStatus, phase.Error)
			}
			if len(rep.Frameworks) != tt.wantFrameworks {
				t.Errorf("got %d frameworks, want %d", len(rep.Frameworks), tt.wantFrameworks)
			}
		})
	}
}

func TestEngineRunAppliesPhaseTimeout(t *testing.T) {
	apps := &fakeAppScanner{}
	engine := newTestEngine(t, nil, apps, &fakeProcScanner{result: &procscan.Result{}})
	engine.cfg.Scan.PhaseTimeout = time.Minute
	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !apps.deadline {
		t.Error("phase context has no deadline despite a configured phase_timeout")
	}

	apps = &fakeAppScanner{}
	engine = newTestEngine(t, nil, apps, &fakeProcScanner{result: &procscan.Result{}})
	engine.cfg.Scan.PhaseTimeout = 0
	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if apps.deadline {
		t.Error("zero phase_timeout must not install a deadline")
	}
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(&config.Config{})
	require.NoError(t, err)
	require.NotEmpty(t, engine.detectors, "NewEngine() left the detector seam unwired")
	require.NotNil(t, engine.apps, "NewEngine() left the application scanner seam unwired")
	require.NotNil(t, engine.procs, "NewEngine() left the process scanner seam unwired")
	assert.Equal(t, "installed-programs", engine.detectors[0].Name(),
		"weakest detector must run first so stronger probes overwrite it")

	cfg := &config.Config{}
	cfg.EOL.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewEngine(cfg)
	assert.Error(t, err, "NewEngine() with an unreadable catalog path should fail")
}

func TestCollectHostInfoPopulatesBasics(t *testing.T) {
	info := CollectHostInfo(context.Background())
	assert.NotEmpty(t, info.OS, "CollectHostInfo() returned an empty OS")
	assert.NotEmpty(t, info.Architecture, "CollectHostInfo() returned an empty architecture")
	if info.BootTime != "" {
		_, err := time.Parse(time.RFC3339, info.BootTime)
		assert.NoError(t, err, "boot time %q is not RFC3339", info.BootTime)
	}
}
