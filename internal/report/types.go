/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package report

import "strings"

// Detection sources.
const (
	SourceRegistry      = "registry"
	SourceDotnetCLI     = "dotnet_cli"
	SourceServices      = "services"
	SourceFilesystem    = "filesystem"
	SourceProcess       = "process"
	SourceUninstallKeys = "uninstall_keys"
)

// Detection methods. Static findings come from installed artifacts,
// runtime findings from live processes.
const (
	MethodStatic  = "static_analysis"
	MethodRuntime = "runtime_analysis"
)

// Confidence levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Framework statuses. Running is sticky across merges: once any
// source observes a framework live, installed evidence cannot demote
// it.
const (
	StatusInstalled = "installed"
	StatusRunning   = "running"
)

// Phase statuses.
const (
	PhaseSuccess = "success"
	PhaseError   = "error"
	PhaseSkipped = "skipped"
)

// Report is the single JSON document a scan produces.
type Report struct {
	ScanID       string                  `json:"scan_id"`
	Tool         ToolInfo                `json:"tool"`
	Host         HostInfo                `json:"host"`
	Summary      Summary                 `json:"scan_summary"`
	Frameworks   []Framework             `json:"frameworks"`
	Dependencies map[string][]Dependency `json:"dependencies"`
	Phases       []PhaseResult           `json:"phases"`
}

// ToolInfo identifies the scanner that produced the report.
type ToolInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HostInfo describes the scanned machine.
type HostInfo struct {
	Hostname     string `json:"hostname"`
	OS           string `json:"os"`
	OSVersion    string `json:"os_version,omitempty"`
	Architecture string `json:"architecture"`
	BootTime     string `json:"boot_time,omitempty"`
}

// Summary carries the headline counts. ScanTimestamp is the moment the
// scan started, not when the report was written.
type Summary struct {
	FrameworksFound   int    `json:"frameworks_found"`
	DependenciesFound int    `json:"dependencies_found"`
	ScanTimestamp     string `json:"scan_timestamp"`
}

// Framework is one detected runtime or database engine.
type Framework struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Vendor          string `json:"vendor,omitempty"`
	Edition         string `json:"edition,omitempty"`
	InstallPath     string `json:"install_path,omitempty"`
	Source          string `json:"source"`
	DetectionMethod string `json:"detection_method"`
	Confidence      string `json:"confidence"`
	Status          string `json:"status"`
	EOLStatus       string `json:"eol_status"`
	EOLDate         string `json:"eol_date,omitempty"`
}

// Key is the merge identity: evidence for the same name (case
// insensitive) and version folds into one entry.
func (f Framework) Key() string {
	return strings.ToLower(strings.TrimSpace(f.Name)) + "|" + strings.TrimSpace(f.Version)
}

// Dependency is one application-level artifact tied to a framework,
// found on disk or in a live process.
type Dependency struct {
	App       string `json:"app,omitempty"`
	Process   string `json:"process,omitempty"`
	PID       int32  `json:"pid,omitempty"`
	Kind      string `json:"kind"`
	Framework string `json:"framework,omitempty"`
	Artifact  string `json:"artifact,omitempty"`
	Version   string `json:"version,omitempty"`
	Path      string `json:"path,omitempty"`
}

// PhaseResult records how one scan phase fared. A failed phase never
// aborts the scan; it is reported here instead.
type PhaseResult struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Findings   int    `json:"findings"`
}
