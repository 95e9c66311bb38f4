// Package doctor diagnoses the surfaces a scan depends on: the probe
// binaries on PATH and access to the host introspection seams. Doctor
// never fixes anything; it reports what a scan on this host would see.
package doctor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/fulmenhq/depscout/internal/winsys"
)

// Tool is an external binary one of the scan phases shells out to.
type Tool struct {
	Name        string
	VersionArgs []string
	// Purpose says what the scanner uses the tool for.
	Purpose string
	// Instructions tell the operator how to get the tool.
	Instructions string
}

// Status is the outcome of checking one tool.
type Status struct {
	Name         string
	Present      bool
	Version      string
	Instructions string
}

// KnownProbeTools returns the binaries the scan phases can use. Both
// are optional: detection degrades to registry and filesystem evidence
// without them.
func KnownProbeTools() []Tool {
	return []Tool{
		{
			Name:         "dotnet",
			VersionArgs:  []string{"--version"},
			Purpose:      "lists installed shared .NET runtimes",
			Instructions: "Install the .NET SDK or runtime: https://dotnet.microsoft.com/download",
		},
		{
			Name:         "java",
			VersionArgs:  []string{"-version"},
			Purpose:      "confirms the version of running JVMs",
			Instructions: "Install a JRE or JDK, e.g. https://adoptium.net",
		},
	}
}

// GetToolByName finds a known tool by its binary name.
func GetToolByName(name string) (Tool, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, t := range KnownProbeTools() {
		if t.Name == needle {
			return t, true
		}
	}
	return Tool{}, false
}

// CheckTool looks the tool up on PATH and, when present, asks it for
// its version.
func CheckTool(t Tool) Status {
	if _, err := exec.LookPath(t.Name); err != nil {
		return Status{
			Name:         t.Name,
			Present:      false,
			Instructions: t.Instructions,
		}
	}
	return Status{
		Name:    t.Name,
		Present: true,
		Version: detectVersion(t),
	}
}

func detectVersion(t Tool) string {
	out, ok := tryCommand(t.Name, t.VersionArgs...)
	if !ok {
		return ""
	}
	return sanitizeVersion(out)
}

// tryCommand runs a binary and returns whatever text it produced.
// Version banners often land on stderr (java -version does), so stderr
// output is not treated as failure.
func tryCommand(name string, args ...string) (string, bool) {
	cmd := exec.Command(name, args...)
	var out bytes.Buffer
	var errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	if err := cmd.Run(); err != nil {
		if s := strings.TrimSpace(errb.String()); s != "" {
			return s, true
		}
		return "", false
	}
	s := strings.TrimSpace(out.String())
	if s == "" {
		if ss := strings.TrimSpace(errb.String()); ss != "" {
			return ss, true
		}
	}
	return s, true
}

// sanitizeVersion pulls a bare version out of a banner line. Java
// banners look like: openjdk version "17.0.2" 2022-01-18
func sanitizeVersion(s string) string {
	line := strings.TrimSpace(firstLine(s))
	if idx := strings.Index(line, `version "`); idx >= 0 {
		rest := line[idx+len(`version "`):]
		if end := strings.IndexByte(rest, '"'); end >= 0 {
			return rest[:end]
		}
	}
	line = strings.TrimPrefix(line, "version ")
	line = strings.TrimPrefix(line, "Version ")
	return line
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// AccessCheck is the outcome of probing one introspection surface.
type AccessCheck struct {
	Name   string
	OK     bool
	Detail string
}

// CheckAccess probes the registry, the service table, the process
// table, and module snapshots. Each result is independent so doctor
// output shows exactly which scan phase would degrade.
func CheckAccess(ctx context.Context) []AccessCheck {
	return []AccessCheck{
		registryCheck(winsys.NewRegistry()),
		servicesCheck(winsys.NewServiceTable()),
		processCheck(ctx),
		modulesCheck(winsys.NewModuleLister(), os.Getpid()),
	}
}

func registryCheck(registry winsys.RegistryView) AccessCheck {
	check := AccessCheck{Name: "registry (HKLM)"}
	names, err := registry.SubKeyNames(`SOFTWARE\Microsoft\Windows\CurrentVersion`)
	switch {
	case err == nil:
		check.OK = true
		check.Detail = fmt.Sprintf("%d subkeys under CurrentVersion", len(names))
	case errors.Is(err, winsys.ErrUnsupported):
		check.Detail = "not supported on this platform"
	case errors.Is(err, fs.ErrNotExist):
		// The key exists on every supported Windows release; missing
		// means the registry view itself is broken.
		check.Detail = "CurrentVersion key missing"
	default:
		check.Detail = err.Error()
	}
	return check
}

func servicesCheck(services winsys.ServiceTable) AccessCheck {
	check := AccessCheck{Name: "service table"}
	list, err := services.ListServices()
	switch {
	case err == nil:
		check.OK = true
		check.Detail = fmt.Sprintf("%d services visible", len(list))
	case errors.Is(err, winsys.ErrUnsupported):
		check.Detail = "not supported on this platform"
	default:
		check.Detail = err.Error()
	}
	return check
}

func processCheck(ctx context.Context) AccessCheck {
	check := AccessCheck{Name: "process table"}
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	check.OK = true
	check.Detail = fmt.Sprintf("%d processes visible", len(pids))
	return check
}

func modulesCheck(modules winsys.ModuleLister, pid int) AccessCheck {
	check := AccessCheck{Name: "module snapshots"}
	list, err := modules.Modules(int32(pid))
	switch {
	case err == nil:
		check.OK = true
		check.Detail = fmt.Sprintf("%d modules in this process", len(list))
	case errors.Is(err, winsys.ErrUnsupported):
		check.Detail = "not supported on this platform"
	default:
		check.Detail = err.Error()
	}
	return check
}
