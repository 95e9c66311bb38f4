// Package detect finds installed runtime frameworks: Java via the
// registry, .NET via the dotnet CLI, and SQL engines via the registry
// and the service table. Detectors only gather evidence; EOL
// classification happens after merging.
package detect

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/fulmenhq/depscout/internal/report"
)

// Detector finds installed frameworks from one evidence source.
type Detector interface {
	Name() string
	Detect(ctx context.Context) ([]report.Framework, error)
}

// CommandRunner executes an external command and returns its stdout.
// Detectors take one so tests can substitute canned output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}

// executableFromCommand extracts the executable path from a service
// command line. Quoted paths are unquoted; unquoted ones are cut after
// the first .exe token so arguments and embedded spaces survive.
func executableFromCommand(cmdline string) string {
	cmdline = strings.TrimSpace(cmdline)
	if cmdline == "" {
		return ""
	}
	if strings.HasPrefix(cmdline, `"`) {
		rest := cmdline[1:]
		if end := strings.Index(rest, `"`); end >= 0 {
			return rest[:end]
		}
		return rest
	}
	if idx := strings.Index(strings.ToLower(cmdline), ".exe"); idx >= 0 {
		return cmdline[:idx+len(".exe")]
	}
	if idx := strings.IndexByte(cmdline, ' '); idx >= 0 {
		return cmdline[:idx]
	}
	return cmdline
}

// parentDir strips the last path element. Service command lines carry
// Windows separators even when this code is built elsewhere, so this
// does not rely on the host's filepath rules.
func parentDir(path string) string {
	idx := strings.LastIndexAny(path, `\/`)
	if idx <= 0 {
		return ""
	}
	return path[:idx]
}
