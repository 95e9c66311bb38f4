package detect

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/fulmenhq/depscout/internal/report"
	"github.com/fulmenhq/depscout/pkg/logger"
)

// runtimeLinePattern matches dotnet --list-runtimes output:
// Microsoft.NETCore.App 6.0.16 [C:\Program Files\dotnet\shared\Microsoft.NETCore.App]
var runtimeLinePattern = regexp.MustCompile(`^(\S+)\s+(\S+)\s+\[(.*)\]$`)

// DotnetDetector finds .NET Core and .NET 5+ runtimes through the
// dotnet CLI.
type DotnetDetector struct {
	runner  CommandRunner
	timeout time.Duration
}

// NewDotnetDetector creates a detector that shells out to dotnet.
func NewDotnetDetector(timeout time.Duration) *DotnetDetector {
	return &DotnetDetector{runner: runCommand, timeout: timeout}
}

// NewDotnetDetectorWithRunner creates a detector with a custom command
// runner, for tests.
func NewDotnetDetectorWithRunner(runner CommandRunner, timeout time.Duration) *DotnetDetector {
	return &DotnetDetector{runner: runner, timeout: timeout}
}

func (d *DotnetDetector) Name() string { return "dotnet" }

// Detect runs dotnet --list-runtimes and parses one framework per
// line. A missing or failing dotnet CLI means no shared runtimes can
// be listed, which is a clean empty result, not a failure. Only
// cancellation of the surrounding scan propagates as an error.
func (d *DotnetDetector) Detect(ctx context.Context) ([]report.Framework, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	output, err := d.runner(cmdCtx, "dotnet", "--list-runtimes")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Debug("dotnet CLI unavailable, skipping runtime listing", logger.Err(err))
		return nil, nil
	}

	var found []report.Framework
	for _, line := range strings.Split(string(output), "\n") {
		matches := runtimeLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}
		found = append(found, report.Framework{
			Name:            matches[1],
			Version:         matches[2],
			Vendor:          "Microsoft",
			InstallPath:     matches[3],
			Source:          report.SourceDotnetCLI,
			DetectionMethod: report.MethodStatic,
			Confidence:      report.ConfidenceHigh,
			Status:          report.StatusInstalled,
		})
	}
	return found, nil
}
