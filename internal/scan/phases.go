/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"context"

	"github.com/fulmenhq/depscout/internal/appscan"
	"github.com/fulmenhq/depscout/internal/procscan"
	"github.com/fulmenhq/depscout/internal/report"
)

// DetectFrameworks runs only the framework detectors and returns the
// merged, EOL-classified findings. Used by the phase-scoped commands;
// a full scan goes through Run.
func (e *Engine) DetectFrameworks(ctx context.Context) ([]report.Framework, error) {
	builder := report.NewBuilder()
	err := e.frameworksPhase(ctx, builder)
	frameworks := builder.Frameworks()
	e.ClassifyEOL(frameworks)
	return frameworks, err
}

// ScanApplications runs only the installed-application walk.
func (e *Engine) ScanApplications(ctx context.Context) ([]appscan.Finding, error) {
	return e.apps.Scan(ctx)
}

// ScanProcesses runs only the running-process scan. Frameworks seen
// live are EOL-classified before they are returned.
func (e *Engine) ScanProcesses(ctx context.Context) (*procscan.Result, error) {
	result, err := e.procs.Scan(ctx)
	if result != nil {
		e.ClassifyEOL(result.Frameworks)
	}
	return result, err
}

// ClassifyEOL stamps each framework with its end-of-life status from
// the loaded catalog.
func (e *Engine) ClassifyEOL(frameworks []report.Framework) {
	for i := range frameworks {
		class := e.classifier.Classify(frameworks[i].Name, frameworks[i].Version)
		frameworks[i].EOLStatus = class.Status
		frameworks[i].EOLDate = class.Date
	}
}
