/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package report

import (
	"fmt"
	"time"
)

// Builder accumulates findings from the scan phases and folds them
// into a single report. Frameworks merge by Key with last-write-wins
// field updates; dependencies deduplicate exactly.
type Builder struct {
	frameworks map[string]*Framework
	order      []string
	deps       map[string][]Dependency
	depSeen    map[string]struct{}
	phases     []PhaseResult
}

// NewBuilder creates an empty report builder.
func NewBuilder() *Builder {
	return &Builder{
		frameworks: make(map[string]*Framework),
		deps:       make(map[string][]Dependency),
		depSeen:    make(map[string]struct{}),
	}
}

// AddFramework records framework evidence. Evidence with a key already
// seen merges into the existing entry: non-empty fields from the new
// evidence win, except Status where running is sticky.
func (b *Builder) AddFramework(fw Framework) {
	key := fw.Key()
	existing, ok := b.frameworks[key]
	if !ok {
		copied := fw
		b.frameworks[key] = &copied
		b.order = append(b.order, key)
		return
	}

	if fw.Name != "" {
		existing.Name = fw.Name
	}
	if fw.Version != "" {
		existing.Version = fw.Version
	}
	if fw.Vendor != "" {
		existing.Vendor = fw.Vendor
	}
	if fw.Edition != "" {
		existing.Edition = fw.Edition
	}
	if fw.InstallPath != "" {
		existing.InstallPath = fw.InstallPath
	}
	if fw.Source != "" {
		existing.Source = fw.Source
	}
	if fw.DetectionMethod != "" {
		existing.DetectionMethod = fw.DetectionMethod
	}
	if fw.Confidence != "" {
		existing.Confidence = fw.Confidence
	}
	if fw.EOLStatus != "" {
		existing.EOLStatus = fw.EOLStatus
	}
	if fw.EOLDate != "" {
		existing.EOLDate = fw.EOLDate
	}
	switch {
	case existing.Status == StatusRunning || fw.Status == StatusRunning:
		existing.Status = StatusRunning
	case fw.Status != "":
		existing.Status = fw.Status
	}
}

// AddDependency records a dependency under its category key. Exact
// duplicates are dropped.
func (b *Builder) AddDependency(category string, dep Dependency) {
	fingerprint := fmt.Sprintf("%s|%s|%s|%d|%s|%s|%s|%s|%s",
		category, dep.App, dep.Process, dep.PID, dep.Kind, dep.Framework, dep.Artifact, dep.Version, dep.Path)
	if _, seen := b.depSeen[fingerprint]; seen {
		return
	}
	b.depSeen[fingerprint] = struct{}{}
	b.deps[category] = append(b.deps[category], dep)
}

// AddPhase appends a phase outcome in execution order.
func (b *Builder) AddPhase(phase PhaseResult) {
	b.phases = append(b.phases, phase)
}

// FrameworkCount returns the number of distinct frameworks so far.
func (b *Builder) FrameworkCount() int {
	return len(b.frameworks)
}

// DependencyCount returns the number of recorded dependencies so far.
func (b *Builder) DependencyCount() int {
	total := 0
	for _, list := range b.deps {
		total += len(list)
	}
	return total
}

// Frameworks returns the merged frameworks in first-seen order.
func (b *Builder) Frameworks() []Framework {
	frameworks := make([]Framework, 0, len(b.order))
	for _, key := range b.order {
		frameworks = append(frameworks, *b.frameworks[key])
	}
	return frameworks
}

// Build assembles the final report. Frameworks appear in first-seen
// order so output is stable across runs with the same findings.
func (b *Builder) Build(scanID string, tool ToolInfo, host HostInfo, started time.Time) *Report {
	frameworks := b.Frameworks()

	deps := make(map[string][]Dependency, len(b.deps))
	for app, list := range b.deps {
		deps[app] = append([]Dependency(nil), list...)
	}

	return &Report{
		ScanID: scanID,
		Tool:   tool,
		Host:   host,
		Summary: Summary{
			FrameworksFound:   len(frameworks),
			DependenciesFound: b.DependencyCount(),
			ScanTimestamp:     started.UTC().Format(time.RFC3339),
		},
		Frameworks:   frameworks,
		Dependencies: deps,
		Phases:       append([]PhaseResult(nil), b.phases...),
	}
}
