// Package policy gates scan reports through OPA. A policy is a small
// YAML document of fail_on switches transpiled to Rego deny rules, or
// a raw Rego module supplied by the operator. Evaluation queries
// data.depscout.report.deny against the report JSON.
package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/depscout/internal/assets"
	"github.com/fulmenhq/depscout/internal/report"
)

const denyQuery = "data.depscout.report.deny"

// Builtin gate names, as accepted by --fail-on and the YAML document.
const (
	GateEOLFrameworks       = "eol_frameworks"
	GateRunningEOL          = "running_eol"
	GateUnknownEOL          = "unknown_eol"
	GateSelfContainedDotnet = "self_contained_dotnet"
)

// Document is the YAML policy shape: gate switches plus framework
// exceptions. An exception entry is a framework name, or a name and
// version separated by a space, matched case-insensitively.
type Document struct {
	Version    string   `yaml:"version"`
	FailOn     FailOn   `yaml:"fail_on"`
	Exceptions []string `yaml:"exceptions"`
}

// FailOn switches the individual report gates.
type FailOn struct {
	EOLFrameworks       bool `yaml:"eol_frameworks"`
	RunningEOL          bool `yaml:"running_eol"`
	UnknownEOL          bool `yaml:"unknown_eol"`
	SelfContainedDotnet bool `yaml:"self_contained_dotnet"`
}

// FromGates builds a document with the named gates enabled. Unknown
// gate names are rejected so a typo cannot silently pass a scan.
func FromGates(names []string) (Document, error) {
	doc := Document{Version: "1.0.0"}
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case GateEOLFrameworks:
			doc.FailOn.EOLFrameworks = true
		case GateRunningEOL:
			doc.FailOn.RunningEOL = true
		case GateUnknownEOL:
			doc.FailOn.UnknownEOL = true
		case GateSelfContainedDotnet:
			doc.FailOn.SelfContainedDotnet = true
		case "":
		default:
			return Document{}, fmt.Errorf("unknown policy gate %q", name)
		}
	}
	return doc, nil
}

// Engine evaluates one loaded policy against scan reports.
type Engine struct {
	regoCode string
}

// LoadEmbedded builds an engine from the default policy compiled into
// the binary. Every gate in that policy ships disabled.
func LoadEmbedded() (*Engine, error) {
	data, ok := assets.GetCatalog("default-policy.yaml")
	if !ok {
		return nil, errors.New("embedded default policy missing")
	}
	return Load(data)
}

// LoadFile builds an engine from a policy file. A .rego file is taken
// verbatim and must define deny rules under package depscout.report;
// any other extension parses as the YAML gate document.
func LoadFile(path string) (*Engine, error) {
	clean := filepath.Clean(path)
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("reading policy: %w", err)
	}
	if strings.EqualFold(filepath.Ext(clean), ".rego") {
		return &Engine{regoCode: string(data)}, nil
	}
	return Load(data)
}

// Load parses YAML gate bytes and transpiles them to Rego.
func Load(data []byte) (*Engine, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}
	return FromDocument(doc), nil
}

// FromDocument transpiles a gate document into an engine.
func FromDocument(doc Document) *Engine {
	return &Engine{regoCode: transpile(doc)}
}

// Evaluate runs the deny query against the report and returns the
// violation messages in sorted order. An empty result means the report
// passes.
func (e *Engine) Evaluate(ctx context.Context, rep *report.Report) ([]string, error) {
	input, err := reportInput(rep)
	if err != nil {
		return nil, err
	}

	rs, err := rego.New(
		rego.Query(denyQuery),
		rego.Input(input),
		rego.Module("policy.rego", e.regoCode),
	).Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluating policy: %w", err)
	}

	var violations []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			values, ok := expr.Value.([]interface{})
			if !ok {
				continue
			}
			for _, value := range values {
				if msg, ok := value.(string); ok {
					violations = append(violations, msg)
				}
			}
		}
	}
	sort.Strings(violations)
	return violations, nil
}

// reportInput round-trips the report through JSON so the policy sees
// exactly the document that lands on disk.
func reportInput(rep *report.Report) (map[string]interface{}, error) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("encoding report for policy: %w", err)
	}
	var input map[string]interface{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("decoding report for policy: %w", err)
	}
	return input, nil
}

// transpile renders the gate document as a Rego module. A disabled
// gate emits no rule at all, so the default document denies nothing.
func transpile(doc Document) string {
	var buf bytes.Buffer
	buf.WriteString("package depscout.report\n\n")

	buf.WriteString("exceptions := ")
	buf.WriteString(regoStringArray(doc.Exceptions))
	buf.WriteString("\n\n")
	buf.WriteString("excepted(fw) if {\n")
	buf.WriteString("  lower(fw.name) == exceptions[_]\n")
	buf.WriteString("}\n\n")
	buf.WriteString("excepted(fw) if {\n")
	buf.WriteString("  lower(concat(\" \", [fw.name, fw.version])) == exceptions[_]\n")
	buf.WriteString("}\n\n")

	if doc.FailOn.EOLFrameworks {
		buf.WriteString("deny contains msg if {\n")
		buf.WriteString("  fw := input.frameworks[_]\n")
		buf.WriteString("  fw.eol_status == \"EOL\"\n")
		buf.WriteString("  not excepted(fw)\n")
		buf.WriteString("  msg := sprintf(\"framework %s %s is end of life\", [fw.name, fw.version])\n")
		buf.WriteString("}\n\n")
	}
	if doc.FailOn.RunningEOL {
		buf.WriteString("deny contains msg if {\n")
		buf.WriteString("  fw := input.frameworks[_]\n")
		buf.WriteString("  fw.eol_status == \"EOL\"\n")
		buf.WriteString("  fw.status == \"running\"\n")
		buf.WriteString("  not excepted(fw)\n")
		buf.WriteString("  msg := sprintf(\"end-of-life framework %s %s is running\", [fw.name, fw.version])\n")
		buf.WriteString("}\n\n")
	}
	if doc.FailOn.UnknownEOL {
		buf.WriteString("deny contains msg if {\n")
		buf.WriteString("  fw := input.frameworks[_]\n")
		buf.WriteString("  fw.eol_status == \"Unknown\"\n")
		buf.WriteString("  not excepted(fw)\n")
		buf.WriteString("  msg := sprintf(\"framework %s %s has no end-of-life data\", [fw.name, fw.version])\n")
		buf.WriteString("}\n\n")
	}
	if doc.FailOn.SelfContainedDotnet {
		buf.WriteString("deny contains msg if {\n")
		buf.WriteString("  dep := input.dependencies.dotnet_runtime[_]\n")
		buf.WriteString("  dep.kind == \"self_contained\"\n")
		buf.WriteString("  msg := sprintf(\"process %s (pid %v) runs a self-contained .NET runtime\", [dep.process, dep.pid])\n")
		buf.WriteString("}\n\n")
	}

	return buf.String()
}

// regoStringArray renders exception entries as a lowercased Rego array.
func regoStringArray(items []string) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%q", item))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
