package assets

import (
	"encoding/json"
	"io/fs"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestGetSchema(t *testing.T) {
	data, ok := GetSchema("scan-report-v1.0.0.json")
	if !ok {
		t.Fatal("scan-report-v1.0.0.json not embedded")
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("embedded schema is not valid JSON: %v", err)
	}
	if doc["$schema"] != "http://json-schema.org/draft-07/schema#" {
		t.Errorf("unexpected $schema: %v", doc["$schema"])
	}
}

func TestGetSchemaMissing(t *testing.T) {
	if _, ok := GetSchema("no-such-schema.json"); ok {
		t.Error("expected miss for unknown schema path")
	}
}

func TestGetCatalog(t *testing.T) {
	data, ok := GetCatalog("eol-catalog.yaml")
	if !ok {
		t.Fatal("eol-catalog.yaml not embedded")
	}
	var doc struct {
		Version    string `yaml:"version"`
		Frameworks []struct {
			Name    string   `yaml:"name"`
			Aliases []string `yaml:"aliases"`
		} `yaml:"frameworks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("embedded catalog is not valid YAML: %v", err)
	}
	if doc.Version == "" {
		t.Error("catalog version missing")
	}
	if len(doc.Frameworks) < 5 {
		t.Errorf("expected at least 5 framework entries, got %d", len(doc.Frameworks))
	}
	for _, fw := range doc.Frameworks {
		if len(fw.Aliases) == 0 {
			t.Errorf("framework %s has no aliases", fw.Name)
		}
	}
}

func TestGetDefaultPolicy(t *testing.T) {
	data, ok := GetCatalog("default-policy.yaml")
	if !ok {
		t.Fatal("default-policy.yaml not embedded")
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("embedded policy is not valid YAML: %v", err)
	}
	if _, ok := doc["fail_on"]; !ok {
		t.Error("default policy missing fail_on block")
	}
}

func TestGetTemplate(t *testing.T) {
	data, ok := GetTemplate("report.html.hbs")
	if !ok {
		t.Fatal("report.html.hbs not embedded")
	}
	if !strings.Contains(string(data), "{{#each frameworks}}") {
		t.Error("template missing frameworks block")
	}
}

func TestGetSchemasFS(t *testing.T) {
	entries, err := fs.ReadDir(GetSchemasFS(), ".")
	if err != nil {
		t.Fatalf("reading schemas FS: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.Name() == "scan-report-v1.0.0.json" {
			found = true
		}
	}
	if !found {
		t.Error("scan-report-v1.0.0.json not listed in schemas FS")
	}
}
