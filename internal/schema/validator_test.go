package schema

import (
	"strings"
	"testing"
)

func validReportDoc() map[string]interface{} {
	return map[string]interface{}{
		"scan_id": "3f6a1c9e-0000-4000-8000-123456789abc",
		"tool":    map[string]interface{}{"name": "depscout", "version": "dev"},
		"host": map[string]interface{}{
			"hostname":     "WIN-TEST01",
			"os":           "windows",
			"os_version":   "10.0.20348",
			"architecture": "amd64",
		},
		"scan_summary": map[string]interface{}{
			"frameworks_found":   1,
			"dependencies_found": 0,
			"scan_timestamp":     "2026-01-05T10:00:00Z",
		},
		"frameworks": []interface{}{
			map[string]interface{}{
				"name":             "Java",
				"version":          "1.8.0_371",
				"source":           "registry",
				"detection_method": "static_analysis",
				"confidence":       "high",
				"status":           "installed",
				"eol_status":       "EOL",
			},
		},
		"dependencies": map[string]interface{}{},
		"phases": []interface{}{
			map[string]interface{}{
				"name":        "frameworks",
				"status":      "success",
				"duration_ms": 42,
				"findings":    1,
			},
		},
	}
}

func TestValidateReport(t *testing.T) {
	res, err := Validate(validReportDoc(), "scan-report-v1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Errorf("expected valid report, got errors: %v", res.Errors)
	}
}

func TestValidateReportRejectsBadEnums(t *testing.T) {
	doc := validReportDoc()
	fw := doc["frameworks"].([]interface{})[0].(map[string]interface{})
	fw["confidence"] = "certain"
	fw["eol_status"] = "dead"

	res, err := Validate(doc, "scan-report-v1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Error("expected invalid report")
	}
	if len(res.Errors) < 2 {
		t.Errorf("expected errors for confidence and eol_status, got %v", res.Errors)
	}
}

func TestValidateReportRequiresSummary(t *testing.T) {
	doc := validReportDoc()
	delete(doc, "scan_summary")

	res, err := Validate(doc, "scan-report-v1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Error("expected invalid report without scan_summary")
	}
}

func TestValidateBytes(t *testing.T) {
	res, err := ValidateBytes([]byte(`{"scan_id": ""}`), "scan-report-v1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Error("expected invalid document")
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	_, err := Validate(validReportDoc(), "nonexistent")
	if err == nil || !strings.Contains(err.Error(), "not found in registry") {
		t.Errorf("expected schema not found error, got %v", err)
	}
}
