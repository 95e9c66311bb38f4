package assets

import (
	"embed"
	"io/fs"
)

//go:embed embedded_schemas
var Schemas embed.FS

//go:embed embedded_catalogs
var Catalogs embed.FS

//go:embed embedded_templates
var Templates embed.FS

// GetSchema returns embedded schema bytes by relative path
// (e.g., "scan-report-v1.0.0.json").
func GetSchema(relPath string) ([]byte, bool) {
	data, err := Schemas.ReadFile("embedded_schemas/" + relPath)
	return data, err == nil
}

// GetCatalog returns embedded catalog bytes by relative path
// (e.g., "eol-catalog.yaml").
func GetCatalog(relPath string) ([]byte, bool) {
	data, err := Catalogs.ReadFile("embedded_catalogs/" + relPath)
	return data, err == nil
}

// GetTemplate returns embedded template bytes by relative path
// (e.g., "report.html.hbs").
func GetTemplate(relPath string) ([]byte, bool) {
	data, err := Templates.ReadFile("embedded_templates/" + relPath)
	return data, err == nil
}

// GetSchemasFS returns the schemas filesystem rooted at the schema directory.
func GetSchemasFS() fs.FS {
	if sub, err := fs.Sub(Schemas, "embedded_schemas"); err == nil {
		return sub
	}
	return Schemas
}
