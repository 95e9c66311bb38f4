package appscan

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/fulmenhq/depscout/internal/report"
)

var (
	// filenameVersion picks the dotted version out of names like
	// log4j-core-2.14.1.jar.
	filenameVersion = regexp.MustCompile(`\d+(?:\.\d+)+`)
	// monikerVersion parses modern target framework monikers: net6.0,
	// netcoreapp3.1. Dotless net472-style monikers are .NET Framework
	// and stay unparsed.
	monikerVersion = regexp.MustCompile(`^net(?:coreapp)?(\d+\.\d+(?:\.\d+)*)`)
	// skuVersion parses the version half of sku attributes like
	// .NETFramework,Version=v4.7.2.
	skuVersion = regexp.MustCompile(`Version=v(\d+(?:\.\d+)*)`)
)

func versionFromFilename(base string) string {
	matches := filenameVersion.FindAllString(base, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

// runtimeConfig is the relevant slice of *.runtimeconfig.json.
type runtimeConfig struct {
	RuntimeOptions struct {
		Framework  *runtimeFramework  `json:"framework"`
		Frameworks []runtimeFramework `json:"frameworks"`
	} `json:"runtimeOptions"`
}

type runtimeFramework struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func parseRuntimeConfig(data []byte, base, path string) (Finding, bool) {
	var config runtimeConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return Finding{}, false
	}

	framework := config.RuntimeOptions.Framework
	if framework == nil && len(config.RuntimeOptions.Frameworks) > 0 {
		framework = &config.RuntimeOptions.Frameworks[0]
	}

	dep := report.Dependency{
		Kind:     "dotnet_runtimeconfig",
		Artifact: base,
		Path:     path,
	}
	if framework != nil {
		dep.Framework = framework.Name
		dep.Version = framework.Version
	}
	return Finding{Category: CategoryDotnet, Dependency: dep}, true
}

// depsManifest is the relevant slice of *.deps.json.
type depsManifest struct {
	RuntimeTarget struct {
		Name string `json:"name"`
	} `json:"runtimeTarget"`
}

func parseDepsManifest(data []byte, base, path string) (Finding, bool) {
	var manifest depsManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Finding{}, false
	}

	dep := report.Dependency{
		Kind:     "dotnet_deps",
		Artifact: base,
		Path:     path,
	}
	// runtimeTarget names look like .NETCoreApp,Version=v6.0.
	if name := manifest.RuntimeTarget.Name; name != "" {
		if idx := strings.IndexByte(name, ','); idx > 0 {
			dep.Framework = name[:idx]
		} else {
			dep.Framework = name
		}
		if m := skuVersion.FindStringSubmatch(name); m != nil {
			dep.Version = m[1]
		}
	}
	return Finding{Category: CategoryDotnet, Dependency: dep}, true
}

func parseExeConfig(data []byte, base, path string) (Finding, bool) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return Finding{}, false
	}

	dep := report.Dependency{
		Kind:     "dotnet_framework_config",
		Artifact: base,
		Path:     path,
	}
	if el := doc.FindElement("//startup/supportedRuntime"); el != nil {
		sku := el.SelectAttrValue("sku", "")
		if idx := strings.IndexByte(sku, ','); idx > 0 {
			dep.Framework = sku[:idx]
		}
		if m := skuVersion.FindStringSubmatch(sku); m != nil {
			dep.Version = m[1]
		} else if v := el.SelectAttrValue("version", ""); v != "" {
			dep.Version = strings.TrimPrefix(v, "v")
		}
	}
	return Finding{Category: CategoryDotnet, Dependency: dep}, true
}

func parseProjectFile(data []byte, base, path string) (Finding, bool) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return Finding{}, false
	}

	moniker := ""
	if el := doc.FindElement("//TargetFramework"); el != nil {
		moniker = strings.TrimSpace(el.Text())
	} else if el := doc.FindElement("//TargetFrameworks"); el != nil {
		monikers := strings.Split(el.Text(), ";")
		if len(monikers) > 0 {
			moniker = strings.TrimSpace(monikers[0])
		}
	}

	dep := report.Dependency{
		Kind:     "dotnet_project",
		Artifact: base,
		Path:     path,
	}
	if m := monikerVersion.FindStringSubmatch(moniker); m != nil {
		dep.Framework = ".NETCoreApp"
		dep.Version = m[1]
	} else if moniker != "" {
		dep.Version = moniker
	}
	return Finding{Category: CategoryDotnet, Dependency: dep}, true
}
