// Package eol classifies detected framework versions against an
// end-of-life catalog. Rules come from the embedded catalog by default
// and can be overridden with a user-supplied YAML file.
package eol

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fulmenhq/depscout/internal/assets"
	"github.com/fulmenhq/depscout/pkg/versioning"
	"gopkg.in/yaml.v3"
)

// Classification statuses. Reports carry exactly these three values.
const (
	StatusEOL       = "EOL"
	StatusSupported = "Supported"
	StatusUnknown   = "Unknown"
)

// NormalizeJavaFeature derives the Java feature release before policy
// evaluation, so legacy 1.x strings and modern strings compare on the
// same axis.
const NormalizeJavaFeature = "java-feature"

// Catalog is the on-disk shape of an EOL rule set.
type Catalog struct {
	Version    string `yaml:"version"`
	Updated    string `yaml:"updated,omitempty"`
	Frameworks []Rule `yaml:"frameworks"`
}

// Rule binds a framework, matched by alias, to a version policy.
type Rule struct {
	Name      string            `yaml:"name"`
	Aliases   []string          `yaml:"aliases"`
	Normalize string            `yaml:"normalize,omitempty"`
	Policy    versioning.Policy `yaml:"policy"`
	EOLDates  map[string]string `yaml:"eol_dates,omitempty"`
}

// Classification is the outcome for one framework/version pair.
type Classification struct {
	Status string
	// Date is the vendor end-of-support date, set only for EOL results
	// the catalog has a date for.
	Date string
	// Rule names the catalog entry that matched, empty when none did.
	Rule string
}

// Classifier answers EOL questions from a loaded catalog.
type Classifier struct {
	catalog Catalog
}

// LoadEmbedded builds a classifier from the catalog compiled into the
// binary.
func LoadEmbedded() (*Classifier, error) {
	data, ok := assets.GetCatalog("eol-catalog.yaml")
	if !ok {
		return nil, errors.New("embedded eol catalog missing")
	}
	return Load(data)
}

// LoadFile builds a classifier from a user-supplied catalog file.
func LoadFile(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading eol catalog: %w", err)
	}
	return Load(data)
}

// Load parses catalog YAML and validates the rule set.
func Load(data []byte) (*Classifier, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parsing eol catalog: %w", err)
	}
	if len(catalog.Frameworks) == 0 {
		return nil, errors.New("eol catalog contains no frameworks")
	}
	for i, rule := range catalog.Frameworks {
		if strings.TrimSpace(rule.Name) == "" {
			return nil, fmt.Errorf("eol catalog rule %d has no name", i)
		}
		if len(rule.Aliases) == 0 {
			return nil, fmt.Errorf("eol catalog rule %q has no aliases", rule.Name)
		}
	}
	return &Classifier{catalog: catalog}, nil
}

// Rules returns the loaded rule set in catalog order.
func (c *Classifier) Rules() []Rule {
	return c.catalog.Frameworks
}

// CatalogVersion returns the version string of the loaded catalog.
func (c *Classifier) CatalogVersion() string {
	return c.catalog.Version
}

// Classify evaluates a detected framework name and version. Unmatched
// names, missing versions, and unparseable versions classify Unknown
// rather than failing the scan.
func (c *Classifier) Classify(name, version string) Classification {
	rule, ok := c.match(name)
	if !ok {
		return Classification{Status: StatusUnknown}
	}

	out := Classification{Status: StatusUnknown, Rule: rule.Name}

	actual := strings.TrimSpace(version)
	if actual == "" {
		return out
	}
	if rule.Normalize == NormalizeJavaFeature {
		feature, err := JavaFeature(actual)
		if err != nil {
			return out
		}
		actual = strconv.Itoa(feature)
	}

	eval, err := versioning.Evaluate(rule.Policy, actual)
	if err != nil {
		return out
	}

	if eval.IsDisallowed || !eval.MeetsMinimum {
		out.Status = StatusEOL
		out.Date = rule.dateFor(actual)
		return out
	}
	out.Status = StatusSupported
	return out
}

// match finds the rule for a detected name: exact alias match first,
// then alias-prefix match for compound names like
// "java development kit 17".
func (c *Classifier) match(name string) (*Rule, bool) {
	lname := strings.ToLower(strings.TrimSpace(name))
	if lname == "" {
		return nil, false
	}

	for i := range c.catalog.Frameworks {
		for _, alias := range c.catalog.Frameworks[i].Aliases {
			if lname == strings.ToLower(strings.TrimSpace(alias)) {
				return &c.catalog.Frameworks[i], true
			}
		}
	}
	for i := range c.catalog.Frameworks {
		for _, alias := range c.catalog.Frameworks[i].Aliases {
			la := strings.ToLower(strings.TrimSpace(alias))
			if la != "" && strings.HasPrefix(lname, la+" ") {
				return &c.catalog.Frameworks[i], true
			}
		}
	}
	return nil, false
}

// dateFor resolves the end-of-support date for a version. Keys match on
// the same boundary rules as disallowed prefixes.
func (r *Rule) dateFor(version string) string {
	for key, date := range r.EOLDates {
		if version == key || strings.HasPrefix(version, key+".") || strings.HasPrefix(version, key+"-") || strings.HasPrefix(version, key+"_") {
			return date
		}
	}
	return ""
}

// JavaFeature maps a Java version string to its feature release:
// 1.8.0_371 is feature 8, 17.0.2 is feature 17.
func JavaFeature(version string) (int, error) {
	v, err := versioning.ParseLoose(version)
	if err != nil {
		return 0, err
	}
	if v.Major() == 1 && v.NumSegments() >= 2 {
		return v.Segment(1), nil
	}
	return v.Major(), nil
}
