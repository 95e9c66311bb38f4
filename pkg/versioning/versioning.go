package versioning

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Scheme describes how to compare version strings.
type Scheme string

const (
	// SchemeSemver enforces Semantic Versioning (SemVer 2.0.0).
	SchemeSemver Scheme = "semver"
	// SchemeLoose compares dotted numeric segments of any length.
	// Underscores separate segments too, so legacy Java strings like
	// 1.8.0_371 parse as four segments.
	SchemeLoose Scheme = "loose"
	// SchemeLexical compares using lexical ordering only.
	SchemeLexical Scheme = "lexical"
)

type Comparison int

const (
	ComparisonUnknown Comparison = iota
	ComparisonLess
	ComparisonEqual
	ComparisonGreater
)

// Policy captures the version constraints a framework is held to.
type Policy struct {
	Scheme             Scheme   `yaml:"version_scheme,omitempty" json:"version_scheme,omitempty"`
	MinimumVersion     string   `yaml:"minimum_version,omitempty" json:"minimum_version,omitempty"`
	DisallowedVersions []string `yaml:"disallowed_versions,omitempty" json:"disallowed_versions,omitempty"`
	DisallowedPrefixes []string `yaml:"disallowed_prefixes,omitempty" json:"disallowed_prefixes,omitempty"`
}

// Evaluation reports how an actual version fares against a Policy.
type Evaluation struct {
	Scheme         Scheme `json:"scheme"`
	ActualVersion  string `json:"actual_version"`
	MinimumVersion string `json:"minimum_version,omitempty"`

	MeetsMinimum bool `json:"meets_minimum"`
	IsDisallowed bool `json:"is_disallowed"`
}

var (
	semverPattern = regexp.MustCompile(`^(?:[vV])?(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z.-]+))?(?:\+([0-9A-Za-z.-]+))?$`)
	loosePattern  = regexp.MustCompile(`^[vV]?(\d+(?:[._]\d+)*)`)
)

// IsZero returns true when the policy contains no constraints.
func (p Policy) IsZero() bool {
	return strings.TrimSpace(p.MinimumVersion) == "" &&
		len(p.DisallowedVersions) == 0 &&
		len(p.DisallowedPrefixes) == 0
}

// Evaluate checks an actual version against the policy and reports compliance.
func Evaluate(policy Policy, actual string) (Evaluation, error) {
	scheme := schemeOrDefault(policy.Scheme)
	eval := Evaluation{
		Scheme:         scheme,
		ActualVersion:  strings.TrimSpace(actual),
		MinimumVersion: strings.TrimSpace(policy.MinimumVersion),
	}

	if eval.ActualVersion == "" {
		return eval, errors.New("actual version cannot be empty")
	}

	if matchString(eval.ActualVersion, policy.DisallowedVersions) ||
		matchPrefix(eval.ActualVersion, policy.DisallowedPrefixes) {
		eval.IsDisallowed = true
	}

	if eval.MinimumVersion != "" {
		cmp, err := Compare(scheme, eval.ActualVersion, eval.MinimumVersion)
		if err != nil {
			return eval, fmt.Errorf("minimum comparison failed: %w", err)
		}
		if cmp == ComparisonGreater || cmp == ComparisonEqual {
			eval.MeetsMinimum = true
		}
	} else {
		eval.MeetsMinimum = true
	}

	return eval, nil
}

// Compare determines ordering between version a and b using the provided scheme.
func Compare(scheme Scheme, a, b string) (Comparison, error) {
	switch schemeOrDefault(scheme) {
	case SchemeSemver:
		return compareSemver(a, b)
	case SchemeLoose:
		return compareLoose(a, b)
	case SchemeLexical:
		fallthrough
	default:
		return compareLexical(a, b), nil
	}
}

func schemeOrDefault(s Scheme) Scheme {
	switch s {
	case SchemeSemver:
		return SchemeSemver
	case SchemeLexical:
		return SchemeLexical
	default:
		return SchemeLoose
	}
}

// Version is a loosely parsed version: leading dotted numeric segments
// plus whatever trailed them in the raw string.
type Version struct {
	segments []int
	raw      string
}

// ParseLoose extracts the leading numeric segments of a version string.
// It tolerates a v prefix, underscores as separators, and trailing
// tokens (build numbers, vendor suffixes). At least one numeric segment
// is required.
func ParseLoose(input string) (*Version, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, errors.New("empty version")
	}

	matches := loosePattern.FindStringSubmatch(trimmed)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no numeric version in %q", input)
	}

	fields := strings.FieldsFunc(matches[1], func(r rune) bool {
		return r == '.' || r == '_'
	})
	segments := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("segment %q: %w", f, err)
		}
		segments = append(segments, n)
	}

	return &Version{segments: segments, raw: trimmed}, nil
}

// Major returns the first numeric segment.
func (v *Version) Major() int {
	return v.Segment(0)
}

// Minor returns the second numeric segment, or 0 when absent.
func (v *Version) Minor() int {
	return v.Segment(1)
}

// Segment returns the i-th numeric segment, or 0 when absent.
func (v *Version) Segment(i int) int {
	if v == nil || i < 0 || i >= len(v.segments) {
		return 0
	}
	return v.segments[i]
}

// NumSegments returns how many numeric segments were parsed.
func (v *Version) NumSegments() int {
	if v == nil {
		return 0
	}
	return len(v.segments)
}

// MajorMinor renders the first two segments as "major.minor".
func (v *Version) MajorMinor() string {
	return fmt.Sprintf("%d.%d", v.Segment(0), v.Segment(1))
}

// String returns the original string representation.
func (v *Version) String() string {
	if v == nil {
		return ""
	}
	return v.raw
}

func compareLoose(a, b string) (Comparison, error) {
	av, err := ParseLoose(a)
	if err != nil {
		return ComparisonUnknown, fmt.Errorf("invalid version '%s': %w", a, err)
	}
	bv, err := ParseLoose(b)
	if err != nil {
		return ComparisonUnknown, fmt.Errorf("invalid version '%s': %w", b, err)
	}

	longest := len(av.segments)
	if len(bv.segments) > longest {
		longest = len(bv.segments)
	}
	for i := 0; i < longest; i++ {
		as := av.Segment(i)
		bs := bv.Segment(i)
		if as < bs {
			return ComparisonLess, nil
		}
		if as > bs {
			return ComparisonGreater, nil
		}
	}
	return ComparisonEqual, nil
}

type semverIdentifier struct {
	raw     string
	numeric bool
	num     int
}

type semverVersion struct {
	major int
	minor int
	patch int
	pre   []semverIdentifier
	build string
}

func compareSemver(a, b string) (Comparison, error) {
	av, err := parseSemverVersion(a)
	if err != nil {
		return ComparisonUnknown, fmt.Errorf("invalid semver '%s': %w", a, err)
	}
	bv, err := parseSemverVersion(b)
	if err != nil {
		return ComparisonUnknown, fmt.Errorf("invalid semver '%s': %w", b, err)
	}
	return compareSemverVersions(av, bv), nil
}

func parseSemverVersion(input string) (*semverVersion, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, errors.New("empty version")
	}

	matches := semverPattern.FindStringSubmatch(trimmed)
	if len(matches) == 0 {
		return nil, fmt.Errorf("invalid format")
	}

	major, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, fmt.Errorf("segment '%s': %w", matches[1], err)
	}
	minor, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, fmt.Errorf("segment '%s': %w", matches[2], err)
	}
	patch, err := strconv.Atoi(matches[3])
	if err != nil {
		return nil, fmt.Errorf("segment '%s': %w", matches[3], err)
	}

	version := &semverVersion{
		major: major,
		minor: minor,
		patch: patch,
	}

	if prerelease := matches[4]; prerelease != "" {
		parts := strings.Split(prerelease, ".")
		version.pre = make([]semverIdentifier, len(parts))
		for i, part := range parts {
			if part == "" {
				return nil, fmt.Errorf("invalid prerelease identifier: empty segment")
			}
			if isNumeric(part) {
				num, err := strconv.Atoi(part)
				if err != nil {
					return nil, fmt.Errorf("invalid prerelease identifier '%s': %w", part, err)
				}
				version.pre[i] = semverIdentifier{raw: part, numeric: true, num: num}
			} else {
				version.pre[i] = semverIdentifier{raw: part}
			}
		}
	}
	version.build = matches[5]

	return version, nil
}

func compareSemverVersions(a, b *semverVersion) Comparison {
	if a.major != b.major {
		if a.major < b.major {
			return ComparisonLess
		}
		return ComparisonGreater
	}
	if a.minor != b.minor {
		if a.minor < b.minor {
			return ComparisonLess
		}
		return ComparisonGreater
	}
	if a.patch != b.patch {
		if a.patch < b.patch {
			return ComparisonLess
		}
		return ComparisonGreater
	}

	if len(a.pre) == 0 && len(b.pre) == 0 {
		return ComparisonEqual
	}
	if len(a.pre) == 0 {
		return ComparisonGreater
	}
	if len(b.pre) == 0 {
		return ComparisonLess
	}

	limit := len(a.pre)
	if len(b.pre) < limit {
		limit = len(b.pre)
	}

	for i := 0; i < limit; i++ {
		ai := a.pre[i]
		bi := b.pre[i]
		if ai.numeric && bi.numeric {
			if ai.num < bi.num {
				return ComparisonLess
			}
			if ai.num > bi.num {
				return ComparisonGreater
			}
			continue
		}
		if ai.numeric && !bi.numeric {
			return ComparisonLess
		}
		if !ai.numeric && bi.numeric {
			return ComparisonGreater
		}
		if cmp := strings.Compare(ai.raw, bi.raw); cmp != 0 {
			if cmp < 0 {
				return ComparisonLess
			}
			return ComparisonGreater
		}
	}

	if len(a.pre) < len(b.pre) {
		return ComparisonLess
	}
	if len(a.pre) > len(b.pre) {
		return ComparisonGreater
	}

	return ComparisonEqual
}

func compareLexical(a, b string) Comparison {
	cmp := strings.Compare(strings.TrimSpace(a), strings.TrimSpace(b))
	if cmp < 0 {
		return ComparisonLess
	}
	if cmp > 0 {
		return ComparisonGreater
	}
	return ComparisonEqual
}

func matchString(target string, set []string) bool {
	target = strings.TrimSpace(target)
	for _, candidate := range set {
		if target == strings.TrimSpace(candidate) {
			return true
		}
	}
	return false
}

func matchPrefix(target string, prefixes []string) bool {
	target = strings.TrimSpace(target)
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if target == p || strings.HasPrefix(target, p+".") || strings.HasPrefix(target, p+"-") {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
