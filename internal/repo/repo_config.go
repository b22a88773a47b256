package repo

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/dnswlt/yamlasset/internal/asset"
	"gopkg.in/yaml.v3"
)

// ValueRegexp is a wrapper around regexp.Regexp to allow for custom YAML unmarshaling.
type ValueRegexp regexp.Regexp

// ValueRule defines a validation rule for a string value.
// It can enforce a specific list of values or a set of regular expressions.
type ValueRule struct {
	Values  []string       `yaml:"values"`
	Matches []*ValueRegexp `yaml:"matches"`
}

// KindValidationRules constrain the assets of one kind.
type KindValidationRules struct {
	Namespace *ValueRule `yaml:"namespace"`
	// Labels every asset of the kind must carry.
	RequiredLabels []string `yaml:"requiredLabels"`
	// Allowed values per label key.
	Labels map[string]*ValueRule `yaml:"labels"`
}

type ValidationRules struct {
	// Allowed YAML kinds.
	Kind *ValueRule `yaml:"kind"`
	// Rules per YAML kind.
	Kinds map[string]*KindValidationRules `yaml:"kinds"`
}

// Config holds repository-specific application configuration.
type Config struct {
	Validation *ValidationRules `yaml:"validation"`
}

// Accept checks a against the rules. A nil receiver accepts every asset.
func (r *ValidationRules) Accept(a *asset.Asset) error {
	if r == nil {
		return nil
	}
	if !r.Kind.Accept(a.Kind) {
		return fmt.Errorf("invalid kind %q (allowed: %s)", a.Kind, r.Kind.Describe())
	}
	kr := r.Kinds[a.Kind]
	if kr == nil {
		return nil
	}
	if !kr.Namespace.Accept(a.Metadata.Namespace) {
		return fmt.Errorf("invalid namespace %q (allowed: %s)", a.Metadata.Namespace, kr.Namespace.Describe())
	}
	for _, k := range kr.RequiredLabels {
		if _, ok := a.Metadata.Labels[k]; !ok {
			return fmt.Errorf("missing required label %q", k)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(kr.Labels)) {
		v, ok := a.Metadata.Labels[k]
		if !ok {
			continue
		}
		if rule := kr.Labels[k]; !rule.Accept(v) {
			return fmt.Errorf("invalid value %q for label %q (allowed: %s)", v, k, rule.Describe())
		}
	}
	return nil
}

// Describe returns a human-readable description of the allowed values.
func (r *ValueRule) Describe() string {
	if r == nil {
		return "any value"
	}
	if len(r.Values) > 0 {
		// e.g. "one of [texture, mesh]"
		return fmt.Sprintf("one of [%s]", strings.Join(r.Values, ", "))
	}
	if len(r.Matches) > 0 {
		patterns := make([]string, len(r.Matches))
		for i, re := range r.Matches {
			patterns[i] = (*regexp.Regexp)(re).String()
		}
		if len(patterns) == 1 {
			return fmt.Sprintf("matching pattern %s", patterns[0])
		}
		return fmt.Sprintf("matching any of patterns [%s]", strings.Join(patterns, ", "))
	}
	return "any value"
}

// Accept checks if a given value is valid according to the rule.
// A nil or empty rule accepts all values.
func (r *ValueRule) Accept(val string) bool {
	if r == nil {
		return true
	}
	if r.Values != nil {
		return slices.Contains(r.Values, val)
	}
	if r.Matches != nil {
		for _, re := range r.Matches {
			if (*regexp.Regexp)(re).MatchString(val) {
				return true
			}
		}
		return false
	}
	return true
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for ValueRegexp.
// Patterns must match the full value.
func (vr *ValueRegexp) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return fmt.Errorf("regexp pattern in validation rule cannot be empty")
	}
	re, err := regexp.Compile("^(?:" + s + ")$")
	if err != nil {
		return fmt.Errorf("failed to compile validation regexp %q: %w", s, err)
	}
	*vr = ValueRegexp(*re)
	return nil
}
