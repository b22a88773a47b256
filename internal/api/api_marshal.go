package api

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

const (
	// The only major version of the asset document format.
	SupportedMajorVersion = "v1"
)

var (
	// Regexp defining valid asset names and namespaces.
	// Alphanumeric characters and "-". Must start and end with an alphanumeric character.
	validNameRE = regexp.MustCompile("^[A-Za-z]([A-Za-z0-9-]*[A-Za-z0-9])?$")

	// Kinds as used in YAML: CamelCase identifiers such as "Texture" or "SoundBank".
	validKindRE = regexp.MustCompile("^[A-Z][A-Za-z0-9]*$")

	// Kinds as used in references: the lowercase form of a YAML kind.
	validRefKindRE = regexp.MustCompile("^[a-z][a-z0-9]*$")
)

func IsValidName(s string) bool {
	return len(s) > 0 && len(s) <= 63 && validNameRE.MatchString(s)
}

func IsValidNamespace(s string) bool {
	return len(s) > 0 && len(s) <= 63 && validNameRE.MatchString(s)
}

func IsValidKind(s string) bool {
	return len(s) <= 63 && validKindRE.MatchString(s)
}

func IsValidRefKind(s string) bool {
	return len(s) <= 63 && validRefKindRE.MatchString(s)
}

// RefKind returns the reference form of a YAML kind (e.g. "SoundBank" => "soundbank").
func RefKind(kind string) string {
	return strings.ToLower(kind)
}

// CheckAPIVersion validates an apiVersion field such as "yamlasset/v1" or
// "yamlasset/v1.2". The version must be valid semver with a supported major version.
func CheckAPIVersion(apiVersion string) error {
	group, version, found := strings.Cut(apiVersion, "/")
	if !found || group != APIGroup {
		return fmt.Errorf("invalid apiVersion %q: must be %s/<version>", apiVersion, APIGroup)
	}
	if !semver.IsValid(version) {
		return fmt.Errorf("invalid apiVersion %q: %q is not a valid version", apiVersion, version)
	}
	if major := semver.Major(version); major != SupportedMajorVersion {
		return fmt.Errorf("unsupported apiVersion %q: major version %s is not %s", apiVersion, major, SupportedMajorVersion)
	}
	return nil
}

// ParseRef parses a reference of the form <kind>:[<namespace>/]<name>.
// The kind is required.
func ParseRef(s string) (*Ref, error) {
	kind, qname, found := strings.Cut(s, ":")
	if !found {
		return nil, fmt.Errorf("invalid reference %q: missing kind", s)
	}
	if !IsValidRefKind(kind) {
		return nil, fmt.Errorf("invalid kind %q", kind)
	}
	ref := &Ref{Kind: kind}

	ns, name, found := strings.Cut(qname, "/")
	if found {
		if !IsValidNamespace(ns) {
			return nil, fmt.Errorf("invalid namespace %q", ns)
		}
		if !IsValidName(name) {
			return nil, fmt.Errorf("invalid name %q", name)
		}
		ref.Namespace = ns
		ref.Name = name
	} else {
		if !IsValidName(qname) {
			return nil, fmt.Errorf("invalid name %q", qname)
		}
		ref.Namespace = DefaultNamespace
		ref.Name = qname
	}
	return ref, nil
}

// String returns the canonical form of r. The default namespace is omitted.
func (r *Ref) String() string {
	if r.Namespace == "" || r.Namespace == DefaultNamespace {
		return r.Kind + ":" + r.Name
	}
	return r.Kind + ":" + r.Namespace + "/" + r.Name
}

func (r *Ref) Equal(other *Ref) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Kind == other.Kind && r.Namespace == other.Namespace && r.Name == other.Name
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Ref.
func (r *Ref) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("asset ref must be a string scalar, but got %s", value.Tag)
	}
	ref, err := ParseRef(value.Value)
	if err != nil {
		return err
	}
	*r = *ref
	return nil
}
