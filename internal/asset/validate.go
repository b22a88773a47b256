package asset

import (
	"fmt"
	"strings"

	"github.com/dnswlt/yamlasset/internal/api"
	"k8s.io/apimachinery/pkg/util/validation"
)

func IsValidKind(kind string) bool {
	return api.IsValidKind(kind)
}

func IsValidName(s string) bool {
	return api.IsValidName(s)
}

func IsValidNamespace(s string) bool {
	return api.IsValidNamespace(s)
}

// ValidateLabel checks if "key: value" is a valid metadata label.
// Validation follows the rules outlined in
// https://kubernetes.io/docs/concepts/overview/working-with-objects/labels/
func ValidateLabel(key, value string) error {
	if errs := validation.IsQualifiedName(key); len(errs) > 0 {
		return fmt.Errorf("invalid label key %q: %s", key, strings.Join(errs, "; "))
	}
	if errs := validation.IsValidLabelValue(value); len(errs) > 0 {
		return fmt.Errorf("invalid value for label %q: %s", key, strings.Join(errs, "; "))
	}
	return nil
}

// ValidateAnnotation checks if key is a valid annotation key.
// Annotation values are arbitrary.
func ValidateAnnotation(key string) error {
	if errs := validation.IsQualifiedName(key); len(errs) > 0 {
		return fmt.Errorf("invalid annotation key %q: %s", key, strings.Join(errs, "; "))
	}
	return nil
}
