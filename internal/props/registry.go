package props

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

var (
	ErrAlreadyRegistered = errors.New("already registered")
	ErrUnregisteredKey   = errors.New("key is not registered")
)

// Registry assigns persistent names to keys.
//
// Keys are compared by identity at runtime, but a persisted container can
// only refer to its keys by name. A Registry is the bridge: it is populated
// once at startup by every feature that wants its keys to survive a
// save/load cycle, and is read-only afterwards.
type Registry struct {
	byName map[string]AnyKey
	byKey  map[AnyKey]string
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]AnyKey),
		byKey:  make(map[AnyKey]string),
	}
}

// Register makes key persistable under its name.
// Names must be qualified names as used for Kubernetes annotations,
// e.g. "yamlasset.io/format-hints".
func Register[T any](r *Registry, key *Key[T]) error {
	mustKey(key)
	return r.register(key)
}

// MustRegister is like Register but panics on error.
// It is meant for package-level registrations.
func MustRegister[T any](r *Registry, key *Key[T]) {
	if err := Register(r, key); err != nil {
		panic(err)
	}
}

func (r *Registry) register(key AnyKey) error {
	name := key.Name()
	if errs := validation.IsQualifiedName(name); len(errs) > 0 {
		return fmt.Errorf("invalid key name %q: %s", name, strings.Join(errs, "; "))
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("key name %q: %w", name, ErrAlreadyRegistered)
	}
	if other, ok := r.byKey[key]; ok {
		return fmt.Errorf("key %s (registered as %q): %w", name, other, ErrAlreadyRegistered)
	}
	r.byName[name] = key
	r.byKey[key] = name
	return nil
}

// Lookup returns the key registered under name.
func (r *Registry) Lookup(name string) (AnyKey, bool) {
	k, ok := r.byName[name]
	return k, ok
}

// NameOf returns the persistent name of key.
func (r *Registry) NameOf(key AnyKey) (string, bool) {
	n, ok := r.byKey[key]
	return n, ok
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
