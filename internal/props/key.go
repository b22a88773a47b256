// Package props provides a heterogeneous property container keyed by typed,
// identity-compared keys.
//
// A Key[T] names one slot and fixes the type of the value stored in it.
// Keys are compared by identity: two keys created by separate NewKey calls
// never address the same slot, even if their names and types are equal.
// Names exist for diagnostics and, via a Registry, for persistence.
package props

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// AnyKey is the type-erased view of a Key[T].
// All AnyKey values are comparable and can be used as map keys.
type AnyKey interface {
	// Name returns the diagnostic label of the key.
	Name() string
	// Type returns the declared value type of the key.
	Type() reflect.Type

	// accept returns v if its dynamic type matches the key's declared type.
	accept(v any) (any, bool)
	// decodeYAML decodes a node into a value of the declared type.
	decodeYAML(n *yaml.Node) (any, error)
}

// Key identifies a slot holding a value of type T.
// Always use a *Key[T]; the pointer is the identity.
type Key[T any] struct {
	name string
}

// Asserts that *Key implements AnyKey.
var _ AnyKey = (*Key[int])(nil)

// NewKey returns a new key with the given diagnostic name.
// The result is distinct from every other key ever created.
func NewKey[T any](name string) *Key[T] {
	return &Key[T]{name: name}
}

func (k *Key[T]) Name() string {
	return k.name
}

func (k *Key[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

func (k *Key[T]) String() string {
	return fmt.Sprintf("%s (%s)", k.name, k.Type())
}

func (k *Key[T]) accept(v any) (any, bool) {
	t, ok := v.(T)
	if !ok {
		return nil, false
	}
	return t, true
}

func (k *Key[T]) decodeYAML(n *yaml.Node) (any, error) {
	var v T
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// mustKey panics if k is nil. A nil key is a caller bug, not a data error.
func mustKey(k AnyKey) {
	if k == nil || reflect.ValueOf(k).IsNil() {
		panic("props: nil key")
	}
}
