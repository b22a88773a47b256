// Package yamlmeta attaches typed out-of-band metadata to YAML assets.
//
// Metadata is stored in an Attached value owned by the asset. Each kind of
// metadata is identified by a props.Key[*Metadata[T]], usually a package-level
// variable of the feature that owns it. For persistence, an Attached converts
// to and from a generic props.Container, which the asset layer embeds in the
// serialized document.
package yamlmeta

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/dnswlt/yamlasset/internal/props"
)

var (
	ErrDuplicateKey = errors.New("metadata already attached")
	ErrNotRecord    = errors.New("value is not attachable metadata")
)

// Attached holds the metadata attached to a single object.
// Its zero value is not usable; use NewAttached.
//
// An Attached is not safe for concurrent use.
type Attached struct {
	props *props.Container
}

func NewAttached() *Attached {
	return &Attached{
		props: props.NewContainer(),
	}
}

// Attach attaches metadata under key, replacing any metadata previously
// attached under the same key.
//
// Attach panics if key or metadata is nil.
func Attach[T any](a *Attached, key *props.Key[*Metadata[T]], metadata *Metadata[T]) {
	if key == nil {
		panic("yamlmeta: Attach with nil key")
	}
	if metadata == nil {
		panic(fmt.Sprintf("yamlmeta: Attach with nil metadata for key %s", key.Name()))
	}
	props.Set(a.props, key, metadata)
}

// Retrieve returns the metadata attached under key, or nil if there is none.
//
// Retrieve panics if key is nil.
func Retrieve[T any](a *Attached, key *props.Key[*Metadata[T]]) *Metadata[T] {
	if key == nil {
		panic("yamlmeta: Retrieve with nil key")
	}
	m, _ := props.Get(a.props, key)
	return m
}

// Detach removes the metadata attached under key and reports whether
// there was any.
func (a *Attached) Detach(key props.AnyKey) bool {
	return a.props.Remove(key)
}

func (a *Attached) Len() int {
	return a.props.Len()
}

// Keys returns the keys of all attached metadata in attach order.
func (a *Attached) Keys() []props.AnyKey {
	return a.props.Keys()
}

// Record returns the metadata attached under key as a Record.
func (a *Attached) Record(key props.AnyKey) (Record, bool) {
	v, ok := a.props.Value(key)
	if !ok {
		return nil, false
	}
	return v.(Record), true
}

// CopyInto copies all metadata attached to a into target.
//
// If target already has metadata under any key attached to a, CopyInto
// returns an error wrapping ErrDuplicateKey and leaves target unchanged.
// Records are cloned, so later changes to the metadata of either side
// are not visible to the other.
func (a *Attached) CopyInto(target *Attached) error {
	if target == nil {
		panic("yamlmeta: CopyInto with nil target")
	}
	for _, k := range a.props.Keys() {
		if target.props.Contains(k) {
			return fmt.Errorf("cannot copy %s: %w", k.Name(), ErrDuplicateKey)
		}
	}
	for k, v := range a.props.All() {
		if err := target.props.SetValue(k, v.(Record).cloneRecord()); err != nil {
			// Unreachable: clones have the same type as their originals.
			return err
		}
	}
	return nil
}

// ToContainer returns a new container holding a copy of every attached record.
func (a *Attached) ToContainer() *props.Container {
	c := props.NewContainer()
	for k, v := range a.props.All() {
		if err := c.SetValue(k, v.(Record).cloneRecord()); err != nil {
			panic(fmt.Sprintf("yamlmeta: inconsistent record under %s: %v", k.Name(), err))
		}
	}
	return c
}

// FromContainer creates an Attached from the entries of c.
//
// Every key in c must be declared with a Record type and every value must be
// a non-nil Record. c is expected to come from ToContainer (directly or via
// a persisted form); anything else is reported as an error wrapping ErrNotRecord.
func FromContainer(c *props.Container) (*Attached, error) {
	a := NewAttached()
	for k, v := range c.All() {
		if !k.Type().Implements(recordType) {
			return nil, fmt.Errorf("property %s is declared as %s: %w", k.Name(), k.Type(), ErrNotRecord)
		}
		r, ok := v.(Record)
		if !ok || isNil(r) {
			return nil, fmt.Errorf("property %s holds %T: %w", k.Name(), v, ErrNotRecord)
		}
		if err := a.props.SetValue(k, r); err != nil {
			return nil, err
		}
	}
	return a, nil
}

var recordType = reflect.TypeFor[Record]()

func isNil(r Record) bool {
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
