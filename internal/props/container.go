package props

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
)

var (
	ErrTypeMismatch = errors.New("value type does not match key type")
)

// Container maps keys to values of the keys' declared types.
// Entries are enumerated in insertion order. Overwriting an existing entry
// keeps its position. The zero value is an empty container.
//
// A Container is not safe for concurrent use.
type Container struct {
	keys   []AnyKey
	values map[AnyKey]any
}

func NewContainer() *Container {
	return &Container{
		values: make(map[AnyKey]any),
	}
}

// Set stores value under key, replacing any previous value.
func Set[T any](c *Container, key *Key[T], value T) {
	mustKey(key)
	c.put(key, value)
}

// Get returns the value stored under key and whether it was present.
//
// Get panics if the stored value does not have type T. This can only happen
// if the container was corrupted, since all writes are type checked.
func Get[T any](c *Container, key *Key[T]) (T, bool) {
	mustKey(key)
	var zero T
	v, ok := c.values[key]
	if !ok {
		return zero, false
	}
	if v == nil {
		// A nil value of an interface type T.
		return zero, true
	}
	t, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("props: value of type %T stored under key %s", v, key))
	}
	return t, true
}

// SetValue is the untyped variant of Set.
// It returns an error wrapping ErrTypeMismatch if value's dynamic type does not
// match key's declared type. Untyped nil never matches.
func (c *Container) SetValue(key AnyKey, value any) error {
	mustKey(key)
	v, ok := key.accept(value)
	if !ok {
		return fmt.Errorf("cannot store %T under key %s: %w", value, key.Name(), ErrTypeMismatch)
	}
	c.put(key, v)
	return nil
}

// Value returns the untyped value stored under key.
func (c *Container) Value(key AnyKey) (any, bool) {
	mustKey(key)
	v, ok := c.values[key]
	return v, ok
}

func (c *Container) put(key AnyKey, value any) {
	if c.values == nil {
		c.values = make(map[AnyKey]any)
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Remove deletes the entry for key. It reports whether an entry existed.
func (c *Container) Remove(key AnyKey) bool {
	mustKey(key)
	if _, ok := c.values[key]; !ok {
		return false
	}
	delete(c.values, key)
	i := slices.Index(c.keys, key)
	c.keys = slices.Delete(c.keys, i, i+1)
	return true
}

func (c *Container) Contains(key AnyKey) bool {
	mustKey(key)
	_, ok := c.values[key]
	return ok
}

func (c *Container) Len() int {
	return len(c.keys)
}

// Keys returns the keys in insertion order.
func (c *Container) Keys() []AnyKey {
	return slices.Clone(c.keys)
}

// All iterates over all entries in insertion order.
// The container must not be modified during iteration.
func (c *Container) All() iter.Seq2[AnyKey, any] {
	return func(yield func(AnyKey, any) bool) {
		for _, k := range c.keys {
			if !yield(k, c.values[k]) {
				return
			}
		}
	}
}

// Clone returns a shallow copy of c.
func (c *Container) Clone() *Container {
	res := &Container{
		keys:   slices.Clone(c.keys),
		values: make(map[AnyKey]any, len(c.values)),
	}
	maps.Copy(res.values, c.values)
	return res
}
