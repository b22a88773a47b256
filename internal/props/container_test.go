package props

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKeysAreIdentities(t *testing.T) {
	k1 := NewKey[int]("test/count")
	k2 := NewKey[int]("test/count")

	c := NewContainer()
	Set(c, k1, 42)

	if got, ok := Get(c, k1); !ok || got != 42 {
		t.Errorf("Get(k1) = %v, %v, want 42, true", got, ok)
	}
	if got, ok := Get(c, k2); ok {
		t.Errorf("Get(k2) = %v, true, want absent", got)
	}
	if c.Contains(k2) {
		t.Error("Contains(k2) = true, want false")
	}
}

func TestSetOverwritesAndKeepsOrder(t *testing.T) {
	a := NewKey[string]("test/a")
	b := NewKey[int]("test/b")
	c := NewKey[[]string]("test/c")

	p := NewContainer()
	Set(p, a, "first")
	Set(p, b, 1)
	Set(p, c, []string{"x"})
	Set(p, a, "second")

	var names []string
	var values []any
	for k, v := range p.All() {
		names = append(names, k.Name())
		values = append(values, v)
	}
	if diff := cmp.Diff([]string{"test/a", "test/b", "test/c"}, names); diff != "" {
		t.Errorf("All() keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"second", 1, []string{"x"}}, values); diff != "" {
		t.Errorf("All() values mismatch (-want +got):\n%s", diff)
	}
	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}
}

func TestNilInterfaceValue(t *testing.T) {
	errKey := NewKey[error]("test/err")
	anyKey := NewKey[any]("test/any")

	c := NewContainer()
	Set(c, errKey, nil)
	Set(c, anyKey, nil)

	if got, ok := Get(c, errKey); !ok || got != nil {
		t.Errorf("Get(errKey) = %v, %v, want nil, true", got, ok)
	}
	if got, ok := Get(c, anyKey); !ok || got != nil {
		t.Errorf("Get(anyKey) = %v, %v, want nil, true", got, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestRemove(t *testing.T) {
	a := NewKey[string]("test/a")
	b := NewKey[string]("test/b")

	p := NewContainer()
	Set(p, a, "a")
	Set(p, b, "b")

	if !p.Remove(a) {
		t.Error("Remove(a) = false, want true")
	}
	if p.Remove(a) {
		t.Error("second Remove(a) = true, want false")
	}
	if _, ok := Get(p, a); ok {
		t.Error("Get(a) found a removed entry")
	}
	if !slices.Equal(p.Keys(), []AnyKey{b}) {
		t.Errorf("Keys() = %v, want [%v]", p.Keys(), b)
	}

	// Re-adding appends at the end.
	Set(p, a, "again")
	if !slices.Equal(p.Keys(), []AnyKey{b, a}) {
		t.Errorf("Keys() = %v, want [%v %v]", p.Keys(), b, a)
	}
}

func TestSetValue(t *testing.T) {
	type shape interface{ Area() float64 }
	intKey := NewKey[int]("test/int")
	ptrKey := NewKey[*string]("test/ptr")
	ifaceKey := NewKey[shape]("test/shape")

	tests := []struct {
		name    string
		key     AnyKey
		value   any
		wantErr bool
	}{
		{name: "matching int", key: intKey, value: 7},
		{name: "int64 for int", key: intKey, value: int64(7), wantErr: true},
		{name: "string for int", key: intKey, value: "7", wantErr: true},
		{name: "untyped nil", key: ptrKey, value: nil, wantErr: true},
		{name: "typed nil pointer", key: ptrKey, value: (*string)(nil)},
		{name: "non-implementing value for interface", key: ifaceKey, value: 3.0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContainer()
			err := c.SetValue(tt.key, tt.value)
			if tt.wantErr {
				if !errors.Is(err, ErrTypeMismatch) {
					t.Fatalf("SetValue() error = %v, want ErrTypeMismatch", err)
				}
				if c.Contains(tt.key) {
					t.Error("failed SetValue stored a value")
				}
				return
			}
			if err != nil {
				t.Fatalf("SetValue() failed: %v", err)
			}
			if _, ok := c.Value(tt.key); !ok {
				t.Error("Value() not found after SetValue")
			}
		})
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	a := NewKey[int]("test/a")
	b := NewKey[int]("test/b")

	p := NewContainer()
	Set(p, a, 1)
	q := p.Clone()
	Set(q, a, 2)
	Set(q, b, 3)

	if got, _ := Get(p, a); got != 1 {
		t.Errorf("original Get(a) = %d, want 1", got)
	}
	if p.Contains(b) {
		t.Error("original contains key added to clone")
	}
}

func TestZeroContainer(t *testing.T) {
	k := NewKey[bool]("test/flag")
	var c Container
	if _, ok := Get(&c, k); ok {
		t.Error("Get on zero container found a value")
	}
	Set(&c, k, true)
	if got, ok := Get(&c, k); !ok || !got {
		t.Errorf("Get() = %v, %v, want true, true", got, ok)
	}
}

func TestNilKeyPanics(t *testing.T) {
	var k *Key[int]
	defer func() {
		if recover() == nil {
			t.Error("Set with nil key did not panic")
		}
	}()
	Set(NewContainer(), k, 1)
}

func TestKeyString(t *testing.T) {
	k := NewKey[map[string]int]("test/m")
	if got, want := k.String(), "test/m (map[string]int)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
