package props

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

type point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	k := NewKey[int]("example.com/count")
	if err := Register(r, k); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	t.Run("same key twice", func(t *testing.T) {
		if err := Register(r, k); !errors.Is(err, ErrAlreadyRegistered) {
			t.Errorf("Register() error = %v, want ErrAlreadyRegistered", err)
		}
	})
	t.Run("same name different key", func(t *testing.T) {
		other := NewKey[int]("example.com/count")
		if err := Register(r, other); !errors.Is(err, ErrAlreadyRegistered) {
			t.Errorf("Register() error = %v, want ErrAlreadyRegistered", err)
		}
	})
	t.Run("invalid name", func(t *testing.T) {
		bad := NewKey[int]("not a/valid/name")
		if err := Register(r, bad); err == nil {
			t.Error("Register() succeeded for invalid name")
		}
	})

	got, ok := r.Lookup("example.com/count")
	if !ok || got != AnyKey(k) {
		t.Errorf("Lookup() = %v, %v, want %v, true", got, ok, k)
	}
	if diff := cmp.Diff([]string{"example.com/count"}, r.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	countKey := NewKey[int]("example.com/count")
	pointKey := NewKey[*point]("example.com/point")
	tagsKey := NewKey[[]string]("example.com/tags")
	r := NewRegistry()
	MustRegister(r, countKey)
	MustRegister(r, pointKey)
	MustRegister(r, tagsKey)

	c := NewContainer()
	Set(c, pointKey, &point{X: 1, Y: 2})
	Set(c, countKey, 3)
	Set(c, tagsKey, []string{"a", "b"})

	node, err := EncodeYAML(c, r)
	if err != nil {
		t.Fatalf("EncodeYAML() failed: %v", err)
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	wantYAML := `example.com/point:
    x: 1
    "y": 2
example.com/count: 3
example.com/tags:
    - a
    - b
`
	if diff := cmp.Diff(wantYAML, string(out)); diff != "" {
		t.Errorf("encoded YAML mismatch (-want +got):\n%s", diff)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	got, err := DecodeYAML(&doc, r)
	if err != nil {
		t.Fatalf("DecodeYAML() failed: %v", err)
	}
	if got.Len() != 3 {
		t.Errorf("Len() = %d, want 3", got.Len())
	}
	if p, _ := Get(got, pointKey); p == nil || *p != (point{X: 1, Y: 2}) {
		t.Errorf("Get(pointKey) = %v, want {1 2}", p)
	}
	if n, _ := Get(got, countKey); n != 3 {
		t.Errorf("Get(countKey) = %d, want 3", n)
	}
	if tags, _ := Get(got, tagsKey); !cmp.Equal(tags, []string{"a", "b"}) {
		t.Errorf("Get(tagsKey) = %v, want [a b]", tags)
	}
}

func TestEncodeYAMLUnregistered(t *testing.T) {
	c := NewContainer()
	Set(c, NewKey[int]("example.com/private"), 1)
	if _, err := EncodeYAML(c, NewRegistry()); !errors.Is(err, ErrUnregisteredKey) {
		t.Errorf("EncodeYAML() error = %v, want ErrUnregisteredKey", err)
	}
}

func TestDecodeYAMLErrors(t *testing.T) {
	r := NewRegistry()
	MustRegister(r, NewKey[int]("example.com/count"))

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "not a mapping", input: "- a\n- b\n", wantErr: "must be a mapping"},
		{name: "unknown name", input: "example.com/other: 1\n", wantErr: "unknown property"},
		{name: "duplicate name", input: "example.com/count: 1\nexample.com/count: 2\n", wantErr: "duplicate"},
		{name: "wrong value type", input: "example.com/count: [1]\n", wantErr: "invalid value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc yaml.Node
			if err := yaml.Unmarshal([]byte(tt.input), &doc); err != nil {
				// yaml.v3 rejects duplicate mapping keys itself.
				if strings.Contains(err.Error(), "already defined") {
					return
				}
				t.Fatalf("Unmarshal() failed: %v", err)
			}
			_, err := DecodeYAML(&doc, r)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("DecodeYAML() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeYAMLEmpty(t *testing.T) {
	r := NewRegistry()
	for _, n := range []*yaml.Node{nil, {}, {Kind: yaml.ScalarNode, Tag: "!!null"}} {
		c, err := DecodeYAML(n, r)
		if err != nil {
			t.Fatalf("DecodeYAML(%v) failed: %v", n, err)
		}
		if c.Len() != 0 {
			t.Errorf("DecodeYAML(%v).Len() = %d, want 0", n, c.Len())
		}
	}
}
