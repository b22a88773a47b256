package api

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		input   string
		want    *Ref
		wantStr string
		wantErr bool
	}{
		{input: "texture:brick-wall", want: &Ref{Kind: "texture", Namespace: DefaultNamespace, Name: "brick-wall"}, wantStr: "texture:brick-wall"},
		{input: "texture:env/brick-wall", want: &Ref{Kind: "texture", Namespace: "env", Name: "brick-wall"}, wantStr: "texture:env/brick-wall"},
		{input: "texture:default/brick-wall", want: &Ref{Kind: "texture", Namespace: DefaultNamespace, Name: "brick-wall"}, wantStr: "texture:brick-wall"},
		{input: "brick-wall", wantErr: true},
		{input: "Texture:brick-wall", wantErr: true},
		{input: "texture:-bad", wantErr: true},
		{input: "texture:bad ns/x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRef(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseRef(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRef(%q) failed: %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseRef() mismatch (-want +got):\n%s", diff)
			}
			if got.String() != tt.wantStr {
				t.Errorf("String() = %q, want %q", got.String(), tt.wantStr)
			}
		})
	}
}

func TestCheckAPIVersion(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "yamlasset/v1"},
		{input: "yamlasset/v1.3"},
		{input: "yamlasset/v1.3.7"},
		{input: "yamlasset/v2", wantErr: true},
		{input: "yamlasset/1", wantErr: true},
		{input: "yamlasset/v1alpha1", wantErr: true},
		{input: "other/v1", wantErr: true},
		{input: "v1", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := CheckAPIVersion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckAPIVersion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestIsValidKind(t *testing.T) {
	for kind, want := range map[string]bool{
		"Texture":    true,
		"SoundBank":  true,
		"texture":    false,
		"Sound-Bank": false,
		"":           false,
	} {
		if got := IsValidKind(kind); got != want {
			t.Errorf("IsValidKind(%q) = %v, want %v", kind, got, want)
		}
	}
}
