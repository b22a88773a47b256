package repo

import (
	"regexp"
	"strings"
	"testing"

	"github.com/dnswlt/yamlasset/internal/asset"
	"gopkg.in/yaml.v3"
)

// Helper to create ValueRegexp for tests. It mimics the UnmarshalYAML logic
// by wrapping the pattern with anchors to enforce a full match.
func mustValueRegexp(s string) *ValueRegexp {
	re := regexp.MustCompile("^(?:" + s + ")$")
	return (*ValueRegexp)(re)
}

func testAsset(kind, namespace, name string, labels map[string]string) *asset.Asset {
	return &asset.Asset{
		Kind: kind,
		Metadata: &asset.Metadata{
			Name:      name,
			Namespace: namespace,
			Labels:    labels,
		},
	}
}

func TestValidationRules_Accept(t *testing.T) {
	rules := &ValidationRules{
		Kind: &ValueRule{Values: []string{"Texture", "SoundBank"}},
		Kinds: map[string]*KindValidationRules{
			"Texture": {
				Namespace:      &ValueRule{Matches: []*ValueRegexp{mustValueRegexp("default|env-.+")}},
				RequiredLabels: []string{"team"},
				Labels: map[string]*ValueRule{
					"team": {Values: []string{"graphics", "art"}},
				},
			},
		},
	}
	testCases := []struct {
		name    string
		rules   *ValidationRules
		asset   *asset.Asset
		wantErr string
	}{
		{
			name:  "nil rules accept everything",
			rules: nil,
			asset: testAsset("Mesh", "x", "m", nil),
		},
		{
			name:  "valid texture",
			rules: rules,
			asset: testAsset("Texture", "env-forest", "t", map[string]string{"team": "art"}),
		},
		{
			name:  "kind without specific rules",
			rules: rules,
			asset: testAsset("SoundBank", "anything", "s", nil),
		},
		{
			name:    "invalid kind",
			rules:   rules,
			asset:   testAsset("Mesh", "default", "m", nil),
			wantErr: "invalid kind",
		},
		{
			name:    "invalid namespace (partial match rejected)",
			rules:   rules,
			asset:   testAsset("Texture", "my-env-forest", "t", map[string]string{"team": "art"}),
			wantErr: "invalid namespace",
		},
		{
			name:    "missing required label",
			rules:   rules,
			asset:   testAsset("Texture", "default", "t", nil),
			wantErr: "missing required label",
		},
		{
			name:    "invalid label value",
			rules:   rules,
			asset:   testAsset("Texture", "default", "t", map[string]string{"team": "audio"}),
			wantErr: "invalid value \"audio\"",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rules.Accept(tc.asset)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Accept() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Accept() error = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestValueRule_Describe(t *testing.T) {
	testCases := []struct {
		rule *ValueRule
		want string
	}{
		{rule: nil, want: "any value"},
		{rule: &ValueRule{}, want: "any value"},
		{rule: &ValueRule{Values: []string{"a", "b"}}, want: "one of [a, b]"},
		{rule: &ValueRule{Matches: []*ValueRegexp{mustValueRegexp("x+")}}, want: "matching pattern ^(?:x+)$"},
		{
			rule: &ValueRule{Matches: []*ValueRegexp{mustValueRegexp("x"), mustValueRegexp("y")}},
			want: "matching any of patterns [^(?:x)$, ^(?:y)$]",
		},
	}
	for _, tc := range testCases {
		if got := tc.rule.Describe(); got != tc.want {
			t.Errorf("Describe() = %q, want %q", got, tc.want)
		}
	}
}

func TestConfig_UnmarshalYAML(t *testing.T) {
	content := `
validation:
  kind:
    values: [Texture]
  kinds:
    Texture:
      requiredLabels: [team]
      labels:
        team:
          matches: ["gr.*"]
`
	var cfg Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	ok := testAsset("Texture", "default", "t", map[string]string{"team": "graphics"})
	if err := cfg.Validation.Accept(ok); err != nil {
		t.Errorf("Accept() error = %v, want nil", err)
	}
	bad := testAsset("Texture", "default", "t", map[string]string{"team": "xgraphics"})
	if err := cfg.Validation.Accept(bad); err == nil {
		t.Error("Accept() succeeded, want error")
	}

	if err := yaml.Unmarshal([]byte("validation:\n  kind:\n    matches: ['(']\n"), &cfg); err == nil {
		t.Error("Unmarshal() with invalid regexp succeeded, want error")
	}
}
