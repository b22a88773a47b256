package yamlmeta

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PathElem is a single step of a Path: either a mapping member or a sequence index.
type PathElem struct {
	Member string
	Index  int
	// IsIndex distinguishes Index 0 from a member step.
	IsIndex bool
}

// Path addresses a node inside a YAML document, starting at the document's
// root mapping. The zero Path is the root.
//
// Canonical string form: "spec.ports[0].name". Member names that are not
// plain identifiers are quoted: `metadata.labels["app.io/tier"]`.
// The root is written as ".".
type Path struct {
	elems []PathElem
}

var plainMemberRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Root returns the empty path.
func Root() Path {
	return Path{}
}

// NewPath builds a path of member steps.
func NewPath(members ...string) Path {
	var p Path
	for _, m := range members {
		p = p.Child(m)
	}
	return p
}

// Child returns a new path extended by a member step.
func (p Path) Child(member string) Path {
	return p.with(PathElem{Member: member})
}

// Index returns a new path extended by a sequence index step.
func (p Path) Index(i int) Path {
	return p.with(PathElem{Index: i, IsIndex: true})
}

func (p Path) with(e PathElem) Path {
	elems := make([]PathElem, len(p.elems), len(p.elems)+1)
	copy(elems, p.elems)
	return Path{elems: append(elems, e)}
}

// Parent returns p without its last step. The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p.elems) == 0 {
		return p
	}
	return Path{elems: p.elems[:len(p.elems)-1]}
}

func (p Path) IsRoot() bool {
	return len(p.elems) == 0
}

func (p Path) Elems() []PathElem {
	return append([]PathElem(nil), p.elems...)
}

func (p Path) Len() int {
	return len(p.elems)
}

func (p Path) Equal(other Path) bool {
	if len(p.elems) != len(other.elems) {
		return false
	}
	for i := range p.elems {
		if p.elems[i] != other.elems[i] {
			return false
		}
	}
	return true
}

// Compare orders paths element by element, so that a path sorts before its
// descendants and sequence indexes sort numerically: spec.ports[2] comes
// before spec.ports[10]. Member steps sort before index steps.
// It returns -1, 0 or +1.
func (p Path) Compare(other Path) int {
	for i := 0; i < len(p.elems) && i < len(other.elems); i++ {
		a, b := p.elems[i], other.elems[i]
		switch {
		case a.IsIndex != b.IsIndex:
			if b.IsIndex {
				return -1
			}
			return 1
		case a.IsIndex:
			if c := cmp.Compare(a.Index, b.Index); c != 0 {
				return c
			}
		default:
			if c := cmp.Compare(a.Member, b.Member); c != 0 {
				return c
			}
		}
	}
	return cmp.Compare(len(p.elems), len(other.elems))
}

func (p Path) String() string {
	if len(p.elems) == 0 {
		return "."
	}
	var sb strings.Builder
	for i, e := range p.elems {
		switch {
		case e.IsIndex:
			fmt.Fprintf(&sb, "[%d]", e.Index)
		case plainMemberRE.MatchString(e.Member):
			if i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(e.Member)
		default:
			fmt.Fprintf(&sb, "[%s]", strconv.Quote(e.Member))
		}
	}
	return sb.String()
}

// ParsePath parses the canonical string form of a path.
func ParsePath(s string) (Path, error) {
	var p Path
	if s == "." {
		return p, nil
	}
	if s == "" {
		return p, fmt.Errorf("empty path")
	}
	i, n := 0, len(s)
	for i < n {
		switch s[i] {
		case '[':
			end, elem, err := parseBracket(s, i)
			if err != nil {
				return Path{}, err
			}
			p.elems = append(p.elems, elem)
			i = end
		case '.':
			if i == 0 || i+1 == n || s[i+1] == '.' || s[i+1] == '[' {
				return Path{}, fmt.Errorf("invalid path %q: misplaced '.' at offset %d", s, i)
			}
			i++
		default:
			if i > 0 && s[i-1] != '.' {
				return Path{}, fmt.Errorf("invalid path %q: expected '.' or '[' at offset %d", s, i)
			}
			start := i
			for i < n && s[i] != '.' && s[i] != '[' {
				i++
			}
			member := s[start:i]
			if !plainMemberRE.MatchString(member) {
				return Path{}, fmt.Errorf("invalid path %q: member %q must be quoted", s, member)
			}
			p.elems = append(p.elems, PathElem{Member: member})
		}
	}
	return p, nil
}

// parseBracket parses "[123]" or `["quoted"]` starting at s[start] == '['.
// It returns the offset just past the closing bracket.
func parseBracket(s string, start int) (int, PathElem, error) {
	rest := s[start+1:]
	if strings.HasPrefix(rest, `"`) {
		quoted, err := strconv.QuotedPrefix(rest)
		if err != nil {
			return 0, PathElem{}, fmt.Errorf("invalid path %q: bad quoted member at offset %d", s, start)
		}
		if !strings.HasPrefix(rest[len(quoted):], "]") {
			return 0, PathElem{}, fmt.Errorf("invalid path %q: missing ']' at offset %d", s, start)
		}
		member, _ := strconv.Unquote(quoted)
		return start + 1 + len(quoted) + 1, PathElem{Member: member}, nil
	}
	digits, _, found := strings.Cut(rest, "]")
	if !found {
		return 0, PathElem{}, fmt.Errorf("invalid path %q: missing ']' at offset %d", s, start)
	}
	idx, err := strconv.Atoi(digits)
	if err != nil || idx < 0 {
		return 0, PathElem{}, fmt.Errorf("invalid path %q: bad index %q", s, digits)
	}
	return start + 1 + len(digits) + 1, PathElem{Index: idx, IsIndex: true}, nil
}

// MarshalText implements encoding.TextMarshaler, so paths can be used as
// YAML mapping keys.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Path) UnmarshalText(text []byte) error {
	q, err := ParsePath(string(text))
	if err != nil {
		return err
	}
	*p = q
	return nil
}
