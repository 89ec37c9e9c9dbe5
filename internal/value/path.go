package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a Path: either a map key or a sequence index.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key creates a map-key segment.
func Key(k string) Segment {
	return Segment{key: k}
}

// Index creates a sequence-index segment.
func Index(i int) Segment {
	return Segment{index: i, isIndex: true}
}

// IsIndex reports whether the segment addresses a sequence element.
func (s Segment) IsIndex() bool {
	return s.isIndex
}

// Key returns the map key. Empty for index segments.
func (s Segment) Key() string {
	return s.key
}

// Index returns the sequence index. Zero for key segments.
func (s Segment) Index() int {
	return s.index
}

// String renders the segment as it appears inside a Path string.
// Keys that would not parse back as plain keys render bracketed and
// quoted: `["a.b"]`.
func (s Segment) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	if s.bracketed() {
		return "[" + strconv.Quote(s.key) + "]"
	}
	return s.key
}

// bracketed reports whether the segment renders inside brackets.
func (s Segment) bracketed() bool {
	return s.isIndex || s.key == "" || strings.ContainsAny(s.key, `.[]"`)
}

// Path locates a node from the graph root.
// Paths are values: Child and Parent never share backing arrays with
// the receiver, so a stored Path is never changed by a later append.
type Path []Segment

// Root is the empty path.
var Root = Path{}

// Child returns a new path with seg appended.
func (p Path) Child(seg Segment) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = seg
	return out
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	out := make(Path, len(p)-1)
	copy(out, p[:len(p)-1])
	return out
}

// Last returns the final segment.
func (p Path) Last() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the path as `items[2].name`. The root renders as "".
// The result always parses back to an equal path.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if !seg.bracketed() && i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}

// ParsePath parses `path.to.key` and `items[2].name` forms. A key
// holding separators is written as a quoted Go string in brackets, as in
// `labels["app.kubernetes.io/name"]`.
// An empty string is the root path.
func ParsePath(s string) (Path, error) {
	p := Path{}
	if s == "" {
		return p, nil
	}

	i := 0
	expectKey := true
	for i < len(s) {
		switch s[i] {
		case '.':
			if expectKey {
				return nil, fmt.Errorf("path %q: empty key at offset %d", s, i)
			}
			expectKey = true
			i++
		case '[':
			if expectKey && i > 0 {
				return nil, fmt.Errorf("path %q: empty key at offset %d", s, i)
			}
			if i+1 < len(s) && s[i+1] == '"' {
				q, err := strconv.QuotedPrefix(s[i+1:])
				if err != nil {
					return nil, fmt.Errorf("path %q: invalid quoted key at offset %d", s, i)
				}
				end := i + 1 + len(q)
				if end >= len(s) || s[end] != ']' {
					return nil, fmt.Errorf("path %q: unterminated key at offset %d", s, i)
				}
				k, _ := strconv.Unquote(q)
				p = append(p, Key(k))
				expectKey = false
				i = end + 1
				continue
			}
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unterminated index at offset %d", s, i)
			}
			n, err := strconv.Atoi(s[i+1 : i+end])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("path %q: invalid index %q", s, s[i+1:i+end])
			}
			p = append(p, Index(n))
			expectKey = false
			i += end + 1
		default:
			if !expectKey {
				return nil, fmt.Errorf("path %q: missing separator at offset %d", s, i)
			}
			end := strings.IndexAny(s[i:], ".[")
			if end < 0 {
				end = len(s) - i
			}
			p = append(p, Key(s[i:i+end]))
			expectKey = false
			i += end
		}
	}
	if expectKey {
		return nil, fmt.Errorf("path %q: trailing separator", s)
	}
	return p, nil
}

// MustParsePath is like ParsePath but panics on error.
// Use only in tests or with constant paths.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup walks root along p and returns the value found there.
func Lookup(root Value, p Path) (Value, bool) {
	cur := root
	for _, seg := range p {
		switch node := cur.(type) {
		case *Map:
			if seg.isIndex || node == nil {
				return nil, false
			}
			v, ok := node.Get(seg.key)
			if !ok {
				return nil, false
			}
			cur = v
		case *Seq:
			if !seg.isIndex || node == nil || seg.index >= node.Len() {
				return nil, false
			}
			cur = node.At(seg.index)
		default:
			return nil, false
		}
	}
	return cur, true
}
