package value

import (
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface representing the values a model can hold.
// Only Null, Bool, Int, Float, String, *Seq, *Map and Opaque implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents an absent value.
type Null struct{}

func (Null) value() {}

// Bool represents a boolean scalar.
type Bool bool

func (Bool) value() {}

// Int represents an integer scalar.
type Int int64

func (Int) value() {}

// Float represents a floating point scalar.
type Float float64

func (Float) value() {}

// String represents a string scalar.
type String string

func (String) value() {}

// Opaque carries a Go value the model cannot look into (a func, a time.Time,
// a custom struct). It is stored and returned as-is and never tracked.
type Opaque struct {
	V any
}

func (Opaque) value() {}

// Seq is an ordered sequence of values.
// The zero value is an empty sequence ready to use.
type Seq struct {
	elems []Value
}

func (*Seq) value() {}

// NewSeq creates a sequence holding vals.
func NewSeq(vals ...Value) *Seq {
	s := &Seq{elems: make([]Value, len(vals))}
	for i, v := range vals {
		s.elems[i] = normalize(v)
	}
	return s
}

// Len returns the number of elements.
func (s *Seq) Len() int {
	return len(s.elems)
}

// At returns the element at index i, or nil when i is out of range.
func (s *Seq) At(i int) Value {
	if i < 0 || i >= len(s.elems) {
		return nil
	}
	return s.elems[i]
}

// Elems returns a copy of the element slice.
func (s *Seq) Elems() []Value {
	return slices.Clone(s.elems)
}

// Set replaces the element at index i. Writing at Len() appends.
func (s *Seq) Set(i int, v Value) error {
	switch {
	case i >= 0 && i < len(s.elems):
		s.elems[i] = normalize(v)
	case i == len(s.elems):
		s.elems = append(s.elems, normalize(v))
	default:
		return fmt.Errorf("index %d out of range [0,%d]", i, len(s.elems))
	}
	return nil
}

// Append adds vals to the end of the sequence.
func (s *Seq) Append(vals ...Value) {
	for _, v := range vals {
		s.elems = append(s.elems, normalize(v))
	}
}

// Prepend inserts vals at the front, keeping their order.
func (s *Seq) Prepend(vals ...Value) {
	front := make([]Value, len(vals), len(vals)+len(s.elems))
	for i, v := range vals {
		front[i] = normalize(v)
	}
	s.elems = append(front, s.elems...)
}

// RemoveLast drops the last element and returns it.
func (s *Seq) RemoveLast() (Value, bool) {
	if len(s.elems) == 0 {
		return nil, false
	}
	last := s.elems[len(s.elems)-1]
	s.elems[len(s.elems)-1] = nil
	s.elems = s.elems[:len(s.elems)-1]
	return last, true
}

// RemoveFirst drops the first element and returns it.
func (s *Seq) RemoveFirst() (Value, bool) {
	if len(s.elems) == 0 {
		return nil, false
	}
	first := s.elems[0]
	s.elems = slices.Delete(s.elems, 0, 1)
	return first, true
}

// Resize truncates the sequence to n elements or pads it with Null.
func (s *Seq) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n <= len(s.elems) {
		clear(s.elems[n:])
		s.elems = s.elems[:n]
		return
	}
	for len(s.elems) < n {
		s.elems = append(s.elems, Null{})
	}
}

// ShallowCopy returns a new sequence sharing the element values.
func (s *Seq) ShallowCopy() *Seq {
	return &Seq{elems: slices.Clone(s.elems)}
}

// Map is a string-keyed map of values.
// Use Keys() for deterministic iteration.
type Map struct {
	fields map[string]Value
}

func (*Map) value() {}

// Pair is a key-value pair for typed Map construction.
type Pair struct {
	Key   string
	Value Value
}

// P is a shorthand for Pair.
// Example: NewMap(P("name", String("cart")), P("count", Int(5)))
func P(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// NewMap creates a map from pairs.
func NewMap(pairs ...Pair) *Map {
	m := &Map{fields: make(map[string]Value, len(pairs))}
	for _, p := range pairs {
		m.fields[p.Key] = normalize(p.Value)
	}
	return m
}

// Len returns the number of fields.
func (m *Map) Len() int {
	return len(m.fields)
}

// Get returns the field stored under key.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.fields[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.fields[key]
	return ok
}

// Set stores v under key.
func (m *Map) Set(key string, v Value) {
	if m.fields == nil {
		m.fields = make(map[string]Value)
	}
	m.fields[key] = normalize(v)
}

// Delete removes key. Deleting a missing key is a no-op.
func (m *Map) Delete(key string) {
	delete(m.fields, key)
}

// Keys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.fields))
	for k := range m.fields {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// ShallowCopy returns a new map sharing the field values.
func (m *Map) ShallowCopy() *Map {
	out := &Map{fields: make(map[string]Value, len(m.fields))}
	for k, v := range m.fields {
		out.fields[k] = v
	}
	return out
}

// normalize maps a nil interface to Null so containers never hold nil.
func normalize(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785. Go's string comparison uses UTF-8 bytes,
// which orders supplementary characters differently.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
