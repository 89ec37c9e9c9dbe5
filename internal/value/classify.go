package value

import (
	"math"
	"reflect"
)

// Kind is the closed classification of a Value.
type Kind int

const (
	// KindScalar covers Null, Bool, Int, Float and String.
	KindScalar Kind = iota
	// KindSequence is a *Seq.
	KindSequence
	// KindKeyedMap is a *Map.
	KindKeyedMap
	// KindUnsupported is an Opaque value; it is never proxied.
	KindUnsupported
)

// String returns the kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindKeyedMap:
		return "keyed-map"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Classify decides the kind of v. A nil interface classifies as a scalar
// (it is stored as Null). A nil *Seq or *Map is unsupported.
func Classify(v Value) Kind {
	switch val := v.(type) {
	case nil, Null, Bool, Int, Float, String:
		return KindScalar
	case *Seq:
		if val == nil {
			return KindUnsupported
		}
		return KindSequence
	case *Map:
		if val == nil {
			return KindUnsupported
		}
		return KindKeyedMap
	default:
		return KindUnsupported
	}
}

// IsContainer reports whether v is a sequence or a keyed map.
func IsContainer(v Value) bool {
	k := Classify(v)
	return k == KindSequence || k == KindKeyedMap
}

// Clone produces a fully detached deep copy of v.
// Opaque values cannot be copied and are carried by reference.
func Clone(v Value) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case *Seq:
		if val == nil {
			return val
		}
		out := &Seq{elems: make([]Value, len(val.elems))}
		for i, e := range val.elems {
			out.elems[i] = Clone(e)
		}
		return out
	case *Map:
		if val == nil {
			return val
		}
		out := &Map{fields: make(map[string]Value, len(val.fields))}
		for k, e := range val.fields {
			out.fields[k] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// CloneAll deep-clones every value in vals.
func CloneAll(vals []Value) []Value {
	out := make([]Value, len(vals))
	for i, v := range vals {
		out[i] = Clone(v)
	}
	return out
}

// Same reports whether writing b over a would change nothing.
// Scalars compare by value (NaN is never the same as NaN), containers by
// identity and Opaque values with == when both dynamic values are
// comparable, including the contents of interface fields.
func Same(a, b Value) bool {
	a, b = normalize(a), normalize(b)
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case *Seq:
		bv, ok := b.(*Seq)
		return ok && av == bv
	case *Map:
		bv, ok := b.(*Map)
		return ok && av == bv
	case Opaque:
		bv, ok := b.(Opaque)
		if !ok {
			return false
		}
		if av.V == nil || bv.V == nil {
			return av.V == nil && bv.V == nil
		}
		ra, rb := reflect.ValueOf(av.V), reflect.ValueOf(bv.V)
		if ra.Type() != rb.Type() || !ra.Comparable() || !rb.Comparable() {
			return false
		}
		return av.V == bv.V
	}
	return false
}

// Equal reports deep structural equality. Unlike Same, two NaN floats are
// equal here so that snapshots holding NaN compare equal to themselves.
func Equal(a, b Value) bool {
	a, b = normalize(a), normalize(b)
	switch av := a.(type) {
	case Float:
		bv, ok := b.(Float)
		if !ok {
			return false
		}
		if math.IsNaN(float64(av)) && math.IsNaN(float64(bv)) {
			return true
		}
		return av == bv
	case *Seq:
		bv, ok := b.(*Seq)
		if !ok || av == nil || bv == nil {
			return ok && av == bv
		}
		if av.Len() != bv.Len() {
			return false
		}
		for i := range av.elems {
			if !Equal(av.elems[i], bv.elems[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av == nil || bv == nil {
			return ok && av == bv
		}
		if av.Len() != bv.Len() {
			return false
		}
		for k, e := range av.fields {
			other, ok := bv.fields[k]
			if !ok || !Equal(e, other) {
				return false
			}
		}
		return true
	case Opaque:
		bv, ok := b.(Opaque)
		return ok && reflect.DeepEqual(av.V, bv.V)
	default:
		return Same(a, b)
	}
}
