package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// FromGo converts a decoded Go tree (JSON, YAML or CUE output) into a Value.
// Types the model cannot look into become Opaque rather than an error.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		if uint64(val) > 1<<63-1 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		return fromNumber(val)
	case []any:
		seq := &Seq{elems: make([]Value, len(val))}
		for i, elem := range val {
			e, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq.elems[i] = e
		}
		return seq, nil
	case map[string]any:
		m := &Map{fields: make(map[string]Value, len(val))}
		for k, elem := range val {
			e, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			m.fields[k] = e
		}
		return m, nil
	case map[any]any:
		m := &Map{fields: make(map[string]Value, len(val))}
		for k, elem := range val {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("map key %v: only string keys are supported", k)
			}
			e, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", ks, err)
			}
			m.fields[ks] = e
		}
		return m, nil
	default:
		return Opaque{V: v}, nil
	}
}

// MustFromGo is like FromGo but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFromGo(v any) Value {
	out, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return out
}

// fromNumber keeps integers exact and only falls back to Float when the
// literal has a fraction or exponent.
func fromNumber(n json.Number) (Value, error) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		i, err := n.Int64()
		if err == nil {
			return Int(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %s: %w", s, err)
	}
	return Float(f), nil
}

// FromJSON decodes a single JSON document into a Value. Integers stay
// exact (no float64 round trip for values above 2^53). Anything but
// whitespace after the document is an error.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value at offset %d", dec.InputOffset())
	}
	return FromGo(raw)
}

// ToGo converts v into plain Go data: map[string]any, []any, int64,
// float64, string, bool and nil. Opaque values are unwrapped.
func ToGo(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case Opaque:
		return val.V
	case *Seq:
		if val == nil {
			return nil
		}
		out := make([]any, len(val.elems))
		for i, e := range val.elems {
			out[i] = ToGo(e)
		}
		return out
	case *Map:
		if val == nil {
			return nil
		}
		out := make(map[string]any, len(val.fields))
		for k, e := range val.fields {
			out[k] = ToGo(e)
		}
		return out
	default:
		return nil
	}
}
