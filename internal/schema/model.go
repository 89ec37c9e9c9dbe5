package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/hidux/internal/model"
	"github.com/roach88/hidux/internal/value"
)

// Model is a compiled CUE model definition.
type Model struct {
	Name    string
	Doc     string
	Initial *value.Map

	schema    cue.Value
	hasSchema bool
}

// HasSchema reports whether the model declares a schema.
func (m *Model) HasSchema() bool {
	return m.hasSchema
}

// CompileError is a definition error with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Compile parses one model struct, e.g. the value at "model.Cart".
func Compile(v cue.Value) (*Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	m := &Model{}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		m.Name = sels[len(sels)-1].String()
	}

	if docVal := v.LookupPath(cue.ParsePath("doc")); docVal.Exists() {
		doc, err := docVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		m.Doc = doc
	}

	initVal := v.LookupPath(cue.ParsePath("initial"))
	if !initVal.Exists() {
		return nil, &CompileError{
			Field:   "initial",
			Message: "initial is required",
			Pos:     v.Pos(),
		}
	}
	if err := initVal.Validate(cue.Concrete(true)); err != nil {
		return nil, &CompileError{
			Field:   "initial",
			Message: fmt.Sprintf("initial must be concrete: %v", err),
			Pos:     initVal.Pos(),
		}
	}
	decoded, err := FromCUE(initVal)
	if err != nil {
		return nil, err
	}
	state, ok := decoded.(*value.Map)
	if !ok {
		return nil, &CompileError{
			Field:   "initial",
			Message: fmt.Sprintf("initial is %s, want keyed-map", value.Classify(decoded)),
			Pos:     initVal.Pos(),
		}
	}
	m.Initial = state

	if schemaVal := v.LookupPath(cue.ParsePath("schema")); schemaVal.Exists() {
		m.schema = schemaVal
		m.hasSchema = true
		if err := m.Validate(m.Initial); err != nil {
			return nil, &CompileError{
				Field:   "schema",
				Message: fmt.Sprintf("initial does not satisfy schema: %v", err),
				Pos:     initVal.Pos(),
			}
		}
	}

	return m, nil
}

// Validate checks state against the model's schema.
// Models without a schema accept every state.
func (m *Model) Validate(state *value.Map) error {
	if !m.hasSchema {
		return nil
	}
	data := m.schema.Context().Encode(value.ToGo(state))
	if err := data.Err(); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := m.schema.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// Definition binds methods to the model. Init starts from a copy of the
// declared initial state unless New is given a keyed map, and Validate
// checks it against the schema.
func (m *Model) Definition(methods map[string]model.Method) model.Definition {
	return model.Definition{
		Name:    m.Name,
		Methods: methods,
		Init: func(initial value.Value) (*value.Map, error) {
			switch v := initial.(type) {
			case nil, value.Null:
				return value.Clone(m.Initial).(*value.Map), nil
			case *value.Map:
				return v, nil
			default:
				return nil, fmt.Errorf("initial value is %s, want keyed-map", value.Classify(initial))
			}
		},
		Validate: m.Validate,
	}
}

// FromCUE converts a concrete CUE value into a value.Value.
// Only regular fields are read; definitions, hidden and optional fields
// are skipped.
func FromCUE(v cue.Value) (value.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return value.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Bool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Int(i), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Float(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.String(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		seq := value.NewSeq()
		for iter.Next() {
			elem, err := FromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			seq.Append(elem)
		}
		return seq, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := value.NewMap()
		for iter.Next() {
			field, err := FromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			out.Set(iter.Label(), field)
		}
		return out, nil
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("unsupported CUE kind %s", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// formatCUEError keeps the first CUE error with its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
