package model

import (
	"sort"

	"github.com/roach88/hidux/internal/proxy"
	"github.com/roach88/hidux/internal/value"
)

// Method is a model operation. It receives the live root interceptor, so
// every write it makes produces a snapshot.
type Method func(root *proxy.MapInterceptor, args ...value.Value) (value.Value, error)

// BoundMethod is a Method bound to one instance.
type BoundMethod func(args ...value.Value) (value.Value, error)

// Definition describes a model: how to build its initial state and which
// methods operate on it.
type Definition struct {
	// Name identifies the model in logs and stored history.
	Name string

	// Init builds the initial state from the value passed to New, which may
	// be nil. When Init is nil the initial value itself is used; it must be a
	// keyed map or nil (empty state).
	Init func(initial value.Value) (*value.Map, error)

	// Methods is the method table bound to every instance.
	Methods map[string]Method

	// Validate, if set, checks the initial state before the instance goes live.
	Validate func(state *value.Map) error
}

// MethodNames returns the definition's method names in sorted order.
func (d Definition) MethodNames() []string {
	names := make([]string, 0, len(d.Methods))
	for name := range d.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// initialState runs Init (or the default) and returns the state the
// instance starts from.
func (d Definition) initialState(initial value.Value) (*value.Map, error) {
	if d.Init != nil {
		return d.Init(initial)
	}
	switch v := initial.(type) {
	case nil, value.Null:
		return value.NewMap(), nil
	case *value.Map:
		if v == nil {
			return value.NewMap(), nil
		}
		return v, nil
	default:
		return nil, &ModelError{
			Code:    ErrCodeInvalidInitial,
			Message: "initial value is " + value.Classify(initial).String() + ", want keyed-map",
			Model:   d.Name,
		}
	}
}
