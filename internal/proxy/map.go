package proxy

import (
	"fmt"

	"github.com/roach88/hidux/internal/mutation"
	"github.com/roach88/hidux/internal/value"
)

// MapInterceptor tracks one live keyed map.
type MapInterceptor struct {
	base
	live     *value.Map
	children childTable[string]
}

func newMapInterceptor(live *value.Map, p value.Path, t *tree) *MapInterceptor {
	m := &MapInterceptor{
		base:     newBase(p, t),
		live:     live,
		children: newChildTable[string](),
	}
	for _, k := range live.Keys() {
		v, _ := live.Get(k)
		m.children.put(k, wrap(v, p.Child(value.Key(k)), t))
	}
	return m
}

// Kind returns value.KindKeyedMap.
func (m *MapInterceptor) Kind() value.Kind {
	return value.KindKeyedMap
}

// Get returns the live value of a scalar field.
// Container fields return a detached copy; use Map, Seq or Child to write
// through them.
func (m *MapInterceptor) Get(key string) (value.Value, error) {
	if err := m.check("get"); err != nil {
		return nil, err
	}
	v, ok := m.live.Get(key)
	if !ok {
		return nil, fmt.Errorf("get %q at %q: %w", key, m.path.String(), ErrNoSuchKey)
	}
	if value.IsContainer(v) {
		return value.Clone(v), nil
	}
	return v, nil
}

// Has reports whether key is present.
func (m *MapInterceptor) Has(key string) (bool, error) {
	if err := m.check("has"); err != nil {
		return false, err
	}
	return m.live.Has(key), nil
}

// Keys returns the field names in canonical order.
func (m *MapInterceptor) Keys() ([]string, error) {
	if err := m.check("keys"); err != nil {
		return nil, err
	}
	return m.live.Keys(), nil
}

// Len returns the number of fields.
func (m *MapInterceptor) Len() (int, error) {
	if err := m.check("len"); err != nil {
		return 0, err
	}
	return m.live.Len(), nil
}

// Child returns the interceptor tracking the container under key.
func (m *MapInterceptor) Child(key string) (Node, error) {
	if err := m.check("child"); err != nil {
		return nil, err
	}
	if n, ok := m.children.get(key); ok {
		return n, nil
	}
	if !m.live.Has(key) {
		return nil, fmt.Errorf("child %q at %q: %w", key, m.path.String(), ErrNoSuchKey)
	}
	return nil, fmt.Errorf("child %q at %q: %w", key, m.path.String(), ErrNotContainer)
}

// Map returns the interceptor for a keyed-map field.
func (m *MapInterceptor) Map(key string) (*MapInterceptor, error) {
	n, err := m.Child(key)
	if err != nil {
		return nil, err
	}
	child, ok := n.(*MapInterceptor)
	if !ok {
		return nil, fmt.Errorf("map %q at %q holds %s: %w", key, m.path.String(), n.Kind(), ErrWrongKind)
	}
	return child, nil
}

// Seq returns the interceptor for a sequence field.
func (m *MapInterceptor) Seq(key string) (*SeqInterceptor, error) {
	n, err := m.Child(key)
	if err != nil {
		return nil, err
	}
	child, ok := n.(*SeqInterceptor)
	if !ok {
		return nil, fmt.Errorf("seq %q at %q holds %s: %w", key, m.path.String(), n.Kind(), ErrWrongKind)
	}
	return child, nil
}

// Set writes v under key.
//
// Writing a value identical to the current one is a no-op and emits
// nothing. Otherwise any interceptor of the previous value is invalidated,
// containers in v are copied into the live graph and wrapped, and a set
// mutation is emitted.
func (m *MapInterceptor) Set(key string, v value.Value) error {
	if err := m.check("set"); err != nil {
		return err
	}
	adopted := adopt(v)
	if old, ok := m.live.Get(key); ok && value.Same(old, adopted) {
		return nil
	}

	p := m.path.Child(value.Key(key))
	m.children.drop(key)
	m.live.Set(key, adopted)
	m.children.put(key, wrap(adopted, p, m.tree))

	m.log.Debug("map set", "path", p.String())
	return m.emit(mutation.Set(p, value.Clone(adopted)))
}

// Delete removes key. Deleting an absent key is a no-op.
func (m *MapInterceptor) Delete(key string) error {
	if err := m.check("delete"); err != nil {
		return err
	}
	if !m.live.Has(key) {
		return nil
	}

	p := m.path.Child(value.Key(key))
	m.children.drop(key)
	m.live.Delete(key)

	m.log.Debug("map delete", "path", p.String())
	return m.emit(mutation.Delete(p))
}

// ResetPath re-homes the map and its children under p.
func (m *MapInterceptor) ResetPath(p value.Path) {
	if !m.valid {
		return
	}
	m.path = append(value.Path(nil), p...)
	for _, k := range m.children.keys() {
		n, _ := m.children.get(k)
		n.ResetPath(m.path.Child(value.Key(k)))
	}
}

// Invalidate disables the map and every interceptor below it.
func (m *MapInterceptor) Invalidate() {
	if !m.valid {
		return
	}
	m.children.dropAll()
	m.live = nil
	m.release()
}
