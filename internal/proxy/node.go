package proxy

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/hidux/internal/mutation"
	"github.com/roach88/hidux/internal/value"
)

// Emitter receives every mutation committed through an interceptor tree.
// A non-nil error is returned to the caller of the write.
//
// Emit runs after the write has reached the live graph, so a failed emit
// leaves the graph ahead of the last snapshot. The whole tree is then
// marked broken: every interceptor in it reports Valid() == false and
// fails further operations as stale. Rebuild the tree from a snapshot.
type Emitter interface {
	Emit(m mutation.Mutation) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(m mutation.Mutation) error

// Emit calls f(m).
func (f EmitterFunc) Emit(m mutation.Mutation) error {
	return f(m)
}

// Node is an interceptor over one live container.
// Implemented by *MapInterceptor and *SeqInterceptor.
type Node interface {
	// Path returns the node's current location from the root.
	Path() value.Path

	// Kind returns value.KindKeyedMap or value.KindSequence.
	Kind() value.Kind

	// Valid reports whether the node still has a live backing value.
	Valid() bool

	// ResetPath moves the node, and recursively its children, to p.
	// Used when an ancestor sequence shifts element positions.
	ResetPath(p value.Path)

	// Invalidate permanently disables the node and its whole subtree.
	Invalidate()
}

// Option configures Wrap.
type Option func(*tree)

// WithLogger sets the logger for diagnostics.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *tree) {
		if l != nil {
			t.log = l
		}
	}
}

// tree is the state shared by every interceptor of one graph.
type tree struct {
	emit   Emitter
	log    *slog.Logger
	broken bool
}

// Wrap builds the interceptor tree for v rooted at p.
//
// Returns nil for scalars. Returns nil and logs a warning for values of an
// unsupported kind: they are kept as-is but never tracked.
func Wrap(v value.Value, p value.Path, emit Emitter, opts ...Option) Node {
	t := &tree{emit: emit, log: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return wrap(v, slices.Clone(p), t)
}

// NewRoot wraps a model's root map at the empty path.
func NewRoot(live *value.Map, emit Emitter, opts ...Option) *MapInterceptor {
	n := Wrap(live, value.Root, emit, opts...)
	root, _ := n.(*MapInterceptor)
	return root
}

// wrap proxies v if it is a container. Children are wrapped recursively.
func wrap(v value.Value, p value.Path, t *tree) Node {
	switch value.Classify(v) {
	case value.KindKeyedMap:
		return newMapInterceptor(v.(*value.Map), p, t)
	case value.KindSequence:
		return newSeqInterceptor(v.(*value.Seq), p, t)
	case value.KindUnsupported:
		t.log.Warn("unsupported value kind left untracked",
			"path", p.String(),
			"type", opaqueType(v),
		)
	}
	return nil
}

func opaqueType(v value.Value) string {
	if o, ok := v.(value.Opaque); ok {
		return fmt.Sprintf("%T", o.V)
	}
	return fmt.Sprintf("%T", v)
}

// adopt returns the value to install in the live graph for a write.
// Containers are deep-copied so the caller keeps no handle into the graph.
func adopt(v value.Value) value.Value {
	if v == nil {
		return value.Null{}
	}
	if value.IsContainer(v) {
		return value.Clone(v)
	}
	return v
}

// base holds the bookkeeping shared by both interceptor kinds.
type base struct {
	path  value.Path
	tree  *tree
	log   *slog.Logger
	valid bool
}

func newBase(p value.Path, t *tree) base {
	return base{path: p, tree: t, log: t.log, valid: true}
}

// Path returns a copy of the node's current path.
func (b *base) Path() value.Path {
	return slices.Clone(b.path)
}

// Valid reports whether the node is still live.
func (b *base) Valid() bool {
	return b.valid && !b.tree.broken
}

// check fails an operation on an invalidated node. The warning is the
// diagnostic; the error stops the operation.
func (b *base) check(op string) error {
	if b.Valid() {
		return nil
	}
	b.log.Warn("use of invalidated interceptor",
		"op", op,
		"path", b.path.String(),
	)
	return &StaleError{Op: op, Path: slices.Clone(b.path)}
}

// emit forwards m to the tree's emitter. A failure breaks the tree.
func (b *base) emit(m mutation.Mutation) error {
	if err := b.tree.emit.Emit(m); err != nil {
		b.tree.broken = true
		b.log.Error("emit failed, interceptor tree is no longer usable",
			"kind", m.Kind.String(),
			"path", m.Path.String(),
			"error", err,
		)
		return fmt.Errorf("emit %s: %w", m.Kind, err)
	}
	return nil
}

// release drops the references an invalidated node must not keep.
func (b *base) release() {
	b.valid = false
	b.tree = nil
}

// Resolve walks from root along p through child interceptors.
func Resolve(root Node, p value.Path) (Node, error) {
	cur := root
	for _, seg := range p {
		var (
			next Node
			err  error
		)
		switch n := cur.(type) {
		case *MapInterceptor:
			if seg.IsIndex() {
				return nil, fmt.Errorf("resolve %q: index %s on keyed map: %w", p.String(), seg, ErrWrongKind)
			}
			next, err = n.Child(seg.Key())
		case *SeqInterceptor:
			if !seg.IsIndex() {
				return nil, fmt.Errorf("resolve %q: key %q on sequence: %w", p.String(), seg.Key(), ErrWrongKind)
			}
			next, err = n.Child(seg.Index())
		default:
			return nil, fmt.Errorf("resolve %q: %w", p.String(), ErrNotContainer)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", p.String(), err)
		}
		cur = next
	}
	return cur, nil
}
