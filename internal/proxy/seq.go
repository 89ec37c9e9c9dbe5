package proxy

import (
	"fmt"

	"github.com/roach88/hidux/internal/mutation"
	"github.com/roach88/hidux/internal/value"
)

// SeqInterceptor tracks one live sequence.
type SeqInterceptor struct {
	base
	live     *value.Seq
	children childTable[int]
}

func newSeqInterceptor(live *value.Seq, p value.Path, t *tree) *SeqInterceptor {
	s := &SeqInterceptor{
		base:     newBase(p, t),
		live:     live,
		children: newChildTable[int](),
	}
	for i := 0; i < live.Len(); i++ {
		s.children.put(i, wrap(live.At(i), p.Child(value.Index(i)), t))
	}
	return s
}

// Kind returns value.KindSequence.
func (s *SeqInterceptor) Kind() value.Kind {
	return value.KindSequence
}

func (s *SeqInterceptor) inRange(op string, i int) error {
	if i < 0 || i >= s.live.Len() {
		return fmt.Errorf("%s [%d] at %q (len %d): %w", op, i, s.path.String(), s.live.Len(), ErrIndexOutOfRange)
	}
	return nil
}

// elemPath returns the path of element i.
func (s *SeqInterceptor) elemPath(i int) value.Path {
	return s.path.Child(value.Index(i))
}

// Get returns the live value of a scalar element.
// Container elements return a detached copy.
func (s *SeqInterceptor) Get(i int) (value.Value, error) {
	if err := s.check("get"); err != nil {
		return nil, err
	}
	if err := s.inRange("get", i); err != nil {
		return nil, err
	}
	v := s.live.At(i)
	if value.IsContainer(v) {
		return value.Clone(v), nil
	}
	return v, nil
}

// Len returns the number of elements.
func (s *SeqInterceptor) Len() (int, error) {
	if err := s.check("len"); err != nil {
		return 0, err
	}
	return s.live.Len(), nil
}

// Child returns the interceptor tracking the container at index i.
func (s *SeqInterceptor) Child(i int) (Node, error) {
	if err := s.check("child"); err != nil {
		return nil, err
	}
	if err := s.inRange("child", i); err != nil {
		return nil, err
	}
	if n, ok := s.children.get(i); ok {
		return n, nil
	}
	return nil, fmt.Errorf("child [%d] at %q: %w", i, s.path.String(), ErrNotContainer)
}

// Map returns the interceptor for a keyed-map element.
func (s *SeqInterceptor) Map(i int) (*MapInterceptor, error) {
	n, err := s.Child(i)
	if err != nil {
		return nil, err
	}
	child, ok := n.(*MapInterceptor)
	if !ok {
		return nil, fmt.Errorf("map [%d] at %q holds %s: %w", i, s.path.String(), n.Kind(), ErrWrongKind)
	}
	return child, nil
}

// Seq returns the interceptor for a sequence element.
func (s *SeqInterceptor) Seq(i int) (*SeqInterceptor, error) {
	n, err := s.Child(i)
	if err != nil {
		return nil, err
	}
	child, ok := n.(*SeqInterceptor)
	if !ok {
		return nil, fmt.Errorf("seq [%d] at %q holds %s: %w", i, s.path.String(), n.Kind(), ErrWrongKind)
	}
	return child, nil
}

// Set writes v at index i. i may equal Len, which appends through a set
// mutation. Writing an identical value is a no-op.
func (s *SeqInterceptor) Set(i int, v value.Value) error {
	if err := s.check("set"); err != nil {
		return err
	}
	if i < 0 || i > s.live.Len() {
		return fmt.Errorf("set [%d] at %q (len %d): %w", i, s.path.String(), s.live.Len(), ErrIndexOutOfRange)
	}
	adopted := adopt(v)
	if i < s.live.Len() && value.Same(s.live.At(i), adopted) {
		return nil
	}

	p := s.elemPath(i)
	s.children.drop(i)
	// Bounds checked above.
	_ = s.live.Set(i, adopted)
	s.children.put(i, wrap(adopted, p, s.tree))

	s.log.Debug("seq set", "path", p.String())
	return s.emit(mutation.Set(p, value.Clone(adopted)))
}

// Delete clears element i to null. Sequences never hold holes, so the
// length is unchanged and a set mutation is emitted.
func (s *SeqInterceptor) Delete(i int) error {
	if err := s.check("delete"); err != nil {
		return err
	}
	if err := s.inRange("delete", i); err != nil {
		return err
	}
	return s.Set(i, value.Null{})
}

// Append adds vals at the end. Appending nothing is a no-op.
func (s *SeqInterceptor) Append(vals ...value.Value) error {
	if err := s.check("append"); err != nil {
		return err
	}
	if len(vals) == 0 {
		return nil
	}

	start := s.live.Len()
	adopted := adoptAll(vals)
	s.live.Append(adopted...)
	for j, v := range adopted {
		s.children.put(start+j, wrap(v, s.elemPath(start+j), s.tree))
	}

	s.log.Debug("seq append", "path", s.path.String(), "count", len(vals))
	return s.emit(mutation.Append(s.elemPath(start), value.CloneAll(adopted)...))
}

// RemoveLast removes and returns the last element.
// On an empty sequence it returns nil and emits nothing.
func (s *SeqInterceptor) RemoveLast() (value.Value, error) {
	if err := s.check("remove-last"); err != nil {
		return nil, err
	}
	if s.live.Len() == 0 {
		return nil, nil
	}

	last := s.live.Len() - 1
	s.children.drop(last)
	removed, _ := s.live.RemoveLast()

	s.log.Debug("seq remove-last", "path", s.path.String())
	return removed, s.emit(mutation.RemoveLast(s.elemPath(last)))
}

// Prepend inserts vals at the front. Existing children move up by
// len(vals) and are re-homed before the new elements are wrapped.
func (s *SeqInterceptor) Prepend(vals ...value.Value) error {
	if err := s.check("prepend"); err != nil {
		return err
	}
	if len(vals) == 0 {
		return nil
	}

	adopted := adoptAll(vals)
	s.live.Prepend(adopted...)
	shift(&s.children, len(adopted), func(n Node, i int) {
		n.ResetPath(s.elemPath(i))
	})
	for j, v := range adopted {
		s.children.put(j, wrap(v, s.elemPath(j), s.tree))
	}

	s.log.Debug("seq prepend", "path", s.path.String(), "count", len(vals))
	return s.emit(mutation.Prepend(s.elemPath(0), value.CloneAll(adopted)...))
}

// RemoveFirst removes and returns the first element. Remaining children
// move down by one and are re-homed.
// On an empty sequence it returns nil and emits nothing.
func (s *SeqInterceptor) RemoveFirst() (value.Value, error) {
	if err := s.check("remove-first"); err != nil {
		return nil, err
	}
	if s.live.Len() == 0 {
		return nil, nil
	}

	s.children.drop(0)
	removed, _ := s.live.RemoveFirst()
	shift(&s.children, -1, func(n Node, i int) {
		n.ResetPath(s.elemPath(i))
	})

	s.log.Debug("seq remove-first", "path", s.path.String())
	return removed, s.emit(mutation.RemoveFirst(s.elemPath(0)))
}

// Resize sets the length to n. Shrinking invalidates every child at or
// beyond n; growing pads with null.
func (s *SeqInterceptor) Resize(n int) error {
	if err := s.check("resize"); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("resize to %d at %q: %w", n, s.path.String(), ErrIndexOutOfRange)
	}
	if n == s.live.Len() {
		return nil
	}

	s.children.dropWhere(func(i int) bool { return i >= n })
	s.live.Resize(n)

	s.log.Debug("seq resize", "path", s.path.String(), "len", n)
	return s.emit(mutation.Resize(s.elemPath(n), n))
}

// ResetPath re-homes the sequence and its children under p.
func (s *SeqInterceptor) ResetPath(p value.Path) {
	if !s.valid {
		return
	}
	s.path = append(value.Path(nil), p...)
	for _, i := range s.children.keys() {
		n, _ := s.children.get(i)
		n.ResetPath(s.elemPath(i))
	}
}

// Invalidate disables the sequence and every interceptor below it.
func (s *SeqInterceptor) Invalidate() {
	if !s.valid {
		return
	}
	s.children.dropAll()
	s.live = nil
	s.release()
}

func adoptAll(vals []value.Value) []value.Value {
	out := make([]value.Value, len(vals))
	for i, v := range vals {
		out[i] = adopt(v)
	}
	return out
}
