package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/hidux/internal/value"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected any
	Actual   any
	Message  string
}

func (e *AssertionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: expected %v, got %v", e.Type, e.Expected, e.Actual)
}

func (r *runner) evaluate(a Assertion, final *value.Map) error {
	switch a.Type {
	case AssertSnapshot:
		return assertSubtree(a, final)
	case AssertSnapshotAt:
		snap, ok := r.snaps[a.Seq]
		if !ok {
			return &AssertionError{Type: a.Type, Message: fmt.Sprintf("no snapshot at seq %d (have %v)", a.Seq, sortedSeqs(r.snaps))}
		}
		return assertSubtree(a, snap)
	case AssertTransitions:
		if got := r.result.Transitions; got != *a.Count {
			return &AssertionError{Type: a.Type, Expected: *a.Count, Actual: got}
		}
		return nil
	case AssertHandlePath:
		return r.assertHandlePath(a)
	case AssertHandleValid:
		return r.assertHandleValid(a)
	case AssertShared:
		return r.assertShared(a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertSubtree compares the value at a.Path in snap with a.Expect.
func assertSubtree(a Assertion, snap *value.Map) error {
	p, err := value.ParsePath(a.Path)
	if err != nil {
		return err
	}
	want, err := value.FromGo(a.Expect)
	if err != nil {
		return fmt.Errorf("%s: expect: %w", a.Type, err)
	}
	got, ok := value.Lookup(snap, p)
	if !ok {
		return &AssertionError{Type: a.Type, Message: fmt.Sprintf("path %q not found", a.Path)}
	}
	if !value.Equal(got, want) {
		return &AssertionError{Type: a.Type, Expected: value.ToGo(want), Actual: value.ToGo(got)}
	}
	return nil
}

func (r *runner) assertHandlePath(a Assertion) error {
	want, ok := a.Expect.(string)
	if !ok {
		return &AssertionError{Type: a.Type, Message: fmt.Sprintf("expect must be a path string, got %T", a.Expect)}
	}
	got := r.handles[a.Handle].Path().String()
	if got != want {
		return &AssertionError{Type: a.Type, Expected: want, Actual: got}
	}
	return nil
}

func (r *runner) assertHandleValid(a Assertion) error {
	want, ok := a.Expect.(bool)
	if !ok {
		return &AssertionError{Type: a.Type, Message: fmt.Sprintf("expect must be a bool, got %T", a.Expect)}
	}
	got := r.handles[a.Handle].Valid()
	if got != want {
		return &AssertionError{Type: a.Type, Expected: want, Actual: got}
	}
	return nil
}

// assertShared checks whether the container at a.Path is the same object
// in the snapshots at a.From and a.To.
func (r *runner) assertShared(a Assertion) error {
	want, ok := a.Expect.(bool)
	if !ok {
		return &AssertionError{Type: a.Type, Message: fmt.Sprintf("expect must be a bool, got %T", a.Expect)}
	}
	p, err := value.ParsePath(a.Path)
	if err != nil {
		return err
	}

	var sides [2]value.Value
	for i, seq := range []int64{a.From, a.To} {
		snap, ok := r.snaps[seq]
		if !ok {
			return &AssertionError{Type: a.Type, Message: fmt.Sprintf("no snapshot at seq %d", seq)}
		}
		v, ok := value.Lookup(snap, p)
		if !ok {
			return &AssertionError{Type: a.Type, Message: fmt.Sprintf("path %q not found at seq %d", a.Path, seq)}
		}
		if !value.IsContainer(v) {
			return &AssertionError{Type: a.Type, Message: fmt.Sprintf("path %q at seq %d holds %s, not a container", a.Path, seq, value.Classify(v))}
		}
		sides[i] = v
	}

	if got := value.Same(sides[0], sides[1]); got != want {
		return &AssertionError{Type: a.Type, Expected: want, Actual: got, Message: fmt.Sprintf("%q shared between seq %d and %d: expected %t, got %t", a.Path, a.From, a.To, want, got)}
	}
	return nil
}

func sortedSeqs(snaps map[int64]*value.Map) []int64 {
	seqs := make([]int64, 0, len(snaps))
	for k := range snaps {
		seqs = append(seqs, k)
	}
	slices.Sort(seqs)
	return seqs
}
