package mutation

import (
	"github.com/roach88/hidux/internal/value"
)

// Apply produces the snapshot that follows prev after m.
//
// Every container on the path from the root to the edit is shallow-copied,
// so ancestors of the edit get a fresh identity while untouched siblings
// keep theirs. prev is never written to.
//
// Unknown kinds fail fast with ErrCodeUnknownKind before anything is copied.
func Apply(m Mutation, prev value.Value) (value.Value, error) {
	if _, ok := kindNames[m.Kind]; !ok {
		return nil, newBuildError(ErrCodeUnknownKind, m, "unknown mutation kind %d", int(m.Kind))
	}
	if len(m.Path) == 0 {
		return nil, newBuildError(ErrCodePathNotFound, m, "mutation path is empty")
	}
	if err := checkPayload(m); err != nil {
		return nil, err
	}
	return update(m, prev, 0)
}

// update rebuilds node for path[depth:].
func update(m Mutation, node value.Value, depth int) (value.Value, error) {
	seg := m.Path[depth]
	if depth == len(m.Path)-1 {
		return applyTerminal(m, node, seg)
	}

	switch n := node.(type) {
	case *value.Map:
		if seg.IsIndex() {
			return nil, newBuildError(ErrCodeTypeMismatch, m, "index segment %s on keyed map at depth %d", seg, depth)
		}
		child, ok := n.Get(seg.Key())
		if !ok {
			return nil, newBuildError(ErrCodePathNotFound, m, "missing key %q at depth %d", seg.Key(), depth)
		}
		next, err := update(m, child, depth+1)
		if err != nil {
			return nil, err
		}
		out := n.ShallowCopy()
		out.Set(seg.Key(), next)
		return out, nil

	case *value.Seq:
		if !seg.IsIndex() {
			return nil, newBuildError(ErrCodeTypeMismatch, m, "key segment %q on sequence at depth %d", seg.Key(), depth)
		}
		if seg.Index() < 0 || seg.Index() >= n.Len() {
			return nil, newBuildError(ErrCodePathNotFound, m, "index %d out of range at depth %d", seg.Index(), depth)
		}
		next, err := update(m, n.At(seg.Index()), depth+1)
		if err != nil {
			return nil, err
		}
		out := n.ShallowCopy()
		// In range: checked above.
		_ = out.Set(seg.Index(), next)
		return out, nil

	default:
		return nil, newBuildError(ErrCodeTypeMismatch, m, "cannot descend into %s at depth %d", value.Classify(node), depth)
	}
}

// applyTerminal applies the edit to a copy of the container the final
// segment points into.
func applyTerminal(m Mutation, node value.Value, seg value.Segment) (value.Value, error) {
	switch m.Kind {
	case KindSet:
		switch n := node.(type) {
		case *value.Map:
			if seg.IsIndex() {
				return nil, newBuildError(ErrCodeTypeMismatch, m, "index segment on keyed map")
			}
			out := n.ShallowCopy()
			out.Set(seg.Key(), m.Payload[0])
			return out, nil
		case *value.Seq:
			if !seg.IsIndex() {
				return nil, newBuildError(ErrCodeTypeMismatch, m, "key segment on sequence")
			}
			out := n.ShallowCopy()
			if err := out.Set(seg.Index(), m.Payload[0]); err != nil {
				return nil, newBuildError(ErrCodePathNotFound, m, "%v", err)
			}
			return out, nil
		}

	case KindDelete:
		n, ok := node.(*value.Map)
		if !ok {
			return nil, newBuildError(ErrCodeTypeMismatch, m, "delete targets %s, want keyed-map", value.Classify(node))
		}
		if seg.IsIndex() {
			return nil, newBuildError(ErrCodeTypeMismatch, m, "index segment on keyed map")
		}
		out := n.ShallowCopy()
		out.Delete(seg.Key())
		return out, nil

	case KindAppend, KindRemoveLast, KindPrepend, KindRemoveFirst, KindResize:
		n, ok := node.(*value.Seq)
		if !ok {
			return nil, newBuildError(ErrCodeTypeMismatch, m, "%s targets %s, want sequence", m.Kind, value.Classify(node))
		}
		out := n.ShallowCopy()
		switch m.Kind {
		case KindAppend:
			out.Append(m.Payload...)
		case KindRemoveLast:
			out.RemoveLast()
		case KindPrepend:
			out.Prepend(m.Payload...)
		case KindRemoveFirst:
			out.RemoveFirst()
		case KindResize:
			out.Resize(int(m.Payload[0].(value.Int)))
		}
		return out, nil
	}

	return nil, newBuildError(ErrCodeTypeMismatch, m, "%s cannot target %s", m.Kind, value.Classify(node))
}

// checkPayload validates the payload shape for m.Kind.
func checkPayload(m Mutation) error {
	switch m.Kind {
	case KindSet:
		if len(m.Payload) != 1 {
			return newBuildError(ErrCodeInvalidPayload, m, "set takes exactly one value, got %d", len(m.Payload))
		}
	case KindResize:
		if len(m.Payload) != 1 {
			return newBuildError(ErrCodeInvalidPayload, m, "resize takes exactly one length, got %d", len(m.Payload))
		}
		n, ok := m.Payload[0].(value.Int)
		if !ok || n < 0 {
			return newBuildError(ErrCodeInvalidPayload, m, "resize length must be a non-negative int")
		}
	case KindDelete, KindRemoveLast, KindRemoveFirst:
		if len(m.Payload) != 0 {
			return newBuildError(ErrCodeInvalidPayload, m, "%s takes no values, got %d", m.Kind, len(m.Payload))
		}
	}
	return nil
}
