// Package mutation turns one committed edit into the next immutable snapshot.
//
// A Mutation names what happened (Kind), where (Path) and with what
// (Payload). Apply walks the previous snapshot along the path, copying only
// the containers it passes through, and applies the edit at the terminus.
// Every subtree off the path keeps its identity in the new snapshot; the
// previous snapshot is never written to.
//
// Mutations are produced by interceptors and consumed here. They are not
// part of the public surface of a model instance.
package mutation

import (
	"fmt"

	"github.com/roach88/hidux/internal/value"
)

// Kind identifies the type of edit.
type Kind int

const (
	// KindSet replaces a field or element. Payload[0] is the new value.
	KindSet Kind = iota + 1
	// KindDelete removes a field.
	KindDelete
	// KindAppend appends Payload to the sequence.
	KindAppend
	// KindRemoveLast drops the last element of the sequence.
	KindRemoveLast
	// KindPrepend inserts Payload at the front of the sequence.
	KindPrepend
	// KindRemoveFirst drops the first element of the sequence.
	KindRemoveFirst
	// KindResize truncates or null-pads the sequence. Payload[0] is the
	// new length as value.Int.
	KindResize
)

var kindNames = map[Kind]string{
	KindSet:         "set",
	KindDelete:      "delete",
	KindAppend:      "sequence-append",
	KindRemoveLast:  "sequence-remove-last",
	KindPrepend:     "sequence-prepend",
	KindRemoveFirst: "sequence-remove-first",
	KindResize:      "sequence-resize",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a wire name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Mutation describes one committed edit.
//
// Path includes the terminal segment: the field for set/delete, and
// for sequence kinds the index the edit starts at (old length for append,
// 0 for prepend/removeFirst, new length for removeLast and resize).
// Payload values must already be detached from the live graph.
type Mutation struct {
	Kind    Kind
	Path    value.Path
	Payload []value.Value
}

// Set creates a set mutation.
func Set(p value.Path, v value.Value) Mutation {
	return Mutation{Kind: KindSet, Path: p, Payload: []value.Value{v}}
}

// Delete creates a delete mutation.
func Delete(p value.Path) Mutation {
	return Mutation{Kind: KindDelete, Path: p}
}

// Append creates a sequence-append mutation.
func Append(p value.Path, vals ...value.Value) Mutation {
	return Mutation{Kind: KindAppend, Path: p, Payload: vals}
}

// RemoveLast creates a sequence-remove-last mutation.
func RemoveLast(p value.Path) Mutation {
	return Mutation{Kind: KindRemoveLast, Path: p}
}

// Prepend creates a sequence-prepend mutation.
func Prepend(p value.Path, vals ...value.Value) Mutation {
	return Mutation{Kind: KindPrepend, Path: p, Payload: vals}
}

// RemoveFirst creates a sequence-remove-first mutation.
func RemoveFirst(p value.Path) Mutation {
	return Mutation{Kind: KindRemoveFirst, Path: p}
}

// Resize creates a sequence-resize mutation.
func Resize(p value.Path, n int) Mutation {
	return Mutation{Kind: KindResize, Path: p, Payload: []value.Value{value.Int(n)}}
}

// String renders the mutation for logs.
func (m Mutation) String() string {
	return fmt.Sprintf("%s %s (%d values)", m.Kind, m.Path, len(m.Payload))
}
