// Package proxy implements the live interceptor tree over a model's working
// graph.
//
// Every container in the live graph is wrapped by exactly one interceptor:
// a *MapInterceptor for keyed maps, a *SeqInterceptor for sequences. Each
// interceptor knows its path from the root and owns the interceptors of its
// container children. Scalars have no interceptor.
//
// A write through an interceptor:
//  1. applies the edit to the live container, so later reads see it
//  2. wraps the new value in a child interceptor when it is a container
//  3. emits a mutation.Mutation carrying a detached copy of the payload
//
// Positional sequence operations re-home the paths of every shifted child:
// Prepend walks children from the highest index down, RemoveFirst from the
// lowest up, so no two children ever share a key mid-shift.
//
// When a value is overwritten, deleted, or falls off the end of a sequence,
// its interceptor subtree is invalidated. Every operation on an invalidated
// interceptor logs a warning and fails with ErrStaleInterceptor; it never
// touches the graph that replaced it.
//
// Values of an unsupported kind (value.Opaque) are stored as-is, logged,
// and never tracked.
//
// Thread-safety: none. One writer drives a tree at a time.
package proxy
