// Package harness runs YAML scenarios against a model instance.
//
// A scenario names a model (from a CUE models directory) or gives an inline
// initial state, then drives the live graph through a list of steps. Each
// step resolves a path from the root, or from a named handle bound by an
// earlier "bind" step, and applies one interceptor operation:
//
//	set, delete, append, remove_last, prepend, remove_first, resize
//
// Handles keep pointing at the interceptor they were bound to, so a
// scenario can check that an interceptor follows its element when a
// sequence shifts, or that it goes stale when its element is removed.
//
// Every run journals its snapshots to a SQLite store (in-memory unless the
// caller supplies one) and checks two invariants on top of the scenario's
// assertions:
//   - no snapshot handed out during the run changed afterwards
//   - the stored history matches the snapshots seen, fingerprint for fingerprint
//
// Traces are deterministic: the logical clock starts at 0 and the instance
// id is fixed, so RunWithGolden can compare them byte for byte.
package harness
