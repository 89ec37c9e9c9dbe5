// Package value provides the sealed value model shared by every hidux layer.
//
// This package contains the value types, their classification, cloning and
// equality, path addressing, and canonical serialization. All other internal
// packages import value; value imports nothing internal.
//
// Key design constraints:
//   - Containers (*Seq, *Map) are always handled by pointer so that snapshot
//     identity is observable and structural sharing can be asserted
//   - Classification is decided once per value by Classify, never re-derived
//   - Opaque values are carried as-is and never copied or tracked
//   - Object keys are iterated in RFC 8785 order for determinism
package value
