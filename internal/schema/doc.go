// Package schema compiles CUE model definitions.
//
// A model is declared under the top-level "model" struct:
//
//	model: Cart: {
//		doc: "Shopping cart"
//		initial: {lines: [], total: 0}
//		schema: {lines: [...string], total: int & >=0}
//	}
//
// initial is required and must be concrete. schema is optional; when present
// the initial state must satisfy it, and Model.Validate checks any snapshot
// against it.
package schema
