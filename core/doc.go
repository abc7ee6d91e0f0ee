// Package core provides core types used throughout sqlgate.
//
// The package defines the closed type-tag enumeration, the tagged Value
// union that carries row data and parameters across the bridge
// boundary, and the (code, message) error model shared by every
// protocol operation.
//
// # Type Tags
//
// Values crossing the boundary are identified by a small integer tag:
//   - IntegerType (1)
//   - FloatType (2)
//   - TextType (3)
//   - BlobType (4)
//   - NullType (5)
//
// The numeric codes are a wire contract. External callers hardcode
// them, so they are stable across versions and the set is closed.
//
// # Values
//
// Value is a tagged union over the type-tag set:
//
//	v := core.IntValue(42)
//	n, err := v.AsInt() // 42
//	s := v.AsText()     // "42"
//
// # Errors
//
// Error pairs a taxonomy code with a human-readable message:
//
//	err := core.Errorf(core.CodeInvalidHandle, "unknown statement handle %d", h)
//
// Code 0 (core.OK) is the only success value. Messages are for humans;
// callers must not pattern-match on them.
package core
