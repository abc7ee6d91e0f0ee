// Package sqlgate provides a handle-based bridge for driving
// parameterized SQL against a backing relational engine from across a
// language or runtime boundary.
//
// Callers never hold native connections, prepared statements, or
// cursors. The bridge hands back small integer handles instead, and
// every operation is expressed as handle plus operation with results
// marshalled through integers, strings, and error codes. That makes
// the surface safe to expose through C bindings, a TCP protocol, or
// any transport that can only move primitive values.
//
// # Quick Start
//
//	instance := sqlgate.OpenDefault()
//	defer instance.Close()
//
//	b := instance.Bridge()
//	b.OpenDatabase(":memory:")
//
//	h, _ := b.Prepare(":memory:", "SELECT 1 AS one")
//	b.Execute(h)
//	for {
//	    hasRow, _ := b.ResultRow(h)
//	    if !hasRow {
//	        break
//	    }
//	    n, _ := b.ColumnInt(h, 0)
//	    fmt.Println(n)
//	}
//	b.Finalize(h)
//
// # Surfaces
//
// The same protocol is exposed three ways:
//   - bindings/ exports it as C functions for foreign callers
//   - cmd/server serves it over a line-oriented TCP JSON protocol
//   - driver/ adapts it to database/sql for Go callers
//
// The backing engine sits behind the engine package's adapter seam;
// the production adapter wraps DuckDB.
package sqlgate
