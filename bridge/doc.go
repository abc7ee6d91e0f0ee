// Package bridge implements the handle registry and statement
// lifecycle protocol at the center of sqlgate.
//
// Callers on the far side of a language boundary cannot hold native
// database objects, so the bridge hands out small integer handles
// instead. A handle names a live prepared statement; every subsequent
// operation is expressed as handle plus operation, with results
// marshalled through primitive types only.
//
// # Lifecycle
//
//	b := bridge.New(engine.NewDuckDB())
//	b.OpenDatabase(":memory:")
//	h, err := b.Prepare(":memory:", "SELECT ? FROM foo")
//	b.BindInt(h, 42)
//	b.Execute(h)
//	hasErr, msg, _ := b.ResultErr(h)
//	for {
//	    hasRow, _ := b.ResultRow(h)
//	    if !hasRow {
//	        break
//	    }
//	    tag, _ := b.ColumnType(h, 0) // core.IntegerType
//	}
//	b.Finalize(h)
//
// # Error channels
//
// Each operation returns a protocol-level *core.Error (nil on
// success) covering faults in the handle contract itself: unknown
// handles, operations invalid for the statement's state, column
// indexes out of range. Failures of the SQL itself - syntax errors
// aside, which surface at Prepare - are captured on the statement and
// read back with ResultErr, so "did my call succeed" and "did my SQL
// succeed" stay independently checkable.
//
// # Handles
//
// Handles are allocated from a monotonic counter and never reused for
// the life of the process, so a stale handle from a finalized
// statement is reliably detected instead of colliding with a newer
// one.
package bridge
