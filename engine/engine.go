package engine

import "github.com/sqlgate/sqlgate/core"

// Engine opens native connections for the bridge's connection
// registry. Implementations must tolerate concurrent Open calls for
// distinct identifiers; the registry serializes opens of the same
// identifier.
type Engine interface {
	// Open opens a connection to the database named by identifier.
	// When memory is true the identifier is not a filesystem path and
	// the database is private to this process.
	Open(identifier string, memory bool) (Conn, error)
}

// Conn is a live native connection.
type Conn interface {
	// Prepare compiles SQL text into a native statement. Syntax and
	// semantic errors are returned here, before any handle exists.
	Prepare(sql string) (Stmt, error)

	// Close releases the native connection.
	Close() error
}

// Stmt is a native prepared statement with a row cursor.
//
// The column accessors are only meaningful while the cursor is
// positioned on a row, that is after a Step call that returned true.
// ColumnCount and ColumnName are additionally valid any time after
// Execute. The bridge enforces these rules; implementations may assume
// them.
type Stmt interface {
	// Bind sets the parameter at the 1-based position. Rebinding a
	// position before Execute overwrites the prior value.
	Bind(index int, value core.Value) error

	// Execute runs the statement with its bound parameters and opens
	// the result cursor. Engine-level failures (constraint violations,
	// missing tables) are returned here.
	Execute() error

	// Step advances the cursor. It returns true while a row is
	// available and false once the result set is exhausted.
	Step() (bool, error)

	ColumnCount() int
	ColumnName(index int) string

	// ColumnType reports the type tag of the column's value in the
	// current row.
	ColumnType(index int) core.TypeTag

	// ColumnValue returns the column's value in the current row.
	ColumnValue(index int) core.Value

	// Close releases the native statement and any open cursor.
	Close() error
}
