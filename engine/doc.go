// Package engine defines the seam between the bridge and the backing
// SQL engine.
//
// The bridge never talks to a database directly. It drives the three
// interfaces defined here - Engine, Conn, and Stmt - which express the
// minimal contract the bridge needs: prepare SQL text against a
// connection, bind positional parameters, step the cursor one row at a
// time, and read typed columns from the current row.
//
// # DuckDB
//
// The production implementation wraps DuckDB through database/sql:
//
//	eng := engine.NewDuckDB()
//	conn, err := eng.Open("analytics.db", false)
//	stmt, err := conn.Prepare("SELECT name FROM users WHERE id = ?")
//	stmt.Bind(1, core.IntValue(7))
//	stmt.Execute()
//	for {
//	    ok, err := stmt.Step()
//	    if err != nil || !ok {
//	        break
//	    }
//	    name := stmt.ColumnValue(0).AsText()
//	}
//
// Column types are reported per row from the runtime type of the
// scanned value, which is what gives bound parameters their tag
// fidelity in queries like SELECT ?.
package engine
