package driver

import (
	"database/sql"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlgate", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDriverRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Exec("CREATE TABLE driver_users (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO driver_users VALUES (?, ?)", int64(1), "asdf"); err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}

	rows, err := db.Query("SELECT id, name FROM driver_users")
	if err != nil {
		t.Fatalf("SELECT failed: %v", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		t.Fatalf("Columns failed: %v", err)
	}
	if len(cols) != 2 || cols[0] != "id" || cols[1] != "name" {
		t.Errorf("Unexpected columns %v", cols)
	}

	if !rows.Next() {
		t.Fatalf("Expected a row, err=%v", rows.Err())
	}
	var id int64
	var name string
	if err := rows.Scan(&id, &name); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if id != 1 || name != "asdf" {
		t.Errorf("Expected (1, asdf), got (%d, %q)", id, name)
	}
	if rows.Next() {
		t.Error("Expected a single row")
	}
}

func TestDriverPreparedStatementReuse(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Exec("CREATE TABLE driver_reuse (id INTEGER)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}

	stmt, err := db.Prepare("INSERT INTO driver_reuse VALUES (?)")
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	defer stmt.Close()

	// Bridge statements are single-shot; the driver must transparently
	// re-prepare for each execution.
	for i := int64(1); i <= 3; i++ {
		if _, err := stmt.Exec(i); err != nil {
			t.Fatalf("Exec #%d failed: %v", i, err)
		}
	}

	var count int64
	if err := db.QueryRow("SELECT count(*) FROM driver_reuse").Scan(&count); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 rows, got %d", count)
	}
}

func TestDriverSyntaxErrorAtPrepare(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Prepare("SELEKT 1"); err == nil {
		t.Error("Expected syntax error from Prepare")
	}
}

func TestDriverSQLErrorPromotedToCallError(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Exec("CREATE TABLE driver_pk (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO driver_pk VALUES (1)"); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO driver_pk VALUES (1)"); err == nil {
		t.Error("Expected constraint violation to surface as an error")
	}
}

func TestDriverTransactionsUnsupported(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Begin(); err == nil {
		t.Error("Expected Begin to fail")
	}
}
