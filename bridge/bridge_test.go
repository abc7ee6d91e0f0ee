package bridge

import (
	"errors"
	"sync"
	"testing"

	"github.com/sqlgate/sqlgate/core"
)

func setupTestBridge(t *testing.T) (*Bridge, *fakeEngine) {
	t.Helper()
	eng := newFakeEngine()
	eng.script("SELECT id, name FROM users", fakeScript{
		cols: []string{"id", "name"},
		rows: [][]core.Value{
			{core.IntValue(1), core.TextValue("Alice")},
			{core.IntValue(2), core.TextValue("Bob")},
		},
	})
	eng.script("SELECT ? FROM foo", fakeScript{echoParams: true})
	eng.script("INSERT INTO users (name) VALUES (?)", fakeScript{})
	eng.script("INSERT INTO users (id) VALUES (1)", fakeScript{
		execErr: errors.New("UNIQUE constraint failed: users.id"),
	})
	return New(eng), eng
}

func prepareTest(t *testing.T, b *Bridge, sql string) int64 {
	t.Helper()
	h, err := b.Prepare(MemoryIdentifier, sql)
	if err != nil {
		t.Fatalf("Prepare(%q) failed: %v", sql, err)
	}
	return h
}

func TestPrepareHandlesAreUniqueAndNonZero(t *testing.T) {
	b, _ := setupTestBridge(t)

	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		h := prepareTest(t, b, "SELECT id, name FROM users")
		if h == InvalidHandle {
			t.Fatalf("Prepare returned the invalid sentinel")
		}
		if seen[h] {
			t.Fatalf("Handle %d returned twice", h)
		}
		seen[h] = true
		if i%2 == 0 {
			if err := b.Finalize(h); err != nil {
				t.Fatalf("Finalize failed: %v", err)
			}
		}
	}
}

func TestPrepareFailureAllocatesNoHandle(t *testing.T) {
	b, eng := setupTestBridge(t)
	eng.script("SELEKT", fakeScript{prepareErr: errors.New("syntax error near SELEKT")})

	h, err := b.Prepare(MemoryIdentifier, "SELEKT")
	if err == nil {
		t.Fatal("Expected prepare error")
	}
	if err.Code != core.CodeSQLError {
		t.Errorf("Expected SqlError code, got %v", err.Code)
	}
	if h != InvalidHandle {
		t.Errorf("Expected invalid handle sentinel, got %d", h)
	}
	if len(b.stmts) != 0 {
		t.Errorf("Expected empty statement table, got %d entries", len(b.stmts))
	}
}

func TestResultRowIdempotentAtExhaustion(t *testing.T) {
	b, _ := setupTestBridge(t)
	h := prepareTest(t, b, "SELECT id, name FROM users")

	if err := b.Execute(h); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	rows := 0
	for {
		hasRow, err := b.ResultRow(h)
		if err != nil {
			t.Fatalf("ResultRow failed: %v", err)
		}
		if !hasRow {
			break
		}
		rows++
	}
	if rows != 2 {
		t.Fatalf("Expected 2 rows, got %d", rows)
	}

	for i := 0; i < 3; i++ {
		hasRow, err := b.ResultRow(h)
		if err != nil {
			t.Fatalf("ResultRow after exhaustion failed: %v", err)
		}
		if hasRow {
			t.Fatal("Expected no row after exhaustion")
		}
	}
}

func TestBoundParameterTypeFidelity(t *testing.T) {
	b, _ := setupTestBridge(t)
	h := prepareTest(t, b, "SELECT ? FROM foo")

	if err := b.BindInt(h, 42); err != nil {
		t.Fatalf("BindInt failed: %v", err)
	}
	if err := b.Execute(h); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	hasRow, err := b.ResultRow(h)
	if err != nil || !hasRow {
		t.Fatalf("Expected a row, hasRow=%v err=%v", hasRow, err)
	}

	tag, err := b.ColumnType(h, 0)
	if err != nil {
		t.Fatalf("ColumnType failed: %v", err)
	}
	if tag != core.IntegerType {
		t.Errorf("Expected INTEGER tag for bound int parameter, got %v", tag)
	}
	n, err := b.ColumnInt(h, 0)
	if err != nil {
		t.Fatalf("ColumnInt failed: %v", err)
	}
	if n != 42 {
		t.Errorf("Expected 42, got %d", n)
	}
}

func TestInvalidHandleOnEveryOperation(t *testing.T) {
	b, _ := setupTestBridge(t)
	live := prepareTest(t, b, "SELECT id, name FROM users")

	for _, handle := range []int64{InvalidHandle, 99999} {
		checks := []*core.Error{
			b.BindInt(handle, 1),
			b.BindText(handle, "x"),
			b.Execute(handle),
			b.Finalize(handle),
		}
		if _, _, err := b.ResultErr(handle); err != nil {
			checks = append(checks, err)
		} else {
			t.Errorf("ResultErr(%d) accepted unknown handle", handle)
		}
		if _, err := b.ResultRow(handle); err != nil {
			checks = append(checks, err)
		} else {
			t.Errorf("ResultRow(%d) accepted unknown handle", handle)
		}
		if _, err := b.ColumnCount(handle); err != nil {
			checks = append(checks, err)
		} else {
			t.Errorf("ColumnCount(%d) accepted unknown handle", handle)
		}
		for _, err := range checks {
			if err == nil {
				t.Fatalf("Operation accepted unknown handle %d", handle)
			}
			if err.Code != core.CodeInvalidHandle {
				t.Errorf("Expected InvalidHandle for handle %d, got %v", handle, err.Code)
			}
		}
	}

	// The live statement must be unaffected by the failed lookups.
	if err := b.Execute(live); err != nil {
		t.Fatalf("Live statement corrupted by invalid-handle calls: %v", err)
	}
}

func TestColumnIndexOutOfRange(t *testing.T) {
	b, _ := setupTestBridge(t)
	h := prepareTest(t, b, "SELECT id, name FROM users")

	if err := b.Execute(h); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if _, err := b.ResultRow(h); err != nil {
		t.Fatalf("ResultRow failed: %v", err)
	}

	for _, index := range []int{2, 10, -1} {
		if _, err := b.ColumnInt(h, index); err == nil || err.Code != core.CodeIndexOutOfRange {
			t.Errorf("ColumnInt(%d): expected IndexOutOfRange, got %v", index, err)
		}
		if _, err := b.ColumnName(h, index); err == nil || err.Code != core.CodeIndexOutOfRange {
			t.Errorf("ColumnName(%d): expected IndexOutOfRange, got %v", index, err)
		}
	}
}

func TestExecuteErrorUsesStatementErrorChannel(t *testing.T) {
	b, _ := setupTestBridge(t)
	h := prepareTest(t, b, "INSERT INTO users (id) VALUES (1)")

	// The call itself succeeds; the SQL failure lands on the statement.
	if err := b.Execute(h); err != nil {
		t.Fatalf("Execute reported SQL failure on the call channel: %v", err)
	}

	hasErr, message, err := b.ResultErr(h)
	if err != nil {
		t.Fatalf("ResultErr failed: %v", err)
	}
	if !hasErr {
		t.Fatal("Expected statement error after failing execute")
	}
	if message == "" {
		t.Error("Expected non-empty statement error message")
	}

	// ResultErr is non-mutating.
	hasErr2, message2, _ := b.ResultErr(h)
	if hasErr2 != hasErr || message2 != message {
		t.Error("ResultErr mutated statement error state")
	}

	// The errored cursor refuses row reads at the protocol level.
	if _, err := b.ResultRow(h); err == nil || err.Code != core.CodeInvalidState {
		t.Errorf("Expected InvalidState reading rows of errored statement, got %v", err)
	}
}

func TestBindLifecycleRules(t *testing.T) {
	b, _ := setupTestBridge(t)
	h := prepareTest(t, b, "INSERT INTO users (name) VALUES (?)")

	if err := b.BindText(h, "asdf"); err != nil {
		t.Fatalf("BindText failed: %v", err)
	}
	if err := b.Execute(h); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if err := b.BindText(h, "late"); err == nil || err.Code != core.CodeInvalidState {
		t.Errorf("Expected InvalidState binding after execute, got %v", err)
	}
	if err := b.Execute(h); err == nil || err.Code != core.CodeInvalidState {
		t.Errorf("Expected InvalidState on second execute, got %v", err)
	}
}

func TestColumnReadRequiresCurrentRow(t *testing.T) {
	b, _ := setupTestBridge(t)
	h := prepareTest(t, b, "SELECT id, name FROM users")

	// Before execute there is no result set at all.
	if _, err := b.ColumnCount(h); err == nil || err.Code != core.CodeInvalidState {
		t.Errorf("Expected InvalidState before execute, got %v", err)
	}

	if err := b.Execute(h); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Metadata is available after execute, values are not until the
	// first row advance.
	if n, err := b.ColumnCount(h); err != nil || n != 2 {
		t.Errorf("Expected column count 2 after execute, got %d (%v)", n, err)
	}
	if _, err := b.ColumnInt(h, 0); err == nil || err.Code != core.CodeInvalidState {
		t.Errorf("Expected InvalidState reading value before first row, got %v", err)
	}

	// Drain the cursor; values become invalid again at exhaustion.
	for {
		hasRow, _ := b.ResultRow(h)
		if !hasRow {
			break
		}
	}
	if _, err := b.ColumnInt(h, 0); err == nil || err.Code != core.CodeInvalidState {
		t.Errorf("Expected InvalidState reading value after exhaustion, got %v", err)
	}
}

func TestConnectionRegistryDedupsAndRefcounts(t *testing.T) {
	b, eng := setupTestBridge(t)

	if err := b.OpenDatabase("shared.db"); err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	if err := b.OpenDatabase("shared.db"); err != nil {
		t.Fatalf("Second OpenDatabase failed: %v", err)
	}
	if eng.openCount() != 1 {
		t.Fatalf("Expected 1 native open for repeated identifier, got %d", eng.openCount())
	}

	// Prepare reuses the registered connection rather than opening.
	if _, err := b.Prepare("shared.db", "SELECT id, name FROM users"); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if eng.openCount() != 1 {
		t.Fatalf("Prepare opened a duplicate connection, opens=%d", eng.openCount())
	}

	// First close only drops a reference.
	if err := b.CloseDatabase("shared.db"); err != nil {
		t.Fatalf("CloseDatabase failed: %v", err)
	}
	if eng.closeCount() != 0 {
		t.Fatalf("Native connection closed while still referenced")
	}
	if err := b.CloseDatabase("shared.db"); err != nil {
		t.Fatalf("Final CloseDatabase failed: %v", err)
	}
	if eng.closeCount() != 1 {
		t.Fatalf("Expected native close at refcount zero, closes=%d", eng.closeCount())
	}

	if err := b.CloseDatabase("shared.db"); err == nil {
		t.Error("Expected error closing an identifier that is no longer open")
	}
}

func TestOpenDatabaseFailureRegistersNothing(t *testing.T) {
	eng := newFakeEngine()
	eng.openErr = errors.New("disk I/O error")
	b := New(eng)

	err := b.OpenDatabase("broken.db")
	if err == nil {
		t.Fatal("Expected open failure")
	}
	if err.Code != core.CodeConnectionFailure {
		t.Errorf("Expected ConnectionFailure, got %v", err.Code)
	}
	if b.conns.lookup("broken.db") != nil {
		t.Error("Failed open left a registry entry behind")
	}
}

func TestFinalizeBurnsHandle(t *testing.T) {
	b, _ := setupTestBridge(t)
	h := prepareTest(t, b, "SELECT id, name FROM users")

	if err := b.Finalize(h); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if err := b.Execute(h); err == nil || err.Code != core.CodeInvalidHandle {
		t.Errorf("Expected InvalidHandle after finalize, got %v", err)
	}

	// The next handle is strictly larger; the old value never comes back.
	h2 := prepareTest(t, b, "SELECT id, name FROM users")
	if h2 <= h {
		t.Errorf("Handle %d allocated at or below finalized handle %d", h2, h)
	}
}

func TestShutdownReleasesEverything(t *testing.T) {
	b, eng := setupTestBridge(t)
	b.OpenDatabase("a.db")
	b.OpenDatabase("b.db")
	prepareTest(t, b, "SELECT id, name FROM users")
	prepareTest(t, b, "SELECT id, name FROM users")

	b.Shutdown()

	if eng.closeCount() != 3 {
		t.Errorf("Expected 3 native closes (a.db, b.db, :memory:), got %d", eng.closeCount())
	}
	if len(b.stmts) != 0 {
		t.Errorf("Statement table not empty after shutdown: %d entries", len(b.stmts))
	}
}

func TestConcurrentCallersOnDistinctHandles(t *testing.T) {
	b, _ := setupTestBridge(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := prepareTest(t, b, "SELECT ? FROM foo")
			if err := b.BindInt(h, 7); err != nil {
				t.Errorf("BindInt failed: %v", err)
				return
			}
			if err := b.Execute(h); err != nil {
				t.Errorf("Execute failed: %v", err)
				return
			}
			hasRow, err := b.ResultRow(h)
			if err != nil || !hasRow {
				t.Errorf("Expected a row, hasRow=%v err=%v", hasRow, err)
				return
			}
			if n, err := b.ColumnInt(h, 0); err != nil || n != 7 {
				t.Errorf("Expected 7, got %d (%v)", n, err)
			}
			if err := b.Finalize(h); err != nil {
				t.Errorf("Finalize failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
