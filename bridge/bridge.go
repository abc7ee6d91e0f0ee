package bridge

import (
	"sync"

	"github.com/sqlgate/sqlgate/core"
	"github.com/sqlgate/sqlgate/engine"
)

// InvalidHandle is the caller-visible sentinel returned when Prepare
// fails. No live statement ever has this handle.
const InvalidHandle int64 = 0

// Bridge owns the two pieces of process-wide state behind the
// protocol: the connection registry and the statement table. All
// mutation of either is mutex-guarded, so concurrent callers on
// different handles and identifiers are safe.
type Bridge struct {
	conns *registry

	mu         sync.Mutex
	nextHandle int64
	stmts      map[int64]*statement
}

// New creates a bridge over the given backing engine.
func New(e engine.Engine) *Bridge {
	return &Bridge{
		conns: newRegistry(e),
		stmts: make(map[int64]*statement),
	}
}

// OpenDatabase opens the database named by identifier, or bumps the
// reference count if it is already open.
func (b *Bridge) OpenDatabase(identifier string) *core.Error {
	_, err := b.conns.acquire(identifier)
	return err
}

// CloseDatabase drops one reference to the database named by
// identifier, closing the native connection at zero.
func (b *Bridge) CloseDatabase(identifier string) *core.Error {
	return b.conns.release(identifier)
}

// Prepare compiles sqlText against the database named by identifier
// and returns a new statement handle. The connection is opened on
// first use if the caller skipped OpenDatabase. On failure the handle
// is InvalidHandle and no table entry is allocated.
func (b *Bridge) Prepare(identifier, sqlText string) (int64, *core.Error) {
	conn := b.conns.lookup(identifier)
	if conn == nil {
		var err *core.Error
		conn, err = b.conns.acquire(identifier)
		if err != nil {
			return InvalidHandle, err
		}
	}

	native, err := conn.native.Prepare(sqlText)
	if err != nil {
		return InvalidHandle, core.Errorf(core.CodeSQLError, "prepare failed: %v", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextHandle++
	st := &statement{
		handle:  b.nextHandle,
		conn:    conn,
		sqlText: sqlText,
		native:  native,
		state:   statePrepared,
	}
	b.stmts[st.handle] = st
	return st.handle, nil
}

// statement looks up a handle in the statement table.
func (b *Bridge) statement(handle int64) (*statement, *core.Error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.stmts[handle]
	if !ok {
		return nil, core.Errorf(core.CodeInvalidHandle, "unknown statement handle %d", handle)
	}
	return st, nil
}

// BindValue appends the value as the statement's next positional
// parameter. The boundary operations BindInt and BindText and the
// database/sql driver all funnel through here.
func (b *Bridge) BindValue(handle int64, value core.Value) *core.Error {
	st, err := b.statement(handle)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.bindAt(len(st.params)+1, value)
}

// BindValueAt binds the parameter at an explicit 1-based position.
func (b *Bridge) BindValueAt(handle int64, index int, value core.Value) *core.Error {
	st, err := b.statement(handle)
	if err != nil {
		return err
	}
	if index < 1 {
		return core.Errorf(core.CodeIndexOutOfRange, "bind position %d is not positive", index)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.bindAt(index, value)
}

// BindInt binds value as the next positional parameter, tagged
// INTEGER.
func (b *Bridge) BindInt(handle int64, value int64) *core.Error {
	return b.BindValue(handle, core.IntValue(value))
}

// BindText binds value as the next positional parameter, tagged TEXT.
func (b *Bridge) BindText(handle int64, value string) *core.Error {
	return b.BindValue(handle, core.TextValue(value))
}

// Execute runs the prepared statement with its bound parameters. An
// engine-level failure is not this call's error: it is captured on the
// statement's last-error channel and read back with ResultErr. The
// returned error only reports protocol faults such as a bad handle or
// a statement that is not in the prepared state.
func (b *Bridge) Execute(handle int64) *core.Error {
	st, err := b.statement(handle)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.state != statePrepared {
		return core.Errorf(core.CodeInvalidState, "cannot execute in %s state", st.state)
	}

	st.conn.mu.Lock()
	execErr := st.native.Execute()
	st.conn.mu.Unlock()

	if execErr != nil {
		st.setSQLError(execErr)
		return nil
	}
	st.state = stateExecuted
	st.lastErr = nil
	return nil
}

// ResultErr reports the statement's stored SQL-level error without
// mutating any state. hasErr is false and message empty when the last
// execution succeeded.
func (b *Bridge) ResultErr(handle int64) (hasErr bool, message string, err *core.Error) {
	st, err := b.statement(handle)
	if err != nil {
		return false, "", err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.lastErr == nil {
		return false, "", nil
	}
	return true, st.lastErr.Message, nil
}

// ResultRow advances the cursor by one row. Once the result set is
// exhausted further calls keep returning hasRow false without error.
// A step failure in the engine is routed to the statement's last-error
// channel like an execute failure.
func (b *Bridge) ResultRow(handle int64) (hasRow bool, err *core.Error) {
	st, err := b.statement(handle)
	if err != nil {
		return false, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	switch st.state {
	case stateExecuted, stateHasRow:
	case stateExhausted:
		return false, nil
	default:
		return false, core.Errorf(core.CodeInvalidState, "cannot read rows in %s state", st.state)
	}

	st.conn.mu.Lock()
	ok, stepErr := st.native.Step()
	st.conn.mu.Unlock()

	if stepErr != nil {
		st.setSQLError(stepErr)
		return false, nil
	}
	if !ok {
		st.state = stateExhausted
		return false, nil
	}
	st.state = stateHasRow
	return true, nil
}

// ColumnCount returns the number of columns in the result set. Valid
// any time after a successful execute.
func (b *Bridge) ColumnCount(handle int64) (int, *core.Error) {
	st, err := b.statement(handle)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := st.requireExecuted(); err != nil {
		return 0, err
	}
	return st.native.ColumnCount(), nil
}

// ColumnName returns the name of the column at the 0-based index.
func (b *Bridge) ColumnName(handle int64, index int) (string, *core.Error) {
	st, err := b.statement(handle)
	if err != nil {
		return "", err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := st.requireExecuted(); err != nil {
		return "", err
	}
	if err := st.checkIndex(index); err != nil {
		return "", err
	}
	return st.native.ColumnName(index), nil
}

// ColumnType returns the type tag of the column's value in the current
// row. When the column derives from a bound parameter the tag reflects
// the parameter's runtime type.
func (b *Bridge) ColumnType(handle int64, index int) (core.TypeTag, *core.Error) {
	v, err := b.ColumnValue(handle, index)
	if err != nil {
		return 0, err
	}
	return v.Tag, nil
}

// ColumnInt reads the column at the 0-based index as an integer,
// applying the lossless coercion policy of core.Value.AsInt.
func (b *Bridge) ColumnInt(handle int64, index int) (int64, *core.Error) {
	v, err := b.ColumnValue(handle, index)
	if err != nil {
		return 0, err
	}
	return v.AsInt()
}

// ColumnText reads the column at the 0-based index rendered as text.
func (b *Bridge) ColumnText(handle int64, index int) (string, *core.Error) {
	v, err := b.ColumnValue(handle, index)
	if err != nil {
		return "", err
	}
	return v.AsText(), nil
}

// ColumnValue returns the tagged value of the column at the 0-based
// index in the current row. The value is a copy; it stays valid after
// the cursor advances.
func (b *Bridge) ColumnValue(handle int64, index int) (core.Value, *core.Error) {
	st, err := b.statement(handle)
	if err != nil {
		return core.NullValue(), err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.state != stateHasRow {
		return core.NullValue(), core.Errorf(core.CodeInvalidState, "no current row in %s state", st.state)
	}
	if err := st.checkIndex(index); err != nil {
		return core.NullValue(), err
	}
	return st.native.ColumnValue(index), nil
}

// Finalize destroys the statement and removes it from the table. The
// handle value stays burned: it is never allocated again, so later use
// of it reliably fails with InvalidHandle.
func (b *Bridge) Finalize(handle int64) *core.Error {
	b.mu.Lock()
	st, ok := b.stmts[handle]
	if ok {
		delete(b.stmts, handle)
	}
	b.mu.Unlock()
	if !ok {
		return core.Errorf(core.CodeInvalidHandle, "unknown statement handle %d", handle)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.native.Close()
	return nil
}

// Shutdown finalizes every statement and closes every connection. The
// bridge must not be used afterwards.
func (b *Bridge) Shutdown() {
	b.mu.Lock()
	for handle, st := range b.stmts {
		st.native.Close()
		delete(b.stmts, handle)
	}
	b.mu.Unlock()
	b.conns.shutdown()
}

// requireExecuted gates the metadata accessors, which are meaningful
// in any post-execute state that still has a result set.
// Caller holds s.mu.
func (s *statement) requireExecuted() *core.Error {
	switch s.state {
	case stateExecuted, stateHasRow, stateExhausted:
		return nil
	}
	return core.Errorf(core.CodeInvalidState, "no result set in %s state", s.state)
}

// checkIndex bounds-checks a 0-based column index.
// Caller holds s.mu.
func (s *statement) checkIndex(index int) *core.Error {
	if index < 0 || index >= s.native.ColumnCount() {
		return core.Errorf(core.CodeIndexOutOfRange,
			"column index %d out of range for %d column(s)", index, s.native.ColumnCount())
	}
	return nil
}
