// Package driver enables a sqlgate bridge to be used with the Go
// database/sql package.
//
//	import _ "github.com/sqlgate/sqlgate/driver"
//
//	db, err := sql.Open("sqlgate", ":memory:")
//
// The DSN is a bridge connection identifier: a filename or the
// ":memory:" sentinel. All connections opened through the driver share
// one process-wide bridge, so statements prepared on the same
// identifier see the same data.
package driver

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sqlgate/sqlgate/bridge"
	"github.com/sqlgate/sqlgate/core"
	"github.com/sqlgate/sqlgate/engine"
)

func init() {
	sql.Register("sqlgate", &bridgeDriver{})
}

type bridgeDriver struct {
	once   sync.Once
	bridge *bridge.Bridge
}

// Open implements driver.Driver. Name is a bridge connection
// identifier.
func (d *bridgeDriver) Open(name string) (driver.Conn, error) {
	d.once.Do(func() {
		if d.bridge == nil {
			d.bridge = bridge.New(engine.NewDuckDB())
		}
	})
	if err := d.bridge.OpenDatabase(name); err != nil {
		return nil, err
	}
	return &bridgeConn{bridge: d.bridge, name: name}, nil
}

type bridgeConn struct {
	bridge *bridge.Bridge
	name   string
}

// Prepare implements driver.Conn. The statement handle is allocated
// eagerly so syntax errors surface here, matching driver expectations.
func (c *bridgeConn) Prepare(query string) (driver.Stmt, error) {
	handle, err := c.bridge.Prepare(c.name, query)
	if err != nil {
		return nil, err
	}
	return &bridgeStmt{
		bridge: c.bridge,
		name:   c.name,
		query:  query,
		handle: handle,
	}, nil
}

// Begin implements driver.Conn. The bridge protocol has no
// transaction operations.
func (c *bridgeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("sqlgate: transactions are not supported")
}

// Close implements driver.Conn.
func (c *bridgeConn) Close() error {
	return asGoError(c.bridge.CloseDatabase(c.name))
}

type bridgeStmt struct {
	bridge *bridge.Bridge
	name   string
	query  string

	// handle is the next unexecuted statement handle, or 0 once it has
	// been consumed. Bridge statements are single-shot, so every
	// Exec/Query after the first prepares a fresh handle.
	handle int64
}

// take returns a prepared, unexecuted handle for one execution.
func (s *bridgeStmt) take() (int64, error) {
	if s.handle != 0 {
		h := s.handle
		s.handle = 0
		return h, nil
	}
	h, err := s.bridge.Prepare(s.name, s.query)
	if err != nil {
		return 0, err
	}
	return h, nil
}

func (s *bridgeStmt) bindArgs(handle int64, args []driver.Value) error {
	for i, arg := range args {
		if err := s.bridge.BindValueAt(handle, i+1, core.FromNative(arg)); err != nil {
			return err
		}
	}
	return nil
}

// run executes one handle and promotes any statement-scoped SQL error
// to a call error, which is what database/sql callers expect.
func (s *bridgeStmt) run(handle int64) error {
	if err := s.bridge.Execute(handle); err != nil {
		return err
	}
	hasErr, message, err := s.bridge.ResultErr(handle)
	if err != nil {
		return err
	}
	if hasErr {
		return fmt.Errorf("sqlgate: %s", message)
	}
	return nil
}

// NumInput implements driver.Stmt. The bridge does not expose
// parameter counts, so binding is validated at execute time.
func (s *bridgeStmt) NumInput() int {
	return -1
}

// Exec implements driver.Stmt.
func (s *bridgeStmt) Exec(args []driver.Value) (driver.Result, error) {
	handle, err := s.take()
	if err != nil {
		return nil, err
	}
	defer s.bridge.Finalize(handle)

	if err := s.bindArgs(handle, args); err != nil {
		return nil, err
	}
	if err := s.run(handle); err != nil {
		return nil, err
	}
	return bridgeResult{}, nil
}

// Query implements driver.Stmt. The returned rows own the handle and
// finalize it on Close.
func (s *bridgeStmt) Query(args []driver.Value) (driver.Rows, error) {
	handle, err := s.take()
	if err != nil {
		return nil, err
	}

	if err := s.bindArgs(handle, args); err != nil {
		s.bridge.Finalize(handle)
		return nil, err
	}
	if err := s.run(handle); err != nil {
		s.bridge.Finalize(handle)
		return nil, err
	}

	count, cerr := s.bridge.ColumnCount(handle)
	if cerr != nil {
		s.bridge.Finalize(handle)
		return nil, cerr
	}
	cols := make([]string, count)
	for i := range cols {
		name, nerr := s.bridge.ColumnName(handle, i)
		if nerr != nil {
			s.bridge.Finalize(handle)
			return nil, nerr
		}
		cols[i] = name
	}

	return &bridgeRows{bridge: s.bridge, handle: handle, cols: cols}, nil
}

// Close implements driver.Stmt.
func (s *bridgeStmt) Close() error {
	if s.handle == 0 {
		return nil
	}
	h := s.handle
	s.handle = 0
	return asGoError(s.bridge.Finalize(h))
}

type bridgeResult struct{}

// LastInsertId implements driver.Result. The bridge protocol does not
// carry insert IDs.
func (bridgeResult) LastInsertId() (int64, error) {
	return 0, nil
}

// RowsAffected implements driver.Result. The bridge protocol does not
// carry affected-row counts.
func (bridgeResult) RowsAffected() (int64, error) {
	return 0, nil
}

type bridgeRows struct {
	bridge *bridge.Bridge
	handle int64
	cols   []string
}

// Columns implements driver.Rows.
func (r *bridgeRows) Columns() []string {
	return r.cols
}

// Next implements driver.Rows.
func (r *bridgeRows) Next(dest []driver.Value) error {
	hasRow, err := r.bridge.ResultRow(r.handle)
	if err != nil {
		return err
	}
	if !hasRow {
		if hasErr, message, _ := r.bridge.ResultErr(r.handle); hasErr {
			return fmt.Errorf("sqlgate: %s", message)
		}
		return io.EOF
	}
	for i := range dest {
		v, verr := r.bridge.ColumnValue(r.handle, i)
		if verr != nil {
			return verr
		}
		dest[i] = v.Native()
	}
	return nil
}

// Close implements driver.Rows.
func (r *bridgeRows) Close() error {
	return asGoError(r.bridge.Finalize(r.handle))
}

// asGoError narrows *core.Error to a plain error without the typed-nil
// trap.
func asGoError(err *core.Error) error {
	if err == nil {
		return nil
	}
	return err
}
