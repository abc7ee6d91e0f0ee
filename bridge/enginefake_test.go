package bridge

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sqlgate/sqlgate/core"
	"github.com/sqlgate/sqlgate/engine"
)

// fakeEngine scripts statement results by SQL text so bridge behavior
// can be tested without a real database.
type fakeEngine struct {
	mu      sync.Mutex
	opens   int
	closes  int
	openErr error
	scripts map[string]fakeScript
}

// fakeScript describes how a prepared statement should behave.
type fakeScript struct {
	prepareErr error
	execErr    error
	stepErr    error
	cols       []string
	rows       [][]core.Value

	// echoParams makes the result a single row holding the bound
	// parameters, mimicking SELECT ? projections.
	echoParams bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{scripts: make(map[string]fakeScript)}
}

func (e *fakeEngine) script(sql string, s fakeScript) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripts[sql] = s
}

func (e *fakeEngine) openCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opens
}

func (e *fakeEngine) closeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closes
}

func (e *fakeEngine) Open(identifier string, memory bool) (engine.Conn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.openErr != nil {
		return nil, e.openErr
	}
	e.opens++
	return &fakeConn{engine: e, identifier: identifier}, nil
}

type fakeConn struct {
	engine     *fakeEngine
	identifier string
}

func (c *fakeConn) Prepare(sql string) (engine.Stmt, error) {
	c.engine.mu.Lock()
	script, ok := c.engine.scripts[sql]
	c.engine.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no script for %q", sql)
	}
	if script.prepareErr != nil {
		return nil, script.prepareErr
	}
	return &fakeStmt{script: script}, nil
}

func (c *fakeConn) Close() error {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	c.engine.closes++
	return nil
}

type fakeStmt struct {
	script  fakeScript
	params  []core.Value
	rows    [][]core.Value
	cols    []string
	current []core.Value
	next    int
	closed  bool
}

func (s *fakeStmt) Bind(index int, value core.Value) error {
	for len(s.params) < index {
		s.params = append(s.params, core.NullValue())
	}
	s.params[index-1] = value
	return nil
}

func (s *fakeStmt) Execute() error {
	if s.script.execErr != nil {
		return s.script.execErr
	}
	s.cols = s.script.cols
	s.rows = s.script.rows
	if s.script.echoParams {
		s.cols = make([]string, len(s.params))
		for i := range s.params {
			s.cols[i] = fmt.Sprintf("?%d", i+1)
		}
		s.rows = [][]core.Value{append([]core.Value(nil), s.params...)}
	}
	s.next = 0
	s.current = nil
	return nil
}

func (s *fakeStmt) Step() (bool, error) {
	if s.script.stepErr != nil {
		return false, s.script.stepErr
	}
	if s.next >= len(s.rows) {
		s.current = nil
		return false, nil
	}
	s.current = s.rows[s.next]
	s.next++
	return true, nil
}

func (s *fakeStmt) ColumnCount() int {
	return len(s.cols)
}

func (s *fakeStmt) ColumnName(index int) string {
	return s.cols[index]
}

func (s *fakeStmt) ColumnType(index int) core.TypeTag {
	return s.current[index].Tag
}

func (s *fakeStmt) ColumnValue(index int) core.Value {
	return s.current[index]
}

func (s *fakeStmt) Close() error {
	if s.closed {
		return errors.New("statement closed twice")
	}
	s.closed = true
	return nil
}
