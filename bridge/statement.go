package bridge

import (
	"fmt"
	"sync"

	"github.com/sqlgate/sqlgate/core"
	"github.com/sqlgate/sqlgate/engine"
)

// cursorState tracks where a statement is in its lifecycle. Binding is
// only valid in statePrepared; executing transitions out of it; column
// reads are only valid in stateHasRow.
type cursorState int

const (
	statePrepared cursorState = iota
	stateExecuted
	stateHasRow
	stateExhausted
	stateErrored
)

func (s cursorState) String() string {
	switch s {
	case statePrepared:
		return "prepared"
	case stateExecuted:
		return "executed"
	case stateHasRow:
		return "has-row"
	case stateExhausted:
		return "exhausted"
	case stateErrored:
		return "errored"
	}
	return fmt.Sprintf("cursorState(%d)", int(s))
}

// statement is one entry in the statement table.
type statement struct {
	mu      sync.Mutex
	handle  int64
	conn    *connection
	sqlText string
	native  engine.Stmt

	// Bound parameter values by 1-based position. The boundary
	// protocol binds sequentially; the driver binds by position.
	params []core.Value

	state   cursorState
	lastErr *core.Error
}

// bindAt records the parameter at the 1-based position and forwards it
// to the native statement. Rebinding a position overwrites.
// Caller holds s.mu.
func (s *statement) bindAt(index int, value core.Value) *core.Error {
	if s.state != statePrepared {
		return core.Errorf(core.CodeInvalidState, "cannot bind in %s state", s.state)
	}
	for len(s.params) < index {
		s.params = append(s.params, core.NullValue())
	}
	s.params[index-1] = value
	if err := s.native.Bind(index, value); err != nil {
		return core.Errorf(core.CodeConnectionFailure, "bind failed: %v", err)
	}
	return nil
}

// setSQLError records an engine-level failure on the statement's
// last-error channel and moves the cursor to the errored state.
// Caller holds s.mu.
func (s *statement) setSQLError(err error) {
	s.lastErr = core.Errorf(core.CodeSQLError, "%v", err)
	s.state = stateErrored
}
