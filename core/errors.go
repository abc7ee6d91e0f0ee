package core

import "fmt"

// Code is a protocol error code. The taxonomy is closed: 0 is the only
// success value and the non-zero codes below are the only failures a
// caller can observe.
type Code int

const (
	OK                    Code = 0
	CodeInvalidHandle     Code = 1
	CodeInvalidState      Code = 2
	CodeIndexOutOfRange   Code = 3
	CodeTypeMismatch      Code = 4
	CodeConnectionFailure Code = 5
	CodeSQLError          Code = 6
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case CodeInvalidHandle:
		return "InvalidHandle"
	case CodeInvalidState:
		return "InvalidState"
	case CodeIndexOutOfRange:
		return "IndexOutOfRange"
	case CodeTypeMismatch:
		return "TypeMismatch"
	case CodeConnectionFailure:
		return "ConnectionFailure"
	case CodeSQLError:
		return "SqlError"
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error is the (code, message) pair attached to failing protocol
// operations. A nil *Error means success.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds an Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Flatten splits an Error into the parallel (code, message) outputs
// used by boundary surfaces. A nil error flattens to (0, "").
func (e *Error) Flatten() (int, string) {
	if e == nil {
		return int(OK), ""
	}
	return int(e.Code), e.Message
}
