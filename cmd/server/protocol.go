// Package main provides a TCP protocol server for the sqlgate bridge.
package main

import (
	"encoding/json"
)

// Request is one bridge operation from the client. Op selects the
// operation; the other fields carry its inputs.
type Request struct {
	Op       string `json:"op"`
	Database string `json:"database,omitempty"`
	SQL      string `json:"sql,omitempty"`
	Handle   int64  `json:"handle,omitempty"`
	Int      int64  `json:"int,omitempty"`
	Text     string `json:"text,omitempty"`
	Index    int    `json:"index,omitempty"`
}

// Operation names accepted in Request.Op.
const (
	OpOpen      = "open"
	OpClose     = "close"
	OpPrepare   = "prepare"
	OpBindInt   = "bind_int"
	OpBindText  = "bind_text"
	OpExecute   = "execute"
	OpResultErr = "result_err"
	OpResultRow = "result_row"
	OpColCount  = "col_count"
	OpColName   = "col_name"
	OpColType   = "col_type"
	OpColInt    = "col_int"
	OpColText   = "col_text"
	OpFinalize  = "finalize"
)

// Response is the server's reply to a request. Code carries the
// protocol error code (0 on success); statement-scoped SQL errors
// travel inside a result_err result instead.
type Response struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// PrepareResult carries the handle allocated by a prepare operation.
type PrepareResult struct {
	Handle int64 `json:"handle"`
}

// RowResult carries the has-row flag from a result_row operation.
type RowResult struct {
	HasRow bool `json:"has_row"`
}

// StatementErrorResult carries a statement's stored SQL-level error.
type StatementErrorResult struct {
	HasError bool   `json:"has_error"`
	Message  string `json:"message,omitempty"`
}

// CountResult carries a column count.
type CountResult struct {
	Count int `json:"count"`
}

// NameResult carries a column name.
type NameResult struct {
	Name string `json:"name"`
}

// TypeResult carries a column type tag.
type TypeResult struct {
	Type int `json:"type"`
}

// IntResult carries an integer column value.
type IntResult struct {
	Value int64 `json:"value"`
}

// TextResult carries a string column value.
type TextResult struct {
	Value string `json:"value"`
}

// AuthResponse carries the outcome of an AUTH command.
type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Subject       string `json:"subject,omitempty"`
	ExpiresIn     int    `json:"expires_in,omitempty"`
}

// EncodeResponse serializes a Response to JSON with a newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeRequest parses a JSON request from a byte slice.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	err := json.Unmarshal(data, &req)
	return req, err
}

// okResponse wraps a result payload in a success envelope.
func okResponse(typ string, result any) Response {
	data, err := json.Marshal(result)
	if err != nil {
		return Response{Success: false, Error: err.Error()}
	}
	return Response{Success: true, Type: typ, Result: data}
}
