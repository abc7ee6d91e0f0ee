// C bindings for the sqlgate bridge. Build with:
//
//	go build -buildmode=c-shared -o libsqlgate.so ./bindings
//
// Every function flattens the bridge protocol to C primitives: handles
// are 64-bit integers, errors are (code, message) out-parameters, and
// strings returned to the caller must be released with sqlgate_free.
package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"sync"
	"unsafe"

	"github.com/sqlgate/sqlgate"
	"github.com/sqlgate/sqlgate/bridge"
	"github.com/sqlgate/sqlgate/core"
)

// The process-wide bridge behind the C surface, initialized on first
// use and torn down by sqlgate_shutdown.
var (
	mu       sync.Mutex
	instance *sqlgate.Instance
)

func bridgeRef() *bridge.Bridge {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = sqlgate.OpenDefault()
	}
	return instance.Bridge()
}

// setErr flattens a protocol error into the (code, message)
// out-parameters. A nil message pointer skips the message.
func setErr(err *core.Error, errCode *C.int, errMsg **C.char) {
	code, message := err.Flatten()
	if errCode != nil {
		*errCode = C.int(code)
	}
	if errMsg != nil {
		if message == "" {
			*errMsg = nil
		} else {
			*errMsg = C.CString(message)
		}
	}
}

//export sqlgate_new_db
func sqlgate_new_db(identifier *C.char) C.int {
	err := bridgeRef().OpenDatabase(C.GoString(identifier))
	code, _ := err.Flatten()
	return C.int(code)
}

//export sqlgate_close_db
func sqlgate_close_db(identifier *C.char) C.int {
	err := bridgeRef().CloseDatabase(C.GoString(identifier))
	code, _ := err.Flatten()
	return C.int(code)
}

//export sqlgate_prepare
func sqlgate_prepare(identifier, sql *C.char, errCode *C.int, errMsg **C.char) C.longlong {
	handle, err := bridgeRef().Prepare(C.GoString(identifier), C.GoString(sql))
	setErr(err, errCode, errMsg)
	return C.longlong(handle)
}

//export sqlgate_bind_int
func sqlgate_bind_int(handle C.longlong, value C.longlong) C.int {
	err := bridgeRef().BindInt(int64(handle), int64(value))
	code, _ := err.Flatten()
	return C.int(code)
}

//export sqlgate_bind_string
func sqlgate_bind_string(handle C.longlong, value *C.char) C.int {
	err := bridgeRef().BindText(int64(handle), C.GoString(value))
	code, _ := err.Flatten()
	return C.int(code)
}

//export sqlgate_execute
func sqlgate_execute(handle C.longlong) C.int {
	err := bridgeRef().Execute(int64(handle))
	code, _ := err.Flatten()
	return C.int(code)
}

//export sqlgate_result_err
func sqlgate_result_err(handle C.longlong, errMsg **C.char) C.int {
	hasErr, message, err := bridgeRef().ResultErr(int64(handle))
	if err != nil {
		setErr(err, nil, errMsg)
		return C.int(-1)
	}
	if !hasErr {
		if errMsg != nil {
			*errMsg = nil
		}
		return 0
	}
	if errMsg != nil {
		*errMsg = C.CString(message)
	}
	return 1
}

//export sqlgate_result_row
func sqlgate_result_row(handle C.longlong, errCode *C.int) C.int {
	hasRow, err := bridgeRef().ResultRow(int64(handle))
	setErr(err, errCode, nil)
	if hasRow {
		return 1
	}
	return 0
}

//export sqlgate_result_col_count
func sqlgate_result_col_count(handle C.longlong, errCode *C.int) C.int {
	count, err := bridgeRef().ColumnCount(int64(handle))
	setErr(err, errCode, nil)
	return C.int(count)
}

//export sqlgate_result_col_name
func sqlgate_result_col_name(handle C.longlong, index C.int, errCode *C.int) *C.char {
	name, err := bridgeRef().ColumnName(int64(handle), int(index))
	setErr(err, errCode, nil)
	if err != nil {
		return nil
	}
	return C.CString(name)
}

//export sqlgate_result_col_type
func sqlgate_result_col_type(handle C.longlong, index C.int, errCode *C.int) C.int {
	tag, err := bridgeRef().ColumnType(int64(handle), int(index))
	setErr(err, errCode, nil)
	return C.int(tag)
}

//export sqlgate_result_col_int
func sqlgate_result_col_int(handle C.longlong, index C.int, errCode *C.int) C.longlong {
	value, err := bridgeRef().ColumnInt(int64(handle), int(index))
	setErr(err, errCode, nil)
	return C.longlong(value)
}

//export sqlgate_result_col_string
func sqlgate_result_col_string(handle C.longlong, index C.int, errCode *C.int) *C.char {
	value, err := bridgeRef().ColumnText(int64(handle), int(index))
	setErr(err, errCode, nil)
	if err != nil {
		return nil
	}
	return C.CString(value)
}

//export sqlgate_finalize
func sqlgate_finalize(handle C.longlong) C.int {
	err := bridgeRef().Finalize(int64(handle))
	code, _ := err.Flatten()
	return C.int(code)
}

//export sqlgate_shutdown
func sqlgate_shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		instance.Close()
		instance = nil
	}
}

//export sqlgate_free
func sqlgate_free(ptr *C.char) {
	C.free(unsafe.Pointer(ptr))
}

func main() {}
