package engine

import (
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/sqlgate/sqlgate/core"
)

// DuckDB is the production Engine backed by DuckDB through
// database/sql.
type DuckDB struct{}

func NewDuckDB() *DuckDB {
	return &DuckDB{}
}

// Open implements Engine. An empty DSN gives DuckDB a private
// in-memory database, which is how memory identifiers are mapped.
func (*DuckDB) Open(identifier string, memory bool) (Conn, error) {
	dsn := identifier
	if memory {
		dsn = ""
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb database %q: %w", identifier, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to duckdb database %q: %w", identifier, err)
	}
	return &duckConn{db: db}, nil
}

type duckConn struct {
	db *sql.DB
}

func (c *duckConn) Prepare(query string) (Stmt, error) {
	stmt, err := c.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &duckStmt{stmt: stmt}, nil
}

func (c *duckConn) Close() error {
	return c.db.Close()
}

type duckStmt struct {
	stmt    *sql.Stmt
	args    []any
	rows    *sql.Rows
	cols    []string
	current []core.Value
}

func (s *duckStmt) Bind(index int, value core.Value) error {
	if index < 1 {
		return fmt.Errorf("bind index %d is not positive", index)
	}
	for len(s.args) < index {
		s.args = append(s.args, nil)
	}
	s.args[index-1] = value.Native()
	return nil
}

func (s *duckStmt) Execute() error {
	// database/sql serves both row-returning and row-less statements
	// through Query; DDL and DML simply yield an empty result set.
	rows, err := s.stmt.Query(s.args...)
	if err != nil {
		return err
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return err
	}
	if s.rows != nil {
		s.rows.Close()
	}
	s.rows = rows
	s.cols = cols
	s.current = nil
	return nil
}

func (s *duckStmt) Step() (bool, error) {
	if s.rows == nil {
		return false, fmt.Errorf("statement has not been executed")
	}
	if !s.rows.Next() {
		s.current = nil
		return false, s.rows.Err()
	}
	raw := make([]any, len(s.cols))
	ptrs := make([]any, len(s.cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return false, err
	}
	s.current = make([]core.Value, len(raw))
	for i, v := range raw {
		s.current[i] = core.FromNative(v)
	}
	return true, nil
}

func (s *duckStmt) ColumnCount() int {
	return len(s.cols)
}

func (s *duckStmt) ColumnName(index int) string {
	return s.cols[index]
}

func (s *duckStmt) ColumnType(index int) core.TypeTag {
	return s.current[index].Tag
}

func (s *duckStmt) ColumnValue(index int) core.Value {
	return s.current[index]
}

func (s *duckStmt) Close() error {
	if s.rows != nil {
		s.rows.Close()
		s.rows = nil
	}
	return s.stmt.Close()
}
