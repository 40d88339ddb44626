package slots

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// statement ожидаемый запрос и ответ на него
// Для QueryContext заполняются columns/rows, для ExecContext - result
type statement struct {
	query   string
	args    []driver.Value
	columns []string
	rows    [][]driver.Value
	result  driver.Result
	err     error
}

// scriptedDB драйвер database/sql, отвечающий на запросы строго по сценарию
type scriptedDB struct {
	t *testing.T

	mu        sync.Mutex
	script    []statement
	txOptions []driver.TxOptions
	commits   int
	rollbacks int
}

func newScriptedDB(t *testing.T, script ...statement) (*scriptedDB, *sql.DB) {
	t.Helper()

	s := &scriptedDB{t: t, script: script}
	db := sql.OpenDB(s)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return s, db
}

func (s *scriptedDB) Connect(context.Context) (driver.Conn, error) {
	return &scriptedConn{db: s}, nil
}

func (s *scriptedDB) Driver() driver.Driver {
	return scriptedDriver{}
}

// assertDone проверяет, что сценарий выполнен полностью
func (s *scriptedDB) assertDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(s.t, s.script, "not all scripted statements were executed")
}

func (s *scriptedDB) next(query string, args []driver.NamedValue) (statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.script) == 0 {
		s.t.Errorf("unexpected statement: %s", query)
		return statement{}, fmt.Errorf("unexpected statement: %s", query)
	}

	expected := s.script[0]
	s.script = s.script[1:]

	values := make([]driver.Value, 0, len(args))
	for _, arg := range args {
		values = append(values, arg.Value)
	}

	assert.Equal(s.t, expected.query, query)
	assert.Equal(s.t, expected.args, values)

	return expected, nil
}

type scriptedDriver struct{}

func (scriptedDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("scripted driver is opened through sql.OpenDB only")
}

type scriptedConn struct {
	db *scriptedDB
}

func (c *scriptedConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not supported")
}

func (c *scriptedConn) Close() error {
	return nil
}

func (c *scriptedConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *scriptedConn) BeginTx(_ context.Context, opts driver.TxOptions) (driver.Tx, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	c.db.txOptions = append(c.db.txOptions, opts)
	return &scriptedTx{db: c.db}, nil
}

func (c *scriptedConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	expected, err := c.db.next(query, args)
	if err != nil {
		return nil, err
	}
	if expected.err != nil {
		return nil, expected.err
	}
	return &scriptedRows{columns: expected.columns, rows: expected.rows}, nil
}

func (c *scriptedConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	expected, err := c.db.next(query, args)
	if err != nil {
		return nil, err
	}
	if expected.err != nil {
		return nil, expected.err
	}
	if expected.result == nil {
		return driver.RowsAffected(1), nil
	}
	return expected.result, nil
}

type scriptedTx struct {
	db *scriptedDB
}

func (tx *scriptedTx) Commit() error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	tx.db.commits++
	return nil
}

func (tx *scriptedTx) Rollback() error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	tx.db.rollbacks++
	return nil
}

type scriptedRows struct {
	columns []string
	rows    [][]driver.Value
	pos     int
}

func (r *scriptedRows) Columns() []string {
	return r.columns
}

func (r *scriptedRows) Close() error {
	return nil
}

func (r *scriptedRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}
