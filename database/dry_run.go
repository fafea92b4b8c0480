package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"slices"
	"sync"
)

// DryRunDatabase accepts every statement without executing it and records
// what it was given.
type DryRunDatabase struct {
	db       *sql.DB
	recorder *dryRunRecorder
}

func NewDryRunDatabase() *DryRunDatabase {
	recorder := &dryRunRecorder{}
	return &DryRunDatabase{
		db:       sql.OpenDB(&dryRunConnector{recorder: recorder}),
		recorder: recorder,
	}
}

func (d *DryRunDatabase) DB() *sql.DB {
	return d.db
}

func (d *DryRunDatabase) Close() error {
	return d.db.Close()
}

// Statements returns the statements executed so far, in order.
func (d *DryRunDatabase) Statements() []string {
	d.recorder.mu.Lock()
	defer d.recorder.mu.Unlock()
	return slices.Clone(d.recorder.statements)
}

type dryRunRecorder struct {
	mu         sync.Mutex
	statements []string
}

func (r *dryRunRecorder) record(query string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = append(r.statements, query)
}

type dryRunConnector struct {
	recorder *dryRunRecorder
}

func (c *dryRunConnector) Connect(context.Context) (driver.Conn, error) {
	return &dryRunConn{recorder: c.recorder}, nil
}

func (c *dryRunConnector) Driver() driver.Driver {
	return &dryRunDriver{recorder: c.recorder}
}

type dryRunDriver struct {
	recorder *dryRunRecorder
}

func (d *dryRunDriver) Open(name string) (driver.Conn, error) {
	return &dryRunConn{recorder: d.recorder}, nil
}

type dryRunConn struct {
	recorder *dryRunRecorder
}

func (c *dryRunConn) Prepare(query string) (driver.Stmt, error) {
	return &dryRunStmt{query: query, recorder: c.recorder}, nil
}

func (c *dryRunConn) Close() error {
	return nil
}

func (c *dryRunConn) Begin() (driver.Tx, error) {
	return &dryRunTx{}, nil
}

type dryRunTx struct{}

func (tx *dryRunTx) Commit() error {
	return nil
}

func (tx *dryRunTx) Rollback() error {
	return nil
}

type dryRunStmt struct {
	query    string
	recorder *dryRunRecorder
}

func (s *dryRunStmt) Close() error {
	return nil
}

func (s *dryRunStmt) NumInput() int {
	return -1
}

func (s *dryRunStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.recorder.record(s.query)
	return driver.RowsAffected(0), nil
}

func (s *dryRunStmt) Query(args []driver.Value) (driver.Rows, error) {
	return &dryRunRows{}, nil
}

type dryRunRows struct{}

func (r *dryRunRows) Columns() []string {
	return []string{}
}

func (r *dryRunRows) Close() error {
	return nil
}

func (r *dryRunRows) Next(dest []driver.Value) error {
	return io.EOF
}
