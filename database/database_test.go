package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDatabase struct {
	db *sql.DB
}

func (m mockDatabase) DB() *sql.DB  { return m.db }
func (m mockDatabase) Close() error { return m.db.Close() }

func newMock(t *testing.T) (Database, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mockDatabase{db: db}, mock
}

func TestRunDDLs(t *testing.T) {
	d, mock := newMock(t)
	ddls := []string{
		"CREATE TABLE users (id INT NOT NULL)",
		"ALTER TABLE users ADD name VARCHAR(255) NOT NULL",
	}
	mock.ExpectBegin()
	for _, ddl := range ddls {
		mock.ExpectExec(ddl).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	var out bytes.Buffer
	err := RunDDLs(context.Background(), d, ddls, RunOptions{Logger: WriterLogger{W: &out}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "-- Apply --\nCREATE TABLE users (id INT NOT NULL);\nALTER TABLE users ADD name VARCHAR(255) NOT NULL;\n", out.String())
}

func TestRunDDLsSkipDrop(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("ALTER TABLE users DROP COLUMN name").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var out bytes.Buffer
	err := RunDDLs(context.Background(), d, []string{
		"DROP TABLE posts",
		"ALTER TABLE users DROP COLUMN name",
	}, RunOptions{SkipDrop: true, Logger: WriterLogger{W: &out}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, out.String(), "-- Skipped: DROP TABLE posts;\n")
}

func TestRunDDLsBeforeApply(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("SET lock_timeout = '1s'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE users (id INT NOT NULL)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := RunDDLs(context.Background(), d, []string{"CREATE TABLE users (id INT NOT NULL)"}, RunOptions{BeforeApply: "SET lock_timeout = '1s'"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunDDLsRollsBackOnError(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE users (id INT NOT NULL)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE users (id INT NOT NULL)").WillReturnError(errors.New("table exists"))
	mock.ExpectRollback()

	err := RunDDLs(context.Background(), d, []string{
		"CREATE TABLE users (id INT NOT NULL)",
		"CREATE TABLE users (id INT NOT NULL)",
		"CREATE TABLE posts (id INT NOT NULL)",
	}, RunOptions{})
	require.Error(t, err)
	assert.Equal(t, "CREATE TABLE users (id INT NOT NULL): table exists", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunDDLsBeginError(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := RunDDLs(context.Background(), d, []string{"CREATE TABLE users (id INT NOT NULL)"}, RunOptions{})
	assert.EqualError(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunDDLsOnDryRunDatabase(t *testing.T) {
	d := NewDryRunDatabase()
	defer d.Close()

	ddls := []string{
		"CREATE TABLE users (id INT NOT NULL)",
		"CREATE INDEX CONCURRENTLY idx_users_id ON users (id)",
	}
	require.NoError(t, RunDDLs(context.Background(), d, ddls, RunOptions{}))
	assert.Equal(t, ddls, d.Statements())
}

func TestShowDDLs(t *testing.T) {
	var out bytes.Buffer
	ShowDDLs(WriterLogger{W: &out}, []string{"DROP SEQUENCE s", "CREATE TABLE t (id INT NOT NULL)"}, RunOptions{SkipDrop: true, BeforeApply: "SET x = 1"})
	assert.Equal(t, "-- dry run --\nSET x = 1\n-- Skipped: DROP SEQUENCE s;\nCREATE TABLE t (id INT NOT NULL);\n", out.String())
}

func TestIsDropStatement(t *testing.T) {
	tests := []struct {
		ddl      string
		expected bool
	}{
		{ddl: "DROP TABLE users", expected: true},
		{ddl: "drop table users", expected: true},
		{ddl: "  DROP SEQUENCE s", expected: true},
		{ddl: "DROP SCHEMA shop", expected: true},
		{ddl: "DROP INDEX idx", expected: false},
		{ddl: "ALTER TABLE users DROP COLUMN name", expected: false},
		{ddl: "ALTER TABLE users DROP CONSTRAINT fk", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.ddl, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDropStatement(tt.ddl))
		})
	}
}

func TestTransactionSupported(t *testing.T) {
	assert.True(t, TransactionSupported("CREATE INDEX idx ON users (id)"))
	assert.False(t, TransactionSupported("CREATE INDEX concurrently idx ON users (id)"))
}

func TestParseGeneratorConfigString(t *testing.T) {
	config, err := ParseGeneratorConfigString(`
target_tables: |
  users
  posts
  Users
skip_tables: |
  schema_migrations
enable_drop: true
mysql_version: "5.7.44"
type_mappings:
  citext: text
concurrency: 4
`)
	require.NoError(t, err)
	assert.Equal(t, GeneratorConfig{
		TargetTables: []string{"users", "posts"},
		SkipTables:   []string{"schema_migrations"},
		EnableDrop:   true,
		MySQLVersion: "5.7.44",
		TypeMappings: map[string]string{"citext": "text"},
		Concurrency:  4,
	}, config)
}

func TestParseGeneratorConfigStringRejectsUnknownKeys(t *testing.T) {
	_, err := ParseGeneratorConfigString("target_table: users\n")
	assert.Error(t, err)
}

func TestParseGeneratorConfig(t *testing.T) {
	config, err := ParseGeneratorConfig("")
	require.NoError(t, err)
	assert.Equal(t, GeneratorConfig{}, config)

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("enable_drop: true\n"), 0o644))
	config, err = ParseGeneratorConfig(path)
	require.NoError(t, err)
	assert.True(t, config.EnableDrop)

	_, err = ParseGeneratorConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestMergeGeneratorConfigs(t *testing.T) {
	merged := MergeGeneratorConfigs([]GeneratorConfig{
		{TargetTables: []string{"users"}, MySQLVersion: "8.0", TypeMappings: map[string]string{"citext": "text"}},
		{SkipTables: []string{"logs"}, EnableDrop: true, TypeMappings: map[string]string{"ltree": "string"}},
		{TargetTables: []string{"posts"}, Concurrency: -1},
	})
	assert.Equal(t, GeneratorConfig{
		TargetTables: []string{"posts"},
		SkipTables:   []string{"logs"},
		EnableDrop:   true,
		MySQLVersion: "8.0",
		TypeMappings: map[string]string{"citext": "text", "ltree": "string"},
		Concurrency:  -1,
	}, merged)
}
