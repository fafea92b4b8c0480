package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqldef/ddlgen/testutil"
)

var usersSchema = testutil.StripHeredoc(`
	tables:
	  - name: users
	    columns:
	      - {name: id, type: integer}
	    primary_key: [id]
	`)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseOptions(t *testing.T) {
	cli, err := parseOptions([]string{"--dialect=postgresql", "--current=current.yml", "--enable-drop", "--config-inline=concurrency: 4", "desired.yml"})
	require.NoError(t, err)
	assert.Equal(t, "postgresql", cli.Dialect)
	assert.Equal(t, 5432, cli.DB.Port)
	assert.Equal(t, "127.0.0.1", cli.DB.Host)
	assert.Equal(t, "desired.yml", cli.Options.DesiredFile)
	assert.Equal(t, "current.yml", cli.Options.CurrentFile)
	assert.True(t, cli.Options.Config.EnableDrop)
	assert.Equal(t, 4, cli.Options.Config.Concurrency)

	cli, err = parseOptions([]string{"-d", "mssql", "-p", "14330", "desired.yml"})
	require.NoError(t, err)
	assert.Equal(t, 14330, cli.DB.Port)
}

func TestParseOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  string
	}{
		{name: "no dialect", args: []string{"desired.yml"}, err: "--dialect is required (one of mariadb, mssql, mysql, postgres, sqlite3)"},
		{name: "unknown dialect", args: []string{"--dialect=oracle", "desired.yml"}, err: `unknown dialect "oracle" (expected one of mariadb, mssql, mysql, postgres, sqlite3)`},
		{name: "no desired file", args: []string{"--dialect=mysql"}, err: "expected exactly one desired schema file, but got: []"},
		{name: "two desired files", args: []string{"--dialect=mysql", "a.yml", "b.yml"}, err: "expected exactly one desired schema file, but got: [a.yml b.yml]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOptions(tt.args)
			assert.EqualError(t, err, tt.err)
		})
	}

	_, err := parseOptions([]string{"--dialect=mysql", "--config-inline=unknown_key: 1", "desired.yml"})
	assert.Error(t, err)
}

func TestRunPrintsDDL(t *testing.T) {
	desired := writeFile(t, "desired.yml", usersSchema)

	logger := &testutil.StringLogger{}
	require.NoError(t, run(context.Background(), []string{"--dialect=sqlite3", desired}, logger))
	assert.Equal(t, "CREATE TABLE users (id INTEGER NOT NULL, PRIMARY KEY(id));\n", logger.String())

	logger = &testutil.StringLogger{}
	require.NoError(t, run(context.Background(), []string{"--dialect=sqlite3", "--current=" + desired, desired}, logger))
	assert.Equal(t, "-- Nothing is modified --\n", logger.String())
}

func TestRunKeepsTablesWithoutEnableDrop(t *testing.T) {
	current := writeFile(t, "current.yml", usersSchema)
	desired := writeFile(t, "desired.yml", "tables: []\n")

	logger := &testutil.StringLogger{}
	require.NoError(t, run(context.Background(), []string{"--dialect=mysql", "--current=" + current, desired}, logger))
	assert.Equal(t, "-- Nothing is modified --\n", logger.String())

	logger = &testutil.StringLogger{}
	require.NoError(t, run(context.Background(), []string{"--dialect=mysql", "--enable-drop", "--current=" + current, desired}, logger))
	assert.Equal(t, "DROP TABLE users;\n", logger.String())
}

func TestRunAppliesToSqlite(t *testing.T) {
	desired := writeFile(t, "desired.yml", usersSchema)
	dbFile := filepath.Join(t.TempDir(), "app.db")

	logger := &testutil.StringLogger{}
	require.NoError(t, run(context.Background(), []string{"--dialect=sqlite3", "--db=" + dbFile, desired}, logger))
	assert.Equal(t, "-- Apply --\nCREATE TABLE users (id INTEGER NOT NULL, PRIMARY KEY(id));\n", logger.String())

	_, err := os.Stat(dbFile)
	assert.NoError(t, err)
}

func TestRunDryRun(t *testing.T) {
	desired := writeFile(t, "desired.yml", usersSchema)

	logger := &testutil.StringLogger{}
	require.NoError(t, run(context.Background(), []string{"--dialect=mssql", "--db=app", "--dry-run", desired}, logger))
	assert.Equal(t, "-- dry run --\nCREATE TABLE users (id INT NOT NULL, CONSTRAINT PK_1483A5E9 PRIMARY KEY (id));\n", logger.String())
}

func TestRunDebug(t *testing.T) {
	desired := writeFile(t, "desired.yml", usersSchema)

	logger := &testutil.StringLogger{}
	require.NoError(t, run(context.Background(), []string{"--dialect=postgres", "--debug", desired}, logger))
	assert.Equal(t, "CREATE TABLE users (id INT NOT NULL, PRIMARY KEY(id));\n", logger.String())
}
