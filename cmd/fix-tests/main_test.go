package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqldef/ddlgen/platform/all"
	"github.com/sqldef/ddlgen/testutil"
)

const staleFixture = `CreateUsers:
  desired: |
    tables:
      - name: users
        columns:
          - {name: id, type: integer}
  up: |
    CREATE TABLE users (id INT);
  down: |
    DROP TABLE users;
AlreadyCorrect:
  desired: |
    tables:
      - name: tags
        columns:
          - {name: id, type: integer}
  up: |
    CREATE TABLE tags (id INTEGER NOT NULL);
OtherDialect:
  flavor: mysql
  desired: |
    tables:
      - name: posts
  up: |
    anything;
`

func TestFixFile(t *testing.T) {
	p, err := all.New("sqlite3")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "create_table.yml")
	require.NoError(t, os.WriteFile(file, []byte(staleFixture), 0o644))

	fixed, err := fixFile(file, p, "", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"CreateUsers"}, fixed)

	tests, err := testutil.ReadTests(file)
	require.NoError(t, err)
	require.Contains(t, tests, "CreateUsers")
	assert.Equal(t, "CREATE TABLE users (id INTEGER NOT NULL);\n", *tests["CreateUsers"].Up)
	assert.Equal(t, "DROP TABLE users;\n", *tests["CreateUsers"].Down)
	assert.Equal(t, "anything;\n", *tests["OtherDialect"].Up)

	fixed, err = fixFile(file, p, "", false)
	require.NoError(t, err)
	assert.Empty(t, fixed)
}

func TestFixFileDryRun(t *testing.T) {
	p, err := all.New("sqlite3")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "create_table.yml")
	require.NoError(t, os.WriteFile(file, []byte(staleFixture), 0o644))

	fixed, err := fixFile(file, p, "", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"CreateUsers"}, fixed)

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, staleFixture, string(content))
}

func TestFixCaseRecordsError(t *testing.T) {
	p, err := all.New("mssql")
	require.NoError(t, err)

	up := "CREATE TABLE articles (title NVARCHAR(255) NOT NULL);\n"
	test := TestCase{
		Desired: "tables:\n  - name: articles\n    columns:\n      - {name: title, type: string, length: 255}\n    indexes:\n      - {name: idx_title, columns: [title], lengths: [16]}\n",
		Up:      &up,
	}
	changed, err := fixCase(&test, p)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Nil(t, test.Up)
	require.NotNil(t, test.Error)
	assert.Equal(t, "prefix lengths on index idx_title is not supported by mssql", *test.Error)
}

func TestFixCaseRejectsInvalidSchema(t *testing.T) {
	p, err := all.New("sqlite3")
	require.NoError(t, err)

	test := TestCase{
		Desired: "tables:\n  - name: users\n    columns:\n      - {name: id, type: integer}\n      - {name: id, type: integer}\n",
	}
	_, err = fixCase(&test, p)
	assert.Error(t, err)
}

func TestSkipped(t *testing.T) {
	p, err := all.New("mysql")
	require.NoError(t, err)

	tests := []struct {
		name    string
		test    TestCase
		version string
		skipped bool
	}{
		{name: "no restriction", test: TestCase{}, version: "8.0", skipped: false},
		{name: "other flavor", test: TestCase{Flavor: "mariadb"}, skipped: true},
		{name: "excluded flavor", test: TestCase{Flavor: "!mysql"}, skipped: true},
		{name: "below min version", test: TestCase{MinVersion: "8.0"}, version: "5.7", skipped: true},
		{name: "above max version", test: TestCase{MaxVersion: "5.7"}, version: "8.0", skipped: true},
		{name: "within range", test: TestCase{MinVersion: "5.7", MaxVersion: "8.4"}, version: "8.0", skipped: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.skipped, skipped(tt.test, p, tt.version))
		})
	}
}
