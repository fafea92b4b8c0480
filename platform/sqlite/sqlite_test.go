package sqlite

import (
	"database/sql"
	"strings"
	"testing"

	rsql "github.com/rqlite/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/sqldef/ddlgen/keywords"
	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/schema"
	"github.com/sqldef/ddlgen/testutil"
	"github.com/sqldef/ddlgen/types"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection of :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func execAll(t *testing.T, db *sql.DB, ddls []string) {
	t.Helper()
	for _, ddl := range ddls {
		_, err := db.Exec(ddl)
		require.NoError(t, err, ddl)
	}
}

func migrate(t *testing.T, p *Platform, from, to *schema.Schema) []string {
	t.Helper()
	diff, err := schema.CompareSchemas(from, to)
	require.NoError(t, err)
	ddls, err := platform.SchemaDiffSQL(p, diff)
	require.NoError(t, err)
	return ddls
}

func TestApply(t *testing.T) {
	tests, err := testutil.ReadTests("testdata/*.yml")
	require.NoError(t, err)

	p := New()
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ddls := testutil.RunTest(t, p, test, "")
			if test.Error != nil {
				return
			}

			// The generated statements must run on a database holding the current schema.
			current, err := schema.ParseYAML([]byte(test.Current))
			require.NoError(t, err)
			db := openDB(t)
			execAll(t, db, migrate(t, p, schema.NewSchema(), current))
			execAll(t, db, ddls)
		})
	}
}

func mustTable(t *testing.T, name string, columns ...*schema.Column) *schema.Table {
	t.Helper()
	table, err := schema.NewTable(name, columns...)
	require.NoError(t, err)
	return table
}

func TestCreateTableSQL(t *testing.T) {
	table := mustTable(t, "test",
		schema.NewColumn("id", types.Integer, schema.AutoIncrement()),
		schema.NewColumn("test", types.String, schema.WithLength(255), schema.Nullable()),
	)
	require.NoError(t, table.SetPrimaryKey([]string{"id"}))

	sql, err := New().CreateTableSQL(table, platform.CreateAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE test (id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL, test VARCHAR(255) DEFAULT NULL)"}, sql)
}

func TestCreateTableSQLWithComments(t *testing.T) {
	table := mustTable(t, "users",
		schema.NewColumn("id", types.Integer, schema.WithComment("row\nidentifier")),
	)
	table.Options.Comment = "registered users"

	sql, err := New().CreateTableSQL(table, platform.CreateAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE users --registered users\n (id INTEGER NOT NULL --row\n--identifier\n)"}, sql)

	execAll(t, openDB(t), sql)
}

func TestCreateTableSQLWithoutForeignKeys(t *testing.T) {
	users := mustTable(t, "posts",
		schema.NewColumn("id", types.Integer),
		schema.NewColumn("user_id", types.Integer),
	)
	fk, err := schema.NewForeignKey("fk_user", []string{"user_id"}, "users", []string{"id"})
	require.NoError(t, err)
	require.NoError(t, users.AddForeignKey(fk))

	sql, err := New().CreateTableSQL(users, platform.CreateIndexes)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE posts (id INTEGER NOT NULL, user_id INTEGER NOT NULL)"}, sql)
}

func TestReservedKeywordsAreQuoted(t *testing.T) {
	p := New()
	for _, word := range keywords.SQLite.Words() {
		table := mustTable(t, "t", schema.NewColumn(word, types.Integer))
		sql, err := p.CreateTableSQL(table, platform.CreateAll)
		require.NoError(t, err)
		assert.Equal(t, `CREATE TABLE t ("`+word+`" INTEGER NOT NULL)`, sql[0])
	}
}

func TestQuoteIdentifier(t *testing.T) {
	p := New()
	tests := []struct {
		input    string
		expected string
	}{
		{input: `"`, expected: `""""`},
		{input: "users", expected: `"users"`},
		{input: "main.users", expected: `"main"."users"`},
		{input: `a"b`, expected: `"a""b"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.QuoteIdentifier(tt.input))
		})
	}
}

func TestModifyLimitQuery(t *testing.T) {
	const query = "SELECT * FROM users"
	tests := []struct {
		name     string
		limit    int
		offset   int
		expected string
	}{
		{name: "no limit", limit: platform.NoLimit, offset: 0, expected: query},
		{name: "limit", limit: 10, offset: 0, expected: query + " LIMIT 10"},
		{name: "offset only", limit: platform.NoLimit, offset: 20, expected: query + " LIMIT -1 OFFSET 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := New().ModifyLimitQuery(query, tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}

	_, err := New().ModifyLimitQuery(query, -5, 0)
	assert.Error(t, err)
}

func TestAlterTableSQLRenameAndChangeColumn(t *testing.T) {
	diff := schema.NewTableDiff("mytable", schema.WithChangedColumns(
		schema.NewColumnDiff("foo",
			schema.NewColumn("baz", types.String, schema.WithLength(255), schema.WithDefault("bla")),
			[]string{schema.PropertyType, schema.PropertyLength, schema.PropertyDefault},
			schema.NewColumn("foo", types.Integer),
		),
	))

	sql, err := New().AlterTableSQL(diff)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ALTER TABLE mytable DROP COLUMN foo",
		"ALTER TABLE mytable ADD COLUMN baz VARCHAR(255) DEFAULT 'bla' NOT NULL",
	}, sql)
}

func TestAlterTableSQLRenameIndex(t *testing.T) {
	idx, err := schema.NewIndex("idx_bar", []string{"id"})
	require.NoError(t, err)
	diff := schema.NewTableDiff("mytable", schema.WithRenamedIndex("idx_foo", idx))

	sql, err := New().AlterTableSQL(diff)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"DROP INDEX idx_foo",
		"CREATE INDEX idx_bar ON mytable (id)",
	}, sql)
}

func TestAlterTableSQLRenameTable(t *testing.T) {
	diff := schema.NewTableDiff("users",
		schema.WithNewName("people"),
		schema.WithAddedColumns(schema.NewColumn("age", types.Integer, schema.Nullable())),
	)

	sql, err := New().AlterTableSQL(diff)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ALTER TABLE users ADD COLUMN age INTEGER DEFAULT NULL",
		"ALTER TABLE users RENAME TO people",
	}, sql)
}

func TestAlterTableSQLRebuildRequiresCurrentTable(t *testing.T) {
	diff := schema.NewTableDiff("users", schema.WithChangedColumns(
		schema.NewColumnDiff("age",
			schema.NewColumn("age", types.BigInt),
			[]string{schema.PropertyType},
			schema.NewColumn("age", types.Integer),
		),
	))

	_, err := New().AlterTableSQL(diff)
	assert.True(t, schema.IsDefinitionError(err))
}

// A rebuild keeps the rows, including the values of renamed columns.
func TestRebuildPreservesRows(t *testing.T) {
	p := New()
	current, err := schema.ParseYAML([]byte(`
tables:
  - name: users
    columns:
      - {name: id, type: integer, autoincrement: true}
      - {name: name, type: string, length: 64}
      - {name: age, type: integer}
    primary_key: [id]
    indexes:
      - {name: idx_name, columns: [name]}
`))
	require.NoError(t, err)
	desired, err := schema.ParseYAML([]byte(`
tables:
  - name: users
    columns:
      - {name: id, type: integer, autoincrement: true}
      - {name: name, type: string, length: 128}
      - {name: age, type: bigint, nullable: true}
    primary_key: [id]
    indexes:
      - {name: idx_name, columns: [name]}
`))
	require.NoError(t, err)

	db := openDB(t)
	execAll(t, db, migrate(t, p, schema.NewSchema(), current))
	execAll(t, db, []string{
		"INSERT INTO users (name, age) VALUES ('alice', 30)",
		"INSERT INTO users (name, age) VALUES ('bob', 40)",
	})

	ddls := migrate(t, p, current, desired)
	assert.Contains(t, ddls, "CREATE TEMPORARY TABLE __temp__users AS SELECT id, name, age FROM users")
	execAll(t, db, ddls)

	rows, err := db.Query("SELECT id, name, age FROM users ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()
	type user struct {
		id   int
		name string
		age  int
	}
	var users []user
	for rows.Next() {
		var u user
		require.NoError(t, rows.Scan(&u.id, &u.name, &u.age))
		users = append(users, u)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []user{{1, "alice", 30}, {2, "bob", 40}}, users)

	columnTypes := map[string]string{}
	info, err := db.Query("PRAGMA table_info(users)")
	require.NoError(t, err)
	defer info.Close()
	for info.Next() {
		var cid, notNull, pk int
		var name, typ string
		var dflt sql.NullString
		require.NoError(t, info.Scan(&cid, &name, &typ, &notNull, &dflt, &pk))
		columnTypes[name] = typ
	}
	require.NoError(t, info.Err())
	assert.Equal(t, map[string]string{"id": "INTEGER", "name": "VARCHAR(128)", "age": "BIGINT"}, columnTypes)

	var indexCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_name'").Scan(&indexCount))
	assert.Equal(t, 1, indexCount)
}

func TestGeneratedSQLParses(t *testing.T) {
	p := New()
	table := mustTable(t, "users",
		schema.NewColumn("id", types.Integer, schema.AutoIncrement()),
		schema.NewColumn("email", types.String, schema.WithLength(255)),
		schema.NewColumn("nickname", types.String, schema.Nullable()),
	)
	require.NoError(t, table.SetPrimaryKey([]string{"id"}))
	idx, err := schema.NewIndex("idx_email", []string{"email"}, schema.UniqueIndex())
	require.NoError(t, err)
	require.NoError(t, table.AddIndex(idx))

	sql, err := p.CreateTableSQL(table, platform.CreateAll)
	require.NoError(t, err)
	require.Len(t, sql, 2)

	stmt, err := rsql.NewParser(strings.NewReader(sql[0])).ParseStatement()
	require.NoError(t, err)
	create, ok := stmt.(*rsql.CreateTableStatement)
	require.True(t, ok, "%T", stmt)
	var names []string
	for _, colDef := range create.Columns {
		names = append(names, colDef.Name.Name)
	}
	assert.Equal(t, []string{"id", "email", "nickname"}, names)

	stmt, err = rsql.NewParser(strings.NewReader(sql[1])).ParseStatement()
	require.NoError(t, err)
	createIndex, ok := stmt.(*rsql.CreateIndexStatement)
	require.True(t, ok, "%T", stmt)
	assert.Equal(t, "users", createIndex.Table.Name)
}

func TestUnsupportedOperations(t *testing.T) {
	p := New()
	fk, err := schema.NewForeignKey("fk_user", []string{"user_id"}, "users", []string{"id"})
	require.NoError(t, err)
	uc, err := schema.NewUniqueConstraint("uc_email", []string{"email"})
	require.NoError(t, err)
	pk, err := schema.NewIndex("primary", []string{"id"}, schema.PrimaryIndex())
	require.NoError(t, err)
	table := schema.NewIdentifier("posts")

	calls := map[string]func() error{
		"create foreign key": func() error { _, err := p.CreateForeignKeySQL(fk, table); return err },
		"drop foreign key":   func() error { _, err := p.DropForeignKeySQL(fk, table); return err },
		"create unique":      func() error { _, err := p.CreateUniqueConstraintSQL(uc, table); return err },
		"drop unique":        func() error { _, err := p.DropUniqueConstraintSQL(uc, table); return err },
		"create primary key": func() error { _, err := p.CreateIndexSQL(pk, table); return err },
		"comment on column":  func() error { _, err := p.CommentOnColumnSQL(table, schema.NewIdentifier("id"), "x"); return err },
		"create sequence":    func() error { _, err := p.CreateSequenceSQL(schema.NewSequence("s")); return err },
		"create schema":      func() error { _, err := p.CreateSchemaSQL("app"); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.True(t, schema.IsUnsupportedOperationError(call()))
		})
	}
}

func TestTypeMapping(t *testing.T) {
	p := New()
	tests := map[string]types.Type{
		"INTEGER":          types.Integer,
		"double precision": types.Float,
		"clob":             types.Text,
		"tinyint":          types.Boolean,
		"varchar":          types.String,
	}
	for native, expected := range tests {
		actual, err := p.TypeMapping(native)
		require.NoError(t, err)
		assert.Equal(t, expected, actual, native)
	}

	require.NoError(t, p.RegisterTypeMapping("geometry", string(types.Blob)))
	actual, err := p.TypeMapping("geometry")
	require.NoError(t, err)
	assert.Equal(t, types.Blob, actual)
}
