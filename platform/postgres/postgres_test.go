package postgres

import (
	"testing"

	"github.com/lib/pq"
	pg_query "github.com/pganalyze/pg_query_go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqldef/ddlgen/keywords"
	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/schema"
	"github.com/sqldef/ddlgen/testutil"
	"github.com/sqldef/ddlgen/types"
)

func TestApply(t *testing.T) {
	tests, err := testutil.ReadTests("testdata/*.yml")
	require.NoError(t, err)

	p := New()
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			for _, ddl := range testutil.RunTest(t, p, test, "") {
				_, err := pg_query.Parse(ddl)
				assert.NoError(t, err, ddl)
			}
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
	assert.Equal(t, []string{"CREATE TABLE test (id SERIAL NOT NULL, test VARCHAR(255) DEFAULT NULL, PRIMARY KEY(id))"}, sql)
}

func TestReservedKeywordsAreQuoted(t *testing.T) {
	p := New()
	for _, word := range keywords.PostgreSQL.Words() {
		table := mustTable(t, "t", schema.NewColumn(word, types.Integer))
		sql, err := p.CreateTableSQL(table, platform.CreateAll)
		require.NoError(t, err)
		assert.Equal(t, `CREATE TABLE t ("`+word+`" INT NOT NULL)`, sql[0])
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
		{input: "public.users", expected: `"public"."users"`},
		{input: "`users`", expected: `"users"`},
		{input: `a"b`, expected: `"a""b"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.QuoteIdentifier(tt.input))
		})
	}
}

// Single identifiers and literals are quoted the way lib/pq quotes them.
func TestQuotingMatchesDriver(t *testing.T) {
	p := New()
	for _, name := range []string{"users", `we"ird`, "Mixed Case", "select"} {
		assert.Equal(t, pq.QuoteIdentifier(name), p.QuoteSingleIdentifier(name))
	}
	for _, value := range []string{"plain", "it's"} {
		assert.Equal(t, pq.QuoteLiteral(value), p.QuoteStringLiteral(value))
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
		{name: "limit and offset", limit: 10, offset: 20, expected: query + " LIMIT 10 OFFSET 20"},
		{name: "offset only", limit: platform.NoLimit, offset: 20, expected: query + " OFFSET 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := New().ModifyLimitQuery(query, tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
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
		"ALTER TABLE mytable RENAME COLUMN foo TO baz",
		"ALTER TABLE mytable ALTER baz TYPE VARCHAR(255)",
		"ALTER TABLE mytable ALTER baz SET DEFAULT 'bla'",
	}, sql)
}

func TestAlterTableSQLRenameTable(t *testing.T) {
	idx, err := schema.NewIndex("idx_age", []string{"age"})
	require.NoError(t, err)
	diff := schema.NewTableDiff("users",
		schema.WithNewName("people"),
		schema.WithAddedColumns(schema.NewColumn("age", types.Integer)),
		schema.WithAddedIndexes(idx),
	)

	sql, err := New().AlterTableSQL(diff)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ALTER TABLE users ADD age INT NOT NULL",
		"ALTER TABLE users RENAME TO people",
		"CREATE INDEX idx_age ON people (age)",
	}, sql)
}

func TestAlterTableSQLChangeCollation(t *testing.T) {
	diff := schema.NewTableDiff("users", schema.WithChangedColumns(
		schema.NewColumnDiff("name",
			schema.NewColumn("name", types.String, schema.WithLength(64), schema.WithCollation("C")),
			[]string{schema.PropertyCollation},
			schema.NewColumn("name", types.String, schema.WithLength(64), schema.WithCollation("en_US")),
		),
	))

	sql, err := New().AlterTableSQL(diff)
	require.NoError(t, err)
	assert.Equal(t, []string{`ALTER TABLE users ALTER name TYPE VARCHAR(64) COLLATE "C"`}, sql)
}

func TestAlterTableSQLChangeForeignKeyDeferral(t *testing.T) {
	fk, err := schema.NewForeignKey("fk", []string{"x"}, "o", []string{"id"}, schema.Deferrable(true))
	require.NoError(t, err)
	diff := schema.NewTableDiff("t", schema.WithChangedForeignKeys(fk))

	sql, err := New().AlterTableSQL(diff)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ALTER TABLE t DROP CONSTRAINT fk",
		"ALTER TABLE t ADD CONSTRAINT fk FOREIGN KEY (x) REFERENCES o (id) DEFERRABLE INITIALLY DEFERRED",
	}, sql)
}

func TestAlterTableSQLIgnoresUnsigned(t *testing.T) {
	diff := schema.NewTableDiff("t", schema.WithChangedColumns(
		schema.NewColumnDiff("n",
			schema.NewColumn("n", types.Integer, schema.Unsigned()),
			[]string{schema.PropertyUnsigned},
			schema.NewColumn("n", types.Integer),
		),
	))

	sql, err := New().AlterTableSQL(diff)
	require.NoError(t, err)
	assert.Empty(t, sql)
}

func TestCommentOnColumnSQL(t *testing.T) {
	p := New()
	table, column := schema.NewIdentifier("users"), schema.NewIdentifier("select")

	sql, err := p.CommentOnColumnSQL(table, column, "it's")
	require.NoError(t, err)
	assert.Equal(t, `COMMENT ON COLUMN users."select" IS 'it''s'`, sql)

	sql, err = p.CommentOnColumnSQL(table, column, "")
	require.NoError(t, err)
	assert.Equal(t, `COMMENT ON COLUMN users."select" IS NULL`, sql)

	_, err = p.InlineColumnCommentSQL("comment")
	assert.True(t, schema.IsUnsupportedOperationError(err))
}

func TestDefaultValueDeclarationSQL(t *testing.T) {
	p := New()
	tests := []struct {
		name     string
		column   *schema.Column
		expected string
	}{
		{
			name:     "serial column has no default",
			column:   schema.NewColumn("c", types.Integer, schema.AutoIncrement(), schema.WithDefault("1")),
			expected: "",
		},
		{
			name:     "boolean",
			column:   schema.NewColumn("c", types.Boolean, schema.WithDefault("1")),
			expected: " DEFAULT true",
		},
		{
			name:     "current time",
			column:   schema.NewColumn("c", types.Time, schema.WithDefault("CURRENT_TIME")),
			expected: " DEFAULT CURRENT_TIME",
		},
		{
			name:     "current timestamp with time zone",
			column:   schema.NewColumn("c", types.DateTimeTz, schema.WithDefault("CURRENT_TIMESTAMP")),
			expected: " DEFAULT CURRENT_TIMESTAMP",
		},
		{
			name:     "decimal",
			column:   schema.NewColumn("c", types.Decimal, schema.WithDefault("0.5")),
			expected: " DEFAULT 0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.DefaultValueDeclarationSQL(tt.column))
		})
	}
}

func TestSequenceSQL(t *testing.T) {
	p := New()
	seq := schema.NewSequence("public.order_seq")

	create, err := p.CreateSequenceSQL(seq)
	require.NoError(t, err)
	assert.Equal(t, "CREATE SEQUENCE public.order_seq INCREMENT BY 1 MINVALUE 1 START 1", create)

	alter, err := p.AlterSequenceSQL(seq)
	require.NoError(t, err)
	assert.Equal(t, "ALTER SEQUENCE public.order_seq INCREMENT BY 1", alter)

	for _, stmt := range []string{create, alter} {
		_, err := pg_query.Parse(stmt)
		assert.NoError(t, err, stmt)
	}
}

func TestImplicitSequenceNameIsTruncated(t *testing.T) {
	p := New()
	column := schema.NewColumn("identifier_of_the_row", types.Integer)
	seq := p.implicitSequence(schema.NewIdentifier("app.a_table_with_a_rather_long_name_for_testing_purposes"), column)
	assert.Equal(t, "app", seq.Namespace())
	assert.LessOrEqual(t, len(seq.ShortName()), 63)
	assert.Equal(t, "_seq", seq.ShortName()[len(seq.ShortName())-4:])
}

func TestTypeMapping(t *testing.T) {
	p := New()
	tests := map[string]types.Type{
		"int4":        types.Integer,
		"BIGSERIAL":   types.BigInt,
		"timestamptz": types.DateTimeTz,
		"jsonb":       types.JSON,
		"uuid":        types.GUID,
		"bytea":       types.Blob,
	}
	for native, expected := range tests {
		actual, err := p.TypeMapping(native)
		require.NoError(t, err)
		assert.Equal(t, expected, actual, native)
	}

	_, err := p.TypeMapping("tsrange")
	assert.True(t, types.IsMappingError(err))
}
