package all

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqldef/ddlgen/platform/mysql"
	"github.com/sqldef/ddlgen/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{name: "mysql", expected: "mysql"},
		{name: "MariaDB", expected: "mariadb"},
		{name: "postgres", expected: "postgres"},
		{name: "postgresql", expected: "postgres"},
		{name: "psql", expected: "postgres"},
		{name: "sqlite3", expected: "sqlite3"},
		{name: "sqlite", expected: "sqlite3"},
		{name: "mssql", expected: "mssql"},
		{name: "sqlserver", expected: "mssql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.Name())
			assert.True(t, IsKnown(tt.name))
		})
	}
}

func TestNewUnknownDialect(t *testing.T) {
	_, err := New("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dialect "oracle"`)
	assert.Contains(t, err.Error(), "mariadb, mssql, mysql, postgres, sqlite3")
	assert.False(t, IsKnown("oracle"))
}

func TestNewReturnsIndependentValues(t *testing.T) {
	a, err := New("postgres", WithTypeMappings(map[string]string{"citext": "text"}))
	require.NoError(t, err)
	b, err := New("postgres")
	require.NoError(t, err)

	actual, err := a.TypeMapping("citext")
	require.NoError(t, err)
	assert.Equal(t, types.Text, actual)

	_, err = b.TypeMapping("citext")
	assert.True(t, types.IsMappingError(err))
}

func TestNewWithUnknownLogicalType(t *testing.T) {
	_, err := New("mssql", WithTypeMappings(map[string]string{"hierarchyid": "tree"}))
	require.Error(t, err)
	assert.True(t, types.IsMappingError(err))
}

func TestNewWithVersion(t *testing.T) {
	p, err := New("mysql", WithVersion("5.6.51"))
	require.NoError(t, err)
	assert.Equal(t, "5.6.51", p.(*mysql.Platform).Version())

	p, err = New("mariadb")
	require.NoError(t, err)
	assert.Equal(t, mysql.DefaultMariaDBVersion, p.(*mysql.Platform).Version())
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"mariadb", "mssql", "mysql", "postgres", "sqlite3"}, Names())
}
