//go:build !windows

package mysql

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqldef/ddlgen/database"
	"github.com/sqldef/ddlgen/testutil"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name   string
		config database.Config
		net    string
		addr   string
	}{
		{
			name:   "tcp",
			config: database.Config{DbName: "app", User: "root", Password: "p@ss:word", Host: "127.0.0.1", Port: 3306},
			net:    "tcp",
			addr:   "127.0.0.1:3306",
		},
		{
			name:   "socket",
			config: database.Config{DbName: "app", User: "root", Socket: "/tmp/mysql.sock", Host: "ignored", Port: 3306},
			net:    "unix",
			addr:   "/tmp/mysql.sock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := driver.ParseDSN(mysqlBuildDSN(tt.config))
			require.NoError(t, err)
			assert.Equal(t, tt.net, parsed.Net)
			assert.Equal(t, tt.addr, parsed.Addr)
			assert.Equal(t, tt.config.User, parsed.User)
			assert.Equal(t, tt.config.Password, parsed.Passwd)
			assert.Equal(t, tt.config.DbName, parsed.DBName)
		})
	}
}

func TestBuildDSNCleartext(t *testing.T) {
	parsed, err := driver.ParseDSN(mysqlBuildDSN(database.Config{User: "root", Host: "db", Port: 3306, MySQLEnableCleartextPlugin: true}))
	require.NoError(t, err)
	assert.True(t, parsed.AllowCleartextPasswords)
}

func TestRegisterTLSConfigRejectsInvalidPEM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o644))

	_, err := NewDatabase(database.Config{SslMode: "custom", SslCa: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to append PEM")
}

func TestUnixSocketConnection(t *testing.T) {
	sock := testutil.ListenUnixSocket(t, "mysql.sock")

	db, err := NewDatabase(database.Config{DbName: "testdb", User: "testuser", Password: "testpass", Socket: sock.Path})
	require.NoError(t, err)
	defer db.Close()

	err = db.DB().Ping()
	require.Error(t, err, "expected a protocol error from the dummy socket")
	assert.False(t, strings.Contains(err.Error(), "connection refused"), "socket was not used: %v", err)
}
