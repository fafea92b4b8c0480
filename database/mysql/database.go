// Package mysql opens MySQL and MariaDB connections for the apply path.
package mysql

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	driver "github.com/go-sql-driver/mysql"

	"github.com/sqldef/ddlgen/database"
)

type MysqlDatabase struct {
	config database.Config
	db     *sql.DB
}

func NewDatabase(config database.Config) (database.Database, error) {
	if config.SslMode == "custom" {
		if err := registerTLSConfig(config.SslCa); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("mysql", mysqlBuildDSN(config))
	if err != nil {
		return nil, err
	}
	return &MysqlDatabase{db: db, config: config}, nil
}

// ServerVersion queries the version string of the server, e.g.
// "8.0.36" or "10.11.6-MariaDB".
func (d *MysqlDatabase) ServerVersion() (string, error) {
	var version string
	if err := d.db.QueryRow("SELECT VERSION()").Scan(&version); err != nil {
		return "", err
	}
	slog.Debug("MySQL server version", "version", version)
	return version, nil
}

func (d *MysqlDatabase) DB() *sql.DB {
	return d.db
}

func (d *MysqlDatabase) Close() error {
	return d.db.Close()
}

func mysqlBuildDSN(config database.Config) string {
	c := driver.NewConfig()
	c.User = config.User
	c.Passwd = config.Password
	c.DBName = config.DbName
	c.AllowCleartextPasswords = config.MySQLEnableCleartextPlugin
	c.TLSConfig = config.SslMode
	if config.Socket == "" {
		c.Net = "tcp"
		c.Addr = fmt.Sprintf("%s:%d", config.Host, config.Port)
	} else {
		c.Net = "unix"
		c.Addr = config.Socket
	}
	return c.FormatDSN()
}

func registerTLSConfig(pemPath string) error {
	rootCertPool := x509.NewCertPool()
	pem, err := os.ReadFile(pemPath)
	if err != nil {
		return err
	}
	if ok := rootCertPool.AppendCertsFromPEM(pem); !ok {
		return fmt.Errorf("failed to append PEM from %s", pemPath)
	}
	return driver.RegisterTLSConfig("custom", &tls.Config{RootCAs: rootCertPool})
}
