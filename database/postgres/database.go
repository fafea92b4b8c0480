// Package postgres opens PostgreSQL connections for the apply path.
package postgres

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"

	_ "github.com/lib/pq"

	"github.com/sqldef/ddlgen/database"
)

type PostgresDatabase struct {
	config database.Config
	db     *sql.DB
}

func NewDatabase(config database.Config) (database.Database, error) {
	db, err := sql.Open("postgres", postgresBuildDSN(config))
	if err != nil {
		return nil, err
	}
	return &PostgresDatabase{db: db, config: config}, nil
}

// DefaultSchema queries the schema unqualified names resolve to.
func (d *PostgresDatabase) DefaultSchema() (string, error) {
	var schema string
	if err := d.db.QueryRow("SELECT current_schema()").Scan(&schema); err != nil {
		return "", err
	}
	return schema, nil
}

func (d *PostgresDatabase) DB() *sql.DB {
	return d.db
}

func (d *PostgresDatabase) Close() error {
	return d.db.Close()
}

// sslEnv maps the libpq environment variables lib/pq does not read from a
// URL on its own to their connection parameters.
var sslEnv = []struct{ env, param string }{
	{"PGSSLROOTCERT", "sslrootcert"},
	{"PGSSLCERT", "sslcert"},
	{"PGSSLKEY", "sslkey"},
}

func postgresBuildDSN(config database.Config) string {
	host := ""
	var options []string

	if config.Socket == "" {
		host = fmt.Sprintf("%s:%d", config.Host, config.Port)
	} else {
		// postgres://user:@%2Fvar%2Frun%2Fpostgresql/dbname is rejected by the
		// URL parser, so the socket directory goes into the host parameter.
		options = append(options, "host="+config.Socket)
		if config.Port != 0 {
			options = append(options, fmt.Sprintf("port=%d", config.Port))
		}
	}

	if config.SslMode != "" {
		options = append(options, "sslmode="+config.SslMode)
	} else if sslmode := os.Getenv("PGSSLMODE"); sslmode != "" {
		options = append(options, "sslmode="+sslmode)
	}
	for _, e := range sslEnv {
		if value := os.Getenv(e.env); value != "" {
			options = append(options, e.param+"="+value)
		}
	}

	// QueryEscape rather than PathEscape so that a colon in the password is escaped.
	return fmt.Sprintf("postgres://%s:%s@%s/%s?%s",
		url.QueryEscape(config.User), url.QueryEscape(config.Password), host, config.DbName, strings.Join(options, "&"))
}
