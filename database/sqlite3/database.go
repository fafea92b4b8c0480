// Package sqlite3 opens SQLite database files for the apply path.
package sqlite3

import (
	"database/sql"

	"github.com/sqldef/ddlgen/database"
	_ "modernc.org/sqlite"
)

type Sqlite3Database struct {
	config database.Config
	db     *sql.DB
}

// NewDatabase opens the file named by config.DbName, or an in-memory
// database for ":memory:". Foreign key enforcement is switched on.
func NewDatabase(config database.Config) (database.Database, error) {
	db, err := sql.Open("sqlite", config.DbName)
	if err != nil {
		return nil, err
	}
	// Every pooled connection of ":memory:" would be a separate database,
	// and table rebuilds rely on one connection seeing its temporary tables.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	return &Sqlite3Database{db: db, config: config}, nil
}

// TableNames lists the user tables, for checking an applied schema.
func (d *Sqlite3Database) TableNames() ([]string, error) {
	rows, err := d.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (d *Sqlite3Database) DB() *sql.DB {
	return d.db
}

func (d *Sqlite3Database) Close() error {
	return d.db.Close()
}
