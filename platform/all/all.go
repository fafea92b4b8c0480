// Package all selects a platform by dialect name.
package all

import (
	"fmt"
	"strings"

	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/platform/mssql"
	"github.com/sqldef/ddlgen/platform/mysql"
	"github.com/sqldef/ddlgen/platform/postgres"
	"github.com/sqldef/ddlgen/platform/sqlite"
	"github.com/sqldef/ddlgen/util"
)

type config struct {
	version      string
	typeMappings map[string]string
}

type Option func(*config)

// WithVersion sets the server version. Only MySQL and MariaDB use it.
func WithVersion(version string) Option {
	return func(c *config) { c.version = version }
}

// WithTypeMappings registers native type names onto logical type names.
func WithTypeMappings(mappings map[string]string) Option {
	return func(c *config) { c.typeMappings = mappings }
}

var constructors = map[string]func(c *config) platform.Platform{
	"mysql": func(c *config) platform.Platform {
		return mysql.New(mysql.WithVersion(c.version))
	},
	"mariadb": func(c *config) platform.Platform {
		return mysql.New(mysql.MariaDB(), mysql.WithVersion(c.version))
	},
	"postgres": func(*config) platform.Platform { return postgres.New() },
	"sqlite3":  func(*config) platform.Platform { return sqlite.New() },
	"mssql":    func(*config) platform.Platform { return mssql.New() },
}

var aliases = map[string]string{
	"postgresql": "postgres",
	"psql":       "postgres",
	"sqlite":     "sqlite3",
	"sqlserver":  "mssql",
}

// Names returns the canonical dialect names New accepts, sorted.
func Names() []string {
	var names []string
	for name := range util.CanonicalMapIter(constructors) {
		names = append(names, name)
	}
	return names
}

// New returns a fresh platform for the dialect name, case-insensitively.
func New(name string, opts ...Option) (platform.Platform, error) {
	var c config
	for _, opt := range opts {
		opt(&c)
	}

	constructor, ok := constructors[canonicalName(name)]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (expected one of %s)", name, strings.Join(Names(), ", "))
	}

	p := constructor(&c)
	for dbType, logicalType := range util.CanonicalMapIter(c.typeMappings) {
		if err := p.RegisterTypeMapping(dbType, logicalType); err != nil {
			return nil, fmt.Errorf("type mapping %s: %w", dbType, err)
		}
	}
	return p, nil
}

// IsKnown reports whether New accepts name.
func IsKnown(name string) bool {
	_, ok := constructors[canonicalName(name)]
	return ok
}

func canonicalName(name string) string {
	key := strings.ToLower(name)
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	return key
}
