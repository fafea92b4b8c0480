// Package mysql renders DDL for MySQL and MariaDB.
package mysql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/sqldef/ddlgen/keywords"
	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/schema"
	"github.com/sqldef/ddlgen/types"
)

const (
	DefaultMySQLVersion   = "8.4"
	DefaultMariaDBVersion = "10.11"

	// MySQL requires a LIMIT when an OFFSET is given.
	maxLimit = "18446744073709551615"
)

type Platform struct {
	mapping *types.Mapping
	version string
	mariaDB bool
}

var _ platform.Platform = (*Platform)(nil)

type Option func(*Platform)

// WithVersion sets the server version the output must run on, e.g. "5.7.44".
func WithVersion(version string) Option {
	return func(p *Platform) {
		if version != "" {
			p.version = version
		}
	}
}

// MariaDB targets MariaDB instead of MySQL.
func MariaDB() Option {
	return func(p *Platform) {
		p.mariaDB = true
		if p.version == DefaultMySQLVersion {
			p.version = DefaultMariaDBVersion
		}
	}
}

func New(opts ...Option) *Platform {
	p := &Platform{mapping: types.NewMapping(nativeTypes), version: DefaultMySQLVersion}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var nativeTypes = map[string]types.Type{
	"tinyint":    types.Boolean,
	"smallint":   types.SmallInt,
	"mediumint":  types.Integer,
	"int":        types.Integer,
	"integer":    types.Integer,
	"bigint":     types.BigInt,
	"tinytext":   types.Text,
	"text":       types.Text,
	"mediumtext": types.Text,
	"longtext":   types.Text,
	"char":       types.String,
	"varchar":    types.String,
	"string":     types.String,
	"date":       types.Date,
	"year":       types.Date,
	"datetime":   types.DateTime,
	"timestamp":  types.DateTime,
	"time":       types.Time,
	"float":      types.Float,
	"double":     types.Float,
	"real":       types.Float,
	"decimal":    types.Decimal,
	"numeric":    types.Decimal,
	"tinyblob":   types.Blob,
	"blob":       types.Blob,
	"mediumblob": types.Blob,
	"longblob":   types.Blob,
	"binary":     types.Binary,
	"varbinary":  types.Binary,
	"set":        types.SimpleArray,
	"json":       types.JSON,
}

func (p *Platform) Name() string {
	if p.mariaDB {
		return "mariadb"
	}
	return "mysql"
}

func (p *Platform) Version() string {
	return p.version
}

var versionPrefix = regexp.MustCompile(`^\d+(\.\d+){0,2}`)

// atLeast compares the server version with minimum. MariaDB and MySQL version
// numbers are compared against their own minimum.
func (p *Platform) atLeast(mysql, mariaDB string) bool {
	minimum := mysql
	if p.mariaDB {
		minimum = mariaDB
	}
	current := versionPrefix.FindString(p.version)
	if current == "" {
		return true
	}
	return semver.Compare("v"+current, "v"+minimum) >= 0
}

func (p *Platform) supportsRenameIndex() bool {
	return p.atLeast("5.7", "10.5.2")
}

func (p *Platform) supportsJSON() bool {
	return !p.mariaDB && p.atLeast("5.7.8", "")
}

func (p *Platform) ReservedKeywords() keywords.KeywordList {
	return keywords.MySQL
}

func (p *Platform) IdentifierQuoteCharacter() string {
	return "`"
}

func (p *Platform) QuoteSingleIdentifier(name string) string {
	return platform.QuoteSingleIdentifier(name, "`", "`")
}

func (p *Platform) QuoteIdentifier(name string) string {
	return platform.QuoteIdentifier(p, name)
}

// QuoteStringLiteral also doubles backslashes, which MySQL treats as escapes.
func (p *Platform) QuoteStringLiteral(value string) string {
	return platform.QuoteStringLiteral(strings.ReplaceAll(value, `\`, `\\`), "'")
}

func (p *Platform) EscapeStringForLike(value, escapeChar string) string {
	return platform.EscapeStringForLike(value, escapeChar, platform.LikeWildcards)
}

func (p *Platform) ModifyLimitQuery(query string, limit, offset int) (string, error) {
	return platform.LimitOffsetQuery(query, limit, offset, maxLimit)
}

func (p *Platform) CurrentTimestampSQL() string {
	return "CURRENT_TIMESTAMP"
}

func (p *Platform) CurrentDateSQL() string {
	return "CURRENT_DATE"
}

func (p *Platform) CurrentTimeSQL() string {
	return "CURRENT_TIME"
}

func (p *Platform) BooleanLiteral(value bool) string {
	if value {
		return "1"
	}
	return "0"
}

func (p *Platform) TypeDeclarationSQL(column *schema.Column) (string, error) {
	switch column.Type {
	case types.SmallInt:
		return "SMALLINT" + integerSuffix(column), nil
	case types.Integer:
		return "INT" + integerSuffix(column), nil
	case types.BigInt:
		return "BIGINT" + integerSuffix(column), nil
	case types.Boolean:
		return "TINYINT(1)", nil
	case types.String:
		return p.StringTypeDeclarationSQL(column), nil
	case types.Binary:
		return p.BinaryTypeDeclarationSQL(column), nil
	case types.Text, types.SimpleArray, types.Array, types.Object:
		return sizedType(column, "TEXT"), nil
	case types.Blob:
		return sizedType(column, "BLOB"), nil
	case types.JSON:
		if p.supportsJSON() {
			return "JSON", nil
		}
		return "LONGTEXT", nil
	case types.Date:
		return "DATE", nil
	case types.DateTime, types.DateTimeTz:
		return "DATETIME", nil
	case types.Time:
		return "TIME", nil
	case types.Decimal:
		return p.DecimalTypeDeclarationSQL(column), nil
	case types.Float:
		return p.FloatDeclarationSQL(column), nil
	case types.GUID:
		return "CHAR(36)", nil
	}
	return "", &types.MappingError{Name: string(column.Type)}
}

func integerSuffix(column *schema.Column) string {
	var suffix string
	if column.Unsigned {
		suffix += " UNSIGNED"
	}
	if column.AutoIncrement {
		suffix += " AUTO_INCREMENT"
	}
	return suffix
}

func unsigned(column *schema.Column) string {
	if column.Unsigned {
		return " UNSIGNED"
	}
	return ""
}

// sizedType picks the TINY, plain, MEDIUM or LONG variant of a TEXT or BLOB
// type from the declared length. Without a length the LONG variant is used.
func sizedType(column *schema.Column, base string) string {
	length := platform.Length(column)
	switch {
	case length == 0:
		return "LONG" + base
	case length <= 255:
		return "TINY" + base
	case length <= 65535:
		return base
	case length <= 16777215:
		return "MEDIUM" + base
	}
	return "LONG" + base
}

func (p *Platform) StringTypeDeclarationSQL(column *schema.Column) string {
	length := platform.Length(column)
	if length == 0 {
		length = 255
	}
	if column.Fixed {
		return fmt.Sprintf("CHAR(%d)", length)
	}
	return fmt.Sprintf("VARCHAR(%d)", length)
}

func (p *Platform) BinaryTypeDeclarationSQL(column *schema.Column) string {
	length := platform.Length(column)
	if length == 0 {
		length = 255
	}
	if column.Fixed {
		return fmt.Sprintf("BINARY(%d)", length)
	}
	return fmt.Sprintf("VARBINARY(%d)", length)
}

func (p *Platform) DecimalTypeDeclarationSQL(column *schema.Column) string {
	return platform.DecimalDeclaration(column) + unsigned(column)
}

func (p *Platform) FloatDeclarationSQL(column *schema.Column) string {
	return "DOUBLE PRECISION" + unsigned(column)
}

func (p *Platform) ColumnCharsetDeclarationSQL(charset string) string {
	return "CHARACTER SET " + charset
}

func (p *Platform) ColumnCollationDeclarationSQL(collation string) string {
	return "COLLATE " + p.QuoteSingleIdentifier(collation)
}

func isLob(t types.Type) bool {
	return t.IsClob() || t == types.Blob
}

// DefaultValueDeclarationSQL wraps literal defaults of TEXT and BLOB columns
// in parentheses, the only form MySQL accepts for them.
func (p *Platform) DefaultValueDeclarationSQL(column *schema.Column) string {
	decl := platform.DefaultValueDeclaration(p, column)
	if column.Default != nil && !column.Default.Expression && isLob(column.Type) && !p.mariaDB {
		return " DEFAULT (" + strings.TrimPrefix(decl, " DEFAULT ") + ")"
	}
	return decl
}

func (p *Platform) ColumnDeclarationSQL(name string, column *schema.Column) (string, error) {
	if column.ColumnDefinition == "" && column.Default != nil && !column.Default.Expression && isLob(column.Type) {
		if !p.atLeast("8.0.13", "10.2.1") {
			return "", platform.Unsupported(p, fmt.Sprintf("default value on %s column %s before version 8.0.13", column.Type, column.Name.Name))
		}
	}
	return platform.ColumnDeclaration(p, name, column)
}

func (p *Platform) ForeignKeyReferentialActionSQL(action string) (string, error) {
	return platform.CanonicalReferentialAction(action)
}

func (p *Platform) ForeignKeyDeclarationSQL(fk *schema.ForeignKey) (string, error) {
	if fk.Deferrable || fk.InitiallyDeferred {
		return "", platform.Unsupported(p, "deferrable foreign key "+fk.Name.Name)
	}
	base, err := platform.ForeignKeyBaseDeclaration(p, fk)
	if err != nil {
		return "", err
	}
	actions, err := platform.ReferentialActions(p, fk)
	if err != nil {
		return "", err
	}
	return base + actions, nil
}

func (p *Platform) InlineColumnCommentSQL(comment string) (string, error) {
	return "COMMENT " + p.QuoteStringLiteral(comment), nil
}

func (p *Platform) CommentOnColumnSQL(table, column schema.Identifier, comment string) (string, error) {
	return "", platform.Unsupported(p, "COMMENT ON COLUMN")
}

func (p *Platform) SupportsInlineColumnComments() bool {
	return true
}

func (p *Platform) SupportsCreateDropForeignKeyConstraints() bool {
	return true
}

func (p *Platform) SupportsSequences() bool {
	return false
}

func (p *Platform) SupportsSchemas() bool {
	return false
}

func (p *Platform) CreateSequenceSQL(seq *schema.Sequence) (string, error) {
	return "", platform.Unsupported(p, "CREATE SEQUENCE")
}

func (p *Platform) AlterSequenceSQL(seq *schema.Sequence) (string, error) {
	return "", platform.Unsupported(p, "ALTER SEQUENCE")
}

func (p *Platform) DropSequenceSQL(seq *schema.Sequence) (string, error) {
	return "", platform.Unsupported(p, "DROP SEQUENCE")
}

func (p *Platform) CreateSchemaSQL(name string) (string, error) {
	return "", platform.Unsupported(p, "CREATE SCHEMA")
}

func (p *Platform) TypeMapping(dbType string) (types.Type, error) {
	return p.mapping.Lookup(dbType)
}

func (p *Platform) RegisterTypeMapping(dbType, logicalType string) error {
	return p.mapping.Register(dbType, logicalType)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
