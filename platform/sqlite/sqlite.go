// Package sqlite renders DDL for SQLite 3.35 and later.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/sqldef/ddlgen/keywords"
	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/schema"
	"github.com/sqldef/ddlgen/types"
)

type Platform struct {
	mapping *types.Mapping
}

var _ platform.Platform = (*Platform)(nil)

func New() *Platform {
	return &Platform{mapping: types.NewMapping(nativeTypes)}
}

var nativeTypes = map[string]types.Type{
	"bigint":           types.BigInt,
	"bigserial":        types.BigInt,
	"blob":             types.Blob,
	"boolean":          types.Boolean,
	"char":             types.String,
	"clob":             types.Text,
	"date":             types.Date,
	"datetime":         types.DateTime,
	"decimal":          types.Decimal,
	"double":           types.Float,
	"double precision": types.Float,
	"float":            types.Float,
	"image":            types.String,
	"int":              types.Integer,
	"integer":          types.Integer,
	"longtext":         types.Text,
	"longvarchar":      types.String,
	"mediumint":        types.Integer,
	"mediumtext":       types.Text,
	"ntext":            types.String,
	"numeric":          types.Decimal,
	"nvarchar":         types.String,
	"real":             types.Float,
	"serial":           types.Integer,
	"smallint":         types.SmallInt,
	"text":             types.Text,
	"time":             types.Time,
	"timestamp":        types.DateTime,
	"tinyint":          types.Boolean,
	"tinytext":         types.Text,
	"varchar":          types.String,
	"varchar2":         types.String,
}

func (p *Platform) Name() string {
	return "sqlite3"
}

func (p *Platform) ReservedKeywords() keywords.KeywordList {
	return keywords.SQLite
}

func (p *Platform) IdentifierQuoteCharacter() string {
	return `"`
}

func (p *Platform) QuoteSingleIdentifier(name string) string {
	return platform.QuoteSingleIdentifier(name, `"`, `"`)
}

func (p *Platform) QuoteIdentifier(name string) string {
	return platform.QuoteIdentifier(p, name)
}

func (p *Platform) QuoteStringLiteral(value string) string {
	return platform.QuoteStringLiteral(value, "'")
}

func (p *Platform) EscapeStringForLike(value, escapeChar string) string {
	return platform.EscapeStringForLike(value, escapeChar, platform.LikeWildcards)
}

// ModifyLimitQuery uses LIMIT -1 when only an offset is requested.
func (p *Platform) ModifyLimitQuery(query string, limit, offset int) (string, error) {
	return platform.LimitOffsetQuery(query, limit, offset, "-1")
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

// TypeDeclarationSQL renders an autoincrement column of any integer type as
// INTEGER PRIMARY KEY AUTOINCREMENT, the only form SQLite accepts.
func (p *Platform) TypeDeclarationSQL(column *schema.Column) (string, error) {
	if column.Type.IsInteger() && column.AutoIncrement {
		return "INTEGER PRIMARY KEY AUTOINCREMENT", nil
	}
	switch column.Type {
	case types.SmallInt:
		return "SMALLINT" + unsigned(column), nil
	case types.Integer:
		return "INTEGER" + unsigned(column), nil
	case types.BigInt:
		return "BIGINT" + unsigned(column), nil
	case types.Boolean:
		return "BOOLEAN", nil
	case types.String:
		return p.StringTypeDeclarationSQL(column), nil
	case types.Binary, types.Blob:
		return p.BinaryTypeDeclarationSQL(column), nil
	case types.Text, types.JSON, types.SimpleArray, types.Array, types.Object:
		return "CLOB", nil
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

func unsigned(column *schema.Column) string {
	if column.Unsigned {
		return " UNSIGNED"
	}
	return ""
}

// StringTypeDeclarationSQL renders TEXT for a variable-length string without a length.
func (p *Platform) StringTypeDeclarationSQL(column *schema.Column) string {
	length := platform.Length(column)
	if column.Fixed {
		if length == 0 {
			length = 255
		}
		return fmt.Sprintf("CHAR(%d)", length)
	}
	if length == 0 {
		return "TEXT"
	}
	return fmt.Sprintf("VARCHAR(%d)", length)
}

func (p *Platform) BinaryTypeDeclarationSQL(column *schema.Column) string {
	return "BLOB"
}

func (p *Platform) DecimalTypeDeclarationSQL(column *schema.Column) string {
	return platform.DecimalDeclaration(column)
}

func (p *Platform) FloatDeclarationSQL(column *schema.Column) string {
	return "DOUBLE PRECISION"
}

// ColumnCharsetDeclarationSQL is empty: SQLite stores text in the database encoding.
func (p *Platform) ColumnCharsetDeclarationSQL(charset string) string {
	return ""
}

func (p *Platform) ColumnCollationDeclarationSQL(collation string) string {
	return "COLLATE " + schema.NewIdentifier(collation).QuotedName(p)
}

func (p *Platform) DefaultValueDeclarationSQL(column *schema.Column) string {
	if column.AutoIncrement && column.Type.IsInteger() {
		return ""
	}
	return platform.DefaultValueDeclaration(p, column)
}

func (p *Platform) ColumnDeclarationSQL(name string, column *schema.Column) (string, error) {
	if column.ColumnDefinition == "" && column.Charset != "" {
		return "", platform.Unsupported(p, "character set on column "+column.Name.Name)
	}
	return platform.ColumnDeclaration(p, name, column)
}

func (p *Platform) ForeignKeyReferentialActionSQL(action string) (string, error) {
	return platform.CanonicalReferentialAction(action)
}

func (p *Platform) ForeignKeyDeclarationSQL(fk *schema.ForeignKey) (string, error) {
	base, err := platform.ForeignKeyBaseDeclaration(p, fk)
	if err != nil {
		return "", err
	}
	actions, err := platform.ReferentialActions(p, fk)
	if err != nil {
		return "", err
	}
	return base + actions + platform.DeferrableClause(fk), nil
}

// InlineColumnCommentSQL renders the comment as a line comment. Every line of
// a multi-line comment gets its own "--".
func (p *Platform) InlineColumnCommentSQL(comment string) (string, error) {
	return "--" + strings.ReplaceAll(comment, "\n", "\n--") + "\n", nil
}

func (p *Platform) CommentOnColumnSQL(table, column schema.Identifier, comment string) (string, error) {
	return "", platform.Unsupported(p, "COMMENT ON COLUMN")
}

func (p *Platform) SupportsInlineColumnComments() bool {
	return true
}

func (p *Platform) SupportsCreateDropForeignKeyConstraints() bool {
	return false
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
