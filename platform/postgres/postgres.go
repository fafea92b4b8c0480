// Package postgres renders DDL for PostgreSQL.
package postgres

import (
	"fmt"

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
	"smallint":    types.SmallInt,
	"int2":        types.SmallInt,
	"smallserial": types.SmallInt,
	"serial2":     types.SmallInt,
	"integer":     types.Integer,
	"int":         types.Integer,
	"int4":        types.Integer,
	"serial":      types.Integer,
	"serial4":     types.Integer,
	"bigint":      types.BigInt,
	"int8":        types.BigInt,
	"bigserial":   types.BigInt,
	"serial8":     types.BigInt,
	"bool":        types.Boolean,
	"boolean":     types.Boolean,
	"text":        types.Text,
	"tsvector":    types.Text,
	"varchar":     types.String,
	"interval":    types.String,
	"_varchar":    types.String,
	"char":        types.String,
	"bpchar":      types.String,
	"inet":        types.String,
	"date":        types.Date,
	"datetime":    types.DateTime,
	"timestamp":   types.DateTime,
	"timestamptz": types.DateTimeTz,
	"time":        types.Time,
	"timetz":      types.Time,
	"float":       types.Float,
	"float4":      types.Float,
	"float8":      types.Float,
	"double":      types.Float,
	"real":        types.Float,
	"decimal":     types.Decimal,
	"money":       types.Decimal,
	"numeric":     types.Decimal,
	"year":        types.Date,
	"uuid":        types.GUID,
	"bytea":       types.Blob,
	"json":        types.JSON,
	"jsonb":       types.JSON,
}

func (p *Platform) Name() string {
	return "postgres"
}

func (p *Platform) ReservedKeywords() keywords.KeywordList {
	return keywords.PostgreSQL
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

func (p *Platform) ModifyLimitQuery(query string, limit, offset int) (string, error) {
	return platform.LimitOffsetQuery(query, limit, offset, "")
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
		return "true"
	}
	return "false"
}

// TypeDeclarationSQL renders autoincrement integers as the SERIAL pseudo types.
func (p *Platform) TypeDeclarationSQL(column *schema.Column) (string, error) {
	switch column.Type {
	case types.SmallInt:
		if column.AutoIncrement {
			return "SMALLSERIAL", nil
		}
		return "SMALLINT", nil
	case types.Integer:
		if column.AutoIncrement {
			return "SERIAL", nil
		}
		return "INT", nil
	case types.BigInt:
		if column.AutoIncrement {
			return "BIGSERIAL", nil
		}
		return "BIGINT", nil
	}
	return p.storageType(column)
}

// storageType renders the type of column without the SERIAL shorthand, the
// form ALTER COLUMN ... TYPE accepts.
func (p *Platform) storageType(column *schema.Column) (string, error) {
	switch column.Type {
	case types.SmallInt:
		return "SMALLINT", nil
	case types.Integer:
		return "INT", nil
	case types.BigInt:
		return "BIGINT", nil
	case types.Boolean:
		return "BOOLEAN", nil
	case types.String:
		return p.StringTypeDeclarationSQL(column), nil
	case types.Binary, types.Blob:
		return p.BinaryTypeDeclarationSQL(column), nil
	case types.Text, types.SimpleArray, types.Array, types.Object:
		return "TEXT", nil
	case types.JSON:
		return "JSON", nil
	case types.Date:
		return "DATE", nil
	case types.DateTime:
		return "TIMESTAMP(0) WITHOUT TIME ZONE", nil
	case types.DateTimeTz:
		return "TIMESTAMP(0) WITH TIME ZONE", nil
	case types.Time:
		return "TIME(0) WITHOUT TIME ZONE", nil
	case types.Decimal:
		return p.DecimalTypeDeclarationSQL(column), nil
	case types.Float:
		return p.FloatDeclarationSQL(column), nil
	case types.GUID:
		return "UUID", nil
	}
	return "", &types.MappingError{Name: string(column.Type)}
}

// StringTypeDeclarationSQL renders VARCHAR without a length when none is declared.
func (p *Platform) StringTypeDeclarationSQL(column *schema.Column) string {
	length := platform.Length(column)
	if column.Fixed {
		if length == 0 {
			length = 255
		}
		return fmt.Sprintf("CHAR(%d)", length)
	}
	if length == 0 {
		return "VARCHAR"
	}
	return fmt.Sprintf("VARCHAR(%d)", length)
}

func (p *Platform) BinaryTypeDeclarationSQL(column *schema.Column) string {
	return "BYTEA"
}

func (p *Platform) DecimalTypeDeclarationSQL(column *schema.Column) string {
	return platform.DecimalDeclaration(column)
}

func (p *Platform) FloatDeclarationSQL(column *schema.Column) string {
	return "DOUBLE PRECISION"
}

// ColumnCharsetDeclarationSQL is empty: PostgreSQL has no per-column character set.
func (p *Platform) ColumnCharsetDeclarationSQL(charset string) string {
	return ""
}

func (p *Platform) ColumnCollationDeclarationSQL(collation string) string {
	return "COLLATE " + p.QuoteSingleIdentifier(collation)
}

// DefaultValueDeclarationSQL omits the default of SERIAL columns, which own
// an implicit nextval() default.
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

func (p *Platform) InlineColumnCommentSQL(comment string) (string, error) {
	return "", platform.Unsupported(p, "inline column comments")
}

// CommentOnColumnSQL sets the comment of a column, or removes it when comment is empty.
func (p *Platform) CommentOnColumnSQL(table, column schema.Identifier, comment string) (string, error) {
	return fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s", table.QuotedName(p), column.QuotedName(p), p.commentLiteral(comment)), nil
}

func (p *Platform) commentLiteral(comment string) string {
	if comment == "" {
		return "NULL"
	}
	return p.QuoteStringLiteral(comment)
}

func (p *Platform) SupportsInlineColumnComments() bool {
	return false
}

func (p *Platform) SupportsCreateDropForeignKeyConstraints() bool {
	return true
}

func (p *Platform) SupportsSequences() bool {
	return true
}

func (p *Platform) SupportsSchemas() bool {
	return true
}

func (p *Platform) CreateSequenceSQL(seq *schema.Sequence) (string, error) {
	return fmt.Sprintf("CREATE SEQUENCE %s INCREMENT BY %d MINVALUE %d START %d%s",
		seq.Name.QuotedName(p), seq.AllocationSize, seq.InitialValue, seq.InitialValue, sequenceCache(seq)), nil
}

func (p *Platform) AlterSequenceSQL(seq *schema.Sequence) (string, error) {
	return fmt.Sprintf("ALTER SEQUENCE %s INCREMENT BY %d%s", seq.Name.QuotedName(p), seq.AllocationSize, sequenceCache(seq)), nil
}

func (p *Platform) DropSequenceSQL(seq *schema.Sequence) (string, error) {
	return "DROP SEQUENCE " + seq.Name.QuotedName(p) + " CASCADE", nil
}

func sequenceCache(seq *schema.Sequence) string {
	if seq.Cache > 1 {
		return fmt.Sprintf(" CACHE %d", seq.Cache)
	}
	return ""
}

func (p *Platform) CreateSchemaSQL(name string) (string, error) {
	return "CREATE SCHEMA " + schema.NewName(name).QuotedName(p), nil
}

func (p *Platform) TypeMapping(dbType string) (types.Type, error) {
	return p.mapping.Lookup(dbType)
}

func (p *Platform) RegisterTypeMapping(dbType, logicalType string) error {
	return p.mapping.Register(dbType, logicalType)
}
