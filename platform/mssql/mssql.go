// Package mssql renders DDL for Microsoft SQL Server 2012 and later.
package mssql

import (
	"fmt"
	"hash/crc32"
	"regexp"
	"strings"

	"github.com/sqldef/ddlgen/keywords"
	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/schema"
	"github.com/sqldef/ddlgen/types"
)

// DefaultSchema owns the objects of unqualified names.
const DefaultSchema = "dbo"

const (
	// Longest NVARCHAR and VARBINARY that are not declared as MAX.
	maxNVarcharLength  = 4000
	maxVarbinaryLength = 8000

	likeWildcards       = platform.LikeWildcards + "[]^"
	descriptionProperty = "MS_Description"
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
	"binary":           types.Binary,
	"bit":              types.Boolean,
	"blob":             types.Blob,
	"char":             types.String,
	"date":             types.Date,
	"datetime":         types.DateTime,
	"datetime2":        types.DateTime,
	"datetimeoffset":   types.DateTimeTz,
	"decimal":          types.Decimal,
	"double":           types.Float,
	"double precision": types.Float,
	"float":            types.Float,
	"image":            types.Blob,
	"int":              types.Integer,
	"money":            types.Integer,
	"nchar":            types.String,
	"ntext":            types.Text,
	"numeric":          types.Decimal,
	"nvarchar":         types.String,
	"real":             types.Float,
	"smalldatetime":    types.DateTime,
	"smallint":         types.SmallInt,
	"smallmoney":       types.Integer,
	"sysname":          types.String,
	"text":             types.Text,
	"time":             types.Time,
	"tinyint":          types.SmallInt,
	"uniqueidentifier": types.GUID,
	"varbinary":        types.Binary,
	"varchar":          types.String,
	"xml":              types.Text,
}

func (p *Platform) Name() string {
	return "mssql"
}

func (p *Platform) ReservedKeywords() keywords.KeywordList {
	return keywords.SQLServer
}

func (p *Platform) IdentifierQuoteCharacter() string {
	return "["
}

func (p *Platform) QuoteSingleIdentifier(name string) string {
	return platform.QuoteSingleIdentifier(name, "[", "]")
}

func (p *Platform) QuoteIdentifier(name string) string {
	return platform.QuoteIdentifier(p, name)
}

func (p *Platform) QuoteStringLiteral(value string) string {
	return platform.QuoteStringLiteral(value, "'")
}

// unicodeLiteral renders value as an NVARCHAR literal, the argument type of
// the system procedures.
func (p *Platform) unicodeLiteral(value string) string {
	return "N" + p.QuoteStringLiteral(value)
}

// EscapeStringForLike also escapes the brackets of character classes.
func (p *Platform) EscapeStringForLike(value, escapeChar string) string {
	return platform.EscapeStringForLike(value, escapeChar, likeWildcards)
}

var orderBy = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)

// ModifyLimitQuery uses OFFSET ... FETCH, which requires an ORDER BY. A query
// without one at the top level gets ORDER BY (SELECT 0).
func (p *Platform) ModifyLimitQuery(query string, limit, offset int) (string, error) {
	if err := platform.CheckLimit(limit, offset); err != nil {
		return "", err
	}
	if limit == platform.NoLimit && offset == 0 {
		return query, nil
	}
	if !hasTopLevelOrderBy(query) {
		query += " ORDER BY (SELECT 0)"
	}
	query += fmt.Sprintf(" OFFSET %d ROWS", offset)
	if limit != platform.NoLimit {
		query += fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", limit)
	}
	return query, nil
}

// hasTopLevelOrderBy reports whether the last ORDER BY of query is outside
// any parenthesized subquery.
func hasTopLevelOrderBy(query string) bool {
	matches := orderBy.FindAllStringIndex(query, -1)
	if len(matches) == 0 {
		return false
	}
	rest := query[matches[len(matches)-1][1]:]
	return strings.Count(rest, ")") <= strings.Count(rest, "(")
}

func (p *Platform) CurrentTimestampSQL() string {
	return "CURRENT_TIMESTAMP"
}

func (p *Platform) CurrentDateSQL() string {
	return "CONVERT(date, GETDATE())"
}

func (p *Platform) CurrentTimeSQL() string {
	return "CONVERT(time, GETDATE())"
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
		return "SMALLINT" + identity(column), nil
	case types.Integer:
		return "INT" + identity(column), nil
	case types.BigInt:
		return "BIGINT" + identity(column), nil
	case types.Boolean:
		return "BIT", nil
	case types.String:
		return p.StringTypeDeclarationSQL(column), nil
	case types.Binary:
		return p.BinaryTypeDeclarationSQL(column), nil
	case types.Blob:
		return "VARBINARY(MAX)", nil
	case types.Text, types.SimpleArray, types.Array, types.Object:
		return "VARCHAR(MAX)", nil
	case types.JSON:
		return "NVARCHAR(MAX)", nil
	case types.Date:
		return "DATE", nil
	case types.DateTime:
		return "DATETIME2(6)", nil
	case types.DateTimeTz:
		return "DATETIMEOFFSET(6)", nil
	case types.Time:
		return "TIME(0)", nil
	case types.Decimal:
		return p.DecimalTypeDeclarationSQL(column), nil
	case types.Float:
		return p.FloatDeclarationSQL(column), nil
	case types.GUID:
		return "UNIQUEIDENTIFIER", nil
	}
	return "", &types.MappingError{Name: string(column.Type)}
}

func identity(column *schema.Column) string {
	if column.AutoIncrement {
		return " IDENTITY"
	}
	return ""
}

// StringTypeDeclarationSQL renders national character types; lengths above
// 4000 become NVARCHAR(MAX).
func (p *Platform) StringTypeDeclarationSQL(column *schema.Column) string {
	length := platform.Length(column)
	if length == 0 {
		length = 255
	}
	if column.Fixed {
		return fmt.Sprintf("NCHAR(%d)", length)
	}
	if length > maxNVarcharLength {
		return "NVARCHAR(MAX)"
	}
	return fmt.Sprintf("NVARCHAR(%d)", length)
}

func (p *Platform) BinaryTypeDeclarationSQL(column *schema.Column) string {
	length := platform.Length(column)
	if length == 0 {
		length = 255
	}
	if column.Fixed {
		return fmt.Sprintf("BINARY(%d)", length)
	}
	if length > maxVarbinaryLength {
		return "VARBINARY(MAX)"
	}
	return fmt.Sprintf("VARBINARY(%d)", length)
}

func (p *Platform) DecimalTypeDeclarationSQL(column *schema.Column) string {
	return platform.DecimalDeclaration(column)
}

func (p *Platform) FloatDeclarationSQL(column *schema.Column) string {
	return "FLOAT"
}

func (p *Platform) ColumnCharsetDeclarationSQL(charset string) string {
	return ""
}

func (p *Platform) ColumnCollationDeclarationSQL(collation string) string {
	return "COLLATE " + collation
}

// DefaultValueDeclarationSQL renders the DEFAULT clause of the named default
// constraint of column. Column declarations never carry it.
func (p *Platform) DefaultValueDeclarationSQL(column *schema.Column) string {
	if column.Default == nil {
		return ""
	}
	return platform.DefaultValueDeclaration(p, column)
}

// ColumnDeclarationSQL renders "name <type>[ COLLATE c][ NOT NULL]". Defaults
// are separate constraints, see DefaultConstraintSQL.
func (p *Platform) ColumnDeclarationSQL(name string, column *schema.Column) (string, error) {
	if column.ColumnDefinition != "" {
		return name + " " + column.ColumnDefinition, nil
	}
	if column.Charset != "" {
		return "", platform.Unsupported(p, "character set on column "+column.Name.Name)
	}
	typeDecl, err := p.TypeDeclarationSQL(column)
	if err != nil {
		return "", err
	}
	decl := name + " " + typeDecl
	if column.Collation != "" {
		decl += " " + p.ColumnCollationDeclarationSQL(column.Collation)
	}
	if column.NotNull {
		decl += " NOT NULL"
	}
	return decl, nil
}

// checksumName renders the upper-case hexadecimal CRC32 of name, the suffix
// of generated constraint names.
func checksumName(name string) string {
	return fmt.Sprintf("%X", crc32.ChecksumIEEE([]byte(name)))
}

// DefaultConstraintName names the default constraint of column in table.
func DefaultConstraintName(table, column schema.Identifier) schema.Identifier {
	return schema.NewName("DF_" + checksumName(table.Name) + "_" + checksumName(column.Name))
}

// PrimaryKeyName names the primary key constraint of table.
func PrimaryKeyName(table schema.Identifier) schema.Identifier {
	return schema.NewName("PK_" + checksumName(table.Name))
}

// DefaultConstraintSQL adds the default of column as a named constraint.
func (p *Platform) DefaultConstraintSQL(table schema.Identifier, column *schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s%s FOR %s",
		table.QuotedName(p), DefaultConstraintName(table, column.Name).QuotedName(p), p.DefaultValueDeclarationSQL(column), column.Name.QuotedName(p))
}

func (p *Platform) dropDefaultConstraintSQL(table, column schema.Identifier) string {
	return platform.DropConstraint(p, DefaultConstraintName(table, column), table)
}

// ForeignKeyReferentialActionSQL renders RESTRICT as NO ACTION, its SQL Server equivalent.
func (p *Platform) ForeignKeyReferentialActionSQL(action string) (string, error) {
	canonical, err := platform.CanonicalReferentialAction(action)
	if err != nil {
		return "", err
	}
	if canonical == "RESTRICT" {
		return "NO ACTION", nil
	}
	return canonical, nil
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
	return "", platform.Unsupported(p, "inline column comments")
}

// CommentOnColumnSQL adds the comment as the MS_Description extended property
// of the column, or drops the property when comment is empty.
func (p *Platform) CommentOnColumnSQL(table, column schema.Identifier, comment string) (string, error) {
	if comment == "" {
		return p.extendedPropertySQL("sp_dropextendedproperty", nil, table, &column), nil
	}
	return p.extendedPropertySQL("sp_addextendedproperty", &comment, table, &column), nil
}

// extendedPropertySQL calls procedure for the MS_Description property of
// table, or of one of its columns when column is set. value is nil for
// sp_dropextendedproperty.
func (p *Platform) extendedPropertySQL(procedure string, value *string, table schema.Identifier, column *schema.Identifier) string {
	args := []string{p.unicodeLiteral(descriptionProperty)}
	if value != nil {
		args = append(args, p.unicodeLiteral(*value))
	}
	owner := table.Namespace()
	if owner == "" {
		owner = DefaultSchema
	}
	args = append(args,
		"N'SCHEMA'", p.QuoteStringLiteral(owner),
		"N'TABLE'", p.QuoteStringLiteral(table.ShortName()),
	)
	if column != nil {
		args = append(args, "N'COLUMN'", p.QuoteStringLiteral(column.Name))
	}
	return "EXEC " + procedure + " " + strings.Join(args, ", ")
}

// columnCommentChangeSQL picks add, update or drop for a comment that changed
// from oldComment to comment.
func (p *Platform) columnCommentChangeSQL(table, column schema.Identifier, oldComment, comment string) string {
	switch {
	case comment == "":
		return p.extendedPropertySQL("sp_dropextendedproperty", nil, table, &column)
	case oldComment == "":
		return p.extendedPropertySQL("sp_addextendedproperty", &comment, table, &column)
	}
	return p.extendedPropertySQL("sp_updateextendedproperty", &comment, table, &column)
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
	return fmt.Sprintf("CREATE SEQUENCE %s START WITH %d INCREMENT BY %d MINVALUE %d%s",
		seq.Name.QuotedName(p), seq.InitialValue, seq.AllocationSize, seq.InitialValue, sequenceCache(seq)), nil
}

func (p *Platform) AlterSequenceSQL(seq *schema.Sequence) (string, error) {
	return fmt.Sprintf("ALTER SEQUENCE %s INCREMENT BY %d%s", seq.Name.QuotedName(p), seq.AllocationSize, sequenceCache(seq)), nil
}

func (p *Platform) DropSequenceSQL(seq *schema.Sequence) (string, error) {
	return "DROP SEQUENCE " + seq.Name.QuotedName(p), nil
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
