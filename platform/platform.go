// Package platform defines the contract every SQL dialect renderer implements
// and the helpers the dialects share. Each dialect lives in its own subpackage
// and is an independent value; there is no base implementation to override.
package platform

import (
	"github.com/sqldef/ddlgen/schema"
	"github.com/sqldef/ddlgen/types"
)

// NoLimit disables the LIMIT part of ModifyLimitQuery.
const NoLimit = -1

// CreateFlags selects what CreateTableSQL emits besides the table itself.
type CreateFlags int

const (
	CreateIndexes CreateFlags = 1 << iota
	CreateForeignKeys

	CreateAll = CreateIndexes | CreateForeignKeys
)

func (f CreateFlags) Has(flag CreateFlags) bool {
	return f&flag != 0
}

// Platform renders schema objects and diffs into the DDL of one database engine.
// Methods returning a slice return the statements in execution order.
type Platform interface {
	schema.Quoter

	Name() string
	IdentifierQuoteCharacter() string
	// QuoteIdentifier always quotes, segment by segment on '.'.
	QuoteIdentifier(name string) string
	QuoteStringLiteral(value string) string
	EscapeStringForLike(value, escapeChar string) string
	ModifyLimitQuery(query string, limit, offset int) (string, error)

	CurrentTimestampSQL() string
	CurrentDateSQL() string
	CurrentTimeSQL() string
	BooleanLiteral(value bool) string

	TypeDeclarationSQL(column *schema.Column) (string, error)
	StringTypeDeclarationSQL(column *schema.Column) string
	BinaryTypeDeclarationSQL(column *schema.Column) string
	DecimalTypeDeclarationSQL(column *schema.Column) string
	FloatDeclarationSQL(column *schema.Column) string

	ColumnDeclarationSQL(name string, column *schema.Column) (string, error)
	DefaultValueDeclarationSQL(column *schema.Column) string
	ColumnCharsetDeclarationSQL(charset string) string
	ColumnCollationDeclarationSQL(collation string) string

	ForeignKeyReferentialActionSQL(action string) (string, error)
	ForeignKeyDeclarationSQL(fk *schema.ForeignKey) (string, error)

	CreateTableSQL(table *schema.Table, flags CreateFlags, opts ...RenderOption) ([]string, error)
	DropTableSQL(table schema.Identifier) string
	AlterTableSQL(diff *schema.TableDiff, opts ...RenderOption) ([]string, error)

	CreateIndexSQL(index *schema.Index, table schema.Identifier) (string, error)
	DropIndexSQL(index *schema.Index, table schema.Identifier) string
	RenameIndexSQL(oldName schema.Identifier, index *schema.Index, table schema.Identifier) ([]string, error)
	CreateForeignKeySQL(fk *schema.ForeignKey, table schema.Identifier) (string, error)
	DropForeignKeySQL(fk *schema.ForeignKey, table schema.Identifier) (string, error)
	CreateUniqueConstraintSQL(uc *schema.UniqueConstraint, table schema.Identifier) (string, error)
	DropUniqueConstraintSQL(uc *schema.UniqueConstraint, table schema.Identifier) (string, error)

	CreateSequenceSQL(seq *schema.Sequence) (string, error)
	AlterSequenceSQL(seq *schema.Sequence) (string, error)
	DropSequenceSQL(seq *schema.Sequence) (string, error)
	CreateSchemaSQL(name string) (string, error)

	CommentOnColumnSQL(table, column schema.Identifier, comment string) (string, error)
	InlineColumnCommentSQL(comment string) (string, error)

	SupportsInlineColumnComments() bool
	SupportsCreateDropForeignKeyConstraints() bool
	SupportsSequences() bool
	SupportsSchemas() bool

	// TypeMapping resolves a native type name to its logical type.
	TypeMapping(dbType string) (types.Type, error)
	RegisterTypeMapping(dbType, logicalType string) error
}

// Unsupported is the error a dialect returns for an operation it cannot render.
func Unsupported(p Platform, operation string) error {
	return &schema.UnsupportedOperationError{Platform: p.Name(), Operation: operation}
}
