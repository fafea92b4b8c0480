package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sqldef/ddlgen/schema"
	"github.com/sqldef/ddlgen/types"
)

const (
	DefaultPrecision = 10
	DefaultScale     = 0
)

// CanonicalReferentialAction upper-cases one of the five referential actions.
func CanonicalReferentialAction(action string) (string, error) {
	return schema.CanonicalReferentialAction(action)
}

// DefaultValueDeclaration renders the DEFAULT clause of column, with a leading
// space. Literals are quoted unless the column is numeric or boolean, or is
// temporal and the default is the matching CURRENT_* function of p.
func DefaultValueDeclaration(p Platform, column *schema.Column) string {
	if column.Default == nil {
		if column.NotNull {
			return ""
		}
		return " DEFAULT NULL"
	}

	value := column.Default.Value
	if column.Default.Expression {
		return " DEFAULT " + value
	}

	switch {
	case column.Type.IsInteger():
		if _, err := strconv.ParseInt(value, 10, 64); err == nil {
			return " DEFAULT " + value
		}
	case column.Type == types.Decimal || column.Type == types.Float:
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			return " DEFAULT " + value
		}
	case column.Type == types.Boolean:
		if b, err := strconv.ParseBool(value); err == nil {
			return " DEFAULT " + p.BooleanLiteral(b)
		}
	case column.Type == types.DateTime || column.Type == types.DateTimeTz:
		if value == p.CurrentTimestampSQL() {
			return " DEFAULT " + value
		}
	case column.Type == types.Date:
		if value == p.CurrentDateSQL() {
			return " DEFAULT " + value
		}
	case column.Type == types.Time:
		if value == p.CurrentTimeSQL() {
			return " DEFAULT " + value
		}
	}
	return " DEFAULT " + p.QuoteStringLiteral(value)
}

// ColumnDeclaration renders "name <type>[ charset][ default][ NOT NULL][ collation][ comment]".
// A ColumnDefinition on the column replaces everything after the name.
func ColumnDeclaration(p Platform, name string, column *schema.Column) (string, error) {
	if column.ColumnDefinition != "" {
		return name + " " + column.ColumnDefinition, nil
	}

	typeDecl, err := p.TypeDeclarationSQL(column)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(name + " " + typeDecl)
	if column.Charset != "" {
		b.WriteString(" " + p.ColumnCharsetDeclarationSQL(column.Charset))
	}
	b.WriteString(p.DefaultValueDeclarationSQL(column))
	if column.NotNull {
		b.WriteString(" NOT NULL")
	}
	if column.Collation != "" {
		b.WriteString(" " + p.ColumnCollationDeclarationSQL(column.Collation))
	}
	if comment := column.CommentText(); comment != "" && p.SupportsInlineColumnComments() {
		inline, err := p.InlineColumnCommentSQL(comment)
		if err != nil {
			return "", err
		}
		b.WriteString(" " + inline)
	}
	return b.String(), nil
}

// DecimalDeclaration renders NUMERIC(precision, scale), defaulting to (10, 0).
func DecimalDeclaration(column *schema.Column) string {
	precision, scale := DefaultPrecision, DefaultScale
	if column.Precision != nil && *column.Precision > 0 {
		precision = *column.Precision
	}
	if column.Scale != nil {
		scale = *column.Scale
	}
	return fmt.Sprintf("NUMERIC(%d, %d)", precision, scale)
}

// Length returns the declared length of column, or 0.
func Length(column *schema.Column) int {
	if column.Length == nil {
		return 0
	}
	return *column.Length
}

// ForeignKeyBaseDeclaration renders
// "CONSTRAINT name FOREIGN KEY (cols) REFERENCES table (cols)".
func ForeignKeyBaseDeclaration(p Platform, fk *schema.ForeignKey) (string, error) {
	if len(fk.Columns) == 0 || len(fk.ForeignColumns) == 0 || fk.ForeignTable.Name == "" {
		return "", &schema.DefinitionError{Object: "foreign key " + fk.Name.Name, Reason: "local columns, foreign table and foreign columns are required"}
	}
	var b strings.Builder
	if fk.Name.Name != "" {
		b.WriteString("CONSTRAINT " + fk.Name.QuotedName(p) + " ")
	}
	fmt.Fprintf(&b, "FOREIGN KEY (%s) REFERENCES %s (%s)",
		strings.Join(schema.QuoteNames(p, fk.Columns), ", "),
		fk.ForeignTable.QuotedName(p),
		strings.Join(schema.QuoteNames(p, fk.ForeignColumns), ", "))
	return b.String(), nil
}

// ReferentialActions renders the ON UPDATE and ON DELETE clauses of fk.
func ReferentialActions(p Platform, fk *schema.ForeignKey) (string, error) {
	var b strings.Builder
	if fk.OnUpdate != "" {
		action, err := p.ForeignKeyReferentialActionSQL(fk.OnUpdate)
		if err != nil {
			return "", err
		}
		b.WriteString(" ON UPDATE " + action)
	}
	if fk.OnDelete != "" {
		action, err := p.ForeignKeyReferentialActionSQL(fk.OnDelete)
		if err != nil {
			return "", err
		}
		b.WriteString(" ON DELETE " + action)
	}
	return b.String(), nil
}

// DeferrableClause renders the deferral mode of fk, e.g. " NOT DEFERRABLE INITIALLY IMMEDIATE".
func DeferrableClause(fk *schema.ForeignKey) string {
	clause := " DEFERRABLE"
	if !fk.Deferrable {
		clause = " NOT DEFERRABLE"
	}
	if fk.InitiallyDeferred {
		return clause + " INITIALLY DEFERRED"
	}
	return clause + " INITIALLY IMMEDIATE"
}

// IndexColumnList renders the quoted columns of idx separated by commas.
func IndexColumnList(p Platform, idx *schema.Index) string {
	return strings.Join(schema.QuoteNames(p, idx.Columns), ", ")
}

// CheckIndex rejects index features p cannot render.
func CheckIndex(p Platform, idx *schema.Index, partial, prefixLengths bool) error {
	if idx.Where != "" && !partial {
		return Unsupported(p, "partial index "+idx.Name.Name)
	}
	if idx.HasLengths() && !prefixLengths {
		return Unsupported(p, "prefix lengths on index "+idx.Name.Name)
	}
	return nil
}

// CreateIndex renders CREATE [flags]INDEX name ON table (cols)[ WHERE predicate].
// A primary index becomes ALTER TABLE ... ADD PRIMARY KEY.
func CreateIndex(p Platform, idx *schema.Index, table schema.Identifier, flags string) string {
	if idx.Primary {
		return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", table.QuotedName(p), IndexColumnList(p, idx))
	}
	if flags == "" && idx.Unique {
		flags = "UNIQUE "
	}
	sql := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", flags, idx.Name.QuotedName(p), table.QuotedName(p), IndexColumnList(p, idx))
	if idx.Where != "" {
		sql += " WHERE " + idx.Where
	}
	return sql
}

// CreateUniqueConstraint renders ALTER TABLE ... ADD CONSTRAINT name UNIQUE (cols).
func CreateUniqueConstraint(p Platform, uc *schema.UniqueConstraint, table schema.Identifier) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
		table.QuotedName(p), uc.Name.QuotedName(p), strings.Join(schema.QuoteNames(p, uc.Columns), ", "))
}

// DropConstraint renders ALTER TABLE ... DROP CONSTRAINT name.
func DropConstraint(p Platform, name, table schema.Identifier) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", table.QuotedName(p), name.QuotedName(p))
}

// CheckCreateTable rejects tables that cannot be created.
func CheckCreateTable(table *schema.Table) error {
	if len(table.Columns()) == 0 {
		return &schema.DefinitionError{Object: "table " + table.Name.Name, Reason: "no columns specified"}
	}
	return nil
}

// ColumnDeclarations renders the declaration of every column of table and
// notifies cfg for each.
func ColumnDeclarations(p Platform, table *schema.Table, cfg RenderConfig) ([]string, error) {
	var declarations []string
	for _, column := range table.Columns() {
		decl, err := p.ColumnDeclarationSQL(column.Name.QuotedName(p), column)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table.Name.Name, err)
		}
		declarations = append(declarations, decl)
		cfg.Notify(Event{Kind: EventCreateTableColumn, Table: table.Name, Column: column})
	}
	return declarations, nil
}
