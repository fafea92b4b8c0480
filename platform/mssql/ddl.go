package mssql

import (
	"fmt"
	"strings"

	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/schema"
	"github.com/sqldef/ddlgen/util"
)

// CreateTableSQL renders the table with its unique constraints and a named
// primary key, then indexes, foreign keys, comments and default constraints as
// separate statements.
func (p *Platform) CreateTableSQL(table *schema.Table, flags platform.CreateFlags, opts ...platform.RenderOption) ([]string, error) {
	cfg := platform.ApplyRenderOptions(opts)
	if err := platform.CheckCreateTable(table); err != nil {
		return nil, err
	}

	parts, err := platform.ColumnDeclarations(p, table, cfg)
	if err != nil {
		return nil, err
	}
	for _, uc := range table.UniqueConstraints() {
		parts = append(parts, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", uc.Name.QuotedName(p), strings.Join(schema.QuoteNames(p, uc.Columns), ", ")))
	}
	if pk := table.PrimaryKey(); pk != nil {
		parts = append(parts, p.primaryKeyDeclaration(table.Name, pk))
	}
	sql := []string{fmt.Sprintf("CREATE TABLE %s (%s)", table.Name.QuotedName(p), strings.Join(parts, ", "))}

	if flags.Has(platform.CreateIndexes) {
		for _, idx := range table.Indexes() {
			if idx.Primary {
				continue
			}
			stmt, err := p.CreateIndexSQL(idx, table.Name)
			if err != nil {
				return nil, err
			}
			sql = append(sql, stmt)
		}
	}
	if flags.Has(platform.CreateForeignKeys) {
		for _, fk := range table.ForeignKeys() {
			stmt, err := p.CreateForeignKeySQL(fk, table.Name)
			if err != nil {
				return nil, err
			}
			sql = append(sql, stmt)
		}
	}

	if comment := table.Options.Comment; comment != "" {
		sql = append(sql, p.extendedPropertySQL("sp_addextendedproperty", &comment, table.Name, nil))
	}
	for _, column := range table.Columns() {
		if comment := column.CommentText(); comment != "" {
			stmt, err := p.CommentOnColumnSQL(table.Name, column.Name, comment)
			if err != nil {
				return nil, err
			}
			sql = append(sql, stmt)
		}
	}
	for _, column := range table.Columns() {
		if hasDefaultConstraint(column) {
			sql = append(sql, p.DefaultConstraintSQL(table.Name, column))
		}
	}

	cfg.Notify(platform.Event{Kind: platform.EventCreateTable, Table: table.Name, SQL: sql})
	return sql, nil
}

// hasDefaultConstraint reports whether column owns a named default constraint.
// IDENTITY columns cannot have one.
func hasDefaultConstraint(column *schema.Column) bool {
	return column != nil && column.Default != nil && !column.AutoIncrement && column.ColumnDefinition == ""
}

func (p *Platform) primaryKeyDeclaration(table schema.Identifier, pk *schema.Index) string {
	clustering := ""
	if pk.HasFlag(schema.IndexFlagNonClustered) {
		clustering = " NONCLUSTERED"
	}
	return fmt.Sprintf("CONSTRAINT %s PRIMARY KEY%s (%s)", PrimaryKeyName(table).QuotedName(p), clustering, platform.IndexColumnList(p, pk))
}

func (p *Platform) DropTableSQL(table schema.Identifier) string {
	return "DROP TABLE " + table.QuotedName(p)
}

// AlterTableSQL renames columns with sp_rename first, then applies one ALTER
// TABLE statement per column step. Default constraints are dropped before and
// recreated after a column change, since they depend on the column.
func (p *Platform) AlterTableSQL(diff *schema.TableDiff, opts ...platform.RenderOption) ([]string, error) {
	cfg := platform.ApplyRenderOptions(opts)
	table := diff.Name()
	alter := "ALTER TABLE " + table.QuotedName(p) + " "

	var renameSQL, columnSQL, commentSQL []string
	for _, r := range diff.RenamedColumns() {
		renameSQL = append(renameSQL, p.renameColumnSQL(table, r.OldName, r.Column.Name))
		if hasDefaultConstraint(r.Column) {
			columnSQL = append(columnSQL, p.dropDefaultConstraintSQL(table, r.OldName), p.DefaultConstraintSQL(table, r.Column))
		}
	}
	for _, cd := range diff.ChangedColumns() {
		if cd.IsRename() {
			renameSQL = append(renameSQL, p.renameColumnSQL(table, cd.OldName(), cd.Column().Name))
		}
	}

	for _, column := range diff.AddedColumns() {
		decl, err := p.ColumnDeclarationSQL(column.Name.QuotedName(p), column)
		if err != nil {
			return nil, err
		}
		columnSQL = append(columnSQL, alter+"ADD "+decl)
		if hasDefaultConstraint(column) {
			columnSQL = append(columnSQL, p.DefaultConstraintSQL(table, column))
		}
		if comment := column.CommentText(); comment != "" {
			stmt, err := p.CommentOnColumnSQL(table, column.Name, comment)
			if err != nil {
				return nil, err
			}
			commentSQL = append(commentSQL, stmt)
		}
	}
	for _, column := range diff.RemovedColumns() {
		if hasDefaultConstraint(column) {
			columnSQL = append(columnSQL, p.dropDefaultConstraintSQL(table, column.Name))
		}
		columnSQL = append(columnSQL, alter+"DROP COLUMN "+column.Name.QuotedName(p))
	}
	for _, cd := range diff.ChangedColumns() {
		stmts, comment, err := p.changeColumnSQL(table, cd)
		if err != nil {
			return nil, err
		}
		columnSQL = append(columnSQL, stmts...)
		commentSQL = append(commentSQL, comment...)
	}

	sql := append(append(renameSQL, columnSQL...), commentSQL...)
	if newName, ok := diff.NewName(); ok {
		sql = append(sql, fmt.Sprintf("EXEC sp_rename %s, %s", p.unicodeLiteral(table.QuotedName(p)), p.unicodeLiteral(newName.ShortName())))
		sql = append(sql, p.renameDefaultConstraintsSQL(diff, newName)...)
	}

	pre, err := platform.PreAlterTableSQL(p, diff)
	if err != nil {
		return nil, err
	}
	post, err := platform.PostAlterTableSQL(p, diff)
	if err != nil {
		return nil, err
	}
	sql = append(append(pre, sql...), post...)

	platform.NotifyAlterTable(cfg, diff, sql)
	return sql, nil
}

// Attributes whose change needs ALTER COLUMN.
var alterColumnProperties = []string{
	schema.PropertyType,
	schema.PropertyLength,
	schema.PropertyPrecision,
	schema.PropertyScale,
	schema.PropertyFixed,
	schema.PropertyNotNull,
	schema.PropertyCollation,
	schema.PropertyCharset,
	schema.PropertyColumnDefinition,
}

// changeColumnSQL returns the statements changing the column of cd, and its
// comment statements separately. The column is already renamed.
func (p *Platform) changeColumnSQL(table schema.Identifier, cd *schema.ColumnDiff) ([]string, []string, error) {
	column, from := cd.Column(), cd.FromColumn()
	if cd.HasChanged(schema.PropertyAutoIncrement) {
		return nil, nil, platform.Unsupported(p, "changing the IDENTITY property of column "+column.Name.Name)
	}

	var commentSQL []string
	if cd.HasChanged(schema.PropertyComment) {
		var oldComment string
		if from != nil {
			oldComment = from.CommentText()
		}
		commentSQL = append(commentSQL, p.columnCommentChangeSQL(table, column.Name, oldComment, column.CommentText()))
	}

	structural := cd.HasChangedAny(alterColumnProperties...)
	dropDefault := hasDefaultConstraint(from) && (structural || cd.IsRename() || cd.HasChanged(schema.PropertyDefault))

	var sql []string
	if dropDefault {
		sql = append(sql, p.dropDefaultConstraintSQL(table, cd.OldName()))
	}
	if structural {
		decl, err := p.ColumnDeclarationSQL(column.Name.QuotedName(p), column)
		if err != nil {
			return nil, nil, err
		}
		sql = append(sql, "ALTER TABLE "+table.QuotedName(p)+" ALTER COLUMN "+decl)
	}
	if hasDefaultConstraint(column) && (dropDefault || cd.HasChanged(schema.PropertyDefault)) {
		sql = append(sql, p.DefaultConstraintSQL(table, column))
	}
	return sql, commentSQL, nil
}

func (p *Platform) renameColumnSQL(table, oldName, newName schema.Identifier) string {
	return fmt.Sprintf("EXEC sp_rename %s, %s, N'COLUMN'",
		p.unicodeLiteral(table.QuotedName(p)+"."+oldName.QuotedName(p)), p.unicodeLiteral(newName.Name))
}

// renameDefaultConstraintsSQL renames the default constraints of a renamed
// table, whose names derive from the table name. Without the current table
// only the constraints created by diff are known.
func (p *Platform) renameDefaultConstraintsSQL(diff *schema.TableDiff, newName schema.Identifier) []string {
	var columns []*schema.Column
	if from := diff.FromTable(); from != nil {
		if table, err := diff.Apply(from); err == nil {
			columns = table.Columns()
		}
	}
	if columns == nil {
		columns = diff.AddedColumns()
		for _, r := range diff.RenamedColumns() {
			columns = append(columns, r.Column)
		}
		for _, cd := range diff.ChangedColumns() {
			columns = append(columns, cd.Column())
		}
	}

	var sql []string
	for _, column := range columns {
		if !hasDefaultConstraint(column) {
			continue
		}
		oldConstraint := diff.Name().Qualify(DefaultConstraintName(diff.Name(), column.Name))
		sql = append(sql, fmt.Sprintf("EXEC sp_rename %s, %s, N'OBJECT'",
			p.unicodeLiteral(oldConstraint.QuotedName(p)), p.unicodeLiteral(DefaultConstraintName(newName, column.Name).Name)))
	}
	return sql
}

// CreateIndexSQL filters unique indexes on their columns being NOT NULL, so
// that SQL Server admits several NULL rows like the other platforms do.
func (p *Platform) CreateIndexSQL(idx *schema.Index, table schema.Identifier) (string, error) {
	if err := platform.CheckIndex(p, idx, true, false); err != nil {
		return "", err
	}
	if idx.Primary {
		return "ALTER TABLE " + table.QuotedName(p) + " ADD " + p.primaryKeyDeclaration(table, idx), nil
	}

	var flags string
	if idx.Unique {
		flags = "UNIQUE "
	}
	switch {
	case idx.HasFlag(schema.IndexFlagClustered):
		flags += "CLUSTERED "
	case idx.HasFlag(schema.IndexFlagNonClustered):
		flags += "NONCLUSTERED "
	}

	if idx.Unique && idx.Where == "" {
		filtered := idx.Clone()
		filtered.Where = strings.Join(util.TransformSlice(schema.QuoteNames(p, idx.Columns), func(c string) string {
			return c + " IS NOT NULL"
		}), " AND ")
		idx = filtered
	}
	return platform.CreateIndex(p, idx, table, flags), nil
}

func (p *Platform) DropIndexSQL(idx *schema.Index, table schema.Identifier) string {
	if idx.Primary {
		return platform.DropConstraint(p, PrimaryKeyName(table), table)
	}
	return fmt.Sprintf("DROP INDEX %s ON %s", idx.Name.QuotedName(p), table.QuotedName(p))
}

func (p *Platform) RenameIndexSQL(oldName schema.Identifier, idx *schema.Index, table schema.Identifier) ([]string, error) {
	return []string{fmt.Sprintf("EXEC sp_rename %s, %s, N'INDEX'",
		p.unicodeLiteral(table.QuotedName(p)+"."+oldName.QuotedName(p)), p.unicodeLiteral(idx.Name.Name))}, nil
}

func (p *Platform) CreateForeignKeySQL(fk *schema.ForeignKey, table schema.Identifier) (string, error) {
	decl, err := p.ForeignKeyDeclarationSQL(fk)
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + table.QuotedName(p) + " ADD " + decl, nil
}

func (p *Platform) DropForeignKeySQL(fk *schema.ForeignKey, table schema.Identifier) (string, error) {
	return platform.DropConstraint(p, fk.Name, table), nil
}

func (p *Platform) CreateUniqueConstraintSQL(uc *schema.UniqueConstraint, table schema.Identifier) (string, error) {
	return platform.CreateUniqueConstraint(p, uc, table), nil
}

func (p *Platform) DropUniqueConstraintSQL(uc *schema.UniqueConstraint, table schema.Identifier) (string, error) {
	return platform.DropConstraint(p, uc.Name, table), nil
}

