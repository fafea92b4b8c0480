package mysql

import (
	"fmt"
	"strings"

	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/schema"
)

func (p *Platform) CreateTableSQL(table *schema.Table, flags platform.CreateFlags, opts ...platform.RenderOption) ([]string, error) {
	cfg := platform.ApplyRenderOptions(opts)
	if err := platform.CheckCreateTable(table); err != nil {
		return nil, err
	}
	if err := p.checkEngine(table.Options.Engine, table.ForeignKeys()); err != nil {
		return nil, err
	}

	parts, err := platform.ColumnDeclarations(p, table, cfg)
	if err != nil {
		return nil, err
	}
	for _, uc := range table.UniqueConstraints() {
		parts = append(parts, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", uc.Name.QuotedName(p), strings.Join(schema.QuoteNames(p, uc.Columns), ", ")))
	}
	if flags.Has(platform.CreateIndexes) {
		for _, idx := range table.Indexes() {
			if idx.Primary {
				continue
			}
			if err := platform.CheckIndex(p, idx, false, true); err != nil {
				return nil, err
			}
			parts = append(parts, fmt.Sprintf("%sINDEX %s (%s)", indexFlags(idx), idx.Name.QuotedName(p), p.indexColumns(idx)))
		}
	}
	if pk := table.PrimaryKey(); pk != nil {
		parts = append(parts, fmt.Sprintf("PRIMARY KEY(%s)", p.indexColumns(pk)))
	}

	query := fmt.Sprintf("CREATE TABLE %s (%s)", table.Name.QuotedName(p), strings.Join(parts, ", "))
	if options := p.tableOptions(table.Options); options != "" {
		query += " " + options
	}
	sql := []string{query}

	if flags.Has(platform.CreateForeignKeys) {
		for _, fk := range table.ForeignKeys() {
			stmt, err := p.CreateForeignKeySQL(fk, table.Name)
			if err != nil {
				return nil, err
			}
			sql = append(sql, stmt)
		}
	}

	cfg.Notify(platform.Event{Kind: platform.EventCreateTable, Table: table.Name, SQL: sql})
	return sql, nil
}

func (p *Platform) tableOptions(options schema.TableOptions) string {
	var parts []string
	if options.Charset != "" {
		parts = append(parts, "DEFAULT CHARACTER SET "+options.Charset)
	}
	if options.Collation != "" {
		parts = append(parts, "COLLATE "+p.QuoteSingleIdentifier(options.Collation))
	}
	if options.Engine != "" {
		parts = append(parts, "ENGINE = "+options.Engine)
	}
	if options.Comment != "" {
		parts = append(parts, "COMMENT = "+p.QuoteStringLiteral(options.Comment))
	}
	return strings.Join(parts, " ")
}

// checkEngine rejects foreign keys on storage engines other than InnoDB.
// An unset engine is the server default, InnoDB.
func (p *Platform) checkEngine(engine string, fks []*schema.ForeignKey) error {
	if len(fks) == 0 || engine == "" || strings.EqualFold(engine, "InnoDB") {
		return nil
	}
	return platform.Unsupported(p, "foreign keys on engine "+engine)
}

func indexFlags(idx *schema.Index) string {
	switch {
	case idx.HasFlag(schema.IndexFlagFulltext):
		return "FULLTEXT "
	case idx.HasFlag(schema.IndexFlagSpatial):
		return "SPATIAL "
	case idx.Unique:
		return "UNIQUE "
	}
	return ""
}

// indexColumns renders the column list of idx with its prefix lengths.
func (p *Platform) indexColumns(idx *schema.Index) string {
	columns := schema.QuoteNames(p, idx.Columns)
	for i := range columns {
		if i < len(idx.Lengths) && idx.Lengths[i] > 0 {
			columns[i] += "(" + itoa(idx.Lengths[i]) + ")"
		}
	}
	return strings.Join(columns, ", ")
}

func (p *Platform) DropTableSQL(table schema.Identifier) string {
	return "DROP TABLE " + table.QuotedName(p)
}

// AlterTableSQL renders all column changes and the rename as a single ALTER
// TABLE statement, surrounded by the index and foreign key changes.
func (p *Platform) AlterTableSQL(diff *schema.TableDiff, opts ...platform.RenderOption) ([]string, error) {
	cfg := platform.ApplyRenderOptions(opts)

	if from := diff.FromTable(); from != nil {
		if err := p.checkEngine(from.Options.Engine, diff.AddedForeignKeys()); err != nil {
			return nil, err
		}
	}

	var parts []string
	if newName, ok := diff.NewName(); ok {
		parts = append(parts, "RENAME TO "+newName.QuotedName(p))
	}
	for _, column := range diff.AddedColumns() {
		decl, err := p.ColumnDeclarationSQL(column.Name.QuotedName(p), column)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "ADD "+decl)
	}
	for _, column := range diff.RemovedColumns() {
		parts = append(parts, "DROP "+column.Name.QuotedName(p))
	}
	for _, cd := range diff.ChangedColumns() {
		decl, err := p.ColumnDeclarationSQL(cd.Column().Name.QuotedName(p), cd.Column())
		if err != nil {
			return nil, err
		}
		parts = append(parts, "CHANGE "+cd.OldName().QuotedName(p)+" "+decl)
	}
	for _, r := range diff.RenamedColumns() {
		decl, err := p.ColumnDeclarationSQL(r.Column.Name.QuotedName(p), r.Column)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "CHANGE "+r.OldName.QuotedName(p)+" "+decl)
	}

	pre, err := platform.PreAlterTableSQL(p, diff)
	if err != nil {
		return nil, err
	}
	post, err := platform.PostAlterTableSQL(p, diff)
	if err != nil {
		return nil, err
	}

	sql := pre
	if len(parts) > 0 {
		sql = append(sql, "ALTER TABLE "+diff.Name().QuotedName(p)+" "+strings.Join(parts, ", "))
	}
	sql = append(sql, post...)

	platform.NotifyAlterTable(cfg, diff, sql)
	return sql, nil
}

func (p *Platform) CreateIndexSQL(idx *schema.Index, table schema.Identifier) (string, error) {
	if err := platform.CheckIndex(p, idx, false, true); err != nil {
		return "", err
	}
	if idx.Primary {
		return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", table.QuotedName(p), p.indexColumns(idx)), nil
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", indexFlags(idx), idx.Name.QuotedName(p), table.QuotedName(p), p.indexColumns(idx)), nil
}

func (p *Platform) DropIndexSQL(idx *schema.Index, table schema.Identifier) string {
	if idx.Primary {
		return "ALTER TABLE " + table.QuotedName(p) + " DROP PRIMARY KEY"
	}
	return "DROP INDEX " + idx.Name.QuotedName(p) + " ON " + table.QuotedName(p)
}

// RenameIndexSQL uses RENAME INDEX from MySQL 5.7 and MariaDB 10.5.2 on, and
// drops and recreates the index on older servers.
func (p *Platform) RenameIndexSQL(oldName schema.Identifier, idx *schema.Index, table schema.Identifier) ([]string, error) {
	if p.supportsRenameIndex() {
		return []string{fmt.Sprintf("ALTER TABLE %s RENAME INDEX %s TO %s", table.QuotedName(p), oldName.QuotedName(p), idx.Name.QuotedName(p))}, nil
	}
	old := idx.Clone()
	old.Name = oldName
	create, err := p.CreateIndexSQL(idx, table)
	if err != nil {
		return nil, err
	}
	return []string{p.DropIndexSQL(old, table), create}, nil
}

func (p *Platform) CreateForeignKeySQL(fk *schema.ForeignKey, table schema.Identifier) (string, error) {
	decl, err := p.ForeignKeyDeclarationSQL(fk)
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + table.QuotedName(p) + " ADD " + decl, nil
}

func (p *Platform) DropForeignKeySQL(fk *schema.ForeignKey, table schema.Identifier) (string, error) {
	return "ALTER TABLE " + table.QuotedName(p) + " DROP FOREIGN KEY " + fk.Name.QuotedName(p), nil
}

func (p *Platform) CreateUniqueConstraintSQL(uc *schema.UniqueConstraint, table schema.Identifier) (string, error) {
	return platform.CreateUniqueConstraint(p, uc, table), nil
}

// DropUniqueConstraintSQL drops the index backing the constraint.
func (p *Platform) DropUniqueConstraintSQL(uc *schema.UniqueConstraint, table schema.Identifier) (string, error) {
	return "ALTER TABLE " + table.QuotedName(p) + " DROP INDEX " + uc.Name.QuotedName(p), nil
}
