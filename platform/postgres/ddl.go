package postgres

import (
	"fmt"
	"strings"

	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/schema"
	"github.com/sqldef/ddlgen/util"
)

// Attributes that are changed with ALTER COLUMN ... TYPE.
var typeProperties = []string{
	schema.PropertyType,
	schema.PropertyLength,
	schema.PropertyPrecision,
	schema.PropertyScale,
	schema.PropertyFixed,
	schema.PropertyCollation,
	schema.PropertyColumnDefinition,
}

// CreateTableSQL renders the table with its unique constraints and primary
// key, followed by its indexes, foreign keys and comments as separate statements.
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
		parts = append(parts, "PRIMARY KEY("+platform.IndexColumnList(p, pk)+")")
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

	if table.Options.Comment != "" {
		sql = append(sql, fmt.Sprintf("COMMENT ON TABLE %s IS %s", table.Name.QuotedName(p), p.QuoteStringLiteral(table.Options.Comment)))
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

	cfg.Notify(platform.Event{Kind: platform.EventCreateTable, Table: table.Name, SQL: sql})
	return sql, nil
}

func (p *Platform) DropTableSQL(table schema.Identifier) string {
	return "DROP TABLE " + table.QuotedName(p)
}

// AlterTableSQL renders one statement per column step. Renamed columns are
// renamed before their other attributes change, and the table itself is
// renamed last so that every column step refers to the current name.
func (p *Platform) AlterTableSQL(diff *schema.TableDiff, opts ...platform.RenderOption) ([]string, error) {
	cfg := platform.ApplyRenderOptions(opts)
	table := diff.Name()
	alter := "ALTER TABLE " + table.QuotedName(p) + " "

	var columnSQL []string
	for _, column := range diff.AddedColumns() {
		decl, err := p.ColumnDeclarationSQL(column.Name.QuotedName(p), column)
		if err != nil {
			return nil, err
		}
		columnSQL = append(columnSQL, alter+"ADD "+decl)
		if comment := column.CommentText(); comment != "" {
			stmt, err := p.CommentOnColumnSQL(table, column.Name, comment)
			if err != nil {
				return nil, err
			}
			columnSQL = append(columnSQL, stmt)
		}
	}
	for _, column := range diff.RemovedColumns() {
		columnSQL = append(columnSQL, alter+"DROP "+column.Name.QuotedName(p))
	}
	for _, r := range diff.RenamedColumns() {
		columnSQL = append(columnSQL, alter+"RENAME COLUMN "+r.OldName.QuotedName(p)+" TO "+r.Column.Name.QuotedName(p))
	}
	for _, cd := range diff.ChangedColumns() {
		stmts, err := p.changeColumnSQL(table, cd)
		if err != nil {
			return nil, err
		}
		columnSQL = append(columnSQL, stmts...)
	}
	if newName, ok := diff.NewName(); ok {
		columnSQL = append(columnSQL, alter+"RENAME TO "+newName.QuotedName(p))
	}

	pre, err := platform.PreAlterTableSQL(p, diff)
	if err != nil {
		return nil, err
	}
	post, err := platform.PostAlterTableSQL(p, diff)
	if err != nil {
		return nil, err
	}
	sql := append(append(pre, columnSQL...), post...)

	platform.NotifyAlterTable(cfg, diff, sql)
	return sql, nil
}

func (p *Platform) changeColumnSQL(table schema.Identifier, cd *schema.ColumnDiff) ([]string, error) {
	column := cd.Column()
	name := column.Name.QuotedName(p)
	alter := "ALTER TABLE " + table.QuotedName(p) + " "

	if column.ColumnDefinition == "" && column.Charset != "" {
		return nil, platform.Unsupported(p, "character set on column "+column.Name.Name)
	}

	// PostgreSQL has no unsigned integers, so a change of unsigned alone
	// renders nothing.
	var sql []string
	if cd.IsRename() {
		sql = append(sql, alter+"RENAME COLUMN "+cd.OldName().QuotedName(p)+" TO "+name)
	}

	if cd.HasChangedAny(typeProperties...) {
		typeDecl := column.ColumnDefinition
		if typeDecl == "" {
			var err error
			if typeDecl, err = p.storageType(column); err != nil {
				return nil, err
			}
			if column.Collation != "" {
				typeDecl += " " + p.ColumnCollationDeclarationSQL(column.Collation)
			}
		}
		sql = append(sql, alter+"ALTER "+name+" TYPE "+typeDecl)
	}

	if cd.HasChanged(schema.PropertyDefault) && !column.AutoIncrement {
		if column.Default == nil {
			sql = append(sql, alter+"ALTER "+name+" DROP DEFAULT")
		} else {
			value := strings.TrimPrefix(p.DefaultValueDeclarationSQL(column), " DEFAULT ")
			sql = append(sql, alter+"ALTER "+name+" SET DEFAULT "+value)
		}
	}

	if cd.HasChanged(schema.PropertyNotNull) {
		if column.NotNull {
			sql = append(sql, alter+"ALTER "+name+" SET NOT NULL")
		} else {
			sql = append(sql, alter+"ALTER "+name+" DROP NOT NULL")
		}
	}

	if cd.HasChanged(schema.PropertyAutoIncrement) {
		if column.AutoIncrement {
			seq := p.implicitSequence(table, column)
			sql = append(sql,
				"CREATE SEQUENCE "+seq.QuotedName(p),
				fmt.Sprintf("SELECT setval(%s, (SELECT MAX(%s) FROM %s))", p.QuoteStringLiteral(seq.QuotedName(p)), name, table.QuotedName(p)),
				fmt.Sprintf("%sALTER %s SET DEFAULT nextval(%s)", alter, name, p.QuoteStringLiteral(seq.QuotedName(p))),
			)
		} else {
			sql = append(sql, alter+"ALTER "+name+" DROP DEFAULT")
		}
	}

	if cd.HasChanged(schema.PropertyComment) {
		stmt, err := p.CommentOnColumnSQL(table, column.Name, column.CommentText())
		if err != nil {
			return nil, err
		}
		sql = append(sql, stmt)
	}
	return sql, nil
}

// implicitSequence names the sequence backing a SERIAL column, in the schema of its table.
func (p *Platform) implicitSequence(table schema.Identifier, column *schema.Column) schema.Identifier {
	name := util.BuildPostgresConstraintName(table.ShortName(), column.Name.Name, "seq")
	return inNamespace(table, schema.Identifier{Name: name, Quoted: table.Quoted || column.Name.Quoted})
}

// inNamespace qualifies an object name with the schema of table. Indexes and
// sequences live in the schema of their table.
func inNamespace(table schema.Identifier, name schema.Identifier) schema.Identifier {
	return table.Qualify(name)
}

func (p *Platform) CreateIndexSQL(idx *schema.Index, table schema.Identifier) (string, error) {
	if err := platform.CheckIndex(p, idx, true, false); err != nil {
		return "", err
	}
	return platform.CreateIndex(p, idx, table, ""), nil
}

// DropIndexSQL drops the primary key through its implicit constraint name, <table>_pkey.
func (p *Platform) DropIndexSQL(idx *schema.Index, table schema.Identifier) string {
	if idx.Primary {
		pkey := schema.Identifier{Name: table.ShortName() + "_pkey", Quoted: table.Quoted}
		return platform.DropConstraint(p, pkey, table)
	}
	return "DROP INDEX " + inNamespace(table, idx.Name).QuotedName(p)
}

func (p *Platform) RenameIndexSQL(oldName schema.Identifier, idx *schema.Index, table schema.Identifier) ([]string, error) {
	return []string{fmt.Sprintf("ALTER INDEX %s RENAME TO %s", inNamespace(table, oldName).QuotedName(p), idx.Name.QuotedName(p))}, nil
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
