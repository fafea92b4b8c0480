package sqlite

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sqldef/ddlgen/platform"
	"github.com/sqldef/ddlgen/schema"
)

const tempTablePrefix = "__temp__"

// CreateTableSQL renders foreign keys and unique constraints inline, since
// SQLite cannot add them to an existing table. Indexes follow as separate
// statements.
func (p *Platform) CreateTableSQL(table *schema.Table, flags platform.CreateFlags, opts ...platform.RenderOption) ([]string, error) {
	cfg := platform.ApplyRenderOptions(opts)
	if err := platform.CheckCreateTable(table); err != nil {
		return nil, err
	}
	if err := p.checkAutoIncrement(table); err != nil {
		return nil, err
	}

	parts, err := platform.ColumnDeclarations(p, table, cfg)
	if err != nil {
		return nil, err
	}
	if pk := table.PrimaryKey(); pk != nil && !autoIncrementKey(table) {
		parts = append(parts, "PRIMARY KEY("+platform.IndexColumnList(p, pk)+")")
	}
	for _, uc := range table.UniqueConstraints() {
		parts = append(parts, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", uc.Name.QuotedName(p), strings.Join(schema.QuoteNames(p, uc.Columns), ", ")))
	}
	if flags.Has(platform.CreateForeignKeys) {
		for _, fk := range table.ForeignKeys() {
			decl, err := p.ForeignKeyDeclarationSQL(fk)
			if err != nil {
				return nil, err
			}
			parts = append(parts, decl)
		}
	}

	name := table.Name.QuotedName(p)
	if comment := table.Options.Comment; comment != "" {
		inline, _ := p.InlineColumnCommentSQL(comment)
		name += " " + inline
	}
	sql := []string{fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(parts, ", "))}

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

	cfg.Notify(platform.Event{Kind: platform.EventCreateTable, Table: table.Name, SQL: sql})
	return sql, nil
}

// autoIncrementKey reports whether the primary key is a single autoincrement
// column, which declares itself PRIMARY KEY inline.
func autoIncrementKey(table *schema.Table) bool {
	pk := table.PrimaryKeyColumns()
	if len(pk) != 1 {
		return false
	}
	c, ok := table.Column(pk[0])
	return ok && c.AutoIncrement && c.Type.IsInteger()
}

func (p *Platform) checkAutoIncrement(table *schema.Table) error {
	for _, c := range table.Columns() {
		if !c.AutoIncrement || !c.Type.IsInteger() {
			continue
		}
		pk := table.PrimaryKeyColumns()
		if len(pk) > 0 && !(len(pk) == 1 && c.Name.EqualFold(schema.NewName(pk[0]))) {
			return platform.Unsupported(p, "autoincrement column "+c.Name.Name+" outside a single-column primary key")
		}
	}
	return nil
}

func (p *Platform) DropTableSQL(table schema.Identifier) string {
	return "DROP TABLE " + table.QuotedName(p)
}

// AlterTableSQL uses ALTER TABLE when SQLite can apply every change of diff
// in place. Otherwise the table is rebuilt: its rows are copied to a
// temporary table, the table is recreated with the new definition and the
// rows are copied back.
func (p *Platform) AlterTableSQL(diff *schema.TableDiff, opts ...platform.RenderOption) ([]string, error) {
	cfg := platform.ApplyRenderOptions(opts)

	var sql []string
	var err error
	if p.alterableInPlace(diff) {
		sql, err = p.alterInPlaceSQL(diff)
	} else {
		sql, err = p.rebuildTableSQL(diff)
	}
	if err != nil {
		return nil, err
	}

	platform.NotifyAlterTable(cfg, diff, sql)
	return sql, nil
}

func (p *Platform) alterableInPlace(diff *schema.TableDiff) bool {
	if len(diff.AddedForeignKeys()) > 0 || len(diff.RemovedForeignKeys()) > 0 || len(diff.ChangedForeignKeys()) > 0 {
		return false
	}
	if len(diff.AddedUniqueConstraints()) > 0 || len(diff.RemovedUniqueConstraints()) > 0 {
		return false
	}
	indexes := append(append(diff.AddedIndexes(), diff.RemovedIndexes()...), diff.ChangedIndexes()...)
	if slices.ContainsFunc(indexes, func(idx *schema.Index) bool { return idx.Primary }) {
		return false
	}

	for _, c := range diff.AddedColumns() {
		if !p.addable(c) {
			return false
		}
	}
	for _, c := range diff.RemovedColumns() {
		if !droppable(diff, c.Name) {
			return false
		}
	}
	for _, cd := range diff.ChangedColumns() {
		// A change without a rename needs ALTER COLUMN, which SQLite lacks.
		if !cd.IsRename() || !p.addable(cd.Column()) || !droppable(diff, cd.OldName()) {
			return false
		}
	}
	return true
}

// addable reports whether ADD COLUMN accepts column: it must not be a key and
// needs a constant default when it is NOT NULL.
func (p *Platform) addable(column *schema.Column) bool {
	if column.AutoIncrement || column.ColumnDefinition != "" {
		return false
	}
	if column.Default == nil {
		return !column.NotNull
	}
	if column.Default.Expression {
		return false
	}
	switch column.Default.Value {
	case p.CurrentTimestampSQL(), p.CurrentDateSQL(), p.CurrentTimeSQL():
		return false
	}
	return true
}

// droppable reports whether DROP COLUMN can remove name: the column must not
// be part of a key, a constraint, or an index that survives the diff.
func droppable(diff *schema.TableDiff, name schema.Identifier) bool {
	from := diff.FromTable()
	if from == nil {
		return true
	}
	dropped := append(diff.RemovedIndexes(), diff.ChangedIndexes()...)
	for _, idx := range from.Indexes() {
		if idx.Primary || !slices.ContainsFunc(dropped, func(d *schema.Index) bool { return d.Name.EqualFold(idx.Name) }) {
			if containsColumn(idx.Columns, name) {
				return false
			}
		}
	}
	for _, fk := range from.ForeignKeys() {
		if containsColumn(fk.Columns, name) {
			return false
		}
	}
	for _, uc := range from.UniqueConstraints() {
		if containsColumn(uc.Columns, name) {
			return false
		}
	}
	return true
}

func containsColumn(columns []string, name schema.Identifier) bool {
	return slices.ContainsFunc(columns, func(c string) bool {
		return schema.NewName(c).EqualFold(name)
	})
}

// alterInPlaceSQL splits a rename with other changes into DROP COLUMN of the
// old column and ADD COLUMN of the new one.
func (p *Platform) alterInPlaceSQL(diff *schema.TableDiff) ([]string, error) {
	alter := "ALTER TABLE " + diff.Name().QuotedName(p) + " "

	var columnSQL []string
	for _, r := range diff.RenamedColumns() {
		columnSQL = append(columnSQL, alter+"RENAME COLUMN "+r.OldName.QuotedName(p)+" TO "+r.Column.Name.QuotedName(p))
	}
	for _, c := range diff.RemovedColumns() {
		columnSQL = append(columnSQL, alter+"DROP COLUMN "+c.Name.QuotedName(p))
	}
	for _, cd := range diff.ChangedColumns() {
		decl, err := p.ColumnDeclarationSQL(cd.Column().Name.QuotedName(p), cd.Column())
		if err != nil {
			return nil, err
		}
		columnSQL = append(columnSQL,
			alter+"DROP COLUMN "+cd.OldName().QuotedName(p),
			alter+"ADD COLUMN "+decl,
		)
	}
	for _, c := range diff.AddedColumns() {
		decl, err := p.ColumnDeclarationSQL(c.Name.QuotedName(p), c)
		if err != nil {
			return nil, err
		}
		columnSQL = append(columnSQL, alter+"ADD COLUMN "+decl)
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
	return append(append(pre, columnSQL...), post...), nil
}

func (p *Platform) rebuildTableSQL(diff *schema.TableDiff) ([]string, error) {
	from := diff.FromTable()
	if from == nil {
		return nil, &schema.DefinitionError{Object: "table " + diff.Name().Name, Reason: "rebuilding the table requires its current definition"}
	}
	table, err := diff.Apply(from)
	if err != nil {
		return nil, err
	}
	table.Name = diff.Name()

	current := diff.Name().QuotedName(p)
	temp := schema.Identifier{Name: tempTablePrefix + diff.Name().ShortName(), Quoted: diff.Name().Quoted}.QuotedName(p)

	var sql []string
	for _, idx := range from.Indexes() {
		if !idx.Primary {
			sql = append(sql, p.DropIndexSQL(idx, diff.Name()))
		}
	}

	sources := diff.SourceColumns(from)
	var newColumns, oldColumns []string
	for _, c := range table.Columns() {
		if source, ok := sources[c.Name.Normalized()]; ok {
			newColumns = append(newColumns, c.Name.QuotedName(p))
			oldColumns = append(oldColumns, source.QuotedName(p))
		}
	}

	copyRows := len(oldColumns) > 0
	if copyRows {
		sql = append(sql, fmt.Sprintf("CREATE TEMPORARY TABLE %s AS SELECT %s FROM %s", temp, strings.Join(oldColumns, ", "), current))
	}
	sql = append(sql, "DROP TABLE "+current)

	create, err := p.CreateTableSQL(table, platform.CreateForeignKeys)
	if err != nil {
		return nil, err
	}
	sql = append(sql, create...)

	if copyRows {
		sql = append(sql,
			fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", current, strings.Join(newColumns, ", "), strings.Join(oldColumns, ", "), temp),
			"DROP TABLE "+temp,
		)
	}
	if newName, ok := diff.NewName(); ok {
		sql = append(sql, "ALTER TABLE "+current+" RENAME TO "+newName.QuotedName(p))
	}

	for _, idx := range table.Indexes() {
		if idx.Primary {
			continue
		}
		stmt, err := p.CreateIndexSQL(idx, diff.TargetName())
		if err != nil {
			return nil, err
		}
		sql = append(sql, stmt)
	}
	return sql, nil
}

// CreateIndexSQL cannot add a primary key; that requires rebuilding the table.
func (p *Platform) CreateIndexSQL(idx *schema.Index, table schema.Identifier) (string, error) {
	if idx.Primary {
		return "", platform.Unsupported(p, "adding a primary key to an existing table")
	}
	if err := platform.CheckIndex(p, idx, true, false); err != nil {
		return "", err
	}
	return platform.CreateIndex(p, idx, table, ""), nil
}

func (p *Platform) DropIndexSQL(idx *schema.Index, table schema.Identifier) string {
	return "DROP INDEX " + idx.Name.QuotedName(p)
}

// RenameIndexSQL drops and recreates the index; SQLite cannot rename one.
func (p *Platform) RenameIndexSQL(oldName schema.Identifier, idx *schema.Index, table schema.Identifier) ([]string, error) {
	create, err := p.CreateIndexSQL(idx, table)
	if err != nil {
		return nil, err
	}
	return []string{"DROP INDEX " + oldName.QuotedName(p), create}, nil
}

func (p *Platform) CreateForeignKeySQL(fk *schema.ForeignKey, table schema.Identifier) (string, error) {
	return "", platform.Unsupported(p, "adding a foreign key to an existing table")
}

func (p *Platform) DropForeignKeySQL(fk *schema.ForeignKey, table schema.Identifier) (string, error) {
	return "", platform.Unsupported(p, "dropping a foreign key")
}

func (p *Platform) CreateUniqueConstraintSQL(uc *schema.UniqueConstraint, table schema.Identifier) (string, error) {
	return "", platform.Unsupported(p, "adding a unique constraint to an existing table")
}

func (p *Platform) DropUniqueConstraintSQL(uc *schema.UniqueConstraint, table schema.Identifier) (string, error) {
	return "", platform.Unsupported(p, "dropping a unique constraint")
}
