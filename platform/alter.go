package platform

import (
	"slices"

	"github.com/sqldef/ddlgen/schema"
)

// PreAlterTableSQL drops the foreign keys, indexes and unique constraints that
// the diff removes or redefines. It runs before the column changes, against
// the current table name.
func PreAlterTableSQL(p Platform, diff *schema.TableDiff) ([]string, error) {
	table := diff.Name()
	var sql []string

	if p.SupportsCreateDropForeignKeyConstraints() {
		for _, fk := range append(diff.RemovedForeignKeys(), diff.ChangedForeignKeys()...) {
			stmt, err := p.DropForeignKeySQL(fk, table)
			if err != nil {
				return nil, err
			}
			sql = append(sql, stmt)
		}
	}
	for _, idx := range append(diff.RemovedIndexes(), diff.ChangedIndexes()...) {
		sql = append(sql, p.DropIndexSQL(idx, table))
	}
	for _, uc := range diff.RemovedUniqueConstraints() {
		stmt, err := p.DropUniqueConstraintSQL(uc, table)
		if err != nil {
			return nil, err
		}
		sql = append(sql, stmt)
	}
	return sql, nil
}

// PostAlterTableSQL creates the foreign keys, indexes and unique constraints
// that the diff adds or redefines, and renames indexes, against the new table name.
func PostAlterTableSQL(p Platform, diff *schema.TableDiff) ([]string, error) {
	table := diff.TargetName()
	var sql []string

	if p.SupportsCreateDropForeignKeyConstraints() {
		for _, fk := range append(diff.AddedForeignKeys(), diff.ChangedForeignKeys()...) {
			stmt, err := p.CreateForeignKeySQL(fk, table)
			if err != nil {
				return nil, err
			}
			sql = append(sql, stmt)
		}
	}
	for _, idx := range append(diff.AddedIndexes(), diff.ChangedIndexes()...) {
		stmt, err := p.CreateIndexSQL(idx, table)
		if err != nil {
			return nil, err
		}
		sql = append(sql, stmt)
	}
	for _, r := range diff.RenamedIndexes() {
		stmts, err := p.RenameIndexSQL(r.OldName, r.Index, table)
		if err != nil {
			return nil, err
		}
		sql = append(sql, stmts...)
	}
	for _, uc := range diff.AddedUniqueConstraints() {
		stmt, err := p.CreateUniqueConstraintSQL(uc, table)
		if err != nil {
			return nil, err
		}
		sql = append(sql, stmt)
	}
	return sql, nil
}

// NotifyAlterTable reports every column step of diff to cfg, then the whole
// ALTER with its statements.
func NotifyAlterTable(cfg RenderConfig, diff *schema.TableDiff, sql []string) {
	if cfg.Observer == nil {
		return
	}
	table := diff.Name()
	for _, c := range diff.AddedColumns() {
		cfg.Notify(Event{Kind: EventAlterTableAddColumn, Table: table, Column: c})
	}
	for _, c := range diff.RemovedColumns() {
		cfg.Notify(Event{Kind: EventAlterTableRemoveColumn, Table: table, Column: c})
	}
	for _, cd := range diff.ChangedColumns() {
		cfg.Notify(Event{Kind: EventAlterTableChangeColumn, Table: table, Column: cd.Column(), OldName: cd.OldName()})
	}
	for _, r := range diff.RenamedColumns() {
		cfg.Notify(Event{Kind: EventAlterTableRenameColumn, Table: table, Column: r.Column, OldName: r.OldName})
	}
	cfg.Notify(Event{Kind: EventAlterTable, Table: table, SQL: slices.Clone(sql)})
}

// SchemaDiffSQL renders a whole schema diff: new namespaces, orphaned foreign
// key drops, sequences, new tables in dependency order followed by their
// foreign keys, dropped tables in reverse dependency order, and finally the
// altered tables. Namespaces are skipped on platforms without schemas.
func SchemaDiffSQL(p Platform, diff *schema.SchemaDiff, opts ...RenderOption) ([]string, error) {
	cfg := ApplyRenderOptions(opts)
	var sql []string
	add := func(stmt string, err error) error {
		if err != nil {
			return err
		}
		sql = append(sql, stmt)
		return nil
	}

	if p.SupportsSchemas() {
		for _, ns := range diff.NewNamespaces {
			if err := add(p.CreateSchemaSQL(ns)); err != nil {
				return nil, err
			}
		}
	}

	if !cfg.SkipDrop && p.SupportsCreateDropForeignKeyConstraints() {
		for _, orphan := range diff.OrphanedForeignKeys {
			if err := add(p.DropForeignKeySQL(orphan.ForeignKey, orphan.Table)); err != nil {
				return nil, err
			}
		}
	}

	for _, seq := range diff.ChangedSequences {
		if err := add(p.AlterSequenceSQL(seq)); err != nil {
			return nil, err
		}
	}
	if !cfg.SkipDrop {
		for _, seq := range diff.RemovedSequences {
			if err := add(p.DropSequenceSQL(seq)); err != nil {
				return nil, err
			}
		}
	}
	for _, seq := range diff.NewSequences {
		if err := add(p.CreateSequenceSQL(seq)); err != nil {
			return nil, err
		}
	}

	newTables := schema.SortTablesByDependencies(diff.NewTables)
	flags := CreateAll
	if p.SupportsCreateDropForeignKeyConstraints() {
		flags = CreateIndexes
	}
	for _, table := range newTables {
		stmts, err := p.CreateTableSQL(table, flags, opts...)
		if err != nil {
			return nil, err
		}
		sql = append(sql, stmts...)
	}
	if !flags.Has(CreateForeignKeys) {
		for _, table := range newTables {
			for _, fk := range table.ForeignKeys() {
				if err := add(p.CreateForeignKeySQL(fk, table.Name)); err != nil {
					return nil, err
				}
			}
		}
	}

	if !cfg.SkipDrop {
		removed := schema.SortTablesByDependencies(diff.RemovedTables)
		slices.Reverse(removed)
		for _, table := range removed {
			stmt := p.DropTableSQL(table.Name)
			sql = append(sql, stmt)
			cfg.Notify(Event{Kind: EventDropTable, Table: table.Name, SQL: []string{stmt}})
		}
	}

	for _, td := range diff.ChangedTables {
		stmts, err := p.AlterTableSQL(td, opts...)
		if err != nil {
			return nil, err
		}
		sql = append(sql, stmts...)
	}
	return sql, nil
}
