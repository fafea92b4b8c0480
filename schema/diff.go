package schema

import (
	"slices"
)

// Column attributes reported by DiffColumn.
const (
	PropertyType             = "type"
	PropertyLength           = "length"
	PropertyPrecision        = "precision"
	PropertyScale            = "scale"
	PropertyFixed            = "fixed"
	PropertyUnsigned         = "unsigned"
	PropertyNotNull          = "notnull"
	PropertyDefault          = "default"
	PropertyAutoIncrement    = "autoincrement"
	PropertyComment          = "comment"
	PropertyCharset          = "charset"
	PropertyCollation        = "collation"
	PropertyColumnDefinition = "columnDefinition"
)

// ColumnDiff describes a column whose definition changes. The column may be
// renamed at the same time, in which case OldName differs from Column().Name.
type ColumnDiff struct {
	oldName    Identifier
	column     *Column
	fromColumn *Column
	changed    []string
}

// NewColumnDiff builds a ColumnDiff. fromColumn is the previous definition and may be nil.
func NewColumnDiff(oldName string, column *Column, changedProperties []string, fromColumn *Column) *ColumnDiff {
	return &ColumnDiff{
		oldName:    NewName(oldName),
		column:     column,
		fromColumn: fromColumn,
		changed:    slices.Clone(changedProperties),
	}
}

func (d *ColumnDiff) OldName() Identifier {
	return d.oldName
}

func (d *ColumnDiff) Column() *Column {
	return d.column
}

func (d *ColumnDiff) FromColumn() *Column {
	return d.fromColumn
}

func (d *ColumnDiff) ChangedProperties() []string {
	return slices.Clone(d.changed)
}

func (d *ColumnDiff) HasChanged(property string) bool {
	return slices.Contains(d.changed, property)
}

// HasChangedAny reports whether any of properties changed.
func (d *ColumnDiff) HasChangedAny(properties ...string) bool {
	return slices.ContainsFunc(properties, d.HasChanged)
}

// IsRename reports whether the column also changes its name.
func (d *ColumnDiff) IsRename() bool {
	return !d.oldName.EqualFold(d.column.Name)
}

type RenamedColumn struct {
	OldName Identifier
	Column  *Column
}

type RenamedIndex struct {
	OldName Identifier
	Index   *Index
}

// TableDiff describes the changes turning one table into another. It is built
// once through NewTableDiff and never modified afterwards; accessors return copies.
type TableDiff struct {
	name      Identifier
	fromTable *Table
	newName   *Identifier

	addedColumns   []*Column
	removedColumns []*Column
	changedColumns []*ColumnDiff
	renamedColumns []RenamedColumn

	addedIndexes   []*Index
	removedIndexes []*Index
	changedIndexes []*Index
	renamedIndexes []RenamedIndex

	addedForeignKeys   []*ForeignKey
	removedForeignKeys []*ForeignKey
	changedForeignKeys []*ForeignKey

	addedUniqueConstraints   []*UniqueConstraint
	removedUniqueConstraints []*UniqueConstraint
}

type TableDiffOption func(*TableDiff)

// NewTableDiff builds the diff of the table called name.
func NewTableDiff(name string, opts ...TableDiffOption) *TableDiff {
	d := &TableDiff{name: NewIdentifier(name)}
	for _, opt := range opts {
		opt(d)
	}
	if d.fromTable != nil && d.fromTable.Name.EqualFold(d.name) {
		d.name = d.fromTable.Name
	}
	if d.newName != nil && d.newName.EqualFold(d.name) {
		d.newName = nil
	}
	return d
}

// WithFromTable attaches the previous snapshot of the table. Some platforms
// need it to rebuild the table.
func WithFromTable(t *Table) TableDiffOption {
	return func(d *TableDiff) { d.fromTable = t }
}

// WithNewName renames the table. Renaming to the current name is a no-op.
func WithNewName(name string) TableDiffOption {
	return func(d *TableDiff) {
		id := NewIdentifier(name)
		d.newName = &id
	}
}

func WithAddedColumns(columns ...*Column) TableDiffOption {
	return func(d *TableDiff) { d.addedColumns = append(d.addedColumns, columns...) }
}

func WithRemovedColumns(columns ...*Column) TableDiffOption {
	return func(d *TableDiff) { d.removedColumns = append(d.removedColumns, columns...) }
}

func WithChangedColumns(diffs ...*ColumnDiff) TableDiffOption {
	return func(d *TableDiff) { d.changedColumns = append(d.changedColumns, diffs...) }
}

// WithRenamedColumn records a pure rename of oldName to column.
func WithRenamedColumn(oldName string, column *Column) TableDiffOption {
	return func(d *TableDiff) {
		d.renamedColumns = append(d.renamedColumns, RenamedColumn{OldName: NewName(oldName), Column: column})
	}
}

func WithAddedIndexes(indexes ...*Index) TableDiffOption {
	return func(d *TableDiff) { d.addedIndexes = append(d.addedIndexes, indexes...) }
}

func WithRemovedIndexes(indexes ...*Index) TableDiffOption {
	return func(d *TableDiff) { d.removedIndexes = append(d.removedIndexes, indexes...) }
}

func WithChangedIndexes(indexes ...*Index) TableDiffOption {
	return func(d *TableDiff) { d.changedIndexes = append(d.changedIndexes, indexes...) }
}

// WithRenamedIndex records that the index oldName becomes index.
func WithRenamedIndex(oldName string, index *Index) TableDiffOption {
	return func(d *TableDiff) {
		d.renamedIndexes = append(d.renamedIndexes, RenamedIndex{OldName: NewName(oldName), Index: index})
	}
}

func WithAddedForeignKeys(fks ...*ForeignKey) TableDiffOption {
	return func(d *TableDiff) { d.addedForeignKeys = append(d.addedForeignKeys, fks...) }
}

func WithRemovedForeignKeys(fks ...*ForeignKey) TableDiffOption {
	return func(d *TableDiff) { d.removedForeignKeys = append(d.removedForeignKeys, fks...) }
}

func WithChangedForeignKeys(fks ...*ForeignKey) TableDiffOption {
	return func(d *TableDiff) { d.changedForeignKeys = append(d.changedForeignKeys, fks...) }
}

func WithAddedUniqueConstraints(ucs ...*UniqueConstraint) TableDiffOption {
	return func(d *TableDiff) { d.addedUniqueConstraints = append(d.addedUniqueConstraints, ucs...) }
}

func WithRemovedUniqueConstraints(ucs ...*UniqueConstraint) TableDiffOption {
	return func(d *TableDiff) { d.removedUniqueConstraints = append(d.removedUniqueConstraints, ucs...) }
}

func (d *TableDiff) Name() Identifier {
	return d.name
}

func (d *TableDiff) FromTable() *Table {
	return d.fromTable
}

// NewName returns the new table name when the table is renamed.
func (d *TableDiff) NewName() (Identifier, bool) {
	if d.newName == nil {
		return Identifier{}, false
	}
	return *d.newName, true
}

// TargetName is the name of the table once the diff is applied.
func (d *TableDiff) TargetName() Identifier {
	if d.newName != nil {
		return *d.newName
	}
	return d.name
}

func (d *TableDiff) AddedColumns() []*Column {
	return slices.Clone(d.addedColumns)
}

func (d *TableDiff) RemovedColumns() []*Column {
	return slices.Clone(d.removedColumns)
}

func (d *TableDiff) ChangedColumns() []*ColumnDiff {
	return slices.Clone(d.changedColumns)
}

func (d *TableDiff) RenamedColumns() []RenamedColumn {
	return slices.Clone(d.renamedColumns)
}

func (d *TableDiff) AddedIndexes() []*Index {
	return slices.Clone(d.addedIndexes)
}

func (d *TableDiff) RemovedIndexes() []*Index {
	return slices.Clone(d.removedIndexes)
}

func (d *TableDiff) ChangedIndexes() []*Index {
	return slices.Clone(d.changedIndexes)
}

func (d *TableDiff) RenamedIndexes() []RenamedIndex {
	return slices.Clone(d.renamedIndexes)
}

func (d *TableDiff) AddedForeignKeys() []*ForeignKey {
	return slices.Clone(d.addedForeignKeys)
}

func (d *TableDiff) RemovedForeignKeys() []*ForeignKey {
	return slices.Clone(d.removedForeignKeys)
}

func (d *TableDiff) ChangedForeignKeys() []*ForeignKey {
	return slices.Clone(d.changedForeignKeys)
}

func (d *TableDiff) AddedUniqueConstraints() []*UniqueConstraint {
	return slices.Clone(d.addedUniqueConstraints)
}

func (d *TableDiff) RemovedUniqueConstraints() []*UniqueConstraint {
	return slices.Clone(d.removedUniqueConstraints)
}

// IsEmpty reports whether applying the diff changes nothing.
func (d *TableDiff) IsEmpty() bool {
	return d.newName == nil &&
		len(d.addedColumns) == 0 && len(d.removedColumns) == 0 &&
		len(d.changedColumns) == 0 && len(d.renamedColumns) == 0 &&
		len(d.addedIndexes) == 0 && len(d.removedIndexes) == 0 &&
		len(d.changedIndexes) == 0 && len(d.renamedIndexes) == 0 &&
		len(d.addedForeignKeys) == 0 && len(d.removedForeignKeys) == 0 &&
		len(d.changedForeignKeys) == 0 &&
		len(d.addedUniqueConstraints) == 0 && len(d.removedUniqueConstraints) == 0
}

// withoutRemovedForeignKey returns a copy of d that no longer drops fk.
func (d *TableDiff) withoutRemovedForeignKey(fk *ForeignKey) *TableDiff {
	clone := *d
	clone.removedForeignKeys = slices.DeleteFunc(slices.Clone(d.removedForeignKeys), func(r *ForeignKey) bool {
		return r.Name.EqualFold(fk.Name)
	})
	return &clone
}

// OrphanedForeignKey is a foreign key of a surviving table that references a dropped table.
type OrphanedForeignKey struct {
	Table      Identifier
	ForeignKey *ForeignKey
}

// SchemaDiff aggregates the differences between two schemas.
type SchemaDiff struct {
	FromSchema *Schema

	NewNamespaces     []string
	RemovedNamespaces []string

	NewTables     []*Table
	ChangedTables []*TableDiff
	RemovedTables []*Table

	NewSequences     []*Sequence
	ChangedSequences []*Sequence
	RemovedSequences []*Sequence

	OrphanedForeignKeys []OrphanedForeignKey
}

func (d *SchemaDiff) IsEmpty() bool {
	return len(d.NewNamespaces) == 0 && len(d.RemovedNamespaces) == 0 &&
		len(d.NewTables) == 0 && len(d.ChangedTables) == 0 && len(d.RemovedTables) == 0 &&
		len(d.NewSequences) == 0 && len(d.ChangedSequences) == 0 && len(d.RemovedSequences) == 0 &&
		len(d.OrphanedForeignKeys) == 0
}
