package schema

import (
	"fmt"
	"hash/crc32"
	"slices"
	"strings"
)

const (
	primaryKeyName      = "primary"
	maxIdentifierLength = 30
)

type TableOptions struct {
	Engine    string `yaml:"engine"`
	Charset   string `yaml:"charset"`
	Collation string `yaml:"collation"`
	Comment   string `yaml:"comment"`
}

// Table owns its columns in declaration order, its indexes (the primary key
// included), foreign keys and unique constraints. Names are unique
// case-insensitively within each collection.
type Table struct {
	Name    Identifier
	Options TableOptions

	columns           []*Column
	indexes           []*Index
	foreignKeys       []*ForeignKey
	uniqueConstraints []*UniqueConstraint
}

func NewTable(name string, columns ...*Column) (*Table, error) {
	t := &Table{Name: NewIdentifier(name)}
	for _, c := range columns {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) definitionError(format string, args ...any) error {
	return &DefinitionError{Object: "table " + t.Name.Name, Reason: fmt.Sprintf(format, args...)}
}

func (t *Table) AddColumn(c *Column) error {
	if t.HasColumn(c.Name.Raw()) {
		return t.definitionError("column %s is already defined", c.Name.Name)
	}
	t.columns = append(t.columns, c)
	return nil
}

func (t *Table) Columns() []*Column {
	return slices.Clone(t.columns)
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name.Name
	}
	return names
}

func (t *Table) Column(name string) (*Column, bool) {
	key := NewName(name).Normalized()
	for _, c := range t.columns {
		if c.Name.Normalized() == key {
			return c, true
		}
	}
	return nil, false
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

func (t *Table) checkColumns(object string, columns []string) error {
	for _, name := range columns {
		if !t.HasColumn(name) {
			return t.definitionError("%s refers to unknown column %s", object, name)
		}
	}
	return nil
}

// SetPrimaryKey declares the primary key and marks its columns NOT NULL.
// A table has at most one primary key.
func (t *Table) SetPrimaryKey(columns []string) error {
	idx, err := NewIndex(primaryKeyName, columns, PrimaryIndex())
	if err != nil {
		return err
	}
	return t.AddIndex(idx)
}

func (t *Table) PrimaryKey() *Index {
	for _, idx := range t.indexes {
		if idx.Primary {
			return idx
		}
	}
	return nil
}

func (t *Table) HasPrimaryKey() bool {
	return t.PrimaryKey() != nil
}

// PrimaryKeyColumns returns the primary key columns, or nil.
func (t *Table) PrimaryKeyColumns() []string {
	if pk := t.PrimaryKey(); pk != nil {
		return slices.Clone(pk.Columns)
	}
	return nil
}

// AddIndex adds idx, generating a name when it has none.
func (t *Table) AddIndex(idx *Index) error {
	if idx.Primary {
		if t.HasPrimaryKey() {
			return t.definitionError("a primary key is already defined")
		}
		if idx.Name.Name == "" {
			idx.Name = NewName(primaryKeyName)
		}
	}
	if idx.Name.Name == "" {
		prefix := "idx"
		if idx.Unique {
			prefix = "uniq"
		}
		idx.Name = NewName(GenerateIdentifierName(append([]string{t.Name.Name}, idx.Columns...), prefix, maxIdentifierLength))
	}
	if _, ok := t.Index(idx.Name.Raw()); ok {
		return t.definitionError("index %s is already defined", idx.Name.Name)
	}
	if err := t.checkColumns("index "+idx.Name.Name, idx.Columns); err != nil {
		return err
	}
	if idx.Primary {
		for _, name := range idx.Columns {
			c, _ := t.Column(name)
			c.NotNull = true
		}
	}
	t.indexes = append(t.indexes, idx)
	return nil
}

// Indexes returns every index, the primary key included.
func (t *Table) Indexes() []*Index {
	return slices.Clone(t.indexes)
}

func (t *Table) Index(name string) (*Index, bool) {
	key := NewName(name).Normalized()
	for _, idx := range t.indexes {
		if idx.Name.Normalized() == key {
			return idx, true
		}
	}
	return nil, false
}

// AddForeignKey adds fk, generating a name when it has none.
func (t *Table) AddForeignKey(fk *ForeignKey) error {
	if fk.Name.Name == "" {
		fk.Name = NewName(GenerateIdentifierName(append([]string{t.Name.Name}, fk.Columns...), "fk", maxIdentifierLength))
	}
	if _, ok := t.ForeignKey(fk.Name.Raw()); ok {
		return t.definitionError("foreign key %s is already defined", fk.Name.Name)
	}
	if err := t.checkColumns("foreign key "+fk.Name.Name, fk.Columns); err != nil {
		return err
	}
	t.foreignKeys = append(t.foreignKeys, fk)
	return nil
}

func (t *Table) ForeignKeys() []*ForeignKey {
	return slices.Clone(t.foreignKeys)
}

func (t *Table) ForeignKey(name string) (*ForeignKey, bool) {
	key := NewName(name).Normalized()
	for _, fk := range t.foreignKeys {
		if fk.Name.Normalized() == key {
			return fk, true
		}
	}
	return nil, false
}

func (t *Table) AddUniqueConstraint(uc *UniqueConstraint) error {
	if uc.Name.Name == "" {
		uc.Name = NewName(GenerateIdentifierName(append([]string{t.Name.Name}, uc.Columns...), "uniq", maxIdentifierLength))
	}
	if _, ok := t.UniqueConstraint(uc.Name.Raw()); ok {
		return t.definitionError("unique constraint %s is already defined", uc.Name.Name)
	}
	if err := t.checkColumns("unique constraint "+uc.Name.Name, uc.Columns); err != nil {
		return err
	}
	t.uniqueConstraints = append(t.uniqueConstraints, uc)
	return nil
}

func (t *Table) UniqueConstraints() []*UniqueConstraint {
	return slices.Clone(t.uniqueConstraints)
}

func (t *Table) UniqueConstraint(name string) (*UniqueConstraint, bool) {
	key := NewName(name).Normalized()
	for _, uc := range t.uniqueConstraints {
		if uc.Name.Normalized() == key {
			return uc, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	clone := &Table{Name: t.Name, Options: t.Options}
	for _, c := range t.columns {
		clone.columns = append(clone.columns, c.Clone())
	}
	for _, idx := range t.indexes {
		clone.indexes = append(clone.indexes, idx.Clone())
	}
	for _, fk := range t.foreignKeys {
		clone.foreignKeys = append(clone.foreignKeys, fk.Clone())
	}
	for _, uc := range t.uniqueConstraints {
		clone.uniqueConstraints = append(clone.uniqueConstraints, uc.Clone())
	}
	return clone
}

// GenerateIdentifierName derives a stable object name from the crc32 of each
// name, e.g. IDX_6F8F4C5D... for an index on a table and its columns.
func GenerateIdentifierName(names []string, prefix string, maxSize int) string {
	var hash strings.Builder
	for _, name := range names {
		fmt.Fprintf(&hash, "%x", crc32.ChecksumIEEE([]byte(name)))
	}
	name := strings.ToUpper(prefix + "_" + hash.String())
	if len(name) > maxSize {
		name = name[:maxSize]
	}
	return name
}
