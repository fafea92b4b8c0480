package schema

import (
	"slices"
)

// Apply returns a copy of from with every change of d applied, named after
// TargetName. It fails when d refers to an object from does not have.
func (d *TableDiff) Apply(from *Table) (*Table, error) {
	table := from.Clone()
	table.Name = d.TargetName()

	missing := func(kind string, name Identifier) error {
		return table.definitionError("%s %s does not exist", kind, name.Name)
	}
	columnNamed := func(name Identifier) func(*Column) bool {
		return func(c *Column) bool { return c.Name.EqualFold(name) }
	}
	sameIndex := func(target *Index) func(*Index) bool {
		return func(idx *Index) bool {
			if target.Primary {
				return idx.Primary
			}
			return idx.Name.EqualFold(target.Name)
		}
	}

	for _, c := range d.removedColumns {
		table.columns = slices.DeleteFunc(table.columns, columnNamed(c.Name))
	}
	for _, r := range d.renamedColumns {
		i := slices.IndexFunc(table.columns, columnNamed(r.OldName))
		if i < 0 {
			return nil, missing("column", r.OldName)
		}
		table.columns[i] = r.Column.Clone()
	}
	for _, cd := range d.changedColumns {
		i := slices.IndexFunc(table.columns, columnNamed(cd.oldName))
		if i < 0 {
			return nil, missing("column", cd.oldName)
		}
		table.columns[i] = cd.column.Clone()
	}
	for _, c := range d.addedColumns {
		table.columns = append(table.columns, c.Clone())
	}

	for _, idx := range d.removedIndexes {
		table.indexes = slices.DeleteFunc(table.indexes, sameIndex(idx))
	}
	for _, idx := range d.changedIndexes {
		i := slices.IndexFunc(table.indexes, sameIndex(idx))
		if i < 0 {
			return nil, missing("index", idx.Name)
		}
		table.indexes[i] = idx.Clone()
	}
	for _, r := range d.renamedIndexes {
		i := slices.IndexFunc(table.indexes, func(idx *Index) bool { return idx.Name.EqualFold(r.OldName) })
		if i < 0 {
			return nil, missing("index", r.OldName)
		}
		table.indexes[i] = r.Index.Clone()
	}
	for _, idx := range d.addedIndexes {
		table.indexes = append(table.indexes, idx.Clone())
	}

	fkNamed := func(name Identifier) func(*ForeignKey) bool {
		return func(fk *ForeignKey) bool { return fk.Name.EqualFold(name) }
	}
	for _, fk := range d.removedForeignKeys {
		table.foreignKeys = slices.DeleteFunc(table.foreignKeys, fkNamed(fk.Name))
	}
	for _, fk := range d.changedForeignKeys {
		i := slices.IndexFunc(table.foreignKeys, fkNamed(fk.Name))
		if i < 0 {
			return nil, missing("foreign key", fk.Name)
		}
		table.foreignKeys[i] = fk.Clone()
	}
	for _, fk := range d.addedForeignKeys {
		table.foreignKeys = append(table.foreignKeys, fk.Clone())
	}

	for _, uc := range d.removedUniqueConstraints {
		table.uniqueConstraints = slices.DeleteFunc(table.uniqueConstraints, func(u *UniqueConstraint) bool { return u.Name.EqualFold(uc.Name) })
	}
	for _, uc := range d.addedUniqueConstraints {
		table.uniqueConstraints = append(table.uniqueConstraints, uc.Clone())
	}
	return table, nil
}

// SourceColumns maps every column of the table after d is applied to the
// column of from it is filled from. Added columns are absent.
func (d *TableDiff) SourceColumns(from *Table) map[string]Identifier {
	sources := map[string]Identifier{}
	for _, c := range from.columns {
		sources[c.Name.Normalized()] = c.Name
	}
	for _, c := range d.removedColumns {
		delete(sources, c.Name.Normalized())
	}
	renames := map[string]Identifier{}
	for _, r := range d.renamedColumns {
		renames[r.OldName.Normalized()] = r.Column.Name
	}
	for _, cd := range d.changedColumns {
		renames[cd.oldName.Normalized()] = cd.column.Name
	}
	result := map[string]Identifier{}
	for key, name := range sources {
		if newName, ok := renames[key]; ok {
			result[newName.Normalized()] = name
		} else {
			result[key] = name
		}
	}
	return result
}
