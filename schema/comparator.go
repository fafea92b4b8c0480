package schema

import (
	"runtime"
	"strings"

	"github.com/sqldef/ddlgen/types"
	"github.com/sqldef/ddlgen/util"
)

const (
	defaultStringLength = 255
	defaultPrecision    = 10
)

// DiffColumn returns the names of the attributes that differ between a and b.
// Column names are not compared.
func DiffColumn(a, b *Column) []string {
	var changed []string

	if a.Type != b.Type {
		changed = append(changed, PropertyType)
	}
	if a.Type.HasLength() || b.Type.HasLength() {
		if effectiveLength(a) != effectiveLength(b) {
			changed = append(changed, PropertyLength)
		}
	}
	if a.Type == types.Decimal || b.Type == types.Decimal {
		if intOr(a.Precision, defaultPrecision) != intOr(b.Precision, defaultPrecision) {
			changed = append(changed, PropertyPrecision)
		}
		if intOr(a.Scale, 0) != intOr(b.Scale, 0) {
			changed = append(changed, PropertyScale)
		}
	}
	if (a.Type == types.String || a.Type == types.Binary) && a.Fixed != b.Fixed {
		changed = append(changed, PropertyFixed)
	}
	if a.Unsigned != b.Unsigned {
		changed = append(changed, PropertyUnsigned)
	}
	if a.NotNull != b.NotNull {
		changed = append(changed, PropertyNotNull)
	}
	if !sameDefault(a.Default, b.Default) {
		changed = append(changed, PropertyDefault)
	}
	if a.AutoIncrement != b.AutoIncrement {
		changed = append(changed, PropertyAutoIncrement)
	}
	if a.CommentText() != b.CommentText() {
		changed = append(changed, PropertyComment)
	}
	// charset and collation only count when both sides declare one
	if a.Charset != "" && b.Charset != "" && !strings.EqualFold(a.Charset, b.Charset) {
		changed = append(changed, PropertyCharset)
	}
	if a.Collation != "" && b.Collation != "" && !strings.EqualFold(a.Collation, b.Collation) {
		changed = append(changed, PropertyCollation)
	}
	if a.ColumnDefinition != b.ColumnDefinition {
		changed = append(changed, PropertyColumnDefinition)
	}
	return changed
}

func effectiveLength(c *Column) int {
	if c.Length != nil && *c.Length > 0 {
		return *c.Length
	}
	if c.Type == types.String || c.Type == types.Binary {
		return defaultStringLength
	}
	return 0
}

func intOr(p *int, fallback int) int {
	if p == nil || *p == 0 {
		return fallback
	}
	return *p
}

func sameDefault(a, b *Default) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DiffTable computes the changes turning from into to, or nil when there are none.
// A table whose name differs from from's is reported as a rename.
func DiffTable(from, to *Table) *TableDiff {
	opts := []TableDiffOption{WithFromTable(from)}
	if !from.Name.EqualFold(to.Name) {
		opts = append(opts, WithNewName(to.Name.Raw()))
	}

	opts = append(opts, diffColumns(from, to)...)
	opts = append(opts, diffIndexes(from, to)...)
	opts = append(opts, diffForeignKeys(from, to)...)
	opts = append(opts, diffUniqueConstraints(from, to)...)

	d := NewTableDiff(from.Name.Raw(), opts...)
	if d.IsEmpty() {
		return nil
	}
	return d
}

func diffColumns(from, to *Table) []TableDiffOption {
	var added, removed []*Column
	var changed []*ColumnDiff

	for _, column := range to.Columns() {
		if !from.HasColumn(column.Name.Raw()) {
			added = append(added, column)
		}
	}
	for _, column := range from.Columns() {
		toColumn, ok := to.Column(column.Name.Raw())
		if !ok {
			removed = append(removed, column)
			continue
		}
		if properties := DiffColumn(column, toColumn); len(properties) > 0 {
			changed = append(changed, NewColumnDiff(column.Name.Raw(), toColumn, properties, column))
		}
	}

	renamed, added, removed := detectColumnRenamings(added, removed)

	opts := []TableDiffOption{
		WithAddedColumns(added...),
		WithRemovedColumns(removed...),
		WithChangedColumns(changed...),
	}
	for _, r := range renamed {
		opts = append(opts, WithRenamedColumn(r.OldName.Raw(), r.Column))
	}
	return opts
}

// detectColumnRenamings pairs an added column with a removed one when the
// removed column is the only one structurally identical to it.
func detectColumnRenamings(added, removed []*Column) ([]RenamedColumn, []*Column, []*Column) {
	var renamed []RenamedColumn
	consumed := map[*Column]bool{}

	for _, a := range added {
		var candidates []*Column
		for _, r := range removed {
			if len(DiffColumn(a, r)) == 0 {
				candidates = append(candidates, r)
			}
		}
		if len(candidates) != 1 || consumed[candidates[0]] {
			continue
		}
		consumed[a] = true
		consumed[candidates[0]] = true
		renamed = append(renamed, RenamedColumn{OldName: candidates[0].Name, Column: a})
	}

	return renamed, without(added, consumed), without(removed, consumed)
}

func diffIndexes(from, to *Table) []TableDiffOption {
	var added, removed, changed []*Index

	for _, idx := range to.Indexes() {
		if idx.Primary {
			if from.HasPrimaryKey() {
				continue
			}
		} else if _, ok := from.Index(idx.Name.Raw()); ok {
			continue
		}
		added = append(added, idx)
	}

	for _, idx := range from.Indexes() {
		var toIndex *Index
		if idx.Primary {
			toIndex = to.PrimaryKey()
		} else if i, ok := to.Index(idx.Name.Raw()); ok && !i.Primary {
			toIndex = i
		}
		if toIndex == nil {
			removed = append(removed, idx)
			continue
		}
		if !idx.SameSignature(toIndex) {
			changed = append(changed, toIndex)
		}
	}

	renamed, added, removed := detectIndexRenamings(added, removed)

	opts := []TableDiffOption{
		WithAddedIndexes(added...),
		WithRemovedIndexes(removed...),
		WithChangedIndexes(changed...),
	}
	for _, r := range renamed {
		opts = append(opts, WithRenamedIndex(r.OldName.Raw(), r.Index))
	}
	return opts
}

// detectIndexRenamings reports an added index as a rename of a removed one
// when it is the only removed index with the same signature.
func detectIndexRenamings(added, removed []*Index) ([]RenamedIndex, []*Index, []*Index) {
	var renamed []RenamedIndex
	consumed := map[*Index]bool{}

	for _, a := range added {
		var candidates []*Index
		for _, r := range removed {
			if a.SameSignature(r) {
				candidates = append(candidates, r)
			}
		}
		if len(candidates) != 1 || consumed[candidates[0]] {
			continue
		}
		consumed[a] = true
		consumed[candidates[0]] = true
		renamed = append(renamed, RenamedIndex{OldName: candidates[0].Name, Index: a})
	}

	return renamed, without(added, consumed), without(removed, consumed)
}

func diffForeignKeys(from, to *Table) []TableDiffOption {
	fromKeys := from.ForeignKeys()
	toKeys := to.ForeignKeys()
	matchedFrom := make([]bool, len(fromKeys))
	matchedTo := make([]bool, len(toKeys))

	var changed []*ForeignKey
	for i, a := range fromKeys {
		for j, b := range toKeys {
			if matchedTo[j] {
				continue
			}
			if a.SameSignature(b) {
				matchedFrom[i], matchedTo[j] = true, true
				break
			}
			if a.Name.EqualFold(b.Name) {
				changed = append(changed, b)
				matchedFrom[i], matchedTo[j] = true, true
				break
			}
		}
	}

	var added, removed []*ForeignKey
	for i, fk := range fromKeys {
		if !matchedFrom[i] {
			removed = append(removed, fk)
		}
	}
	for j, fk := range toKeys {
		if !matchedTo[j] {
			added = append(added, fk)
		}
	}

	return []TableDiffOption{
		WithAddedForeignKeys(added...),
		WithRemovedForeignKeys(removed...),
		WithChangedForeignKeys(changed...),
	}
}

func diffUniqueConstraints(from, to *Table) []TableDiffOption {
	var added, removed []*UniqueConstraint
	for _, uc := range to.UniqueConstraints() {
		existing, ok := from.UniqueConstraint(uc.Name.Raw())
		if !ok {
			added = append(added, uc)
		} else if !existing.SameSignature(uc) {
			removed = append(removed, existing)
			added = append(added, uc)
		}
	}
	for _, uc := range from.UniqueConstraints() {
		if _, ok := to.UniqueConstraint(uc.Name.Raw()); !ok {
			removed = append(removed, uc)
		}
	}

	return []TableDiffOption{
		WithAddedUniqueConstraints(added...),
		WithRemovedUniqueConstraints(removed...),
	}
}

func without[T comparable](items []T, consumed map[T]bool) []T {
	var out []T
	for _, item := range items {
		if !consumed[item] {
			out = append(out, item)
		}
	}
	return out
}

type compareConfig struct {
	concurrency int
}

type CompareOption func(*compareConfig)

// WithConcurrency bounds how many table pairs are diffed at once. 0 diffs
// sequentially, a negative value removes the bound.
func WithConcurrency(concurrency int) CompareOption {
	return func(c *compareConfig) { c.concurrency = concurrency }
}

// CompareSchemas computes the differences between two schema snapshots.
// Neither schema may be modified while the comparison runs.
func CompareSchemas(from, to *Schema, opts ...CompareOption) (*SchemaDiff, error) {
	config := compareConfig{concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&config)
	}

	diff := &SchemaDiff{FromSchema: from}

	for _, ns := range to.Namespaces() {
		if !from.HasNamespace(ns) {
			diff.NewNamespaces = append(diff.NewNamespaces, ns)
		}
	}
	for _, ns := range from.Namespaces() {
		if !to.HasNamespace(ns) {
			diff.RemovedNamespaces = append(diff.RemovedNamespaces, ns)
		}
	}

	type tablePair struct{ from, to *Table }
	var pairs []tablePair
	for _, t := range to.Tables() {
		if f, ok := from.Table(t.Name.Raw()); ok {
			pairs = append(pairs, tablePair{f, t})
		} else {
			diff.NewTables = append(diff.NewTables, t)
		}
	}

	tableDiffs, err := util.ConcurrentMapFuncWithError(pairs, config.concurrency, func(p tablePair) (*TableDiff, error) {
		return DiffTable(p.from, p.to), nil
	})
	if err != nil {
		return nil, err
	}
	for _, d := range tableDiffs {
		if d != nil {
			diff.ChangedTables = append(diff.ChangedTables, d)
		}
	}

	for _, t := range from.Tables() {
		if !to.HasTable(t.Name.Raw()) {
			diff.RemovedTables = append(diff.RemovedTables, t)
		}
	}
	detectOrphanedForeignKeys(from, diff)

	for _, seq := range to.Sequences() {
		existing, ok := from.Sequence(seq.Name.Raw())
		if !ok {
			diff.NewSequences = append(diff.NewSequences, seq)
		} else if !existing.SameSignature(seq) {
			diff.ChangedSequences = append(diff.ChangedSequences, seq)
		}
	}
	for _, seq := range from.Sequences() {
		if !to.HasSequence(seq.Name.Raw()) {
			diff.RemovedSequences = append(diff.RemovedSequences, seq)
		}
	}

	return diff, nil
}

// detectOrphanedForeignKeys moves foreign keys of surviving tables that point
// at removed tables into OrphanedForeignKeys, so that they are dropped before
// the tables they reference.
func detectOrphanedForeignKeys(from *Schema, diff *SchemaDiff) {
	removed := map[string]bool{}
	for _, t := range diff.RemovedTables {
		removed[t.Name.Normalized()] = true
	}

	for _, t := range from.Tables() {
		if removed[t.Name.Normalized()] {
			continue
		}
		for _, fk := range t.ForeignKeys() {
			if !removedReference(fk, diff.RemovedTables) {
				continue
			}
			diff.OrphanedForeignKeys = append(diff.OrphanedForeignKeys, OrphanedForeignKey{Table: t.Name, ForeignKey: fk})

			for i, td := range diff.ChangedTables {
				if td.Name().EqualFold(t.Name) {
					diff.ChangedTables[i] = td.withoutRemovedForeignKey(fk)
				}
			}
		}
	}

	changed := diff.ChangedTables[:0]
	for _, td := range diff.ChangedTables {
		if !td.IsEmpty() {
			changed = append(changed, td)
		}
	}
	diff.ChangedTables = changed
}

func removedReference(fk *ForeignKey, removed []*Table) bool {
	for _, t := range removed {
		if fk.References(t.Name) {
			return true
		}
	}
	return false
}
