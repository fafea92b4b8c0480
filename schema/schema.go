// Package schema models tables, columns, indexes, constraints and sequences
// independently of any database, and computes the differences between two
// snapshots of them.
package schema

import (
	"slices"
	"strings"
)

// Schema is a snapshot of a database: tables, sequences and namespaces.
type Schema struct {
	tables     []*Table
	sequences  []*Sequence
	namespaces []string
}

func NewSchema() *Schema {
	return &Schema{}
}

// AddTable adds t and creates its namespace when it is qualified.
func (s *Schema) AddTable(t *Table) error {
	if s.HasTable(t.Name.Raw()) {
		return &DefinitionError{Object: "schema", Reason: "table " + t.Name.Name + " is already defined"}
	}
	if ns := t.Name.Namespace(); ns != "" && !s.HasNamespace(ns) {
		s.namespaces = append(s.namespaces, ns)
	}
	s.tables = append(s.tables, t)
	return nil
}

func (s *Schema) Tables() []*Table {
	return slices.Clone(s.tables)
}

func (s *Schema) Table(name string) (*Table, bool) {
	key := NewIdentifier(name).Normalized()
	for _, t := range s.tables {
		if t.Name.Normalized() == key {
			return t, true
		}
	}
	return nil, false
}

func (s *Schema) HasTable(name string) bool {
	_, ok := s.Table(name)
	return ok
}

func (s *Schema) AddSequence(seq *Sequence) error {
	if s.HasSequence(seq.Name.Raw()) {
		return &DefinitionError{Object: "schema", Reason: "sequence " + seq.Name.Name + " is already defined"}
	}
	s.sequences = append(s.sequences, seq)
	return nil
}

func (s *Schema) Sequences() []*Sequence {
	return slices.Clone(s.sequences)
}

func (s *Schema) Sequence(name string) (*Sequence, bool) {
	key := NewIdentifier(name).Normalized()
	for _, seq := range s.sequences {
		if seq.Name.Normalized() == key {
			return seq, true
		}
	}
	return nil, false
}

func (s *Schema) HasSequence(name string) bool {
	_, ok := s.Sequence(name)
	return ok
}

func (s *Schema) CreateNamespace(name string) error {
	if s.HasNamespace(name) {
		return &DefinitionError{Object: "schema", Reason: "namespace " + name + " is already defined"}
	}
	s.namespaces = append(s.namespaces, name)
	return nil
}

func (s *Schema) Namespaces() []string {
	return slices.Clone(s.namespaces)
}

func (s *Schema) HasNamespace(name string) bool {
	return slices.ContainsFunc(s.namespaces, func(ns string) bool {
		return strings.EqualFold(ns, name)
	})
}

// Filter returns a schema holding only the tables keep accepts. Sequences and
// namespaces are shared with s.
func (s *Schema) Filter(keep func(table string) bool) *Schema {
	filtered := &Schema{sequences: s.sequences, namespaces: s.namespaces}
	for _, t := range s.tables {
		if keep(t.Name.Name) {
			filtered.tables = append(filtered.tables, t)
		}
	}
	return filtered
}
