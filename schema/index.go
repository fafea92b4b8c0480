package schema

import (
	"slices"
	"strings"

	"github.com/sqldef/ddlgen/util"
)

const (
	IndexFlagFulltext     = "fulltext"
	IndexFlagSpatial      = "spatial"
	IndexFlagClustered    = "clustered"
	IndexFlagNonClustered = "nonclustered"
)

// Index is a named, ordered list of columns. A primary index is always unique.
// Where holds the predicate of a partial index, Lengths the prefix lengths of
// the columns (0 for a full column).
type Index struct {
	Name    Identifier
	Columns []string
	Unique  bool
	Primary bool
	Where   string
	Flags   []string
	Lengths []int
}

type IndexOption func(*Index)

func NewIndex(name string, columns []string, opts ...IndexOption) (*Index, error) {
	if len(columns) == 0 {
		return nil, &InvalidArgumentError{Argument: "index column list", Value: name, Reason: "at least one column is required"}
	}
	idx := &Index{Name: NewName(name), Columns: slices.Clone(columns)}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.Primary {
		idx.Unique = true
	}
	if len(idx.Lengths) > 0 && len(idx.Lengths) != len(idx.Columns) {
		return nil, &DefinitionError{Object: "index " + name, Reason: "one prefix length per column is required"}
	}
	return idx, nil
}

func UniqueIndex() IndexOption {
	return func(i *Index) { i.Unique = true }
}

func PrimaryIndex() IndexOption {
	return func(i *Index) {
		i.Primary = true
		i.Unique = true
	}
}

func WithWhere(predicate string) IndexOption {
	return func(i *Index) { i.Where = predicate }
}

func WithFlags(flags ...string) IndexOption {
	return func(i *Index) {
		for _, flag := range flags {
			i.Flags = append(i.Flags, strings.ToLower(flag))
		}
	}
}

func WithLengths(lengths ...int) IndexOption {
	return func(i *Index) { i.Lengths = slices.Clone(lengths) }
}

func (i *Index) HasFlag(flag string) bool {
	return slices.Contains(i.Flags, strings.ToLower(flag))
}

func (i *Index) HasLengths() bool {
	return slices.ContainsFunc(i.Lengths, func(l int) bool { return l > 0 })
}

// SpansColumns reports whether the index covers exactly columns, in order.
func (i *Index) SpansColumns(columns []string) bool {
	return util.EqualFoldSlices(i.Columns, columns)
}

// SameSignature reports whether both indexes are interchangeable: same
// columns, uniqueness, predicate, prefix lengths and flags. Names are ignored.
func (i *Index) SameSignature(other *Index) bool {
	if !i.SpansColumns(other.Columns) {
		return false
	}
	if i.Unique != other.Unique || i.Primary != other.Primary {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(i.Where), strings.TrimSpace(other.Where)) {
		return false
	}
	if i.HasLengths() || other.HasLengths() {
		if !slices.Equal(i.Lengths, other.Lengths) {
			return false
		}
	}
	return sameFlags(i.Flags, other.Flags)
}

// Clone returns a deep copy.
func (i *Index) Clone() *Index {
	clone := *i
	clone.Columns = slices.Clone(i.Columns)
	clone.Flags = slices.Clone(i.Flags)
	clone.Lengths = slices.Clone(i.Lengths)
	return &clone
}

func sameFlags(a, b []string) bool {
	a = slices.Sorted(slices.Values(a))
	b = slices.Sorted(slices.Values(b))
	return slices.Equal(a, b)
}
