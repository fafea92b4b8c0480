package schema

import (
	"slices"
	"strings"

	"github.com/sqldef/ddlgen/util"
)

var referentialActions = []string{"CASCADE", "SET NULL", "NO ACTION", "RESTRICT", "SET DEFAULT"}

// CanonicalReferentialAction upper-cases one of CASCADE, SET NULL, NO ACTION,
// RESTRICT or SET DEFAULT. Any other value is an InvalidArgumentError.
func CanonicalReferentialAction(action string) (string, error) {
	upper := strings.ToUpper(strings.Join(strings.Fields(action), " "))
	if !slices.Contains(referentialActions, upper) {
		return "", &InvalidArgumentError{Argument: "foreign key referential action", Value: action}
	}
	return upper, nil
}

type ForeignKey struct {
	Name              Identifier
	Columns           []string
	ForeignTable      Identifier
	ForeignColumns    []string
	OnUpdate          string
	OnDelete          string
	Deferrable        bool
	InitiallyDeferred bool
}

type ForeignKeyOption func(*ForeignKey)

// NewForeignKey validates arity and referential actions. An empty name is
// filled in by Table.AddForeignKey.
func NewForeignKey(name string, columns []string, foreignTable string, foreignColumns []string, opts ...ForeignKeyOption) (*ForeignKey, error) {
	if len(columns) == 0 {
		return nil, &InvalidArgumentError{Argument: "foreign key column list", Value: name, Reason: "at least one column is required"}
	}
	if len(columns) != len(foreignColumns) {
		return nil, &DefinitionError{
			Object: "foreign key " + name,
			Reason: "local and referenced column lists must have the same length",
		}
	}

	fk := &ForeignKey{
		Name:           NewName(name),
		Columns:        slices.Clone(columns),
		ForeignTable:   NewIdentifier(foreignTable),
		ForeignColumns: slices.Clone(foreignColumns),
	}
	for _, opt := range opts {
		opt(fk)
	}

	var err error
	if fk.OnUpdate != "" {
		if fk.OnUpdate, err = CanonicalReferentialAction(fk.OnUpdate); err != nil {
			return nil, err
		}
	}
	if fk.OnDelete != "" {
		if fk.OnDelete, err = CanonicalReferentialAction(fk.OnDelete); err != nil {
			return nil, err
		}
	}
	return fk, nil
}

func OnUpdate(action string) ForeignKeyOption {
	return func(fk *ForeignKey) { fk.OnUpdate = action }
}

func OnDelete(action string) ForeignKeyOption {
	return func(fk *ForeignKey) { fk.OnDelete = action }
}

func Deferrable(initiallyDeferred bool) ForeignKeyOption {
	return func(fk *ForeignKey) {
		fk.Deferrable = true
		fk.InitiallyDeferred = initiallyDeferred
	}
}

// SameSignature compares columns, referenced table, actions and deferral
// mode. Names are ignored.
func (fk *ForeignKey) SameSignature(other *ForeignKey) bool {
	return util.EqualFoldSlices(fk.Columns, other.Columns) &&
		util.EqualFoldSlices(fk.ForeignColumns, other.ForeignColumns) &&
		strings.EqualFold(fk.ForeignTable.ShortName(), other.ForeignTable.ShortName()) &&
		fk.OnUpdate == other.OnUpdate &&
		fk.OnDelete == other.OnDelete &&
		fk.Deferrable == other.Deferrable &&
		fk.InitiallyDeferred == other.InitiallyDeferred
}

// References reports whether the key points at table.
func (fk *ForeignKey) References(table Identifier) bool {
	return fk.ForeignTable.EqualFold(table) || strings.EqualFold(fk.ForeignTable.ShortName(), table.Name)
}

// Clone returns a deep copy.
func (fk *ForeignKey) Clone() *ForeignKey {
	clone := *fk
	clone.Columns = slices.Clone(fk.Columns)
	clone.ForeignColumns = slices.Clone(fk.ForeignColumns)
	return &clone
}

// UniqueConstraint is rendered as a table constraint rather than as a unique index.
type UniqueConstraint struct {
	Name    Identifier
	Columns []string
	Flags   []string
}

func NewUniqueConstraint(name string, columns []string, flags ...string) (*UniqueConstraint, error) {
	if len(columns) == 0 {
		return nil, &InvalidArgumentError{Argument: "unique constraint column list", Value: name, Reason: "at least one column is required"}
	}
	return &UniqueConstraint{Name: NewName(name), Columns: slices.Clone(columns), Flags: slices.Clone(flags)}, nil
}

func (u *UniqueConstraint) SameSignature(other *UniqueConstraint) bool {
	return util.EqualFoldSlices(u.Columns, other.Columns) && sameFlags(u.Flags, other.Flags)
}

func (u *UniqueConstraint) Clone() *UniqueConstraint {
	clone := *u
	clone.Columns = slices.Clone(u.Columns)
	clone.Flags = slices.Clone(u.Flags)
	return &clone
}
