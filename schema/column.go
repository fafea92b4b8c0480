package schema

import (
	"github.com/sqldef/ddlgen/types"
)

// Default is a column default. Expression marks a raw SQL expression that is
// rendered verbatim instead of as a quoted literal.
type Default struct {
	Value      string
	Expression bool
}

type Column struct {
	Name          Identifier
	Type          types.Type
	Length        *int
	Precision     *int
	Scale         *int
	Fixed         bool
	Unsigned      bool
	NotNull       bool
	Default       *Default
	AutoIncrement bool
	Comment       *string
	// ColumnDefinition replaces everything after the column name when set.
	ColumnDefinition string
	Charset          string
	Collation        string
}

type ColumnOption func(*Column)

// NewColumn builds a NOT NULL column of type t; use Nullable to relax it.
func NewColumn(name string, t types.Type, opts ...ColumnOption) *Column {
	c := &Column{Name: NewName(name), Type: t, NotNull: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithLength(length int) ColumnOption {
	return func(c *Column) { c.Length = &length }
}

func WithPrecision(precision int) ColumnOption {
	return func(c *Column) { c.Precision = &precision }
}

func WithScale(scale int) ColumnOption {
	return func(c *Column) { c.Scale = &scale }
}

func Fixed() ColumnOption {
	return func(c *Column) { c.Fixed = true }
}

func Unsigned() ColumnOption {
	return func(c *Column) { c.Unsigned = true }
}

func Nullable() ColumnOption {
	return func(c *Column) { c.NotNull = false }
}

func AutoIncrement() ColumnOption {
	return func(c *Column) { c.AutoIncrement = true }
}

func WithDefault(value string) ColumnOption {
	return func(c *Column) { c.Default = &Default{Value: value} }
}

func WithDefaultExpression(expr string) ColumnOption {
	return func(c *Column) { c.Default = &Default{Value: expr, Expression: true} }
}

func WithComment(comment string) ColumnOption {
	return func(c *Column) { c.Comment = &comment }
}

func WithColumnDefinition(definition string) ColumnOption {
	return func(c *Column) { c.ColumnDefinition = definition }
}

func WithCharset(charset string) ColumnOption {
	return func(c *Column) { c.Charset = charset }
}

func WithCollation(collation string) ColumnOption {
	return func(c *Column) { c.Collation = collation }
}

// CommentText returns the comment, "" when unset.
func (c *Column) CommentText() string {
	if c.Comment == nil {
		return ""
	}
	return *c.Comment
}

// Clone returns a deep copy.
func (c *Column) Clone() *Column {
	clone := *c
	clone.Length = clonePtr(c.Length)
	clone.Precision = clonePtr(c.Precision)
	clone.Scale = clonePtr(c.Scale)
	clone.Comment = clonePtr(c.Comment)
	clone.Default = clonePtr(c.Default)
	return &clone
}

// Renamed returns a copy of the column under a new name.
func (c *Column) Renamed(name Identifier) *Column {
	clone := c.Clone()
	clone.Name = name
	return clone
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
