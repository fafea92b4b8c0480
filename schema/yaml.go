package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/sqldef/ddlgen/types"
)

type yamlSchema struct {
	Namespaces []string       `yaml:"namespaces"`
	Tables     []yamlTable    `yaml:"tables"`
	Sequences  []yamlSequence `yaml:"sequences"`
}

type yamlTable struct {
	Name              string                 `yaml:"name"`
	Columns           []yamlColumn           `yaml:"columns"`
	PrimaryKey        []string               `yaml:"primary_key"`
	Indexes           []yamlIndex            `yaml:"indexes"`
	ForeignKeys       []yamlForeignKey       `yaml:"foreign_keys"`
	UniqueConstraints []yamlUniqueConstraint `yaml:"unique_constraints"`
	Options           TableOptions           `yaml:"options"`
}

type yamlColumn struct {
	Name              string  `yaml:"name"`
	Type              string  `yaml:"type"`
	Length            *int    `yaml:"length"`
	Precision         *int    `yaml:"precision"`
	Scale             *int    `yaml:"scale"`
	Fixed             bool    `yaml:"fixed"`
	Unsigned          bool    `yaml:"unsigned"`
	Nullable          bool    `yaml:"nullable"`
	Default           *string `yaml:"default"`
	DefaultExpression string  `yaml:"default_expression"`
	AutoIncrement     bool    `yaml:"autoincrement"`
	Comment           *string `yaml:"comment"`
	ColumnDefinition  string  `yaml:"column_definition"`
	Charset           string  `yaml:"charset"`
	Collation         string  `yaml:"collation"`
}

type yamlIndex struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique"`
	Where   string   `yaml:"where"`
	Flags   []string `yaml:"flags"`
	Lengths []int    `yaml:"lengths"`
}

type yamlForeignKey struct {
	Name       string `yaml:"name"`
	Columns    []string `yaml:"columns"`
	References struct {
		Table   string   `yaml:"table"`
		Columns []string `yaml:"columns"`
	} `yaml:"references"`
	OnUpdate          string `yaml:"on_update"`
	OnDelete          string `yaml:"on_delete"`
	Deferrable        bool   `yaml:"deferrable"`
	InitiallyDeferred bool   `yaml:"initially_deferred"`
}

type yamlUniqueConstraint struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Flags   []string `yaml:"flags"`
}

type yamlSequence struct {
	Name           string `yaml:"name"`
	AllocationSize *int   `yaml:"allocation_size"`
	InitialValue   *int   `yaml:"initial_value"`
	Cache          int    `yaml:"cache"`
}

// LoadFile reads a schema snapshot from a YAML file.
func LoadFile(path string) (*Schema, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseYAML(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseYAML builds a schema from its YAML description. Unknown keys are rejected.
func ParseYAML(buf []byte) (*Schema, error) {
	var doc yamlSchema
	if err := yaml.UnmarshalStrict(buf, &doc); err != nil {
		return nil, err
	}

	s := NewSchema()
	for _, ns := range doc.Namespaces {
		if err := s.CreateNamespace(ns); err != nil {
			return nil, err
		}
	}
	for _, yt := range doc.Tables {
		t, err := yt.build()
		if err != nil {
			return nil, err
		}
		if err := s.AddTable(t); err != nil {
			return nil, err
		}
	}
	for _, ys := range doc.Sequences {
		var opts []SequenceOption
		if ys.AllocationSize != nil {
			opts = append(opts, WithAllocationSize(*ys.AllocationSize))
		}
		if ys.InitialValue != nil {
			opts = append(opts, WithInitialValue(*ys.InitialValue))
		}
		if ys.Cache != 0 {
			opts = append(opts, WithCache(ys.Cache))
		}
		if err := s.AddSequence(NewSequence(ys.Name, opts...)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (yt yamlTable) build() (*Table, error) {
	t, err := NewTable(yt.Name)
	if err != nil {
		return nil, err
	}
	t.Options = yt.Options

	for _, yc := range yt.Columns {
		c, err := yc.build()
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", yt.Name, err)
		}
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}

	if len(yt.PrimaryKey) > 0 {
		if err := t.SetPrimaryKey(yt.PrimaryKey); err != nil {
			return nil, err
		}
	}

	for _, yi := range yt.Indexes {
		opts := []IndexOption{WithFlags(yi.Flags...)}
		if yi.Unique {
			opts = append(opts, UniqueIndex())
		}
		if yi.Where != "" {
			opts = append(opts, WithWhere(yi.Where))
		}
		if len(yi.Lengths) > 0 {
			opts = append(opts, WithLengths(yi.Lengths...))
		}
		idx, err := NewIndex(yi.Name, yi.Columns, opts...)
		if err != nil {
			return nil, err
		}
		if err := t.AddIndex(idx); err != nil {
			return nil, err
		}
	}

	for _, yf := range yt.ForeignKeys {
		var opts []ForeignKeyOption
		if yf.OnUpdate != "" {
			opts = append(opts, OnUpdate(yf.OnUpdate))
		}
		if yf.OnDelete != "" {
			opts = append(opts, OnDelete(yf.OnDelete))
		}
		if yf.Deferrable {
			opts = append(opts, Deferrable(yf.InitiallyDeferred))
		}
		fk, err := NewForeignKey(yf.Name, yf.Columns, yf.References.Table, yf.References.Columns, opts...)
		if err != nil {
			return nil, err
		}
		if err := t.AddForeignKey(fk); err != nil {
			return nil, err
		}
	}

	for _, yu := range yt.UniqueConstraints {
		uc, err := NewUniqueConstraint(yu.Name, yu.Columns, yu.Flags...)
		if err != nil {
			return nil, err
		}
		if err := t.AddUniqueConstraint(uc); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (yc yamlColumn) build() (*Column, error) {
	t, err := types.Lookup(yc.Type)
	if err != nil {
		return nil, err
	}
	var opts []ColumnOption
	if yc.Length != nil {
		opts = append(opts, WithLength(*yc.Length))
	}
	if yc.Precision != nil {
		opts = append(opts, WithPrecision(*yc.Precision))
	}
	if yc.Scale != nil {
		opts = append(opts, WithScale(*yc.Scale))
	}
	if yc.Fixed {
		opts = append(opts, Fixed())
	}
	if yc.Unsigned {
		opts = append(opts, Unsigned())
	}
	if yc.Nullable {
		opts = append(opts, Nullable())
	}
	if yc.Default != nil && yc.DefaultExpression != "" {
		return nil, &DefinitionError{Object: "column " + yc.Name, Reason: "default and default_expression are mutually exclusive"}
	}
	if yc.Default != nil {
		opts = append(opts, WithDefault(*yc.Default))
	}
	if yc.DefaultExpression != "" {
		opts = append(opts, WithDefaultExpression(yc.DefaultExpression))
	}
	if yc.AutoIncrement {
		opts = append(opts, AutoIncrement())
	}
	if yc.Comment != nil {
		opts = append(opts, WithComment(*yc.Comment))
	}
	if yc.ColumnDefinition != "" {
		opts = append(opts, WithColumnDefinition(yc.ColumnDefinition))
	}
	if yc.Charset != "" {
		opts = append(opts, WithCharset(yc.Charset))
	}
	if yc.Collation != "" {
		opts = append(opts, WithCollation(yc.Collation))
	}
	return NewColumn(yc.Name, t, opts...), nil
}
