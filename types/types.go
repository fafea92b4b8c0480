// Package types defines the logical column types understood by every platform
// and the registry mapping native database type names onto them.
package types

import (
	"errors"
	"fmt"
	"strings"
)

type Type string

const (
	SmallInt    = Type("smallint")
	Integer     = Type("integer")
	BigInt      = Type("bigint")
	Boolean     = Type("boolean")
	String      = Type("string")
	Text        = Type("text")
	Binary      = Type("binary")
	Blob        = Type("blob")
	Date        = Type("date")
	DateTime    = Type("datetime")
	DateTimeTz  = Type("datetimetz")
	Time        = Type("time")
	Decimal     = Type("decimal")
	Float       = Type("float")
	JSON        = Type("json")
	GUID        = Type("guid")
	SimpleArray = Type("simple_array")
	Array       = Type("array")
	Object      = Type("object")
)

var known = []Type{
	SmallInt, Integer, BigInt, Boolean, String, Text, Binary, Blob, Date,
	DateTime, DateTimeTz, Time, Decimal, Float, JSON, GUID, SimpleArray, Array, Object,
}

// MappingError is returned for an unknown logical type name or an unmapped native type.
type MappingError struct {
	Name   string
	Native bool
}

func (e *MappingError) Error() string {
	if e.Native {
		return fmt.Sprintf("unknown database type %q requested", e.Name)
	}
	return fmt.Sprintf("unknown column type %q requested", e.Name)
}

func IsMappingError(err error) bool {
	var e *MappingError
	return errors.As(err, &e)
}

// Lookup resolves a logical type by name, case-insensitively.
func Lookup(name string) (Type, error) {
	for _, t := range known {
		if strings.EqualFold(string(t), name) {
			return t, nil
		}
	}
	return "", &MappingError{Name: name}
}

// All returns every logical type.
func All() []Type {
	return append([]Type(nil), known...)
}

func (t Type) String() string {
	return string(t)
}

func (t Type) IsInteger() bool {
	return t == SmallInt || t == Integer || t == BigInt
}

// IsTemporal reports whether a CURRENT_* function call is an acceptable default.
func (t Type) IsTemporal() bool {
	return t == Date || t == DateTime || t == DateTimeTz || t == Time
}

// HasLength reports whether the length attribute affects the declaration.
func (t Type) HasLength() bool {
	return t == String || t == Binary || t == Text || t == Blob
}

// IsClob reports whether the type is stored as a character large object.
func (t Type) IsClob() bool {
	return t == Text || t == JSON || t == SimpleArray || t == Array || t == Object
}
