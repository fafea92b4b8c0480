package schema

import (
	"errors"
	"fmt"
)

// DefinitionError reports a structurally invalid schema object or a request
// that cannot be expressed, e.g. CREATE TABLE without columns.
type DefinitionError struct {
	Object string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid definition of %s: %s", e.Object, e.Reason)
}

// InvalidArgumentError reports a malformed enumerated input such as an unknown
// referential action.
type InvalidArgumentError struct {
	Argument string
	Value    string
	Reason   string
}

func (e *InvalidArgumentError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s %q", e.Argument, e.Value)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Argument, e.Value, e.Reason)
}

// UnsupportedOperationError reports an operation the target platform cannot render.
type UnsupportedOperationError struct {
	Platform  string
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s is not supported by %s", e.Operation, e.Platform)
}

func IsDefinitionError(err error) bool {
	var e *DefinitionError
	return errors.As(err, &e)
}

func IsInvalidArgumentError(err error) bool {
	var e *InvalidArgumentError
	return errors.As(err, &e)
}

func IsUnsupportedOperationError(err error) bool {
	var e *UnsupportedOperationError
	return errors.As(err, &e)
}
