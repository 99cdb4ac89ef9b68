package template

import "fmt"

// MissingParameterError reports a required parameter absent from the bag.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Name)
}

// TypeCoercionError reports a value that cannot be coerced to the
// declared kind.
type TypeCoercionError struct {
	Name string
	Kind Kind
	Err  error
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("parameter %q cannot be coerced to %s: %v", e.Name, e.Kind, e.Err)
}

func (e *TypeCoercionError) Unwrap() error {
	return e.Err
}

// UnsafeValueError reports a literal value rejected by the injection
// denylist before substitution.
type UnsafeValueError struct {
	Name  string
	Token string
}

func (e *UnsafeValueError) Error() string {
	return fmt.Sprintf("parameter %q contains forbidden sequence %q", e.Name, e.Token)
}

// ValidationError reports a value that is structurally invalid for its
// kind, such as an empty array.
type ValidationError struct {
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("parameter %q is invalid: %s", e.Name, e.Reason)
}
