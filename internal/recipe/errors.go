package recipe

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUndefinedParameter = errors.New("undefined parameter")
	ErrMalformedDirective = errors.New("malformed directive")
	ErrIncludeResolution  = errors.New("include resolution failed")
	ErrInvalidParameter   = errors.New("invalid parameter name")
	ErrFrozen             = errors.New("recipe is frozen")
	ErrUnknownFormat      = errors.New("unknown output format")
	ErrUnsupportedArch    = errors.New("unsupported architecture")
)

// Reports a parameter reference that has no binding at the referencing
// directive's position.
type UndefinedParameterError struct {
	Name  string // Referenced parameter name.
	Index int    // Zero-based index of the referencing directive.
}

func (e *UndefinedParameterError) Error() string {
	return fmt.Sprintf("directive %d: %s %q", e.Index+1, ErrUndefinedParameter, e.Name)
}

func (e *UndefinedParameterError) Is(target error) bool {
	return target == ErrUndefinedParameter
}

// Reports a directive that is missing a required field or carries an invalid
// value.
type MalformedDirectiveError struct {
	Index  int    // Zero-based index of the directive, or the index it would have had.
	Kind   Kind   // Kind of the offending directive.
	Reason string // Human-readable description of the problem.
}

func (e *MalformedDirectiveError) Error() string {
	return fmt.Sprintf("directive %d (%s): %s: %s", e.Index+1, e.Kind, ErrMalformedDirective, e.Reason)
}

func (e *MalformedDirectiveError) Is(target error) bool {
	return target == ErrMalformedDirective
}

// Reports a recipe include that could not be located or parsed.
//
// Chain lists the recipe files from the root down to the file holding the
// failing include.
type IncludeResolutionError struct {
	Path  string
	Chain []string
	Err   error
}

func (e *IncludeResolutionError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrIncludeResolution, e.Path)
	if len(e.Chain) > 0 {
		msg += " (via " + strings.Join(e.Chain, " -> ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IncludeResolutionError) Is(target error) bool {
	return target == ErrIncludeResolution
}

func (e *IncludeResolutionError) Unwrap() error {
	return e.Err
}

// Shorthand for building a [MalformedDirectiveError].
func malformed(index int, kind Kind, format string, args ...any) error {
	return &MalformedDirectiveError{Index: index, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
