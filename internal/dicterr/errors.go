// Package dicterr implements the error taxonomy of the dictionary core.
//
// It follows the teacher's pattern in pkg/storage/types.go of a block of
// sentinel errors for the store layer, plus (new here) a single tagged
// Error type carrying one of the taxonomy codes so that callers above the
// store can errors.As their way to "which of these happened" without
// losing the wrapped cause.
package dicterr

import (
	"errors"
	"fmt"
)

// Store-level sentinels, named exactly as the external Store interface
// of §6.1 requires.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	ErrConflict  = errors.New("write conflict")
)

// Code names one member of the §7 error taxonomy.
type Code string

const (
	InvalidReference    Code = "InvalidReference"
	ParentNotInGraph    Code = "ParentNotInGraph"
	NotDescriptor       Code = "NotDescriptor"
	KindMismatch        Code = "KindMismatch"
	TypeMismatch        Code = "TypeMismatch"
	RangeViolation      Code = "RangeViolation"
	PatternMismatch     Code = "PatternMismatch"
	FormatError         Code = "FormatError"
	UnitMismatch        Code = "UnitMismatch"
	EnumNotMember       Code = "EnumNotMember"
	AmbiguousResolution Code = "AmbiguousResolution"
	UnknownProperty     Code = "UnknownProperty"
	DefinitionError     Code = "DefinitionError"
	DuplicateKey        Code = "DuplicateKey"
	WriteConflict       Code = "WriteConflict"
	DepthExceeded       Code = "DepthExceeded"

	// ObjectRuleViolation covers the §3.3 object-rule failures
	// (missing-required, ambiguous one-of, unsatisfied any-of, banned
	// property present, computed property supplied) that the spec's
	// error taxonomy names only as the rule clauses themselves, not as
	// dedicated status codes. internal/objectrule carries the specific
	// clause in its own Kind; this single code is what the validator
	// reports up through the taxonomy.
	ObjectRuleViolation Code = "ObjectRuleViolation"
)

// Error is a taxonomy-tagged error. Status returns (Code, 0) is never
// constructed by this type — success never carries an Error.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a taxonomy error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a taxonomy error around a lower-level cause (typically one
// of the store sentinels above).
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the taxonomy code from err, if any.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
