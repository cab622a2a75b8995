package validator

import "github.com/orneryd/dictionarydb/internal/dicterr"

// Status is the §4.5.4 Report status: code 0 is success, non-zero codes
// correspond to the error taxonomy (§7), extended with ObjectRuleViolation
// for the §3.3 rule clauses.
type Status struct {
	Code    int
	Message string
}

// Change records one in-place resolution the validator performed while
// walking a value (§4.5.2 step 3 string_enum resolve), addressed by a
// dicthash.ChangeHash of its position so repeats at distinct positions
// don't collide.
type Change struct {
	Field    string
	Original any
	Resolved any
}

// Report is the §4.5.4 result of a validation call.
type Report struct {
	Status  Status
	Changes map[string]Change
}

// taxonomyStatusCodes assigns a small stable integer to each taxonomy
// code, since the wire-level Report.Status.Code is an int rather than
// the Code string itself. Order is insignificant; values must simply
// stay stable within a running process.
var taxonomyStatusCodes = map[dicterr.Code]int{
	dicterr.InvalidReference:    1,
	dicterr.ParentNotInGraph:    2,
	dicterr.NotDescriptor:       3,
	dicterr.KindMismatch:        4,
	dicterr.TypeMismatch:        5,
	dicterr.RangeViolation:      6,
	dicterr.PatternMismatch:     7,
	dicterr.FormatError:         8,
	dicterr.UnitMismatch:        9,
	dicterr.EnumNotMember:       10,
	dicterr.AmbiguousResolution: 11,
	dicterr.UnknownProperty:     12,
	dicterr.DefinitionError:     13,
	dicterr.DuplicateKey:        14,
	dicterr.WriteConflict:       15,
	dicterr.DepthExceeded:       16,
	dicterr.ObjectRuleViolation: 17,
}

func statusFor(err error) Status {
	if err == nil {
		return Status{Code: 0, Message: "ok"}
	}
	code, ok := dicterr.CodeOf(err)
	if !ok {
		return Status{Code: -1, Message: err.Error()}
	}
	return Status{Code: taxonomyStatusCodes[code], Message: err.Error()}
}

func successReport(changes map[string]Change) *Report {
	return &Report{Status: Status{Code: 0, Message: "ok"}, Changes: changes}
}

func failureReport(err error, changes map[string]Change) *Report {
	return &Report{Status: statusFor(err), Changes: changes}
}
