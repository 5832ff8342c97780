package testcase

import (
	"errors"

	"github.com/shibukawa/ctemock"
	"github.com/shibukawa/ctemock/rowmatch"
)

// FailureKind represents the classification of a case failure.
type FailureKind int

const (
	// FailureKindNone marks a passing case.
	FailureKindNone FailureKind = iota
	// FailureKindAssertion represents result mismatches.
	FailureKindAssertion
	// FailureKindDefinition represents case or fixture definition problems.
	FailureKindDefinition
	// FailureKindExecution represents engine, connection and timeout errors.
	FailureKindExecution
)

// String returns the label used in reports.
func (k FailureKind) String() string {
	switch k {
	case FailureKindNone:
		return "passed"
	case FailureKindAssertion:
		return "assertion"
	case FailureKindDefinition:
		return "definition"
	case FailureKindExecution:
		return "execution"
	default:
		return "unknown"
	}
}

// CaseError is an error wrapper that retains the failure classification.
type CaseError struct {
	kind FailureKind
	err  error
}

// Error implements the error interface.
func (e *CaseError) Error() string {
	if e == nil || e.err == nil {
		return "case failure"
	}

	return e.err.Error()
}

// Unwrap returns the underlying error.
func (e *CaseError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.err
}

// Kind returns the FailureKind classification.
func (e *CaseError) Kind() FailureKind {
	if e == nil {
		return FailureKindNone
	}

	return e.kind
}

func assertionFailure(err error) error {
	return &CaseError{kind: FailureKindAssertion, err: err}
}

func definitionFailure(err error) error {
	return &CaseError{kind: FailureKindDefinition, err: err}
}

func executionFailure(err error) error {
	return &CaseError{kind: FailureKindExecution, err: err}
}

// ClassifyFailure returns the failure kind of err. Errors that were not
// produced by the executor are classified from their sentinels.
func ClassifyFailure(err error) FailureKind {
	if err == nil {
		return FailureKindNone
	}

	var caseErr *CaseError
	if errors.As(err, &caseErr) {
		return caseErr.Kind()
	}

	switch {
	case errors.Is(err, ctemock.ErrResultRowCountMismatch),
		errors.Is(err, ctemock.ErrMissingField),
		errors.Is(err, ctemock.ErrFieldValueMismatch),
		errors.Is(err, ctemock.ErrUnmatchedRow):
		return FailureKindAssertion
	case errors.Is(err, ctemock.ErrInvalidInput),
		errors.Is(err, ctemock.ErrUnsupportedValue),
		errors.Is(err, ctemock.ErrTableNotReferenced),
		errors.Is(err, ctemock.ErrTestCaseMissingData),
		errors.Is(err, rowmatch.ErrInvalidMatcher):
		return FailureKindDefinition
	default:
		return FailureKindExecution
	}
}
