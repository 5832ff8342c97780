package ctemock

import "errors"

// Common errors used throughout the ctemock packages
var (
	// ErrInvalidInput is returned when a mock table cannot be expressed from the given input.
	// Mock builder errors
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedValue indicates a cell value that has no SQL literal form.
	ErrUnsupportedValue = errors.New("unsupported value for SQL literal")

	// ErrTableNotReferenced indicates a mocked table name never appears in the target statement.
	// Test runner errors
	ErrTableNotReferenced = errors.New("mocked table is not referenced by the statement")
	// ErrNoTestCasesFound indicates no test cases matched the provided pattern.
	ErrNoTestCasesFound = errors.New("no test cases found matching pattern")
	// ErrTestCaseMissingData indicates a test case lacked required sections.
	ErrTestCaseMissingData = errors.New("test case is missing required data")
	// ErrDuplicateTestCase indicates two test cases in one file share a name.
	ErrDuplicateTestCase = errors.New("duplicate test case name")

	// ErrResultRowCountMismatch indicates the number of result rows mismatched expectations.
	// Result matching errors
	ErrResultRowCountMismatch = errors.New("result row count mismatch")
	// ErrMissingField indicates a field was missing from a result row.
	ErrMissingField = errors.New("missing field")
	// ErrFieldValueMismatch indicates a field value mismatched expectations.
	ErrFieldValueMismatch = errors.New("field value mismatch")
	// ErrUnmatchedRow indicates an expected row had no counterpart in an unordered comparison.
	ErrUnmatchedRow = errors.New("expected row not found in result")

	// ErrNoSQLBlock indicates a Markdown document had no sql code fence.
	// SQL source errors
	ErrNoSQLBlock = errors.New("no sql code block found")
	// ErrEmptyContent indicates the SQL or fixture content was empty.
	ErrEmptyContent = errors.New("empty content")

	// ErrUnknownDialect indicates a database URL scheme or dialect name was not recognised.
	// Connection errors
	ErrUnknownDialect = errors.New("unknown database dialect")
	// ErrInvalidURL indicates a database URL could not be parsed.
	ErrInvalidURL = errors.New("invalid database URL")
	// ErrConfigFileNotFound indicates a configuration file could not be located.
	ErrConfigFileNotFound = errors.New("configuration file not found")
	// ErrEnvironmentNotFound indicates the requested database environment is not configured.
	ErrEnvironmentNotFound = errors.New("database environment not found")
)
