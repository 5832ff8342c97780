package main

import "errors"

// Sentinel errors for command operations
var (
	ErrNoDatabasesConfigured = errors.New("no databases configured")
	ErrInvalidOutputFormat   = errors.New("invalid output format")
	ErrOutputFileCreation    = errors.New("failed to create output file")
	ErrTestsFailed           = errors.New("some tests failed")
)
