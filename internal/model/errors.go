package model

import "errors"

var (
	// ErrConfig reports a missing, unreadable or malformed input table or configuration value.
	ErrConfig = errors.New("config error")

	// ErrIO reports that the flow log could not be opened or read.
	ErrIO = errors.New("io error")

	// ErrMalformedRecord reports a flow log line that failed validation. Callers skip it.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrMalformedRow reports a table row that failed validation. Callers skip it.
	ErrMalformedRow = errors.New("malformed row")
)
