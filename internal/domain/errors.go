package domain

import (
	"errors"
	"fmt"
)

// RecordSource names the input a record came from
type RecordSource string

const (
	SourceERP  RecordSource = "erp"
	SourceBank RecordSource = "bank"
)

var (
	ErrMissingField    = errors.New("missing required field")
	ErrRunNotFound     = errors.New("reconciliation run not found")
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// MalformedRecordError reports an input row that is missing a required field
// or fails type coercion. Row is the zero-based index in the input sequence.
type MalformedRecordError struct {
	Source RecordSource
	Row    int
	Field  string
	Value  string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("malformed %s record at row %d: field %q: %v", e.Source, e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed %s record at row %d: field %q value %q: %v", e.Source, e.Row, e.Field, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// Skipped converts the error into a report-friendly record
func (e *MalformedRecordError) Skipped() SkippedRecord {
	reason := ""
	if e.Err != nil {
		reason = e.Err.Error()
	}
	return SkippedRecord{Source: e.Source, Row: e.Row, Field: e.Field, Reason: reason}
}

// AmbiguousPaymentDescriptionError reports a bank row that carries the
// payment marker but no extractable invoice id. It is never escalated.
type AmbiguousPaymentDescriptionError struct {
	Row         int
	Description string
}

func (e *AmbiguousPaymentDescriptionError) Error() string {
	return fmt.Sprintf("bank row %d: payment description %q has no invoice id", e.Row, e.Description)
}

// ReconciliationFailure wraps an unrecoverable error raised during a run
type ReconciliationFailure struct {
	Stage string
	Err   error
}

func (e *ReconciliationFailure) Error() string {
	return fmt.Sprintf("reconciliation failed during %s: %v", e.Stage, e.Err)
}

func (e *ReconciliationFailure) Unwrap() error {
	return e.Err
}
