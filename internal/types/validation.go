package types

import (
	"errors"
	"strings"
)

// ValidationCode identifies one failed business rule.
type ValidationCode string

const (
	CodeTypeMismatch    ValidationCode = "TypeMismatch"
	CodeMissingName     ValidationCode = "MissingName"
	CodeMissingState    ValidationCode = "MissingState"
	CodeMissingRecordID ValidationCode = "MissingRecordId"
)

// ValidationError is a single failed rule with its human-readable message.
type ValidationError struct {
	Code    ValidationCode `json:"code"`
	Message string         `json:"message"`
}

// Error implements error.
func (e ValidationError) Error() string {
	return e.Message
}

// ValidationResult collects every failed rule for one record, in check order.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

// Add appends a failure and marks the result invalid.
func (r *ValidationResult) Add(code ValidationCode, message string) {
	r.Errors = append(r.Errors, ValidationError{Code: code, Message: message})
	r.Valid = false
}

// Codes returns the failed rule codes in order.
func (r ValidationResult) Codes() []ValidationCode {
	codes := make([]ValidationCode, 0, len(r.Errors))
	for _, e := range r.Errors {
		codes = append(codes, e.Code)
	}
	return codes
}

// Messages returns the failure messages in order.
func (r ValidationResult) Messages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// Err folds the failures into one error, or nil when the result is valid.
func (r ValidationResult) Err() error {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}
	return &InvalidRecordError{Result: r}
}

// InvalidRecordError carries a failed ValidationResult through error returns.
type InvalidRecordError struct {
	Result ValidationResult
}

func (e *InvalidRecordError) Error() string {
	return "validation failed: " + strings.Join(e.Result.Messages(), "; ")
}

// AsInvalidRecord unwraps an InvalidRecordError from err.
func AsInvalidRecord(err error) (*InvalidRecordError, bool) {
	var target *InvalidRecordError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
