package translate

import (
	"errors"
	"fmt"
)

// TranslationError reports malformed shorthand input. It is returned to the
// caller as a value and is never turned into an executable statement.
type TranslationError struct {
	// Code identifies the error category.
	Code TranslationErrorCode

	// Message is a human-readable description.
	Message string

	// Input is the original shorthand text.
	Input string
}

// TranslationErrorCode categorizes translation errors.
type TranslationErrorCode string

const (
	// ErrCodeEmptyQuery indicates blank input.
	ErrCodeEmptyQuery TranslationErrorCode = "EMPTY_QUERY"

	// ErrCodeInvalidRange indicates a malformed range: token count, operator
	// or value.
	ErrCodeInvalidRange TranslationErrorCode = "INVALID_RANGE"

	// ErrCodeInvalidFilter indicates a malformed filter: token count or
	// population expression.
	ErrCodeInvalidFilter TranslationErrorCode = "INVALID_FILTER"

	// ErrCodeInvalidCRM indicates an unrecognized crm parameter.
	ErrCodeInvalidCRM TranslationErrorCode = "INVALID_CRM"

	// ErrCodeUnknownField indicates a field outside the flattened_data schema.
	ErrCodeUnknownField TranslationErrorCode = "UNKNOWN_FIELD"
)

// Error implements the error interface.
func (e *TranslationError) Error() string {
	return fmt.Sprintf("%s: %s (input=%q)", e.Code, e.Message, e.Input)
}

// IsTranslationError returns true if the error is a TranslationError.
// Uses errors.As to handle wrapped errors.
func IsTranslationError(err error) bool {
	var te *TranslationError
	return errors.As(err, &te)
}

func newError(code TranslationErrorCode, input, format string, args ...any) *TranslationError {
	return &TranslationError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Input:   input,
	}
}
