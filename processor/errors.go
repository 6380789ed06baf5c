package processor

import (
	"fmt"
)

// FormatError reports a time or date string that could not be parsed.
type FormatError struct {
	Field string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed %s %q", e.Field, e.Value)
}

func (e *FormatError) Unwrap() error { return e.Err }

// DomainError reports well-formed input that falls outside the shop's rules:
// an order outside operating hours or an interval length that does not split
// the operating window evenly.
type DomainError struct {
	Reason string
	Value  string
}

func (e *DomainError) Error() string {
	if e.Value == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Value)
}

// InputValidationError reports a rejected user answer. Interactive callers
// re-prompt on it.
type InputValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
