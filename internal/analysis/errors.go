package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrPendingClarification is returned when scoring a result that still has unanswered items.
	ErrPendingClarification = errors.New("analysis has pending clarification items")
	// ErrIncompleteResult is returned when scoring a failed result.
	ErrIncompleteResult = errors.New("analysis result is incomplete")
	// ErrUnsupportedSource is returned for postings whose source is excluded from analysis.
	ErrUnsupportedSource = errors.New("source type is not supported for analysis")
)

// ParseError reports an LLM response that is not valid JSON or has the wrong shape.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse extraction response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
