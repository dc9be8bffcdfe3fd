package ingestion

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedJSON     = errors.New("malformed json")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidTimestamp  = errors.New("invalid created_at timestamp")
	ErrRepoRequired      = errors.New("tweet repository is required")
	ErrNormalizerNeeded  = errors.New("normalizer is required")
	ErrGeneratorRequired = errors.New("embedding generator is required")
	ErrAnalyzerRequired  = errors.New("sentiment analyzer is required")
)

// InputError marks a feed line that could not be turned into a tweet.
type InputError struct {
	Line int
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// LineError attaches the feed line number to an embedding failure.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
