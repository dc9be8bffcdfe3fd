package similarity

import (
	"errors"
	"fmt"

	"github.com/WangWilly/tweetsim/pkgs/repos/tweetrepo"
	"github.com/WangWilly/tweetsim/pkgs/vectorcodec"
)

var ErrInvalidK = errors.New("k must be non-negative")

type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tweet %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == tweetrepo.ErrNotFound
}

// DimensionMismatchError reports a stored vector whose length differs from
// the query vector.
type DimensionMismatchError struct {
	ID   int64
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("tweet %d: vector has %d dimensions, query has %d", e.ID, e.Got, e.Want)
}

// DegenerateVectorError reports a zero-norm (or empty) query vector.
type DegenerateVectorError struct {
	ID int64
}

func (e *DegenerateVectorError) Error() string {
	return fmt.Sprintf("tweet %d: vector has zero norm", e.ID)
}

////////////////////////////////////////////////////////////////////////////////

const (
	KIND_NONE             = ""
	KIND_NOT_FOUND        = "not_found"
	KIND_INVALID_ARGUMENT = "invalid_argument"
	KIND_INTEGRITY        = "integrity"
	KIND_STORAGE          = "storage"
	KIND_UNKNOWN          = "unknown"
)

// Kind classifies errors returned by the engine for callers that map them
// onto transport status codes.
func Kind(err error) string {
	if err == nil {
		return KIND_NONE
	}

	var notFound *NotFoundError
	var mismatch *DimensionMismatchError
	var degenerate *DegenerateVectorError
	var format *vectorcodec.FormatError
	var storage *tweetrepo.StorageError

	switch {
	case errors.As(err, &notFound), errors.Is(err, tweetrepo.ErrNotFound):
		return KIND_NOT_FOUND
	case errors.Is(err, ErrInvalidK):
		return KIND_INVALID_ARGUMENT
	case errors.As(err, &mismatch), errors.As(err, &degenerate), errors.As(err, &format):
		return KIND_INTEGRITY
	case errors.As(err, &storage):
		return KIND_STORAGE
	default:
		return KIND_UNKNOWN
	}
}
