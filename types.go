package pagex

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Direction is the way a navigation request moves through corpus order.
type Direction int

const (
	// Forward moves to the entry immediately following the current one.
	Forward Direction = iota + 1
	// Backward moves to the entry immediately preceding the current one.
	Backward
)

// String returns the callback action name of the direction.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "next"
	case Backward:
		return "prev"
	default:
		return "unknown"
	}
}

// Offset returns the position delta of the direction, or 0 when the
// direction is not valid.
func (d Direction) Offset() int {
	switch d {
	case Forward:
		return 1
	case Backward:
		return -1
	default:
		return 0
	}
}

// ParseDirection accepts "next"/"forward" and "prev"/"previous"/"backward",
// case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "next", "forward":
		return Forward, nil
	case "prev", "previous", "backward":
		return Backward, nil
	default:
		return 0, errors.Wrapf(ErrInvalidOption, "unknown direction %q", s)
	}
}

// ErrorCode represents specific error codes for page lookup operations.
type ErrorCode int

const (
	// ErrCodeLoad is returned when the corpus source is missing or malformed.
	ErrCodeLoad ErrorCode = iota + 1000

	// ErrCodeInvalidIdentifier is returned when an identifier is not in the corpus.
	ErrCodeInvalidIdentifier

	// ErrCodeOutOfRange is returned when a corpus position is outside the index.
	ErrCodeOutOfRange

	// ErrCodeNoFurtherPages is returned when navigation runs off either end of the corpus.
	ErrCodeNoFurtherPages

	// ErrCodeInvalidOption is returned when an invalid option is provided.
	ErrCodeInvalidOption

	// ErrCodeCanceled is returned when a ranking pass is canceled.
	ErrCodeCanceled

	// ErrCodeInvalidCallback is returned when a callback payload cannot be parsed.
	ErrCodeInvalidCallback

	// ErrCodePageNotFound is returned when page bytes cannot be resolved.
	ErrCodePageNotFound
)

// String returns the human-readable string representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeLoad:
		return "corpus load failed"
	case ErrCodeInvalidIdentifier:
		return "invalid identifier"
	case ErrCodeOutOfRange:
		return "position out of range"
	case ErrCodeNoFurtherPages:
		return "no further pages"
	case ErrCodeInvalidOption:
		return "invalid option"
	case ErrCodeCanceled:
		return "operation canceled"
	case ErrCodeInvalidCallback:
		return "invalid callback"
	case ErrCodePageNotFound:
		return "page not found"
	default:
		return "unknown error"
	}
}

// newErrorWithCode creates a new error with a code and message.
func newErrorWithCode(code ErrorCode, msg string) error {
	err := errors.New(msg)
	return errors.WithSecondaryError(err, errors.Newf("code: %d", int(code)))
}

// Common errors returned by corpus, ranking and navigation operations.
// Concrete failures wrap one of these, so callers test with errors.Is.
var (
	// ErrLoad is returned when the corpus source is unreadable or malformed.
	ErrLoad = newErrorWithCode(ErrCodeLoad, "pagex: corpus load failed")

	// ErrInvalidIdentifier is returned when navigation starts from an unknown page.
	ErrInvalidIdentifier = newErrorWithCode(ErrCodeInvalidIdentifier, "pagex: invalid identifier")

	// ErrOutOfRange is returned by positional lookups outside the index.
	ErrOutOfRange = newErrorWithCode(ErrCodeOutOfRange, "pagex: position out of range")

	// ErrNoFurtherPages is returned when there is no neighbour in the requested direction.
	ErrNoFurtherPages = newErrorWithCode(ErrCodeNoFurtherPages, "pagex: no further pages")

	// ErrInvalidOption is returned when an invalid option is provided.
	ErrInvalidOption = newErrorWithCode(ErrCodeInvalidOption, "pagex: invalid option")

	// ErrCanceled is returned when a ranking pass is canceled.
	ErrCanceled = newErrorWithCode(ErrCodeCanceled, "pagex: operation canceled")

	// ErrInvalidCallback is returned when a callback payload is malformed.
	ErrInvalidCallback = newErrorWithCode(ErrCodeInvalidCallback, "pagex: invalid callback")

	// ErrPageNotFound is returned when a page store has no bytes for an identifier.
	ErrPageNotFound = newErrorWithCode(ErrCodePageNotFound, "pagex: page not found")
)

// IsNoPage reports whether err means navigation has nowhere to go: the
// starting page is unknown or at the edge of the corpus. Callers render it as
// "no further pages" rather than as a failure.
func IsNoPage(err error) bool {
	return errors.Is(err, ErrNoFurtherPages) || errors.Is(err, ErrInvalidIdentifier)
}
