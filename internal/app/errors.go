package service

import (
	"errors"
	"fmt"

	"github.com/okian/critic/internal/adapters/repository"
)

// Error kinds returned by the service. Callers match them with errors.Is.
var (
	// ErrExternalFetch means the music catalog was unreachable or answered
	// with a non-success status and the operation could not proceed without it.
	ErrExternalFetch = errors.New("external catalog fetch failed")
	// ErrNotFound means a referenced album, artist or bookmark does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConsistency means a unit of work could not keep the review state
	// consistent and was rolled back.
	ErrConsistency = errors.New("consistency violation")
	// ErrInvalidInput means the request itself is malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyReviewed means the album already has a review.
	ErrAlreadyReviewed = errors.New("album already reviewed")
)

// classify maps repository failures onto service error kinds. Errors that
// already carry a service kind pass through unchanged.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrExternalFetch),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConsistency),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrAlreadyReviewed):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrConsistency, err)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
