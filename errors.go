package matchkit

import (
	"errors"
	"fmt"

	"github.com/subashy6/matchkit/fingerprint"
	"github.com/subashy6/matchkit/neighbors"
)

var (
	// ErrNotFound is returned when an attribute is not indexed.
	ErrNotFound = errors.New("not found")

	// ErrIndexFull is returned when an insert exceeds the configured
	// index capacity.
	ErrIndexFull = errors.New("index full")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")
)

// ErrDimensionMismatch indicates a fingerprint whose dimensionality does
// not match the index.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var nf *fingerprint.ErrAttributeNotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var full *fingerprint.ErrIndexFull
	if errors.As(err, &full) {
		return fmt.Errorf("%w: %w", ErrIndexFull, err)
	}

	if errors.Is(err, neighbors.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}

	return err
}
