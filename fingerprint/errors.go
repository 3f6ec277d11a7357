package fingerprint

import (
	"fmt"

	"github.com/subashy6/matchkit/core"
)

// ErrIndexFull indicates an insert into an index that already holds its
// configured capacity. The failed insert is fatal; the caller must evict
// or provision a larger index out-of-band.
type ErrIndexFull struct {
	Capacity int
}

func (e *ErrIndexFull) Error() string {
	return fmt.Sprintf("fingerprint index full: capacity %d", e.Capacity)
}

// ErrAttributeNotFound indicates a lookup or delete of an attribute that
// is not indexed. This is a caller error and is never retried.
type ErrAttributeNotFound struct {
	ID core.AttributeID
}

func (e *ErrAttributeNotFound) Error() string {
	return fmt.Sprintf("attribute not found: %s", e.ID)
}
