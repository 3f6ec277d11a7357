// Package dedupe generates candidate record pairs through blocking
// predicates and drives a disagreement-based active learner that selects
// the most informative unlabeled pair.
package dedupe

import (
	"context"
	"errors"

	"github.com/subashy6/matchkit/core"
)

// ErrExhaustedPool is returned when no unlabeled candidate pairs remain.
// It is terminal for the training session.
var ErrExhaustedPool = errors.New("candidate pool exhausted")

// Record is one source record under matching: an id plus its field
// values.
type Record struct {
	ID     core.RecordID
	Fields map[string]string
}

// RecordStore is the collaborator providing full record field values.
// Fetches may block on network IO; retries and backoff are the store's
// (or its caller's) responsibility, never this package's.
type RecordStore interface {
	FetchRecordDetailsByIDs(ctx context.Context, ids []core.RecordID) (map[core.RecordID]Record, error)
}
