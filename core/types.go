package core

import (
	"fmt"

	"github.com/google/uuid"
)

// FingerprintDim is the fixed dimensionality of attribute fingerprints.
// A fingerprint is the statistical profile of one attribute and is
// replaced wholesale whenever the attribute is re-profiled.
const FingerprintDim = 128

// Fingerprint is a fixed-length float32 feature vector. Immutable once
// computed; callers must not mutate a fingerprint after handing it to an
// index.
type Fingerprint []float32

// Neighbor is one entry of a nearest-neighbor result: an attribute and
// its Euclidean distance from the query attribute.
type Neighbor struct {
	AttributeID AttributeID
	Distance    float32
}

// Neighbors is an ordered neighbor list, nearest first, never containing
// the query attribute itself.
type Neighbors []Neighbor

// Suggestion is a recommended glossary term with a confidence in [0,1].
type Suggestion struct {
	TermID     TermID
	Confidence float64
}

// RecordPair is an unordered record pair in canonical form: Low sorts
// strictly before High byte-wise, so the same undirected pair always has
// exactly one representation.
type RecordPair struct {
	Low  RecordID
	High RecordID
}

// NewRecordPair builds the canonical pair for two distinct record ids.
func NewRecordPair(a, b RecordID) (RecordPair, error) {
	switch compareIDs(a, b) {
	case -1:
		return RecordPair{Low: a, High: b}, nil
	case 1:
		return RecordPair{Low: b, High: a}, nil
	default:
		return RecordPair{}, fmt.Errorf("record pair requires distinct ids, got %s twice", a)
	}
}

// String returns a compact representation (useful in logs and tests).
func (p RecordPair) String() string {
	return fmt.Sprintf("(%s,%s)", p.Low, p.High)
}

func compareIDs(a, b uuid.UUID) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}
