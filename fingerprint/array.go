// Package fingerprint provides the dense, capacity-bounded storage that
// maps catalog attributes to their statistical fingerprints.
package fingerprint

import (
	"fmt"

	"github.com/subashy6/matchkit/core"
)

// ResizableArray is a fixed-capacity, append/pop float32 row matrix.
//
// Rows are stored contiguously in a single []float32 slice, providing
// cache locality for the brute-force distance scans that run against the
// whole matrix. The slice is allocated once at construction; Append never
// reallocates.
//
// Thread safety: none. The owning index serializes access.
type ResizableArray struct {
	data []float32
	dim  int
	rows int
}

// NewResizableArray allocates a matrix holding at most capacity rows of
// the given dimensionality.
func NewResizableArray(capacity, dim int) (*ResizableArray, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	return &ResizableArray{
		data: make([]float32, capacity*dim),
		dim:  dim,
	}, nil
}

// Len returns the number of occupied rows.
func (a *ResizableArray) Len() int { return a.rows }

// Capacity returns the maximum number of rows.
func (a *ResizableArray) Cap() int { return len(a.data) / a.dim }

// Dimension returns the row dimensionality.
func (a *ResizableArray) Dimension() int { return a.dim }

// Append copies row into the next free slot and returns its index.
func (a *ResizableArray) Append(row []float32) (core.SlotID, error) {
	if a.rows*a.dim == len(a.data) {
		return 0, &ErrIndexFull{Capacity: a.Cap()}
	}
	slot := core.SlotID(a.rows)
	copy(a.data[a.rows*a.dim:(a.rows+1)*a.dim], row)
	a.rows++
	return slot, nil
}

// Pop discards the last occupied row.
func (a *ResizableArray) Pop() {
	if a.rows == 0 {
		return
	}
	a.rows--
}

// Row returns the row at the given slot.
// The returned slice aliases internal memory; callers must not modify it
// and must not retain it across a mutation.
func (a *ResizableArray) Row(slot core.SlotID) []float32 {
	i := int(slot)
	return a.data[i*a.dim : (i+1)*a.dim : (i+1)*a.dim]
}

// SetRow overwrites the row at the given occupied slot.
func (a *ResizableArray) SetRow(slot core.SlotID, row []float32) {
	i := int(slot)
	copy(a.data[i*a.dim:(i+1)*a.dim], row)
}

// Matrix returns the occupied region as one contiguous slice of
// rows*dim float32 values. Same aliasing rules as Row.
func (a *ResizableArray) Matrix() []float32 {
	return a.data[:a.rows*a.dim]
}
