package fingerprint

import (
	"github.com/subashy6/matchkit/core"
)

// Index maps attribute ids to fingerprint rows, bounded by a fixed
// capacity.
//
// Invariant: every indexed attribute owns exactly one row in
// [0, Len()) with no gaps. Delete keeps the matrix contiguous by moving
// the last row into the freed slot (O(1), reorders iteration but not
// correctness). Updating an existing attribute never changes its row
// slot, so slot mappings cached for the duration of one query batch stay
// valid.
//
// Thread safety: none. Mutation and queries share a single-writer
// discipline enforced at the call site (see matchkit.Suggester).
type Index struct {
	idToSlot map[core.AttributeID]core.SlotID
	slotToID []core.AttributeID
	rows     *ResizableArray
}

// NewIndex creates an index for at most capacity fingerprints of the
// given dimensionality.
func NewIndex(capacity, dim int) (*Index, error) {
	rows, err := NewResizableArray(capacity, dim)
	if err != nil {
		return nil, err
	}
	return &Index{
		idToSlot: make(map[core.AttributeID]core.SlotID, capacity),
		slotToID: make([]core.AttributeID, 0, capacity),
		rows:     rows,
	}, nil
}

// Len returns the number of distinct attributes currently indexed.
func (x *Index) Len() int { return x.rows.Len() }

// Capacity returns the maximum number of attributes the index can hold.
func (x *Index) Capacity() int { return x.rows.Cap() }

// Dimension returns the fingerprint dimensionality.
func (x *Index) Dimension() int { return x.rows.Dimension() }

// Get returns the fingerprint stored for the given attribute.
// The returned slice aliases index memory; callers must copy before
// mutating or retaining it across index mutation.
func (x *Index) Get(id core.AttributeID) (core.Fingerprint, error) {
	slot, ok := x.idToSlot[id]
	if !ok {
		return nil, &ErrAttributeNotFound{ID: id}
	}
	return core.Fingerprint(x.rows.Row(slot)), nil
}

// Set stores the fingerprint for an attribute. A known attribute is
// overwritten in place, keeping its row slot stable. An unknown attribute
// is appended and fails with ErrIndexFull when the index is at capacity.
func (x *Index) Set(id core.AttributeID, fp core.Fingerprint) error {
	if slot, ok := x.idToSlot[id]; ok {
		x.rows.SetRow(slot, fp)
		return nil
	}
	slot, err := x.rows.Append(fp)
	if err != nil {
		return err
	}
	x.idToSlot[id] = slot
	x.slotToID = append(x.slotToID, id)
	return nil
}

// Delete removes an attribute. Unless the attribute owns the last row,
// the last row is moved into the freed slot and its owning attribute is
// remapped, preserving contiguity.
func (x *Index) Delete(id core.AttributeID) error {
	slot, ok := x.idToSlot[id]
	if !ok {
		return &ErrAttributeNotFound{ID: id}
	}

	last := core.SlotID(x.rows.Len() - 1)
	if slot != last {
		x.rows.SetRow(slot, x.rows.Row(last))
		moved := x.slotToID[last]
		x.idToSlot[moved] = slot
		x.slotToID[slot] = moved
	}

	x.rows.Pop()
	x.slotToID = x.slotToID[:last]
	delete(x.idToSlot, id)
	return nil
}

// Contains reports whether the attribute is indexed.
func (x *Index) Contains(id core.AttributeID) bool {
	_, ok := x.idToSlot[id]
	return ok
}

// Slot returns the current row slot of an attribute. Valid only until
// the next mutation.
func (x *Index) Slot(id core.AttributeID) (core.SlotID, bool) {
	slot, ok := x.idToSlot[id]
	return slot, ok
}

// IDAt returns the attribute owning the given row slot.
func (x *Index) IDAt(slot core.SlotID) core.AttributeID {
	return x.slotToID[slot]
}

// Row returns the fingerprint row at the given slot. Same aliasing rules
// as Get.
func (x *Index) Row(slot core.SlotID) []float32 {
	return x.rows.Row(slot)
}

// Matrix returns all occupied rows as one contiguous slice. Same
// aliasing rules as Get.
func (x *Index) Matrix() []float32 {
	return x.rows.Matrix()
}
