package fingerprint

import (
	"fmt"
	"io"

	"github.com/subashy6/matchkit/core"
	"github.com/subashy6/matchkit/persistence"
)

// SaveToFile writes a compressed snapshot of the index to a file.
func (x *Index) SaveToFile(path string) error {
	return persistence.SaveToFile(path, func(w io.Writer) error {
		return x.WriteTo(w)
	})
}

// LoadFromFile reads a snapshot written by SaveToFile.
func LoadFromFile(path string) (*Index, error) {
	var x *Index
	err := persistence.LoadFromFile(path, func(r io.Reader) error {
		var err error
		x, err = ReadFrom(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return x, nil
}

// WriteTo writes the index in binary format: header, attribute ids in
// slot order, then the fingerprint matrix.
func (x *Index) WriteTo(w io.Writer) error {
	bw := persistence.NewBinaryWriter(w)

	header := &persistence.FileHeader{
		RowCount:  uint64(x.Len()),
		Dimension: uint32(x.Dimension()),
		Capacity:  uint32(x.Capacity()),
	}
	if err := bw.WriteHeader(header); err != nil {
		return err
	}

	for _, id := range x.slotToID {
		if err := bw.WriteBytes(id[:]); err != nil {
			return err
		}
	}
	if err := bw.WriteFloat32Slice(x.Matrix()); err != nil {
		return err
	}
	return bw.WriteChecksum()
}

// ReadFrom reconstructs an index from a snapshot stream.
func ReadFrom(r io.Reader) (*Index, error) {
	br := persistence.NewBinaryReader(r)

	header, err := br.ReadHeader()
	if err != nil {
		return nil, err
	}
	if header.RowCount > uint64(header.Capacity) {
		return nil, fmt.Errorf("corrupt snapshot: %d rows exceed capacity %d", header.RowCount, header.Capacity)
	}

	x, err := NewIndex(int(header.Capacity), int(header.Dimension))
	if err != nil {
		return nil, err
	}

	ids := make([]core.AttributeID, header.RowCount)
	for i := range ids {
		if err := br.ReadBytes(ids[i][:]); err != nil {
			return nil, err
		}
	}

	row := make([]float32, header.Dimension)
	for _, id := range ids {
		if err := br.ReadFloat32SliceInto(row); err != nil {
			return nil, err
		}
		if err := x.Set(id, row); err != nil {
			return nil, err
		}
	}

	if err := br.VerifyChecksum(); err != nil {
		return nil, err
	}
	return x, nil
}
