// Package persistence provides binary serialization for fingerprint
// index snapshots, with zstd-compressed payloads and atomic file writes.
package persistence

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

// BinaryWriter writes snapshot sections in little-endian binary format
// while maintaining a running CRC32 over everything written after the
// header.
type BinaryWriter struct {
	w   io.Writer
	crc uint32
	buf []byte
}

// NewBinaryWriter creates a new binary writer.
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{w: w, buf: make([]byte, 8)}
}

// WriteHeader writes the file header. The header is not covered by the
// running checksum.
func (bw *BinaryWriter) WriteHeader(header *FileHeader) error {
	header.Magic = MagicNumber
	header.Version = Version
	return binary.Write(bw.w, binary.LittleEndian, header)
}

func (bw *BinaryWriter) write(p []byte) error {
	if _, err := bw.w.Write(p); err != nil {
		return err
	}
	bw.crc = crc32.Update(bw.crc, crc32.IEEETable, p)
	return nil
}

// WriteUint64 writes a single uint64.
func (bw *BinaryWriter) WriteUint64(v uint64) error {
	binary.LittleEndian.PutUint64(bw.buf[:8], v)
	return bw.write(bw.buf[:8])
}

// WriteFloat32Slice writes a float32 slice as packed little-endian bytes.
func (bw *BinaryWriter) WriteFloat32Slice(vec []float32) error {
	for _, f := range vec {
		binary.LittleEndian.PutUint32(bw.buf[:4], math.Float32bits(f))
		if err := bw.write(bw.buf[:4]); err != nil {
			return err
		}
	}
	return nil
}

// WriteBytes writes a raw byte slice (fixed-length sections such as UUIDs).
func (bw *BinaryWriter) WriteBytes(p []byte) error {
	return bw.write(p)
}

// WriteChecksum appends the running CRC32 as the final section.
func (bw *BinaryWriter) WriteChecksum() error {
	binary.LittleEndian.PutUint32(bw.buf[:4], bw.crc)
	_, err := bw.w.Write(bw.buf[:4])
	return err
}

// BinaryReader reads snapshot sections written by BinaryWriter, mirroring
// its running checksum.
type BinaryReader struct {
	r   io.Reader
	crc uint32
	buf []byte
}

// NewBinaryReader creates a new binary reader.
func NewBinaryReader(r io.Reader) *BinaryReader {
	return &BinaryReader{r: r, buf: make([]byte, 8)}
}

// ReadHeader reads and validates the file header.
func (br *BinaryReader) ReadHeader() (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(br.r, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, header.Version)
	}
	return &header, nil
}

func (br *BinaryReader) read(p []byte) error {
	if _, err := io.ReadFull(br.r, p); err != nil {
		return err
	}
	br.crc = crc32.Update(br.crc, crc32.IEEETable, p)
	return nil
}

// ReadUint64 reads a single uint64.
func (br *BinaryReader) ReadUint64() (uint64, error) {
	if err := br.read(br.buf[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(br.buf[:8]), nil
}

// ReadFloat32SliceInto reads packed float32 values into the provided buffer.
func (br *BinaryReader) ReadFloat32SliceInto(vec []float32) error {
	for i := range vec {
		if err := br.read(br.buf[:4]); err != nil {
			return err
		}
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(br.buf[:4]))
	}
	return nil
}

// ReadBytes reads exactly len(p) raw bytes.
func (br *BinaryReader) ReadBytes(p []byte) error {
	return br.read(p)
}

// VerifyChecksum reads the trailing CRC32 and compares it against the
// running checksum of all sections read so far.
func (br *BinaryReader) VerifyChecksum() error {
	if _, err := io.ReadFull(br.r, br.buf[:4]); err != nil {
		return err
	}
	want := binary.LittleEndian.Uint32(br.buf[:4])
	if want != br.crc {
		return fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrChecksumMismatch, br.crc, want)
	}
	return nil
}
