package persistence

import "errors"

const (
	// MagicNumber identifies matchkit snapshot files (ASCII: "FPS0").
	MagicNumber = 0x46505330
	// Version is the current snapshot format version.
	Version = 0x00010000
)

var (
	ErrInvalidMagic    = errors.New("invalid magic number")
	ErrInvalidVersion  = errors.New("unsupported version")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// FileHeader is the fixed-size header at the start of every snapshot file.
type FileHeader struct {
	Magic     uint32
	Version   uint32
	RowCount  uint64 // Number of fingerprints in the snapshot
	Dimension uint32 // Fingerprint dimensionality
	Capacity  uint32 // Index capacity at snapshot time
	Reserved  [8]byte
}
