// Package core defines the identifier and value types shared by the
// matching and term-suggestion subsystems.
package core

import "github.com/google/uuid"

// AttributeID identifies a profiled catalog attribute.
type AttributeID = uuid.UUID

// TermID identifies a business-glossary term.
type TermID = uuid.UUID

// RecordID identifies a source record in a matching run.
type RecordID = uuid.UUID

// SlotID is a dense, internal row index inside a fingerprint index.
// It is strictly 32-bit and is never exposed to callers; all public
// surfaces speak AttributeID.
type SlotID uint32

// MaxSlotID is the maximum possible value for a SlotID.
const MaxSlotID = ^SlotID(0)
