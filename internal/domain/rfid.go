package domain

import (
	"time"

	"github.com/google/uuid"
)

// RFIDTag is the registry record of a physical transponder.
type RFIDTag struct {
	ID  uuid.UUID
	EPC string // globally unique hardware id
	TID *string

	Status TagStatus
	// InventoryItemID is set iff Status is ENROLLED. The link is exclusive
	// in both directions: one tag per item, one item per tag.
	InventoryItemID *uuid.UUID

	// FirstSeenAt/LastSeenAt are derived from detections by the intake path
	// and are not independently settable.
	FirstSeenAt *time.Time
	LastSeenAt  *time.Time

	// EverEnrolled distinguishes "registered but never bound" tags from
	// tags that went through an enroll/unenroll cycle.
	EverEnrolled bool

	CreatedAt time.Time
	UpdatedAt time.Time

	// DetectionCount is populated by list/detail reads.
	DetectionCount int
}

// IsEnrolled reports whether the tag is currently bound to an item.
func (t *RFIDTag) IsEnrolled() bool {
	return t.Status == TagStatusEnrolled && t.InventoryItemID != nil
}

// RFIDDetection is one reader sighting of a tag. Append-only.
type RFIDDetection struct {
	ID         uuid.UUID
	TagID      uuid.UUID
	ReaderID   string
	ReaderName *string
	RSSI       *int
	Direction  *Direction
	Timestamp  time.Time
	CreatedAt  time.Time
}
