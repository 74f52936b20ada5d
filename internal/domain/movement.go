package domain

import (
	"time"

	"github.com/google/uuid"
)

// Movement is an immutable audit record of a status/location change.
// Rows are never updated or deleted; ordering per item is by CreatedAt with
// ties broken by the insertion-ordered sequence number.
type Movement struct {
	ID     uuid.UUID
	ItemID uuid.UUID
	Seq    int64 // monotonic insertion order, assigned by the datastore
	Type   MovementType

	// FromStatus is nil only for ENROLLMENT movements.
	FromStatus *ItemStatus
	ToStatus   ItemStatus

	FromLocation *string
	ToLocation   *string

	Reason      string
	Reference   *string
	PerformedBy uuid.UUID
	CreatedAt   time.Time
}
