package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord is one append-only entry in the operator action log. This log
// is separate from the movement ledger: it records who used the API, not the
// physical state of an item.
type AuditRecord struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	EntityType EntityType
	EntityID   *uuid.UUID
	Action     AuditAction
	Changes    map[string]any
	CreatedAt  time.Time
}
