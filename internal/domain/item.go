package domain

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem is a physical, trackable unit. Status and location changes
// never happen without a corresponding Movement in the same transaction.
type InventoryItem struct {
	ID           uuid.UUID
	SerialNumber *string // globally unique when present
	AssetTag     *string // globally unique when present
	Kind         ItemKind
	Status       ItemStatus
	Location     string
	ContainerID  *uuid.UUID
	ProductID    *uuid.UUID

	// Commercial/descriptive payload, immaterial to tracking logic.
	PurchaseDate  *time.Time
	PurchasePrice *float64
	WarrantyUntil *time.Time
	Notes         *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Contents holds items whose ContainerID points at this item.
	// Populated only by detail reads.
	Contents []InventoryItem
	// Movements holds the latest movements, newest first.
	// Populated only by detail reads.
	Movements []Movement
	// Tag is the bound RFID tag, if any. Populated only by detail reads.
	Tag *RFIDTag
	// Product is display metadata from the catalog. Populated on reads
	// when ProductID is set.
	Product *Product
}

// IsContainedIn reports whether the item sits directly in the given container.
func (i *InventoryItem) IsContainedIn(containerID uuid.UUID) bool {
	return i.ContainerID != nil && *i.ContainerID == containerID
}

// Product is read-only display metadata owned by the product catalog.
type Product struct {
	ID       uuid.UUID
	Name     string
	SKU      string
	Category *string
}
