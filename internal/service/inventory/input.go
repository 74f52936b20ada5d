package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/domain"
)

const (
	maxLocationLen = 200
	maxReasonLen   = 500
	maxNotesLen    = 2000
	maxIdentLen    = 100
)

// CreateItemInput holds the parameters for registering a new inventory item.
type CreateItemInput struct {
	SerialNumber *string
	AssetTag     *string
	Kind         domain.ItemKind
	Status       domain.ItemStatus // defaults to IN when empty
	Location     string
	ContainerID  *uuid.UUID
	ProductID    *uuid.UUID

	PurchaseDate  *time.Time
	PurchasePrice *float64
	WarrantyUntil *time.Time
	Notes         *string
}

// Validate checks all fields and collects all errors.
func (i CreateItemInput) Validate() error {
	var errs []domain.FieldError

	if !i.Kind.IsValid() {
		errs = append(errs, domain.FieldError{Field: "kind", Message: "must be one of UNIT, CONTAINER, BULK"})
	}
	if i.Status != "" && !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "must be one of IN, OUT, MAINTENANCE, LOST"})
	}

	location := strings.TrimSpace(i.Location)
	if location == "" {
		errs = append(errs, domain.FieldError{Field: "location", Message: "required"})
	}
	if len(location) > maxLocationLen {
		errs = append(errs, domain.FieldError{Field: "location", Message: "max 200 characters"})
	}

	if i.SerialNumber != nil && len(strings.TrimSpace(*i.SerialNumber)) > maxIdentLen {
		errs = append(errs, domain.FieldError{Field: "serial_number", Message: "max 100 characters"})
	}
	if i.AssetTag != nil && len(strings.TrimSpace(*i.AssetTag)) > maxIdentLen {
		errs = append(errs, domain.FieldError{Field: "asset_tag", Message: "max 100 characters"})
	}
	if i.Notes != nil && len(*i.Notes) > maxNotesLen {
		errs = append(errs, domain.FieldError{Field: "notes", Message: "max 2000 characters"})
	}
	if i.PurchasePrice != nil && *i.PurchasePrice < 0 {
		errs = append(errs, domain.FieldError{Field: "purchase_price", Message: "must be non-negative"})
	}
	if i.ContainerID != nil && *i.ContainerID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "container_id", Message: "must be a valid UUID"})
	}
	if i.ProductID != nil && *i.ProductID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "product_id", Message: "must be a valid UUID"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateItemInput holds the parameters for a partial item update.
// Nil pointer fields are left untouched. SetContainer/SetProduct distinguish
// "do not change" from "clear the reference".
type UpdateItemInput struct {
	ItemID uuid.UUID

	SerialNumber *string
	AssetTag     *string
	Status       *domain.ItemStatus
	Location     *string
	Reason       *string

	SetContainer bool
	ContainerID  *uuid.UUID

	SetProduct bool
	ProductID  *uuid.UUID

	PurchaseDate  *time.Time
	PurchasePrice *float64
	WarrantyUntil *time.Time
	Notes         *string
}

// Validate checks all fields and collects all errors.
func (i UpdateItemInput) Validate() error {
	var errs []domain.FieldError

	if i.ItemID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "item_id", Message: "required"})
	}
	if i.Status != nil && !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "must be one of IN, OUT, MAINTENANCE, LOST"})
	}
	if i.Location != nil {
		loc := strings.TrimSpace(*i.Location)
		if loc == "" {
			errs = append(errs, domain.FieldError{Field: "location", Message: "must not be empty"})
		}
		if len(loc) > maxLocationLen {
			errs = append(errs, domain.FieldError{Field: "location", Message: "max 200 characters"})
		}
	}
	if i.Reason != nil && len(*i.Reason) > maxReasonLen {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "max 500 characters"})
	}
	if i.SerialNumber != nil && len(strings.TrimSpace(*i.SerialNumber)) > maxIdentLen {
		errs = append(errs, domain.FieldError{Field: "serial_number", Message: "max 100 characters"})
	}
	if i.AssetTag != nil && len(strings.TrimSpace(*i.AssetTag)) > maxIdentLen {
		errs = append(errs, domain.FieldError{Field: "asset_tag", Message: "max 100 characters"})
	}
	if i.Notes != nil && len(*i.Notes) > maxNotesLen {
		errs = append(errs, domain.FieldError{Field: "notes", Message: "max 2000 characters"})
	}
	if i.PurchasePrice != nil && *i.PurchasePrice < 0 {
		errs = append(errs, domain.FieldError{Field: "purchase_price", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// CheckInput holds the parameters for a check-in or check-out.
// Location is optional; when empty the item keeps its current location.
type CheckInput struct {
	ItemID    uuid.UUID
	Location  string
	Reason    string
	Reference *string
}

// Validate checks all fields and collects all errors.
func (i CheckInput) Validate() error {
	var errs []domain.FieldError

	if i.ItemID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "item_id", Message: "required"})
	}
	if len(strings.TrimSpace(i.Location)) > maxLocationLen {
		errs = append(errs, domain.FieldError{Field: "location", Message: "max 200 characters"})
	}
	if len(i.Reason) > maxReasonLen {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "max 500 characters"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ListMovementsInput holds the parameters for listing an item's movement history.
type ListMovementsInput struct {
	ItemID uuid.UUID
	Limit  int
}

// Validate checks all fields and collects all errors.
func (i ListMovementsInput) Validate() error {
	var errs []domain.FieldError

	if i.ItemID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "item_id", Message: "required"})
	}
	if i.Limit < 0 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be non-negative"})
	}
	if i.Limit > 500 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "max 500"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
