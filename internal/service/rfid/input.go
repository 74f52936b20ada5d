package rfid

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/domain"
)

const (
	maxEPCLen      = 64
	maxTIDLen      = 64
	maxReaderIDLen = 100
)

// epcPattern matches a canonicalized EPC: uppercase hex, even length.
var epcPattern = regexp.MustCompile(`^(?:[0-9A-F]{2})+$`)

// RecordDetectionInput holds one reader sighting.
type RecordDetectionInput struct {
	EPC        string
	ReaderID   string
	ReaderName *string
	RSSI       *int
	Direction  *domain.Direction
	// Timestamp is the reader-side detection time. Zero means "now".
	Timestamp time.Time
}

// Validate checks all fields and collects all errors.
func (i RecordDetectionInput) Validate() error {
	var errs []domain.FieldError

	epc := normalizeEPC(i.EPC)
	if epc == "" {
		errs = append(errs, domain.FieldError{Field: "epc", Message: "required"})
	} else if len(epc) > maxEPCLen || !epcPattern.MatchString(epc) {
		errs = append(errs, domain.FieldError{Field: "epc", Message: "must be hex, max 64 characters"})
	}

	readerID := strings.TrimSpace(i.ReaderID)
	if readerID == "" {
		errs = append(errs, domain.FieldError{Field: "reader_id", Message: "required"})
	}
	if len(readerID) > maxReaderIDLen {
		errs = append(errs, domain.FieldError{Field: "reader_id", Message: "max 100 characters"})
	}

	if i.RSSI != nil && (*i.RSSI > 0 || *i.RSSI < -120) {
		errs = append(errs, domain.FieldError{Field: "rssi", Message: "must be between -120 and 0 dBm"})
	}
	if i.Direction != nil && !i.Direction.IsValid() {
		errs = append(errs, domain.FieldError{Field: "direction", Message: "must be IN or OUT"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// RegisterTagInput holds the parameters for registering a tag in advance of
// (or together with) its first enrollment.
type RegisterTagInput struct {
	EPC string
	TID *string
	// ItemID, when set, enrolls the tag onto the item in the same transaction.
	ItemID *uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i RegisterTagInput) Validate() error {
	var errs []domain.FieldError

	epc := normalizeEPC(i.EPC)
	if epc == "" {
		errs = append(errs, domain.FieldError{Field: "epc", Message: "required"})
	} else if len(epc) > maxEPCLen || !epcPattern.MatchString(epc) {
		errs = append(errs, domain.FieldError{Field: "epc", Message: "must be hex, max 64 characters"})
	}

	if i.TID != nil && len(strings.TrimSpace(*i.TID)) > maxTIDLen {
		errs = append(errs, domain.FieldError{Field: "tid", Message: "max 64 characters"})
	}
	if i.ItemID != nil && *i.ItemID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "item_id", Message: "must be a valid UUID"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// EnrollInput holds the parameters for binding a tag to an item.
type EnrollInput struct {
	TagID  uuid.UUID
	ItemID uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i EnrollInput) Validate() error {
	var errs []domain.FieldError

	if i.TagID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "tag_id", Message: "required"})
	}
	if i.ItemID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "item_id", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
