package rfid

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/config"
	"github.com/rentstack/assettrack-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type tagRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RFIDTag, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.RFIDTag, error)
	GetByEPC(ctx context.Context, epc string) (*domain.RFIDTag, error)
	GetByItemID(ctx context.Context, itemID uuid.UUID) (*domain.RFIDTag, error)
	List(ctx context.Context, filter domain.TagFilter) ([]*domain.RFIDTag, int, error)
	ListUnknown(ctx context.Context) ([]*domain.RFIDTag, error)
	Create(ctx context.Context, t *domain.RFIDTag) (*domain.RFIDTag, error)
	Promote(ctx context.Context, tagID uuid.UUID, tid *string) error
	UpsertDetected(ctx context.Context, epc string, seenAt time.Time) (*domain.RFIDTag, error)
	SetLink(ctx context.Context, tagID, itemID uuid.UUID) error
	ClearLink(ctx context.Context, tagID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type detectionRepo interface {
	Append(ctx context.Context, d *domain.RFIDDetection) (*domain.RFIDDetection, error)
	ListByTag(ctx context.Context, tagID uuid.UUID, limit int) ([]domain.RFIDDetection, error)
	CountByTag(ctx context.Context, tagID uuid.UUID) (int, error)
}

type itemRepo interface {
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
}

type auditLog interface {
	Log(ctx context.Context, record domain.AuditRecord) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the RFID tag registry and detection intake.
// Enrollment links are exclusive in both directions; the datastore enforces
// this with row locks plus unique constraints, the service turns violations
// into conflict errors the caller can act on.
type Service struct {
	log        *slog.Logger
	tags       tagRepo
	detections detectionRepo
	items      itemRepo
	audit      auditLog
	tx         txManager
	cfg        config.RFIDConfig
}

// NewService creates a new RFID service.
func NewService(
	logger *slog.Logger,
	tags tagRepo,
	detections detectionRepo,
	items itemRepo,
	audit auditLog,
	tx txManager,
	cfg config.RFIDConfig,
) *Service {
	return &Service{
		log:        logger.With("service", "rfid"),
		tags:       tags,
		detections: detections,
		items:      items,
		audit:      audit,
		tx:         tx,
		cfg:        cfg,
	}
}

// normalizeEPC canonicalizes an EPC to uppercase hex without separators.
func normalizeEPC(epc string) string {
	epc = strings.ToUpper(strings.TrimSpace(epc))
	epc = strings.ReplaceAll(epc, "-", "")
	epc = strings.ReplaceAll(epc, ":", "")
	return epc
}

// trimOrNil trims whitespace. Returns nil if result is empty.
func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
