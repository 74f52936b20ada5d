package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/config"
	"github.com/rentstack/assettrack-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type itemRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	List(ctx context.Context, filter domain.ItemFilter) ([]*domain.InventoryItem, int, error)
	ListContents(ctx context.Context, containerID uuid.UUID) ([]*domain.InventoryItem, error)
	CountContents(ctx context.Context, containerID uuid.UUID) (int, error)
	WouldCycle(ctx context.Context, itemID, containerID uuid.UUID) (bool, error)
	ContainerDepth(ctx context.Context, containerID uuid.UUID) (int, error)
	Create(ctx context.Context, it *domain.InventoryItem) (*domain.InventoryItem, error)
	Update(ctx context.Context, it *domain.InventoryItem) (*domain.InventoryItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type movementRepo interface {
	Append(ctx context.Context, m *domain.Movement) (*domain.Movement, error)
	ListByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]domain.Movement, error)
	CountByItem(ctx context.Context, itemID uuid.UUID) (int, error)
}

type tagRepo interface {
	GetByItemID(ctx context.Context, itemID uuid.UUID) (*domain.RFIDTag, error)
	ClearLinkByItem(ctx context.Context, itemID uuid.UUID) error
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

// Service implements the inventory lifecycle business logic. Every write
// that touches status or location goes through a transaction that appends
// the corresponding movement record.
type Service struct {
	log       *slog.Logger
	items     itemRepo
	movements movementRepo
	tags      tagRepo
	audit     auditLog
	tx        txManager
	cfg       config.InventoryConfig
}

// NewService creates a new Inventory service.
func NewService(
	logger *slog.Logger,
	items itemRepo,
	movements movementRepo,
	tags tagRepo,
	audit auditLog,
	tx txManager,
	cfg config.InventoryConfig,
) *Service {
	return &Service{
		log:       logger.With("service", "inventory"),
		items:     items,
		movements: movements,
		tags:      tags,
		audit:     audit,
		tx:        tx,
		cfg:       cfg,
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

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

// checkContainer verifies that the target container exists, is of kind
// CONTAINER, would not create a containment cycle with itemID, and is not
// already nested at the configured depth limit.
// Pass uuid.Nil as itemID for items that do not exist yet.
func (s *Service) checkContainer(ctx context.Context, itemID, containerID uuid.UUID) error {
	if itemID == containerID {
		return domain.NewValidationError("container_id", "item cannot contain itself")
	}

	container, err := s.items.GetByID(ctx, containerID)
	if err != nil {
		return err
	}
	if container.Kind != domain.ItemKindContainer {
		return domain.NewValidationError("container_id", "target item is not a container")
	}

	if itemID != uuid.Nil {
		cycle, err := s.items.WouldCycle(ctx, itemID, containerID)
		if err != nil {
			return err
		}
		if cycle {
			return domain.NewValidationError("container_id", "containment cycle detected")
		}
	}

	depth, err := s.items.ContainerDepth(ctx, containerID)
	if err != nil {
		return err
	}
	if depth >= s.cfg.MaxContainerDepth {
		return domain.NewValidationError("container_id",
			fmt.Sprintf("container nesting exceeds max depth %d", s.cfg.MaxContainerDepth))
	}

	return nil
}
