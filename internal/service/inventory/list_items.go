package inventory

import (
	"context"
	"fmt"

	"github.com/rentstack/assettrack-backend/internal/domain"
	"github.com/rentstack/assettrack-backend/pkg/ctxutil"
)

// ListItems returns a filtered, paginated inventory page and the total count.
func (s *Service) ListItems(ctx context.Context, filter domain.ItemFilter) ([]*domain.InventoryItem, int, error) {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return nil, 0, domain.ErrUnauthorized
	}

	if filter.Limit < 0 {
		return nil, 0, domain.NewValidationError("limit", "must be non-negative")
	}
	if filter.Offset < 0 {
		return nil, 0, domain.NewValidationError("offset", "must be non-negative")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, 0, domain.NewValidationError("status", "must be one of IN, OUT, MAINTENANCE, LOST")
	}
	if filter.Kind != nil && !filter.Kind.IsValid() {
		return nil, 0, domain.NewValidationError("kind", "must be one of UNIT, CONTAINER, BULK")
	}

	items, total, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}

	return items, total, nil
}

// ListMovements returns the item's movement history, newest first, with the
// total ledger size for the item.
func (s *Service) ListMovements(ctx context.Context, input ListMovementsInput) ([]domain.Movement, int, error) {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return nil, 0, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, 0, err
	}

	if _, err := s.items.GetByID(ctx, input.ItemID); err != nil {
		return nil, 0, fmt.Errorf("get item: %w", err)
	}

	limit := input.Limit
	if limit == 0 {
		limit = s.cfg.MovementPreviewLimit
	}

	movements, err := s.movements.ListByItem(ctx, input.ItemID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	total, err := s.movements.CountByItem(ctx, input.ItemID)
	if err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	return movements, total, nil
}
