package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/domain"
	"github.com/rentstack/assettrack-backend/pkg/ctxutil"
)

// GetItem returns a single item with its contents (for containers), the bound
// RFID tag, and a preview of the most recent movements.
func (s *Service) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.InventoryItem, error) {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	if itemID == uuid.Nil {
		return nil, domain.NewValidationError("item_id", "required")
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if item.Kind == domain.ItemKindContainer {
		contents, err := s.items.ListContents(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("list contents: %w", err)
		}
		item.Contents = make([]domain.InventoryItem, 0, len(contents))
		for _, c := range contents {
			item.Contents = append(item.Contents, *c)
		}
	}

	movements, err := s.movements.ListByItem(ctx, item.ID, s.cfg.MovementPreviewLimit)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	item.Movements = movements

	tag, err := s.tags.GetByItemID(ctx, item.ID)
	switch {
	case err == nil:
		item.Tag = tag
	case errors.Is(err, domain.ErrNotFound):
		// no tag bound, not an error
	default:
		return nil, fmt.Errorf("get bound tag: %w", err)
	}

	return item, nil
}
