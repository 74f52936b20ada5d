package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/domain"
	"github.com/rentstack/assettrack-backend/pkg/ctxutil"
)

// DeleteItem removes an item from the active inventory. Containers with
// contents are refused. A bound RFID tag is unenrolled in the same
// transaction; movement history is retained.
func (s *Service) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if itemID == uuid.Nil {
		return domain.NewValidationError("item_id", "required")
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		item, err := s.items.GetByIDForUpdate(ctx, itemID)
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}

		if item.Kind == domain.ItemKindContainer {
			count, err := s.items.CountContents(ctx, item.ID)
			if err != nil {
				return fmt.Errorf("count contents: %w", err)
			}
			if count > 0 {
				return domain.NewConflictError("container holds %d items, empty it first", count)
			}
		}

		if err := s.tags.ClearLinkByItem(ctx, item.ID); err != nil {
			return fmt.Errorf("unbind tag: %w", err)
		}

		if err := s.items.Delete(ctx, item.ID); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}

		if err := s.audit.Log(ctx, domain.AuditRecord{
			UserID:     userID,
			EntityType: domain.EntityTypeItem,
			EntityID:   &itemID,
			Action:     domain.AuditActionDelete,
			Changes: map[string]any{
				"status":   string(item.Status),
				"location": item.Location,
			},
		}); err != nil {
			return fmt.Errorf("audit delete: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "inventory item deleted",
		slog.String("item_id", itemID.String()),
	)

	return nil
}
