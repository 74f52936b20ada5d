package rfid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/domain"
	"github.com/rentstack/assettrack-backend/pkg/ctxutil"
)

// Enroll binds a tag to an item. Both sides are locked for the duration of
// the transaction; a tag already on another item or an item already carrying
// another tag is a conflict, never a silent re-bind.
func (s *Service) Enroll(ctx context.Context, input EnrollInput) (*domain.RFIDTag, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var tag *domain.RFIDTag

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.enrollLocked(ctx, userID, input.TagID, input.ItemID); err != nil {
			return err
		}

		reloaded, err := s.tags.GetByID(ctx, input.TagID)
		if err != nil {
			return fmt.Errorf("reload tag: %w", err)
		}
		tag = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "rfid tag enrolled",
		slog.String("tag_id", input.TagID.String()),
		slog.String("item_id", input.ItemID.String()),
	)

	return tag, nil
}

// enrollLocked performs the link under row locks. Must run inside a
// transaction. Lock order is tag then item, the same everywhere, so two
// concurrent enrollments cannot deadlock.
func (s *Service) enrollLocked(ctx context.Context, userID, tagID, itemID uuid.UUID) error {
	tag, err := s.tags.GetByIDForUpdate(ctx, tagID)
	if err != nil {
		return fmt.Errorf("get tag: %w", err)
	}
	if tag.InventoryItemID != nil {
		if *tag.InventoryItemID == itemID {
			return domain.NewConflictError("tag %s is already enrolled on this item", tag.EPC)
		}
		return domain.NewConflictError("tag %s is enrolled on another item", tag.EPC)
	}

	if _, err := s.items.GetByIDForUpdate(ctx, itemID); err != nil {
		return fmt.Errorf("get item: %w", err)
	}

	existing, err := s.tags.GetByItemID(ctx, itemID)
	switch {
	case err == nil:
		return domain.NewConflictError("item already carries tag %s", existing.EPC)
	case errors.Is(err, domain.ErrNotFound):
		// free to enroll
	default:
		return fmt.Errorf("check item tag: %w", err)
	}

	if err := s.tags.SetLink(ctx, tagID, itemID); err != nil {
		// the partial unique index catches enrollments racing past the check
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.NewConflictError("item already carries a tag")
		}
		return fmt.Errorf("set link: %w", err)
	}

	if err := s.audit.Log(ctx, domain.AuditRecord{
		UserID:     userID,
		EntityType: domain.EntityTypeTag,
		EntityID:   &tagID,
		Action:     domain.AuditActionEnroll,
		Changes:    map[string]any{"item_id": itemID.String()},
	}); err != nil {
		return fmt.Errorf("audit enroll: %w", err)
	}

	return nil
}

// Unenroll unbinds a tag from its item, reverting it to UNASSIGNED.
// A tag that is absent or not enrolled yields ErrNotFound: from the caller's
// view there is no enrollment to remove.
func (s *Service) Unenroll(ctx context.Context, tagID uuid.UUID) (*domain.RFIDTag, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if tagID == uuid.Nil {
		return nil, domain.NewValidationError("tag_id", "required")
	}

	var tag *domain.RFIDTag

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		locked, err := s.tags.GetByIDForUpdate(ctx, tagID)
		if err != nil {
			return fmt.Errorf("get tag: %w", err)
		}
		if !locked.IsEnrolled() {
			return fmt.Errorf("tag %s is not enrolled: %w", locked.EPC, domain.ErrNotFound)
		}
		itemID := *locked.InventoryItemID

		if err := s.tags.ClearLink(ctx, tagID); err != nil {
			return fmt.Errorf("clear link: %w", err)
		}

		if err := s.audit.Log(ctx, domain.AuditRecord{
			UserID:     userID,
			EntityType: domain.EntityTypeTag,
			EntityID:   &tagID,
			Action:     domain.AuditActionUnenroll,
			Changes:    map[string]any{"item_id": itemID.String()},
		}); err != nil {
			return fmt.Errorf("audit unenroll: %w", err)
		}

		reloaded, err := s.tags.GetByID(ctx, tagID)
		if err != nil {
			return fmt.Errorf("reload tag: %w", err)
		}
		tag = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "rfid tag unenrolled",
		slog.String("tag_id", tagID.String()),
	)

	return tag, nil
}
