package rfid

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/domain"
	"github.com/rentstack/assettrack-backend/pkg/ctxutil"
)

// DeleteTag removes a tag and its detection history. Enrolled tags are
// refused; unenroll first.
func (s *Service) DeleteTag(ctx context.Context, tagID uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if tagID == uuid.Nil {
		return domain.NewValidationError("tag_id", "required")
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		tag, err := s.tags.GetByIDForUpdate(ctx, tagID)
		if err != nil {
			return fmt.Errorf("get tag: %w", err)
		}
		if tag.IsEnrolled() {
			return domain.NewConflictError("tag %s is enrolled, unenroll it first", tag.EPC)
		}

		if err := s.tags.Delete(ctx, tagID); err != nil {
			return fmt.Errorf("delete tag: %w", err)
		}

		if err := s.audit.Log(ctx, domain.AuditRecord{
			UserID:     userID,
			EntityType: domain.EntityTypeTag,
			EntityID:   &tagID,
			Action:     domain.AuditActionDelete,
			Changes:    map[string]any{"epc": tag.EPC},
		}); err != nil {
			return fmt.Errorf("audit delete: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "rfid tag deleted",
		slog.String("tag_id", tagID.String()),
	)

	return nil
}
