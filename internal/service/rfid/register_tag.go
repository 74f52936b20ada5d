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

// RegisterTag records a tag as UNASSIGNED ahead of enrollment. If ItemID is
// set, the tag is enrolled onto the item in the same transaction. An EPC that
// was previously auto-registered by the intake path (status UNKNOWN) is
// promoted instead of duplicated.
func (s *Service) RegisterTag(ctx context.Context, input RegisterTagInput) (*domain.RFIDTag, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	epc := normalizeEPC(input.EPC)

	var tag *domain.RFIDTag

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.tags.GetByEPC(ctx, epc)
		switch {
		case err == nil:
			if existing.Status != domain.TagStatusUnknown {
				return domain.NewConflictError("tag with EPC %s already registered", epc)
			}
			if err := s.tags.Promote(ctx, existing.ID, trimOrNil(input.TID)); err != nil {
				return fmt.Errorf("promote tag: %w", err)
			}
			promoted, err := s.tags.GetByID(ctx, existing.ID)
			if err != nil {
				return fmt.Errorf("reload tag: %w", err)
			}
			tag = promoted
		case errors.Is(err, domain.ErrNotFound):
			created, err := s.tags.Create(ctx, &domain.RFIDTag{
				ID:     uuid.New(),
				EPC:    epc,
				TID:    trimOrNil(input.TID),
				Status: domain.TagStatusUnassigned,
			})
			if err != nil {
				return fmt.Errorf("create tag: %w", err)
			}
			tag = created
		default:
			return fmt.Errorf("get tag by epc: %w", err)
		}

		if input.ItemID != nil {
			if err := s.enrollLocked(ctx, userID, tag.ID, *input.ItemID); err != nil {
				return err
			}
			refreshed, err := s.tags.GetByID(ctx, tag.ID)
			if err != nil {
				return fmt.Errorf("reload tag: %w", err)
			}
			tag = refreshed
			return nil
		}

		if err := s.audit.Log(ctx, domain.AuditRecord{
			UserID:     userID,
			EntityType: domain.EntityTypeTag,
			EntityID:   &tag.ID,
			Action:     domain.AuditActionCreate,
			Changes:    map[string]any{"epc": epc},
		}); err != nil {
			return fmt.Errorf("audit register: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "rfid tag registered",
		slog.String("tag_id", tag.ID.String()),
		slog.String("epc", epc),
		slog.String("status", tag.Status.String()),
	)

	return tag, nil
}
