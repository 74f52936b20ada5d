package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/domain"
	"github.com/rentstack/assettrack-backend/pkg/ctxutil"
)

// CheckIn marks an item as returned, to the given location or — when no
// location is passed — wherever it already was. Idempotent with respect to
// the current status: checking in an item that is already IN still records
// the movement.
func (s *Service) CheckIn(ctx context.Context, input CheckInput) (*domain.InventoryItem, error) {
	return s.check(ctx, input, domain.MovementTypeCheckIn, domain.ItemStatusIn, "check-in")
}

// CheckOut marks an item as taken out, to the given location when one is
// passed.
func (s *Service) CheckOut(ctx context.Context, input CheckInput) (*domain.InventoryItem, error) {
	return s.check(ctx, input, domain.MovementTypeCheckOut, domain.ItemStatusOut, "check-out")
}

func (s *Service) check(
	ctx context.Context,
	input CheckInput,
	movementType domain.MovementType,
	toStatus domain.ItemStatus,
	defaultReason string,
) (*domain.InventoryItem, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = defaultReason
	}

	var updated *domain.InventoryItem
	var location string

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		item, err := s.items.GetByIDForUpdate(ctx, input.ItemID)
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}

		prevStatus := item.Status
		prevLocation := item.Location

		// absent location means the item stays where it is
		location = strings.TrimSpace(input.Location)
		if location == "" {
			location = item.Location
		}

		item.Status = toStatus
		item.Location = location

		updated, err = s.items.Update(ctx, item)
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}

		if _, err := s.movements.Append(ctx, &domain.Movement{
			ID:           uuid.New(),
			ItemID:       updated.ID,
			Type:         movementType,
			FromStatus:   &prevStatus,
			ToStatus:     toStatus,
			FromLocation: &prevLocation,
			ToLocation:   &location,
			Reason:       reason,
			Reference:    trimOrNil(input.Reference),
			PerformedBy:  userID,
		}); err != nil {
			return fmt.Errorf("append %s movement: %w", movementType, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "inventory item status changed",
		slog.String("item_id", updated.ID.String()),
		slog.String("movement_type", movementType.String()),
		slog.String("location", location),
	)

	return updated, nil
}
