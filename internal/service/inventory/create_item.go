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

// CreateItem registers a new inventory item. The initial ENROLLMENT movement
// is written in the same transaction, so an item can never exist without
// ledger history.
func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (*domain.InventoryItem, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.ItemStatusIn
	}
	location := strings.TrimSpace(input.Location)

	item := &domain.InventoryItem{
		ID:            uuid.New(),
		SerialNumber:  trimOrNil(input.SerialNumber),
		AssetTag:      trimOrNil(input.AssetTag),
		Kind:          input.Kind,
		Status:        status,
		Location:      location,
		ContainerID:   input.ContainerID,
		ProductID:     input.ProductID,
		PurchaseDate:  input.PurchaseDate,
		PurchasePrice: input.PurchasePrice,
		WarrantyUntil: input.WarrantyUntil,
		Notes:         trimOrNil(input.Notes),
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if input.ContainerID != nil {
			if err := s.checkContainer(ctx, uuid.Nil, *input.ContainerID); err != nil {
				return err
			}
		}

		created, err := s.items.Create(ctx, item)
		if err != nil {
			return fmt.Errorf("create item: %w", err)
		}
		item = created

		if _, err := s.movements.Append(ctx, &domain.Movement{
			ID:          uuid.New(),
			ItemID:      item.ID,
			Type:        domain.MovementTypeEnrollment,
			FromStatus:  nil,
			ToStatus:    item.Status,
			ToLocation:  &item.Location,
			Reason:      "initial registration",
			PerformedBy: userID,
		}); err != nil {
			return fmt.Errorf("append enrollment movement: %w", err)
		}

		if err := s.audit.Log(ctx, domain.AuditRecord{
			UserID:     userID,
			EntityType: domain.EntityTypeItem,
			EntityID:   &item.ID,
			Action:     domain.AuditActionCreate,
			Changes: map[string]any{
				"kind":     string(item.Kind),
				"status":   string(item.Status),
				"location": item.Location,
			},
		}); err != nil {
			return fmt.Errorf("audit create: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "inventory item created",
		slog.String("item_id", item.ID.String()),
		slog.String("kind", item.Kind.String()),
		slog.String("location", item.Location),
	)

	return item, nil
}
