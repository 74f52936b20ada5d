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

// UpdateItem applies a partial update to an item. If the update changes
// status or location, an ADJUSTMENT movement is appended in the same
// transaction; pure metadata edits leave the ledger untouched.
func (s *Service) UpdateItem(ctx context.Context, input UpdateItemInput) (*domain.InventoryItem, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.InventoryItem

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		item, err := s.items.GetByIDForUpdate(ctx, input.ItemID)
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}

		prevStatus := item.Status
		prevLocation := item.Location
		changes := map[string]any{}

		if input.SerialNumber != nil {
			item.SerialNumber = trimOrNil(input.SerialNumber)
			changes["serial_number"] = deref(item.SerialNumber)
		}
		if input.AssetTag != nil {
			item.AssetTag = trimOrNil(input.AssetTag)
			changes["asset_tag"] = deref(item.AssetTag)
		}
		if input.Status != nil {
			item.Status = *input.Status
			changes["status"] = string(item.Status)
		}
		if input.Location != nil {
			item.Location = strings.TrimSpace(*input.Location)
			changes["location"] = item.Location
		}
		if input.SetContainer {
			if input.ContainerID != nil {
				if err := s.checkContainer(ctx, item.ID, *input.ContainerID); err != nil {
					return err
				}
				changes["container_id"] = input.ContainerID.String()
			} else {
				changes["container_id"] = nil
			}
			item.ContainerID = input.ContainerID
		}
		if input.SetProduct {
			item.ProductID = input.ProductID
			if input.ProductID != nil {
				changes["product_id"] = input.ProductID.String()
			} else {
				changes["product_id"] = nil
			}
		}
		if input.PurchaseDate != nil {
			item.PurchaseDate = input.PurchaseDate
		}
		if input.PurchasePrice != nil {
			item.PurchasePrice = input.PurchasePrice
		}
		if input.WarrantyUntil != nil {
			item.WarrantyUntil = input.WarrantyUntil
		}
		if input.Notes != nil {
			item.Notes = trimOrNil(input.Notes)
		}

		updated, err = s.items.Update(ctx, item)
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}

		if updated.Status != prevStatus || updated.Location != prevLocation {
			reason := "manual update"
			if r := trimOrNil(input.Reason); r != nil {
				reason = *r
			}
			if _, err := s.movements.Append(ctx, &domain.Movement{
				ID:           uuid.New(),
				ItemID:       updated.ID,
				Type:         domain.MovementTypeAdjustment,
				FromStatus:   &prevStatus,
				ToStatus:     updated.Status,
				FromLocation: &prevLocation,
				ToLocation:   &updated.Location,
				Reason:       reason,
				PerformedBy:  userID,
			}); err != nil {
				return fmt.Errorf("append adjustment movement: %w", err)
			}
		}

		if len(changes) > 0 {
			if err := s.audit.Log(ctx, domain.AuditRecord{
				UserID:     userID,
				EntityType: domain.EntityTypeItem,
				EntityID:   &updated.ID,
				Action:     domain.AuditActionUpdate,
				Changes:    changes,
			}); err != nil {
				return fmt.Errorf("audit update: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "inventory item updated",
		slog.String("item_id", updated.ID.String()),
	)

	return updated, nil
}

// deref returns the string value or nil for use in audit change maps.
func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
