package rfid

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/domain"
	"github.com/rentstack/assettrack-backend/pkg/ctxutil"
)

// GetTag returns a single tag with a preview of its most recent detections.
func (s *Service) GetTag(ctx context.Context, tagID uuid.UUID) (*domain.RFIDTag, []domain.RFIDDetection, error) {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return nil, nil, domain.ErrUnauthorized
	}
	if tagID == uuid.Nil {
		return nil, nil, domain.NewValidationError("tag_id", "required")
	}

	tag, err := s.tags.GetByID(ctx, tagID)
	if err != nil {
		return nil, nil, fmt.Errorf("get tag: %w", err)
	}

	detections, err := s.detections.ListByTag(ctx, tagID, s.cfg.DetectionPreviewLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("list detections: %w", err)
	}

	return tag, detections, nil
}

// ListTags returns a filtered, paginated tag page and the total count.
func (s *Service) ListTags(ctx context.Context, filter domain.TagFilter) ([]*domain.RFIDTag, int, error) {
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
		return nil, 0, domain.NewValidationError("status", "must be one of ENROLLED, UNASSIGNED, UNKNOWN")
	}

	tags, total, err := s.tags.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list tags: %w", err)
	}

	return tags, total, nil
}

// ListUnknownTags returns the enrollment work queue: tags seen by readers but
// not yet claimed, plus registered tags that were never bound to an item.
func (s *Service) ListUnknownTags(ctx context.Context) ([]*domain.RFIDTag, error) {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}

	tags, err := s.tags.ListUnknown(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unknown tags: %w", err)
	}

	return tags, nil
}
