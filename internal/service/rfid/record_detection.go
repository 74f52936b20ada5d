package rfid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/domain"
)

// RecordDetection ingests one reader sighting. Unknown EPCs are registered
// automatically with status UNKNOWN; known tags only get their seen
// timestamps advanced. The tag upsert and the detection row are written in
// one transaction so a detection can never reference a missing tag.
func (s *Service) RecordDetection(ctx context.Context, input RecordDetectionInput) (*domain.RFIDTag, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	epc := normalizeEPC(input.EPC)
	readerID := strings.TrimSpace(input.ReaderID)

	now := time.Now().UTC()
	ts := input.Timestamp
	if ts.IsZero() {
		ts = now
	} else {
		ts = ts.UTC()
	}
	if s.cfg.MaxClockSkew > 0 && ts.After(now.Add(s.cfg.MaxClockSkew)) {
		return nil, domain.NewValidationError("timestamp", "too far in the future")
	}

	var tag *domain.RFIDTag

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		upserted, err := s.tags.UpsertDetected(ctx, epc, ts)
		if err != nil {
			return fmt.Errorf("upsert tag: %w", err)
		}
		tag = upserted

		if _, err := s.detections.Append(ctx, &domain.RFIDDetection{
			ID:         uuid.New(),
			TagID:      tag.ID,
			ReaderID:   readerID,
			ReaderName: trimOrNil(input.ReaderName),
			RSSI:       input.RSSI,
			Direction:  input.Direction,
			Timestamp:  ts,
		}); err != nil {
			return fmt.Errorf("append detection: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "detection recorded",
		slog.String("epc", epc),
		slog.String("reader_id", readerID),
		slog.String("tag_status", tag.Status.String()),
	)

	return tag, nil
}
