// Package detection implements the RFID detection repository using
// PostgreSQL. Detections are append-only reader sightings; every intake call
// appends a row even when the tag itself is only upserted.
package detection

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/rentstack/assettrack-backend/internal/adapter/postgres"
	"github.com/rentstack/assettrack-backend/internal/domain"
)

// Repo provides detection persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new detection repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const appendSQL = `
INSERT INTO rfid_detections (id, tag_id, reader_id, reader_name, rssi, direction, detected_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at`

const listByTagSQL = `
SELECT id, tag_id, reader_id, reader_name, rssi, direction, detected_at, created_at
FROM rfid_detections
WHERE tag_id = $1
ORDER BY detected_at DESC
LIMIT $2`

const countByTagSQL = `SELECT count(*) FROM rfid_detections WHERE tag_id = $1`

// Append inserts a detection row.
func (r *Repo) Append(ctx context.Context, d *domain.RFIDDetection) (*domain.RFIDDetection, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var direction *string
	if d.Direction != nil {
		s := d.Direction.String()
		direction = &s
	}

	err := querier.QueryRow(ctx, appendSQL,
		d.ID, d.TagID, d.ReaderID, d.ReaderName, d.RSSI, direction, d.Timestamp,
	).Scan(&d.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "detection", d.ID)
	}

	return d, nil
}

// ListByTag returns the latest detections for a tag, newest sighting first.
// Returns an empty slice (not nil) for a tag with no detections.
func (r *Repo) ListByTag(ctx context.Context, tagID uuid.UUID, limit int) ([]domain.RFIDDetection, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByTagSQL, tagID, limit)
	if err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}
	defer rows.Close()

	detections, err := scanDetections(rows)
	if err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}

	return detections, nil
}

// CountByTag returns the number of detection rows for a tag.
func (r *Repo) CountByTag(ctx context.Context, tagID uuid.UUID) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := querier.QueryRow(ctx, countByTagSQL, tagID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count detections: %w", err)
	}

	return count, nil
}

func scanDetections(rows pgx.Rows) ([]domain.RFIDDetection, error) {
	var result []domain.RFIDDetection
	for rows.Next() {
		var (
			d         domain.RFIDDetection
			direction *string
		)

		err := rows.Scan(
			&d.ID, &d.TagID, &d.ReaderID, &d.ReaderName, &d.RSSI,
			&direction, &d.Timestamp, &d.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if direction != nil {
			dir := domain.Direction(*direction)
			d.Direction = &dir
		}

		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []domain.RFIDDetection{}
	}

	return result, nil
}
