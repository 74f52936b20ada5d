// Package movement implements the movement ledger repository using
// PostgreSQL. The ledger is append-only: rows are inserted exactly once per
// state-changing item operation and never updated or deleted afterwards.
package movement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/rentstack/assettrack-backend/internal/adapter/postgres"
	"github.com/rentstack/assettrack-backend/internal/domain"
)

// Repo provides movement ledger persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new movement repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const appendSQL = `
INSERT INTO inventory_movements (
    id, item_id, movement_type, from_status, to_status,
    from_location, to_location, reason, reference, performed_by
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING seq, created_at`

const listByItemSQL = `
SELECT id, item_id, seq, movement_type, from_status, to_status,
       from_location, to_location, reason, reference, performed_by, created_at
FROM inventory_movements
WHERE item_id = $1
ORDER BY created_at DESC, seq DESC
LIMIT $2`

const countByItemSQL = `SELECT count(*) FROM inventory_movements WHERE item_id = $1`

// Append inserts a ledger row. Runs against the transaction in the context
// when present, which is how item mutations keep state and ledger atomic.
func (r *Repo) Append(ctx context.Context, m *domain.Movement) (*domain.Movement, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var fromStatus *string
	if m.FromStatus != nil {
		s := m.FromStatus.String()
		fromStatus = &s
	}

	err := querier.QueryRow(ctx, appendSQL,
		m.ID, m.ItemID, m.Type.String(), fromStatus, m.ToStatus.String(),
		m.FromLocation, m.ToLocation, m.Reason, m.Reference, m.PerformedBy,
	).Scan(&m.Seq, &m.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "movement", m.ID)
	}

	return m, nil
}

// ListByItem returns the latest movements for an item, newest first.
// Ties on created_at resolve by insertion order. Returns an empty slice
// (not nil) for an item with no history.
func (r *Repo) ListByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]domain.Movement, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByItemSQL, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	movements, err := scanMovements(rows)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	return movements, nil
}

// CountByItem returns the number of ledger rows for an item.
func (r *Repo) CountByItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := querier.QueryRow(ctx, countByItemSQL, itemID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}

	return count, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanMovements(rows pgx.Rows) ([]domain.Movement, error) {
	var result []domain.Movement
	for rows.Next() {
		var (
			m          domain.Movement
			mType      string
			fromStatus *string
			toStatus   string
		)

		err := rows.Scan(
			&m.ID, &m.ItemID, &m.Seq, &mType, &fromStatus, &toStatus,
			&m.FromLocation, &m.ToLocation, &m.Reason, &m.Reference,
			&m.PerformedBy, &m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		m.Type = domain.MovementType(mType)
		m.ToStatus = domain.ItemStatus(toStatus)
		if fromStatus != nil {
			s := domain.ItemStatus(*fromStatus)
			m.FromStatus = &s
		}

		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []domain.Movement{}
	}

	return result, nil
}
