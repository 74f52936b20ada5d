// Package audit implements the operator action log using PostgreSQL.
// It is append-only and separate from the movement ledger: it records who
// used the API, not the physical state of items.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/rentstack/assettrack-backend/internal/adapter/postgres"
	"github.com/rentstack/assettrack-backend/internal/domain"
)

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const insertSQL = `
INSERT INTO audit_log (id, user_id, entity_type, entity_id, action, changes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const getByEntitySQL = `
SELECT id, user_id, entity_type, entity_id, action, changes, created_at
FROM audit_log
WHERE entity_type = $1 AND entity_id = $2
ORDER BY created_at DESC
LIMIT $3`

// Log appends an audit record. Runs against the transaction in the context
// when present, so operator actions commit together with their effects.
func (r *Repo) Log(ctx context.Context, record domain.AuditRecord) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	changesJSON, err := json.Marshal(record.Changes)
	if err != nil {
		return fmt.Errorf("audit_record marshal changes: %w", err)
	}

	_, err = querier.Exec(ctx, insertSQL,
		record.ID, record.UserID, record.EntityType.String(), record.EntityID,
		record.Action.String(), changesJSON, record.CreatedAt,
	)
	if err != nil {
		return postgres.MapError(err, "audit_record", record.ID)
	}

	return nil
}

// GetByEntity returns the action history for a specific entity, newest first.
func (r *Repo) GetByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.AuditRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getByEntitySQL, entityType.String(), entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("get audit_records by entity: %w", err)
	}
	defer rows.Close()

	var result []domain.AuditRecord
	for rows.Next() {
		var (
			rec        domain.AuditRecord
			entityType string
			action     string
			changes    []byte
		)

		err := rows.Scan(&rec.ID, &rec.UserID, &entityType, &rec.EntityID, &action, &changes, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit_record: %w", err)
		}

		rec.EntityType = domain.EntityType(entityType)
		rec.Action = domain.AuditAction(action)
		if err := json.Unmarshal(changes, &rec.Changes); err != nil {
			return nil, fmt.Errorf("audit_record unmarshal changes: %w", err)
		}

		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get audit_records by entity: %w", err)
	}

	if result == nil {
		result = []domain.AuditRecord{}
	}

	return result, nil
}
