// Package tag implements the RFID tag registry repository using PostgreSQL.
// The epc column carries a unique constraint, so the detection upsert and
// the enrollment link are race-safe at the datastore level rather than
// check-then-insert in application code.
package tag

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/rentstack/assettrack-backend/internal/adapter/postgres"
	"github.com/rentstack/assettrack-backend/internal/domain"
)

// Repo provides RFID tag persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new tag repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const tagColumns = `
    t.id, t.epc, t.tid, t.status, t.inventory_item_id, t.ever_enrolled,
    t.first_seen_at, t.last_seen_at, t.created_at, t.updated_at`

const detectionCountColumn = `
    (SELECT count(*) FROM rfid_detections d WHERE d.tag_id = t.id) AS detection_count`

const getByIDSQL = `
SELECT` + tagColumns + `,` + detectionCountColumn + `
FROM rfid_tags t
WHERE t.id = $1`

const getByIDForUpdateSQL = `
SELECT` + tagColumns + `
FROM rfid_tags t
WHERE t.id = $1
FOR UPDATE OF t`

const getByEPCSQL = `
SELECT` + tagColumns + `,` + detectionCountColumn + `
FROM rfid_tags t
WHERE t.epc = $1`

const getByItemIDSQL = `
SELECT` + tagColumns + `,` + detectionCountColumn + `
FROM rfid_tags t
WHERE t.inventory_item_id = $1`

// listUnknownSQL returns tags awaiting action: created purely by detection
// ingestion (UNKNOWN) or explicitly registered but never bound to an item.
const listUnknownSQL = `
SELECT` + tagColumns + `,` + detectionCountColumn + `
FROM rfid_tags t
WHERE t.status = 'UNKNOWN'
   OR (t.status = 'UNASSIGNED' AND NOT t.ever_enrolled)
ORDER BY t.last_seen_at DESC NULLS LAST, t.created_at DESC`

const insertSQL = `
INSERT INTO rfid_tags (id, epc, tid, status, inventory_item_id, ever_enrolled, first_seen_at, last_seen_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at, updated_at`

// upsertDetectedSQL is the single-statement detection upsert: a fresh EPC
// creates an UNKNOWN row, a known EPC only advances the sighting window.
// GREATEST/LEAST keep the timestamps monotonic under out-of-order delivery.
const upsertDetectedSQL = `
INSERT INTO rfid_tags (id, epc, status, first_seen_at, last_seen_at)
VALUES ($1, $2, 'UNKNOWN', $3, $3)
ON CONFLICT (epc) DO UPDATE
SET first_seen_at = LEAST(COALESCE(rfid_tags.first_seen_at, EXCLUDED.first_seen_at), EXCLUDED.first_seen_at),
    last_seen_at  = GREATEST(COALESCE(rfid_tags.last_seen_at, EXCLUDED.last_seen_at), EXCLUDED.last_seen_at),
    updated_at    = now()
RETURNING id, epc, tid, status, inventory_item_id, ever_enrolled,
          first_seen_at, last_seen_at, created_at, updated_at`

// promoteSQL moves an auto-registered tag out of UNKNOWN once an operator
// claims it, optionally filling in the TID.
const promoteSQL = `
UPDATE rfid_tags
SET status     = 'UNASSIGNED',
    tid        = COALESCE($2, tid),
    updated_at = now()
WHERE id = $1 AND status = 'UNKNOWN'`

const setLinkSQL = `
UPDATE rfid_tags
SET inventory_item_id = $2,
    status            = 'ENROLLED',
    ever_enrolled     = true,
    updated_at        = now()
WHERE id = $1`

const clearLinkSQL = `
UPDATE rfid_tags
SET inventory_item_id = NULL,
    status            = 'UNASSIGNED',
    updated_at        = now()
WHERE id = $1`

const clearLinkByItemSQL = `
UPDATE rfid_tags
SET inventory_item_id = NULL,
    status            = 'UNASSIGNED',
    updated_at        = now()
WHERE inventory_item_id = $1`

const deleteSQL = `DELETE FROM rfid_tags WHERE id = $1`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a tag by primary key with its detection count.
// Returns domain.ErrNotFound if the tag does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RFIDTag, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	t, err := scanTagWithCount(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "tag", id)
	}

	return t, nil
}

// GetByIDForUpdate returns a tag and takes a row lock on it. Must run inside
// a transaction; concurrent enroll/unenroll/delete calls serialize here.
func (r *Repo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.RFIDTag, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	t, err := scanTag(querier.QueryRow(ctx, getByIDForUpdateSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "tag", id)
	}

	return t, nil
}

// GetByEPC returns a tag by its hardware id.
// Returns domain.ErrNotFound if no tag with that EPC is registered.
func (r *Repo) GetByEPC(ctx context.Context, epc string) (*domain.RFIDTag, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	t, err := scanTagWithCount(querier.QueryRow(ctx, getByEPCSQL, epc))
	if err != nil {
		return nil, postgres.MapError(err, "tag", uuid.Nil)
	}

	return t, nil
}

// GetByItemID returns the tag currently linked to an item, or
// domain.ErrNotFound when the item has no bound tag.
func (r *Repo) GetByItemID(ctx context.Context, itemID uuid.UUID) (*domain.RFIDTag, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	t, err := scanTagWithCount(querier.QueryRow(ctx, getByItemIDSQL, itemID))
	if err != nil {
		return nil, postgres.MapError(err, "tag", itemID)
	}

	return t, nil
}

// List returns tags matching the filter plus the total match count, most
// recently seen first. Returns an empty slice (not nil) when nothing matches.
func (r *Repo) List(ctx context.Context, filter domain.TagFilter) ([]*domain.RFIDTag, int, error) {
	normalizeFilter(&filter)

	var conds sq.And
	if filter.Search != nil && *filter.Search != "" {
		pattern := "%" + *filter.Search + "%"
		conds = append(conds, sq.Or{
			sq.ILike{"t.epc": pattern},
			sq.ILike{"t.tid": pattern},
		})
	}
	if filter.Status != nil {
		conds = append(conds, sq.Eq{"t.status": filter.Status.String()})
	}

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countQB := builder.Select("count(*)").From("rfid_tags t")
	if len(conds) > 0 {
		countQB = countQB.Where(conds)
	}
	countSQL, countArgs, err := countQB.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tags: %w", err)
	}

	listQB := builder.
		Select("t.id", "t.epc", "t.tid", "t.status", "t.inventory_item_id",
			"t.ever_enrolled", "t.first_seen_at", "t.last_seen_at",
			"t.created_at", "t.updated_at",
			"(SELECT count(*) FROM rfid_detections d WHERE d.tag_id = t.id) AS detection_count").
		From("rfid_tags t").
		OrderBy("t.last_seen_at DESC NULLS LAST, t.created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))
	if len(conds) > 0 {
		listQB = listQB.Where(conds)
	}

	listSQL, listArgs, err := listQB.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := querier.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags, err := scanTags(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list tags: %w", err)
	}

	return tags, total, nil
}

// ListUnknown returns all tags awaiting action: UNKNOWN tags plus UNASSIGNED
// tags that have never been enrolled.
func (r *Repo) ListUnknown(ctx context.Context) ([]*domain.RFIDTag, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listUnknownSQL)
	if err != nil {
		return nil, fmt.Errorf("list unknown tags: %w", err)
	}
	defer rows.Close()

	tags, err := scanTags(rows)
	if err != nil {
		return nil, fmt.Errorf("list unknown tags: %w", err)
	}

	return tags, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts an explicitly registered tag.
// Returns domain.ErrAlreadyExists when the EPC is already registered, or
// when linking an item that already carries another tag.
func (r *Repo) Create(ctx context.Context, t *domain.RFIDTag) (*domain.RFIDTag, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	err := querier.QueryRow(ctx, insertSQL,
		t.ID, t.EPC, t.TID, t.Status.String(), t.InventoryItemID,
		t.EverEnrolled, t.FirstSeenAt, t.LastSeenAt,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "tag", t.ID)
	}

	return t, nil
}

// UpsertDetected creates an UNKNOWN tag row for a fresh EPC or advances the
// sighting window of an existing one, in a single statement keyed on the epc
// unique constraint. Safe for concurrent high-frequency calls on the same EPC.
func (r *Repo) UpsertDetected(ctx context.Context, epc string, seenAt time.Time) (*domain.RFIDTag, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	t, err := scanTag(querier.QueryRow(ctx, upsertDetectedSQL, uuid.New(), epc, seenAt))
	if err != nil {
		return nil, postgres.MapError(err, "tag", uuid.Nil)
	}

	return t, nil
}

// Promote moves an UNKNOWN tag to UNASSIGNED, keeping an existing TID unless
// a new one is supplied. Returns domain.ErrNotFound when the tag is absent or
// no longer UNKNOWN.
func (r *Repo) Promote(ctx context.Context, tagID uuid.UUID, tid *string) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, promoteSQL, tagID, tid)
	if err != nil {
		return postgres.MapError(err, "tag", tagID)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}

	return nil
}

// SetLink binds the tag to an item and marks it ENROLLED. The partial unique
// index on inventory_item_id rejects a second tag racing onto the same item
// with domain.ErrAlreadyExists.
func (r *Repo) SetLink(ctx context.Context, tagID, itemID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, setLinkSQL, tagID, itemID)
	if err != nil {
		return postgres.MapError(err, "tag", tagID)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}

	return nil
}

// ClearLink unbinds the tag and reverts it to UNASSIGNED.
func (r *Repo) ClearLink(ctx context.Context, tagID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, clearLinkSQL, tagID)
	if err != nil {
		return postgres.MapError(err, "tag", tagID)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}

	return nil
}

// ClearLinkByItem unbinds whatever tag is linked to the item, if any.
// Not an error when the item has no bound tag (0 rows affected is OK).
func (r *Repo) ClearLinkByItem(ctx context.Context, itemID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, clearLinkByItemSQL, itemID); err != nil {
		return postgres.MapError(err, "tag", itemID)
	}

	return nil
}

// Delete removes a tag row; detections cascade. The caller enforces the
// not-while-enrolled policy. Returns domain.ErrNotFound if the tag is absent.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteSQL, id)
	if err != nil {
		return postgres.MapError(err, "tag", id)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tag %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanTag(row pgx.Row) (*domain.RFIDTag, error) {
	var (
		t   domain.RFIDTag
		sts string
	)

	err := row.Scan(
		&t.ID, &t.EPC, &t.TID, &sts, &t.InventoryItemID, &t.EverEnrolled,
		&t.FirstSeenAt, &t.LastSeenAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = domain.TagStatus(sts)
	return &t, nil
}

func scanTagWithCount(row pgx.Row) (*domain.RFIDTag, error) {
	var (
		t   domain.RFIDTag
		sts string
	)

	err := row.Scan(
		&t.ID, &t.EPC, &t.TID, &sts, &t.InventoryItemID, &t.EverEnrolled,
		&t.FirstSeenAt, &t.LastSeenAt, &t.CreatedAt, &t.UpdatedAt,
		&t.DetectionCount,
	)
	if err != nil {
		return nil, err
	}

	t.Status = domain.TagStatus(sts)
	return &t, nil
}

func scanTags(rows pgx.Rows) ([]*domain.RFIDTag, error) {
	var result []*domain.RFIDTag
	for rows.Next() {
		t, err := scanTagWithCount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []*domain.RFIDTag{}
	}

	return result, nil
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

func normalizeFilter(f *domain.TagFilter) {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
