// Package item implements the inventory item repository using PostgreSQL.
// It owns the current state of each tracked item; all mutations run against
// the transaction carried in the context so the caller can pair them with a
// movement append atomically.
package item

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/rentstack/assettrack-backend/internal/adapter/postgres"
	"github.com/rentstack/assettrack-backend/internal/domain"
)

// Repo provides inventory item persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new item repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const itemColumns = `
    i.id, i.serial_number, i.asset_tag, i.kind, i.status, i.location,
    i.container_id, i.product_id, i.purchase_date, i.purchase_price,
    i.warranty_until, i.notes, i.created_at, i.updated_at`

const productJoinColumns = `
    p.id, p.name, p.sku, p.category`

const getByIDSQL = `
SELECT` + itemColumns + `,` + productJoinColumns + `
FROM inventory_items i
LEFT JOIN products p ON p.id = i.product_id
WHERE i.id = $1`

const getByIDForUpdateSQL = `
SELECT` + itemColumns + `
FROM inventory_items i
WHERE i.id = $1
FOR UPDATE OF i`

const listContentsSQL = `
SELECT` + itemColumns + `,` + productJoinColumns + `
FROM inventory_items i
LEFT JOIN products p ON p.id = i.product_id
WHERE i.container_id = $1
ORDER BY i.created_at`

const countContentsSQL = `SELECT count(*) FROM inventory_items WHERE container_id = $1`

const existsSQL = `SELECT EXISTS(SELECT 1 FROM inventory_items WHERE id = $1)`

// wouldCycleSQL walks the ancestor chain of a prospective container and
// reports whether the item itself appears in it. Run inside the mutating
// transaction so a concurrent re-parenting cannot slip a cycle past the check.
const wouldCycleSQL = `
WITH RECURSIVE ancestors AS (
    SELECT id, container_id FROM inventory_items WHERE id = $1
    UNION ALL
    SELECT i.id, i.container_id
    FROM inventory_items i
    JOIN ancestors a ON i.id = a.container_id
)
SELECT EXISTS(SELECT 1 FROM ancestors WHERE id = $2)`

// containerDepthSQL measures the containment chain from the given container
// up to its root, the container itself included.
const containerDepthSQL = `
WITH RECURSIVE chain AS (
    SELECT id, container_id, 1 AS depth FROM inventory_items WHERE id = $1
    UNION ALL
    SELECT i.id, i.container_id, c.depth + 1
    FROM inventory_items i
    JOIN chain c ON i.id = c.container_id
)
SELECT COALESCE(max(depth), 0) FROM chain`

const insertSQL = `
INSERT INTO inventory_items (
    id, serial_number, asset_tag, kind, status, location, container_id,
    product_id, purchase_date, purchase_price, warranty_until, notes
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING created_at, updated_at`

const updateSQL = `
UPDATE inventory_items
SET serial_number  = $2,
    asset_tag      = $3,
    status         = $4,
    location       = $5,
    container_id   = $6,
    product_id     = $7,
    purchase_date  = $8,
    purchase_price = $9,
    warranty_until = $10,
    notes          = $11,
    updated_at     = now()
WHERE id = $1
RETURNING updated_at`

const deleteSQL = `DELETE FROM inventory_items WHERE id = $1`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns an item with its product metadata.
// Returns domain.ErrNotFound if the item does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByIDSQL, id)
	it, err := scanItemWithProduct(row)
	if err != nil {
		return nil, postgres.MapError(err, "item", id)
	}

	return it, nil
}

// GetByIDForUpdate returns an item and takes a row lock on it. Must run
// inside a transaction; concurrent writers to the same item serialize here.
// Returns domain.ErrNotFound if the item does not exist.
func (r *Repo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByIDForUpdateSQL, id)
	it, err := scanItem(row)
	if err != nil {
		return nil, postgres.MapError(err, "item", id)
	}

	return it, nil
}

// List returns items matching the filter plus the total match count.
// Returns an empty slice (not nil) when nothing matches.
func (r *Repo) List(ctx context.Context, filter domain.ItemFilter) ([]*domain.InventoryItem, int, error) {
	normalizeFilter(&filter)
	conds := filterConditions(filter)

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countQB := builder.Select("count(*)").From("inventory_items i")
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
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	listQB := builder.
		Select("i.id", "i.serial_number", "i.asset_tag", "i.kind", "i.status", "i.location",
			"i.container_id", "i.product_id", "i.purchase_date", "i.purchase_price",
			"i.warranty_until", "i.notes", "i.created_at", "i.updated_at",
			"p.id", "p.name", "p.sku", "p.category").
		From("inventory_items i").
		LeftJoin("products p ON p.id = i.product_id").
		OrderBy("i.created_at DESC, i.id").
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
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}

	return items, total, nil
}

// ListContents returns the items directly contained in the given container,
// oldest first. Returns an empty slice (not nil) when the container is empty.
func (r *Repo) ListContents(ctx context.Context, containerID uuid.UUID) ([]*domain.InventoryItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listContentsSQL, containerID)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}

	return items, nil
}

// CountContents returns the number of items directly contained in the container.
func (r *Repo) CountContents(ctx context.Context, containerID uuid.UUID) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := querier.QueryRow(ctx, countContentsSQL, containerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count contents: %w", err)
	}

	return count, nil
}

// Exists reports whether an item row with the given id exists.
func (r *Repo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	if err := querier.QueryRow(ctx, existsSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("item exists: %w", err)
	}

	return exists, nil
}

// WouldCycle reports whether setting containerID as the container of itemID
// would create a containment cycle (including self-containment).
func (r *Repo) WouldCycle(ctx context.Context, itemID, containerID uuid.UUID) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var cycles bool
	if err := querier.QueryRow(ctx, wouldCycleSQL, containerID, itemID).Scan(&cycles); err != nil {
		return false, fmt.Errorf("containment cycle check: %w", err)
	}

	return cycles, nil
}

// ContainerDepth returns the number of containers in the chain from the given
// container up to the root, itself included. Returns 0 for an unknown id.
func (r *Repo) ContainerDepth(ctx context.Context, containerID uuid.UUID) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var depth int
	if err := querier.QueryRow(ctx, containerDepthSQL, containerID).Scan(&depth); err != nil {
		return 0, fmt.Errorf("container depth: %w", err)
	}

	return depth, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new item. Returns domain.ErrAlreadyExists when the serial
// number or asset tag collides with an existing row.
func (r *Repo) Create(ctx context.Context, it *domain.InventoryItem) (*domain.InventoryItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	err := querier.QueryRow(ctx, insertSQL,
		it.ID, it.SerialNumber, it.AssetTag, it.Kind.String(), it.Status.String(),
		it.Location, it.ContainerID, it.ProductID, it.PurchaseDate,
		it.PurchasePrice, it.WarrantyUntil, it.Notes,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "item", it.ID)
	}

	return it, nil
}

// Update overwrites the mutable fields of an item.
// Returns domain.ErrNotFound if the item does not exist and
// domain.ErrAlreadyExists on serial/asset-tag collisions.
func (r *Repo) Update(ctx context.Context, it *domain.InventoryItem) (*domain.InventoryItem, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	err := querier.QueryRow(ctx, updateSQL,
		it.ID, it.SerialNumber, it.AssetTag, it.Status.String(), it.Location,
		it.ContainerID, it.ProductID, it.PurchaseDate, it.PurchasePrice,
		it.WarrantyUntil, it.Notes,
	).Scan(&it.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "item", it.ID)
	}

	return it, nil
}

// Delete removes an item row. The caller is responsible for the
// childless-container and tag-unlink invariants; movement rows are retained.
// Returns domain.ErrNotFound if the item does not exist.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteSQL, id)
	if err != nil {
		return postgres.MapError(err, "item", id)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

// scanItem scans the bare item columns from a single row.
func scanItem(row pgx.Row) (*domain.InventoryItem, error) {
	var (
		it   domain.InventoryItem
		kind string
		sts  string
	)

	err := row.Scan(
		&it.ID, &it.SerialNumber, &it.AssetTag, &kind, &sts, &it.Location,
		&it.ContainerID, &it.ProductID, &it.PurchaseDate, &it.PurchasePrice,
		&it.WarrantyUntil, &it.Notes, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	it.Kind = domain.ItemKind(kind)
	it.Status = domain.ItemStatus(sts)
	return &it, nil
}

// scanItemWithProduct scans item columns plus the LEFT JOINed product columns.
func scanItemWithProduct(row pgx.Row) (*domain.InventoryItem, error) {
	var (
		it       domain.InventoryItem
		kind     string
		sts      string
		prodID   *uuid.UUID
		prodName *string
		prodSKU  *string
		prodCat  *string
	)

	err := row.Scan(
		&it.ID, &it.SerialNumber, &it.AssetTag, &kind, &sts, &it.Location,
		&it.ContainerID, &it.ProductID, &it.PurchaseDate, &it.PurchasePrice,
		&it.WarrantyUntil, &it.Notes, &it.CreatedAt, &it.UpdatedAt,
		&prodID, &prodName, &prodSKU, &prodCat,
	)
	if err != nil {
		return nil, err
	}

	it.Kind = domain.ItemKind(kind)
	it.Status = domain.ItemStatus(sts)
	if prodID != nil {
		it.Product = &domain.Product{
			ID:       *prodID,
			Name:     derefString(prodName),
			SKU:      derefString(prodSKU),
			Category: prodCat,
		}
	}

	return &it, nil
}

// scanItems scans multiple item+product rows.
func scanItems(rows pgx.Rows) ([]*domain.InventoryItem, error) {
	var result []*domain.InventoryItem
	for rows.Next() {
		it, err := scanItemWithProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []*domain.InventoryItem{}
	}

	return result, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
