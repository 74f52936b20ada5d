package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentstack/assettrack-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedProduct creates a product with a unique SKU.
func SeedProduct(t *testing.T, pool *pgxpool.Pool) domain.Product {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	category := "test"
	p := domain.Product{
		ID:       uuid.New(),
		Name:     "Test Product " + suffix,
		SKU:      "SKU-" + suffix,
		Category: &category,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO products (id, name, sku, category) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.SKU, p.Category,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedProduct insert: %v", err)
	}

	return p
}

// SeedItem creates an inventory item with unique serial number and asset tag.
// Opts mutate the item before insertion.
func SeedItem(t *testing.T, pool *pgxpool.Pool, opts ...func(*domain.InventoryItem)) domain.InventoryItem {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	serial := "SN-" + suffix
	assetTag := "AT-" + suffix
	now := time.Now().UTC().Truncate(time.Microsecond)
	it := domain.InventoryItem{
		ID:           uuid.New(),
		SerialNumber: &serial,
		AssetTag:     &assetTag,
		Kind:         domain.ItemKindUnit,
		Status:       domain.ItemStatusIn,
		Location:     "Warehouse 1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, opt := range opts {
		opt(&it)
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO inventory_items (id, serial_number, asset_tag, kind, status, location, container_id, product_id, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		it.ID, it.SerialNumber, it.AssetTag, it.Kind.String(), it.Status.String(),
		it.Location, it.ContainerID, it.ProductID, it.Notes, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedItem insert: %v", err)
	}

	return it
}

// SeedTag creates an RFID tag with a unique EPC. Opts mutate the tag before
// insertion.
func SeedTag(t *testing.T, pool *pgxpool.Pool, opts ...func(*domain.RFIDTag)) domain.RFIDTag {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	tag := domain.RFIDTag{
		ID:        uuid.New(),
		EPC:       "E2-" + suffix,
		Status:    domain.TagStatusUnassigned,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, opt := range opts {
		opt(&tag)
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO rfid_tags (id, epc, tid, status, inventory_item_id, ever_enrolled, first_seen_at, last_seen_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tag.ID, tag.EPC, tag.TID, tag.Status.String(), tag.InventoryItemID,
		tag.EverEnrolled, tag.FirstSeenAt, tag.LastSeenAt, tag.CreatedAt, tag.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTag insert: %v", err)
	}

	return tag
}
