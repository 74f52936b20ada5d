package movement_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/movement"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/testhelper"
	"github.com/rentstack/assettrack-backend/internal/domain"
)

func newRepo(t *testing.T) (*movement.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return movement.New(pool), pool
}

// buildMovement creates a CHECK_OUT movement for the given item.
func buildMovement(itemID uuid.UUID, reason string) domain.Movement {
	from := domain.ItemStatusIn
	fromLoc := "Warehouse 1"
	toLoc := "Client site"
	return domain.Movement{
		ID:           uuid.New(),
		ItemID:       itemID,
		Type:         domain.MovementTypeCheckOut,
		FromStatus:   &from,
		ToStatus:     domain.ItemStatusOut,
		FromLocation: &fromLoc,
		ToLocation:   &toLoc,
		Reason:       reason,
		PerformedBy:  uuid.New(),
	}
}

func TestRepo_Append_HappyPath(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it := testhelper.SeedItem(t, pool)
	ref := "ORD-1042"
	m := buildMovement(it.ID, "rental pickup")
	m.Reference = &ref

	got, err := repo.Append(ctx, &m)
	if err != nil {
		t.Fatalf("Append: unexpected error: %v", err)
	}

	if got.Seq == 0 {
		t.Error("expected seq to be assigned")
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	movements, err := repo.ListByItem(ctx, it.ID, 10)
	if err != nil {
		t.Fatalf("ListByItem: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	if movements[0].Reference == nil || *movements[0].Reference != ref {
		t.Errorf("Reference mismatch: got %v, want %q", movements[0].Reference, ref)
	}
	if movements[0].FromStatus == nil || *movements[0].FromStatus != domain.ItemStatusIn {
		t.Errorf("FromStatus mismatch: got %v", movements[0].FromStatus)
	}
}

// Enrollment rows are defined by a null from_status; the datastore enforces
// the pairing in both directions.
func TestRepo_Append_EnrollmentWithoutFromStatus(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it := testhelper.SeedItem(t, pool)
	loc := "Warehouse 1"
	m := domain.Movement{
		ID:          uuid.New(),
		ItemID:      it.ID,
		Type:        domain.MovementTypeEnrollment,
		ToStatus:    domain.ItemStatusIn,
		ToLocation:  &loc,
		Reason:      "initial registration",
		PerformedBy: uuid.New(),
	}

	if _, err := repo.Append(ctx, &m); err != nil {
		t.Fatalf("Append: unexpected error: %v", err)
	}
}

func TestRepo_Append_EnrollmentWithFromStatusRejected(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it := testhelper.SeedItem(t, pool)
	from := domain.ItemStatusIn
	m := domain.Movement{
		ID:          uuid.New(),
		ItemID:      it.ID,
		Type:        domain.MovementTypeEnrollment,
		FromStatus:  &from,
		ToStatus:    domain.ItemStatusIn,
		Reason:      "bad enrollment",
		PerformedBy: uuid.New(),
	}

	if _, err := repo.Append(ctx, &m); err == nil {
		t.Fatal("expected constraint violation, got nil")
	}
}

func TestRepo_ListByItem_NewestFirst(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it := testhelper.SeedItem(t, pool)

	var seqs []int64
	for _, reason := range []string{"first", "second", "third"} {
		m := buildMovement(it.ID, reason)
		appended, err := repo.Append(ctx, &m)
		if err != nil {
			t.Fatalf("Append %q: %v", reason, err)
		}
		seqs = append(seqs, appended.Seq)
	}

	movements, err := repo.ListByItem(ctx, it.ID, 10)
	if err != nil {
		t.Fatalf("ListByItem: %v", err)
	}
	if len(movements) != 3 {
		t.Fatalf("expected 3 movements, got %d", len(movements))
	}

	// Rows inserted in the same transaction-free burst share created_at at
	// clock resolution; seq breaks the tie in insertion order.
	if movements[0].Reason != "third" || movements[2].Reason != "first" {
		t.Errorf("ordering mismatch: got %q..%q", movements[0].Reason, movements[2].Reason)
	}
	if movements[0].Seq != seqs[2] {
		t.Errorf("expected newest seq %d first, got %d", seqs[2], movements[0].Seq)
	}
}

func TestRepo_ListByItem_RespectsLimit(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it := testhelper.SeedItem(t, pool)
	for range 5 {
		m := buildMovement(it.ID, "cycle")
		if _, err := repo.Append(ctx, &m); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	movements, err := repo.ListByItem(ctx, it.ID, 2)
	if err != nil {
		t.Fatalf("ListByItem: %v", err)
	}
	if len(movements) != 2 {
		t.Errorf("expected 2 movements, got %d", len(movements))
	}

	count, err := repo.CountByItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("CountByItem: %v", err)
	}
	if count != 5 {
		t.Errorf("CountByItem: got %d, want 5", count)
	}
}

func TestRepo_ListByItem_Empty(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	movements, err := repo.ListByItem(context.Background(), uuid.New(), 10)
	if err != nil {
		t.Fatalf("ListByItem: %v", err)
	}
	if movements == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(movements) != 0 {
		t.Errorf("expected 0 movements, got %d", len(movements))
	}
}

// Ledger rows survive deletion of the item they describe.
func TestRepo_Movements_SurviveItemDeletion(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it := testhelper.SeedItem(t, pool)
	m := buildMovement(it.ID, "last known movement")
	if _, err := repo.Append(ctx, &m); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if _, err := pool.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, it.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}

	count, err := repo.CountByItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("CountByItem: %v", err)
	}
	if count != 1 {
		t.Errorf("expected ledger row to survive, got %d rows", count)
	}
}
